package routes

import (
	"net/http"
	"sort"

	"produccion-service/internal/handlers"
	"produccion-service/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRoutes configura todas las rutas de la aplicación
func SetupRoutes(router *gin.Engine, materiaHandler *handlers.MateriaPrimaHandler, produccionHandler *handlers.ProduccionHandler, monitoringHandler *handlers.MonitoringHandler, healthChecker *middleware.HealthChecker) {
	v1 := router.Group("/api/v1")
	{
		materias := v1.Group("/materias-primas")
		{
			materias.POST("", materiaHandler.CreateMateriaPrima)
			materias.GET("", materiaHandler.ListMateriasPrimas)
			materias.POST("/xml", materiaHandler.UploadInvoice)
			materias.GET("/:id", materiaHandler.GetMateriaPrima)
			materias.PUT("/:id", materiaHandler.UpdateMateriaPrima)
			materias.DELETE("/:id", materiaHandler.DeactivateMateriaPrima)
		}

		producciones := v1.Group("/producciones")
		{
			producciones.POST("", produccionHandler.CreateProceso)
			producciones.GET("/:id", produccionHandler.GetProceso)
			producciones.PUT("/:id", produccionHandler.UpdateProceso)
			producciones.DELETE("/:id", produccionHandler.DeactivateProceso)
			producciones.PUT("/:id/materias-primas", produccionHandler.ReconcileConsumption)
			producciones.POST("/:id/calcular", produccionHandler.CalculateProduction)
		}

		monitoring := v1.Group("/monitoring")
		{
			monitoring.GET("/metrics", monitoringHandler.GetMetrics)
			monitoring.GET("/ws", monitoringHandler.WebSocketMetrics)
		}
	}

	router.GET("/health", healthChecker.HealthCheck)

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Produccion Service API",
			"version": "1.0.0",
			"status":  "running",
			"endpoints": gin.H{
				"health": "/health",
				"api":    "/api/v1",
				"materias_primas": gin.H{
					"crear":   "POST /api/v1/materias-primas",
					"factura": "POST /api/v1/materias-primas/xml",
					"listar":  "GET /api/v1/materias-primas?activas=true",
				},
				"producciones": gin.H{
					"crear":       "POST /api/v1/producciones",
					"actualizar":  "PUT /api/v1/producciones/:id",
					"reconciliar": "PUT /api/v1/producciones/:id/materias-primas",
					"calcular":    "POST /api/v1/producciones/:id/calcular",
					"consultar":   "GET /api/v1/producciones/:id",
					"desactivar":  "DELETE /api/v1/producciones/:id",
				},
			},
		})
	})
}

// Endpoints rutas registradas, ordenadas por path, para el banner de inicio
func Endpoints(router *gin.Engine) []middleware.Endpoint {
	registered := router.Routes()
	sort.Slice(registered, func(i, j int) bool {
		if registered[i].Path != registered[j].Path {
			return registered[i].Path < registered[j].Path
		}
		return registered[i].Method < registered[j].Method
	})

	endpoints := make([]middleware.Endpoint, 0, len(registered))
	for _, r := range registered {
		endpoints = append(endpoints, middleware.Endpoint{Method: r.Method, Path: r.Path})
	}
	return endpoints
}
