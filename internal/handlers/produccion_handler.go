package handlers

import (
	"net/http"

	"produccion-service/internal/models"
	"produccion-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ProduccionHandler maneja las peticiones HTTP de procesos de producción
type ProduccionHandler struct {
	produccionService services.ProduccionService
	validator         *validator.Validate
	logger            *zap.Logger
}

// NewProduccionHandler crea una nueva instancia del handler
func NewProduccionHandler(produccionService services.ProduccionService, logger *zap.Logger) *ProduccionHandler {
	return &ProduccionHandler{
		produccionService: produccionService,
		validator:         validator.New(),
		logger:            logger,
	}
}

// CreateProceso POST /producciones
func (h *ProduccionHandler) CreateProceso(c *gin.Context) {
	logger := h.logger.With(zap.String("handler", "create_proceso"))

	var req models.ProcesoProduccionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Error en el formato de datos", err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respondBadRequest(c, "Datos de entrada inválidos", err)
		return
	}

	proceso, err := h.produccionService.CreateProceso(c.Request.Context(), &req)
	if err != nil {
		respondError(c, logger, "Error creando proceso de producción", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "✅ Proceso de producción creado",
		"data":    proceso,
	})
}

// UpdateProceso PUT /producciones/:id
func (h *ProduccionHandler) UpdateProceso(c *gin.Context) {
	logger := h.logger.With(zap.String("handler", "update_proceso"))

	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req models.ProcesoProduccionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Error en el formato de datos", err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respondBadRequest(c, "Datos de entrada inválidos", err)
		return
	}

	proceso, err := h.produccionService.UpdateProceso(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, logger, "Error actualizando proceso de producción", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "✅ Proceso de producción actualizado",
		"data":    proceso,
	})
}

// GetProceso GET /producciones/:id
func (h *ProduccionHandler) GetProceso(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	proceso, err := h.produccionService.GetProceso(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger.With(zap.String("handler", "get_proceso")), "Error obteniendo proceso", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    proceso,
	})
}

// DeactivateProceso DELETE /producciones/:id
func (h *ProduccionHandler) DeactivateProceso(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.produccionService.DeactivateProceso(c.Request.Context(), id); err != nil {
		respondError(c, h.logger.With(zap.String("handler", "deactivate_proceso")), "Error desactivando proceso", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "✅ Proceso desactivado",
	})
}

// ReconcileConsumption PUT /producciones/:id/materias-primas
func (h *ProduccionHandler) ReconcileConsumption(c *gin.Context) {
	logger := h.logger.With(zap.String("handler", "reconcile_consumo"))

	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req models.ReconciliarConsumoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Error en el formato de datos", err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respondBadRequest(c, "Datos de entrada inválidos", err)
		return
	}

	logger.Debug("🔍 [DEBUG] Reconciliando consumos",
		zap.Int("id_proceso", id),
		zap.Int("lineas", len(req.MateriasPrimas)))

	response, err := h.produccionService.ReconcileConsumption(c.Request.Context(), id, req.MateriasPrimas)
	if err != nil {
		respondError(c, logger, "Error reconciliando materias primas", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "✅ Materias primas del proceso actualizadas",
		"data":    response,
	})
}

// CalculateProduction POST /producciones/:id/calcular
func (h *ProduccionHandler) CalculateProduction(c *gin.Context) {
	logger := h.logger.With(zap.String("handler", "calcular_produccion"))

	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	proceso, err := h.produccionService.CalculateProduction(c.Request.Context(), id)
	if err != nil {
		respondError(c, logger, "Error calculando producción", err)
		return
	}

	logger.Info("✅ Producción calculada",
		zap.Int("id_proceso", id),
		zap.String("costo_total", proceso.CostoTotal.String()))

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "✅ Producción calculada",
		"data":    proceso,
	})
}
