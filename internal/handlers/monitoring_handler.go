package handlers

import (
	"net/http"
	"time"

	"produccion-service/internal/models"
	"produccion-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	metricsPushInterval = 10 * time.Second
	wsPongWait          = 60 * time.Second
	wsWriteWait         = 10 * time.Second
)

type MonitoringHandler struct {
	monitoringService services.MonitoringService
	logger            *zap.Logger
}

func NewMonitoringHandler(monitoringService services.MonitoringService, logger *zap.Logger) *MonitoringHandler {
	return &MonitoringHandler{
		monitoringService: monitoringService,
		logger:            logger,
	}
}

// GetMetrics maneja la petición HTTP para obtener métricas
func (h *MonitoringHandler) GetMetrics(c *gin.Context) {
	metrics := h.monitoringService.GetMetrics(c.Request.Context())

	h.logger.Debug("Métricas obtenidas",
		zap.Int("total_requests", metrics.Requests.TotalRequests),
		zap.Float64("avg_response_time_ms", metrics.Performance.AvgResponseTimeMs))

	c.JSON(http.StatusOK, metrics)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // el panel de métricas se sirve desde otro origen
	},
}

// WebSocketMetrics envía métricas periódicamente hasta que el cliente se desconecta
func (h *MonitoringHandler) WebSocketMetrics(c *gin.Context) {
	logger := h.logger.With(zap.String("handler", "websocket_metrics"))

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error("Error actualizando a WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	logger.Info("Conexión WebSocket establecida")

	// El lector detecta el cierre del cliente y mantiene vivo el pong handler
	closed := make(chan struct{})
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(metricsPushInterval)
	defer ticker.Stop()

	send := func() bool {
		metrics := h.monitoringService.GetMetrics(c.Request.Context())
		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(metrics); err != nil {
			logger.Warn("Error enviando métricas por WebSocket", zap.Error(err))
			return false
		}
		return conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)) == nil
	}

	if !send() {
		return
	}

	for {
		select {
		case <-ticker.C:
			if !send() {
				return
			}
		case <-closed:
			logger.Info("Conexión WebSocket cerrada por el cliente")
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}

// RecordRequestMiddleware registra duración y status de cada request
func (h *MonitoringHandler) RecordRequestMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		if shouldSkipMonitoring(path) {
			return
		}

		h.monitoringService.RecordRequest(models.RequestData{
			Endpoint:   path,
			Method:     c.Request.Method,
			Duration:   time.Since(start),
			StatusCode: c.Writer.Status(),
			Timestamp:  time.Now(),
		})
	}
}

var excludedPaths = map[string]bool{
	"/api/v1/monitoring/metrics": true,
	"/api/v1/monitoring/ws":      true,
	"/health":                    true,
	"/":                          true,
}

func shouldSkipMonitoring(path string) bool {
	return excludedPaths[path]
}
