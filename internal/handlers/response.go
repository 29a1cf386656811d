package handlers

import (
	"net/http"
	"strconv"

	"produccion-service/internal/apperrors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError traduce el error del dominio a su status; los 5xx ocultan el detalle
func respondError(c *gin.Context, logger *zap.Logger, message string, err error) {
	status := apperrors.HTTPStatus(err)

	if status >= http.StatusInternalServerError {
		logger.Error("❌ "+message, zap.Error(err))
		c.JSON(status, gin.H{
			"success": false,
			"message": "❌ " + message,
			"error":   "error interno del servidor",
		})
		return
	}

	logger.Warn("⚠️ "+message, zap.Int("status", status), zap.Error(err))
	c.JSON(status, gin.H{
		"success": false,
		"message": "❌ " + message,
		"error":   err.Error(),
	})
}

func respondBadRequest(c *gin.Context, message string, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"message": "❌ " + message,
		"error":   err.Error(),
	})
}

// paramID lee un id positivo de la ruta
func paramID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "❌ ID inválido",
			"error":   "el parámetro " + name + " debe ser un entero positivo",
		})
		return 0, false
	}
	return id, true
}
