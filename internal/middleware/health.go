package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const healthTimeout = 3 * time.Second

// PostgresChecker dependencia de Postgres verificada por el health check
type PostgresChecker interface {
	Ping(ctx context.Context) error
	GetStats() sql.DBStats
}

// RedisChecker dependencia de Redis verificada por el health check
type RedisChecker interface {
	Ping(ctx context.Context) error
	UsedMemory(ctx context.Context) (string, error)
}

type HealthChecker struct {
	postgres PostgresChecker
	redis    RedisChecker
	logger   *zap.Logger
}

// NewHealthChecker redis nil indica que el servicio corre solo con caché L1
func NewHealthChecker(postgres PostgresChecker, redis RedisChecker, logger *zap.Logger) *HealthChecker {
	return &HealthChecker{
		postgres: postgres,
		redis:    redis,
		logger:   logger,
	}
}

// HealthCheck Postgres caído es unhealthy (503); Redis caído solo degrada
func (h *HealthChecker) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	overall := "healthy"
	services := gin.H{}

	postgresStatus := "healthy"
	if err := h.postgres.Ping(ctx); err != nil {
		postgresStatus = "unhealthy"
		overall = "unhealthy"
		h.logger.Error("PostgreSQL health check failed", zap.Error(err))
	}

	stats := h.postgres.GetStats()
	services["postgresql"] = gin.H{
		"status": postgresStatus,
		"stats": gin.H{
			"max_open_connections": stats.MaxOpenConnections,
			"open_connections":     stats.OpenConnections,
			"in_use":               stats.InUse,
			"idle":                 stats.Idle,
		},
	}

	if h.redis == nil {
		services["redis"] = gin.H{"status": "disabled"}
	} else {
		redisStatus := "healthy"
		var memory string
		err := h.redis.Ping(ctx)
		if err == nil {
			memory, err = h.redis.UsedMemory(ctx)
		}
		if err != nil {
			redisStatus = "unhealthy"
			if overall == "healthy" {
				overall = "degraded"
			}
			h.logger.Warn("Redis health check failed", zap.Error(err))
		}
		services["redis"] = gin.H{
			"status":      redisStatus,
			"used_memory": memory,
		}
	}

	httpStatus := http.StatusOK
	if overall == "unhealthy" {
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, gin.H{
		"status":    overall,
		"timestamp": time.Now().Format(time.RFC3339),
		"services":  services,
	})
}
