package services

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"time"

	"produccion-service/internal/cache"
	"produccion-service/internal/models"

	"go.uber.org/zap"
)

const (
	slowRequestThreshold = time.Second
	maxTrackedRequests   = 100
	maxTopEndpoints      = 10
)

// DatabaseStatsProvider pool de Postgres observado por el monitoring
type DatabaseStatsProvider interface {
	Ping(ctx context.Context) error
	GetStats() sql.DBStats
}

// RedisStatsProvider conexión Redis observada por el monitoring
type RedisStatsProvider interface {
	Ping(ctx context.Context) error
	DBSize(ctx context.Context) (int64, error)
	UsedMemory(ctx context.Context) (string, error)
}

// CacheStatsProvider caché L1/L2 identificado por su prefijo
type CacheStatsProvider interface {
	Prefix() string
	GetStats() cache.CacheStats
}

type MonitoringService interface {
	GetMetrics(ctx context.Context) *models.MonitoringResponse
	RecordRequest(data models.RequestData)
	GetCacheStats() models.CacheMetrics
	GetDatabaseStats(ctx context.Context) models.DatabaseMetrics
	GetSystemStats() models.SystemMetrics
	GetRedisStats(ctx context.Context) models.RedisMetrics
}

type monitoringService struct {
	logger      *zap.Logger
	environment string
	db          DatabaseStatsProvider
	redis       RedisStatsProvider
	caches      []CacheStatsProvider

	// Métricas de requests
	requestsMutex sync.RWMutex
	requests      map[string]*models.EndpointMetrics
	slowRequests  []models.SlowRequest
	errors        []models.RequestError
	totalRequests int

	startTime time.Time
}

// NewMonitoringService redis puede ser nil cuando el servicio corre sin L2
func NewMonitoringService(
	logger *zap.Logger,
	ginMode string,
	db DatabaseStatsProvider,
	redis RedisStatsProvider,
	caches ...CacheStatsProvider,
) MonitoringService {
	environment := "production"
	if ginMode == "debug" {
		environment = "development"
	}

	return &monitoringService{
		logger:      logger,
		environment: environment,
		db:          db,
		redis:       redis,
		caches:      caches,
		requests:    make(map[string]*models.EndpointMetrics),
		startTime:   time.Now(),
	}
}

func (s *monitoringService) RecordRequest(data models.RequestData) {
	s.requestsMutex.Lock()
	defer s.requestsMutex.Unlock()

	endpointKey := fmt.Sprintf("%s %s", data.Method, data.Endpoint)

	metrics, exists := s.requests[endpointKey]
	if !exists {
		metrics = &models.EndpointMetrics{}
		s.requests[endpointKey] = metrics
	}

	durationMs := data.Duration.Milliseconds()
	metrics.Count++
	metrics.TotalTimeMs += durationMs
	metrics.AvgTimeMs = float64(metrics.TotalTimeMs) / float64(metrics.Count)
	if durationMs > metrics.MaxTimeMs {
		metrics.MaxTimeMs = durationMs
	}

	s.totalRequests++

	if data.Duration > slowRequestThreshold {
		s.slowRequests = appendBounded(s.slowRequests, models.SlowRequest{
			Endpoint:   endpointKey,
			DurationMs: durationMs,
			Timestamp:  data.Timestamp,
		})
	}

	if data.StatusCode >= 400 {
		metrics.ErrorsCount++
		s.errors = appendBounded(s.errors, models.RequestError{
			Endpoint:   endpointKey,
			StatusCode: data.StatusCode,
			Timestamp:  data.Timestamp,
		})
	}
}

// appendBounded conserva solo los últimos maxTrackedRequests elementos
func appendBounded[T any](items []T, item T) []T {
	items = append(items, item)
	if len(items) > maxTrackedRequests {
		items = items[len(items)-maxTrackedRequests:]
	}
	return items
}

func (s *monitoringService) GetMetrics(ctx context.Context) *models.MonitoringResponse {
	s.requestsMutex.RLock()
	requestMetrics := s.calculateRequestMetrics()
	performanceMetrics := s.calculatePerformanceMetrics()
	s.requestsMutex.RUnlock()

	return &models.MonitoringResponse{
		Requests:    requestMetrics,
		Performance: performanceMetrics,
		Cache:       s.GetCacheStats(),
		Database:    s.GetDatabaseStats(ctx),
		System:      s.GetSystemStats(),
		Redis:       s.GetRedisStats(ctx),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Service:     "produccion-service",
	}
}

func (s *monitoringService) calculateRequestMetrics() models.RequestMetrics {
	keys := make([]string, 0, len(s.requests))
	byEndpoint := make(map[string]models.EndpointMetrics, len(s.requests))
	for key, metrics := range s.requests {
		keys = append(keys, key)
		byEndpoint[key] = *metrics
	}

	// Más usados primero; empate por nombre para un orden estable
	sort.Slice(keys, func(i, j int) bool {
		ci, cj := s.requests[keys[i]].Count, s.requests[keys[j]].Count
		if ci != cj {
			return ci > cj
		}
		return keys[i] < keys[j]
	})

	topEndpoints := make([]models.TopEndpoint, 0, maxTopEndpoints)
	for i, key := range keys {
		if i >= maxTopEndpoints {
			break
		}
		topEndpoints = append(topEndpoints, models.TopEndpoint{
			Endpoint:  key,
			Count:     s.requests[key].Count,
			AvgTimeMs: fmt.Sprintf("%.2fms", s.requests[key].AvgTimeMs),
		})
	}

	return models.RequestMetrics{
		TotalRequests: s.totalRequests,
		ByEndpoint:    byEndpoint,
		TopEndpoints:  topEndpoints,
		SlowRequests:  append([]models.SlowRequest{}, s.slowRequests...),
		Errors:        append([]models.RequestError{}, s.errors...),
	}
}

func (s *monitoringService) calculatePerformanceMetrics() models.PerformanceMetrics {
	var (
		totalTime int64
		maxTime   int64
		minAvg    = math.MaxFloat64
		count     int
	)

	for _, metrics := range s.requests {
		totalTime += metrics.TotalTimeMs
		count += metrics.Count
		if metrics.MaxTimeMs > maxTime {
			maxTime = metrics.MaxTimeMs
		}
		if metrics.AvgTimeMs < minAvg {
			minAvg = metrics.AvgTimeMs
		}
	}

	if count == 0 {
		return models.PerformanceMetrics{}
	}

	return models.PerformanceMetrics{
		AvgResponseTimeMs: float64(totalTime) / float64(count),
		MaxResponseTimeMs: maxTime,
		MinResponseTimeMs: int64(minAvg),
	}
}

func (s *monitoringService) GetCacheStats() models.CacheMetrics {
	metrics := models.CacheMetrics{ByPrefix: make(map[string]int, len(s.caches))}

	for _, c := range s.caches {
		stats := c.GetStats()
		metrics.ByPrefix[c.Prefix()] = stats.TotalKeys
		metrics.TotalKeys += stats.TotalKeys
		metrics.TotalHits += stats.Hits
		metrics.TotalMisses += stats.Misses
		metrics.TotalRequests += stats.TotalRequests
	}

	if metrics.TotalRequests > 0 {
		metrics.HitRate = float64(metrics.TotalHits) / float64(metrics.TotalRequests)
	}
	metrics.HitRatePercentage = fmt.Sprintf("%.2f%%", metrics.HitRate*100)

	return metrics
}

func (s *monitoringService) GetDatabaseStats(ctx context.Context) models.DatabaseMetrics {
	if s.db == nil {
		return models.DatabaseMetrics{Status: "offline"}
	}

	status := "online"
	if err := s.db.Ping(ctx); err != nil {
		s.logger.Warn("⚠️ Postgres no responde", zap.Error(err))
		status = "offline"
	}

	stats := s.db.GetStats()
	return models.DatabaseMetrics{
		Status:          status,
		OpenConnections: stats.OpenConnections,
		InUse:           stats.InUse,
		Idle:            stats.Idle,
		WaitCount:       stats.WaitCount,
		WaitDurationMs:  stats.WaitDuration.Milliseconds(),
		MaxOpenConns:    stats.MaxOpenConnections,
	}
}

func (s *monitoringService) GetSystemStats() models.SystemMetrics {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(s.startTime).Seconds()

	return models.SystemMetrics{
		Memory: models.MemoryMetrics{
			HeapUsed:  fmt.Sprintf("%.2f MB", float64(m.HeapAlloc)/1024/1024),
			HeapTotal: fmt.Sprintf("%.2f MB", float64(m.HeapSys)/1024/1024),
			Sys:       fmt.Sprintf("%.2f MB", float64(m.Sys)/1024/1024),
			NumGC:     m.NumGC,
		},
		Goroutines:  runtime.NumGoroutine(),
		Uptime:      uptime,
		UptimeHours: fmt.Sprintf("%.2fh", uptime/3600),
		GoVersion:   runtime.Version(),
		Platform:    runtime.GOOS,
		Environment: s.environment,
	}
}

func (s *monitoringService) GetRedisStats(ctx context.Context) models.RedisMetrics {
	if s.redis == nil {
		return models.RedisMetrics{Status: "disabled"}
	}

	if err := s.redis.Ping(ctx); err != nil {
		return models.RedisMetrics{Status: "offline"}
	}

	metrics := models.RedisMetrics{Connected: true, Status: "online"}

	if keys, err := s.redis.DBSize(ctx); err == nil {
		metrics.Keys = int(keys)
	}

	if memory, err := s.redis.UsedMemory(ctx); err == nil && memory != "" {
		if memBytes, err := strconv.ParseInt(memory, 10, 64); err == nil {
			metrics.MemoryMB = fmt.Sprintf("%.2f MB", float64(memBytes)/1024/1024)
		}
	}

	return metrics
}
