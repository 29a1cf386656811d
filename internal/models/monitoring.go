package models

import "time"

// MonitoringResponse respuesta completa del sistema de monitoring
type MonitoringResponse struct {
	Requests    RequestMetrics     `json:"requests"`
	Performance PerformanceMetrics `json:"performance"`
	Cache       CacheMetrics       `json:"cache"`
	Database    DatabaseMetrics    `json:"database"`
	System      SystemMetrics      `json:"system"`
	Redis       RedisMetrics       `json:"redis"`
	Timestamp   string             `json:"timestamp"`
	Service     string             `json:"service"`
}

// RequestMetrics métricas de requests
type RequestMetrics struct {
	TotalRequests int                        `json:"total_requests"`
	ByEndpoint    map[string]EndpointMetrics `json:"by_endpoint"`
	TopEndpoints  []TopEndpoint              `json:"top_endpoints"`
	SlowRequests  []SlowRequest              `json:"slow_requests"`
	Errors        []RequestError             `json:"errors"`
}

// EndpointMetrics métricas por endpoint
type EndpointMetrics struct {
	Count       int     `json:"count"`
	ErrorsCount int     `json:"errors_count"`
	AvgTimeMs   float64 `json:"avg_time_ms"`
	MaxTimeMs   int64   `json:"max_time_ms"`
	TotalTimeMs int64   `json:"total_time_ms"`
}

// SlowRequest request lento
type SlowRequest struct {
	Endpoint   string    `json:"endpoint"`
	DurationMs int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// RequestError request que terminó con status >= 400
type RequestError struct {
	Endpoint   string    `json:"endpoint"`
	StatusCode int       `json:"status_code"`
	Timestamp  time.Time `json:"timestamp"`
}

// TopEndpoint endpoint más usado
type TopEndpoint struct {
	Endpoint  string `json:"endpoint"`
	Count     int    `json:"count"`
	AvgTimeMs string `json:"avg_time_ms"`
}

// PerformanceMetrics métricas de rendimiento agregadas
type PerformanceMetrics struct {
	AvgResponseTimeMs float64 `json:"avg_response_time_ms"`
	MaxResponseTimeMs int64   `json:"max_response_time_ms"`
	MinResponseTimeMs int64   `json:"min_response_time_ms"`
}

// CacheMetrics métricas de los cachés L1/L2
type CacheMetrics struct {
	TotalKeys         int            `json:"total_keys"`
	ByPrefix          map[string]int `json:"by_prefix"`
	HitRate           float64        `json:"hit_rate"`
	HitRatePercentage string         `json:"hit_rate_percentage"`
	TotalHits         int64          `json:"total_hits"`
	TotalMisses       int64          `json:"total_misses"`
	TotalRequests     int64          `json:"total_requests"`
}

// DatabaseMetrics métricas del pool de Postgres
type DatabaseMetrics struct {
	Status          string `json:"status"`
	OpenConnections int    `json:"open_connections"`
	InUse           int    `json:"in_use"`
	Idle            int    `json:"idle"`
	WaitCount       int64  `json:"wait_count"`
	WaitDurationMs  int64  `json:"wait_duration_ms"`
	MaxOpenConns    int    `json:"max_open_connections"`
}

// SystemMetrics métricas del proceso
type SystemMetrics struct {
	Memory      MemoryMetrics `json:"memory"`
	Goroutines  int           `json:"goroutines"`
	Uptime      float64       `json:"uptime"`
	UptimeHours string        `json:"uptime_hours"`
	GoVersion   string        `json:"go_version"`
	Platform    string        `json:"platform"`
	Environment string        `json:"environment"`
}

// MemoryMetrics métricas de memoria
type MemoryMetrics struct {
	HeapUsed  string `json:"heap_used"`
	HeapTotal string `json:"heap_total"`
	Sys       string `json:"sys"`
	NumGC     uint32 `json:"num_gc"`
}

// RedisMetrics métricas de Redis
type RedisMetrics struct {
	Connected bool   `json:"connected"`
	Keys      int    `json:"keys"`
	MemoryMB  string `json:"memory_mb"`
	Status    string `json:"status"`
}

// RequestData datos de un request individual
type RequestData struct {
	Endpoint   string
	Method     string
	Duration   time.Duration
	StatusCode int
	Timestamp  time.Time
}
