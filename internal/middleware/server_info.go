package middleware

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"
)

// Endpoint ruta expuesta, para el banner de inicio
type Endpoint struct {
	Method      string
	Path        string
	Description string
}

// ServerInfo imprime el banner de inicio con las rutas disponibles
func ServerInfo(port, archiveProvider string, redisEnabled bool, endpoints []Endpoint, logger *zap.Logger) {
	hostname, _ := os.Hostname()
	goVersion := runtime.Version()
	startTime := time.Now().Format("2006-01-02 15:04:05")

	cache := "L1 (memoria) + L2 (Redis)"
	if !redisEnabled {
		cache = "L1 (memoria)"
	}

	fmt.Println("")
	fmt.Println("🏭 " + boldColor + "Produccion Service API" + resetColor)
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println("📅 Started at: " + startTime)
	fmt.Println("🌐 Server URL: " + cyanColor + "http://localhost:" + port + resetColor)
	fmt.Println("💻 Hostname: " + hostname)
	fmt.Println("🔧 Go Version: " + goVersion)
	fmt.Println("")
	fmt.Println("📊 " + boldColor + "Available Endpoints:" + resetColor)
	for _, e := range endpoints {
		fmt.Printf("   %-7s %s%-42s%s %s\n", e.Method, getMethodColor(e.Method), e.Path, resetColor, e.Description)
	}
	fmt.Println("")
	fmt.Println("⚙️  " + boldColor + "Environment:" + resetColor)
	fmt.Println("   🗄️  Database: PostgreSQL")
	fmt.Println("   🗃️  Cache: " + cache)
	fmt.Println("   📁 Facturas: " + archiveProvider)
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println("")

	logger.Info("Server started successfully",
		zap.String("port", port),
		zap.String("hostname", hostname),
		zap.String("go_version", goVersion),
		zap.Int("endpoints", len(endpoints)),
		zap.Bool("redis", redisEnabled),
		zap.String("archive", archiveProvider),
	)
}
