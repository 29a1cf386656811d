package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"produccion-service/internal/archive"
	"produccion-service/internal/cache"
	"produccion-service/internal/config"
	"produccion-service/internal/database"
	"produccion-service/internal/handlers"
	"produccion-service/internal/logging"
	"produccion-service/internal/middleware"
	"produccion-service/internal/models"
	"produccion-service/internal/repository"
	"produccion-service/internal/routes"
	"produccion-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatalf("produccion-service: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.NewLogger(cfg.Logging.Level, cfg.Server.GinMode)
	if err != nil {
		return err
	}
	defer logger.Sync()

	gin.SetMode(cfg.Server.GinMode)

	// SIGTERM llega en cada redeploy; se drena antes de salir
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	postgresDB, err := database.NewPostgresDB(cfg.Database.URL, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, logger)
	if err != nil {
		return err
	}
	defer postgresDB.Close()

	// Sin Redis el servicio sigue con caché L1 únicamente
	var (
		redisClient  *redis.Client
		redisChecker middleware.RedisChecker
		redisStats   services.RedisStatsProvider
	)
	redisDB, err := database.NewRedisDB(ctx, cfg.Redis.URL, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Warn("⚠️ Redis no disponible, se usa solo caché L1", zap.Error(err))
	} else {
		defer redisDB.Close()
		redisClient = redisDB.Client
		redisChecker = redisDB
		redisStats = redisDB
	}

	materiaRepo, err := repository.NewMateriaPrimaRepository(postgresDB.DB)
	if err != nil {
		return err
	}
	produccionRepo, err := repository.NewProduccionRepository(postgresDB.DB, logger)
	if err != nil {
		return err
	}

	materiaCache := cache.New[models.MateriaPrima]("materia_prima", redisClient, cfg.Cache.MaxL1Size, cfg.Cache.TTL, logger)
	defer materiaCache.Close()
	procesoCache := cache.New[models.ProcesoWithDetails]("proceso", redisClient, cfg.Cache.MaxL1Size, cfg.Cache.TTL, logger)
	defer procesoCache.Close()

	store, closeStore, err := newArchiveStore(ctx, cfg.Archive, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	materiaService := services.NewMateriaPrimaService(materiaRepo, materiaCache, procesoCache, logger)
	invoiceService := services.NewInvoiceService(materiaService, store, logger)
	produccionService := services.NewProduccionService(produccionRepo, procesoCache, logger)
	monitoringService := services.NewMonitoringService(logger, cfg.Server.GinMode, postgresDB, redisStats, materiaCache, procesoCache)

	materiaHandler := handlers.NewMateriaPrimaHandler(materiaService, invoiceService, cfg.Server.MaxUploadBytes, logger)
	produccionHandler := handlers.NewProduccionHandler(produccionService, logger)
	monitoringHandler := handlers.NewMonitoringHandler(monitoringService, logger)
	healthChecker := middleware.NewHealthChecker(postgresDB, redisChecker, logger)

	router := gin.New()
	router.MaxMultipartMemory = cfg.Server.MaxUploadBytes
	router.Use(
		middleware.RequestIDMiddleware(),
		middleware.LoggerMiddleware(logger),
		monitoringHandler.RecordRequestMiddleware(),
		gin.Recovery(),
	)
	routes.SetupRoutes(router, materiaHandler, produccionHandler, monitoringHandler, healthChecker)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.ListenAndServe()
	}()

	middleware.ServerInfo(cfg.Server.Port, cfg.Archive.Provider, redisClient != nil, routes.Endpoints(router), logger)

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("Shutdown signal received, draining requests")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

// newArchiveStore elige el destino de las facturas según ARCHIVE_PROVIDER
func newArchiveStore(ctx context.Context, cfg config.ArchiveConfig, logger *zap.Logger) (archive.Store, func(), error) {
	switch cfg.Provider {
	case archive.ProviderGCS:
		gcs, err := archive.NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSCredentials, logger)
		if err != nil {
			return nil, nil, err
		}
		return gcs, func() {
			if err := gcs.Close(); err != nil {
				logger.Warn("Error cerrando cliente GCS", zap.Error(err))
			}
		}, nil
	case archive.ProviderLocal, "":
		local, err := archive.NewLocalStore(cfg.Dir, logger)
		if err != nil {
			return nil, nil, err
		}
		return local, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown archive provider %q", cfg.Provider)
	}
}
