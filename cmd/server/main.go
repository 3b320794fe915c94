package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	catalogapp "github.com/factory/backend/internal/application/catalog"
	materialapp "github.com/factory/backend/internal/application/material"
	planningapp "github.com/factory/backend/internal/application/planning"
	productionapp "github.com/factory/backend/internal/application/production"
	"github.com/factory/backend/internal/domain/shared"
	"github.com/factory/backend/internal/infrastructure/cache"
	"github.com/factory/backend/internal/infrastructure/config"
	"github.com/factory/backend/internal/infrastructure/logger"
	"github.com/factory/backend/internal/infrastructure/persistence"
	"github.com/factory/backend/internal/interfaces/http/handler"
	"github.com/factory/backend/internal/interfaces/http/middleware"
	"github.com/factory/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Factory Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	bottleTypeRepo := persistence.NewGormBottleTypeRepository(db.DB)
	sellableRepo := persistence.NewGormSellableProductRepository(db.DB)
	orderItemReader := persistence.NewGormOrderItemReader(db.DB)
	rawMaterialRepo := persistence.NewGormRawMaterialRepository(db.DB)
	lotRepo := persistence.NewGormRawMaterialLotRepository(db.DB)
	batchRepo := persistence.NewGormBatchRepository(db.DB)
	consumptionRepo := persistence.NewGormConsumptionRecordRepository(db.DB)
	finishedGoodsRepo := persistence.NewGormFinishedGoodsRepository(db.DB)

	// Transaction scopes
	productionTxScope := persistence.NewGormTransactionScope(db.DB)
	materialTxScope := persistence.NewGormMaterialTransactionScope(db.DB)

	// Application services
	batchService := productionapp.NewBatchService(
		batchRepo,
		productRepo,
		bottleTypeRepo,
		rawMaterialRepo,
		consumptionRepo,
		finishedGoodsRepo,
		productionTxScope,
		log,
	)
	planService := planningapp.NewPlanService(
		sellableRepo,
		productRepo,
		bottleTypeRepo,
		rawMaterialRepo,
		orderItemReader,
		log,
	)
	materialService := materialapp.NewMaterialService(
		rawMaterialRepo,
		lotRepo,
		materialTxScope,
		log,
	)
	catalogService := catalogapp.NewCatalogService(productRepo, bottleTypeRepo)

	// Idempotency store for batch completion retries
	var idempotencyStore shared.IdempotencyStore
	if cfg.Idempotency.Enabled {
		factory := cache.NewIdempotencyStoreFactory(
			cfg.Redis,
			cache.WithLogger(log),
			cache.WithInMemoryFallback(!cfg.Redis.Enabled),
		)
		idempotencyStore, err = factory.CreateStore()
		if err != nil {
			log.Fatal("Failed to create idempotency store", zap.Error(err))
		}
		batchService.SetIdempotencyStore(idempotencyStore, shared.IdempotencyConfig{
			TTL:     cfg.Idempotency.TTL,
			Enabled: true,
		})
	}

	// Handlers
	batchHandler := handler.NewBatchHandler(batchService)
	planHandler := handler.NewPlanHandler(planService)
	materialHandler := handler.NewMaterialHandler(materialService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	systemHandler := handler.NewSystemHandler()
	systemHandler.AddHealthCheck("database", db.Ping)

	// Setup gin
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack: request ID first so every log line carries one,
	// then panic recovery, request logging, actor extraction, CORS and
	// the body size limit.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Actor())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health check endpoint outside API versioning, for load balancers
	engine.GET("/health", healthHandler(db))

	// API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(systemHandler)
	r.Register(catalogHandler)
	r.Register(materialHandler)
	r.Register(batchHandler)
	r.Register(planHandler)
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler serves the unversioned health endpoint used by load balancers.
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
