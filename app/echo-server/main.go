package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smartPromo/app/echo-server/router"
	"smartPromo/business/features"
	"smartPromo/business/pipeline"
	"smartPromo/business/reco"
	"smartPromo/internal/middleware"
	psqlRepo "smartPromo/internal/repository/postgres"
	redisRepo "smartPromo/internal/repository/redis"
	"smartPromo/internal/rest"
	"smartPromo/pkg/config"
	pgdb "smartPromo/pkg/database/postgres"
	redisdb "smartPromo/pkg/database/redis"
	"smartPromo/pkg/logger"
	"smartPromo/pkg/metrics"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const cacheTTL = 5 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	logger.Info("Starting SmartPromo", "version", cfg.App.Version)

	rules, err := config.LoadRules(cfg.Rules.Path)
	if err != nil {
		logger.Fatal("Failed to load business rules", "error", err)
	}

	db, err := pgdb.NewPostgresDB(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer pgdb.Close(db)

	logger.Info("Database connected successfully")

	redisClient, err := redisdb.NewRedisClient(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", "error", err)
	}
	defer redisdb.CloseRedisClient(redisClient)

	logger.Info("Redis connected successfully")

	metrics.Init()

	// Init repo
	productRepo := psqlRepo.NewProductRepository(db)
	storeRepo := psqlRepo.NewStoreRepository(db)
	trxRepo := psqlRepo.NewTransactionRepository(db)
	recoRepo := psqlRepo.NewRecommendationRepository(db)
	runRepo := psqlRepo.NewPipelineRunRepository(db)
	recoCache := redisRepo.NewRecommendationCache(redisClient, cacheTTL)

	// Init service
	cal := features.NewCalendar(rules.EventsCalendar)
	pipelineService := pipeline.NewService(rules, cal, productRepo, storeRepo, trxRepo, recoRepo, runRepo, recoCache)
	recoService := reco.NewService(recoRepo, recoCache)

	// Init handler
	recoHandler := rest.NewRecommendationHandler(recoService)
	pipelineHandler := rest.NewPipelineHandler(pipelineService)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:3000", "http://localhost:8080"},
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Auth middleware
	authRequired := middleware.AuthMiddleware(cfg.JWT.SecretKey)
	adminOnly := middleware.AdminOnly()

	// Setup routes
	api := e.Group("/api/v1")
	router.SetupRecommendationRoutes(api, recoHandler, pipelineHandler, authRequired, adminOnly)

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}
