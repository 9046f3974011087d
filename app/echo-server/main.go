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

	"plateful/app/echo-server/router"
	"plateful/business/admin"
	"plateful/business/catalog"
	"plateful/business/recommend"
	"plateful/internal/middleware"
	psqlRepo "plateful/internal/repository/postgres"
	redisRepo "plateful/internal/repository/redis"
	"plateful/internal/repository/scoring"
	"plateful/internal/rest"
	"plateful/internal/vectorindex"
	"plateful/pkg/config"
	"plateful/pkg/database"
	redisDB "plateful/pkg/database/redis"
	"plateful/pkg/logger"
	"plateful/pkg/metrics"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	logger.Info("Starting Plateful", "version", cfg.App.Version)

	metrics.Init()

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	logger.Info("Database connected successfully")

	redisClient, err := redisDB.NewRedisClient(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to redis", "error", err)
	}
	defer func() {
		if err := redisDB.CloseRedisClient(redisClient); err != nil {
			logger.Error("Failed to close redis client", "error", err)
		}
	}()

	// Init repo
	catalogRepo := psqlRepo.NewCatalogRepository(db)
	profileRepo := psqlRepo.NewProfileRepository(db)
	interactionRepo := psqlRepo.NewInteractionRepository(db)
	feedbackRepo := psqlRepo.NewFeedbackRepository(db)
	penaltyRepo := psqlRepo.NewPenaltyRepository(db)
	engineParamsRepo := psqlRepo.NewEngineParamsRepository(db)
	similarityRepo := psqlRepo.NewSimilarityRepository(db)
	userPrefsRepo := psqlRepo.NewUserPrefsRepository(db)

	sessionTTL := time.Duration(cfg.Engine.SessionTTLMinutes) * time.Minute
	sessionRepo := redisRepo.NewSessionRepository(redisClient, sessionTTL)

	// The precomputed similarity matrix is optional; selection computes
	// cosine on the fly for missing pairs.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	simMatrix, err := similarityRepo.LoadMatrix(startupCtx)
	if err != nil {
		logger.Warn("Failed to load similarity matrix, computing pairs on the fly", "error", err)
		simMatrix = nil
	}

	// Build the vector index from the catalog before serving; retrieval
	// degrades to a catalog scan until the first successful build.
	engineCfg := recommend.DefaultConfig()
	index := vectorindex.New()
	tracker := recommend.NewRebuildTracker()

	catalogService := catalog.NewCatalogService(catalogRepo)
	adminService := admin.NewAdminService(catalogService, index, engineParamsRepo, tracker, engineCfg.Axes)
	if err := adminService.RebuildIndex(startupCtx); err != nil {
		logger.Warn("Initial index build failed, serving in degraded mode", "error", err)
	}

	var learned recommend.LearnedScorer
	if cfg.Engine.LearnedScorerURL != "" {
		learned = scoring.NewHTTPScorer(cfg.Engine.LearnedScorerURL)
		logger.Info("Learned scorer enabled", "url", cfg.Engine.LearnedScorerURL)
	}
	learnedTimeout := time.Duration(cfg.Engine.LearnedScorerTimeoutMs) * time.Millisecond

	// Init service
	learner := recommend.NewLearner(engineCfg, profileRepo, interactionRepo, feedbackRepo, penaltyRepo, catalogRepo)
	recommendService := recommend.NewService(
		engineCfg,
		catalogRepo,
		profileRepo,
		interactionRepo,
		sessionRepo,
		userPrefsRepo,
		penaltyRepo,
		engineParamsRepo,
		index,
		simMatrix,
		recommend.NewTimeSampler(),
		learner,
		learned,
		learnedTimeout,
	)

	// Init handler
	catalogHandler := rest.NewCatalogHandler(catalogService)
	sessionHandler := rest.NewSessionHandler(recommendService)
	recommendHandler := rest.NewRecommendHandler(recommendService)
	adminHandler := rest.NewAdminHandler(adminService)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:3000", "http://localhost:8080"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Auth middleware
	authRequired := middleware.AuthMiddleware(cfg.JWT.SecretKey)
	adminOnly := middleware.AdminOnly()

	// Setup routes
	api := e.Group("/api/v1")
	router.SetCatalogRoutes(api, catalogHandler, authRequired)
	router.SetSessionRoutes(api, sessionHandler, authRequired)
	router.SetRecommendationRoutes(api, recommendHandler, authRequired)
	router.SetAdminRoutes(api, adminHandler, authRequired, adminOnly)

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
