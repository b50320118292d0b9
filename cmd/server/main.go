package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tripline-service/internal/infrastructure/config"
	"tripline-service/internal/infrastructure/oauth"
	"tripline-service/internal/infrastructure/persistence"
	modeRouter "tripline-service/internal/infrastructure/router"
	"tripline-service/internal/interface/api"
	storeRepo "tripline-service/internal/interface/repository"
	"tripline-service/internal/usecase"
	"tripline-service/pkg/logger"
	"tripline-service/pkg/metrics"
	"tripline-service/templates"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/time/rate"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	// Create logger
	log := logger.NewLogger()
	log.Info("Starting Tripline Service")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config", "error", err)
	}

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up MongoDB connection
	log.Info("Connecting to MongoDB")
	mongoClient, db, err := persistence.NewMongoClient(ctx, cfg.MongoURI, cfg.MongoDB, cfg.MongoUser, cfg.MongoPassword)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", "error", err)
	}

	gormDB, err := gorm.Open(postgres.Open(cfg.PostgresURI), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", "error", err)
	}

	// Set up reference-data repositories
	cityDefaultRepository := storeRepo.NewGormCityDefaultRepository(gormDB)
	transportOptionRepository := storeRepo.NewGormTransportOptionRepository(gormDB)

	// Set up trip store
	tripRepository := storeRepo.NewMongoTripRepository(db)

	// Set up enrichment API client
	enrichmentOAuth := oauth.NewEnrichmentOAuth(
		cfg.EnrichmentClientID,
		cfg.EnrichmentClientSecret,
		cfg.EnrichmentTokenURL,
		log,
	)
	tokenSource := enrichmentOAuth.GetTokenSource(ctx)
	enrichmentRepository := storeRepo.NewHTTPEnrichmentRepository(cfg.EnrichmentBaseURL, tokenSource, log)

	// Set up image search client
	imageRepository, err := storeRepo.NewCustomSearchImageRepository(ctx, cfg.ImageSearchAPIKey, cfg.ImageSearchEngineID, log)
	if err != nil {
		log.Fatal("Failed to create image search client", "error", err)
	}

	// Set up transport renderers
	legRouter := modeRouter.NewModeRouter(log)
	legRouter.Register(templates.NewFlightLegRenderer(log))
	legRouter.Register(templates.NewGroundLegRenderer(log))
	legRouter.Register(templates.NewFerryLegRenderer(log))

	// Set up the planning engine
	appMetrics := metrics.NewMetrics("tripline")
	allocator := usecase.NewAllocator(cityDefaultRepository, log)
	expander := usecase.NewDayExpander(cityDefaultRepository, transportOptionRepository, legRouter, log)
	reconciler := usecase.NewReconciler(expander, appMetrics, log)

	tripHandler := api.NewTripHandler(api.PlannerDeps{
		Allocator:  allocator,
		Reconciler: reconciler,
		Trips:      tripRepository,
		Enrichment: enrichmentRepository,
		Images:     imageRepository,
		ImageRate:  rate.NewLimiter(rate.Limit(cfg.ImageFetchPerSecond), 1),
		Metrics:    appMetrics,
		Logger:     log,
		HomeBase:   cfg.HomeBaseCity,
		UndoExpiry: cfg.UndoExpiry,
	})

	// Set up HTTP server
	router := httprouter.New()
	tripHandler.Routes(router)
	router.Handler(http.MethodGet, "/metrics", promhttp.Handler())
	router.HandlerFunc(http.MethodGet, "/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Healthy"))
	})

	handler := cors.Default().Handler(router)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("Received signal", "signal", sig)

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	cancel() // Cancel the context to stop all goroutines

	// Disconnect from MongoDB
	if err := mongoClient.Disconnect(ctx); err != nil {
		log.Error("MongoDB disconnect error", "error", err)
	}

	log.Info("Tripline Service stopped")
	log.Sync()
}
