package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopify-sync-engine/internal/application"
	"shopify-sync-engine/internal/application/webhook_handlers"
	"shopify-sync-engine/internal/infrastructure/cache"
	"shopify-sync-engine/internal/infrastructure/metrics"
	"shopify-sync-engine/internal/infrastructure/repository"
	shopifyinfra "shopify-sync-engine/internal/infrastructure/shopify"
	"shopify-sync-engine/internal/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("⚠️  Warning: .env file not found")
	}

	// Get configuration from environment
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		logger.Fatal().Msg("DATABASE_URL environment variable is required")
	}

	webhookSecret := os.Getenv("SHOPIFY_WEBHOOK_SECRET")
	if webhookSecret == "" {
		logger.Fatal().Msg("SHOPIFY_WEBHOOK_SECRET environment variable is required")
	}

	// Connect to Postgres
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Initialize repositories
	var directory ports.StoreDirectory = repository.NewPostgresStoreDirectory(db, logger)
	records := repository.NewPostgresRecordStore(db, logger)

	// Optional Redis cache on the webhook store lookup path
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warn().Err(err).Msg("Redis unavailable, running without store cache")
		} else {
			directory = cache.NewCachedStoreDirectory(directory, redisClient, logger)
			logger.Info().Str("addr", redisAddr).Msg("Store cache enabled")
		}
	}

	// Initialize metrics registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	syncMetrics := metrics.NewSyncMetrics(registry)

	// Initialize platform clients
	apiClient := shopifyinfra.NewClient(os.Getenv("SHOPIFY_API_VERSION"), logger)
	verifier := shopifyinfra.NewWebhookVerifier(webhookSecret)
	exchanger := shopifyinfra.NewOAuthExchanger(
		os.Getenv("SHOPIFY_API_KEY"),
		os.Getenv("SHOPIFY_API_SECRET"),
		logger,
	)

	// Initialize application services
	syncService := application.NewSyncService(apiClient, records, syncMetrics, logger)
	scheduler := application.NewScheduler(directory, syncService, syncMetrics, logger)
	eventService := application.NewEventService(directory, records, logger)

	// Initialize webhook dispatcher and register handlers
	webhookDispatcher := application.NewWebhookDispatcher(logger)
	webhookDispatcher.RegisterHandler(webhook_handlers.NewOrderHandler(syncService, records, logger))
	webhookDispatcher.RegisterHandler(webhook_handlers.NewProductHandler(records, logger))
	webhookDispatcher.RegisterHandler(webhook_handlers.NewCustomerHandler(records, logger))

	// Start recurring sync jobs
	if err := scheduler.Start(context.Background()); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	// Health check - must be public for monitoring
	r.Get("/health", healthHandler(db))
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// Store management
	r.Route("/api/stores", func(r chi.Router) {
		r.Get("/", listStoresHandler(directory, logger))
		r.Post("/connect", connectStoreHandler(directory, scheduler, exchanger, logger))
		r.Delete("/{storeID}", disconnectStoreHandler(directory, scheduler, logger))
		r.Put("/{storeID}/settings", updateSettingsHandler(scheduler, logger))
		r.Post("/{storeID}/sync", triggerSyncHandler(scheduler, logger))
	})

	r.Get("/api/scheduler/status", schedulerStatusHandler(scheduler))

	// Webhook ingestion
	r.Post("/api/webhooks/shopify", shopifyWebhookHandler(directory, verifier, webhookDispatcher, syncMetrics, logger))
	r.Post("/api/webhooks/custom-events", customEventHandler(eventService, logger))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logger.Info().Str("port", port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Graceful shutdown: stop accepting requests, then stop the scheduler
	// so in-flight sync runs finish.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown failed")
	}
	scheduler.Stop()
	logger.Info().Msg("Shutdown complete")
}
