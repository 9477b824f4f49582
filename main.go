package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/prep-service/internal/config"
	"github.com/SAP-F-2025/prep-service/internal/events"
	"github.com/SAP-F-2025/prep-service/internal/handlers"
	"github.com/SAP-F-2025/prep-service/internal/observability"
	"github.com/SAP-F-2025/prep-service/internal/repositories/casdoor"
	"github.com/SAP-F-2025/prep-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/prep-service/internal/scoring"
	"github.com/SAP-F-2025/prep-service/internal/services"
	"github.com/SAP-F-2025/prep-service/internal/utils"
	"github.com/SAP-F-2025/prep-service/internal/validator"
	"github.com/SAP-F-2025/prep-service/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(slogLogger)
	logger := utils.NewSlogLogger(slogLogger)

	shutdownTracing := observability.InitOTel(context.Background(), slogLogger, cfg.OTel, cfg.Environment)

	// Initialize database
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Redis is optional; without it predictions and pool counts are not cached
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, running without cache", "error", err)
			redisClient = nil
		}
	}

	// Initialize repositories
	repoManager := postgres.NewRepositoryManager(postgres.RepositoryConfig{
		DB:          db,
		RedisClient: redisClient,
		CasdoorConfig: casdoor.CasdoorConfig{
			Endpoint:         cfg.Casdoor.Endpoint,
			ClientID:         cfg.Casdoor.ClientID,
			ClientSecret:     cfg.Casdoor.ClientSecret,
			Certificate:      cfg.Casdoor.Cert,
			OrganizationName: cfg.Casdoor.Organization,
			ApplicationName:  cfg.Casdoor.Application,
		},
	})
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}
	repo := repoManager.GetRepository()

	publisher, err := newEventPublisher(cfg, slogLogger)
	if err != nil {
		log.Fatalf("Failed to initialize event publisher: %v", err)
	}

	opts := []services.Option{
		services.WithEventPublisher(publisher),
		services.WithScoringEngine(scoring.NewEngine(cfg.Scoring, nil)),
	}
	if redisClient != nil {
		opts = append(opts, services.WithRedis(redisClient))
	}

	serviceManager := services.NewDefaultServiceManager(db, repo, slogLogger, validator.New(), opts...)
	if err := serviceManager.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	middlewareConfig := handlers.MiddlewareConfig{AllowedOrigins: cfg.CORSAllowedOrigins}
	if cfg.OTel.Enabled {
		middlewareConfig.ServiceName = cfg.OTel.ServiceName
	}
	handlers.SetupMiddleware(router, logger, middlewareConfig)

	authMiddleware := handlers.NewCasdoorAuthMiddleware(cfg.Casdoor, repo.User(), logger)
	handlers.NewHandlerManager(serviceManager, authMiddleware, logger).SetupRoutes(router)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	if err := serviceManager.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown services", "error", err)
	}
	if err := repoManager.Shutdown(ctx); err != nil {
		logger.Error("Failed to close repositories", "error", err)
	}
	if err := shutdownTracing(ctx); err != nil {
		logger.Error("Failed to flush traces", "error", err)
	}

	logger.Info("Server exited")
}

// newEventPublisher publishes to Kafka when brokers are configured and to an
// in-process channel otherwise
func newEventPublisher(cfg *config.Config, logger *slog.Logger) (events.EventPublisher, error) {
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := events.NewKafkaEventPublisher(cfg.KafkaBrokers, cfg.EventTopicPrefix, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("Publishing events to Kafka", "brokers", cfg.KafkaBrokers)
		return publisher, nil
	}

	publisher, _ := events.NewInMemoryEventPublisher(cfg.EventTopicPrefix, logger)
	logger.Info("No Kafka brokers configured, publishing events in process")
	return publisher, nil
}
