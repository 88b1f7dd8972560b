package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bizops-platform/inventory-service/pkg/kafka"
	"github.com/bizops-platform/inventory-service/pkg/logging"
	"github.com/bizops-platform/inventory-service/pkg/metrics"
	"github.com/bizops-platform/inventory-service/pkg/middleware"
	"github.com/bizops-platform/inventory-service/pkg/mongodb"
	"github.com/bizops-platform/inventory-service/pkg/tracing"

	"github.com/bizops-platform/inventory-service/internal/application"
	"github.com/bizops-platform/inventory-service/internal/infrastructure/events"
	mongoRepo "github.com/bizops-platform/inventory-service/internal/infrastructure/mongodb"
)

const serviceName = "inventory-service"

func main() {
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting inventory-service API")

	config := loadConfig()
	ctx := context.Background()

	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	tracingConfig.Environment = getEnv("ENVIRONMENT", "development")
	tracingConfig.Enabled = getEnv("TRACING_ENABLED", "true") == "true"

	tracerProvider, err := tracing.Initialize(ctx, tracingConfig)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
	} else if tracerProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
		logger.Info("Tracing initialized", "endpoint", tracingConfig.OTLPEndpoint)
	}

	m := metrics.New(metrics.DefaultConfig(serviceName))

	mongoClient, err := mongodb.NewClient(ctx, config.MongoDB)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	defer mongoClient.Close(ctx)
	logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

	kafkaProducer := kafka.NewProducer(config.Kafka)
	producer := kafka.NewCircuitBreakerProducer(kafkaProducer, m, logger)
	defer producer.Close()
	logger.Info("Kafka producer initialized", "brokers", config.Kafka.Brokers)

	db := mongoClient.Database()
	stockRepo := mongoRepo.NewStockItemRepository(db)
	orderRepo := mongoRepo.NewOrderRepository(db)
	demandRepo := mongoRepo.NewDemandRepository(db)
	movementRepo := mongoRepo.NewMovementRepository(db)

	publisher := events.NewKafkaEventPublisher(producer, logger)

	stockService := application.NewStockApplicationService(stockRepo, movementRepo, publisher, m, logger)
	reservationService := application.NewReservationApplicationService(stockRepo, orderRepo, demandRepo, movementRepo, publisher, m, logger)
	fulfillmentService := application.NewFulfillmentApplicationService(stockRepo, orderRepo, movementRepo, publisher, m, logger)

	router := gin.New()

	middlewareConfig := middleware.DefaultConfig(serviceName, logger.Logger)
	middlewareConfig.RequireActor = getEnv("REQUIRE_ACTOR", "false") == "true"
	middleware.Setup(router, middlewareConfig)

	router.Use(middleware.MetricsMiddleware(m))
	router.Use(middleware.SimpleTracingMiddleware(serviceName))

	router.NoRoute(middleware.NoRoute())
	router.NoMethod(middleware.NoMethod())

	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, func() error {
		return mongoClient.HealthCheck(ctx)
	}))
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	api := router.Group("/api/v1")
	{
		api.POST("/items", createItemHandler(stockService, logger))
		api.GET("/items", listItemsHandler(stockService, logger))
		api.GET("/items/:sku", getItemHandler(stockService, logger))
		api.POST("/items/:sku/buffer", addBufferHandler(stockService, logger))
		api.POST("/items/:sku/transfer", transferBufferHandler(stockService, logger))
		api.GET("/items/:sku/movements", listMovementsHandler(stockService, logger))

		api.POST("/reservations", reserveHandler(reservationService, logger))
		api.POST("/reservations/preview", previewHandler(reservationService, logger))

		api.GET("/orders/:orderId", getOrderHandler(reservationService, logger))
		api.POST("/orders/:orderId/fulfill", fulfillHandler(fulfillmentService, logger))
		api.POST("/orders/:orderId/cancel", cancelHandler(reservationService, logger))

		api.GET("/follow-ups/:followUpId/orders", listFollowUpOrdersHandler(reservationService, logger))
		api.GET("/demands", listDemandsHandler(reservationService, logger))
	}

	srv := &http.Server{
		Addr:         config.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
		}
	}()
	logger.Info("Server started", "addr", config.ServerAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server stopped")
}

// Config holds application configuration
type Config struct {
	ServerAddr string
	MongoDB    *mongodb.Config
	Kafka      *kafka.Config
}

func loadConfig() *Config {
	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		MongoDB: &mongodb.Config{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGODB_DATABASE", "inventory"),
			ConnectTimeout: 10 * time.Second,
			MaxPoolSize:    100,
			MinPoolSize:    10,
		},
		Kafka: &kafka.Config{
			Brokers:      []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			ClientID:     serviceName,
			BatchSize:    100,
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: -1,
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
