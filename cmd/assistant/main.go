package main

import (
	"habla/internal/assistant/handler"
	"habla/internal/assistant/tools"
	"habla/internal/audit"
	bookingsrepository "habla/internal/bookings/repository"
	bookingsservice "habla/internal/bookings/service"
	"habla/internal/bookings/validator"
	"habla/internal/events"
	holdsrepository "habla/internal/holds/repository"
	holdsservice "habla/internal/holds/service"
	"habla/internal/policies"
	"habla/internal/tenants"
	"habla/internal/tools/catalog"
	"habla/internal/tools/exec"
	trustrepository "habla/internal/trust/repository"
	trustservice "habla/internal/trust/service"
	"habla/pkg/app"
	"habla/pkg/config"
	"habla/pkg/kafka"
	kafka_config "habla/pkg/kafka/config"
	middleware "habla/pkg/kafka/middleware"
)

const ServiceName = "assistant"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Assistant service")

	publisher, closeProducers := initPublisher(cfg)
	defer closeProducers()

	toolHandler := initHandler(cfg, publisher)

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, toolHandler)
	serverApp.Run()
}

func initPublisher(cfg *config.Config) (*events.Publisher, func()) {
	kafkaCfg := kafka_config.Load()
	if err := kafkaCfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	bookingProducer, err := kafka.NewProducer(kafkaCfg, kafka_config.TopicBookingEvents, kafka_config.TopicBookingEventsDLQ)
	if err != nil {
		cfg.Log.Fatal("Failed to create booking events producer", "error", err)
	}
	bookingProducer.Use(middleware.LoggingProducerMiddleware(cfg.Log))

	executionProducer, err := kafka.NewProducer(kafkaCfg, kafka_config.TopicToolExecutions, "")
	if err != nil {
		cfg.Log.Fatal("Failed to create tool executions producer", "error", err)
	}

	publisher := events.NewPublisher(bookingProducer, executionProducer, ServiceName, cfg.Log)

	closeProducers := func() {
		if err := bookingProducer.Close(); err != nil {
			cfg.Log.Error("Failed to close booking events producer", "error", err)
		}
		if err := executionProducer.Close(); err != nil {
			cfg.Log.Error("Failed to close tool executions producer", "error", err)
		}
	}
	return publisher, closeProducers
}

func initHandler(cfg *config.Config, publisher *events.Publisher) *handler.ToolHandler {
	tenantRepo := tenants.NewMongoRepository(cfg)
	policyRepo := policies.NewMongoRepository(cfg)
	policyResolver := policies.NewResolver(policyRepo, cfg)

	trustRepo := trustrepository.NewMongoTrustRepository(cfg)
	trustService := trustservice.NewTrustService(trustRepo, policyResolver, cfg)

	holdRepo := holdsrepository.NewMongoHoldRepository(cfg)
	lockRepo := holdsrepository.NewHoldLockRepository(cfg)

	bookingRepo := bookingsrepository.NewMongoBookingRepository(cfg)
	bookingService := bookingsservice.NewBookingService(bookingRepo, holdRepo, validator.NewBookingValidator(), cfg)

	holdService := holdsservice.NewHoldService(
		holdRepo,
		lockRepo,
		tenantRepo,
		policyResolver,
		trustService,
		bookingService,
		publisher,
		cfg,
	)

	toolCatalog := catalog.New(cfg.Log)
	if err := tools.RegisterAll(toolCatalog, &tools.Services{
		Holds:    holdService,
		Bookings: bookingService,
		Trust:    trustService,
		Tenants:  tenantRepo,
		Events:   publisher,
		Cfg:      cfg,
	}); err != nil {
		cfg.Log.Fatal("Failed to register assistant tools", "error", err)
	}

	auditRepo := audit.NewMongoRepository(cfg)
	executor := exec.New(toolCatalog, auditRepo, cfg.Log,
		exec.WithEvents(publisher),
		exec.WithDefaultTimeout(cfg.ToolTimeout),
	)

	cfg.Log.Info("Assistant services initialized",
		"database", cfg.MongoDatabaseName,
		"tools", len(toolCatalog.ListNames()),
	)
	return handler.NewToolHandler(executor, toolCatalog, tenantRepo, cfg.Log)
}
