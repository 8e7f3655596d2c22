package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"habla/internal/events"
	"habla/internal/policies"
	trustrepository "habla/internal/trust/repository"
	trustservice "habla/internal/trust/service"
	"habla/pkg/config"
	"habla/pkg/kafka"
	kafka_config "habla/pkg/kafka/config"
	middleware "habla/pkg/kafka/middleware"
)

const ServiceName = "trust-worker"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Trust worker")

	trustService := initTrustService(cfg)

	kafkaCfg := kafka_config.Load()
	if err := kafkaCfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	worker := &trustWorker{trust: trustService, cfg: cfg}
	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		kafka_config.TopicBookingEvents,
		kafka_config.GroupTrustWorker,
		kafka_config.TopicBookingEventsDLQ,
		worker.handle,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create booking events consumer", "error", err)
	}
	consumer.Use(middleware.LoggingConsumerMiddleware(cfg.Log))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Consuming booking events",
		"topic", kafka_config.TopicBookingEvents,
		"group", kafka_config.GroupTrustWorker,
	)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Consumer stopped with error", "error", err)
	}

	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close consumer", "error", err)
	}
	cfg.Log.Info("Trust worker stopped")
}

func initTrustService(cfg *config.Config) trustservice.TrustService {
	policyRepo := policies.NewMongoRepository(cfg)
	policyResolver := policies.NewResolver(policyRepo, cfg)
	trustRepo := trustrepository.NewMongoTrustRepository(cfg)
	return trustservice.NewTrustService(trustRepo, policyResolver, cfg)
}

type trustWorker struct {
	trust trustservice.TrustService
	cfg   *config.Config
}

// handle applies the trust delta carried by booking outcome events. Hold
// lifecycle events share the topic and carry no delta, so they are skipped.
// The reference id on the event keys the adjustment, which makes Kafka
// redelivery safe.
func (w *trustWorker) handle(ctx context.Context, msg kafka.Message) error {
	eventType := msg.GetEventType()
	switch eventType {
	case events.TypeBookingConfirmed, events.TypeBookingCancelled, events.TypeBookingNoShow:
	default:
		return nil
	}

	var event events.BookingEvent
	if err := msg.DecodeValue(&event); err != nil {
		return kafka.NewPermanentError("failed to decode booking event", err)
	}

	if event.TrustDelta == 0 || event.ReferenceID == "" {
		return nil
	}
	if event.TenantID == "" || event.CustomerPhone == "" {
		return kafka.NewPermanentError("booking event missing tenant or phone", nil)
	}

	applied, err := w.trust.AdjustScore(ctx,
		event.TenantID,
		event.CustomerPhone,
		event.ReferenceID,
		eventType,
		event.TrustDelta,
	)
	if err != nil {
		return kafka.NewTransientError("failed to apply trust adjustment", err)
	}
	if !applied {
		w.cfg.Log.Debug("Trust adjustment already applied",
			"tenant_id", event.TenantID,
			"reference_id", event.ReferenceID,
		)
	}
	return nil
}
