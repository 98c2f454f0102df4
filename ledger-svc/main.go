package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"candy-stand/config"
	"candy-stand/ledger-svc/internal/service"
	"candy-stand/ledger-svc/internal/storage"
	"candy-stand/platform/observability"

	"go.uber.org/zap"
)

const serviceName = "ledger-svc"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	settings, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if settings.KafkaBroker == "" {
		log.Fatal("KAFKA_BROKER environment variable is required")
	}

	telemetry, err := observability.Setup(ctx, observability.Options{
		ServiceName:    serviceName,
		ServiceVersion: config.ServiceVersion,
		Endpoint:       settings.OtelEndpoint,
		AuthHeader:     settings.OtelAuthHeader,
	})
	if err != nil {
		log.Fatalf("Failed to set up telemetry: %v", err)
	}
	logger := telemetry.Logger
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			log.Printf("Telemetry shutdown: %v", err)
		}
	}()

	db, err := config.InitPostgres(settings)
	if err != nil {
		logger.Fatal("postgres unavailable", zap.Error(err))
	}
	defer db.Close()

	rdb, err := config.InitRedis(ctx, settings)
	if err != nil {
		logger.Fatal("redis unavailable", zap.Error(err))
	}
	defer rdb.Close()

	store := storage.NewStore(db, rdb)
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Fatal("order_log schema setup failed", zap.Error(err))
	}

	reader, err := config.NewKafkaReader(settings, config.LedgerGroupID)
	if err != nil {
		logger.Fatal("kafka reader setup failed", zap.Error(err))
	}
	defer reader.Close()

	logger.Info("Ledger Service consuming", zap.String("topic", settings.OrderLogTopic), zap.String("group", config.LedgerGroupID))
	consumer := service.NewConsumer(reader, store, logger, telemetry.Tracer(serviceName))
	consumer.Start(ctx)
	logger.Info("Ledger Service stopped")
}
