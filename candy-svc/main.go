package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "candy-stand/candy-svc/internal/api/http"
	"candy-stand/candy-svc/internal/payment"
	"candy-stand/candy-svc/internal/service"
	"candy-stand/candy-svc/internal/storage"
	"candy-stand/config"
	"candy-stand/platform/observability"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const serviceName = "candy-svc"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	settings, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := settings.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
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

	store, shop, err := buildStores(ctx, settings, db, rdb)
	if err != nil {
		logger.Fatal("inventory store setup failed", zap.Error(err))
	}

	orders := storage.NewPostgresOrderRepository(db)
	if err := orders.EnsureSchema(ctx); err != nil {
		logger.Fatal("orders schema setup failed", zap.Error(err))
	}

	if settings.InventorySeed != "" {
		records, err := service.LoadSeed(settings.InventorySeed)
		if err != nil {
			logger.Fatal("inventory seed unreadable", zap.Error(err))
		}
		created, err := service.SeedInventory(ctx, store, records, logger)
		if err != nil {
			logger.Fatal("inventory seed failed", zap.Error(err))
		}
		logger.Info("inventory seed applied", zap.Int("created", created), zap.Int("total", len(records)))
	}

	producer, err := config.NewKafkaWriter(settings, serviceName, telemetry.TracerProvider)
	if err != nil {
		logger.Fatal("kafka writer setup failed", zap.Error(err))
	}
	defer producer.Close()

	gateway := payment.NewStripeGateway(payment.Options{
		SecretKey:     settings.StripeSecretKey,
		WebhookSecret: settings.StripeWebhookSecret,
		Currency:      settings.Currency,
		SuccessURL:    settings.CheckoutSuccessURL,
		CancelURL:     settings.CheckoutCancelURL,
	})

	tracer := telemetry.Tracer(serviceName)
	gate := service.NewShopGate(shop)
	orderLog := storage.NewKafkaOrderLog(producer)

	reservations := service.NewReservationService(store, gate, settings.ReservationTTL, logger, tracer)
	settlement := service.NewSettlementService(store, orders, orderLog, gate, settings.ReservationTTL, logger, tracer)
	checkout := service.NewCheckoutService(store, gateway, settlement, gate, logger, tracer)
	orderSvc := service.NewOrderService(orders, store, gate, service.DefaultQRGenerator{BaseURL: settings.PublicBaseURL}, settings.ReservationTTL)

	handler := httpapi.NewHandler(reservations, settlement, checkout, orderSvc, logger)
	server := httpapi.NewServer(settings.HTTPAddr, httpapi.NewRouter(handler, tracer))

	go func() {
		logger.Info("Candy Service starting", zap.String("addr", settings.HTTPAddr), zap.String("inventory_backend", settings.InventoryBackend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server stopped", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", zap.Error(err))
	}
}

func buildStores(ctx context.Context, settings *config.Settings, db *sql.DB, rdb *redis.Client) (service.InventoryStore, service.ShopSettings, error) {
	if settings.InventoryBackend == config.BackendPostgres {
		store := storage.NewPostgresInventoryStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, nil, err
		}
		shop := storage.NewPostgresShopSettings(db)
		if err := shop.EnsureSchema(ctx); err != nil {
			return nil, nil, err
		}
		return store, shop, nil
	}
	return storage.NewRedisInventoryStore(rdb, settings.TxMaxRetries), storage.NewRedisShopSettings(rdb), nil
}
