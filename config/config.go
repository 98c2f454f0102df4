package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	platformkafka "candy-stand/platform/kafka"

	otelkafka "github.com/Trendyol/otel-kafka-konsumer"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	ServiceVersion = "0.3.0"

	DefaultOrderLogTopic = "order-log"
	LedgerGroupID        = "ledger-svc-group"
	BatchTimeout         = 10 * time.Millisecond
	BatchSize            = 100
)

const (
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Settings is everything the services read from the environment.
type Settings struct {
	HTTPAddr string

	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string

	RedisHost string
	RedisPort string

	KafkaBroker   string
	OrderLogTopic string

	InventoryBackend string
	InventorySeed    string
	ReservationTTL   time.Duration
	TxMaxRetries     int

	StripeSecretKey     string
	StripeWebhookSecret string
	CheckoutSuccessURL  string
	CheckoutCancelURL   string
	Currency            string
	PublicBaseURL       string

	OtelEndpoint   string
	OtelAuthHeader string
}

func Load() (*Settings, error) {
	s := &Settings{
		HTTPAddr:            getenv("HTTP_ADDR", ":8080"),
		DBHost:              os.Getenv("DB_HOST"),
		DBPort:              getenv("DB_PORT", "5432"),
		DBName:              os.Getenv("DB_NAME"),
		DBUser:              os.Getenv("DB_USER"),
		DBPassword:          os.Getenv("DB_PASSWORD"),
		RedisHost:           getenv("REDIS_HOST", "localhost"),
		RedisPort:           getenv("REDIS_PORT", "6379"),
		KafkaBroker:         os.Getenv("KAFKA_BROKER"),
		OrderLogTopic:       getenv("ORDER_LOG_TOPIC", DefaultOrderLogTopic),
		InventoryBackend:    getenv("INVENTORY_BACKEND", BackendRedis),
		InventorySeed:       os.Getenv("INVENTORY_SEED"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		CheckoutSuccessURL:  getenv("CHECKOUT_SUCCESS_URL", "http://localhost:3000/success"),
		CheckoutCancelURL:   getenv("CHECKOUT_CANCEL_URL", "http://localhost:3000/cancel"),
		Currency:            getenv("CURRENCY", "usd"),
		PublicBaseURL:       getenv("PUBLIC_BASE_URL", "http://localhost:3000"),
		OtelEndpoint:        os.Getenv("OTEL_ENDPOINT"),
		OtelAuthHeader:      os.Getenv("OTEL_AUTH_HEADER"),
	}

	ttl, err := time.ParseDuration(getenv("RESERVATION_TTL", "10m"))
	if err != nil {
		return nil, fmt.Errorf("RESERVATION_TTL: %w", err)
	}
	s.ReservationTTL = ttl

	retries, err := strconv.Atoi(getenv("TX_MAX_RETRIES", "25"))
	if err != nil {
		return nil, fmt.Errorf("TX_MAX_RETRIES: %w", err)
	}
	s.TxMaxRetries = retries

	return s, nil
}

// Validate reports the settings candy-svc cannot start without.
func (s *Settings) Validate() error {
	var errs []error
	if s.KafkaBroker == "" {
		errs = append(errs, errors.New("KAFKA_BROKER environment variable is required"))
	}
	if s.StripeSecretKey == "" {
		errs = append(errs, errors.New("STRIPE_SECRET_KEY environment variable is required"))
	}
	if s.StripeWebhookSecret == "" {
		errs = append(errs, errors.New("STRIPE_WEBHOOK_SECRET environment variable is required"))
	}
	if s.InventoryBackend != BackendRedis && s.InventoryBackend != BackendPostgres {
		errs = append(errs, fmt.Errorf("INVENTORY_BACKEND must be %q or %q, got %q", BackendRedis, BackendPostgres, s.InventoryBackend))
	}
	if s.ReservationTTL <= 0 {
		errs = append(errs, errors.New("RESERVATION_TTL must be positive"))
	}
	if s.TxMaxRetries <= 0 {
		errs = append(errs, errors.New("TX_MAX_RETRIES must be positive"))
	}
	return errors.Join(errs...)
}

func (s *Settings) PostgresDSN() string {
	return "host=" + s.DBHost + " port=" + s.DBPort + " user=" + s.DBUser +
		" password=" + s.DBPassword + " dbname=" + s.DBName + " sslmode=disable"
}

func (s *Settings) RedisAddr() string {
	return s.RedisHost + ":" + s.RedisPort
}

func InitPostgres(s *Settings) (*sql.DB, error) {
	db, err := sql.Open("postgres", s.PostgresDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	return db, nil
}

func InitRedis(ctx context.Context, s *Settings) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: s.RedisAddr(),
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

// NewKafkaReader commits offsets only when asked to. Trace context travels in the
// message headers and is picked up by the consumer.
func NewKafkaReader(s *Settings, groupID string) (platformkafka.Consumer, error) {
	if s.KafkaBroker == "" {
		return nil, errors.New("KAFKA_BROKER environment variable is required")
	}
	return platformkafka.NewGroupReader(kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{s.KafkaBroker},
		Topic:   s.OrderLogTopic,
		GroupID: groupID,
	})), nil
}

func NewKafkaWriter(s *Settings, serviceName string, tp trace.TracerProvider) (platformkafka.Producer, error) {
	base := &kafka.Writer{
		Addr:         kafka.TCP(s.KafkaBroker),
		Topic:        s.OrderLogTopic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: BatchTimeout,
		BatchSize:    BatchSize,
	}

	writer, err := otelkafka.NewWriter(base,
		otelkafka.WithTracerProvider(tp),
		otelkafka.WithPropagator(propagation.TraceContext{}),
		otelkafka.WithAttributes(
			[]attribute.KeyValue{
				semconv.MessagingDestinationNameKey.String(s.OrderLogTopic),
				attribute.String("messaging.kafka.client_id", serviceName),
			},
		),
	)
	if err != nil {
		return nil, err
	}
	return writer, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
