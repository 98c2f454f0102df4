package service

import (
	"context"

	"candy-stand/candy-svc/internal/domain"
	"candy-stand/candy-svc/internal/payment"
	"candy-stand/candy-svc/internal/storage"
)

type InventoryStore interface {
	RunTransaction(ctx context.Context, keys []domain.ItemKey, fn domain.InventoryTxFunc) error
	Get(ctx context.Context, key domain.ItemKey) (*domain.InventoryRecord, error)
	List(ctx context.Context) ([]domain.InventoryRecord, error)
	Put(ctx context.Context, record domain.InventoryRecord) error
}

type OrderRepository interface {
	NextOrderID(ctx context.Context) (string, error)
	SaveOrder(ctx context.Context, order *domain.Order) error
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
}

type OrderLog interface {
	Append(ctx context.Context, row domain.LogRow) error
}

// ShopSettings reads the shop-open document. found is false when it does not exist.
type ShopSettings interface {
	ShopOpen(ctx context.Context) (open bool, found bool, err error)
}

type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutSession, error)
	ParseEvent(ctx context.Context, payload []byte, signature string) (*domain.PaymentEvent, error)
}

type QRGenerator interface {
	Generate(orderID string) ([]byte, error)
}

type ReservationServiceInterface interface {
	Reserve(ctx context.Context, sessionID string, items []domain.ItemRequest) error
	Release(ctx context.Context, sessionID string, items []domain.ItemRequest) error
}

type SettlementServiceInterface interface {
	SendOrder(ctx context.Context, laneNumber string, items []domain.ItemRequest) (*domain.Order, error)
	SettlePayment(ctx context.Context, event *domain.PaymentEvent) (*SettlementOutcome, error)
}

type CheckoutServiceInterface interface {
	CreateSession(ctx context.Context, laneNumber string, items []domain.ItemRequest) (*domain.CheckoutSession, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type OrderServiceInterface interface {
	Get(ctx context.Context, id string) (*domain.Order, error)
	QRCode(ctx context.Context, id string) ([]byte, error)
	Menu(ctx context.Context) ([]domain.MenuItem, error)
	ShopOpen(ctx context.Context) (bool, error)
}

var (
	_ ReservationServiceInterface = (*ReservationService)(nil)
	_ SettlementServiceInterface  = (*SettlementService)(nil)
	_ CheckoutServiceInterface    = (*CheckoutService)(nil)
	_ OrderServiceInterface       = (*OrderService)(nil)

	_ InventoryStore  = (*storage.RedisInventoryStore)(nil)
	_ InventoryStore  = (*storage.PostgresInventoryStore)(nil)
	_ OrderRepository = (*storage.PostgresOrderRepository)(nil)
	_ OrderLog        = (*storage.KafkaOrderLog)(nil)
	_ ShopSettings    = (*storage.RedisShopSettings)(nil)
	_ ShopSettings    = (*storage.PostgresShopSettings)(nil)
	_ PaymentGateway  = (*payment.StripeGateway)(nil)
	_ QRGenerator     = DefaultQRGenerator{}
)
