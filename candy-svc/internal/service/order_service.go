package service

import (
	"context"
	"strings"
	"time"

	"candy-stand/candy-svc/internal/domain"
)

type OrderService struct {
	orders OrderRepository
	store  InventoryStore
	gate   *ShopGate
	qr     QRGenerator
	ttl    time.Duration

	Now func() time.Time
}

func NewOrderService(orders OrderRepository, store InventoryStore, gate *ShopGate, qr QRGenerator, ttl time.Duration) *OrderService {
	return &OrderService{
		orders: orders,
		store:  store,
		gate:   gate,
		qr:     qr,
		ttl:    ttl,
		Now:    time.Now,
	}
}

func (s *OrderService) Get(ctx context.Context, id string) (*domain.Order, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.NewValidationError("id", "order id is required")
	}
	return s.orders.GetOrder(ctx, id)
}

// QRCode renders a PNG that links to the order's receipt page.
func (s *OrderService) QRCode(ctx context.Context, id string) ([]byte, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.qr.Generate(order.ID)
}

// Menu lists every item with what a new customer could reserve right now.
func (s *OrderService) Menu(ctx context.Context) ([]domain.MenuItem, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, domain.NewPersistenceError("list inventory", err)
	}

	now := s.Now()
	menu := make([]domain.MenuItem, 0, len(records))
	for i := range records {
		available := records[i].Available(now, s.ttl)
		if available < 0 {
			available = 0
		}
		menu = append(menu, domain.MenuItem{
			ID:         records[i].Key,
			Name:       records[i].DisplayName(),
			PriceCents: records[i].PriceCents,
			Available:  available,
		})
	}
	return menu, nil
}

func (s *OrderService) ShopOpen(ctx context.Context) (bool, error) {
	return s.gate.IsOpen(ctx)
}
