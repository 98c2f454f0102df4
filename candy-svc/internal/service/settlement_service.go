package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"candy-stand/candy-svc/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type DeductionStatus string

const (
	DeductionApplied      DeductionStatus = "applied"
	DeductionMissing      DeductionStatus = "skipped_missing"
	DeductionInsufficient DeductionStatus = "skipped_insufficient"
	DeductionFailed       DeductionStatus = "failed"
)

// DeductionResult is the stock outcome for one paid line item.
type DeductionResult struct {
	Item     domain.ItemKey
	Quantity int
	Status   DeductionStatus
	Err      error
}

// SettlementOutcome reports what a paid settlement did. Skipped or failed deductions
// never fail the settlement itself.
type SettlementOutcome struct {
	Order      *domain.Order
	Duplicate  bool
	Deductions []DeductionResult
	ReleaseErr error
}

func (o *SettlementOutcome) Skipped() []DeductionResult {
	var skipped []DeductionResult
	for _, d := range o.Deductions {
		if d.Status != DeductionApplied {
			skipped = append(skipped, d)
		}
	}
	return skipped
}

type SettlementService struct {
	store  InventoryStore
	orders OrderRepository
	log    OrderLog
	gate   *ShopGate
	ttl    time.Duration
	logger *zap.Logger
	tracer trace.Tracer

	Now func() time.Time
}

func NewSettlementService(store InventoryStore, orders OrderRepository, log OrderLog, gate *ShopGate, ttl time.Duration, logger *zap.Logger, tracer trace.Tracer) *SettlementService {
	return &SettlementService{
		store:  store,
		orders: orders,
		log:    log,
		gate:   gate,
		ttl:    ttl,
		logger: logger,
		tracer: tracer,
		Now:    time.Now,
	}
}

// SendOrder settles a pay-at-table order. Every item is validated and deducted inside one
// transaction, so either all stock moves or none does.
func (s *SettlementService) SendOrder(ctx context.Context, laneNumber string, items []domain.ItemRequest) (*domain.Order, error) {
	laneNumber = strings.TrimSpace(laneNumber)
	if laneNumber == "" {
		return nil, domain.NewValidationError("laneNumber", "laneNumber is required")
	}
	lines, err := resolveItems(items)
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "settlement.send_order")
	defer span.End()
	span.SetAttributes(
		attribute.String("order.lane", laneNumber),
		attribute.Int("inventory.item_count", len(lines)),
	)

	if err := s.gate.Check(ctx); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	now := s.Now()
	err = s.store.RunTransaction(ctx, keysOf(lines), func(records map[domain.ItemKey]*domain.InventoryRecord) error {
		for _, line := range lines {
			record, ok := records[line.key]
			if !ok {
				return &domain.ItemNotFoundError{Item: line.name}
			}
			if available := record.Available(now, s.ttl); available < line.quantity {
				return &domain.InsufficientStockError{Item: record.DisplayName(), Requested: line.quantity, Available: available}
			}
		}
		for _, line := range lines {
			if err := records[line.key].Take(line.quantity, now, s.ttl); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("pay-at-table order rejected", zap.String("lane", laneNumber), zap.Error(err))
		return nil, err
	}

	id, err := s.orders.NextOrderID(ctx)
	if err != nil {
		return nil, domain.NewPersistenceError("generate order id", err)
	}
	order := &domain.Order{
		ID:         id,
		Items:      orderItemsOf(lines),
		LaneNumber: laneNumber,
		IsPaid:     false,
		CreatedAt:  now,
	}
	if err := s.orders.SaveOrder(ctx, order); err != nil {
		s.logger.Error("stock deducted but order save failed", zap.String("order_id", id), zap.Error(err))
		return nil, domain.NewPersistenceError("save order", err)
	}
	span.SetAttributes(attribute.String("order.id", id))

	if err := s.appendLog(ctx, order); err != nil {
		span.RecordError(err)
		return order, err
	}

	span.SetStatus(codes.Ok, "order settled")
	s.logger.Info("pay-at-table order settled", zap.String("order_id", id), zap.String("lane", laneNumber))
	return order, nil
}

// SettlePayment records a paid checkout session. Money has already been collected, so the
// order is always recorded; stock problems are logged per item and never abort it.
func (s *SettlementService) SettlePayment(ctx context.Context, event *domain.PaymentEvent) (*SettlementOutcome, error) {
	if event == nil || strings.TrimSpace(event.SessionID) == "" {
		return nil, domain.NewValidationError("sessionId", "payment event has no session id")
	}

	ctx, span := s.tracer.Start(ctx, "settlement.payment")
	defer span.End()
	span.SetAttributes(
		attribute.String("checkout.session_id", event.SessionID),
		attribute.String("order.lane", event.LaneNumber),
		attribute.Int("inventory.item_count", len(event.Items)),
	)

	now := s.Now()
	order := &domain.Order{
		ID:         event.SessionID,
		Items:      event.Items,
		LaneNumber: event.LaneNumber,
		IsPaid:     true,
		Customer:   event.Customer,
		CreatedAt:  now,
	}
	outcome := &SettlementOutcome{Order: order}

	if err := s.orders.SaveOrder(ctx, order); err != nil {
		if errors.Is(err, domain.ErrOrderExists) {
			// A redelivery may follow a failed log append; the ledger drops repeated order ids.
			s.logger.Info("payment already settled, re-sending log row only", zap.String("order_id", order.ID))
			outcome.Duplicate = true
			if err := s.appendLog(ctx, order); err != nil {
				span.RecordError(err)
				return outcome, err
			}
			return outcome, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "order save failed")
		return nil, domain.NewPersistenceError("save order", err)
	}

	keys := make([]domain.ItemKey, 0, len(event.Items))
	for _, item := range event.Items {
		result := s.deduct(ctx, item, now)
		outcome.Deductions = append(outcome.Deductions, result)
		if result.Item != "" {
			keys = append(keys, result.Item)
		}
	}

	if err := releaseAll(ctx, s.store, event.SessionID, keys, now, s.ttl); err != nil {
		outcome.ReleaseErr = err
		s.logger.Warn("reservation cleanup failed", zap.String("session_id", event.SessionID), zap.Error(err))
	}

	if skipped := outcome.Skipped(); len(skipped) > 0 {
		span.SetAttributes(attribute.Int("inventory.skipped_deductions", len(skipped)))
	}

	if err := s.appendLog(ctx, order); err != nil {
		span.RecordError(err)
		return outcome, err
	}

	span.SetStatus(codes.Ok, "payment settled")
	s.logger.Info("payment settled", zap.String("order_id", order.ID), zap.Int("items", len(order.Items)))
	return outcome, nil
}

// deduct runs one stock transaction for a paid line item and classifies the result.
// The key recorded at checkout wins; the name slug is only a fallback.
func (s *SettlementService) deduct(ctx context.Context, item domain.OrderItem, now time.Time) DeductionResult {
	result := DeductionResult{Quantity: item.Quantity}

	key, err := domain.ResolveItemKey(string(item.Key), item.Name)
	if err != nil {
		result.Status = DeductionMissing
		result.Err = err
		s.logger.Warn("paid item has no usable name", zap.String("item", item.Name))
		return result
	}
	result.Item = key

	err = s.store.RunTransaction(ctx, []domain.ItemKey{key}, func(records map[domain.ItemKey]*domain.InventoryRecord) error {
		record, ok := records[key]
		if !ok {
			return &domain.ItemNotFoundError{Item: item.Name}
		}
		record.Sweep(now, s.ttl)
		return record.Deduct(item.Quantity)
	})

	var notFound *domain.ItemNotFoundError
	var insufficient *domain.InsufficientStockError
	switch {
	case err == nil:
		result.Status = DeductionApplied
	case errors.As(err, &notFound):
		result.Status = DeductionMissing
		result.Err = err
		s.logger.Warn("paid item not in inventory, stock not deducted", zap.String("item", string(key)), zap.Int("quantity", item.Quantity))
	case errors.As(err, &insufficient):
		result.Status = DeductionInsufficient
		result.Err = err
		s.logger.Warn("paid quantity exceeds stock, stock not deducted", zap.String("item", string(key)), zap.Error(err))
	default:
		result.Status = DeductionFailed
		result.Err = err
		s.logger.Error("stock deduction failed", zap.String("item", string(key)), zap.Error(err))
	}
	return result
}

func (s *SettlementService) appendLog(ctx context.Context, order *domain.Order) error {
	customerJSON := "{}"
	if order.Customer != nil {
		raw, err := json.Marshal(order.Customer)
		if err == nil {
			customerJSON = string(raw)
		}
	}

	row := domain.LogRow{
		Timestamp:    order.CreatedAt,
		OrderID:      order.ID,
		LaneNumber:   order.LaneNumber,
		IsPaid:       order.IsPaid,
		ItemSummary:  domain.SummarizeItems(order.Items),
		CustomerJSON: customerJSON,
		Items:        order.Items,
	}
	if err := s.log.Append(ctx, row); err != nil {
		s.logger.Error("order log append failed", zap.String("order_id", order.ID), zap.Error(err))
		return domain.NewPersistenceError("append order log", err)
	}
	return nil
}
