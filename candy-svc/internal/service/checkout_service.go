package service

import (
	"context"
	"errors"
	"strings"

	"candy-stand/candy-svc/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type CheckoutService struct {
	store      InventoryStore
	gateway    PaymentGateway
	settlement SettlementServiceInterface
	gate       *ShopGate
	logger     *zap.Logger
	tracer     trace.Tracer
}

func NewCheckoutService(store InventoryStore, gateway PaymentGateway, settlement SettlementServiceInterface, gate *ShopGate, logger *zap.Logger, tracer trace.Tracer) *CheckoutService {
	return &CheckoutService{
		store:      store,
		gateway:    gateway,
		settlement: settlement,
		gate:       gate,
		logger:     logger,
		tracer:     tracer,
	}
}

// CreateSession opens a hosted checkout for the cart. Unit prices come from the
// inventory catalog, never from the client.
func (s *CheckoutService) CreateSession(ctx context.Context, laneNumber string, items []domain.ItemRequest) (*domain.CheckoutSession, error) {
	laneNumber = strings.TrimSpace(laneNumber)
	if laneNumber == "" {
		return nil, domain.NewValidationError("laneNumber", "laneNumber is required")
	}
	lines, err := resolveItems(items)
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "checkout.create_session")
	defer span.End()
	span.SetAttributes(attribute.String("order.lane", laneNumber))

	if err := s.gate.Check(ctx); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	req := domain.CheckoutRequest{LaneNumber: laneNumber}
	for _, line := range lines {
		record, err := s.store.Get(ctx, line.key)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		if record == nil {
			return nil, &domain.ItemNotFoundError{Item: line.name}
		}
		if record.PriceCents <= 0 {
			return nil, domain.NewValidationError("item", record.DisplayName()+" has no price")
		}
		req.Items = append(req.Items, domain.CheckoutLineItem{
			Key:            line.key,
			Name:           record.DisplayName(),
			UnitPriceCents: record.PriceCents,
			Quantity:       line.quantity,
		})
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "checkout session failed")
		s.logger.Error("create checkout session failed", zap.String("lane", laneNumber), zap.Error(err))
		return nil, err
	}

	span.SetAttributes(attribute.String("checkout.session_id", session.ID))
	s.logger.Info("checkout session created", zap.String("session_id", session.ID), zap.String("lane", laneNumber))
	return session, nil
}

// HandleWebhook verifies and applies a payment processor event. Events other than a
// completed checkout are acknowledged and ignored.
func (s *CheckoutService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.ParseEvent(ctx, payload, signature)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSignature) {
			s.logger.Warn("webhook rejected", zap.Error(err))
			return err
		}
		s.logger.Error("webhook event could not be loaded", zap.Error(err))
		return err
	}

	if event.Type != domain.EventCheckoutCompleted {
		s.logger.Debug("ignoring webhook event", zap.String("type", event.Type))
		return nil
	}

	_, err = s.settlement.SettlePayment(ctx, event)
	return err
}
