package service

import (
	"context"
	"strings"
	"time"

	"candy-stand/candy-svc/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type ReservationService struct {
	store  InventoryStore
	gate   *ShopGate
	ttl    time.Duration
	logger *zap.Logger
	tracer trace.Tracer

	Now func() time.Time
}

func NewReservationService(store InventoryStore, gate *ShopGate, ttl time.Duration, logger *zap.Logger, tracer trace.Tracer) *ReservationService {
	return &ReservationService{
		store:  store,
		gate:   gate,
		ttl:    ttl,
		logger: logger,
		tracer: tracer,
		Now:    time.Now,
	}
}

// Reserve places or extends a hold for every item. Each item runs in its own transaction,
// concurrently with the others, so a failure on one item does not undo holds already
// placed on the rest; callers release or let them expire.
func (s *ReservationService) Reserve(ctx context.Context, sessionID string, items []domain.ItemRequest) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return domain.NewValidationError("sessionId", "sessionId is required")
	}
	lines, err := resolveItems(items)
	if err != nil {
		return err
	}

	ctx, span := s.tracer.Start(ctx, "inventory.reserve")
	defer span.End()
	span.SetAttributes(
		attribute.String("checkout.session_id", sessionID),
		attribute.Int("inventory.item_count", len(lines)),
	)

	if err := s.gate.Check(ctx); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	now := s.Now()
	var group errgroup.Group
	for _, line := range lines {
		group.Go(func() error {
			return s.store.RunTransaction(ctx, []domain.ItemKey{line.key}, func(records map[domain.ItemKey]*domain.InventoryRecord) error {
				record, ok := records[line.key]
				if !ok {
					return &domain.ItemNotFoundError{Item: line.name}
				}
				return record.Hold(sessionID, line.quantity, now, s.ttl)
			})
		})
	}

	if err := group.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("reservation rejected", zap.String("session_id", sessionID), zap.Error(err))
		return err
	}

	span.SetStatus(codes.Ok, "reserved")
	s.logger.Info("stock reserved", zap.String("session_id", sessionID), zap.Int("items", len(lines)))
	return nil
}

// Release drops the session's hold on every item. Missing items and missing holds are ignored.
func (s *ReservationService) Release(ctx context.Context, sessionID string, items []domain.ItemRequest) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return domain.NewValidationError("sessionId", "sessionId is required")
	}
	lines, err := resolveItems(items)
	if err != nil {
		return err
	}

	ctx, span := s.tracer.Start(ctx, "inventory.release")
	defer span.End()
	span.SetAttributes(attribute.String("checkout.session_id", sessionID))

	return releaseAll(ctx, s.store, sessionID, keysOf(lines), s.Now(), s.ttl)
}

// releaseAll drops the session's hold on each key in parallel, one transaction per key.
// Expired holds are swept on the way; a record with nothing to drop is not rewritten.
func releaseAll(ctx context.Context, store InventoryStore, sessionID string, keys []domain.ItemKey, now time.Time, ttl time.Duration) error {
	var group errgroup.Group
	for _, key := range keys {
		group.Go(func() error {
			return store.RunTransaction(ctx, []domain.ItemKey{key}, func(records map[domain.ItemKey]*domain.InventoryRecord) error {
				record, ok := records[key]
				if !ok {
					return nil
				}
				before := len(record.Reservations)
				record.Sweep(now, ttl)
				if !record.Release(sessionID) && len(record.Reservations) == before {
					delete(records, key)
				}
				return nil
			})
		})
	}
	return group.Wait()
}
