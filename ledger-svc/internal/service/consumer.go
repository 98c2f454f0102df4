package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"candy-stand/ledger-svc/internal/domain"
	platformkafka "candy-stand/platform/kafka"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var ErrInvalidMessage = errors.New("invalid order log message")

const defaultRetryDelay = time.Second

type Consumer struct {
	Reader     platformkafka.Consumer
	Store      StoreInterface
	Logger     *zap.Logger
	Tracer     trace.Tracer
	RetryDelay time.Duration
}

func NewConsumer(reader platformkafka.Consumer, store StoreInterface, logger *zap.Logger, tracer trace.Tracer) *Consumer {
	return &Consumer{
		Reader:     reader,
		Store:      store,
		Logger:     logger,
		Tracer:     tracer,
		RetryDelay: defaultRetryDelay,
	}
}

// Start reads until ctx is cancelled. A message is committed once it is recorded or
// found to be malformed; store failures are retried so no row is lost.
func (c *Consumer) Start(ctx context.Context) {
	c.Logger.Info("Starting Ledger Service consumer...")
	for {
		message, err := c.Reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				c.Logger.Info("context done, leaving read loop", zap.Error(err))
				return
			}
			c.Logger.Error("error reading message", zap.Error(err))
			if !c.pause(ctx) {
				return
			}
			continue
		}

		for {
			err := c.HandleMessage(ctx, *message)
			if err == nil || errors.Is(err, ErrInvalidMessage) {
				break
			}
			c.Logger.Warn("order log message not recorded, retrying", zap.Int64("offset", message.Offset), zap.Error(err))
			if !c.pause(ctx) {
				return
			}
		}

		if err := c.Reader.CommitMessage(ctx, *message); err != nil {
			c.Logger.Error("error committing message", zap.Int64("offset", message.Offset), zap.Error(err))
		}
	}
}

// pause waits RetryDelay and reports false if ctx ended first.
func (c *Consumer) pause(ctx context.Context) bool {
	timer := time.NewTimer(c.RetryDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// HandleMessage joins the producer's trace, decodes the row and records it.
func (c *Consumer) HandleMessage(ctx context.Context, message kafka.Message) error {
	carrier := propagation.MapCarrier{}
	for _, header := range message.Headers {
		carrier[header.Key] = string(header.Value)
	}
	ctx = otel.GetTextMapPropagator().Extract(ctx, carrier)

	var msg domain.OrderLogMessage
	if err := json.Unmarshal(message.Value, &msg); err != nil {
		c.Logger.Error("error unmarshaling message", zap.Error(err), zap.ByteString("key", message.Key))
		return fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return c.ProcessOrder(ctx, msg)
}

func (c *Consumer) ProcessOrder(ctx context.Context, msg domain.OrderLogMessage) error {
	if !msg.Valid() {
		c.Logger.Warn("skipping order log message without order id")
		return ErrInvalidMessage
	}

	ctx, span := c.Tracer.Start(ctx, "ledger.process_order")
	defer span.End()
	span.SetAttributes(
		attribute.String("order.id", msg.OrderID),
		attribute.String("order.lane", msg.LaneNumber),
		attribute.Bool("order.is_paid", msg.IsPaid),
	)

	inserted, err := c.Store.AppendRow(ctx, msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "append failed")
		c.Logger.Error("error appending order log row", zap.String("order_id", msg.OrderID), zap.Error(err))
		return err
	}
	if !inserted {
		c.Logger.Info("order already logged", zap.String("order_id", msg.OrderID))
	}

	if err := c.Store.UpdateSales(ctx, msg); err != nil {
		span.RecordError(err)
		c.Logger.Error("error updating sales counters", zap.String("order_id", msg.OrderID), zap.Error(err))
		return err
	}

	span.SetStatus(codes.Ok, "logged")
	c.Logger.Info("order logged", zap.String("order_id", msg.OrderID), zap.String("items", msg.ItemSummary))
	return nil
}
