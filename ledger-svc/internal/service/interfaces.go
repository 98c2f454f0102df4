package service

import (
	"context"

	"candy-stand/ledger-svc/internal/domain"
	"candy-stand/ledger-svc/internal/storage"

	"github.com/segmentio/kafka-go"
)

type StoreInterface interface {
	AppendRow(ctx context.Context, msg domain.OrderLogMessage) (bool, error)
	UpdateSales(ctx context.Context, msg domain.OrderLogMessage) error
}

type ConsumerInterface interface {
	Start(ctx context.Context)
	HandleMessage(ctx context.Context, message kafka.Message) error
	ProcessOrder(ctx context.Context, msg domain.OrderLogMessage) error
}

var (
	_ StoreInterface    = (*storage.Store)(nil)
	_ ConsumerInterface = (*Consumer)(nil)
)
