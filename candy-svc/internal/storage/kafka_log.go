package storage

import (
	"context"
	"encoding/json"

	"candy-stand/candy-svc/internal/domain"
	platformkafka "candy-stand/platform/kafka"

	"github.com/segmentio/kafka-go"
)

// KafkaOrderLog publishes log rows to the order-log topic; ledger-svc writes them down.
type KafkaOrderLog struct {
	Producer platformkafka.Producer
}

func NewKafkaOrderLog(producer platformkafka.Producer) *KafkaOrderLog {
	return &KafkaOrderLog{Producer: producer}
}

func (l *KafkaOrderLog) Append(ctx context.Context, row domain.LogRow) error {
	payload, err := json.Marshal(row)
	if err != nil {
		return err
	}
	return l.Producer.WriteMessage(ctx, kafka.Message{
		Key:   []byte(row.OrderID),
		Value: payload,
	})
}
