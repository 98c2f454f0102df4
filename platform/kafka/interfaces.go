package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"
)

type Producer interface {
	WriteMessage(ctx context.Context, msg kafka.Message) error
	Close() error
}

// Consumer fetches without committing; callers commit once a message is handled.
type Consumer interface {
	FetchMessage(ctx context.Context) (*kafka.Message, error)
	CommitMessage(ctx context.Context, msg kafka.Message) error
	Close() error
}
