package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// GroupReader adapts a consumer-group kafka.Reader to Consumer.
type GroupReader struct {
	R *kafka.Reader
}

func NewGroupReader(r *kafka.Reader) *GroupReader {
	return &GroupReader{R: r}
}

func (g *GroupReader) FetchMessage(ctx context.Context) (*kafka.Message, error) {
	msg, err := g.R.FetchMessage(ctx)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (g *GroupReader) CommitMessage(ctx context.Context, msg kafka.Message) error {
	return g.R.CommitMessages(ctx, msg)
}

func (g *GroupReader) Close() error {
	return g.R.Close()
}

var _ Consumer = (*GroupReader)(nil)
