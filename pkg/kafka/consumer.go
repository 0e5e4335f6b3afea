package kafka

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageHandler handles messages from one topic.
type MessageHandler interface {
	Topic() string
	Handle(ctx context.Context, value []byte) error
}

// Consumer is a single-reader Kafka consumer. It deliberately has no worker
// pool: the pipeline is a single logical thread of control, so messages are
// handed to the handler one at a time, in offset order.
type Consumer struct {
	reader  *kafka.Reader
	handler MessageHandler
	cancel  context.CancelFunc
}

// NewConsumer creates a consumer for the handler's topic.
func NewConsumer(brokers []string, groupID string, handler MessageHandler) (*Consumer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("brokers are required")
	}
	if handler == nil {
		return nil, errors.New("handler is required")
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        groupID,
		Topic:          handler.Topic(),
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
	})
	return &Consumer{reader: reader, handler: handler}, nil
}

// Start consumes until Close or a fatal reader error. Handler errors do not
// stop consumption; the message is skipped (the upstream producer owns
// redelivery policy).
func (c *Consumer) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		_ = c.handler.Handle(ctx, m.Value)
	}
}

// Close stops consumption and releases the reader.
func (c *Consumer) Close() error {
	if c.cancel != nil {
		c.cancel()
	}
	if c.reader != nil {
		return c.reader.Close()
	}
	return nil
}
