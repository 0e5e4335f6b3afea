package repository

import (
	"context"

	"PivotPipe/internal/domain/models"
	pkgkafka "PivotPipe/pkg/kafka"
)

// KafkaIntentSink publishes intents to the downstream risk/execution topic,
// keyed by symbol so one symbol's intents stay ordered on one partition.
type KafkaIntentSink struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaIntentSink creates the sink.
func NewKafkaIntentSink(producer *pkgkafka.Producer, topic string) *KafkaIntentSink {
	return &KafkaIntentSink{producer: producer, topic: topic}
}

func (s *KafkaIntentSink) PublishIntent(ctx context.Context, intent models.IntentEvent) error {
	return s.producer.Publish(ctx, s.topic, []byte(intent.Symbol), intent)
}

func (s *KafkaIntentSink) Close() error {
	if s.producer != nil {
		return s.producer.Close()
	}
	return nil
}
