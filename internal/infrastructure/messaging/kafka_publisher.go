// Package messaging ships outbox entries to Kafka.
package messaging

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bibbank/pggateway/pkg/events"
	"github.com/bibbank/pggateway/pkg/kafka"
)

// MessageProducer is satisfied by *kafka.Producer.
type MessageProducer interface {
	Publish(ctx context.Context, topic string, messages ...kafka.Message) error
}

var _ events.EntryPublisher = (*KafkaPublisher)(nil)

// KafkaPublisher publishes outbox entries keyed by aggregate id so that events
// of one payment stay ordered within a partition.
type KafkaPublisher struct {
	producer MessageProducer
	logger   *slog.Logger
}

func NewKafkaPublisher(producer MessageProducer, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, logger: logger}
}

// PublishEntries groups entries by topic and writes each group in one batch.
func (p *KafkaPublisher) PublishEntries(ctx context.Context, entries ...events.OutboxEntry) error {
	byTopic := make(map[string][]kafka.Message)
	var order []string
	for _, e := range entries {
		if _, seen := byTopic[e.Topic]; !seen {
			order = append(order, e.Topic)
		}
		byTopic[e.Topic] = append(byTopic[e.Topic], kafka.Message{
			Key:   []byte(e.AggregateID),
			Value: e.Payload,
			Headers: map[string]string{
				"event_id":       e.ID,
				"event_type":     e.EventType,
				"aggregate_type": e.AggregateType,
			},
		})
	}

	for _, topic := range order {
		msgs := byTopic[topic]
		if err := p.producer.Publish(ctx, topic, msgs...); err != nil {
			return fmt.Errorf("publish %d events: %w", len(msgs), err)
		}
		p.logger.DebugContext(ctx, "published events", slog.String("topic", topic), slog.Int("count", len(msgs)))
	}
	return nil
}
