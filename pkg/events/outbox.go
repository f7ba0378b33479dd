package events

import (
	"context"
	"time"
)

// OutboxEntry represents a domain event stored in the outbox table.
type OutboxEntry struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Topic         string
	Payload       []byte
	CreatedAt     time.Time
	PublishedAt   *time.Time
}

// NewOutboxEntry creates an OutboxEntry for topic from a DomainEvent.
// The payload is the event's Envelope JSON.
func NewOutboxEntry(topic string, event DomainEvent) (OutboxEntry, error) {
	payload, err := Marshal(event)
	if err != nil {
		return OutboxEntry{}, err
	}
	return OutboxEntry{
		ID:            event.EventID(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		EventType:     event.EventType(),
		Topic:         topic,
		Payload:       payload,
		CreatedAt:     event.OccurredAt(),
	}, nil
}

// OutboxRepository is the port for outbox persistence.
type OutboxRepository interface {
	FetchUnpublished(ctx context.Context, batchSize int) ([]OutboxEntry, error)
	MarkPublished(ctx context.Context, ids []string) error
}

// EntryPublisher ships raw outbox entries to a message broker.
type EntryPublisher interface {
	PublishEntries(ctx context.Context, entries ...OutboxEntry) error
}
