package events

import (
	"encoding/json"
	"testing"
	"time"
)

type testEvent struct {
	BaseEvent
	Amount int `json:"amount"`
}

func (e testEvent) Payload() ([]byte, error) {
	return json.Marshal(struct {
		Amount int `json:"amount"`
	}{e.Amount})
}

func TestNewBaseEvent(t *testing.T) {
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.FixedZone("KST", 9*3600))
	event := NewBaseEvent("payment.approved", "42", "Payment", at)

	if event.EventID() == "" {
		t.Error("expected non-empty event ID")
	}
	if event.EventType() != "payment.approved" {
		t.Errorf("expected event type %q, got %q", "payment.approved", event.EventType())
	}
	if event.AggregateID() != "42" {
		t.Errorf("expected aggregate ID 42, got %v", event.AggregateID())
	}
	if event.OccurredAt().Location() != time.UTC {
		t.Errorf("expected occurredAt in UTC, got %v", event.OccurredAt().Location())
	}
	if !event.OccurredAt().Equal(at) {
		t.Errorf("expected occurredAt %v, got %v", at, event.OccurredAt())
	}
}

func TestNewOutboxEntry(t *testing.T) {
	event := testEvent{BaseEvent: NewBaseEvent("payment.approved", "9", "Payment", time.Now()), Amount: 10000}

	entry, err := NewOutboxEntry("pg.payments", event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if entry.ID != event.EventID() {
		t.Errorf("expected outbox ID %v, got %v", event.EventID(), entry.ID)
	}
	if entry.Topic != "pg.payments" {
		t.Errorf("expected topic pg.payments, got %q", entry.Topic)
	}
	if entry.PublishedAt != nil {
		t.Error("expected published at to be nil")
	}

	var env Envelope
	if err := json.Unmarshal(entry.Payload, &env); err != nil {
		t.Fatalf("expected envelope JSON, got error: %v", err)
	}
	if env.AggregateID != "9" || env.EventType != "payment.approved" {
		t.Errorf("unexpected envelope %+v", env)
	}
	if string(env.Data) != `{"amount":10000}` {
		t.Errorf("unexpected data %s", env.Data)
	}
}
