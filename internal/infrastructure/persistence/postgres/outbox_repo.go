package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/bibbank/pggateway/pkg/events"
	pgpkg "github.com/bibbank/pggateway/pkg/postgres"
)

var _ events.OutboxRepository = (*OutboxRepo)(nil)

// OutboxRepo reads and acknowledges the transactional outbox.
type OutboxRepo struct {
	db pgpkg.Querier
}

func NewOutboxRepo(db pgpkg.Querier) *OutboxRepo {
	return &OutboxRepo{db: db}
}

// FetchUnpublished returns the oldest unpublished entries.
func (r *OutboxRepo) FetchUnpublished(ctx context.Context, batchSize int) ([]events.OutboxEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id::text, aggregate_id, aggregate_type, event_type, topic, payload, created_at
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at, id
		LIMIT $1
	`, batchSize)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var entries []events.OutboxEntry
	for rows.Next() {
		var e events.OutboxEntry
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.AggregateType, &e.EventType, &e.Topic, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox: %w", err)
	}
	return entries, nil
}

// MarkPublished stamps entries as delivered.
func (r *OutboxRepo) MarkPublished(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, `
		UPDATE outbox SET published_at = $1 WHERE id = ANY($2::uuid[])
	`, time.Now().UTC(), ids)
	if err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}
