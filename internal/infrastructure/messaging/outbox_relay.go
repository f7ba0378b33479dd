package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bibbank/pggateway/pkg/events"
)

// OutboxRelay polls the outbox and publishes unpublished entries. Delivery is
// at-least-once: entries are marked only after the publisher accepts them.
type OutboxRelay struct {
	repo      events.OutboxRepository
	publisher events.EntryPublisher
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
}

func NewOutboxRelay(repo events.OutboxRepository, publisher events.EntryPublisher, interval time.Duration, batchSize int, logger *slog.Logger) *OutboxRelay {
	if batchSize <= 0 {
		batchSize = 100
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &OutboxRelay{
		repo:      repo,
		publisher: publisher,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Run relays until ctx is cancelled.
func (r *OutboxRelay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("outbox relay started", "interval", r.interval.String(), "batch_size", r.batchSize)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopped")
			return
		case <-ticker.C:
			if _, err := r.RelayOnce(ctx); err != nil && ctx.Err() == nil {
				r.logger.Error("outbox relay failed", "error", err)
			}
		}
	}
}

// RelayOnce drains the outbox in batches and returns how many entries were published.
func (r *OutboxRelay) RelayOnce(ctx context.Context) (int, error) {
	total := 0
	for {
		entries, err := r.repo.FetchUnpublished(ctx, r.batchSize)
		if err != nil {
			return total, fmt.Errorf("fetch outbox: %w", err)
		}
		if len(entries) == 0 {
			return total, nil
		}

		if err := r.publisher.PublishEntries(ctx, entries...); err != nil {
			return total, err
		}

		ids := make([]string, len(entries))
		for i, e := range entries {
			ids[i] = e.ID
		}
		if err := r.repo.MarkPublished(ctx, ids); err != nil {
			return total, fmt.Errorf("mark outbox published: %w", err)
		}
		total += len(entries)

		if len(entries) < r.batchSize {
			return total, nil
		}
	}
}
