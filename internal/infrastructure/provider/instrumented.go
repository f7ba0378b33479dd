package provider

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/bibbank/pggateway/internal/domain/model"
	"github.com/bibbank/pggateway/internal/domain/port"
)

var _ port.ProviderClient = (*Instrumented)(nil)

// Instrumented decorates a ProviderClient with approval metrics and logs.
type Instrumented struct {
	next      port.ProviderClient
	approvals metric.Int64Counter
	duration  metric.Float64Histogram
	logger    *slog.Logger
}

// NewInstrumented wraps next, registering its instruments on meter.
func NewInstrumented(next port.ProviderClient, meter metric.Meter, logger *slog.Logger) (*Instrumented, error) {
	approvals, err := meter.Int64Counter("pg_provider_approvals_total",
		metric.WithDescription("Provider approval attempts by outcome"))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("pg_provider_approval_duration_seconds",
		metric.WithDescription("Provider approval latency"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	return &Instrumented{
		next:      next,
		approvals: approvals,
		duration:  duration,
		logger:    logger.With("provider", next.Name()),
	}, nil
}

func (i *Instrumented) Name() string { return i.next.Name() }

func (i *Instrumented) Supports(partnerID int64) bool { return i.next.Supports(partnerID) }

func (i *Instrumented) Approve(ctx context.Context, req port.ApprovalRequest) (port.ApprovalResult, error) {
	start := time.Now()
	result, err := i.next.Approve(ctx, req)
	elapsed := time.Since(start)

	outcome := Outcome(err)
	attrs := metric.WithAttributes(
		attribute.String("provider", i.next.Name()),
		attribute.String("outcome", outcome),
	)
	i.approvals.Add(ctx, 1, attrs)
	i.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("provider", i.next.Name())))

	if err != nil {
		i.logger.WarnContext(ctx, "provider approval failed",
			"partner_id", req.PartnerID,
			"outcome", outcome,
			"duration_ms", elapsed.Milliseconds(),
			"error", err,
		)
		return result, err
	}
	i.logger.DebugContext(ctx, "provider approval succeeded",
		"partner_id", req.PartnerID,
		"status", result.Status.String(),
		"duration_ms", elapsed.Milliseconds(),
	)
	return result, nil
}

// Outcome names the metric label for an approval error.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "approved"
	case errors.Is(err, model.ErrValidation):
		return "invalid_request"
	case errors.Is(err, model.ErrProviderRejected):
		return "rejected"
	case errors.Is(err, model.ErrProviderBadRequest):
		return "bad_request"
	case errors.Is(err, model.ErrProviderAuth), errors.Is(err, model.ErrProviderAuthz):
		return "auth_failed"
	default:
		return "error"
	}
}
