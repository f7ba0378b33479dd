package usecase

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/bibbank/pggateway/internal/application/dto"
	"github.com/bibbank/pggateway/internal/domain/model"
	"github.com/bibbank/pggateway/internal/domain/port"
	"github.com/bibbank/pggateway/internal/domain/valueobject"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// QueryPayments returns one cursor page of the ledger plus a summary over the
// whole filter.
type QueryPayments struct {
	payments port.PaymentRepository
}

func NewQueryPayments(payments port.PaymentRepository) *QueryPayments {
	return &QueryPayments{payments: payments}
}

func (uc *QueryPayments) Execute(ctx context.Context, req dto.QueryPaymentsRequest) (dto.QueryPaymentsResponse, error) {
	ctx, span := tracer.Start(ctx, "QueryPayments.Execute")
	defer span.End()

	filter, err := toFilter(req)
	if err != nil {
		return dto.QueryPaymentsResponse{}, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	page := port.PageRequest{Limit: limit}
	if c, ok := valueobject.DecodeCursor(req.Cursor); ok {
		page.After = &c
	}
	span.SetAttributes(attribute.Int("page.limit", limit), attribute.Bool("page.resumed", page.After != nil))

	rows, err := uc.payments.FindPage(ctx, filter, page)
	if err != nil {
		return dto.QueryPaymentsResponse{}, fmt.Errorf("failed to query payments: %w", err)
	}

	hasNext := len(rows) > limit
	if hasNext {
		rows = rows[:limit]
	}

	summary, err := uc.payments.Summary(ctx, filter)
	if err != nil {
		return dto.QueryPaymentsResponse{}, fmt.Errorf("failed to summarize payments: %w", err)
	}

	items := make([]dto.PaymentResponse, 0, len(rows))
	for _, p := range rows {
		items = append(items, toPaymentResponse(p))
	}

	resp := dto.QueryPaymentsResponse{
		Items: items,
		Summary: dto.SummaryResponse{
			Count:          summary.Count,
			TotalAmount:    summary.TotalAmount,
			TotalNetAmount: summary.TotalNetAmount,
		},
		HasNext: hasNext,
	}
	if hasNext {
		resp.NextCursor = valueobject.EncodeCursor(rows[len(rows)-1].Cursor())
	}
	return resp, nil
}

func toFilter(req dto.QueryPaymentsRequest) (port.PaymentFilter, error) {
	filter := port.PaymentFilter{
		PartnerID: req.PartnerID,
		From:      req.From,
		To:        req.To,
	}
	if req.Status != "" {
		status, err := valueobject.NewPaymentStatus(req.Status)
		if err != nil {
			return port.PaymentFilter{}, model.Validationf("%v", err)
		}
		filter.Status = &status
	}
	if req.From != nil && req.To != nil && req.From.After(*req.To) {
		return port.PaymentFilter{}, model.Validationf("from %s is after to %s", req.From, req.To)
	}
	return filter, nil
}
