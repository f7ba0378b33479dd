// Package grpc exposes the payment API over gRPC.
package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bibbank/pggateway/internal/application/dto"
	"github.com/bibbank/pggateway/internal/domain/model"
	"github.com/bibbank/pggateway/internal/presentation/access"
)

type PaymentCreator interface {
	Execute(ctx context.Context, req dto.CreatePaymentRequest) (dto.PaymentResponse, error)
}

type PaymentQuerier interface {
	Execute(ctx context.Context, req dto.QueryPaymentsRequest) (dto.QueryPaymentsResponse, error)
}

type PaymentGetter interface {
	Execute(ctx context.Context, id int64) (dto.PaymentResponse, error)
}

// PaymentHandler implements PaymentServiceServer on top of the use cases.
type PaymentHandler struct {
	UnimplementedPaymentServiceServer
	create PaymentCreator
	query  PaymentQuerier
	get    PaymentGetter
}

func NewPaymentHandler(create PaymentCreator, query PaymentQuerier, get PaymentGetter) *PaymentHandler {
	return &PaymentHandler{create: create, query: query, get: get}
}

func (h *PaymentHandler) CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*CreatePaymentResponse, error) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid amount %q", req.Amount)
	}
	if err := access.CheckPartner(ctx, req.PartnerID); err != nil {
		return nil, toStatus(err)
	}

	resp, err := h.create.Execute(ctx, dto.CreatePaymentRequest{
		PartnerID:   req.PartnerID,
		Amount:      amount,
		CardNumber:  req.CardNumber,
		BirthDate:   req.BirthDate,
		Expiry:      req.Expiry,
		Password:    req.Password,
		CardBin:     req.CardBin,
		CardLast4:   req.CardLast4,
		ProductName: req.ProductName,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return &CreatePaymentResponse{Payment: toPayment(resp)}, nil
}

func (h *PaymentHandler) QueryPayments(ctx context.Context, req *QueryPaymentsRequest) (*QueryPaymentsResponse, error) {
	q := dto.QueryPaymentsRequest{
		PartnerID: req.PartnerID,
		Status:    req.Status,
		Cursor:    req.Cursor,
		Limit:     int(req.Limit),
	}
	var err error
	if q.From, err = parseTime("from", req.From); err != nil {
		return nil, err
	}
	if q.To, err = parseTime("to", req.To); err != nil {
		return nil, err
	}
	if q.PartnerID, err = access.ScopeQuery(ctx, q.PartnerID); err != nil {
		return nil, toStatus(err)
	}

	res, err := h.query.Execute(ctx, q)
	if err != nil {
		return nil, toStatus(err)
	}

	out := &QueryPaymentsResponse{
		Items: make([]*Payment, 0, len(res.Items)),
		Summary: &Summary{
			Count:          res.Summary.Count,
			TotalAmount:    res.Summary.TotalAmount.String(),
			TotalNetAmount: res.Summary.TotalNetAmount.String(),
		},
		NextCursor: res.NextCursor,
		HasNext:    res.HasNext,
	}
	for _, item := range res.Items {
		out.Items = append(out.Items, toPayment(item))
	}
	return out, nil
}

func (h *PaymentHandler) GetPayment(ctx context.Context, req *GetPaymentRequest) (*GetPaymentResponse, error) {
	resp, err := h.get.Execute(ctx, req.ID)
	if err == nil && !access.CanRead(ctx, resp.PartnerID) {
		err = model.NotFoundf("payment %d not found", req.ID)
	}
	if err != nil {
		return nil, toStatus(err)
	}
	return &GetPaymentResponse{Payment: toPayment(resp)}, nil
}

func parseTime(field, v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid %s %q: want RFC 3339", field, v)
	}
	t = t.UTC()
	return &t, nil
}

func toPayment(p dto.PaymentResponse) *Payment {
	return &Payment{
		ID:             p.ID,
		PartnerID:      p.PartnerID,
		Amount:         p.Amount.String(),
		AppliedFeeRate: p.AppliedFeeRate.String(),
		FeeAmount:      p.FeeAmount.String(),
		NetAmount:      p.NetAmount.String(),
		CardLast4:      p.CardLast4,
		ApprovalCode:   p.ApprovalCode,
		ApprovedAt:     p.ApprovedAt.UTC().Format(time.RFC3339Nano),
		Status:         p.Status,
		CreatedAt:      p.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// toStatus maps an error kind onto a gRPC status.
func toStatus(err error) error {
	var code codes.Code
	switch {
	case errors.Is(err, model.ErrValidation):
		code = codes.InvalidArgument
	case errors.Is(err, access.ErrForbidden):
		code = codes.PermissionDenied
	case errors.Is(err, model.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, model.ErrInvalidState):
		code = codes.FailedPrecondition
	case errors.Is(err, model.ErrProviderRejected):
		code = codes.Aborted
	case errors.Is(err, model.ErrProviderBadRequest),
		errors.Is(err, model.ErrProviderAuth),
		errors.Is(err, model.ErrProviderAuthz),
		errors.Is(err, model.ErrProviderUnavailable):
		code = codes.Unavailable
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	default:
		return status.Error(codes.Internal, "internal error")
	}
	return status.Error(code, err.Error())
}
