package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bibbank/pggateway/internal/application/dto"
	"github.com/bibbank/pggateway/internal/domain/model"
	"github.com/bibbank/pggateway/internal/domain/port"
	"github.com/bibbank/pggateway/internal/domain/service"
	"github.com/bibbank/pggateway/internal/domain/valueobject"
	"github.com/bibbank/pggateway/pkg/money"
)

var tracer = otel.Tracer("github.com/bibbank/pggateway/internal/application/usecase")

// CreatePayment authorizes a card payment with the partner's provider, applies
// the partner's fee policy and books the result in the ledger.
type CreatePayment struct {
	partners   port.PartnerRepository
	policies   port.FeePolicyRepository
	payments   port.PaymentRepository
	router     *service.ProviderRouter
	calculator *service.FeeCalculator
	currency   money.Currency
	logger     *slog.Logger
	now        func() time.Time
}

func NewCreatePayment(
	partners port.PartnerRepository,
	policies port.FeePolicyRepository,
	payments port.PaymentRepository,
	router *service.ProviderRouter,
	currency money.Currency,
	logger *slog.Logger,
) *CreatePayment {
	return &CreatePayment{
		partners:   partners,
		policies:   policies,
		payments:   payments,
		router:     router,
		calculator: service.NewFeeCalculator(currency),
		currency:   currency,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock replaces the clock used to pick the effective fee policy.
func (uc *CreatePayment) WithClock(now func() time.Time) *CreatePayment {
	uc.now = now
	return uc
}

func (uc *CreatePayment) Execute(ctx context.Context, req dto.CreatePaymentRequest) (_ dto.PaymentResponse, err error) {
	ctx, span := tracer.Start(ctx, "CreatePayment.Execute",
		trace.WithAttributes(attribute.Int64("partner.id", req.PartnerID)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if !req.Amount.IsPositive() {
		return dto.PaymentResponse{}, model.Validationf("amount must be positive, got: %s", req.Amount)
	}
	if !req.Amount.Equal(uc.currency.Round(req.Amount)) {
		return dto.PaymentResponse{}, model.Validationf("amount %s is not a whole number of %s minor units", req.Amount, uc.currency)
	}
	if err := valueobject.ValidateCardFields(req.CardNumber, req.CardBin, req.CardLast4); err != nil {
		return dto.PaymentResponse{}, model.Validationf("%v", err)
	}

	partner, found, err := uc.partners.FindByID(ctx, req.PartnerID)
	if err != nil {
		return dto.PaymentResponse{}, fmt.Errorf("failed to load partner %d: %w", req.PartnerID, err)
	}
	if !found {
		return dto.PaymentResponse{}, model.NotFoundf("partner not found: %d", req.PartnerID)
	}
	if !partner.Active {
		return dto.PaymentResponse{}, model.InvalidStatef("partner is inactive: %d", req.PartnerID)
	}

	provider, err := uc.router.Select(partner.ID)
	if err != nil {
		return dto.PaymentResponse{}, err
	}
	span.SetAttributes(attribute.String("provider.name", provider.Name()))

	approval, err := provider.Approve(ctx, port.ApprovalRequest{
		PartnerID:   partner.ID,
		Amount:      req.Amount,
		CardNumber:  req.CardNumber,
		BirthDate:   req.BirthDate,
		Expiry:      req.Expiry,
		Password:    req.Password,
		CardBin:     req.CardBin,
		CardLast4:   req.CardLast4,
		ProductName: req.ProductName,
	})
	if err != nil {
		return dto.PaymentResponse{}, err
	}
	if !approval.Status.IsApproved() {
		return dto.PaymentResponse{}, &model.ProviderError{
			Provider: provider.Name(),
			Kind:     model.ErrProviderRejected,
			Body:     "provider returned status " + approval.Status.String(),
		}
	}

	asOf := uc.now().UTC()
	policy, found, err := uc.policies.FindEffective(ctx, partner.ID, asOf)
	if err != nil {
		return dto.PaymentResponse{}, fmt.Errorf("failed to load fee policy for partner %d: %w", partner.ID, err)
	}
	if !found {
		return dto.PaymentResponse{}, model.InvalidStatef("no fee policy for partner %d", partner.ID)
	}

	fee, err := uc.calculator.Apply(req.Amount, policy)
	if err != nil {
		return dto.PaymentResponse{}, err
	}

	payment, err := model.NewPayment(model.NewPaymentParams{
		PartnerID:      partner.ID,
		Amount:         req.Amount,
		AppliedFeeRate: fee.Rate,
		FeeAmount:      fee.Fee,
		NetAmount:      fee.Net,
		CardBin:        valueobject.FirstNonEmpty(valueobject.CardBin(req.CardNumber), req.CardBin),
		CardLast4:      valueobject.FirstNonEmpty(valueobject.CardLast4(approval.MaskedCardLast4), req.CardLast4),
		ApprovalCode:   approval.ApprovalCode,
		ApprovedAt:     approval.ApprovedAt,
		Status:         approval.Status,
	})
	if err != nil {
		return dto.PaymentResponse{}, err
	}

	saved, err := uc.payments.Save(ctx, payment)
	if err != nil {
		return dto.PaymentResponse{}, fmt.Errorf("failed to save payment: %w", err)
	}

	uc.logger.InfoContext(ctx, "payment approved",
		"payment_id", saved.ID(),
		"partner_id", partner.ID,
		"provider", provider.Name(),
		"amount", saved.Amount().String(),
		"fee_amount", saved.FeeAmount().String(),
		"fee_policy_id", policy.ID,
	)

	return toPaymentResponse(saved), nil
}
