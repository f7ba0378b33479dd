package model

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/pggateway/internal/domain/event"
	"github.com/bibbank/pggateway/internal/domain/valueobject"
	"github.com/bibbank/pggateway/pkg/events"
)

// Payment is one row of the append-only payment ledger. It is created once per
// approved authorization and never changes afterwards.
type Payment struct {
	id             int64
	partnerID      int64
	amount         decimal.Decimal
	appliedFeeRate decimal.Decimal
	feeAmount      decimal.Decimal
	netAmount      decimal.Decimal
	cardBin        string
	cardLast4      string
	approvalCode   string
	approvedAt     time.Time
	status         valueobject.PaymentStatus
	createdAt      time.Time
	updatedAt      time.Time
	domainEvents   []events.DomainEvent
}

// NewPaymentParams carries the values of a payment that has not been stored yet.
type NewPaymentParams struct {
	PartnerID      int64
	Amount         decimal.Decimal
	AppliedFeeRate decimal.Decimal
	FeeAmount      decimal.Decimal
	NetAmount      decimal.Decimal
	CardBin        string
	CardLast4      string
	ApprovalCode   string
	ApprovedAt     time.Time
	Status         valueobject.PaymentStatus
}

// NewPayment validates p and returns an unsaved payment. The identity and
// timestamps are assigned by Persisted.
func NewPayment(p NewPaymentParams) (Payment, error) {
	if p.PartnerID <= 0 {
		return Payment{}, Validationf("partner id is required")
	}
	if !p.Amount.IsPositive() {
		return Payment{}, Validationf("amount must be positive, got: %s", p.Amount)
	}
	if !p.FeeAmount.Add(p.NetAmount).Equal(p.Amount) {
		return Payment{}, Validationf("fee %s + net %s does not equal amount %s", p.FeeAmount, p.NetAmount, p.Amount)
	}
	if !valueobject.FitsLedger(p.CardBin, p.CardLast4) {
		return Payment{}, Validationf("card fragments %q/%q exceed the stored widths", p.CardBin, p.CardLast4)
	}
	if p.ApprovalCode == "" {
		return Payment{}, Validationf("approval code is required")
	}
	if p.ApprovedAt.IsZero() {
		return Payment{}, Validationf("approval time is required")
	}
	if p.Status.IsZero() {
		return Payment{}, Validationf("status is required")
	}

	return Payment{
		partnerID:      p.PartnerID,
		amount:         p.Amount,
		appliedFeeRate: p.AppliedFeeRate,
		feeAmount:      p.FeeAmount,
		netAmount:      p.NetAmount,
		cardBin:        p.CardBin,
		cardLast4:      p.CardLast4,
		approvalCode:   p.ApprovalCode,
		approvedAt:     p.ApprovedAt.UTC(),
		status:         p.Status,
	}, nil
}

// Persisted returns the stored copy of p with its identity and creation time,
// recording the payment.approved event for approved payments.
func (p Payment) Persisted(id int64, createdAt time.Time) Payment {
	stored := p
	stored.id = id
	stored.createdAt = createdAt.UTC()
	stored.updatedAt = createdAt.UTC()
	stored.domainEvents = nil
	if p.status.IsApproved() {
		stored.domainEvents = []events.DomainEvent{event.NewPaymentApproved(event.PaymentApprovedData{
			PaymentID:    strconv.FormatInt(id, 10),
			PartnerID:    p.partnerID,
			Amount:       p.amount,
			FeeAmount:    p.feeAmount,
			NetAmount:    p.netAmount,
			ApprovalCode: p.approvalCode,
			ApprovedAt:   p.approvedAt,
		}, stored.createdAt)}
	}
	return stored
}

// Reconstruct recreates a Payment from persistence (no validation, no events).
func Reconstruct(
	id, partnerID int64,
	amount, appliedFeeRate, feeAmount, netAmount decimal.Decimal,
	cardBin, cardLast4, approvalCode string,
	approvedAt time.Time,
	status valueobject.PaymentStatus,
	createdAt, updatedAt time.Time,
) Payment {
	return Payment{
		id:             id,
		partnerID:      partnerID,
		amount:         amount,
		appliedFeeRate: appliedFeeRate,
		feeAmount:      feeAmount,
		netAmount:      netAmount,
		cardBin:        cardBin,
		cardLast4:      cardLast4,
		approvalCode:   approvalCode,
		approvedAt:     approvedAt,
		status:         status,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

func (p Payment) ID() int64                         { return p.id }
func (p Payment) PartnerID() int64                  { return p.partnerID }
func (p Payment) Amount() decimal.Decimal           { return p.amount }
func (p Payment) AppliedFeeRate() decimal.Decimal   { return p.appliedFeeRate }
func (p Payment) FeeAmount() decimal.Decimal        { return p.feeAmount }
func (p Payment) NetAmount() decimal.Decimal        { return p.netAmount }
func (p Payment) CardBin() string                   { return p.cardBin }
func (p Payment) CardLast4() string                 { return p.cardLast4 }
func (p Payment) ApprovalCode() string              { return p.approvalCode }
func (p Payment) ApprovedAt() time.Time             { return p.approvedAt }
func (p Payment) Status() valueobject.PaymentStatus { return p.status }
func (p Payment) CreatedAt() time.Time              { return p.createdAt }
func (p Payment) UpdatedAt() time.Time              { return p.updatedAt }

// IsPersisted reports whether the payment has been assigned an identity.
func (p Payment) IsPersisted() bool { return p.id != 0 }

// Cursor returns the pagination position of the payment.
func (p Payment) Cursor() valueobject.Cursor {
	return valueobject.Cursor{CreatedAt: p.createdAt, ID: p.id}
}

// DomainEvents returns the domain events recorded when the payment was stored.
func (p Payment) DomainEvents() []events.DomainEvent { return p.domainEvents }

// ClearDomainEvents returns a copy with the domain events removed.
func (p Payment) ClearDomainEvents() Payment {
	p.domainEvents = nil
	return p
}
