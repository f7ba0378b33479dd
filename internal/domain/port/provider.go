package port

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/pggateway/internal/domain/valueobject"
)

// ApprovalRequest is the card authorization handed to a provider. It is never stored.
type ApprovalRequest struct {
	PartnerID  int64
	Amount     decimal.Decimal
	CardNumber string
	// BirthDate is YYYYMMDD for individuals or a 10 digit business number.
	BirthDate string
	// Expiry is MMYY.
	Expiry string
	// Password holds the first two digits of the card PIN.
	Password    string
	CardBin     string
	CardLast4   string
	ProductName string
}

// ApprovalResult is a provider's authorization outcome.
type ApprovalResult struct {
	ApprovalCode    string
	ApprovedAt      time.Time
	MaskedCardLast4 string
	Status          valueobject.PaymentStatus
}

// ProviderClient authorizes card payments with one external payment provider.
type ProviderClient interface {
	// Name identifies the provider in logs and errors.
	Name() string
	// Supports reports whether this provider handles partnerID.
	Supports(partnerID int64) bool
	// Approve performs exactly one authorization call. Failures are *model.ProviderError
	// or validation errors; they are never retried.
	Approve(ctx context.Context, req ApprovalRequest) (ApprovalResult, error)
}
