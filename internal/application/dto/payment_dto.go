package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreatePaymentRequest is the input DTO for authorizing and booking a card payment.
type CreatePaymentRequest struct {
	Amount      decimal.Decimal
	CardNumber  string
	BirthDate   string
	Expiry      string
	Password    string
	CardBin     string
	CardLast4   string
	ProductName string
	PartnerID   int64
}

// PaymentResponse is the output DTO for a ledger row.
type PaymentResponse struct {
	ApprovedAt     time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Amount         decimal.Decimal
	AppliedFeeRate decimal.Decimal
	FeeAmount      decimal.Decimal
	NetAmount      decimal.Decimal
	CardBin        string
	CardLast4      string
	ApprovalCode   string
	Status         string
	ID             int64
	PartnerID      int64
}

// QueryPaymentsRequest is the input DTO for the paginated payment query.
type QueryPaymentsRequest struct {
	PartnerID *int64
	From      *time.Time
	To        *time.Time
	// Status is matched against APPROVED, REJECTED and CANCELED when non-empty.
	Status string
	Cursor string
	Limit  int
}

// SummaryResponse aggregates every payment matching a query, across all pages.
type SummaryResponse struct {
	TotalAmount    decimal.Decimal
	TotalNetAmount decimal.Decimal
	Count          int64
}

// QueryPaymentsResponse is the output DTO for the paginated payment query.
type QueryPaymentsResponse struct {
	Items      []PaymentResponse
	Summary    SummaryResponse
	NextCursor string
	HasNext    bool
}
