package model

import "github.com/shopspring/decimal"

// PaymentSummary aggregates every payment matching a query filter.
type PaymentSummary struct {
	Count          int64
	TotalAmount    decimal.Decimal
	TotalNetAmount decimal.Decimal
}

// EmptySummary is the summary of a filter that matches nothing.
func EmptySummary() PaymentSummary {
	return PaymentSummary{TotalAmount: decimal.Zero, TotalNetAmount: decimal.Zero}
}
