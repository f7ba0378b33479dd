package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeePolicy is one version of a partner's fee schedule. The version in force at
// time t is the one with the latest EffectiveFrom not after t.
type FeePolicy struct {
	ID            int64
	PartnerID     int64
	EffectiveFrom time.Time
	// Percentage is the rate applied to the amount, e.g. 0.0300 for 3%.
	Percentage decimal.Decimal
	FixedFee   *decimal.Decimal
}

// EffectiveAt reports whether the policy has taken effect at t.
func (p FeePolicy) EffectiveAt(t time.Time) bool {
	return !p.EffectiveFrom.After(t)
}

// FixedFeeOrZero returns the fixed fee, treating an absent fee as zero.
func (p FeePolicy) FixedFeeOrZero() decimal.Decimal {
	if p.FixedFee == nil {
		return decimal.Zero
	}
	return *p.FixedFee
}
