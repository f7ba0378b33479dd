package testutil

import (
	"time"

	"github.com/shopspring/decimal"
)

// Seeded partners. Routing is partner id modulo 3: 1 mock, 2 encrypted test provider,
// 3 basic-auth provider, 4 inactive.
const (
	MockPartnerID     int64 = 1
	TestPGPartnerID   int64 = 2
	TossPartnerID     int64 = 3
	InactivePartnerID int64 = 4
)

// Sample card data accepted by the sandbox providers.
const (
	TestCardNumber = "1111-1111-1111-1111"
	TestBirthDate  = "19900101"
	TestExpiry     = "1227"
	TestPassword   = "12"
)

// FixedNow is a deterministic clock reading for tests.
var FixedNow = time.Date(2025, 3, 14, 9, 26, 53, 589_000_000, time.UTC)

// D parses a decimal literal and panics on malformed input.
func D(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// DPtr is D for optional decimal fields.
func DPtr(s string) *decimal.Decimal {
	d := D(s)
	return &d
}
