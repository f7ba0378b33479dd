package memory

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/pggateway/internal/domain/model"
)

// SeedPartners mirrors the partners created by the postgres seed migration.
func SeedPartners() []model.Partner {
	return []model.Partner{
		{ID: 1, Code: "MOCK1", Name: "Mock Partner 1", Active: true},
		{ID: 2, Code: "TESTPAY1", Name: "TestPay Partner 2", Active: true},
		{ID: 3, Code: "TOSS1", Name: "Toss Partner 3", Active: true},
		{ID: 4, Code: "CLOSED1", Name: "Closed Partner 4", Active: false},
	}
}

// SeedFeePolicies mirrors the fee policies created by the postgres seed migration.
func SeedFeePolicies() []model.FeePolicy {
	since := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	zero := decimal.Zero
	hundred := decimal.NewFromInt(100)
	return []model.FeePolicy{
		{PartnerID: 1, EffectiveFrom: since, Percentage: decimal.RequireFromString("0.0235"), FixedFee: &zero},
		{PartnerID: 2, EffectiveFrom: since, Percentage: decimal.RequireFromString("0.0300"), FixedFee: &hundred},
		{PartnerID: 3, EffectiveFrom: since, Percentage: decimal.RequireFromString("0.0250")},
		{PartnerID: 4, EffectiveFrom: since, Percentage: decimal.RequireFromString("0.0300")},
	}
}
