package service

import (
	"github.com/shopspring/decimal"

	"github.com/bibbank/pggateway/internal/domain/model"
	"github.com/bibbank/pggateway/pkg/money"
)

// FeeBreakdown is the result of applying a fee policy to an amount.
// Fee + Net always equals the amount.
type FeeBreakdown struct {
	Rate decimal.Decimal
	Fee  decimal.Decimal
	Net  decimal.Decimal
}

// FeeCalculator computes partner fees in the ledger currency.
type FeeCalculator struct {
	currency money.Currency
}

// NewFeeCalculator creates a FeeCalculator that rounds to currency's minor unit.
func NewFeeCalculator(currency money.Currency) *FeeCalculator {
	return &FeeCalculator{currency: currency}
}

// Calculate returns fee = round(amount * rate) + fixedFee and net = amount - fee.
// The percentage part is rounded half away from zero before the fixed fee is added.
// A fixed fee larger than the amount yields a negative net.
func (c *FeeCalculator) Calculate(amount, rate decimal.Decimal, fixedFee *decimal.Decimal) (FeeBreakdown, error) {
	if amount.IsNegative() {
		return FeeBreakdown{}, model.Validationf("amount must not be negative, got: %s", amount)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return FeeBreakdown{}, model.Validationf("fee rate must be between 0 and 1, got: %s", rate)
	}

	fee := c.currency.Round(amount.Mul(rate))
	if fixedFee != nil {
		if fixedFee.IsNegative() {
			return FeeBreakdown{}, model.Validationf("fixed fee must not be negative, got: %s", fixedFee)
		}
		fee = fee.Add(*fixedFee)
	}

	return FeeBreakdown{
		Rate: rate,
		Fee:  fee,
		Net:  amount.Sub(fee),
	}, nil
}

// Apply calculates the fee for amount under policy.
func (c *FeeCalculator) Apply(amount decimal.Decimal, policy model.FeePolicy) (FeeBreakdown, error) {
	return c.Calculate(amount, policy.Percentage, policy.FixedFee)
}
