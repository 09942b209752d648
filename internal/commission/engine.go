package commission

import (
	"github.com/shopspring/decimal"

	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/money"
)

var (
	salesRate    = decimal.RequireFromString("0.07")
	salesTaxRate = decimal.RequireFromString("0.00075")
	packageRate  = decimal.RequireFromString("0.075")
)

// Result is the value object produced by the calculators. The engine never
// persists anything; callers copy the result into a CommissionRecord.
type Result struct {
	GrossCommission  decimal.Decimal `json:"grossCommission"`
	CommissionTax    decimal.Decimal `json:"commissionTax"`
	NetCommission    decimal.Decimal `json:"netCommission"`
	FirstCommission  decimal.Decimal `json:"firstCommission,omitempty"`
	SecondCommission decimal.Decimal `json:"secondCommission,omitempty"`
	Split            bool            `json:"split"`
}

// ComputeSales calculates the commission for a course follow-up sale:
// 7% gross with a 0.075% commission tax deducted.
func ComputeSales(price decimal.Decimal) (Result, error) {
	if err := money.Validate(price); err != nil {
		return Result{}, err
	}
	gross := money.ApplyRate(price, salesRate)
	tax := money.ApplyRate(gross, salesTaxRate)
	return Result{
		GrossCommission: gross,
		CommissionTax:   tax,
		NetCommission:   gross.Sub(tax),
	}, nil
}

// ComputePackage calculates the commission for a package sale: 7.5% gross,
// untaxed, with the net split into two equal halves approved independently.
// An odd cent in the net goes to the first half so the parts always sum to
// the net exactly.
func ComputePackage(packageValue decimal.Decimal) (Result, error) {
	if err := money.Validate(packageValue); err != nil {
		return Result{}, err
	}
	gross := money.ApplyRate(packageValue, packageRate)
	first, second := money.SplitHalf(gross)
	return Result{
		GrossCommission:  gross,
		CommissionTax:    decimal.Zero,
		NetCommission:    gross,
		FirstCommission:  first,
		SecondCommission: second,
		Split:            true,
	}, nil
}
