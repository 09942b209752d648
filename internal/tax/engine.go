package tax

import (
	"github.com/shopspring/decimal"

	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/money"
)

// Config carries the tax rates applied to order totals. Rates are plain
// configuration values, not computed policy.
type Config struct {
	VATRate              decimal.Decimal
	WithholdingThreshold decimal.Decimal
	WithholdingRate      decimal.Decimal
}

// DefaultConfig returns the standard rates: 15% VAT, 3% withholding above an
// order total of 10000.
func DefaultConfig() Config {
	return Config{
		VATRate:              decimal.RequireFromString("0.15"),
		WithholdingThreshold: decimal.NewFromInt(10000),
		WithholdingRate:      decimal.RequireFromString("0.03"),
	}
}

// Breakdown aggregates the taxes computed for an order total.
type Breakdown struct {
	VAT         decimal.Decimal `json:"vat"`
	Withholding decimal.Decimal `json:"withholding"`
	NetRevenue  decimal.Decimal `json:"netRevenue"`
}

// ComputeVAT returns total * VATRate rounded to cents.
func ComputeVAT(total decimal.Decimal, cfg Config) (decimal.Decimal, error) {
	if err := money.Validate(total); err != nil {
		return decimal.Decimal{}, err
	}
	return money.ApplyRate(total, cfg.VATRate), nil
}

// ComputeWithholding returns total * WithholdingRate when the total reaches
// the threshold, zero otherwise. The threshold is inclusive and a hard cliff:
// crossing it taxes the whole total, not just the excess.
func ComputeWithholding(total decimal.Decimal, cfg Config) (decimal.Decimal, error) {
	if err := money.Validate(total); err != nil {
		return decimal.Decimal{}, err
	}
	if total.LessThan(cfg.WithholdingThreshold) {
		return decimal.Zero, nil
	}
	return money.ApplyRate(total, cfg.WithholdingRate), nil
}

// NetRevenue is the order total minus VAT and withholding.
func NetRevenue(total decimal.Decimal, cfg Config) (decimal.Decimal, error) {
	b, err := Compute(total, cfg)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return b.NetRevenue, nil
}

// Compute evaluates all taxes for a single order total.
func Compute(total decimal.Decimal, cfg Config) (Breakdown, error) {
	vat, err := ComputeVAT(total, cfg)
	if err != nil {
		return Breakdown{}, err
	}
	wht, err := ComputeWithholding(total, cfg)
	if err != nil {
		return Breakdown{}, err
	}
	return Breakdown{
		VAT:         vat,
		Withholding: wht,
		NetRevenue:  total.Sub(vat).Sub(wht),
	}, nil
}
