package commission

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/money"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeSales(t *testing.T) {
	res, err := ComputeSales(dec("10000"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.GrossCommission.Equal(dec("700")) {
		t.Fatalf("expected gross 700, got %s", res.GrossCommission)
	}
	// 700 * 0.00075 = 0.525 -> 0.53 half-up
	if !res.CommissionTax.Equal(dec("0.53")) {
		t.Fatalf("expected tax 0.53, got %s", res.CommissionTax)
	}
	if !res.NetCommission.Equal(dec("699.47")) {
		t.Fatalf("expected net 699.47, got %s", res.NetCommission)
	}
	if res.Split {
		t.Fatal("sales commission must not be split")
	}
}

func TestComputePackage(t *testing.T) {
	res, err := ComputePackage(dec("1000"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.GrossCommission.Equal(dec("75")) {
		t.Fatalf("expected gross 75, got %s", res.GrossCommission)
	}
	if !res.CommissionTax.IsZero() {
		t.Fatalf("expected zero tax, got %s", res.CommissionTax)
	}
	if !res.NetCommission.Equal(dec("75")) {
		t.Fatalf("expected net 75, got %s", res.NetCommission)
	}
	if !res.FirstCommission.Equal(dec("37.5")) || !res.SecondCommission.Equal(dec("37.5")) {
		t.Fatalf("expected 37.5/37.5 split, got %s/%s", res.FirstCommission, res.SecondCommission)
	}
}

func TestComputePackageOddCentGoesToFirst(t *testing.T) {
	// 1000.70 * 0.075 = 75.0525 -> 75.05 net, which does not halve evenly.
	res, err := ComputePackage(dec("1000.70"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.NetCommission.Equal(dec("75.05")) {
		t.Fatalf("expected net 75.05, got %s", res.NetCommission)
	}
	if !res.FirstCommission.Equal(dec("37.53")) || !res.SecondCommission.Equal(dec("37.52")) {
		t.Fatalf("expected 37.53/37.52 split, got %s/%s", res.FirstCommission, res.SecondCommission)
	}
	if !res.FirstCommission.Add(res.SecondCommission).Equal(res.NetCommission) {
		t.Fatal("split halves must sum to net commission")
	}
}

func TestComputeRejectsNegativeInput(t *testing.T) {
	if _, err := ComputeSales(dec("-5")); !errors.Is(err, money.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := ComputePackage(dec("-5")); !errors.Is(err, money.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}
