package tax

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/money"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeVAT(t *testing.T) {
	got, err := ComputeVAT(dec("1000"), DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(dec("150")) {
		t.Fatalf("expected 150, got %s", got)
	}
}

func TestComputeWithholdingThresholdIsInclusive(t *testing.T) {
	cfg := DefaultConfig()
	below, err := ComputeWithholding(dec("9999.99"), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !below.IsZero() {
		t.Fatalf("expected zero withholding below threshold, got %s", below)
	}
	at, err := ComputeWithholding(dec("10000"), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !at.Equal(dec("300")) {
		t.Fatalf("expected 300 at threshold, got %s", at)
	}
}

func TestComputeWithholdingIsCliffNotMarginal(t *testing.T) {
	// One cent over the threshold taxes the whole total.
	got, err := ComputeWithholding(dec("10000.01"), DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(dec("300.00")) {
		t.Fatalf("expected 300.00, got %s", got)
	}
}

func TestNetRevenue(t *testing.T) {
	got, err := NetRevenue(dec("10000"), DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 10000 - 1500 VAT - 300 withholding
	if !got.Equal(dec("8200")) {
		t.Fatalf("expected 8200, got %s", got)
	}
}

func TestComputeRejectsNegativeTotal(t *testing.T) {
	if _, err := Compute(dec("-1"), DefaultConfig()); !errors.Is(err, money.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}
