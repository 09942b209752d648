package money

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestRound2HalfUp(t *testing.T) {
	if got := Round2(dec("10.005")); !got.Equal(dec("10.01")) {
		t.Fatalf("expected 10.01, got %s", got)
	}
	if got := Round2(dec("10.004")); !got.Equal(dec("10.00")) {
		t.Fatalf("expected 10.00, got %s", got)
	}
}

func TestApplyRate(t *testing.T) {
	if got := ApplyRate(dec("1000"), dec("0.15")); !got.Equal(dec("150")) {
		t.Fatalf("expected 150, got %s", got)
	}
}

func TestFromFloatRejectsNonFinite(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), -1} {
		if _, err := FromFloat(f); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("expected ErrInvalidAmount for %v, got %v", f, err)
		}
	}
	if _, err := FromFloat(12.5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSplitHalf(t *testing.T) {
	cases := []struct {
		in, first, second string
	}{
		{"75", "37.5", "37.5"},
		{"75.05", "37.53", "37.52"},
		{"0.01", "0.01", "0"},
	}
	for _, tc := range cases {
		first, second := SplitHalf(dec(tc.in))
		if !first.Equal(dec(tc.first)) || !second.Equal(dec(tc.second)) {
			t.Fatalf("split %s: expected %s/%s, got %s/%s", tc.in, tc.first, tc.second, first, second)
		}
		if !first.Add(second).Equal(dec(tc.in)) {
			t.Fatalf("split %s does not sum back", tc.in)
		}
	}
}
