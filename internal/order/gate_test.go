package order

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/domain"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCanDeliverShortfall(t *testing.T) {
	d := CanDeliver(domain.Order{TotalAmount: dec("1000"), PaymentAmount: dec("800")})
	if d.Allowed {
		t.Fatal("partially paid order must not be deliverable")
	}
	if !d.Shortfall.Equal(dec("200")) {
		t.Fatalf("expected shortfall 200, got %s", d.Shortfall)
	}
}

func TestCanDeliverFullyPaid(t *testing.T) {
	d := CanDeliver(domain.Order{TotalAmount: dec("1000"), PaymentAmount: dec("1000")})
	if !d.Allowed {
		t.Fatal("fully paid order must be deliverable")
	}
	if !d.Shortfall.IsZero() {
		t.Fatalf("expected zero shortfall, got %s", d.Shortfall)
	}
}

func TestCanDeliverOverpaidClampsShortfall(t *testing.T) {
	d := CanDeliver(domain.Order{TotalAmount: dec("1000"), PaymentAmount: dec("1200")})
	if !d.Allowed || !d.Shortfall.IsZero() {
		t.Fatalf("overpaid order: allowed=%v shortfall=%s", d.Allowed, d.Shortfall)
	}
}

func TestCanDeliverIgnoresPaymentType(t *testing.T) {
	for _, pt := range []domain.PaymentType{domain.PaymentTypeFull, domain.PaymentTypeHalf, domain.PaymentTypeAdvance} {
		d := CanDeliver(domain.Order{TotalAmount: dec("500"), PaymentAmount: dec("250"), PaymentType: pt})
		if d.Allowed {
			t.Fatalf("payment type %s must not bypass the gate", pt)
		}
	}
}

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to domain.OrderStatus
		ok       bool
	}{
		{domain.OrderStatusPending, domain.OrderStatusConfirmed, true},
		{domain.OrderStatusPending, domain.OrderStatusShipped, true},
		{domain.OrderStatusShipped, domain.OrderStatusProcessing, false},
		{domain.OrderStatusShipped, domain.OrderStatusShipped, false},
		{domain.OrderStatusDelivered, domain.OrderStatusCancelled, false},
		{domain.OrderStatusCancelled, domain.OrderStatusConfirmed, false},
		{domain.OrderStatusProcessing, domain.OrderStatusCancelled, true},
	}
	for _, tc := range cases {
		if got := canTransition(tc.from, tc.to); got != tc.ok {
			t.Fatalf("transition %s -> %s: expected %v, got %v", tc.from, tc.to, tc.ok, got)
		}
	}
}
