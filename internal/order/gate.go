package order

import (
	"github.com/shopspring/decimal"

	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/domain"
)

// Decision is the outcome of the delivery gate check.
type Decision struct {
	Allowed   bool            `json:"allowed"`
	Shortfall decimal.Decimal `json:"shortfall"`
}

// CanDeliver reports whether the order may transition to Delivered: full
// payment must be on record. The rule holds for every payment type: Half
// and Advance plans do not exempt an order from paying in full before
// delivery. Shortfall is never negative; overpayment reports zero.
func CanDeliver(o domain.Order) Decision {
	shortfall := o.TotalAmount.Sub(o.PaymentAmount)
	if shortfall.IsNegative() {
		shortfall = decimal.Zero
	}
	return Decision{
		Allowed:   o.PaymentAmount.GreaterThanOrEqual(o.TotalAmount),
		Shortfall: shortfall,
	}
}

// statusRank orders the forward statuses. Cancelled and unknown statuses
// rank negative so nothing can transition out of them.
func statusRank(s domain.OrderStatus) int {
	switch s {
	case domain.OrderStatusPending:
		return 0
	case domain.OrderStatusConfirmed:
		return 1
	case domain.OrderStatusProcessing:
		return 2
	case domain.OrderStatusShipped:
		return 3
	case domain.OrderStatusDelivered:
		return 4
	case domain.OrderStatusCancelled:
		return -1
	default:
		return -2
	}
}

// canTransition reports whether current may move to target: strictly
// forward along the rank, or to Cancelled from any non-terminal status.
func canTransition(current, target domain.OrderStatus) bool {
	if target == domain.OrderStatusCancelled {
		return current != domain.OrderStatusDelivered && current != domain.OrderStatusCancelled
	}
	cur, tgt := statusRank(current), statusRank(target)
	return cur >= 0 && tgt > cur
}
