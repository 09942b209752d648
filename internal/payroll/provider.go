package payroll

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrCreditFailed is returned when the payroll system rejects or fails a
// credit call. The approval workflow treats it as fatal for the attempt: the
// approval flag stays unset and a compensating event is recorded.
var ErrCreditFailed = errors.New("payroll credit failed")

// CreditRef identifies a confirmed payroll credit.
type CreditRef struct {
	Reference string `json:"reference"`
	Duplicate bool   `json:"duplicate"`
}

// Client abstracts the external payroll system. Implementations must treat
// idempotencyKey as a deduplication handle: repeated calls with the same key
// credit the agent at most once and report Duplicate on replays.
type Client interface {
	CreditAgent(ctx context.Context, agentID string, amount decimal.Decimal, idempotencyKey string) (CreditRef, error)
}
