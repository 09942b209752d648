package commission

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/domain"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/payroll"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/store/memory"
)

type fakePayroll struct {
	mu      sync.Mutex
	fail    bool
	credits map[string]decimal.Decimal
}

func newFakePayroll() *fakePayroll {
	return &fakePayroll{credits: make(map[string]decimal.Decimal)}
}

func (f *fakePayroll) CreditAgent(ctx context.Context, agentID string, amount decimal.Decimal, idempotencyKey string) (payroll.CreditRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return payroll.CreditRef{}, payroll.ErrCreditFailed
	}
	if _, ok := f.credits[idempotencyKey]; ok {
		return payroll.CreditRef{Reference: "ref-" + idempotencyKey, Duplicate: true}, nil
	}
	f.credits[idempotencyKey] = amount
	return payroll.CreditRef{Reference: "ref-" + idempotencyKey}, nil
}

func (f *fakePayroll) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.credits)
}

func newWorkflow(t *testing.T) (*Workflow, *fakePayroll) {
	t.Helper()
	client := newFakePayroll()
	w := &Workflow{
		Store:   memory.New(),
		Payroll: client,
		Logger:  zerolog.Nop(),
	}
	return w, client
}

func createRecord(t *testing.T, w *Workflow, value float64) domain.CommissionRecord {
	t.Helper()
	rec, err := w.CreateFromPackageSale(context.Background(), CreateInput{
		CustomerID:   "cust-1",
		AgentID:      "agent-1",
		PackageValue: value,
	})
	require.NoError(t, err)
	return rec
}

func TestCreateFromPackageSale(t *testing.T) {
	w, _ := newWorkflow(t)
	rec := createRecord(t, w, 1000)

	require.True(t, rec.GrossCommission.Equal(dec("75")), "got %s", rec.GrossCommission)
	require.True(t, rec.FirstCommission.Equal(dec("37.5")))
	require.True(t, rec.SecondCommission.Equal(dec("37.5")))
	require.Equal(t, domain.ApprovalStatusPending, rec.Status())
}

func TestApprovePartCreditsPayrollThenFlipsFlag(t *testing.T) {
	w, client := newWorkflow(t)
	rec := createRecord(t, w, 1000)
	ctx := context.Background()

	first, err := w.ApprovePart(ctx, rec.ID, PartFirst)
	require.NoError(t, err)
	require.True(t, first.Record.FirstApproved)
	require.False(t, first.Record.SecondApproved)
	require.Equal(t, domain.ApprovalStatusPartial, first.Record.Status())
	require.Equal(t, "ref-"+rec.ID+":first", first.Credit.Reference)
	require.Equal(t, 1, client.count())

	second, err := w.ApprovePart(ctx, rec.ID, PartSecond)
	require.NoError(t, err)
	require.Equal(t, domain.ApprovalStatusApproved, second.Record.Status())
	require.Equal(t, 2, client.count())
}

func TestApprovePartIsIdempotent(t *testing.T) {
	w, client := newWorkflow(t)
	rec := createRecord(t, w, 1000)
	ctx := context.Background()

	first, err := w.ApprovePart(ctx, rec.ID, PartFirst)
	require.NoError(t, err)
	require.False(t, first.Credit.Duplicate)

	for i := 0; i < 2; i++ {
		replay, err := w.ApprovePart(ctx, rec.ID, PartFirst)
		require.NoError(t, err)
		require.True(t, replay.Record.FirstApproved)
		require.True(t, replay.Credit.Duplicate)
	}
	require.Equal(t, 1, client.count(), "replays must not credit again")
}

func TestApprovePartPayrollFailureLeavesFlagUnset(t *testing.T) {
	w, client := newWorkflow(t)
	rec := createRecord(t, w, 1000)
	ctx := context.Background()

	client.fail = true
	_, err := w.ApprovePart(ctx, rec.ID, PartFirst)
	require.ErrorIs(t, err, payroll.ErrCreditFailed)

	current, err := w.Get(ctx, rec.ID)
	require.NoError(t, err)
	require.False(t, current.FirstApproved)
	require.Equal(t, domain.ApprovalStatusPending, current.Status())

	client.fail = false
	retried, err := w.ApprovePart(ctx, rec.ID, PartFirst)
	require.NoError(t, err)
	require.True(t, retried.Record.FirstApproved)
}

func TestApprovePartRejectsUnknownPart(t *testing.T) {
	w, _ := newWorkflow(t)
	rec := createRecord(t, w, 1000)

	_, err := w.ApprovePart(context.Background(), rec.ID, Part("third"))
	require.ErrorIs(t, err, ErrUnknownPart)
}

func TestOddCentGoesToFirstPart(t *testing.T) {
	w, _ := newWorkflow(t)
	rec := createRecord(t, w, 1000.70)

	require.True(t, rec.NetCommission.Equal(dec("75.05")), "got %s", rec.NetCommission)
	require.True(t, rec.FirstCommission.Equal(dec("37.53")))
	require.True(t, rec.SecondCommission.Equal(dec("37.52")))
	require.True(t, rec.FirstCommission.Add(rec.SecondCommission).Equal(rec.NetCommission))
}
