package stock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/domain"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/lock"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/store/memory"
)

func newLedger(t *testing.T, withLock bool) (*Ledger, *memory.Store) {
	t.Helper()
	st := memory.New()
	ledger := &Ledger{Store: st, Logger: zerolog.Nop()}
	if withLock {
		mr, err := miniredis.Run()
		require.NoError(t, err)
		t.Cleanup(mr.Close)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		ledger.Locker = lock.Locker{Client: client, Backoff: time.Millisecond}
		ledger.LockTTL = time.Second
	}
	return ledger, st
}

func registerItem(t *testing.T, l *Ledger) domain.StockItem {
	t.Helper()
	item, err := l.Register(context.Background(), RegisterInput{
		SKU: "CEM-001", Name: "Cement 50kg", Category: "construction", Unit: "bag", Price: 850, Quantity: 20,
	})
	require.NoError(t, err)
	return item
}

func TestRegisterRejectsDuplicateSKU(t *testing.T) {
	l, _ := newLedger(t, false)
	registerItem(t, l)
	_, err := l.Register(context.Background(), RegisterInput{SKU: "cem-001", Name: "x", Category: "c", Unit: "bag", Price: 1})
	require.Error(t, err)
}

func TestAdjustQuantity(t *testing.T) {
	l, _ := newLedger(t, false)
	item := registerItem(t, l)
	ctx := context.Background()

	updated, err := l.AdjustQuantity(ctx, item.ID, 35)
	require.NoError(t, err)
	require.EqualValues(t, 35, updated.Quantity)

	_, err = l.AdjustQuantity(ctx, item.ID, -1)
	require.ErrorIs(t, err, ErrInvalidQuantity)

	current, err := l.Get(ctx, item.ID)
	require.NoError(t, err)
	require.EqualValues(t, 35, current.Quantity, "failed adjust must not change state")
}

func TestSetBufferStockGuardsReservations(t *testing.T) {
	l, _ := newLedger(t, false)
	item := registerItem(t, l)
	ctx := context.Background()

	_, err := l.SetBufferStock(ctx, item.ID, 10)
	require.NoError(t, err)
	_, err = l.ReserveBuffer(ctx, item.ID, 6)
	require.NoError(t, err)

	_, err = l.SetBufferStock(ctx, item.ID, 5)
	require.ErrorIs(t, err, ErrBufferBelowReserved)
	var qerr *QuantityError
	require.ErrorAs(t, err, &qerr)
	require.EqualValues(t, 5, qerr.Attempted)
	require.EqualValues(t, 6, qerr.Available)

	// Shrinking down to exactly the reserved amount is allowed.
	updated, err := l.SetBufferStock(ctx, item.ID, 6)
	require.NoError(t, err)
	require.EqualValues(t, 6, updated.BufferStock)
	require.EqualValues(t, 6, updated.ReservedBuffer)

	_, err = l.SetBufferStock(ctx, item.ID, -2)
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestReserveReleaseInverse(t *testing.T) {
	l, _ := newLedger(t, false)
	item := registerItem(t, l)
	ctx := context.Background()

	_, err := l.SetBufferStock(ctx, item.ID, 12)
	require.NoError(t, err)
	before, err := l.ReserveBuffer(ctx, item.ID, 4)
	require.NoError(t, err)

	reserved, err := l.ReserveBuffer(ctx, item.ID, 5)
	require.NoError(t, err)
	require.EqualValues(t, 9, reserved.ReservedBuffer)

	released, err := l.ReleaseBuffer(ctx, item.ID, 5)
	require.NoError(t, err)
	require.EqualValues(t, before.ReservedBuffer, released.ReservedBuffer)
}

func TestReserveBufferOverCapacity(t *testing.T) {
	l, _ := newLedger(t, false)
	item := registerItem(t, l)
	ctx := context.Background()

	_, err := l.SetBufferStock(ctx, item.ID, 8)
	require.NoError(t, err)
	_, err = l.ReserveBuffer(ctx, item.ID, 6)
	require.NoError(t, err)

	_, err = l.ReserveBuffer(ctx, item.ID, 3)
	require.ErrorIs(t, err, ErrInsufficientBuffer)
	var qerr *QuantityError
	require.ErrorAs(t, err, &qerr)
	require.EqualValues(t, 3, qerr.Attempted)
	require.EqualValues(t, 2, qerr.Available)

	_, err = l.ReserveBuffer(ctx, item.ID, 0)
	require.ErrorIs(t, err, ErrInsufficientBuffer)
}

func TestReleaseBufferClampsAtZero(t *testing.T) {
	l, _ := newLedger(t, false)
	item := registerItem(t, l)
	ctx := context.Background()

	_, err := l.SetBufferStock(ctx, item.ID, 5)
	require.NoError(t, err)
	_, err = l.ReserveBuffer(ctx, item.ID, 2)
	require.NoError(t, err)

	updated, err := l.ReleaseBuffer(ctx, item.ID, 10)
	require.NoError(t, err)
	require.EqualValues(t, 0, updated.ReservedBuffer)

	_, err = l.ReleaseBuffer(ctx, item.ID, 0)
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestDeliverFromOnHand(t *testing.T) {
	l, _ := newLedger(t, false)
	item := registerItem(t, l)
	ctx := context.Background()

	updated, err := l.Deliver(ctx, item.ID, 15, false)
	require.NoError(t, err)
	require.EqualValues(t, 5, updated.Quantity)

	_, err = l.Deliver(ctx, item.ID, 6, false)
	require.ErrorIs(t, err, ErrInsufficientStock)
	var qerr *QuantityError
	require.ErrorAs(t, err, &qerr)
	require.EqualValues(t, 6, qerr.Attempted)
	require.EqualValues(t, 5, qerr.Available)

	current, err := l.Get(ctx, item.ID)
	require.NoError(t, err)
	require.EqualValues(t, 5, current.Quantity, "failed delivery must not change state")
}

func TestDeliverFromBufferConsumesReservedFirst(t *testing.T) {
	l, _ := newLedger(t, false)
	item := registerItem(t, l)
	ctx := context.Background()

	_, err := l.SetBufferStock(ctx, item.ID, 10)
	require.NoError(t, err)
	_, err = l.ReserveBuffer(ctx, item.ID, 7)
	require.NoError(t, err)

	// Delivering 6 leaves 4 in the buffer; outstanding reservations are
	// capped to the remaining buffer.
	updated, err := l.Deliver(ctx, item.ID, 6, true)
	require.NoError(t, err)
	require.EqualValues(t, 4, updated.BufferStock)
	require.EqualValues(t, 4, updated.ReservedBuffer)
	require.EqualValues(t, 20, updated.Quantity, "on-hand stock untouched by buffer delivery")
	require.NoError(t, wellFormed(updated))

	_, err = l.Deliver(ctx, item.ID, 5, true)
	require.ErrorIs(t, err, ErrInsufficientStock)
}

func TestInvariantsHoldAcrossOperationSequence(t *testing.T) {
	l, _ := newLedger(t, true)
	item := registerItem(t, l)
	ctx := context.Background()

	steps := []func() (domain.StockItem, error){
		func() (domain.StockItem, error) { return l.SetBufferStock(ctx, item.ID, 15) },
		func() (domain.StockItem, error) { return l.ReserveBuffer(ctx, item.ID, 9) },
		func() (domain.StockItem, error) { return l.Deliver(ctx, item.ID, 12, true) },
		func() (domain.StockItem, error) { return l.ReleaseBuffer(ctx, item.ID, 1) },
		func() (domain.StockItem, error) { return l.AdjustQuantity(ctx, item.ID, 3) },
		func() (domain.StockItem, error) { return l.Deliver(ctx, item.ID, 3, false) },
	}
	for i, step := range steps {
		updated, err := step()
		require.NoError(t, err, "step %d", i)
		require.NoError(t, wellFormed(updated), "step %d", i)
	}
}

func TestConcurrentReservationsNeverOvercommit(t *testing.T) {
	l, _ := newLedger(t, true)
	item := registerItem(t, l)
	ctx := context.Background()

	_, err := l.SetBufferStock(ctx, item.ID, 10)
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.ReserveBuffer(ctx, item.ID, 3); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			} else if !errors.Is(err, ErrInsufficientBuffer) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 3, succeeded, "only three reservations of 3 fit into a buffer of 10")
	final, err := l.Get(ctx, item.ID)
	require.NoError(t, err)
	require.EqualValues(t, 9, final.ReservedBuffer)
	require.NoError(t, wellFormed(final))
}
