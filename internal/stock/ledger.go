package stock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/domain"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/events"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/lock"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/money"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/obs"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/store"
)

// Ledger owns all mutations of stock items. Every operation is validated
// before mutation and applied all-or-nothing: when an error is returned the
// item is unchanged. Operations on a single item are serialized with a
// per-item lock on top of the store's atomic read-modify-write; operations
// on different items run in parallel.
type Ledger struct {
	Store   store.Store
	Locker  lock.Locker
	LockTTL time.Duration
	Events  *events.Bus
	Logger  zerolog.Logger
}

// RegisterInput carries the fields needed to register a new stock item.
type RegisterInput struct {
	SKU      string  `json:"sku" validate:"required"`
	Name     string  `json:"name" validate:"required"`
	Category string  `json:"category" validate:"required"`
	Unit     string  `json:"unit" validate:"required"`
	Price    float64 `json:"price" validate:"gte=0"`
	Supplier string  `json:"supplier"`
	Quantity int64   `json:"quantity" validate:"gte=0"`
}

// Register creates a stock item with empty buffer bookkeeping.
func (l *Ledger) Register(ctx context.Context, in RegisterInput) (domain.StockItem, error) {
	if l == nil || l.Store == nil {
		return domain.StockItem{}, errors.New("stock ledger not configured")
	}
	price, err := money.FromFloat(in.Price)
	if err != nil {
		return domain.StockItem{}, err
	}
	if in.Quantity < 0 {
		return domain.StockItem{}, quantityErr("register", ErrInvalidQuantity, in.Quantity, 0)
	}
	item, err := l.Store.CreateStockItem(ctx, domain.StockItem{
		SKU:      strings.ToUpper(strings.TrimSpace(in.SKU)),
		Name:     strings.TrimSpace(in.Name),
		Category: strings.TrimSpace(in.Category),
		Unit:     strings.TrimSpace(in.Unit),
		Price:    price,
		Supplier: strings.TrimSpace(in.Supplier),
		Quantity: in.Quantity,
	})
	if err != nil {
		return domain.StockItem{}, err
	}
	l.Logger.Info().Str("item_id", item.ID).Str("sku", item.SKU).Msg("stock item registered")
	return item, nil
}

// Get returns a single item.
func (l *Ledger) Get(ctx context.Context, id string) (domain.StockItem, error) {
	return l.Store.GetStockItem(ctx, id)
}

// List returns all items ordered by SKU.
func (l *Ledger) List(ctx context.Context) ([]domain.StockItem, error) {
	return l.Store.ListStockItems(ctx)
}

// AdjustQuantity sets the on-hand quantity to an absolute value.
func (l *Ledger) AdjustQuantity(ctx context.Context, id string, newQuantity int64) (domain.StockItem, error) {
	return l.mutate(ctx, "adjust_quantity", id, func(item *domain.StockItem) error {
		if newQuantity < 0 {
			return quantityErr("adjust_quantity", ErrInvalidQuantity, newQuantity, item.Quantity)
		}
		item.Quantity = newQuantity
		return nil
	}, func(item domain.StockItem) (string, any) {
		return events.TopicStockAdjusted, map[string]any{"quantity": item.Quantity}
	})
}

// SetBufferStock sets the incoming buffer to an absolute value. Shrinking
// below outstanding reservations fails instead of silently truncating them.
func (l *Ledger) SetBufferStock(ctx context.Context, id string, bufferQuantity int64) (domain.StockItem, error) {
	return l.mutate(ctx, "set_buffer", id, func(item *domain.StockItem) error {
		if bufferQuantity < 0 {
			return quantityErr("set_buffer", ErrInvalidQuantity, bufferQuantity, item.BufferStock)
		}
		if bufferQuantity < item.ReservedBuffer {
			return quantityErr("set_buffer", ErrBufferBelowReserved, bufferQuantity, item.ReservedBuffer)
		}
		item.BufferStock = bufferQuantity
		return nil
	}, func(item domain.StockItem) (string, any) {
		return events.TopicBufferChanged, map[string]any{"bufferStock": item.BufferStock, "reservedBuffer": item.ReservedBuffer}
	})
}

// ReserveBuffer promises qty units of the buffer to specific demand.
func (l *Ledger) ReserveBuffer(ctx context.Context, id string, qty int64) (domain.StockItem, error) {
	return l.mutate(ctx, "reserve_buffer", id, func(item *domain.StockItem) error {
		if qty <= 0 {
			return quantityErr("reserve_buffer", ErrInsufficientBuffer, qty, item.BufferStock-item.ReservedBuffer)
		}
		if item.ReservedBuffer+qty > item.BufferStock {
			return quantityErr("reserve_buffer", ErrInsufficientBuffer, qty, item.BufferStock-item.ReservedBuffer)
		}
		item.ReservedBuffer += qty
		return nil
	}, nil)
}

// ReleaseBuffer returns up to qty reserved units back to the unreserved
// buffer, clamping at zero.
func (l *Ledger) ReleaseBuffer(ctx context.Context, id string, qty int64) (domain.StockItem, error) {
	return l.mutate(ctx, "release_buffer", id, func(item *domain.StockItem) error {
		if qty <= 0 {
			return quantityErr("release_buffer", ErrInvalidQuantity, qty, item.ReservedBuffer)
		}
		item.ReservedBuffer -= qty
		if item.ReservedBuffer < 0 {
			item.ReservedBuffer = 0
		}
		return nil
	}, nil)
}

// Deliver removes qty units from on-hand stock, or from the buffer when
// fromBuffer is set. Buffer deliveries consume reserved units first: after
// the buffer shrinks, reservations are capped at the new buffer size, which
// is exactly the reserved-first drain order.
func (l *Ledger) Deliver(ctx context.Context, id string, qty int64, fromBuffer bool) (domain.StockItem, error) {
	return l.mutate(ctx, "deliver", id, func(item *domain.StockItem) error {
		if qty <= 0 {
			return quantityErr("deliver", ErrInvalidQuantity, qty, 0)
		}
		if fromBuffer {
			if qty > item.BufferStock {
				return quantityErr("deliver", ErrInsufficientStock, qty, item.BufferStock)
			}
			item.BufferStock -= qty
			if item.ReservedBuffer > item.BufferStock {
				item.ReservedBuffer = item.BufferStock
			}
			return nil
		}
		if qty > item.Quantity {
			return quantityErr("deliver", ErrInsufficientStock, qty, item.Quantity)
		}
		item.Quantity -= qty
		return nil
	}, func(item domain.StockItem) (string, any) {
		return events.TopicStockDelivered, map[string]any{"qty": qty, "fromBuffer": fromBuffer}
	})
}

type eventFn func(item domain.StockItem) (topic string, payload any)

func (l *Ledger) mutate(ctx context.Context, op, id string, fn func(*domain.StockItem) error, ev eventFn) (domain.StockItem, error) {
	if l == nil || l.Store == nil {
		return domain.StockItem{}, errors.New("stock ledger not configured")
	}
	ctx, span := otel.Tracer("stock.Ledger").Start(ctx, "Ledger."+op)
	defer span.End()
	span.SetAttributes(attribute.String("stock.item_id", id), attribute.String("stock.op", op))

	var item domain.StockItem
	run := func(ctx context.Context) error {
		var err error
		item, err = l.Store.MutateStockItem(ctx, id, fn)
		return err
	}

	var err error
	if l.Locker.Client != nil {
		err = l.Locker.WithLock(ctx, "stock:item:"+id, l.LockTTL, run)
	} else {
		err = run(ctx)
	}

	result := "ok"
	if err != nil {
		result = "error"
		span.RecordError(err)
	}
	if obs.StockOpsTotal != nil {
		obs.StockOpsTotal.WithLabelValues(op, result).Inc()
	}
	if err != nil {
		return domain.StockItem{}, err
	}

	if ev != nil && l.Events != nil {
		topic, payload := ev(item)
		if _, emitErr := l.Events.Emit(ctx, topic, item.ID, payload); emitErr != nil {
			l.Logger.Warn().Err(emitErr).Str("topic", topic).Msg("emit stock event")
		}
	}
	l.Logger.Debug().
		Str("op", op).
		Str("item_id", id).
		Int64("quantity", item.Quantity).
		Int64("buffer", item.BufferStock).
		Int64("reserved", item.ReservedBuffer).
		Msg("stock mutation applied")
	return item, nil
}

// invariant check used by tests.
func wellFormed(item domain.StockItem) error {
	if item.Quantity < 0 || item.BufferStock < 0 || item.ReservedBuffer < 0 || item.ReservedBuffer > item.BufferStock {
		return fmt.Errorf("stock invariant violated: qty=%d buffer=%d reserved=%d", item.Quantity, item.BufferStock, item.ReservedBuffer)
	}
	return nil
}
