package stock

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuantity is returned for negative quantities, or
	// non-positive quantities where a positive one is required.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrInsufficientStock is returned when a delivery exceeds the
	// available pool.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInsufficientBuffer is returned when a reservation exceeds the
	// unreserved buffer capacity.
	ErrInsufficientBuffer = errors.New("insufficient buffer")
	// ErrBufferBelowReserved is returned when shrinking the buffer below
	// outstanding reservations. Callers must release reservations first.
	ErrBufferBelowReserved = errors.New("buffer below reserved")
)

// QuantityError wraps one of the sentinel errors with the attempted and
// available quantities, so the caller can render a precise message.
type QuantityError struct {
	Op        string
	Kind      error
	Attempted int64
	Available int64
}

func (e *QuantityError) Error() string {
	return fmt.Sprintf("%s: %v (attempted %d, available %d)", e.Op, e.Kind, e.Attempted, e.Available)
}

func (e *QuantityError) Unwrap() error { return e.Kind }

func quantityErr(op string, kind error, attempted, available int64) error {
	return &QuantityError{Op: op, Kind: kind, Attempted: attempted, Available: available}
}
