package store

import (
	"context"
	"errors"

	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/domain"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateSKU is returned when registering an item with a SKU that
	// is already taken.
	ErrDuplicateSKU = errors.New("sku already registered")
)

// Store is the record store the core consumes. Implementations must make
// each Mutate* call an atomic read-modify-write: when fn returns an error
// nothing is persisted, and concurrent mutations of the same record are
// serialized.
type Store interface {
	CreateStockItem(ctx context.Context, item domain.StockItem) (domain.StockItem, error)
	GetStockItem(ctx context.Context, id string) (domain.StockItem, error)
	ListStockItems(ctx context.Context) ([]domain.StockItem, error)
	MutateStockItem(ctx context.Context, id string, fn func(*domain.StockItem) error) (domain.StockItem, error)

	CreateOrder(ctx context.Context, order domain.Order) (domain.Order, error)
	GetOrder(ctx context.Context, id string) (domain.Order, error)
	ListOrders(ctx context.Context) ([]domain.Order, error)
	MutateOrder(ctx context.Context, id string, fn func(*domain.Order) error) (domain.Order, error)

	CreateCommissionRecord(ctx context.Context, rec domain.CommissionRecord) (domain.CommissionRecord, error)
	GetCommissionRecord(ctx context.Context, id string) (domain.CommissionRecord, error)
	ListCommissionRecords(ctx context.Context) ([]domain.CommissionRecord, error)
	MutateCommissionRecord(ctx context.Context, id string, fn func(*domain.CommissionRecord) error) (domain.CommissionRecord, error)

	InsertEvent(ctx context.Context, ev domain.Event) (domain.Event, error)
}
