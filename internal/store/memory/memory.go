package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/domain"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/store"
)

// Store is an in-memory record store used in development mode and tests.
// Mutations run under the write lock, so read-modify-write operations on a
// single record are serialized.
type Store struct {
	mu      sync.RWMutex
	items   map[string]domain.StockItem
	skus    map[string]string
	orders  map[string]domain.Order
	records map[string]domain.CommissionRecord
	events  []domain.Event
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		items:   map[string]domain.StockItem{},
		skus:    map[string]string{},
		orders:  map[string]domain.Order{},
		records: map[string]domain.CommissionRecord{},
	}
}

func (s *Store) CreateStockItem(_ context.Context, item domain.StockItem) (domain.StockItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sku := strings.ToUpper(strings.TrimSpace(item.SKU))
	if _, exists := s.skus[sku]; exists {
		return domain.StockItem{}, store.ErrDuplicateSKU
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	s.items[item.ID] = item
	s.skus[sku] = item.ID
	return item, nil
}

func (s *Store) GetStockItem(_ context.Context, id string) (domain.StockItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return domain.StockItem{}, store.ErrNotFound
	}
	return item, nil
}

func (s *Store) ListStockItems(_ context.Context) ([]domain.StockItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.StockItem, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, nil
}

func (s *Store) MutateStockItem(_ context.Context, id string, fn func(*domain.StockItem) error) (domain.StockItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return domain.StockItem{}, store.ErrNotFound
	}
	if err := fn(&item); err != nil {
		return domain.StockItem{}, err
	}
	item.UpdatedAt = time.Now().UTC()
	s.items[id] = item
	return item, nil
}

func (s *Store) CreateOrder(_ context.Context, order domain.Order) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now
	if order.Status == "" {
		order.Status = domain.OrderStatusPending
	}
	s.orders[order.ID] = cloneOrder(order)
	return order, nil
}

func (s *Store) GetOrder(_ context.Context, id string) (domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.orders[id]
	if !ok {
		return domain.Order{}, store.ErrNotFound
	}
	return cloneOrder(order), nil
}

func (s *Store) ListOrders(_ context.Context) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) MutateOrder(_ context.Context, id string, fn func(*domain.Order) error) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return domain.Order{}, store.ErrNotFound
	}
	working := cloneOrder(order)
	if err := fn(&working); err != nil {
		return domain.Order{}, err
	}
	working.UpdatedAt = time.Now().UTC()
	s.orders[id] = cloneOrder(working)
	return working, nil
}

func (s *Store) CreateCommissionRecord(_ context.Context, rec domain.CommissionRecord) (domain.CommissionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	s.records[rec.ID] = rec
	return rec, nil
}

func (s *Store) GetCommissionRecord(_ context.Context, id string) (domain.CommissionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return domain.CommissionRecord{}, store.ErrNotFound
	}
	return rec, nil
}

func (s *Store) ListCommissionRecords(_ context.Context) ([]domain.CommissionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.CommissionRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) MutateCommissionRecord(_ context.Context, id string, fn func(*domain.CommissionRecord) error) (domain.CommissionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return domain.CommissionRecord{}, store.ErrNotFound
	}
	if err := fn(&rec); err != nil {
		return domain.CommissionRecord{}, err
	}
	rec.UpdatedAt = time.Now().UTC()
	s.records[id] = rec
	return rec, nil
}

func (s *Store) InsertEvent(_ context.Context, ev domain.Event) (domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	s.events = append(s.events, ev)
	return ev, nil
}

// Events returns a copy of all recorded events, oldest first. Test helper.
func (s *Store) Events() []domain.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Event(nil), s.events...)
}

func cloneOrder(o domain.Order) domain.Order {
	o.Items = append([]domain.OrderItem(nil), o.Items...)
	return o
}
