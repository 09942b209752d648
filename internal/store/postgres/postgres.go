package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/domain"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/store"
)

const uniqueViolation = "23505"

// Store is the Postgres-backed record store. Every Mutate* runs inside a
// transaction with the row locked FOR UPDATE, so concurrent read-modify-write
// cycles on the same record are serialized by the database.
type Store struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

// New wraps an existing connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Ping probes the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) CreateStockItem(ctx context.Context, item domain.StockItem) (domain.StockItem, error) {
	item.SKU = strings.ToUpper(strings.TrimSpace(item.SKU))
	row := s.pool.QueryRow(ctx, `
		INSERT INTO stock_items (sku, name, category, unit, price, supplier, quantity, buffer_stock, reserved_buffer)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`, item.SKU, item.Name, item.Category, item.Unit, num(item.Price), item.Supplier,
		item.Quantity, item.BufferStock, item.ReservedBuffer)
	if err := row.Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.StockItem{}, store.ErrDuplicateSKU
		}
		return domain.StockItem{}, fmt.Errorf("insert stock item: %w", err)
	}
	return item, nil
}

func (s *Store) GetStockItem(ctx context.Context, id string) (domain.StockItem, error) {
	return scanStockItem(s.pool.QueryRow(ctx, stockItemQuery+` WHERE id = $1`, id))
}

func (s *Store) ListStockItems(ctx context.Context) ([]domain.StockItem, error) {
	rows, err := s.pool.Query(ctx, stockItemQuery+` ORDER BY sku`)
	if err != nil {
		return nil, fmt.Errorf("list stock items: %w", err)
	}
	defer rows.Close()
	var out []domain.StockItem
	for rows.Next() {
		item, err := scanStockItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *Store) MutateStockItem(ctx context.Context, id string, fn func(*domain.StockItem) error) (domain.StockItem, error) {
	var item domain.StockItem
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		var err error
		item, err = scanStockItem(tx.QueryRow(ctx, stockItemQuery+` WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		if err := fn(&item); err != nil {
			return err
		}
		item.UpdatedAt = time.Now().UTC()
		_, err = tx.Exec(ctx, `
			UPDATE stock_items
			SET name = $2, category = $3, unit = $4, price = $5, supplier = $6,
			    quantity = $7, buffer_stock = $8, reserved_buffer = $9, updated_at = $10
			WHERE id = $1
		`, id, item.Name, item.Category, item.Unit, num(item.Price), item.Supplier,
			item.Quantity, item.BufferStock, item.ReservedBuffer, item.UpdatedAt)
		return err
	})
	if err != nil {
		return domain.StockItem{}, err
	}
	return item, nil
}

func (s *Store) CreateOrder(ctx context.Context, order domain.Order) (domain.Order, error) {
	if order.Status == "" {
		order.Status = domain.OrderStatusPending
	}
	items, err := json.Marshal(order.Items)
	if err != nil {
		return domain.Order{}, fmt.Errorf("encode order items: %w", err)
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO orders (customer_name, items, total_amount, payment_amount, payment_type, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, order.CustomerName, items, num(order.TotalAmount), num(order.PaymentAmount),
		string(order.PaymentType), string(order.Status))
	if err := row.Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt); err != nil {
		return domain.Order{}, fmt.Errorf("insert order: %w", err)
	}
	return order, nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	return scanOrder(s.pool.QueryRow(ctx, orderQuery+` WHERE id = $1`, id))
}

func (s *Store) ListOrders(ctx context.Context) ([]domain.Order, error) {
	rows, err := s.pool.Query(ctx, orderQuery+` ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()
	var out []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, order)
	}
	return out, rows.Err()
}

func (s *Store) MutateOrder(ctx context.Context, id string, fn func(*domain.Order) error) (domain.Order, error) {
	var order domain.Order
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		var err error
		order, err = scanOrder(tx.QueryRow(ctx, orderQuery+` WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		if err := fn(&order); err != nil {
			return err
		}
		order.UpdatedAt = time.Now().UTC()
		items, err := json.Marshal(order.Items)
		if err != nil {
			return fmt.Errorf("encode order items: %w", err)
		}
		_, err = tx.Exec(ctx, `
			UPDATE orders
			SET customer_name = $2, items = $3, total_amount = $4, payment_amount = $5,
			    payment_type = $6, status = $7, updated_at = $8
			WHERE id = $1
		`, id, order.CustomerName, items, num(order.TotalAmount), num(order.PaymentAmount),
			string(order.PaymentType), string(order.Status), order.UpdatedAt)
		return err
	})
	if err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

func (s *Store) CreateCommissionRecord(ctx context.Context, rec domain.CommissionRecord) (domain.CommissionRecord, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO commission_records (customer_id, agent_id, package_value, gross_commission,
			commission_tax, net_commission, first_commission, second_commission,
			first_approved, second_approved)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`, rec.CustomerID, rec.AgentID, num(rec.PackageValue), num(rec.GrossCommission),
		num(rec.CommissionTax), num(rec.NetCommission), num(rec.FirstCommission),
		num(rec.SecondCommission), rec.FirstApproved, rec.SecondApproved)
	if err := row.Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return domain.CommissionRecord{}, fmt.Errorf("insert commission record: %w", err)
	}
	return rec, nil
}

func (s *Store) GetCommissionRecord(ctx context.Context, id string) (domain.CommissionRecord, error) {
	return scanCommissionRecord(s.pool.QueryRow(ctx, commissionQuery+` WHERE id = $1`, id))
}

func (s *Store) ListCommissionRecords(ctx context.Context) ([]domain.CommissionRecord, error) {
	rows, err := s.pool.Query(ctx, commissionQuery+` ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list commission records: %w", err)
	}
	defer rows.Close()
	var out []domain.CommissionRecord
	for rows.Next() {
		rec, err := scanCommissionRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) MutateCommissionRecord(ctx context.Context, id string, fn func(*domain.CommissionRecord) error) (domain.CommissionRecord, error) {
	var rec domain.CommissionRecord
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		var err error
		rec, err = scanCommissionRecord(tx.QueryRow(ctx, commissionQuery+` WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		if err := fn(&rec); err != nil {
			return err
		}
		rec.UpdatedAt = time.Now().UTC()
		_, err = tx.Exec(ctx, `
			UPDATE commission_records
			SET first_approved = $2, second_approved = $3, updated_at = $4
			WHERE id = $1
		`, id, rec.FirstApproved, rec.SecondApproved, rec.UpdatedAt)
		return err
	})
	if err != nil {
		return domain.CommissionRecord{}, err
	}
	return rec, nil
}

func (s *Store) InsertEvent(ctx context.Context, ev domain.Event) (domain.Event, error) {
	payload := ev.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO events (topic, aggregate_id, payload)
		VALUES ($1, $2, $3)
		RETURNING id, occurred_at
	`, ev.Topic, ev.AggregateID, payload)
	if err := row.Scan(&ev.ID, &ev.OccurredAt); err != nil {
		return domain.Event{}, fmt.Errorf("insert event: %w", err)
	}
	ev.Payload = payload
	return ev, nil
}

// withTx runs fn inside a transaction, rolling back on error.
func (s *Store) withTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const stockItemQuery = `
	SELECT id, sku, name, category, unit, price::text, supplier, quantity,
	       buffer_stock, reserved_buffer, created_at, updated_at
	FROM stock_items`

const orderQuery = `
	SELECT id, customer_name, items, total_amount::text, payment_amount::text,
	       payment_type, status, created_at, updated_at
	FROM orders`

const commissionQuery = `
	SELECT id, customer_id, agent_id, package_value::text, gross_commission::text,
	       commission_tax::text, net_commission::text, first_commission::text,
	       second_commission::text, first_approved, second_approved, created_at, updated_at
	FROM commission_records`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStockItem(row rowScanner) (domain.StockItem, error) {
	var item domain.StockItem
	var price string
	err := row.Scan(&item.ID, &item.SKU, &item.Name, &item.Category, &item.Unit, &price,
		&item.Supplier, &item.Quantity, &item.BufferStock, &item.ReservedBuffer,
		&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return domain.StockItem{}, mapScanErr("stock item", err)
	}
	if item.Price, err = decimal.NewFromString(price); err != nil {
		return domain.StockItem{}, fmt.Errorf("decode stock item price: %w", err)
	}
	return item, nil
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var order domain.Order
	var items []byte
	var total, paid, paymentType, status string
	err := row.Scan(&order.ID, &order.CustomerName, &items, &total, &paid,
		&paymentType, &status, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return domain.Order{}, mapScanErr("order", err)
	}
	if err := json.Unmarshal(items, &order.Items); err != nil {
		return domain.Order{}, fmt.Errorf("decode order items: %w", err)
	}
	if order.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return domain.Order{}, fmt.Errorf("decode order total: %w", err)
	}
	if order.PaymentAmount, err = decimal.NewFromString(paid); err != nil {
		return domain.Order{}, fmt.Errorf("decode order payment: %w", err)
	}
	order.PaymentType = domain.PaymentType(paymentType)
	order.Status = domain.OrderStatus(status)
	return order, nil
}

func scanCommissionRecord(row rowScanner) (domain.CommissionRecord, error) {
	var rec domain.CommissionRecord
	var amounts [6]string
	err := row.Scan(&rec.ID, &rec.CustomerID, &rec.AgentID, &amounts[0], &amounts[1],
		&amounts[2], &amounts[3], &amounts[4], &amounts[5],
		&rec.FirstApproved, &rec.SecondApproved, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return domain.CommissionRecord{}, mapScanErr("commission record", err)
	}
	fields := []*decimal.Decimal{
		&rec.PackageValue, &rec.GrossCommission, &rec.CommissionTax,
		&rec.NetCommission, &rec.FirstCommission, &rec.SecondCommission,
	}
	for i, dst := range fields {
		if *dst, err = decimal.NewFromString(amounts[i]); err != nil {
			return domain.CommissionRecord{}, fmt.Errorf("decode commission amount: %w", err)
		}
	}
	return rec, nil
}

func mapScanErr(entity string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	return fmt.Errorf("scan %s: %w", entity, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// num renders a decimal for a NUMERIC parameter.
func num(d decimal.Decimal) string {
	return d.String()
}
