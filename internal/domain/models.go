package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus enumerates the lifecycle states of a sales order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// PaymentType describes how the customer agreed to pay. It never relaxes the
// full-payment-before-delivery rule.
type PaymentType string

const (
	PaymentTypeFull    PaymentType = "FULL"
	PaymentTypeHalf    PaymentType = "HALF"
	PaymentTypeAdvance PaymentType = "ADVANCE"
)

// ApprovalStatus is the derived state of a commission record. It is computed
// from the two approval flags and never stored independently.
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusPartial  ApprovalStatus = "partial"
	ApprovalStatusApproved ApprovalStatus = "approved"
)

// StockItem is a single inventory line with its buffer bookkeeping.
// Quantity is stock physically on hand; BufferStock is incoming stock already
// ordered from a supplier; ReservedBuffer is the portion of the buffer
// promised to specific demand and never exceeds BufferStock.
type StockItem struct {
	ID             string          `json:"id"`
	SKU            string          `json:"sku"`
	Name           string          `json:"name"`
	Category       string          `json:"category"`
	Unit           string          `json:"unit"`
	Price          decimal.Decimal `json:"price"`
	Supplier       string          `json:"supplier,omitempty"`
	Quantity       int64           `json:"quantity"`
	BufferStock    int64           `json:"bufferStock"`
	ReservedBuffer int64           `json:"reservedBuffer"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// OrderItem is one line of an order.
type OrderItem struct {
	SKU        string          `json:"sku"`
	Quantity   int64           `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

// Order is a customer sales order.
type Order struct {
	ID            string          `json:"id"`
	CustomerName  string          `json:"customerName"`
	Items         []OrderItem     `json:"items"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	PaymentAmount decimal.Decimal `json:"paymentAmount"`
	PaymentType   PaymentType     `json:"paymentType"`
	Status        OrderStatus     `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// CommissionRecord holds the computed commission for a completed package sale
// together with its two-part approval state.
type CommissionRecord struct {
	ID               string          `json:"id"`
	CustomerID       string          `json:"customerId"`
	AgentID          string          `json:"agentId"`
	PackageValue     decimal.Decimal `json:"packageValue"`
	GrossCommission  decimal.Decimal `json:"grossCommission"`
	CommissionTax    decimal.Decimal `json:"commissionTax"`
	NetCommission    decimal.Decimal `json:"netCommission"`
	FirstCommission  decimal.Decimal `json:"firstCommission"`
	SecondCommission decimal.Decimal `json:"secondCommission"`
	FirstApproved    bool            `json:"firstApproved"`
	SecondApproved   bool            `json:"secondApproved"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// Status derives the approval status from the two flags.
func (r CommissionRecord) Status() ApprovalStatus {
	switch {
	case r.FirstApproved && r.SecondApproved:
		return ApprovalStatusApproved
	case r.FirstApproved || r.SecondApproved:
		return ApprovalStatusPartial
	default:
		return ApprovalStatusPending
	}
}

// Event is a persisted domain event emitted by the core services.
type Event struct {
	ID          string    `json:"id"`
	Topic       string    `json:"topic"`
	AggregateID string    `json:"aggregateId"`
	Payload     []byte    `json:"payload"`
	OccurredAt  time.Time `json:"occurredAt"`
}
