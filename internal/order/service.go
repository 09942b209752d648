package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/domain"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/events"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/money"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/obs"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/store"
)

var (
	// ErrInvalidTransition is returned for a status change the state
	// machine does not permit.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrUnpaidDelivery is returned when the delivery gate blocks the
	// transition to Delivered.
	ErrUnpaidDelivery = errors.New("unpaid balance blocks delivery")
)

// UnpaidError carries the outstanding balance when delivery is blocked.
type UnpaidError struct {
	Shortfall decimal.Decimal
}

func (e *UnpaidError) Error() string {
	return fmt.Sprintf("unpaid balance blocks delivery: shortfall %s", e.Shortfall.StringFixed(2))
}

func (e *UnpaidError) Unwrap() error { return ErrUnpaidDelivery }

// Service owns order status and payment mutations. The delivery gate is
// consulted inside the store mutation, so a racing payment update can never
// slip an unpaid order into Delivered.
type Service struct {
	Store  store.Store
	Events *events.Bus
	Logger zerolog.Logger
}

// CreateInput is the payload for registering an order from the dashboard.
type CreateInput struct {
	CustomerName string      `json:"customerName" validate:"required"`
	PaymentType  string      `json:"paymentType" validate:"omitempty,oneof=FULL HALF ADVANCE"`
	Items        []ItemInput `json:"items" validate:"required,min=1,dive"`
}

// ItemInput is one order line in a create request.
type ItemInput struct {
	SKU       string  `json:"sku" validate:"required"`
	Quantity  int64   `json:"quantity" validate:"gt=0"`
	UnitPrice float64 `json:"unitPrice" validate:"gte=0"`
}

// Create registers a new pending order, totalling the lines server-side.
func (s *Service) Create(ctx context.Context, in CreateInput) (domain.Order, error) {
	if s == nil || s.Store == nil {
		return domain.Order{}, errors.New("order service not configured")
	}
	items := make([]domain.OrderItem, 0, len(in.Items))
	total := decimal.Zero
	for _, line := range in.Items {
		price, err := money.FromFloat(line.UnitPrice)
		if err != nil {
			return domain.Order{}, err
		}
		if line.Quantity <= 0 {
			return domain.Order{}, fmt.Errorf("%w: line quantity must be positive", money.ErrInvalidAmount)
		}
		lineTotal := money.Round2(price.Mul(decimal.NewFromInt(line.Quantity)))
		items = append(items, domain.OrderItem{
			SKU:        strings.ToUpper(strings.TrimSpace(line.SKU)),
			Quantity:   line.Quantity,
			UnitPrice:  price,
			TotalPrice: lineTotal,
		})
		total = total.Add(lineTotal)
	}
	paymentType := domain.PaymentType(strings.ToUpper(strings.TrimSpace(in.PaymentType)))
	if paymentType == "" {
		paymentType = domain.PaymentTypeFull
	}
	order, err := s.Store.CreateOrder(ctx, domain.Order{
		CustomerName:  strings.TrimSpace(in.CustomerName),
		Items:         items,
		TotalAmount:   total,
		PaymentAmount: decimal.Zero,
		PaymentType:   paymentType,
		Status:        domain.OrderStatusPending,
	})
	if err != nil {
		return domain.Order{}, err
	}
	s.Logger.Info().Str("order_id", order.ID).Str("total", order.TotalAmount.StringFixed(2)).Msg("order created")
	return order, nil
}

// Get returns one order.
func (s *Service) Get(ctx context.Context, id string) (domain.Order, error) {
	return s.Store.GetOrder(ctx, id)
}

// List returns all orders, oldest first.
func (s *Service) List(ctx context.Context) ([]domain.Order, error) {
	return s.Store.ListOrders(ctx)
}

// RecordPayment adds amount to the order's recorded payment.
func (s *Service) RecordPayment(ctx context.Context, id string, amount float64) (domain.Order, error) {
	paid, err := money.FromFloat(amount)
	if err != nil {
		return domain.Order{}, err
	}
	if paid.IsZero() {
		return domain.Order{}, fmt.Errorf("%w: payment must be positive", money.ErrInvalidAmount)
	}
	order, err := s.Store.MutateOrder(ctx, id, func(o *domain.Order) error {
		if o.Status == domain.OrderStatusCancelled {
			return fmt.Errorf("%w: order is cancelled", ErrInvalidTransition)
		}
		o.PaymentAmount = o.PaymentAmount.Add(paid)
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	s.emit(ctx, events.TopicOrderPaymentUpdated, order.ID, map[string]any{
		"paymentAmount": order.PaymentAmount,
		"totalAmount":   order.TotalAmount,
	})
	return order, nil
}

// UpdateStatus moves the order along its lifecycle. The transition to
// Delivered is additionally guarded by the delivery gate.
func (s *Service) UpdateStatus(ctx context.Context, id string, target domain.OrderStatus) (domain.Order, error) {
	order, err := s.Store.MutateOrder(ctx, id, func(o *domain.Order) error {
		if !canTransition(o.Status, target) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, target)
		}
		if target == domain.OrderStatusDelivered {
			if decision := CanDeliver(*o); !decision.Allowed {
				if obs.DeliveryGateDenied != nil {
					obs.DeliveryGateDenied.Inc()
				}
				return &UnpaidError{Shortfall: decision.Shortfall}
			}
		}
		o.Status = target
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	s.emit(ctx, events.TopicOrderStatusChanged, order.ID, map[string]any{"status": order.Status})
	return order, nil
}

// Preview runs the delivery gate without mutating anything, for the
// dashboard's pre-flight check.
func (s *Service) Preview(ctx context.Context, id string) (Decision, error) {
	order, err := s.Store.GetOrder(ctx, id)
	if err != nil {
		return Decision{}, err
	}
	return CanDeliver(order), nil
}

func (s *Service) emit(ctx context.Context, topic, aggregateID string, payload any) {
	if s.Events == nil {
		return
	}
	if _, err := s.Events.Emit(ctx, topic, aggregateID, payload); err != nil {
		s.Logger.Warn().Err(err).Str("topic", topic).Msg("emit order event")
	}
}
