package order

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/common"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/domain"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/money"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/store"
)

// Handler exposes the order endpoints.
type Handler struct {
	service *Service
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service}
}

type paymentRequest struct {
	Amount float64 `json:"amount" validate:"gt=0"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING CONFIRMED PROCESSING SHIPPED DELIVERED CANCELLED"`
}

// Create handles POST /api/v1/orders.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := common.DecodeAndValidate(r, &in); err != nil {
		h.writeError(w, err)
		return
	}
	ord, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": ord})
}

// List handles GET /api/v1/orders.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": orders})
}

// Get handles GET /api/v1/orders/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ord, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": ord})
}

// RecordPayment handles POST /api/v1/orders/{id}/payments.
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var in paymentRequest
	if err := common.DecodeAndValidate(r, &in); err != nil {
		h.writeError(w, err)
		return
	}
	ord, err := h.service.RecordPayment(r.Context(), chi.URLParam(r, "id"), in.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": ord})
}

// UpdateStatus handles PATCH /api/v1/orders/{id}/status.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var in statusRequest
	if err := common.DecodeAndValidate(r, &in); err != nil {
		h.writeError(w, err)
		return
	}
	ord, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), domain.OrderStatus(in.Status))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": ord})
}

// DeliveryCheck handles GET /api/v1/orders/{id}/delivery-check. It reports
// whether the gate would allow delivery and the outstanding balance if not.
func (h *Handler) DeliveryCheck(w http.ResponseWriter, r *http.Request) {
	decision, err := h.service.Preview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": decision})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var unpaid *UnpaidError
	switch {
	case errors.As(err, &unpaid):
		common.JSONError(w, http.StatusConflict, "UNPAID_DELIVERY", unpaid.Error(),
			map[string]any{"shortfall": unpaid.Shortfall})
	case errors.Is(err, ErrInvalidTransition):
		common.JSONError(w, http.StatusConflict, "INVALID_TRANSITION", err.Error(), nil)
	case errors.Is(err, money.ErrInvalidAmount):
		common.JSONError(w, http.StatusBadRequest, "INVALID_AMOUNT", err.Error(), nil)
	case errors.Is(err, store.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
	default:
		common.RenderError(w, err)
	}
}
