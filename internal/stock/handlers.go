package stock

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/common"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/money"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/store"
)

// Handler exposes the stock endpoints.
type Handler struct {
	ledger *Ledger
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Ledger *Ledger
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{ledger: cfg.Ledger}
}

type quantityRequest struct {
	Quantity int64 `json:"quantity" validate:"gte=0"`
}

type deliverRequest struct {
	Quantity   int64 `json:"quantity" validate:"gt=0"`
	FromBuffer bool  `json:"fromBuffer"`
}

// Create handles POST /api/v1/stock.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in RegisterInput
	if err := common.DecodeAndValidate(r, &in); err != nil {
		h.writeError(w, err)
		return
	}
	item, err := h.ledger.Register(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": item})
}

// List handles GET /api/v1/stock.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.ledger.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": items})
}

// Get handles GET /api/v1/stock/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.ledger.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": item})
}

// Adjust handles PATCH /api/v1/stock/{id}/quantity.
func (h *Handler) Adjust(w http.ResponseWriter, r *http.Request) {
	var in quantityRequest
	if err := common.DecodeAndValidate(r, &in); err != nil {
		h.writeError(w, err)
		return
	}
	item, err := h.ledger.AdjustQuantity(r.Context(), chi.URLParam(r, "id"), in.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": item})
}

// SetBuffer handles PATCH /api/v1/stock/{id}/buffer.
func (h *Handler) SetBuffer(w http.ResponseWriter, r *http.Request) {
	var in quantityRequest
	if err := common.DecodeAndValidate(r, &in); err != nil {
		h.writeError(w, err)
		return
	}
	item, err := h.ledger.SetBufferStock(r.Context(), chi.URLParam(r, "id"), in.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": item})
}

// Reserve handles POST /api/v1/stock/{id}/buffer/reserve.
func (h *Handler) Reserve(w http.ResponseWriter, r *http.Request) {
	var in quantityRequest
	if err := common.DecodeAndValidate(r, &in); err != nil {
		h.writeError(w, err)
		return
	}
	item, err := h.ledger.ReserveBuffer(r.Context(), chi.URLParam(r, "id"), in.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": item})
}

// Release handles POST /api/v1/stock/{id}/buffer/release.
func (h *Handler) Release(w http.ResponseWriter, r *http.Request) {
	var in quantityRequest
	if err := common.DecodeAndValidate(r, &in); err != nil {
		h.writeError(w, err)
		return
	}
	item, err := h.ledger.ReleaseBuffer(r.Context(), chi.URLParam(r, "id"), in.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": item})
}

// Deliver handles POST /api/v1/stock/{id}/deliver.
func (h *Handler) Deliver(w http.ResponseWriter, r *http.Request) {
	var in deliverRequest
	if err := common.DecodeAndValidate(r, &in); err != nil {
		h.writeError(w, err)
		return
	}
	item, err := h.ledger.Deliver(r.Context(), chi.URLParam(r, "id"), in.Quantity, in.FromBuffer)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": item})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var qErr *QuantityError
	if errors.As(err, &qErr) {
		details := map[string]any{"attempted": qErr.Attempted, "available": qErr.Available}
		switch {
		case errors.Is(err, ErrInvalidQuantity):
			common.JSONError(w, http.StatusBadRequest, "INVALID_QUANTITY", qErr.Error(), details)
		case errors.Is(err, ErrInsufficientStock):
			common.JSONError(w, http.StatusConflict, "INSUFFICIENT_STOCK", qErr.Error(), details)
		case errors.Is(err, ErrInsufficientBuffer):
			common.JSONError(w, http.StatusConflict, "INSUFFICIENT_BUFFER", qErr.Error(), details)
		case errors.Is(err, ErrBufferBelowReserved):
			common.JSONError(w, http.StatusConflict, "BUFFER_BELOW_RESERVED", qErr.Error(), details)
		default:
			common.JSONError(w, http.StatusConflict, "STOCK_CONFLICT", qErr.Error(), details)
		}
		return
	}
	switch {
	case errors.Is(err, money.ErrInvalidAmount):
		common.JSONError(w, http.StatusBadRequest, "INVALID_AMOUNT", err.Error(), nil)
	case errors.Is(err, store.ErrDuplicateSKU):
		common.JSONError(w, http.StatusConflict, "DUPLICATE_SKU", err.Error(), nil)
	case errors.Is(err, store.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "stock item not found", nil)
	default:
		common.RenderError(w, err)
	}
}
