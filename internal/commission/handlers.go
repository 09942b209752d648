package commission

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/common"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/money"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/payroll"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/store"
)

// Handler exposes the commission endpoints.
type Handler struct {
	workflow *Workflow
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Workflow *Workflow
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{workflow: cfg.Workflow}
}

type previewRequest struct {
	Price float64 `json:"price" validate:"gt=0"`
}

// Create handles POST /api/v1/commissions.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := common.DecodeAndValidate(r, &in); err != nil {
		h.writeError(w, err)
		return
	}
	rec, err := h.workflow.CreateFromPackageSale(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": rec})
}

// List handles GET /api/v1/commissions.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	recs, err := h.workflow.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": recs})
}

// Get handles GET /api/v1/commissions/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.workflow.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rec})
}

// Approve handles POST /api/v1/commissions/{id}/approve/{part}.
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	approval, err := h.workflow.ApprovePart(r.Context(), chi.URLParam(r, "id"), Part(chi.URLParam(r, "part")))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": approval})
}

// PreviewSales handles POST /api/v1/commissions/preview/sales. It computes
// the course follow-up commission without persisting anything.
func (h *Handler) PreviewSales(w http.ResponseWriter, r *http.Request) {
	var in previewRequest
	if err := common.DecodeAndValidate(r, &in); err != nil {
		h.writeError(w, err)
		return
	}
	price, err := money.FromFloat(in.Price)
	if err != nil {
		h.writeError(w, err)
		return
	}
	res, err := ComputeSales(price)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": res})
}

// PreviewPackage handles POST /api/v1/commissions/preview/package.
func (h *Handler) PreviewPackage(w http.ResponseWriter, r *http.Request) {
	var in previewRequest
	if err := common.DecodeAndValidate(r, &in); err != nil {
		h.writeError(w, err)
		return
	}
	value, err := money.FromFloat(in.Price)
	if err != nil {
		h.writeError(w, err)
		return
	}
	res, err := ComputePackage(value)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": res})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnknownPart):
		common.JSONError(w, http.StatusBadRequest, "UNKNOWN_PART", err.Error(), nil)
	case errors.Is(err, money.ErrInvalidAmount):
		common.JSONError(w, http.StatusBadRequest, "INVALID_AMOUNT", err.Error(), nil)
	case errors.Is(err, payroll.ErrCreditFailed):
		common.JSONError(w, http.StatusBadGateway, "PAYROLL_CREDIT_FAILED", err.Error(), nil)
	case errors.Is(err, store.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "commission record not found", nil)
	default:
		common.RenderError(w, err)
	}
}
