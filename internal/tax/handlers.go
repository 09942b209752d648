package tax

import (
	"errors"
	"net/http"

	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/common"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/money"
)

// Handler exposes the tax computation endpoint.
type Handler struct {
	config Config
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Config Config
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{config: cfg.Config}
}

type computeRequest struct {
	TotalSales float64 `json:"totalSales" validate:"gte=0"`
}

// Compute handles POST /api/v1/tax/compute. The breakdown is derived, never
// stored.
func (h *Handler) Compute(w http.ResponseWriter, r *http.Request) {
	var in computeRequest
	if err := common.DecodeAndValidate(r, &in); err != nil {
		h.writeError(w, err)
		return
	}
	total, err := money.FromFloat(in.TotalSales)
	if err != nil {
		h.writeError(w, err)
		return
	}
	breakdown, err := Compute(total, h.config)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": breakdown})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, money.ErrInvalidAmount) {
		common.JSONError(w, http.StatusBadRequest, "INVALID_AMOUNT", err.Error(), nil)
		return
	}
	common.RenderError(w, err)
}
