package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Probe checks one backing dependency within the supplied context.
type Probe func(ctx context.Context) error

// Handler exposes liveness and readiness endpoints. Probes are optional; a
// nil probe is reported as "skipped" so a dev deployment without Redis or
// Postgres still reports ready.
type Handler struct {
	Probes  map[string]Probe
	Timeout time.Duration
}

// Live reports process liveness.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready probes every dependency and reports per-dependency status.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}

	status := make(map[string]string, len(h.Probes))
	ready := true
	for name, probe := range h.Probes {
		if probe == nil {
			status[name] = "skipped"
			continue
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		if err := probe(ctx); err != nil {
			status[name] = err.Error()
			ready = false
		} else {
			status[name] = "ok"
		}
		cancel()
	}

	w.Header().Set("Content-Type", "application/json")
	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"ready": ready, "checks": status})
}
