package resilience

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// BreakerState exposes the current state per downstream target.
	BreakerState *prometheus.GaugeVec
	// BreakerOpenedTotal counts trips into the open state.
	BreakerOpenedTotal *prometheus.CounterVec

	registerOnce sync.Once
)

// MustRegisterMetrics registers the breaker metrics, once.
func MustRegisterMetrics(namespace string, reg prometheus.Registerer) {
	registerOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		BreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "breaker_state",
			Help:      "Current breaker state: 0=closed, 1=open, 2=half-open.",
		}, []string{"target"})
		BreakerOpenedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaker_open_total",
			Help:      "Times a breaker tripped open.",
		}, []string{"target"})
		reg.MustRegister(BreakerState, BreakerOpenedTotal)
	})
}
