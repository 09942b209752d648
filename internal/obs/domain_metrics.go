package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// StockOpsTotal counts stock ledger operations by op and result.
	StockOpsTotal *prometheus.CounterVec
	// PayrollCreditTotal counts payroll credit attempts by result.
	PayrollCreditTotal *prometheus.CounterVec
	// DeliveryGateDenied counts order-delivery transitions blocked for
	// missing payment.
	DeliveryGateDenied prometheus.Counter
)

// MustRegisterDomainMetrics initialises the domain collectors. Safe to call
// more than once; only the first call registers.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		StockOpsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_operations_total",
			Help:      "Count of stock ledger operations by outcome.",
		}, []string{"op", "result"})
		PayrollCreditTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payroll_credit_total",
			Help:      "Count of payroll credit attempts by outcome.",
		}, []string{"result"})
		DeliveryGateDenied = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_gate_denied_total",
			Help:      "Count of delivery transitions blocked by unpaid balance.",
		})
		reg.MustRegister(StockOpsTotal, PayrollCreditTotal, DeliveryGateDenied)
	})
}
