package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	OrdersPlaced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_placed_total",
			Help: "Orders successfully persisted, by gateway.",
		},
		[]string{"gateway"},
	)
	PaymentFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_failures_total",
			Help: "Provider charge/execute failures, by gateway and error kind.",
		},
		[]string{"gateway", "kind"},
	)
	// ReconciliationFailures counts captured charges whose local persistence
	// failed. Any increment here needs manual follow-up.
	ReconciliationFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reconciliation_failures_total",
			Help: "Charges captured by a provider with no corresponding order row.",
		},
	)
)

func init() {
	prometheus.MustRegister(OrdersPlaced, PaymentFailures, ReconciliationFailures)
}
