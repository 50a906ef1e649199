package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "market_bot_orders_created_total",
		Help: "Total number of orders persisted.",
	})

	Payments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "market_bot_payments_total",
		Help: "Payment initiation outcomes.",
	}, []string{"status"})

	CartOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "market_bot_cart_operations_total",
		Help: "Cart operations by type.",
	}, []string{"operation"})

	CheckoutDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "market_bot_checkout_finalize_seconds",
		Help:    "Duration of the checkout finalize step.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
