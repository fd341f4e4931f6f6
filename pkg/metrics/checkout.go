package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records order lifecycle counters.
type CheckoutMetrics struct {
	ordersCreated       prometheus.Counter
	checkoutFailures    *prometheus.CounterVec
	statusTransitions   *prometheus.CounterVec
	notifyFailures      prometheus.Counter
	checkoutDuration    prometheus.Histogram
}

// NewCheckoutMetrics registers the order metrics on the provided registerer.
// A nil registerer yields a no-op instance, which keeps tests quiet.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	ordersCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders successfully created from carts.",
	})
	checkoutFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failures_total",
		Help: "Checkout attempts rejected, by error code.",
	}, []string{"code"})
	statusTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Order status transitions applied, by target status.",
	}, []string{"status"})
	notifyFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notification_delivery_failures_total",
		Help: "Push deliveries that the notifier rejected.",
	})
	checkoutDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout transactions in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(ordersCreated, checkoutFailures, statusTransitions, notifyFailures, checkoutDuration)
	return &CheckoutMetrics{
		ordersCreated:     ordersCreated,
		checkoutFailures:  checkoutFailures,
		statusTransitions: statusTransitions,
		notifyFailures:    notifyFailures,
		checkoutDuration:  checkoutDuration,
	}
}

// IncOrderCreated counts a successful checkout.
func (m *CheckoutMetrics) IncOrderCreated() {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.Inc()
}

// IncCheckoutFailure counts a rejected checkout by error code.
func (m *CheckoutMetrics) IncCheckoutFailure(code string) {
	if m == nil || m.checkoutFailures == nil {
		return
	}
	m.checkoutFailures.WithLabelValues(normalizeLabel(code)).Inc()
}

// IncStatusTransition counts a status transition by target status.
func (m *CheckoutMetrics) IncStatusTransition(status string) {
	if m == nil || m.statusTransitions == nil {
		return
	}
	m.statusTransitions.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncNotifyFailure counts a push delivery the transport rejected.
func (m *CheckoutMetrics) IncNotifyFailure() {
	if m == nil || m.notifyFailures == nil {
		return
	}
	m.notifyFailures.Inc()
}

// ObserveCheckoutDuration records the wall time of a checkout transaction.
func (m *CheckoutMetrics) ObserveCheckoutDuration(seconds float64) {
	if m == nil || m.checkoutDuration == nil {
		return
	}
	m.checkoutDuration.Observe(seconds)
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return "unknown"
	}
	return value
}
