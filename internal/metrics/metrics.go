package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Tracks listing mutations on the catalog.
	ListingMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_listing_mutations_total",
			Help: "Total catalog listing mutations (by action and result).",
		},
		[]string{"action", "result"}, // action = "add" | "remove" | "mark_sold"
	)

	// Tracks cart operations, including rejections.
	CartOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_cart_operations_total",
			Help: "Total cart operations (by op and result).",
		},
		[]string{"op", "result"}, // op = "add" | "remove" | "clear"
	)

	// Tracks checkout flows by terminal state.
	CheckoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_checkouts_total",
			Help: "Total checkout flows by terminal state.",
		},
		[]string{"state"}, // "settled" | "failed"
	)

	// Measures end-to-end checkout duration, simulated delays included.
	CheckoutDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketplace_checkout_duration_seconds",
			Help:    "Duration of checkout flows in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms → ~16s
		},
		[]string{"state"},
	)

	// Counts orders committed to the ledger.
	OrdersCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "marketplace_orders_created_total",
			Help: "Total orders committed to the ledger.",
		},
	)

	// Gauges the total value currently held in escrow.
	EscrowHeldValue = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "marketplace_escrow_held_value",
			Help: "Sum of prices across orders whose payment is in escrow.",
		},
	)

	// Tracks NATS messages published by subject and result.
	NATSMessageCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nats_messages_total",
			Help: "Total number of NATS messages published.",
		},
		[]string{"subject", "result"}, // result = "ok" | "error"
	)

	NATSMessageLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nats_message_latency_seconds",
			Help:    "Time taken to publish NATS messages",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"subject"},
	)

	// Tracks total errors (aggregated).
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_errors_total",
			Help: "Count of service-level errors by component.",
		},
		[]string{"component", "reason"},
	)
)

// ObserveDuration records the time taken since start on the given histogram.
func ObserveDuration(v interface{}, start time.Time, labels ...string) {
	duration := time.Since(start).Seconds()

	switch metric := v.(type) {
	case *prometheus.HistogramVec:
		metric.WithLabelValues(labels...).Observe(duration)
	case *prometheus.SummaryVec:
		metric.WithLabelValues(labels...).Observe(duration)
	default:
		// counters are not meant for duration tracking
	}
}

func IncListingMutation(action, result string) {
	ListingMutationsTotal.WithLabelValues(action, result).Inc()
}

func IncCartOp(op, result string) {
	CartOpsTotal.WithLabelValues(op, result).Inc()
}

func IncCheckout(state string) {
	CheckoutsTotal.WithLabelValues(state).Inc()
}

func IncNATSMessage(subject, result string) {
	NATSMessageCount.WithLabelValues(subject, result).Inc()
}

func IncError(component, reason string) {
	ErrorsTotal.WithLabelValues(component, reason).Inc()
}
