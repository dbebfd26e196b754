package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// STK Push dispatch metrics
	stkPushesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mpesa_stk_pushes_total",
		Help: "Total STK Push dispatches by outcome",
	}, []string{
		"outcome",    // success, failure
		"error_code", // taxonomy name, SUCCESS on success
	})

	stkPushDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "mpesa_stk_push_duration_seconds",
		Help: "Time from dispatch to acknowledgement or failure",
		// Buckets: 50ms to 30s (bounded by the transport timeout)
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{
		"outcome",
	})

	stkPushesInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mpesa_stk_pushes_in_flight",
		Help: "Number of STK Push dispatches currently running",
	})

	// OAuth token metrics
	tokenRefreshesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mpesa_token_refreshes_total",
		Help: "Total OAuth token refresh attempts",
	}, []string{
		"result", // taxonomy name of the outcome
	})

	// Callback metrics
	callbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mpesa_callbacks_total",
		Help: "Total STK callbacks received",
	}, []string{
		"status",      // completed, failed, rejected
		"result_code", // documented STK ResultCode, unknown, or parse_error
	})

	callbackAmountTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mpesa_callback_amount_total",
		Help: "Total amount confirmed by successful callbacks",
	})
)

// RecordSTKPush records one completed dispatch
func RecordSTKPush(outcome, errorCode string, duration float64) {
	stkPushesTotal.WithLabelValues(outcome, errorCode).Inc()
	stkPushDuration.WithLabelValues(outcome).Observe(duration)
}

// STKPushStarted marks a dispatch as in flight
func STKPushStarted() {
	stkPushesInFlight.Inc()
}

// STKPushFinished clears an in-flight dispatch
func STKPushFinished() {
	stkPushesInFlight.Dec()
}

// RecordTokenRefresh records an OAuth token refresh attempt
func RecordTokenRefresh(result string) {
	tokenRefreshesTotal.WithLabelValues(result).Inc()
}

// RecordCallback records a received callback.
// amount is only counted toward the total for completed payments.
func RecordCallback(status, resultCode string, amount float64) {
	callbacksTotal.WithLabelValues(status, resultCode).Inc()

	if status == "completed" && amount > 0 {
		callbackAmountTotal.Add(amount)
	}
}
