package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// PortalMetrics exposes counters/histograms for the booking portal flows.
type PortalMetrics struct {
	backendTotal       *prometheus.CounterVec
	backendLatency     *prometheus.HistogramVec
	suggestionFailures *prometheus.CounterVec
	suggestionsServed  prometheus.Histogram
	validationFailures *prometheus.CounterVec
	chatFallbacks      prometheus.Counter
}

func NewPortalMetrics(reg prometheus.Registerer) *PortalMetrics {
	m := &PortalMetrics{
		backendTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medbook",
			Subsystem: "backend",
			Name:      "requests_total",
			Help:      "Total booking backend requests",
		}, []string{"endpoint", "status"}),
		backendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "medbook",
			Subsystem: "backend",
			Name:      "request_latency_seconds",
			Help:      "Latency of booking backend requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		suggestionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medbook",
			Subsystem: "suggestions",
			Name:      "doctor_fetch_failures_total",
			Help:      "Per-doctor schedule fetches skipped while building suggestions",
		}, []string{"doctor_id"}),
		suggestionsServed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "medbook",
			Subsystem: "suggestions",
			Name:      "result_size",
			Help:      "Number of suggestions returned per request",
			Buckets:   []float64{0, 1, 3, 6, 9, 12},
		}),
		validationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medbook",
			Subsystem: "booking",
			Name:      "validation_failures_total",
			Help:      "Booking submissions rejected before reaching the backend",
		}, []string{"code"}),
		chatFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "medbook",
			Subsystem: "chat",
			Name:      "poll_fallbacks_total",
			Help:      "Chat subscriptions that fell back from stream to polling",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.backendTotal, m.backendLatency, m.suggestionFailures, m.suggestionsServed, m.validationFailures, m.chatFallbacks)
	return m
}

// ObserveBackendCall records one backend request; status 0 means no response.
func (m *PortalMetrics) ObserveBackendCall(endpoint string, status int, seconds float64) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.backendTotal.WithLabelValues(endpoint, label).Inc()
	m.backendLatency.WithLabelValues(endpoint).Observe(seconds)
}

func (m *PortalMetrics) ObserveSuggestionFailure(doctorID string) {
	if m == nil {
		return
	}
	m.suggestionFailures.WithLabelValues(doctorID).Inc()
}

func (m *PortalMetrics) ObserveSuggestions(n int) {
	if m == nil {
		return
	}
	m.suggestionsServed.Observe(float64(n))
}

func (m *PortalMetrics) ObserveValidationFailure(code string) {
	if m == nil {
		return
	}
	m.validationFailures.WithLabelValues(code).Inc()
}

func (m *PortalMetrics) ObserveChatFallback() {
	if m == nil {
		return
	}
	m.chatFallbacks.Inc()
}
