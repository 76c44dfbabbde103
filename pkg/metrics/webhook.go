package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WebhookMetrics records gateway webhook processing outcomes.
type WebhookMetrics struct {
	duration *prometheus.HistogramVec
	results  *prometheus.CounterVec
	rejected prometheus.Counter
}

// NewWebhookMetrics registers the webhook metrics on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "webhook_settlement_duration_seconds",
		Help:    "Duration of webhook settlement processing in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	results := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Processed webhook events by settlement kind and result.",
	}, []string{"kind", "result"})
	rejected := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "webhook_signature_rejections_total",
		Help: "Webhook deliveries rejected for a bad or missing signature.",
	})
	reg.MustRegister(duration, results, rejected)
	return &WebhookMetrics{
		duration: duration,
		results:  results,
		rejected: rejected,
	}
}

// ObserveSettlement records one settlement attempt.
func (m *WebhookMetrics) ObserveSettlement(kind, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	if m.duration != nil {
		m.duration.WithLabelValues(normalizeLabel(kind)).Observe(elapsed.Seconds())
	}
	if m.results != nil {
		m.results.WithLabelValues(normalizeLabel(kind), normalizeLabel(result)).Inc()
	}
}

// IncSignatureRejection counts a delivery that failed the signature gate.
func (m *WebhookMetrics) IncSignatureRejection() {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.Inc()
}
