package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// metricValue gathers reg and returns the counter value or histogram sample
// sum for the series matching name and labels. Missing series fail the test.
func metricValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if !labelsMatch(m.GetLabel(), labels) {
				continue
			}
			if h := m.GetHistogram(); h != nil {
				return h.GetSampleSum()
			}
			return m.GetCounter().GetValue()
		}
		t.Fatalf("metric %q has no series with labels %v", name, labels)
	}
	t.Fatalf("metric %q not registered", name)
	return 0
}

func labelsMatch(pairs []*dto.LabelPair, want map[string]string) bool {
	got := make(map[string]string, len(pairs))
	for _, p := range pairs {
		got[p.GetName()] = p.GetValue()
	}
	for k, v := range want {
		if got[k] != v {
			return false
		}
	}
	return true
}

func TestCronJobMetricsExportSuccessFailureAndDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)

	m.ObserveDuration("subscription-expiry", 250*time.Millisecond)
	m.IncSuccess("subscription-expiry")
	m.IncFailure("subscription-expiry")

	job := map[string]string{"job": "subscription-expiry"}
	if got := metricValue(t, reg, "cron_job_success_total", job); got != 1 {
		t.Fatalf("expected success=1, got %f", got)
	}
	if got := metricValue(t, reg, "cron_job_failure_total", job); got != 1 {
		t.Fatalf("expected failure=1, got %f", got)
	}
	if got := metricValue(t, reg, "cron_job_duration_seconds", job); got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestCronJobMetricsNilRegistererIsNoop(t *testing.T) {
	m := NewCronJobMetrics(nil)
	m.ObserveDuration("subscription-expiry", time.Millisecond)
	m.IncSuccess("subscription-expiry")
	m.IncFailure("subscription-expiry")
}

func TestWebhookMetricsExportOutcomesByKind(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWebhookMetrics(reg)

	m.ObserveSettlement("product", "settled", 120*time.Millisecond)
	m.ObserveSettlement("product", "duplicate", 5*time.Millisecond)
	m.IncSignatureRejection()

	if got := metricValue(t, reg, "webhook_events_total", map[string]string{"kind": "product", "result": "settled"}); got != 1 {
		t.Fatalf("expected settled=1, got %f", got)
	}
	if got := metricValue(t, reg, "webhook_events_total", map[string]string{"kind": "product", "result": "duplicate"}); got != 1 {
		t.Fatalf("expected duplicate=1, got %f", got)
	}
	if got := metricValue(t, reg, "webhook_settlement_duration_seconds", map[string]string{"kind": "product"}); got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
	if got := metricValue(t, reg, "webhook_signature_rejections_total", nil); got != 1 {
		t.Fatalf("expected 1 rejection, got %f", got)
	}
}

func TestWebhookMetricsNilSafe(t *testing.T) {
	var m *WebhookMetrics
	m.ObserveSettlement("product", "settled", time.Millisecond)
	m.IncSignatureRejection()
}
