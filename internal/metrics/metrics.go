// Package metrics exposes healthform counters to prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics implements submission.Observer and controller.Metrics.
type Metrics struct {
	Submissions        *prometheus.CounterVec
	SubmissionDuration prometheus.Histogram
	ValidationFailures *prometheus.CounterVec
	SessionsActive     prometheus.Gauge
}

// New registers the collectors on reg. A nil reg uses a private registry so
// repeated calls never collide.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		Submissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "healthform_submissions_total",
				Help: "Prediction requests by outcome",
			},
			[]string{"outcome"},
		),
		SubmissionDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "healthform_submission_duration_seconds",
				Help:    "Duration of prediction requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		ValidationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "healthform_validation_failures_total",
				Help: "Rejected submit attempts by field",
			},
			[]string{"field"},
		),
		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "healthform_sessions_active",
				Help: "Form sessions held by the server",
			},
		),
	}
}

func (m *Metrics) ObserveSubmission(outcome string, elapsed time.Duration) {
	m.Submissions.WithLabelValues(outcome).Inc()
	m.SubmissionDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) ValidationFailed(field string) {
	m.ValidationFailures.WithLabelValues(field).Inc()
}

func (m *Metrics) SessionOpened() { m.SessionsActive.Inc() }

func (m *Metrics) SessionClosed() { m.SessionsActive.Dec() }
