package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the gateway.
type Metrics struct {
	WizardsStarted     prometheus.Counter
	ActiveWizards      prometheus.Gauge
	Submissions        *prometheus.CounterVec
	SubmissionFailures *prometheus.CounterVec
	GroupFallbacks     prometheus.Counter
	EndpointLatency    *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		WizardsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coopgate_wizards_started_total",
			Help: "Total number of registration wizards created",
		}),
		ActiveWizards: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "coopgate_active_wizards",
			Help: "Current number of live wizard instances",
		}),
		Submissions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "coopgate_submissions_total",
			Help: "Total registration submissions relayed upstream, labeled by actor role",
		}, []string{"role"}),
		SubmissionFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "coopgate_submission_failures_total",
			Help: "Total failed registration submissions, labeled by failure reason",
		}, []string{"reason"}),
		GroupFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coopgate_group_fallbacks_total",
			Help: "Times the static group table was served because the upstream list was unavailable",
		}),
		EndpointLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coopgate_endpoint_latency_seconds",
			Help:    "Latency of endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
}

// IncrementWizardsStarted increments the wizards created counter by 1.
func (m *Metrics) IncrementWizardsStarted() {
	m.WizardsStarted.Inc()
	m.ActiveWizards.Inc()
}

// DecrementActiveWizards lowers the live-wizard gauge by count.
func (m *Metrics) DecrementActiveWizards(count int) {
	m.ActiveWizards.Sub(float64(count))
}

// IncrementSubmissions increments the submission counter for a role.
func (m *Metrics) IncrementSubmissions(role string) {
	m.Submissions.WithLabelValues(role).Inc()
}

// IncrementSubmissionFailures increments the failure counter for a reason.
func (m *Metrics) IncrementSubmissionFailures(reason string) {
	m.SubmissionFailures.WithLabelValues(reason).Inc()
}

// IncrementGroupFallbacks increments the static-table fallback counter.
func (m *Metrics) IncrementGroupFallbacks() {
	m.GroupFallbacks.Inc()
}

// ObserveEndpointLatency records the latency for a given endpoint.
func (m *Metrics) ObserveEndpointLatency(endpoint string, durationSeconds float64) {
	m.EndpointLatency.WithLabelValues(endpoint).Observe(durationSeconds)
}
