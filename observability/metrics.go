package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments for lead delivery.
type Metrics struct {
	LeadsSentTotal      prometheus.Counter
	LeadsFailedTotal    *prometheus.CounterVec
	PostsTotal          *prometheus.CounterVec
	PostLatency         prometheus.Histogram
	TasksSubmittedTotal prometheus.Counter
	TasksDroppedTotal   *prometheus.CounterVec
	QueueDepth          prometheus.Gauge
}

// NewMetrics creates the instruments and registers them with reg.
// Pass prometheus.DefaultRegisterer to expose them on the process /metrics
// endpoint, or a fresh prometheus.NewRegistry() in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LeadsSentTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "leadcapture_leads_sent_total",
			Help: "Total number of leads accepted by the lead capture server",
		}),
		LeadsFailedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leadcapture_leads_failed_total",
			Help: "Total number of leads that could not be delivered",
		}, []string{"reason"}),
		PostsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leadcapture_posts_total",
			Help: "Total number of POST requests issued, by classified outcome",
		}, []string{"outcome"}),
		PostLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "leadcapture_post_latency_seconds",
			Help:    "Latency of POST requests to the lead capture server",
			Buckets: prometheus.DefBuckets,
		}),
		TasksSubmittedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "leadcapture_tasks_submitted_total",
			Help: "Total number of lead tasks handed to the dispatcher",
		}),
		TasksDroppedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leadcapture_tasks_dropped_total",
			Help: "Total number of lead tasks rejected before reaching a worker",
		}, []string{"reason"}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "leadcapture_queue_depth",
			Help: "Number of lead tasks waiting for a worker",
		}),
	}

	reg.MustRegister(
		m.LeadsSentTotal,
		m.LeadsFailedTotal,
		m.PostsTotal,
		m.PostLatency,
		m.TasksSubmittedTotal,
		m.TasksDroppedTotal,
		m.QueueDepth,
	)
	return m
}

// RecordPost records one POST attempt with its classified outcome and latency.
func (m *Metrics) RecordPost(outcome string, latencySeconds float64) {
	m.PostsTotal.WithLabelValues(outcome).Inc()
	m.PostLatency.Observe(latencySeconds)
}

// RecordFailure counts a lead that failed for the given reason.
func (m *Metrics) RecordFailure(reason string) {
	m.LeadsFailedTotal.WithLabelValues(reason).Inc()
}
