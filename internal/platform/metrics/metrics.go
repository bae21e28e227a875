package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	RecordsCreated prometheus.Counter
	RecordsRevoked prometheus.Counter
	RecordsRenewed prometheus.Counter

	// StatusTransitions counts sweep-driven lifecycle transitions by target status.
	StatusTransitions *prometheus.CounterVec

	RequestLatency *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		RecordsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "consentdesk_records_created_total",
			Help: "Total number of consent records created",
		}),
		RecordsRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "consentdesk_records_revoked_total",
			Help: "Total number of consent records revoked (deleted)",
		}),
		RecordsRenewed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "consentdesk_records_renewed_total",
			Help: "Total number of consent records renewed",
		}),
		StatusTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "consentdesk_status_transitions_total",
			Help: "Lifecycle transitions applied by the status sweep",
		}, []string{"to"}),
		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "consentdesk_http_request_duration_seconds",
			Help:    "HTTP request duration by route and status code",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "code"}),
	}
}

// Increment helpers are nil-safe so tests can run without a registry.

func (m *Metrics) IncRecordsCreated() {
	if m != nil {
		m.RecordsCreated.Inc()
	}
}

func (m *Metrics) IncRecordsRevoked() {
	if m != nil {
		m.RecordsRevoked.Inc()
	}
}

func (m *Metrics) IncRecordsRenewed() {
	if m != nil {
		m.RecordsRenewed.Inc()
	}
}

func (m *Metrics) IncStatusTransition(to string) {
	if m != nil {
		m.StatusTransitions.WithLabelValues(to).Inc()
	}
}

// ObserveRequest records one HTTP request observation.
func (m *Metrics) ObserveRequest(route, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestLatency.WithLabelValues(route, code).Observe(d.Seconds())
}
