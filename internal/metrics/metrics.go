package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Signup outcome label values
const (
	OutcomeCreated       = "created"
	OutcomeAlreadyActive = "already_active"
	OutcomeReactivated   = "reactivated"
	OutcomeFailed        = "failed"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	Signups         *prometheus.CounterVec
	SignupConflicts prometheus.Counter
	Unsubscribes    prometheus.Counter
	RerankDuration  prometheus.Histogram
	ActiveEntries   prometheus.Gauge
	TotalEntries    prometheus.Gauge
	AuditRuns       prometheus.Counter
	AuditRepairs    prometheus.Counter
}

// NewMetrics creates new Prometheus metrics registered on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Signups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "waitlist_signups_total",
			Help: "Total number of signup requests by outcome",
		}, []string{"outcome"}),
		SignupConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "waitlist_signup_conflicts_total",
			Help: "Total number of unique email conflicts retried during signup",
		}),
		Unsubscribes: factory.NewCounter(prometheus.CounterOpts{
			Name: "waitlist_unsubscribes_total",
			Help: "Total number of successful unsubscribes",
		}),
		RerankDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "waitlist_rerank_duration_seconds",
			Help:    "Time spent recomputing queue positions",
			Buckets: prometheus.DefBuckets,
		}),
		ActiveEntries: factory.NewGauge(prometheus.GaugeOpts{
			Name: "waitlist_active_entries",
			Help: "Number of currently active waitlist entries",
		}),
		TotalEntries: factory.NewGauge(prometheus.GaugeOpts{
			Name: "waitlist_total_entries",
			Help: "Total number of waitlist entries (active and inactive)",
		}),
		AuditRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "waitlist_position_audit_runs_total",
			Help: "Total number of scheduled position audits",
		}),
		AuditRepairs: factory.NewCounter(prometheus.CounterOpts{
			Name: "waitlist_position_audit_repairs_total",
			Help: "Total number of audits that found and repaired inconsistent positions",
		}),
	}
}
