package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Revaluation metrics
	RevaluationRuns      *prometheus.CounterVec
	RevaluationDuration  prometheus.Histogram
	RevaluationMoves     *prometheus.CounterVec
	RevaluationAmount    *prometheus.HistogramVec
	RevaluationSkipped   prometheus.Counter
	RevaluationReversals prometheus.Counter

	// Rate metrics
	RatesSet        prometheus.Counter
	RateCacheLookup *prometheus.CounterVec

	// Outbox metrics
	EventsPublished *prometheus.CounterVec

	// Audit metrics
	AuditLogsCreated *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		RevaluationRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxreval_revaluation_runs_total",
				Help: "Total revaluation runs by outcome",
			},
			[]string{"outcome"},
		),
		RevaluationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fxreval_revaluation_duration_seconds",
			Help:    "Duration of revaluation runs",
			Buckets: prometheus.DefBuckets,
		}),
		RevaluationMoves: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxreval_revaluation_moves_total",
				Help: "Total revaluation entries posted by sign",
			},
			[]string{"sign"},
		),
		RevaluationAmount: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fxreval_revaluation_amount",
				Help:    "Home currency amount of revaluation entries",
				Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
			},
			[]string{"sign"},
		),
		RevaluationSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fxreval_revaluation_groups_skipped_total",
			Help: "Total balance groups skipped because they were revalued at a later date",
		}),
		RevaluationReversals: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fxreval_revaluation_reversals_total",
			Help: "Total revaluation entries reversed",
		}),

		RatesSet: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fxreval_rates_set_total",
			Help: "Total exchange rates written",
		}),
		RateCacheLookup: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxreval_rate_cache_lookups_total",
				Help: "Rate cache lookups by result",
			},
			[]string{"result"},
		),

		EventsPublished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxreval_outbox_events_published_total",
				Help: "Total outbox events handed to the publisher",
			},
			[]string{"event_type"},
		),

		AuditLogsCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxreval_audit_logs_total",
				Help: "Total audit logs created",
			},
			[]string{"action", "status"},
		),
	}
}
