package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecoveriesTotal tracks executed recoveries by category, action and result
	RecoveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mend_recoveries_total",
			Help: "Total number of executed recovery actions",
		},
		[]string{"category", "action", "result"},
	)

	// DecisionsTotal tracks analyzer decisions by category and action
	DecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mend_decisions_total",
			Help: "Total number of recovery decisions",
		},
		[]string{"category", "action"},
	)

	// BackoffDelay tracks applied backoff delays
	BackoffDelay = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mend_backoff_delay_seconds",
			Help:    "Backoff delay applied before recovery actions",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"category"},
	)

	// RecoveryDuration tracks wall-clock recovery durations
	RecoveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mend_recovery_duration_seconds",
			Help:    "Wall-clock duration of executed recoveries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"category"},
	)

	// ActiveFailures tracks live failure keys per category
	ActiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mend_active_failures",
			Help: "Failure keys active within the rolling window",
		},
		[]string{"category"},
	)

	// RecentSuccessRate tracks the rolling-window recovery success rate
	RecentSuccessRate = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mend_recent_success_rate",
			Help: "Recovery success rate over the rolling window, in percent",
		},
	)
)
