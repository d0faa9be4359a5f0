package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alerts_events_ingested_total",
		Help: "Total number of activity events persisted, labelled by transaction type.",
	}, []string{"type"})

	EventsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alerts_rejected_events_total",
		Help: "Total number of activity events rejected before evaluation, labelled by reason.",
	}, []string{"reason"})

	AlertsTriggered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alerts_triggered_total",
		Help: "Total number of alert codes emitted, labelled by code.",
	}, []string{"code"})

	EvaluationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "alerts_evaluation_duration_ms",
		Help:    "Alert rule evaluation latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
	})

	PublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alerts_publish_failures_total",
		Help: "Total number of alert messages that could not be published.",
	})
)

// Rejection reasons
const (
	ReasonValidation     = "validation"
	ReasonNonPositive    = "non_positive_amount"
	ReasonLockTimeout    = "lock_timeout"
	ReasonEvaluation     = "evaluation_error"
	ReasonPersistFailure = "persist_error"
)
