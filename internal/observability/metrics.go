// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Evaluation metrics
	EvaluationsTotal   *prometheus.CounterVec
	EvaluationDuration prometheus.Histogram
	BreachesDetected   *prometheus.CounterVec
	AnchorsCreated     prometheus.Counter
	AnchorConflicts    prometheus.Counter

	// Batch metrics
	BatchRunsTotal    *prometheus.CounterVec
	BatchDuration     prometheus.Histogram
	AccountsEvaluated prometheus.Counter
	AccountsFailed    prometheus.Counter

	// Ingestion metrics
	FillsReceived    prometheus.Counter
	FillsStored      prometheus.Counter
	FillsDuplicated  prometheus.Counter
	IngestionErrors  *prometheus.CounterVec
	WSReconnects     prometheus.Counter
	WSMessageLatency prometheus.Histogram

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulBatch prometheus.Gauge
	UptimeSeconds       prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "propeval"
	}

	return &Metrics{
		// Evaluation metrics
		EvaluationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evaluation",
			Name:      "evaluations_total",
			Help:      "Total number of phase evaluations by next action",
		}, []string{"action"}),
		EvaluationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "evaluation",
			Name:      "duration_seconds",
			Help:      "Single phase evaluation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		BreachesDetected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evaluation",
			Name:      "breaches_detected_total",
			Help:      "Total number of breaches detected by type",
		}, []string{"breach_type"}),
		AnchorsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evaluation",
			Name:      "anchors_created_total",
			Help:      "Total number of daily anchors lazily created",
		}),
		AnchorConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evaluation",
			Name:      "anchor_conflicts_total",
			Help:      "Total number of anchor creates lost to a concurrent writer",
		}),

		// Batch metrics
		BatchRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "runs_total",
			Help:      "Total number of batch evaluation runs by status",
		}, []string{"status"}),
		BatchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "duration_seconds",
			Help:      "Batch evaluation run duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		AccountsEvaluated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "accounts_evaluated_total",
			Help:      "Total number of phase accounts evaluated",
		}),
		AccountsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "accounts_failed_total",
			Help:      "Total number of phase accounts transitioned to failed",
		}),

		// Ingestion metrics
		FillsReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "fills_received_total",
			Help:      "Total number of trade fills received",
		}),
		FillsStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "fills_stored_total",
			Help:      "Total number of trade fills stored to database",
		}),
		FillsDuplicated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "fills_duplicated_total",
			Help:      "Total number of trade fills skipped as duplicates",
		}),
		IngestionErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "errors_total",
			Help:      "Total number of ingestion errors by type",
		}, []string{"error_type"}),
		WSReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "ws_reconnects_total",
			Help:      "Total number of WebSocket reconnections",
		}),
		WSMessageLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "ws_message_latency_seconds",
			Help:      "WebSocket message processing latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulBatch: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_batch_timestamp",
			Help:      "Unix timestamp of last successful batch run",
		}),
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordEvaluation records a completed evaluation and its outcome.
func RecordEvaluation(action string, durationSeconds float64) {
	DefaultMetrics.EvaluationsTotal.WithLabelValues(action).Inc()
	DefaultMetrics.EvaluationDuration.Observe(durationSeconds)
}

// RecordBreach increments the breach counter for one breach type.
func RecordBreach(breachType string) {
	DefaultMetrics.BreachesDetected.WithLabelValues(breachType).Inc()
}

// RecordAnchorCreated increments the anchors created counter.
func RecordAnchorCreated() {
	DefaultMetrics.AnchorsCreated.Inc()
}

// RecordAnchorConflict increments the anchor conflict counter.
func RecordAnchorConflict() {
	DefaultMetrics.AnchorConflicts.Inc()
}

// RecordBatchRun records a batch run outcome.
func RecordBatchRun(status string, durationSeconds float64) {
	DefaultMetrics.BatchRunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.BatchDuration.Observe(durationSeconds)
}

// RecordFillStored increments the fills stored counter.
func RecordFillStored() {
	DefaultMetrics.FillsStored.Inc()
}

// RecordFillDuplicate increments the duplicate fills counter.
func RecordFillDuplicate() {
	DefaultMetrics.FillsDuplicated.Inc()
}

// RecordIngestionError records an ingestion error.
func RecordIngestionError(errorType string) {
	DefaultMetrics.IngestionErrors.WithLabelValues(errorType).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
