// Package metrics exposes Prometheus instrumentation for the merchant
// validation service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector contains all metrics for the merchant validation service.
type Collector struct {
	// Validation metrics
	ValidationsTotal      prometheus.Counter
	ValidationErrors      prometheus.Counter
	ValidationDuration    prometheus.Histogram
	RiskScoreHistogram    prometheus.Histogram
	SuspiciousValidations prometheus.Counter

	// Batch processing metrics
	BatchJobsTotal     prometheus.Counter
	BatchJobsCompleted prometheus.Counter
	BatchJobsFailed    prometheus.Counter
	BatchSizeHistogram prometheus.Histogram
	ActiveBatchJobs    prometheus.Gauge

	// Collaborator metrics
	DirectoryLookupErrors prometheus.Counter
	RegistryLookupErrors  prometheus.Counter
}

// NewCollector creates a collector registered against the given registerer.
func NewCollector(registerer prometheus.Registerer) *Collector {
	factory := promauto.With(registerer)

	return &Collector{
		ValidationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "merchant_validation_validations_total",
			Help: "The total number of merchant validations performed",
		}),
		ValidationErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "merchant_validation_validation_errors_total",
			Help: "The total number of validations that ended in an ERROR result",
		}),
		ValidationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "merchant_validation_validation_duration_seconds",
			Help:    "Duration of single merchant validations",
			Buckets: prometheus.DefBuckets,
		}),
		RiskScoreHistogram: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "merchant_validation_risk_score",
			Help:    "Distribution of composite risk scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),
		SuspiciousValidations: factory.NewCounter(prometheus.CounterOpts{
			Name: "merchant_validation_suspicious_total",
			Help: "The total number of validations flagged SUSPICIOUS",
		}),
		BatchJobsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "merchant_validation_batch_jobs_total",
			Help: "The total number of batch jobs submitted",
		}),
		BatchJobsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "merchant_validation_batch_jobs_completed_total",
			Help: "The total number of batch jobs completed",
		}),
		BatchJobsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "merchant_validation_batch_jobs_failed_total",
			Help: "The total number of batch jobs that failed",
		}),
		BatchSizeHistogram: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "merchant_validation_batch_size",
			Help:    "Distribution of submitted batch sizes",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		ActiveBatchJobs: factory.NewGauge(prometheus.GaugeOpts{
			Name: "merchant_validation_active_batch_jobs",
			Help: "The number of batch jobs currently processing",
		}),
		DirectoryLookupErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "merchant_validation_directory_lookup_errors_total",
			Help: "The total number of failed directory lookups",
		}),
		RegistryLookupErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "merchant_validation_registry_lookup_errors_total",
			Help: "The total number of failed registry lookups",
		}),
	}
}

// ObserveValidationDuration records the duration of a validation.
func (c *Collector) ObserveValidationDuration(start time.Time) {
	c.ValidationDuration.Observe(time.Since(start).Seconds())
}
