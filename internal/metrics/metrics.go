// Package metrics holds the Prometheus collectors for the meal analysis pipeline.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Upload outcomes.
const (
	OutcomeAnalyzed           = "analyzed"
	OutcomeFallback           = "fallback"
	OutcomeOwnerNotFound      = "owner_not_found"
	OutcomeStorageFailure     = "storage_failure"
	OutcomePersistenceFailure = "persistence_failure"
)

// Deletion outcomes.
const (
	DeleteDeleted  = "deleted"
	DeleteNotFound = "not_found"
	DeleteFailed   = "failed"
)

// PipelineMetrics counts uploads and deletions and times inference calls.
// A nil *PipelineMetrics is valid and records nothing.
type PipelineMetrics struct {
	Uploads            *prometheus.CounterVec
	Deletions          *prometheus.CounterVec
	FileCleanupErrors  prometheus.Counter
	InferenceDuration  prometheus.Histogram
	InferenceAvailable *prometheus.CounterVec
}

// NewPipelineMetrics creates the collectors and registers them with registry.
func NewPipelineMetrics(registry prometheus.Registerer) (*PipelineMetrics, error) {
	m := &PipelineMetrics{
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meal_uploads_total",
			Help: "Total number of meal image uploads by outcome.",
		}, []string{"outcome"}),
		Deletions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meal_image_deletions_total",
			Help: "Total number of image deletion requests by outcome.",
		}, []string{"outcome"}),
		FileCleanupErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meal_image_file_cleanup_errors_total",
			Help: "Total number of stored files that could not be removed on delete.",
		}),
		InferenceDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "meal_inference_duration_seconds",
			Help:    "Duration of nutrition inference calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
		}),
		InferenceAvailable: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meal_inference_results_total",
			Help: "Total number of inference calls by whether an estimate was produced.",
		}, []string{"available"}),
	}

	for _, c := range []prometheus.Collector{
		m.Uploads, m.Deletions, m.FileCleanupErrors, m.InferenceDuration, m.InferenceAvailable,
	} {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register pipeline metrics: %w", err)
		}
	}
	return m, nil
}

func (m *PipelineMetrics) ObserveUpload(outcome string) {
	if m == nil {
		return
	}
	m.Uploads.WithLabelValues(outcome).Inc()
}

func (m *PipelineMetrics) ObserveDeletion(outcome string) {
	if m == nil {
		return
	}
	m.Deletions.WithLabelValues(outcome).Inc()
}

func (m *PipelineMetrics) IncFileCleanupErrors() {
	if m == nil {
		return
	}
	m.FileCleanupErrors.Inc()
}

// ObserveInference records one inference call.
func (m *PipelineMetrics) ObserveInference(seconds float64, available bool) {
	if m == nil {
		return
	}
	m.InferenceDuration.Observe(seconds)
	label := "false"
	if available {
		label = "true"
	}
	m.InferenceAvailable.WithLabelValues(label).Inc()
}
