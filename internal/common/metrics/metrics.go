// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	// Entities replaced by placeholders, per category. Values are never exported.
	AnonymizedEntities = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anonymization_entities_total",
			Help: "Number of sensitive entities replaced by placeholders",
		},
		[]string{"category"},
	)

	// outcome is "enriched" or the fallback reason.
	EnrichmentOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_outcomes_total",
			Help: "Enrichment attempts by outcome",
		},
		[]string{"kind", "outcome"},
	)

	TemplateRenderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "template_render_duration_seconds",
			Help:    "Duration of template rendering in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5},
		},
		[]string{"template_id"},
	)
)

// RecordEntities adds per-category counts to AnonymizedEntities.
func RecordEntities[K ~string](stats map[K]int) {
	for category, n := range stats {
		if n > 0 {
			AnonymizedEntities.WithLabelValues(string(category)).Add(float64(n))
		}
	}
}
