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

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of jobs currently being processed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	RecommendationCacheReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_cache_reads_total",
			Help: "Recommendation cache reads by outcome (hit, miss, error)",
		},
		[]string{"outcome"},
	)

	CandidatesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ranking_candidates_skipped_total",
			Help: "Candidates excluded from ranking for missing mandatory fields",
		},
	)
)
