package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Pipeline runs by terminal status (completed / failed)
	PipelineRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_runs_total",
		Help: "Total number of pipeline runs by terminal status",
	}, []string{"status"})

	// Wall-clock duration of completed pipeline runs
	PipelineDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pipeline_run_duration_seconds",
		Help:    "Duration of completed pipeline runs",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
	})

	// Candidates selected by the urgency stage in the latest run
	CandidatesSelected = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pipeline_candidates_selected",
		Help: "Promotion candidates selected in the latest pipeline run",
	})

	// Recommendations written by the latest run
	RecommendationsGenerated = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pipeline_recommendations_generated",
		Help: "Recommendations written by the latest pipeline run",
	})

	// Latency of the recommendation read handlers
	RecommendationReadLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "recommendation_read_latency_seconds",
		Help:    "Latency of recommendation read handlers",
		Buckets: prometheus.DefBuckets,
	})
)

func Init() {
	prometheus.MustRegister(
		PipelineRunsTotal,
		PipelineDuration,
		CandidatesSelected,
		RecommendationsGenerated,
		RecommendationReadLatency,
	)
}
