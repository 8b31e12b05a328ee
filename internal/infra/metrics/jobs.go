package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(jobsSubmittedTotal, jobsProcessedTotal, jobDurationSeconds)
}

var jobsSubmittedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "generation_jobs_submitted_total",
		Help: "Total number of generation jobs accepted via the API.",
	},
)

var jobsProcessedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "generation_jobs_processed_total",
		Help: "Total number of generation jobs processed, labeled by terminal status.",
	},
	[]string{"status"}, // 'completed', 'failed'
)

var jobDurationSeconds = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "generation_job_duration_seconds",
		Help:    "Wall time from claim to terminal state.",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80, 160},
	},
)

func IncJobSubmitted() { jobsSubmittedTotal.Inc() }

func IncJobProcessed(status string) {
	jobsProcessedTotal.WithLabelValues(norm(status)).Inc()
}

func ObserveJobDuration(seconds float64) { jobDurationSeconds.Observe(seconds) }
