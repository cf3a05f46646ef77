package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Dispatch metrics
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zefiro_job_requests_total",
			Help: "Total number of run requests received by result",
		},
		[]string{"result"},
	)

	WorkloadsSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "zefiro_job_workloads_submitted_total",
			Help: "Total number of workloads submitted to the cluster",
		},
	)

	SubmissionFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "zefiro_job_submission_failures_total",
			Help: "Total number of workloads the cluster did not accept",
		},
	)

	// Lifecycle metrics
	WorkloadsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "zefiro_job_workloads_active",
			Help: "Number of workloads registered as in flight",
		},
	)

	WorkloadsFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zefiro_job_workloads_finished_total",
			Help: "Total number of workloads that reached a terminal state by state",
		},
		[]string{"state"},
	)

	WorkloadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "zefiro_job_workload_duration_seconds",
			Help:    "Container run time of finished workloads",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
	)

	LogStreamErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "zefiro_job_log_stream_errors_total",
			Help: "Total number of log streams that ended with an error",
		},
	)

	CleanupFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "zefiro_job_cleanup_failures_total",
			Help: "Total number of workloads a cleanup sweep failed to delete",
		},
	)
)

const (
	ResultAccepted = "accepted"
	ResultRejected = "rejected"
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(WorkloadsSubmitted)
	prometheus.MustRegister(SubmissionFailures)
	prometheus.MustRegister(WorkloadsActive)
	prometheus.MustRegister(WorkloadsFinished)
	prometheus.MustRegister(WorkloadDuration)
	prometheus.MustRegister(LogStreamErrors)
	prometheus.MustRegister(CleanupFailures)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
