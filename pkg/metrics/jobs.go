package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// JobMetrics records metadata for the engine's periodic jobs (ticket sweeps,
// promotion re-evaluation, offline drains).
type JobMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	evicted  *prometheus.CounterVec
}

// NewJobMetrics registers the job metrics on the provided registerer.
func NewJobMetrics(reg prometheus.Registerer) *JobMetrics {
	if reg == nil {
		return &JobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pos_job_duration_seconds",
		Help:    "Duration of periodic engine jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_job_success",
		Help: "Successful periodic job executions.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_job_failure",
		Help: "Failed periodic job executions.",
	}, []string{"job"})
	evicted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_tickets_evicted_total",
		Help: "Kitchen tickets evicted by the expiry sweep.",
	}, []string{"order_type"})
	reg.MustRegister(duration, success, failure, evicted)
	return &JobMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		evicted:  evicted,
	}
}

// ObserveDuration records the duration for the named job.
func (j *JobMetrics) ObserveDuration(job string, duration time.Duration) {
	if j == nil || j.duration == nil {
		return
	}
	j.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named job.
func (j *JobMetrics) IncSuccess(job string) {
	if j == nil || j.success == nil {
		return
	}
	j.success.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncFailure increments the failure counter for the named job.
func (j *JobMetrics) IncFailure(job string) {
	if j == nil || j.failure == nil {
		return
	}
	j.failure.WithLabelValues(normalizeLabel(job)).Inc()
}

// AddEvicted counts tickets evicted from one queue.
func (j *JobMetrics) AddEvicted(orderType string, count int) {
	if j == nil || j.evicted == nil || count <= 0 {
		return
	}
	j.evicted.WithLabelValues(normalizeLabel(orderType)).Add(float64(count))
}

func normalizeLabel(label string) string {
	if label == "" {
		return "unknown"
	}
	return strings.ToLower(label)
}
