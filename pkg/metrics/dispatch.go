package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DispatchMetrics records per-token push send outcomes and dispatch timing.
type DispatchMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewDispatchMetrics registers the dispatch metrics on the provided registerer.
func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	if reg == nil {
		return &DispatchMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dispatch_duration_seconds",
		Help:    "Duration of notification dispatches in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"recipient"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "push_send_success",
		Help: "Successful per-token push sends.",
	}, []string{"recipient"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "push_send_failure",
		Help: "Failed per-token push sends.",
	}, []string{"recipient"})
	reg.MustRegister(duration, success, failure)
	return &DispatchMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// ObserveDuration records how long a full dispatch took for the recipient.
func (d *DispatchMetrics) ObserveDuration(recipient string, duration time.Duration) {
	if d == nil || d.duration == nil {
		return
	}
	d.duration.WithLabelValues(normalizeLabel(recipient)).Observe(duration.Seconds())
}

// IncSuccess increments the per-token success counter for the recipient.
func (d *DispatchMetrics) IncSuccess(recipient string) {
	if d == nil || d.success == nil {
		return
	}
	d.success.WithLabelValues(normalizeLabel(recipient)).Inc()
}

// IncFailure increments the per-token failure counter for the recipient.
func (d *DispatchMetrics) IncFailure(recipient string) {
	if d == nil || d.failure == nil {
		return
	}
	d.failure.WithLabelValues(normalizeLabel(recipient)).Inc()
}

func normalizeLabel(recipient string) string {
	if recipient == "" {
		return "unknown"
	}
	return recipient
}
