// Package metrics exposes Prometheus counters for the dispatch pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	TasksEnqueued  *prometheus.CounterVec
	TasksCompleted *prometheus.CounterVec
	RateLimited    prometheus.Counter
	OTPRejected    *prometheus.CounterVec

	registry *prometheus.Registry
}

// New builds a Metrics set on its own registry so tests can construct
// several instances without duplicate-registration panics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		TasksEnqueued: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_tasks_enqueued_total",
			Help: "Tasks published to the broker, by destination queue.",
		}, []string{"queue"}),
		TasksCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_tasks_completed_total",
			Help: "Tasks finished by workers, by terminal status.",
		}, []string{"status"}),
		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Name: "gateway_rate_limited_total",
			Help: "Requests rejected by the fixed-window rate limiter.",
		}),
		OTPRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_otp_rejected_total",
			Help: "OTP verification failures, by reason.",
		}, []string{"reason"}),
		registry: reg,
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
