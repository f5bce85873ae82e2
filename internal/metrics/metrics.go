// Package metrics holds the console's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fluidbalance"

// Reasons a session ends.
const (
	ReasonLogout       = "logout"
	ReasonTimer        = "timer"
	ReasonUnauthorized = "unauthorized"
	ReasonGuard        = "guard"
	ReasonStale        = "stale"
)

type Metrics struct {
	BackendRequests *prometheus.CounterVec
	Unauthorized    prometheus.Counter
	SessionsStarted prometheus.Counter
	SessionsEnded   *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		BackendRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Requests sent to the backend, by method, public flag and status code.",
		}, []string{"method", "public", "code"}),
		Unauthorized: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_unauthorized_total",
			Help:      "Backend responses with status 401.",
		}),
		SessionsStarted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Sessions armed by login or restored from storage.",
		}),
		SessionsEnded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_ended_total",
			Help:      "Sessions torn down, by reason.",
		}, []string{"reason"}),
	}
}

// NewRegistry returns a registry with the Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}
