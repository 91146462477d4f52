package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	operations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "devserv",
			Subsystem: "registry",
			Name:      "operations_total",
			Help:      "Facade operations by name and outcome.",
		}, []string{"op", "outcome"},
	)
	startActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "devserv",
			Subsystem: "registry",
			Name:      "start_actions_total",
			Help:      "Reconcile decisions taken on start (started, restarted, recreated, already-running).",
		}, []string{"action"},
	)
	endpointDiscoveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "devserv",
			Subsystem: "registry",
			Name:      "endpoint_discoveries_total",
			Help:      "Endpoint discovery attempts after a start, by result.",
		}, []string{"result"},
	)
	freshLogBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "devserv",
			Subsystem: "registry",
			Name:      "fresh_log_bytes_total",
			Help:      "Bytes served through fresh-only log reads.",
		},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{operations, startActions, endpointDiscoveries, freshLogBytes}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			// If already registered, ignore (allows double Register with default registry)
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler serving Prometheus metrics for the
// DefaultGatherer. The caller wires the route.
func Handler() http.Handler { return promhttp.Handler() }

// Below are lightweight helpers used by internal packages to record metrics.
// They no-op if Register hasn't been called.

func IncOperation(op, outcome string) {
	if regOK.Load() {
		operations.WithLabelValues(op, outcome).Inc()
	}
}

func IncStartAction(action string) {
	if regOK.Load() {
		startActions.WithLabelValues(action).Inc()
	}
}

func IncEndpointDiscovery(result string) {
	if regOK.Load() {
		endpointDiscoveries.WithLabelValues(result).Inc()
	}
}

func AddFreshLogBytes(n int) {
	if regOK.Load() && n > 0 {
		freshLogBytes.Add(float64(n))
	}
}
