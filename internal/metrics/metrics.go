// Package metrics holds the Prometheus collectors of the registry.
package metrics

import (
	"errors"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Outcomes counts API results by route and outcome class (success,
	// duplicate, not_found, unmodified, conflict, invalid, failure).
	Outcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "labhub",
		Name:      "api_outcomes_total",
		Help:      "API results by route and outcome.",
	}, []string{"route", "outcome"})

	// StoreLatency observes document store calls.
	StoreLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "labhub",
		Name:      "store_operation_seconds",
		Help:      "Latency of document store operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"collection", "op"})

	// StoreErrors counts failed store calls. A missing document is not an
	// error.
	StoreErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "labhub",
		Name:      "store_errors_total",
		Help:      "Failed document store operations.",
	}, []string{"collection", "op"})

	// AuditEvents counts lifecycle events by processing result.
	AuditEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "labhub",
		Name:      "audit_events_total",
		Help:      "Lifecycle events published or consumed, by result.",
	}, []string{"stage", "result"})
)

// Init registers collectors; call once from main.
func Init() {
	prometheus.MustRegister(Outcomes, StoreLatency, StoreErrors, AuditEvents)
}

// ObserveStore returns a recorder for store calls; its signature matches
// docstore.ObserveFunc. Errors matching one of expected (such as "no
// documents") are normal outcomes and are not counted as failures.
func ObserveStore(expected ...error) func(coll, op string, took time.Duration, err error) {
	return func(coll, op string, took time.Duration, err error) {
		StoreLatency.WithLabelValues(coll, op).Observe(took.Seconds())
		if err != nil && !isAny(err, expected) {
			StoreErrors.WithLabelValues(coll, op).Inc()
		}
	}
}

// Handler exposes the default registry for echo.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}
