// Package metrics holds Prometheus instruments that are used across the web
// client.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ActiveControllers counts per-browser auth controllers held in memory.
	ActiveControllers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "auth_controllers_active",
			Help: "Number of per-browser auth controllers currently loaded in memory.",
		})

	ControllerEvictTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_controller_evictions_total",
			Help: "Cumulative number of auth controllers evicted from the registry.",
		})

	// AuthOperations is labelled by op (bootstrap, login, register,
	// verify_otp, resend_otp, logout, expire) and outcome.
	AuthOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_operations_total",
			Help: "Auth controller operations by outcome.",
		}, []string{"op", "outcome"})

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Latency of calls to the remote job-board API.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op", "status"})

	// BreakerState is 0 closed, 1 half-open, 2 open.
	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "api_circuit_breaker_state",
			Help: "Current state of the API circuit breaker (0=closed, 1=half-open, 2=open).",
		}, []string{"name"})

	GuardDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "route_guard_decisions_total",
			Help: "Route guard outcomes (allow, loading, redirect).",
		}, []string{"decision"})

	// HTTPRequestDuration is labelled by chi route pattern, not raw path,
	// so job IDs do not explode the series count.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latency of page requests served by the web client.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"})

	SessionsPurged = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "session_rows_purged_total",
			Help: "Abandoned session rows deleted by the purge loop.",
		})

	PanicsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "http_panics_recovered_total",
			Help: "Handler panics caught by the recovery middleware.",
		})
)

func init() {
	prometheus.MustRegister(
		ActiveControllers,
		ControllerEvictTotal,
		AuthOperations,
		APIRequestDuration,
		BreakerState,
		GuardDecisions,
		HTTPRequestDuration,
		PanicsTotal,
		SessionsPurged,
	)
}
