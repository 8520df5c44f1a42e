// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package metrics exposes the gateway's Prometheus instrumentation.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Connections

	ConnectionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "harness_gateway_connections_active",
		Help: "Number of currently open control-plane connections",
	})

	ConnectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "harness_gateway_connections_total",
		Help: "Total control-plane connections accepted since start",
	})

	// Commands

	CommandsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "harness_gateway_commands_total",
		Help: "Total commands dispatched, by type and outcome",
	}, []string{"type", "outcome"})

	CommandDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "harness_gateway_command_duration_seconds",
		Help:    "Command dispatch latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"type"})

	// Sessions

	SessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "harness_pty_sessions_active",
		Help: "Number of live pty sessions",
	})

	SessionSpawnFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "harness_pty_spawn_failures_total",
		Help: "Total pty.start calls that failed with pty_start_failed",
	})

	RespondDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "harness_pty_respond_dropped_total",
		Help: "Total session.respond calls dropped due to backpressure",
	})

	// Store / events

	StoreCursor = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "harness_store_global_cursor",
		Help: "Highest global observed-event cursor assigned so far",
	})

	EventsAppliedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "harness_store_events_applied_total",
		Help: "Total observed events reduced into the store, by kind",
	}, []string{"kind"})
)

// Register registers every collector with the default Prometheus
// registry. Called once at startup.
func Register() {
	prometheus.MustRegister(
		ConnectionsActive,
		ConnectionsTotal,
		CommandsTotal,
		CommandDuration,
		SessionsActive,
		SessionSpawnFailuresTotal,
		RespondDroppedTotal,
		StoreCursor,
		EventsAppliedTotal,
	)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer times one command dispatch.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records elapsed time against histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Observer) {
	histogram.Observe(time.Since(t.start).Seconds())
}
