// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the application collectors.
type Metrics struct {
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	AuthEvents    *prometheus.CounterVec
	SessionsSwept prometheus.Counter
}

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// NewMetrics creates the application metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forgeline_http_requests_total",
				Help: "HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "forgeline_http_request_duration_seconds",
				Help:    "HTTP request latency by method and route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		AuthEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forgeline_auth_events_total",
				Help: "Finished auth flows by event and outcome",
			},
			[]string{"event", "outcome"},
		),
		SessionsSwept: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "forgeline_sessions_swept_total",
				Help: "Expired sessions removed by the sweeper",
			},
		),
	}
	reg.MustRegister(m.HTTPRequests, m.HTTPDuration, m.AuthEvents, m.SessionsSwept)
	return m
}

// ObserveHTTP records one finished request.
func (m *Metrics) ObserveHTTP(method, route string, status int, seconds float64) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(seconds)
}

// ObserveAuthEvent records one finished auth flow.
func (m *Metrics) ObserveAuthEvent(event, outcome string) {
	m.AuthEvents.WithLabelValues(event, outcome).Inc()
}

// ObserveSwept records sessions removed by one sweep.
func (m *Metrics) ObserveSwept(n int64) {
	if n > 0 {
		m.SessionsSwept.Add(float64(n))
	}
}
