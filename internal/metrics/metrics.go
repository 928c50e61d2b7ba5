// Cobblerd - Provisioning Daemon and Install-Time Syslog Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cobblerd

package metrics

import (
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Syslog Collector Metrics
	SyslogDatagrams = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cobblerd_syslog_datagrams_total",
			Help: "Total number of syslog datagrams received",
		},
		[]string{"resolved"}, // "identity" or "address"
	)

	SyslogBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cobblerd_syslog_bytes_total",
			Help: "Total payload bytes written to per-identity log files",
		},
	)

	SyslogWriteErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cobblerd_syslog_write_errors_total",
			Help: "Total number of failed appends to per-identity log files",
		},
	)

	SyslogIdentityMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cobblerd_syslog_identity_misses_total",
			Help: "Datagrams whose source address did not resolve to a registered system",
		},
	)

	// Endpoint Metrics
	EndpointServeRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cobblerd_endpoint_serve_retries_total",
			Help: "Serve loop resumptions after a transient interruption",
		},
		[]string{"endpoint"},
	)

	EndpointBindFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cobblerd_endpoint_bind_failures_total",
			Help: "Endpoints that could not bind their address",
		},
		[]string{"endpoint"},
	)

	EndpointUp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cobblerd_endpoint_up",
			Help: "Whether an endpoint is currently serving (1) or not (0)",
		},
		[]string{"endpoint"},
	)

	// RPC Metrics
	RPCRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cobblerd_rpc_requests_total",
			Help: "Total RPC calls by surface, method and outcome",
		},
		[]string{"surface", "method", "outcome"},
	)

	RPCRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cobblerd_rpc_request_duration_seconds",
			Help:    "Duration of RPC calls in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"surface", "method"},
	)

	RPCRateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cobblerd_rpc_rate_limit_hits_total",
			Help: "Requests rejected by the public endpoint rate limiter",
		},
	)

	// Registry Metrics
	RegistrySystems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cobblerd_registry_systems",
			Help: "Number of systems in the registry",
		},
	)

	// Announcement Metrics
	AnnouncementRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cobblerd_announcement_runs_total",
			Help: "Announcement helper executions by exit status",
		},
		[]string{"exit_code"},
	)

	// Supervisor Metrics
	ServiceRestarts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cobblerd_service_restarts_total",
			Help: "Supervisor restart events by service",
		},
		[]string{"service"},
	)

	// Application Info
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cobblerd_app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "cobblerd_app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
		func() float64 { return time.Since(startTime).Seconds() },
	)
)

var startTime = time.Now()

// SetAppInfo publishes the build version.
func SetAppInfo(version string) {
	AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
}

// RecordDatagram records one received datagram. resolved reports whether the
// source address mapped to a registered system.
func RecordDatagram(resolved bool, payloadBytes int) {
	if resolved {
		SyslogDatagrams.WithLabelValues("identity").Inc()
	} else {
		SyslogDatagrams.WithLabelValues("address").Inc()
		SyslogIdentityMisses.Inc()
	}
	SyslogBytes.Add(float64(payloadBytes))
}

// RecordRPC records a completed RPC call.
func RecordRPC(surface, method string, err error, duration time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "fault"
	}
	RPCRequestsTotal.WithLabelValues(surface, method, outcome).Inc()
	RPCRequestDuration.WithLabelValues(surface, method).Observe(duration.Seconds())
}

// RecordAnnouncement records the exit code of an announcement helper run.
func RecordAnnouncement(exitCode int) {
	AnnouncementRuns.WithLabelValues(strconv.Itoa(exitCode)).Inc()
}

// SetEndpointUp flips the endpoint_up gauge.
func SetEndpointUp(endpoint string, up bool) {
	if up {
		EndpointUp.WithLabelValues(endpoint).Set(1)
	} else {
		EndpointUp.WithLabelValues(endpoint).Set(0)
	}
}
