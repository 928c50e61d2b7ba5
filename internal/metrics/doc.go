// Cobblerd - Provisioning Daemon and Install-Time Syslog Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cobblerd

/*
Package metrics defines the Prometheus collectors exported by cobblerd.

Collectors are registered on the default registry through promauto and are
served at GET /metrics on the public RPC endpoint:

	curl http://localhost:25151/metrics

# Available Metrics

Syslog collector:
  - cobblerd_syslog_datagrams_total{resolved}: datagrams by attribution
  - cobblerd_syslog_bytes_total: payload bytes appended
  - cobblerd_syslog_write_errors_total: failed appends
  - cobblerd_syslog_identity_misses_total: unresolved source addresses

Endpoints:
  - cobblerd_endpoint_serve_retries_total{endpoint}
  - cobblerd_endpoint_bind_failures_total{endpoint}
  - cobblerd_endpoint_up{endpoint}

RPC:
  - cobblerd_rpc_requests_total{surface,method,outcome}
  - cobblerd_rpc_request_duration_seconds{surface,method}
  - cobblerd_rpc_rate_limit_hits_total

Other:
  - cobblerd_registry_systems
  - cobblerd_announcement_runs_total{exit_code}
  - cobblerd_service_restarts_total{service}
  - cobblerd_app_info{version,go_version}, cobblerd_app_uptime_seconds
*/
package metrics
