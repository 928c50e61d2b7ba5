// Cobblerd - Provisioning Daemon and Install-Time Syslog Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cobblerd

/*
Package rpc serves the management API on cobblerd's endpoints.

Every endpoint runs the same chi router built by NewRouter; the Surface
option decides whether write methods are callable.

# Wire Format

Calls are JSON objects posted to /RPC2:

	POST /RPC2
	{"method": "find_system", "params": {"ip": "10.0.0.5"}}

	{"result": {"uid": "...", "name": "host42", "ip_addresses": ["10.0.0.5"], ...}}

Errors come back as a fault with HTTP 200:

	{"fault": {"code": 1, "message": "read-only endpoint: register_system requires a read-write endpoint"}}

# Methods

Read (every surface): ping, version, get_settings, get_systems,
find_system {name|ip}, get_syslog_path {name}.

Write (ReadWrite only): register_system {name, ip_addresses, mac_address,
profile}, remove_system {name}.

# Middleware

chi RequestID and Recoverer always; RequestLogger when request logging is
on; httprate per-IP limiting when configured. GET /health reports the
surface and its methods; GET /metrics is mounted when RouterOptions.Metrics
is set.
*/
package rpc
