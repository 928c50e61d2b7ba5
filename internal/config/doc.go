// Cobblerd - Provisioning Daemon and Install-Time Syslog Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cobblerd

/*
Package config loads and validates cobblerd configuration.

# Configuration Sources

Configuration is layered with Koanf v2, later layers winning:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file: the --config flag, CONFIG_PATH, or the first of
    DefaultConfigPaths that exists
 3. Mapped environment variables

# Settings File

The top-level keys match the classic provisioning settings file:

	syslog_port: 25150
	xmlrpc_port: 25151
	xmlrpc_rw_port: 25152
	xmlrpc_rw_enabled: true

	server:
	  socket_path: /var/lib/cobbler/sock
	syslog:
	  dir: /var/log/cobbler/syslog

xmlrpc_rw_enabled accepts any boolean koanf can decode, so "0" and "false"
both disable the loopback read-write endpoint.

# Environment Variables

Server endpoints:
  - SYSLOG_PORT, XMLRPC_PORT, XMLRPC_RW_PORT, XMLRPC_RW_ENABLED
  - COBBLER_SOCKET: read-write unix socket (default: /var/lib/cobbler/sock)
  - SERVE_RETRY_DELAY: pause after a transient serve error (default: 500ms)
  - ENDPOINT_SHUTDOWN_TIMEOUT: graceful drain per endpoint (default: 10s)

Syslog collector:
  - SYSLOG_DIR (default: /var/log/cobbler/syslog)
  - SYSLOG_MAX_DATAGRAM (default: 1024)
  - SYSLOG_STOP_ON_EMPTY (default: true)

Announcement:
  - ANNOUNCE_ENABLED, AVAHI_PUBLISH_BINARY, ANNOUNCE_SERVICE_NAME,
    ANNOUNCE_SERVICE_TYPE

Registry, RPC, supervisor and logging:
  - REGISTRY_PATH, REGISTRY_IN_MEMORY, REGISTRY_CACHE_SIZE, REGISTRY_CACHE_TTL
  - RPC_RATE_LIMIT, RPC_RATE_LIMIT_WINDOW, DISABLE_RPC_RATE_LIMIT, RPC_LOG_REQUESTS
  - SUPERVISOR_FAILURE_THRESHOLD, SUPERVISOR_FAILURE_DECAY,
    SUPERVISOR_FAILURE_BACKOFF, SUPERVISOR_SHUTDOWN_TIMEOUT
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

# Services

Supervised services never see *Config. They receive the ServiceConfig value
returned by Settings, which carries only the ports, the rw toggle and the two
filesystem paths they need.
*/
package config
