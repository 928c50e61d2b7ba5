// Cobblerd - Provisioning Daemon and Install-Time Syslog Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cobblerd

/*
Command cobblerd runs the provisioning daemon.

It serves the RPC surface on three endpoints, collects install-time syslog
traffic from provisioned systems and announces itself over zeroconf, all
under one suture supervision tree.

# Startup

 1. Configuration: defaults, then cobblerd.yaml, then environment (koanf)
 2. Logging: zerolog from the logging section
 3. Registry: badger database mapping systems to IP addresses
 4. Announcement probe: is the avahi publisher installed?
 5. Topology: supervisor.Plan (or PlanUnixOnly with --unix-only)
 6. Tree: one service per leaf, served until SIGINT or SIGTERM

# Endpoints

	xmlrpc-public   0.0.0.0:25151          read-only, rate limited, /metrics
	xmlrpc-unix     /var/lib/cobbler/sock  read-write
	xmlrpc-rw       127.0.0.1:25152        read-write (xmlrpc_rw_enabled)
	syslog          udp 0.0.0.0:25150

# Usage

	cobblerd [--config /etc/cobbler/cobblerd.yaml] [--unix-only]

Common environment overrides:

	SYSLOG_PORT=25150 XMLRPC_PORT=25151 XMLRPC_RW_PORT=25152 XMLRPC_RW_ENABLED=0
	SYSLOG_DIR=/var/log/cobbler/syslog LOG_LEVEL=debug LOG_FORMAT=console

# Exit Status

cobblerd exits 0 after a signal-initiated shutdown and 1 when configuration
is invalid, the registry cannot be opened or an endpoint cannot bind.
*/
package main
