// Cobblerd - Provisioning Daemon and Install-Time Syslog Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cobblerd

/*
Package syslog collects install-time syslog traffic from machines being
provisioned.

A Collector reads UDP datagrams (up to 1024 bytes by default), attributes
each one to a system name through an IdentityResolver, and appends a single
line to <syslog_dir>/<identity> through a Sink:

	1700000000.0	Tue Nov 14 22:13:20 2023	10.0.0.5	install started

Fields are the Unix time, the same instant in ANSIC form, the sender's IP
and the raw payload, separated by tabs. When the sender is not registered
the file is named after its IP address.

A zero-length datagram stops the collector with ErrEmptyDatagram when
Config.StopOnEmpty is set. The supervisor treats that as a permanent stop.
*/
package syslog
