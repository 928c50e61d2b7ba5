// Cobblerd - Provisioning Daemon and Install-Time Syslog Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cobblerd

// Package announce publishes the RPC endpoint on the local network through
// an external zeroconf helper (avahi-publish-service by default):
//
//	avahi-publish-service cobblerd _http._tcp 25151
//
// Available is the capability probe used when planning the supervision
// tree. When it fails the daemon runs without announcement.
package announce
