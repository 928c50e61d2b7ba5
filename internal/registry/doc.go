// Cobblerd - Provisioning Daemon and Install-Time Syslog Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cobblerd

/*
Package registry stores provisioned systems in BadgerDB and resolves syslog
source addresses to system names.

# Storage Layout

	system:<name>  -> JSON-encoded System (goccy/go-json)
	ip:<address>   -> <name>

Both keys are written in the same transaction, so an address never points at
a missing system. Addresses are normalized with NormalizeIP before they are
indexed or looked up.

# Identity Resolution

Store satisfies the syslog collector's resolver interface through
ResolveIdentity. A miss is a normal outcome and storage errors degrade to a
miss, so syslog traffic is always written somewhere.

When Options.CacheSize is set, lookups (hits and misses) are kept in an LRU
for Options.CacheTTL. Every committed Put or Delete clears it.
*/
package registry
