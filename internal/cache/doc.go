// Cobblerd - Provisioning Daemon and Install-Time Syslog Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cobblerd

/*
Package cache provides a generic LRU cache with TTL expiry.

The registry keeps one in front of its address index so that the syslog
collector does not open a badger transaction for every datagram:

	identities := cache.NewLRU[string](4096, 30*time.Second)
	if name, ok := identities.Get("10.0.0.5"); ok {
	    return name
	}

Negative results can be cached too by choosing a value type that records
the miss. Callers that change the underlying data call Clear.
*/
package cache
