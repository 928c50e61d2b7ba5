// Cobblerd - Provisioning Daemon and Install-Time Syslog Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cobblerd

/*
Package services provides the suture.Service leaves of the cobblerd tree.

Each leaf owns its socket or process for the length of one Serve call and
translates its outcome into a supervision decision:

	EndpointService       RPC endpoint on tcp or unix
	SyslogService         UDP syslog collector
	AnnouncementService   zeroconf helper process

# Return Values

	ctx.Err()                                  shutdown requested
	ErrBind + suture.ErrTerminateSupervisorTree  address could not be bound
	suture.ErrDoNotRestart                     announcer exited, empty datagram
	any other error                            restart with backoff

# Endpoints

EndpointService binds once and serves on a listener whose Close is a no-op,
so a transient accept error (EINTR, ECONNABORTED, a timeout) costs one
RetryDelay pause and never a rebind:

	svc := services.NewEndpointService("xmlrpc-public",
	    services.BindTarget{Network: "tcp", Address: "0.0.0.0:25151"},
	    func() services.Server { return &http.Server{Handler: router} },
	    services.EndpointOptions{RetryDelay: 500 * time.Millisecond})
	tree.Add(supervisor.BranchMandatoryRPC, svc)

A new server is built per Serve call because an http.Server cannot serve
again after Shutdown.
*/
package services
