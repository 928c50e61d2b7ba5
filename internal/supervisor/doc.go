// Cobblerd - Provisioning Daemon and Install-Time Syslog Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cobblerd

/*
Package supervisor runs the cobblerd services under a suture v4 tree.

# Overview

The tree is fixed; only the leaves vary with configuration:

	cobblerd
	├── rpc-branch
	│   ├── mandatory-rpc
	│   │   ├── xmlrpc-public   tcp 0.0.0.0:<xmlrpc_port>, read-only
	│   │   └── xmlrpc-unix     <socket_path>, read-write
	│   └── xmlrpc-rw           tcp 127.0.0.1:<xmlrpc_rw_port> (xmlrpc_rw_enabled)
	└── ingestion-branch
	    ├── syslog              udp 0.0.0.0:<syslog_port>
	    └── announce            (announcement binary present)

Plan computes the leaves from a config.ServiceConfig snapshot without side
effects, so the topology can be checked in tests. Build turns each leaf into
a service through a ServiceFactory and adds it to its branch:

	topo := supervisor.Plan(cfg.Settings(), runner.Available(), supervisor.PlanOptions{})
	tree, _ := supervisor.NewSupervisorTree(logger, supervisor.DefaultTreeConfig())
	if _, err := supervisor.Build(tree, topo, factory); err != nil {
	    return err
	}
	errCh := tree.ServeBackground(ctx)

# Failure Handling

Each branch counts failures on its own, so a crashing syslog collector
backs off without touching the RPC endpoints and vice versa.

Leaf return values follow suture:
  - suture.ErrDoNotRestart: the leaf finished and is removed (announcer exit,
    empty syslog datagram).
  - suture.ErrTerminateSupervisorTree: the tree stops and Serve returns the
    error (an endpoint could not bind its address).
  - anything else, including a panic: the leaf is restarted with backoff.

# Debugging Shutdown Issues

	report, err := tree.UnstoppedServiceReport()
	for _, svc := range report {
	    log.Printf("service didn't stop: %s", svc.Name)
	}

# See Also

  - internal/supervisor/services: endpoint, syslog and announce services
  - github.com/thejerf/suture/v4
*/
package supervisor
