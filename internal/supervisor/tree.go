// Cobblerd - Provisioning Daemon and Install-Time Syslog Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cobblerd

package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/tomtom215/cobblerd/internal/metrics"
)

// Branch names a child supervisor of the tree.
type Branch string

const (
	// BranchRPC holds the optional loopback read-write endpoint and the
	// mandatory-rpc supervisor.
	BranchRPC Branch = "rpc-branch"

	// BranchMandatoryRPC holds the endpoints that always run: the public
	// read-only endpoint and the unix socket.
	BranchMandatoryRPC Branch = "mandatory-rpc"

	// BranchIngestion holds the syslog collector and the announcer.
	BranchIngestion Branch = "ingestion-branch"
)

// RootName is the name of the root supervisor.
const RootName = "cobblerd"

// TreeConfig holds supervisor tree configuration.
type TreeConfig struct {
	// FailureThreshold is the number of failures before entering backoff.
	// Default: 5
	FailureThreshold float64

	// FailureDecay is the rate at which failures decay in seconds.
	// Default: 30
	FailureDecay float64

	// FailureBackoff is the duration to wait when threshold is exceeded.
	// Default: 15s
	FailureBackoff time.Duration

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	// Default: 10s
	ShutdownTimeout time.Duration
}

// DefaultTreeConfig returns production-ready defaults.
// These values match suture's built-in defaults per pkg.go.dev documentation.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// SupervisorTree is the daemon's supervision hierarchy:
//
//	cobblerd
//	├── rpc-branch
//	│   ├── mandatory-rpc
//	│   │   ├── xmlrpc-public
//	│   │   └── xmlrpc-unix
//	│   └── xmlrpc-rw            (when enabled)
//	└── ingestion-branch
//	    ├── syslog
//	    └── announce             (when available)
//
// A leaf that panics or fails is restarted by its own supervisor with
// backoff; siblings and the other branch keep running. A leaf returning an
// error that wraps suture.ErrTerminateSupervisorTree stops the whole tree.
type SupervisorTree struct {
	root      *suture.Supervisor
	rpc       *suture.Supervisor
	mandatory *suture.Supervisor
	ingestion *suture.Supervisor
	logger    *slog.Logger
	config    TreeConfig
}

// NewSupervisorTree creates a new supervisor tree with the given configuration.
func NewSupervisorTree(logger *slog.Logger, config TreeConfig) (*SupervisorTree, error) {
	// Apply defaults for zero values
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5.0
	}
	if config.FailureDecay == 0 {
		config.FailureDecay = 30.0
	}
	if config.FailureBackoff == 0 {
		config.FailureBackoff = 15 * time.Second
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = 10 * time.Second
	}

	// MustHook has a pointer receiver, so we need to take the address.
	handler := &sutureslog.Handler{Logger: logger}
	logHook := handler.MustHook()
	eventHook := func(e suture.Event) {
		recordRestart(e)
		logHook(e)
	}

	rootSpec := suture.Spec{
		EventHook:        eventHook,
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}

	// Child supervisors inherit the EventHook when added to a parent.
	childSpec := suture.Spec{
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}

	root := suture.New(RootName, rootSpec)
	rpc := suture.New(string(BranchRPC), childSpec)
	mandatory := suture.New(string(BranchMandatoryRPC), childSpec)
	ingestion := suture.New(string(BranchIngestion), childSpec)

	// Build tree hierarchy top-down: a child copies its parent's EventHook
	// when it is added, so rpc must hold the hook before mandatory joins it.
	root.Add(rpc)
	root.Add(ingestion)
	rpc.Add(mandatory)

	return &SupervisorTree{
		root:      root,
		rpc:       rpc,
		mandatory: mandatory,
		ingestion: ingestion,
		logger:    logger,
		config:    config,
	}, nil
}

// Root returns the root supervisor for direct access if needed.
func (t *SupervisorTree) Root() *suture.Supervisor {
	return t.root
}

// Add adds a service to the named branch.
func (t *SupervisorTree) Add(branch Branch, svc suture.Service) (suture.ServiceToken, error) {
	switch branch {
	case BranchRPC:
		return t.rpc.Add(svc), nil
	case BranchMandatoryRPC:
		return t.mandatory.Add(svc), nil
	case BranchIngestion:
		return t.ingestion.Add(svc), nil
	default:
		return suture.ServiceToken{}, fmt.Errorf("unknown branch %q", branch)
	}
}

// Serve starts the supervisor tree and blocks until the context is canceled
// or a leaf requests tree termination.
func (t *SupervisorTree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground starts the supervisor tree in a background goroutine.
// Returns a channel that receives the error (or nil) when the supervisor stops.
func (t *SupervisorTree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport returns information about services that failed to stop
// within the configured shutdown timeout. Useful for debugging shutdown issues.
func (t *SupervisorTree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}

// recordRestart counts leaves that suture is about to restart.
func recordRestart(e suture.Event) {
	switch ev := e.(type) {
	case suture.EventServiceTerminate:
		if ev.Restarting {
			metrics.ServiceRestarts.WithLabelValues(ev.ServiceName).Inc()
		}
	case suture.EventServicePanic:
		if ev.Restarting {
			metrics.ServiceRestarts.WithLabelValues(ev.ServiceName).Inc()
		}
	}
}
