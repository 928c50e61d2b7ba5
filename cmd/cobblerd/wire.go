// Cobblerd - Provisioning Daemon and Install-Time Syslog Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cobblerd

package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/cobblerd/internal/config"
	"github.com/tomtom215/cobblerd/internal/rpc"
	"github.com/tomtom215/cobblerd/internal/supervisor"
	"github.com/tomtom215/cobblerd/internal/supervisor/services"
	"github.com/tomtom215/cobblerd/internal/syslog"
)

const readHeaderTimeout = 10 * time.Second

// serviceFactory turns planned leaves into services.
type serviceFactory struct {
	cfg       *config.Config
	registry  registryStore
	announcer services.Announcer
	version   string
}

// registryStore is what the leaves need from the registry: the RPC methods
// and identity lookup for the collector.
type registryStore interface {
	rpc.Registry
	syslog.IdentityResolver
}

func newServiceFactory(cfg *config.Config, reg registryStore, announcer services.Announcer, version string) *serviceFactory {
	return &serviceFactory{cfg: cfg, registry: reg, announcer: announcer, version: version}
}

// NewService implements supervisor.ServiceFactory.
func (f *serviceFactory) NewService(leaf supervisor.Leaf) (suture.Service, error) {
	switch leaf.Kind {
	case supervisor.KindEndpoint:
		return f.endpoint(leaf), nil
	case supervisor.KindSyslog:
		return f.syslogCollector(leaf)
	case supervisor.KindAnnounce:
		return services.NewAnnouncementService(leaf.Name, f.announcer, leaf.Port), nil
	default:
		return nil, fmt.Errorf("unknown leaf kind %s", leaf.Kind)
	}
}

func (f *serviceFactory) endpoint(leaf supervisor.Leaf) *services.EndpointService {
	surface := rpc.ReadOnly
	if leaf.ReadWrite {
		surface = rpc.ReadWrite
	}

	routerOpts := rpc.RouterOptions{
		Surface:     surface,
		LogRequests: leaf.LogRequests,
		RateLimit:   rpc.RateLimitConfig{Disabled: true},
	}
	// Only the network-facing read endpoint is rate limited and scraped.
	if surface == rpc.ReadOnly {
		routerOpts.RateLimit = rpc.RateLimitConfig{
			Requests: f.cfg.RPC.RateLimitRequests,
			Window:   f.cfg.RPC.RateLimitWindow,
			Disabled: f.cfg.RPC.RateLimitDisabled,
		}
		routerOpts.Metrics = true
	}

	handler := rpc.NewRouter(rpc.NewService(f.registry, leaf.Settings, f.version), routerOpts)
	newServer := func() services.Server {
		return &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
		}
	}

	return services.NewEndpointService(
		leaf.Name,
		services.BindTarget{Network: leaf.Network, Address: leaf.Address},
		newServer,
		services.EndpointOptions{
			RetryDelay:      f.cfg.Server.RetryDelay,
			ShutdownTimeout: f.cfg.Server.ShutdownTimeout,
		},
	)
}

func (f *serviceFactory) syslogCollector(leaf supervisor.Leaf) (*services.SyslogService, error) {
	sink, err := syslog.NewFileSink(leaf.Settings.SyslogDir)
	if err != nil {
		return nil, err
	}
	collector := syslog.NewCollector(f.registry, sink, syslog.Config{
		MaxDatagram: f.cfg.Syslog.MaxDatagram,
		StopOnEmpty: f.cfg.Syslog.StopOnEmpty,
	})
	return services.NewSyslogService(leaf.Name, leaf.Address, collector), nil
}
