// Cobblerd - Provisioning Daemon and Install-Time Syslog Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cobblerd

package supervisor

import (
	"net"
	"strconv"

	"github.com/tomtom215/cobblerd/internal/config"
)

// Leaf names.
const (
	LeafPublic   = "xmlrpc-public"
	LeafUnix     = "xmlrpc-unix"
	LeafRW       = "xmlrpc-rw"
	LeafSyslog   = "syslog"
	LeafAnnounce = "announce"
)

// LeafKind selects which service type a leaf becomes.
type LeafKind int

const (
	// KindEndpoint is an RPC endpoint.
	KindEndpoint LeafKind = iota
	// KindSyslog is the UDP syslog collector.
	KindSyslog
	// KindAnnounce is the zeroconf announcer.
	KindAnnounce
)

func (k LeafKind) String() string {
	switch k {
	case KindEndpoint:
		return "endpoint"
	case KindSyslog:
		return "syslog"
	case KindAnnounce:
		return "announce"
	default:
		return "unknown"
	}
}

// Leaf describes one supervised service.
type Leaf struct {
	Name   string
	Branch Branch
	Kind   LeafKind

	// Network and Address are the bind target: "tcp", "udp" or "unix".
	Network string
	Address string

	// ReadWrite exposes write methods on an endpoint.
	ReadWrite bool
	// LogRequests enables per-request logging on an endpoint.
	LogRequests bool

	// Port is the advertised RPC port for the announcer.
	Port uint16

	// Settings is this leaf's private copy of the service settings.
	Settings config.ServiceConfig
}

// Topology is the ordered list of leaves to run.
type Topology struct {
	Leaves []Leaf
}

// Names returns leaf names in order.
func (t Topology) Names() []string {
	names := make([]string, len(t.Leaves))
	for i, l := range t.Leaves {
		names[i] = l.Name
	}
	return names
}

// Leaf returns the leaf with the given name.
func (t Topology) Leaf(name string) (Leaf, bool) {
	for _, l := range t.Leaves {
		if l.Name == name {
			return l, true
		}
	}
	return Leaf{}, false
}

// InBranch returns the leaves assigned to branch.
func (t Topology) InBranch(branch Branch) []Leaf {
	var out []Leaf
	for _, l := range t.Leaves {
		if l.Branch == branch {
			out = append(out, l)
		}
	}
	return out
}

// PlanOptions adjusts Plan.
type PlanOptions struct {
	// LogRequests enables request logging on the read-write endpoints. The
	// public endpoint never logs requests.
	LogRequests bool
}

// Plan computes the full daemon topology from the settings snapshot and the
// announcement probe result. It has no side effects.
func Plan(cfg config.ServiceConfig, announceAvailable bool, opts PlanOptions) Topology {
	var leaves []Leaf

	leaves = append(leaves,
		Leaf{
			Name:     LeafPublic,
			Branch:   BranchMandatoryRPC,
			Kind:     KindEndpoint,
			Network:  "tcp",
			Address:  hostPort("0.0.0.0", cfg.XMLRPCPort),
			Settings: cfg,
		},
		unixLeaf(cfg, opts),
	)

	if cfg.XMLRPCRWEnabled {
		leaves = append(leaves, Leaf{
			Name:        LeafRW,
			Branch:      BranchRPC,
			Kind:        KindEndpoint,
			Network:     "tcp",
			Address:     hostPort("127.0.0.1", cfg.XMLRPCRWPort),
			ReadWrite:   true,
			LogRequests: opts.LogRequests,
			Settings:    cfg,
		})
	}

	leaves = append(leaves, Leaf{
		Name:     LeafSyslog,
		Branch:   BranchIngestion,
		Kind:     KindSyslog,
		Network:  "udp",
		Address:  hostPort("0.0.0.0", cfg.SyslogPort),
		Settings: cfg,
	})

	if announceAvailable {
		leaves = append(leaves, Leaf{
			Name:     LeafAnnounce,
			Branch:   BranchIngestion,
			Kind:     KindAnnounce,
			Port:     cfg.XMLRPCPort,
			Settings: cfg,
		})
	}

	return Topology{Leaves: leaves}
}

// PlanUnixOnly runs just the unix socket endpoint.
func PlanUnixOnly(cfg config.ServiceConfig, opts PlanOptions) Topology {
	return Topology{Leaves: []Leaf{unixLeaf(cfg, opts)}}
}

func unixLeaf(cfg config.ServiceConfig, opts PlanOptions) Leaf {
	return Leaf{
		Name:        LeafUnix,
		Branch:      BranchMandatoryRPC,
		Kind:        KindEndpoint,
		Network:     "unix",
		Address:     cfg.SocketPath,
		ReadWrite:   true,
		LogRequests: opts.LogRequests,
		Settings:    cfg,
	}
}

func hostPort(host string, port uint16) string {
	return net.JoinHostPort(host, strconv.Itoa(int(port)))
}
