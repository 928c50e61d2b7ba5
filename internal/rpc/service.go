// Cobblerd - Provisioning Daemon and Install-Time Syslog Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cobblerd

package rpc

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cobblerd/internal/config"
	"github.com/tomtom215/cobblerd/internal/metrics"
	"github.com/tomtom215/cobblerd/internal/registry"
	"github.com/tomtom215/cobblerd/internal/syslog"
	"github.com/tomtom215/cobblerd/internal/validation"
)

// Surface selects which methods an endpoint exposes.
type Surface int

const (
	// ReadOnly exposes query methods only.
	ReadOnly Surface = iota
	// ReadWrite exposes every method.
	ReadWrite
)

func (s Surface) String() string {
	if s == ReadWrite {
		return "read-write"
	}
	return "read-only"
}

// Registry is the system store used by the RPC methods.
type Registry interface {
	Put(ctx context.Context, sys *registry.System) (*registry.System, error)
	Get(ctx context.Context, name string) (*registry.System, error)
	FindByIP(ctx context.Context, addr string) (*registry.System, error)
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]*registry.System, error)
}

type methodFunc func(ctx context.Context, params json.RawMessage) (interface{}, error)

type method struct {
	write bool
	fn    methodFunc
}

// Service implements the RPC methods shared by every endpoint. It holds no
// per-endpoint state; the surface is passed on each call.
type Service struct {
	registry Registry
	settings config.ServiceConfig
	version  string
	methods  map[string]method
}

// NewService creates the method table.
func NewService(reg Registry, settings config.ServiceConfig, version string) *Service {
	s := &Service{registry: reg, settings: settings, version: version}
	s.methods = map[string]method{
		"ping":            {fn: s.ping},
		"version":         {fn: s.getVersion},
		"get_settings":    {fn: s.getSettings},
		"get_systems":     {fn: s.getSystems},
		"find_system":     {fn: s.findSystem},
		"get_syslog_path": {fn: s.getSyslogPath},
		"register_system": {write: true, fn: s.registerSystem},
		"remove_system":   {write: true, fn: s.removeSystem},
	}
	return s
}

// Methods lists the methods callable on surface.
func (s *Service) Methods(surface Surface) []string {
	names := make([]string, 0, len(s.methods))
	for name, m := range s.methods {
		if m.write && surface != ReadWrite {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call dispatches one method call.
func (s *Service) Call(ctx context.Context, surface Surface, name string, params json.RawMessage) (result interface{}, err error) {
	start := time.Now()
	defer func() { metrics.RecordRPC(surface.String(), metricMethod(s, name), err, time.Since(start)) }()

	m, ok := s.methods[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, name)
	}
	if m.write && surface != ReadWrite {
		return nil, fmt.Errorf("%w: %s requires a read-write endpoint", ErrReadOnly, name)
	}
	return m.fn(ctx, params)
}

// metricMethod keeps unknown method names out of metric labels.
func metricMethod(s *Service, name string) string {
	if _, ok := s.methods[name]; ok {
		return name
	}
	return "unknown"
}

// decodeParams strictly decodes params into v and validates it. Empty params
// decode to the zero value.
func decodeParams(params json.RawMessage, v interface{}) error {
	if len(bytes.TrimSpace(params)) > 0 && !bytes.Equal(bytes.TrimSpace(params), []byte("null")) {
		dec := json.NewDecoder(bytes.NewReader(params))
		dec.DisallowUnknownFields()
		if err := dec.Decode(v); err != nil {
			return &Fault{Code: FaultInvalidParams, Message: fmt.Sprintf("invalid params: %v", err)}
		}
	}
	return validation.ValidateStruct(v)
}

func (s *Service) ping(context.Context, json.RawMessage) (interface{}, error) {
	return true, nil
}

func (s *Service) getVersion(context.Context, json.RawMessage) (interface{}, error) {
	return s.version, nil
}

type settingsView struct {
	SyslogPort      uint16 `json:"syslog_port"`
	XMLRPCPort      uint16 `json:"xmlrpc_port"`
	XMLRPCRWPort    uint16 `json:"xmlrpc_rw_port"`
	XMLRPCRWEnabled bool   `json:"xmlrpc_rw_enabled"`
	SocketPath      string `json:"socket_path"`
	SyslogDir       string `json:"syslog_dir"`
}

func (s *Service) getSettings(context.Context, json.RawMessage) (interface{}, error) {
	return settingsView{
		SyslogPort:      s.settings.SyslogPort,
		XMLRPCPort:      s.settings.XMLRPCPort,
		XMLRPCRWPort:    s.settings.XMLRPCRWPort,
		XMLRPCRWEnabled: s.settings.XMLRPCRWEnabled,
		SocketPath:      s.settings.SocketPath,
		SyslogDir:       s.settings.SyslogDir,
	}, nil
}

func (s *Service) getSystems(ctx context.Context, _ json.RawMessage) (interface{}, error) {
	systems, err := s.registry.List(ctx)
	if err != nil {
		return nil, err
	}
	if systems == nil {
		systems = []*registry.System{}
	}
	return systems, nil
}

type findParams struct {
	Name string `json:"name" validate:"required_without=IP,omitempty,identity"`
	IP   string `json:"ip" validate:"required_without=Name,omitempty,ip"`
}

func (s *Service) findSystem(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p findParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Name != "" {
		return s.registry.Get(ctx, p.Name)
	}
	return s.registry.FindByIP(ctx, p.IP)
}

type syslogPathParams struct {
	Name string `json:"name" validate:"required"`
}

func (s *Service) getSyslogPath(_ context.Context, params json.RawMessage) (interface{}, error) {
	var p syslogPathParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	return filepath.Join(s.settings.SyslogDir, syslog.SanitizeIdentity(p.Name)), nil
}

type registerParams struct {
	Name        string   `json:"name"`
	IPAddresses []string `json:"ip_addresses"`
	MACAddress  string   `json:"mac_address"`
	Profile     string   `json:"profile"`
}

func (s *Service) registerSystem(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p registerParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	// Field rules live on registry.System and are enforced by Put.
	return s.registry.Put(ctx, &registry.System{
		Name:        p.Name,
		IPAddresses: p.IPAddresses,
		MACAddress:  p.MACAddress,
		Profile:     p.Profile,
	})
}

type removeParams struct {
	Name string `json:"name" validate:"required"`
}

func (s *Service) removeSystem(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p removeParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := s.registry.Delete(ctx, p.Name); err != nil {
		return nil, err
	}
	return true, nil
}
