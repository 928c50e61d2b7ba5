// Cobblerd - Provisioning Daemon and Install-Time Syslog Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cobblerd

package config

import (
	"time"
)

// Config holds all daemon configuration.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: built-in values from defaultConfig()
//  2. Config File: optional YAML file (cobblerd.yaml)
//  3. Environment Variables: override any mapped setting
//
// The four top-level keys mirror the classic provisioning-server settings
// file (syslog_port, xmlrpc_port, xmlrpc_rw_port, xmlrpc_rw_enabled); the
// nested sections configure the daemon's own infrastructure.
//
// Config is immutable after Load(). Long-running services never hold a
// *Config; they receive a ServiceConfig value from Settings() instead.
type Config struct {
	SyslogPort      int    `koanf:"syslog_port" validate:"min=1,max=65535"`
	XMLRPCPort      int    `koanf:"xmlrpc_port" validate:"min=1,max=65535"`
	XMLRPCRWPort    int    `koanf:"xmlrpc_rw_port" validate:"min=1,max=65535"`
	XMLRPCRWEnabled Toggle `koanf:"xmlrpc_rw_enabled"`

	Server     ServerConfig     `koanf:"server"`
	Syslog     SyslogConfig     `koanf:"syslog"`
	Announce   AnnounceConfig   `koanf:"announce"`
	Registry   RegistryConfig   `koanf:"registry"`
	RPC        RPCConfig        `koanf:"rpc"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig configures the RPC endpoints.
type ServerConfig struct {
	// SocketPath is the filesystem socket exposing the read-write surface to
	// local callers. It is always served regardless of XMLRPCRWEnabled.
	SocketPath string `koanf:"socket_path" validate:"required"`

	// RetryDelay is the pause before resuming a serve loop after a transient
	// interruption. Default: 500ms
	RetryDelay time.Duration `koanf:"retry_delay" validate:"gt=0"`

	// ShutdownTimeout bounds graceful connection draining per endpoint.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// SyslogConfig configures the install-time syslog collector.
type SyslogConfig struct {
	// Dir is where one append-only file per client identity is written.
	Dir string `koanf:"dir" validate:"required"`

	// MaxDatagram is the receive buffer size; longer datagrams are truncated.
	MaxDatagram int `koanf:"max_datagram" validate:"min=1,max=65507"`

	// StopOnEmpty halts the collector when a zero-length datagram arrives.
	StopOnEmpty bool `koanf:"stop_on_empty"`
}

// AnnounceConfig configures zeroconf service announcement.
type AnnounceConfig struct {
	Enabled     bool   `koanf:"enabled"`
	Binary      string `koanf:"binary" validate:"required_if=Enabled true"`
	ServiceName string `koanf:"service_name" validate:"required_if=Enabled true"`
	ServiceType string `koanf:"service_type" validate:"required_if=Enabled true"`
}

// RegistryConfig configures the badger-backed system registry used to
// attribute syslog traffic to known systems.
type RegistryConfig struct {
	Path     string `koanf:"path" validate:"required_without=InMemory"`
	InMemory bool   `koanf:"in_memory"`

	// CacheSize bounds the address-to-identity cache in front of the
	// registry. 0 disables caching.
	CacheSize int           `koanf:"cache_size" validate:"min=0"`
	CacheTTL  time.Duration `koanf:"cache_ttl" validate:"gte=0"`
}

// RPCConfig configures request handling on the RPC endpoints.
type RPCConfig struct {
	// RateLimitRequests per RateLimitWindow per client IP on the public endpoint.
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"min=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	// LogRequests enables per-request logging on the read-write endpoints.
	// The public read endpoint never logs requests.
	LogRequests bool `koanf:"log_requests"`
}

// SupervisorConfig mirrors supervisor.TreeConfig.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold" validate:"gte=0"`
	FailureDecay     float64       `koanf:"failure_decay" validate:"gte=0"`
	FailureBackoff   time.Duration `koanf:"failure_backoff" validate:"gte=0"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout" validate:"gte=0"`
}

// LoggingConfig configures the zerolog logger.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level" validate:"oneof=trace debug info warn warning error fatal panic disabled"`

	// Format is the output format: json or console.
	Format string `koanf:"format" validate:"oneof=json console"`

	Caller bool `koanf:"caller"`
}

// ServiceConfig is the read-only settings snapshot handed to every
// supervised service at construction time. It is a value type; copying it is
// how services are kept from sharing configuration state.
type ServiceConfig struct {
	SyslogPort      uint16
	XMLRPCPort      uint16
	XMLRPCRWPort    uint16
	XMLRPCRWEnabled bool
	SocketPath      string
	SyslogDir       string
}

// SettingsSource yields the service settings snapshot.
type SettingsSource interface {
	Settings() ServiceConfig
}

// Settings returns a snapshot of the service settings. Ports are validated to
// fit in 16 bits by Validate.
func (c *Config) Settings() ServiceConfig {
	return ServiceConfig{
		SyslogPort:      uint16(c.SyslogPort),   //nolint:gosec // range checked in Validate
		XMLRPCPort:      uint16(c.XMLRPCPort),   //nolint:gosec // range checked in Validate
		XMLRPCRWPort:    uint16(c.XMLRPCRWPort), //nolint:gosec // range checked in Validate
		XMLRPCRWEnabled: bool(c.XMLRPCRWEnabled),
		SocketPath:      c.Server.SocketPath,
		SyslogDir:       c.Syslog.Dir,
	}
}

// Load reads configuration from defaults, the optional config file and the
// environment, then validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
