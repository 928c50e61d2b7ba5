// Cobblerd - Provisioning Daemon and Install-Time Syslog Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cobblerd

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"cobblerd.yaml",
	"cobblerd.yml",
	"/etc/cobbler/cobblerd.yaml",
	"/etc/cobbler/cobblerd.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		SyslogPort:      25150,
		XMLRPCPort:      25151,
		XMLRPCRWPort:    25152,
		XMLRPCRWEnabled: true,
		Server: ServerConfig{
			SocketPath:      "/var/lib/cobbler/sock",
			RetryDelay:      500 * time.Millisecond,
			ShutdownTimeout: 10 * time.Second,
		},
		Syslog: SyslogConfig{
			Dir:         "/var/log/cobbler/syslog",
			MaxDatagram: 1024,
			StopOnEmpty: true,
		},
		Announce: AnnounceConfig{
			Enabled:     true,
			Binary:      "/usr/bin/avahi-publish-service",
			ServiceName: "cobblerd",
			ServiceType: "_http._tcp",
		},
		Registry: RegistryConfig{
			Path:      "/var/lib/cobbler/registry",
			InMemory:  false,
			CacheSize: 4096,
			CacheTTL:  30 * time.Second,
		},
		RPC: RPCConfig{
			RateLimitRequests: 300,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			LogRequests:       false,
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using the default file search.
func LoadWithKoanf() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom loads configuration with an explicit config file path. An empty
// path falls back to CONFIG_PATH and then DefaultConfigPaths; an explicit
// path that does not exist is an error.
func LoadFrom(path string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file (optional)
	configPath := path
	if configPath == "" {
		configPath = findConfigFile()
	} else if _, err := os.Stat(configPath); err != nil {
		return nil, fmt.Errorf("config file %s: %w", configPath, err)
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.UnmarshalWithConf("", cfg, unmarshalConf(cfg)); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// unmarshalConf keeps koanf's default decoding (weak typing, duration and
// TextUnmarshaler hooks) and adds Toggle.
func unmarshalConf(out *Config) koanf.UnmarshalConf {
	return koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				toggleHookFunc(),
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.TextUnmarshallerHookFunc(),
			),
			Result:           out,
			WeaklyTypedInput: true,
		},
	}
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
var envMappings = map[string]string{
	"syslog_port":       "syslog_port",
	"xmlrpc_port":       "xmlrpc_port",
	"xmlrpc_rw_port":    "xmlrpc_rw_port",
	"xmlrpc_rw_enabled": "xmlrpc_rw_enabled",

	"cobbler_socket":            "server.socket_path",
	"serve_retry_delay":         "server.retry_delay",
	"endpoint_shutdown_timeout": "server.shutdown_timeout",

	"syslog_dir":           "syslog.dir",
	"syslog_max_datagram":  "syslog.max_datagram",
	"syslog_stop_on_empty": "syslog.stop_on_empty",

	"announce_enabled":      "announce.enabled",
	"avahi_publish_binary":  "announce.binary",
	"announce_service_name": "announce.service_name",
	"announce_service_type": "announce.service_type",

	"registry_path":       "registry.path",
	"registry_in_memory":  "registry.in_memory",
	"registry_cache_size": "registry.cache_size",
	"registry_cache_ttl":  "registry.cache_ttl",

	"rpc_rate_limit":         "rpc.rate_limit_requests",
	"rpc_rate_limit_window":  "rpc.rate_limit_window",
	"disable_rpc_rate_limit": "rpc.rate_limit_disabled",
	"rpc_log_requests":       "rpc.log_requests",

	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - SYSLOG_PORT -> syslog_port
//   - XMLRPC_RW_ENABLED -> xmlrpc_rw_enabled
//   - COBBLER_SOCKET -> server.socket_path
//   - LOG_LEVEL -> logging.level
//
// Unmapped variables return "" and are skipped so that unrelated
// environment does not leak into the configuration.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
