// Cobblerd - Provisioning Daemon and Install-Time Syslog Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cobblerd

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.SyslogPort != 25150 {
		t.Errorf("SyslogPort = %d, want 25150", cfg.SyslogPort)
	}
	if cfg.XMLRPCPort != 25151 {
		t.Errorf("XMLRPCPort = %d, want 25151", cfg.XMLRPCPort)
	}
	if cfg.XMLRPCRWPort != 25152 {
		t.Errorf("XMLRPCRWPort = %d, want 25152", cfg.XMLRPCRWPort)
	}
	if !cfg.XMLRPCRWEnabled {
		t.Error("XMLRPCRWEnabled should be true by default")
	}

	if cfg.Server.SocketPath != "/var/lib/cobbler/sock" {
		t.Errorf("Server.SocketPath = %q", cfg.Server.SocketPath)
	}
	if cfg.Server.RetryDelay != 500*time.Millisecond {
		t.Errorf("Server.RetryDelay = %v, want 500ms", cfg.Server.RetryDelay)
	}

	if cfg.Syslog.Dir != "/var/log/cobbler/syslog" {
		t.Errorf("Syslog.Dir = %q", cfg.Syslog.Dir)
	}
	if cfg.Syslog.MaxDatagram != 1024 {
		t.Errorf("Syslog.MaxDatagram = %d, want 1024", cfg.Syslog.MaxDatagram)
	}
	if !cfg.Syslog.StopOnEmpty {
		t.Error("Syslog.StopOnEmpty should be true by default")
	}

	if cfg.Announce.Binary != "/usr/bin/avahi-publish-service" {
		t.Errorf("Announce.Binary = %q", cfg.Announce.Binary)
	}
	if cfg.Announce.ServiceType != "_http._tcp" {
		t.Errorf("Announce.ServiceType = %q", cfg.Announce.ServiceType)
	}

	if cfg.Registry.CacheSize != 4096 || cfg.Registry.CacheTTL != 30*time.Second {
		t.Errorf("Registry cache = %d/%v, want 4096/30s", cfg.Registry.CacheSize, cfg.Registry.CacheTTL)
	}

	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v, want info/json", cfg.Logging)
	}
}

// TestEnvTransformFunc verifies environment variable name transformations
func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"SYSLOG_PORT", "syslog_port"},
		{"XMLRPC_PORT", "xmlrpc_port"},
		{"XMLRPC_RW_PORT", "xmlrpc_rw_port"},
		{"XMLRPC_RW_ENABLED", "xmlrpc_rw_enabled"},
		{"COBBLER_SOCKET", "server.socket_path"},
		{"SERVE_RETRY_DELAY", "server.retry_delay"},
		{"SYSLOG_DIR", "syslog.dir"},
		{"SYSLOG_STOP_ON_EMPTY", "syslog.stop_on_empty"},
		{"AVAHI_PUBLISH_BINARY", "announce.binary"},
		{"REGISTRY_IN_MEMORY", "registry.in_memory"},
		{"REGISTRY_CACHE_TTL", "registry.cache_ttl"},
		{"DISABLE_RPC_RATE_LIMIT", "rpc.rate_limit_disabled"},
		{"SUPERVISOR_FAILURE_BACKOFF", "supervisor.failure_backoff"},
		{"LOG_LEVEL", "logging.level"},
		{"log_format", "logging.format"},

		// Unmapped variables are dropped
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		if got := envTransformFunc(tt.input); got != tt.expected {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv(ConfigPathEnvVar, "")
	for key := range envMappings {
		t.Setenv(strings.ToUpper(key), "")
		os.Unsetenv(strings.ToUpper(key))
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cobblerd.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFrom_DefaultsOnly(t *testing.T) {
	isolateEnv(t)

	cfg, err := LoadFrom("")
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.XMLRPCPort != 25151 || !cfg.XMLRPCRWEnabled {
		t.Errorf("unexpected defaults: port=%d rw=%v", cfg.XMLRPCPort, cfg.XMLRPCRWEnabled)
	}
}

func TestLoadFrom_FileOverridesDefaults(t *testing.T) {
	isolateEnv(t)

	path := writeConfigFile(t, `
syslog_port: 5140
xmlrpc_port: 8151
xmlrpc_rw_enabled: false
syslog:
  dir: /srv/cobbler/syslog
server:
  retry_delay: 2s
registry:
  in_memory: true
`)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.SyslogPort != 5140 {
		t.Errorf("SyslogPort = %d, want 5140", cfg.SyslogPort)
	}
	if cfg.XMLRPCPort != 8151 {
		t.Errorf("XMLRPCPort = %d, want 8151", cfg.XMLRPCPort)
	}
	if cfg.XMLRPCRWEnabled {
		t.Error("XMLRPCRWEnabled should be false from file")
	}
	if cfg.Syslog.Dir != "/srv/cobbler/syslog" {
		t.Errorf("Syslog.Dir = %q", cfg.Syslog.Dir)
	}
	if cfg.Server.RetryDelay != 2*time.Second {
		t.Errorf("Server.RetryDelay = %v, want 2s", cfg.Server.RetryDelay)
	}
	if !cfg.Registry.InMemory {
		t.Error("Registry.InMemory should be true from file")
	}
	// Untouched keys keep their defaults
	if cfg.XMLRPCRWPort != 25152 {
		t.Errorf("XMLRPCRWPort = %d, want default 25152", cfg.XMLRPCRWPort)
	}
}

func TestLoadFrom_EnvOverridesFile(t *testing.T) {
	isolateEnv(t)

	path := writeConfigFile(t, "xmlrpc_port: 8151\nsyslog_port: 5140\n")
	t.Setenv("XMLRPC_PORT", "9151")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.XMLRPCPort != 9151 {
		t.Errorf("XMLRPCPort = %d, want env value 9151", cfg.XMLRPCPort)
	}
	if cfg.SyslogPort != 5140 {
		t.Errorf("SyslogPort = %d, want file value 5140", cfg.SyslogPort)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadFrom_RWEnabledSpellings(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"0", false},
		{"false", false},
		{"off", false},
		{"NO", false},
		{"1", true},
		{"true", true},
		{"2", true},
		{"yes", true},
		{"on", true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			isolateEnv(t)
			t.Setenv("XMLRPC_RW_ENABLED", tt.value)

			cfg, err := LoadFrom("")
			if err != nil {
				t.Fatalf("LoadFrom: %v", err)
			}
			if bool(cfg.XMLRPCRWEnabled) != tt.want {
				t.Errorf("XMLRPC_RW_ENABLED=%q gave %v, want %v", tt.value, cfg.XMLRPCRWEnabled, tt.want)
			}
		})
	}
}

func TestLoadFrom_RWEnabledFromYAMLNumber(t *testing.T) {
	isolateEnv(t)

	path := writeConfigFile(t, "xmlrpc_rw_enabled: 2\n")
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if !cfg.XMLRPCRWEnabled {
		t.Error("xmlrpc_rw_enabled: 2 should enable the rw endpoint")
	}
}

func TestParseToggle(t *testing.T) {
	tests := []struct {
		in      interface{}
		want    Toggle
		wantErr bool
	}{
		{nil, false, false},
		{true, true, false},
		{false, false, false},
		{0, false, false},
		{2, true, false},
		{uint8(1), true, false},
		{0.0, false, false},
		{" Off ", false, false},
		{"anything", true, false},
		{[]string{"1"}, false, true},
	}

	for _, tt := range tests {
		got, err := ParseToggle(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseToggle(%#v) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseToggle(%#v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoadFrom_ConfigPathEnv(t *testing.T) {
	isolateEnv(t)

	path := writeConfigFile(t, "syslog_port: 6514\n")
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := LoadFrom("")
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.SyslogPort != 6514 {
		t.Errorf("SyslogPort = %d, want 6514", cfg.SyslogPort)
	}
}

func TestLoadFrom_MissingExplicitFile(t *testing.T) {
	isolateEnv(t)

	_, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoadFrom_InvalidValues(t *testing.T) {
	isolateEnv(t)
	t.Setenv("XMLRPC_RW_PORT", "25151")

	_, err := LoadFrom("")
	if err == nil {
		t.Fatal("expected validation error for colliding ports")
	}
	if !strings.Contains(err.Error(), "configuration validation failed") {
		t.Errorf("error = %q, want validation failure", err.Error())
	}
}

func TestLoadFrom_MalformedYAML(t *testing.T) {
	isolateEnv(t)

	path := writeConfigFile(t, "syslog_port: [unterminated\n")
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}
