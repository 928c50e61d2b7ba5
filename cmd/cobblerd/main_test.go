// Cobblerd - Provisioning Daemon and Install-Time Syslog Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cobblerd

package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/tomtom215/cobblerd/internal/announce"
	"github.com/tomtom215/cobblerd/internal/config"
)

func testSlog() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestRun_Version(t *testing.T) {
	if err := run([]string{"--version"}); err != nil {
		t.Fatalf("run --version: %v", err)
	}
}

func TestRun_Help(t *testing.T) {
	if err := run([]string{"--help"}); err != nil {
		t.Fatalf("run --help: %v", err)
	}
}

func TestRun_MissingConfigFile(t *testing.T) {
	if err := run([]string{"--config", filepath.Join(t.TempDir(), "absent.yaml")}); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestProbeAnnouncer(t *testing.T) {
	script := filepath.Join(t.TempDir(), "publish")
	if err := os.WriteFile(script, []byte("#!/bin/sh\n"), 0o755); err != nil { //nolint:gosec // test script
		t.Fatalf("write script: %v", err)
	}

	tests := []struct {
		name    string
		enabled bool
		binary  string
		want    bool
	}{
		{"enabled and present", true, script, true},
		{"disabled", false, script, false},
		{"missing binary", true, filepath.Join(t.TempDir(), "nope"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Announce: config.AnnounceConfig{Enabled: tt.enabled, Binary: tt.binary}}
			if got := probeAnnouncer(cfg, announce.NewRunner(tt.binary, "", "")); got != tt.want {
				t.Errorf("probeAnnouncer = %v, want %v", got, tt.want)
			}
		})
	}
}
