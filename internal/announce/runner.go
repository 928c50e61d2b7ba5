// Cobblerd - Provisioning Daemon and Install-Time Syslog Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cobblerd

package announce

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

// Defaults for the zeroconf helper.
const (
	DefaultBinary      = "/usr/bin/avahi-publish-service"
	DefaultServiceName = "cobblerd"
	DefaultServiceType = "_http._tcp"
)

// Runner announces the RPC endpoint by running an external zeroconf
// publisher for as long as it stays up.
type Runner struct {
	Binary      string
	ServiceName string
	ServiceType string
}

// Result describes one finished helper process.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	Duration time.Duration
}

// NewRunner returns a Runner with defaults filled in for empty fields.
func NewRunner(binary, serviceName, serviceType string) *Runner {
	if binary == "" {
		binary = DefaultBinary
	}
	if serviceName == "" {
		serviceName = DefaultServiceName
	}
	if serviceType == "" {
		serviceType = DefaultServiceType
	}
	return &Runner{Binary: binary, ServiceName: serviceName, ServiceType: serviceType}
}

// Available reports whether the helper binary exists and is executable.
func (r *Runner) Available() bool {
	_, err := exec.LookPath(r.Binary)
	return err == nil
}

// Args returns the helper arguments for port.
func (r *Runner) Args(port uint16) []string {
	return []string{r.ServiceName, r.ServiceType, strconv.Itoa(int(port))}
}

// Run starts the helper and blocks until it exits or ctx is cancelled.
// A non-zero exit is reported in Result, not as an error; err is set only
// when the process could not be started or was killed by cancellation.
func (r *Runner) Run(ctx context.Context, port uint16) (Result, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, r.Binary, r.Args(port)...) //nolint:gosec // binary comes from operator config
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{
		ExitCode: -1,
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	if ctx.Err() != nil {
		return res, ctx.Err()
	}

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return res, fmt.Errorf("run %s: %w", r.Binary, err)
	}
	return res, nil
}
