// Cobblerd - Provisioning Daemon and Install-Time Syslog Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cobblerd

package config

import (
	"fmt"
	"path/filepath"

	"github.com/tomtom215/cobblerd/internal/validation"
)

// Validate checks struct rules first and then the cross-field rules that
// struct tags cannot express.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	if err := c.validatePorts(); err != nil {
		return err
	}

	return c.validatePaths()
}

// validatePorts rejects port collisions between endpoints that are bound at
// the same time. The syslog port is UDP and may share a number with a TCP
// endpoint.
func (c *Config) validatePorts() error {
	if c.XMLRPCRWEnabled && c.XMLRPCPort == c.XMLRPCRWPort {
		return fmt.Errorf("xmlrpc_port and xmlrpc_rw_port must differ when xmlrpc_rw_enabled is set (both %d)", c.XMLRPCPort)
	}
	return nil
}

func (c *Config) validatePaths() error {
	if !filepath.IsAbs(c.Syslog.Dir) {
		return fmt.Errorf("syslog.dir must be an absolute path, got %q", c.Syslog.Dir)
	}
	if !filepath.IsAbs(c.Server.SocketPath) {
		return fmt.Errorf("server.socket_path must be an absolute path, got %q", c.Server.SocketPath)
	}
	if c.RPC.RateLimitWindow <= 0 && !c.RPC.RateLimitDisabled {
		return fmt.Errorf("rpc.rate_limit_window must be positive when rate limiting is enabled")
	}
	return nil
}
