// Cobblerd - Provisioning Daemon and Install-Time Syslog Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cobblerd

// Package logging provides centralized zerolog-based structured logging for cobblerd.
//
// Every package in the daemon logs through this package rather than the
// standard library log package. The supervisor tree, which only speaks slog,
// is bridged onto the same zerolog writer through SlogHandler.
//
// # Quick Start
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Uint16("port", 25150).Msg("syslog running")
//	logging.Error().Err(err).Str("endpoint", "xmlrpc-rw").Msg("serve failed")
//
//	// Per-component child logger
//	log := logging.Component("syslog")
//	log.Debug().Str("identity", name).Msg("record appended")
//
// # Supervisor Integration
//
//	slogger := logging.NewSlogLogger()
//	tree, err := supervisor.NewSupervisorTree(slogger, supervisor.DefaultTreeConfig())
//
// # Configuration
//
// Level, format and caller reporting come from the logging section of the
// daemon configuration (LOG_LEVEL, LOG_FORMAT, LOG_CALLER).
//
// Always terminate log chains with .Msg() or .Send():
//
//	logging.Info().Str("key", "value").Msg("message")  // Correct
//	logging.Info().Str("key", "value")                 // WRONG - log not emitted
package logging
