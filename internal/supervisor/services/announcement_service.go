// Cobblerd - Provisioning Daemon and Install-Time Syslog Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cobblerd

package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/cobblerd/internal/announce"
	"github.com/tomtom215/cobblerd/internal/logging"
	"github.com/tomtom215/cobblerd/internal/metrics"
)

// Announcer runs the zeroconf helper. Satisfied by *announce.Runner.
type Announcer interface {
	Run(ctx context.Context, port uint16) (announce.Result, error)
}

// AnnouncementService runs the announcement helper once. The lifetime of
// that process is the unit of supervision: when it exits, for any reason,
// the service is removed rather than restarted.
type AnnouncementService struct {
	name      string
	announcer Announcer
	port      uint16
	logger    zerolog.Logger
}

// NewAnnouncementService announces the RPC endpoint on port.
func NewAnnouncementService(name string, announcer Announcer, port uint16) *AnnouncementService {
	return &AnnouncementService{
		name:      name,
		announcer: announcer,
		port:      port,
		logger:    logging.Component("announce").With().Uint16("port", port).Logger(),
	}
}

// Serve implements suture.Service.
func (a *AnnouncementService) Serve(ctx context.Context) error {
	a.logger.Info().Msg("Starting service announcement")

	res, err := a.announcer.Run(ctx, a.port)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	metrics.RecordAnnouncement(res.ExitCode)

	if err != nil {
		a.logger.Error().Err(err).Msg("Service announcement could not start")
		return fmt.Errorf("%s: %w: %w", a.name, err, suture.ErrDoNotRestart)
	}

	event := a.logger.Info()
	if res.ExitCode != 0 {
		event = a.logger.Warn()
	}
	event.Int("exit_code", res.ExitCode).
		Dur("ran_for", res.Duration).
		Str("stdout", strings.TrimSpace(string(res.Stdout))).
		Str("stderr", strings.TrimSpace(string(res.Stderr))).
		Msg("Service announcement exited")

	return fmt.Errorf("%s exited with status %d: %w", a.name, res.ExitCode, suture.ErrDoNotRestart)
}

// String implements fmt.Stringer for logging.
func (a *AnnouncementService) String() string {
	return a.name
}
