// Cobblerd - Provisioning Daemon and Install-Time Syslog Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cobblerd

package services

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/cobblerd/internal/logging"
	"github.com/tomtom215/cobblerd/internal/metrics"
	"github.com/tomtom215/cobblerd/internal/syslog"
)

// PacketServer reads datagrams from a bound packet connection.
// Satisfied by *syslog.Collector.
type PacketServer interface {
	Serve(ctx context.Context, conn net.PacketConn) error
}

// SyslogService binds the syslog UDP port and runs the collector on it.
//
// An empty datagram ends the collector for good (suture.ErrDoNotRestart);
// a bind failure stops the tree like an endpoint bind failure.
type SyslogService struct {
	name       string
	address    string
	collector  PacketServer
	listenFunc func(network, address string) (net.PacketConn, error)
	logger     zerolog.Logger
}

// NewSyslogService creates the syslog leaf for address ("host:port").
func NewSyslogService(name, address string, collector PacketServer) *SyslogService {
	return &SyslogService{
		name:       name,
		address:    address,
		collector:  collector,
		listenFunc: net.ListenPacket,
		logger:     logging.Component("syslog").With().Str("addr", address).Logger(),
	}
}

// Serve implements suture.Service.
func (s *SyslogService) Serve(ctx context.Context) error {
	conn, err := s.listenFunc("udp", s.address)
	if err != nil {
		metrics.EndpointBindFailures.WithLabelValues(s.name).Inc()
		s.logger.Error().Err(err).Msg("Syslog bind failed")
		return fmt.Errorf("%s: %w: %w: %w", s.name, ErrBind, err, suture.ErrTerminateSupervisorTree)
	}
	defer conn.Close()

	metrics.SetEndpointUp(s.name, true)
	defer metrics.SetEndpointUp(s.name, false)

	s.logger.Info().Str("local", conn.LocalAddr().String()).Msg("Syslog collector listening")

	err = s.collector.Serve(ctx, conn)
	switch {
	case errors.Is(err, syslog.ErrEmptyDatagram):
		s.logger.Info().Msg("Empty datagram received, syslog collector stopping")
		return fmt.Errorf("%s: %w: %w", s.name, err, suture.ErrDoNotRestart)
	case ctx.Err() != nil:
		return ctx.Err()
	case err != nil:
		return fmt.Errorf("%s: %w", s.name, err)
	default:
		return nil
	}
}

// String implements fmt.Stringer for logging.
func (s *SyslogService) String() string {
	return s.name
}
