// Cobblerd - Provisioning Daemon and Install-Time Syslog Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cobblerd

package syslog

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/cobblerd/internal/logging"
	"github.com/tomtom215/cobblerd/internal/metrics"
)

// DefaultMaxDatagram is the receive buffer size. Longer datagrams are
// truncated.
const DefaultMaxDatagram = 1024

// ErrEmptyDatagram is returned by Serve when a zero-length datagram arrives
// and StopOnEmpty is set.
var ErrEmptyDatagram = errors.New("empty datagram received")

// IdentityResolver maps a source address to a system name.
type IdentityResolver interface {
	ResolveIdentity(addr string) (string, bool)
}

// Config configures a Collector.
type Config struct {
	MaxDatagram int
	StopOnEmpty bool
}

// Collector reads syslog datagrams and appends each one to the log file of
// the system that sent it.
type Collector struct {
	resolver    IdentityResolver
	sink        Sink
	maxDatagram int
	stopOnEmpty bool

	// now is the single clock read per datagram.
	now func() time.Time

	logger     zerolog.Logger
	errLimiter *rate.Limiter
}

// NewCollector creates a collector. A nil resolver attributes every datagram
// to its source address.
func NewCollector(resolver IdentityResolver, sink Sink, cfg Config) *Collector {
	if cfg.MaxDatagram <= 0 {
		cfg.MaxDatagram = DefaultMaxDatagram
	}
	return &Collector{
		resolver:    resolver,
		sink:        sink,
		maxDatagram: cfg.MaxDatagram,
		stopOnEmpty: cfg.StopOnEmpty,
		now:         time.Now,
		logger:      logging.Component("syslog"),
		errLimiter:  rate.NewLimiter(rate.Every(time.Second), 5),
	}
}

// Serve reads datagrams from conn until ctx is cancelled, a read fails, or
// an empty datagram arrives with StopOnEmpty set. Serve does not close conn.
func (c *Collector) Serve(ctx context.Context, conn net.PacketConn) error {
	// Unblock ReadFrom on cancellation without taking ownership of conn.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Now()) //nolint:errcheck // best effort wakeup
	})
	defer stop()

	buf := make([]byte, c.maxDatagram)
	for {
		n, addr, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read datagram: %w", err)
		}
		if n == 0 {
			if c.stopOnEmpty {
				return ErrEmptyDatagram
			}
			continue
		}
		c.Handle(addr, buf[:n])
	}
}

// Handle attributes and appends a single datagram. Sink failures are
// counted and logged, never returned.
func (c *Collector) Handle(addr net.Addr, payload []byte) {
	source := sourceIP(addr)

	identity, resolved := "", false
	if c.resolver != nil {
		identity, resolved = c.resolver.ResolveIdentity(source)
	}
	if !resolved {
		identity = source
	}

	rec := Record{
		ReceivedAt: c.now(),
		Source:     source,
		Identity:   identity,
		Payload:    payload,
	}
	metrics.RecordDatagram(resolved, len(payload))

	if err := c.sink.Append(identity, rec.Line()); err != nil {
		metrics.SyslogWriteErrors.Inc()
		if c.errLimiter.Allow() {
			c.logger.Warn().Err(err).
				Str("identity", identity).
				Str("source", source).
				Msg("Failed to append syslog record")
		}
	}
}

// sourceIP returns the bare IP of a datagram sender.
func sourceIP(addr net.Addr) string {
	switch a := addr.(type) {
	case *net.UDPAddr:
		return a.IP.String()
	case nil:
		return "unknown"
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
