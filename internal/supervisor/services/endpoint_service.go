// Cobblerd - Provisioning Daemon and Install-Time Syslog Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cobblerd

package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/cobblerd/internal/logging"
	"github.com/tomtom215/cobblerd/internal/metrics"
)

// ErrBind marks a failure to bind an endpoint address. It is always returned
// together with suture.ErrTerminateSupervisorTree.
var ErrBind = errors.New("bind failed")

// ErrSocketInUse is returned when the unix socket path is answered by a live
// listener, typically a second daemon.
var ErrSocketInUse = errors.New("socket in use")

// staleDialTimeout bounds the liveness check on an existing socket file.
const staleDialTimeout = 250 * time.Millisecond

const (
	defaultRetryDelay      = 500 * time.Millisecond
	defaultShutdownTimeout = 10 * time.Second
	unixSocketMode         = 0o600
)

// Server matches the *http.Server lifecycle methods used by EndpointService.
type Server interface {
	Serve(l net.Listener) error
	Shutdown(ctx context.Context) error
}

// BindTarget is the address an endpoint listens on.
type BindTarget struct {
	Network string // "tcp" or "unix"
	Address string
}

func (b BindTarget) String() string {
	return b.Network + ":" + b.Address
}

// EndpointOptions tunes an EndpointService. Zero values select defaults.
type EndpointOptions struct {
	// RetryDelay is the pause before serving again after a transient error.
	RetryDelay time.Duration

	// ShutdownTimeout bounds Server.Shutdown on cancellation.
	ShutdownTimeout time.Duration

	// IsTransient classifies serve errors. Default: IsTransient.
	IsTransient func(error) bool

	// Listen binds the target. Default: net.Listen.
	Listen func(network, address string) (net.Listener, error)
}

// EndpointService runs one RPC endpoint under suture.
//
// It binds its address once per Serve call and keeps serving on that
// listener across transient interruptions:
//
//  1. Bind (a stale unix socket is removed first, the new one is chmod 0600)
//  2. Serve on a listener whose Close is a no-op, so the server cannot
//     release the bound socket
//  3. On a transient error, wait RetryDelay and serve again
//  4. On cancellation, close the listener, shut the server down and remove
//     the unix socket file
//
// A bind failure is fatal to the whole tree. Every other error is returned
// for suture to restart the service, which then binds again.
type EndpointService struct {
	name      string
	bind      BindTarget
	newServer func() Server
	opts      EndpointOptions
	logger    zerolog.Logger

	mu   sync.Mutex
	addr net.Addr
}

// NewEndpointService creates an endpoint. newServer is called once per Serve
// so a restarted endpoint never reuses a server that was shut down.
func NewEndpointService(name string, bind BindTarget, newServer func() Server, opts EndpointOptions) *EndpointService {
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
	}
	if opts.IsTransient == nil {
		opts.IsTransient = IsTransient
	}
	if opts.Listen == nil {
		opts.Listen = net.Listen
	}
	return &EndpointService{
		name:      name,
		bind:      bind,
		newServer: newServer,
		opts:      opts,
		logger: logging.Component("endpoint").With().
			Str("endpoint", name).
			Str("bind", bind.String()).
			Logger(),
	}
}

// Addr returns the bound address while the endpoint is serving, or nil.
func (e *EndpointService) Addr() net.Addr {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.addr
}

// Serve implements suture.Service.
func (e *EndpointService) Serve(ctx context.Context) error {
	ln, err := e.listen()
	if err != nil {
		metrics.EndpointBindFailures.WithLabelValues(e.name).Inc()
		e.logger.Error().Err(err).Msg("Endpoint bind failed")
		return fmt.Errorf("%s: %w: %w: %w", e.name, ErrBind, err, suture.ErrTerminateSupervisorTree)
	}

	e.setAddr(ln.Addr())
	metrics.SetEndpointUp(e.name, true)
	defer func() {
		e.setAddr(nil)
		metrics.SetEndpointUp(e.name, false)
		e.removeSocket()
	}()

	e.logger.Info().Str("addr", ln.Addr().String()).Msg("Endpoint listening")

	srv := e.newServer()
	keep := keepOpenListener{Listener: ln}
	errCh := make(chan error, 1)

	for {
		go func() {
			errCh <- srv.Serve(keep)
		}()

		select {
		case err := <-errCh:
			if !e.opts.IsTransient(err) {
				ln.Close()
				e.shutdown(srv)
				return fmt.Errorf("%s serve failed: %w", e.name, err)
			}

			metrics.EndpointServeRetries.WithLabelValues(e.name).Inc()
			e.logger.Warn().Err(err).Dur("retry_in", e.opts.RetryDelay).Msg("Endpoint serve interrupted, retrying")

			timer := time.NewTimer(e.opts.RetryDelay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				ln.Close()
				e.shutdown(srv)
				e.logger.Info().Msg("Endpoint stopped")
				return ctx.Err()
			}

		case <-ctx.Done():
			// Shutdown waits for Serve to return, and Serve only returns once
			// the real listener stops accepting.
			ln.Close()
			e.shutdown(srv)
			<-errCh
			e.logger.Info().Msg("Endpoint stopped")
			return ctx.Err()
		}
	}
}

func (e *EndpointService) shutdown(srv Server) {
	ctx, cancel := context.WithTimeout(context.Background(), e.opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		e.logger.Warn().Err(err).Msg("Endpoint shutdown incomplete")
	}
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (e *EndpointService) String() string {
	return e.name
}

func (e *EndpointService) listen() (net.Listener, error) {
	if e.bind.Network == "unix" {
		if err := os.MkdirAll(filepath.Dir(e.bind.Address), 0o755); err != nil {
			return nil, fmt.Errorf("create socket directory: %w", err)
		}
		if err := e.clearStaleSocket(); err != nil {
			return nil, err
		}
	}

	ln, err := e.opts.Listen(e.bind.Network, e.bind.Address)
	if err != nil {
		return nil, err
	}

	if e.bind.Network == "unix" {
		if err := os.Chmod(e.bind.Address, unixSocketMode); err != nil {
			ln.Close()
			return nil, fmt.Errorf("chmod socket: %w", err)
		}
	}
	return ln, nil
}

// clearStaleSocket removes a socket file left by a previous run. Anything
// that is not a socket, or a socket that still accepts connections, is left
// alone and reported as an error.
func (e *EndpointService) clearStaleSocket() error {
	path := e.bind.Address
	info, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat socket path: %w", err)
	}
	if info.Mode()&fs.ModeSocket == 0 {
		return fmt.Errorf("%s exists and is not a socket", path)
	}

	if conn, err := net.DialTimeout("unix", path, staleDialTimeout); err == nil {
		conn.Close()
		return fmt.Errorf("%w: %s", ErrSocketInUse, path)
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove stale socket: %w", err)
	}
	return nil
}

func (e *EndpointService) removeSocket() {
	if e.bind.Network != "unix" {
		return
	}
	if err := os.Remove(e.bind.Address); err != nil && !errors.Is(err, fs.ErrNotExist) {
		e.logger.Warn().Err(err).Msg("Failed to remove socket file")
	}
}

func (e *EndpointService) setAddr(addr net.Addr) {
	e.mu.Lock()
	e.addr = addr
	e.mu.Unlock()
}

// IsTransient reports whether a serve error is an interruption worth
// retrying on the same listener.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	for _, errno := range []syscall.Errno{syscall.EINTR, syscall.EAGAIN, syscall.ECONNABORTED, syscall.ECONNRESET} {
		if errors.Is(err, errno) {
			return true
		}
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// keepOpenListener hides Close from the server. http.Server closes its
// listener whenever Serve returns.
type keepOpenListener struct {
	net.Listener
}

func (keepOpenListener) Close() error { return nil }
