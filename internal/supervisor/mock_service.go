// Cobblerd - Provisioning Daemon and Install-Time Syslog Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cobblerd

package supervisor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// MockService is a test helper that implements suture.Service.
// It stands in for endpoints and ingestion leaves when exercising the tree.
type MockService struct {
	name       string
	startCount atomic.Int32
	stopCount  atomic.Int32
	failCount  atomic.Int32
	panicCount atomic.Int32

	mu        sync.Mutex
	maxFails  int32
	maxPanics int32
	err       error
	started   chan struct{}
}

// NewMockService creates a new mock service for testing.
func NewMockService(name string) *MockService {
	return &MockService{name: name, started: make(chan struct{}, 64)}
}

// Serve implements suture.Service.
func (m *MockService) Serve(ctx context.Context) error {
	m.startCount.Add(1)
	defer m.stopCount.Add(1)

	select {
	case m.started <- struct{}{}:
	default:
	}

	m.mu.Lock()
	err := m.err
	maxFails := m.maxFails
	maxPanics := m.maxPanics
	m.mu.Unlock()

	if maxPanics > 0 && m.panicCount.Add(1) <= maxPanics {
		panic("simulated panic in " + m.name)
	}

	// If we have a fail count, fail that many times before succeeding
	if maxFails > 0 && m.failCount.Add(1) <= maxFails {
		return errors.New("simulated failure")
	}

	if err != nil {
		return err
	}

	<-ctx.Done()
	return ctx.Err()
}

// SetError configures the service to return this error immediately.
func (m *MockService) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetFailCount configures the service to fail N times before running.
func (m *MockService) SetFailCount(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxFails = int32(n) //nolint:gosec // test helper
}

// SetPanicCount configures the service to panic N times before running.
func (m *MockService) SetPanicCount(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxPanics = int32(n) //nolint:gosec // test helper
}

// WaitStarted blocks until Serve has been entered n times or timeout passes.
func (m *MockService) WaitStarted(n int32, timeout time.Duration) bool {
	deadline := time.After(timeout)
	for m.startCount.Load() < n {
		select {
		case <-m.started:
		case <-deadline:
			return m.startCount.Load() >= n
		}
	}
	return true
}

// StartCount returns how many times Serve was called.
func (m *MockService) StartCount() int32 {
	return m.startCount.Load()
}

// StopCount returns how many times Serve returned.
func (m *MockService) StopCount() int32 {
	return m.stopCount.Load()
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify services in log messages.
func (m *MockService) String() string {
	return m.name
}
