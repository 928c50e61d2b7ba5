// Cobblerd - Provisioning Daemon and Install-Time Syslog Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cobblerd

package supervisor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

// TestServiceInterface verifies services implement suture.Service correctly.
func TestServiceInterface(t *testing.T) {
	var _ suture.Service = (*MockService)(nil)
}

// TestMockService validates the test helper works correctly.
func TestMockService(t *testing.T) {
	t.Run("runs until context canceled", func(t *testing.T) {
		svc := NewMockService("test")
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		err := svc.Serve(ctx)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected context.DeadlineExceeded, got %v", err)
		}
		if svc.StartCount() != 1 || svc.StopCount() != 1 {
			t.Errorf("expected 1 start and 1 stop, got %d/%d", svc.StartCount(), svc.StopCount())
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		svc := NewMockService("one-shot")
		svc.SetError(suture.ErrDoNotRestart)

		if err := svc.Serve(context.Background()); !errors.Is(err, suture.ErrDoNotRestart) {
			t.Errorf("expected ErrDoNotRestart, got %v", err)
		}
	})

	t.Run("fails N times then runs", func(t *testing.T) {
		svc := NewMockService("retry-test")
		svc.SetFailCount(2)

		for i := 0; i < 2; i++ {
			if err := svc.Serve(context.Background()); err == nil || err.Error() != "simulated failure" {
				t.Errorf("call %d should fail, got %v", i+1, err)
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("third call should run until timeout, got %v", err)
		}
	})

	t.Run("panics N times", func(t *testing.T) {
		svc := NewMockService("panicky")
		svc.SetPanicCount(1)

		func() {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			_ = svc.Serve(context.Background())
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("second call should run until timeout, got %v", err)
		}
	})

	t.Run("WaitStarted", func(t *testing.T) {
		svc := NewMockService("waiter")
		if svc.WaitStarted(1, 10*time.Millisecond) {
			t.Error("WaitStarted should time out before Serve")
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() { _ = svc.Serve(ctx) }()

		if !svc.WaitStarted(1, time.Second) {
			t.Error("WaitStarted should observe the start")
		}
	})

	t.Run("String returns service name", func(t *testing.T) {
		if got := NewMockService("my-service").String(); got != "my-service" {
			t.Errorf("expected 'my-service', got %q", got)
		}
	})
}
