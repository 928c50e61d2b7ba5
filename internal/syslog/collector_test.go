// Cobblerd - Provisioning Daemon and Install-Time Syslog Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cobblerd

package syslog

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/cobblerd/internal/metrics"
)

type mapResolver map[string]string

func (m mapResolver) ResolveIdentity(addr string) (string, bool) {
	name, ok := m[addr]
	return name, ok
}

// memorySink records appended lines per identity.
type memorySink struct {
	mu    sync.Mutex
	lines map[string][]string
	err   error
}

func newMemorySink() *memorySink {
	return &memorySink{lines: make(map[string][]string)}
}

func (s *memorySink) Append(identity string, line []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.lines[identity] = append(s.lines[identity], string(line))
	return nil
}

func (s *memorySink) get(identity string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines[identity]...)
}

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func TestCollector_HandleKnownIdentity(t *testing.T) {
	t.Parallel()

	sink := newMemorySink()
	c := NewCollector(mapResolver{"10.0.0.5": "host42"}, sink, Config{StopOnEmpty: true})
	c.now = fixedClock(time.Unix(1700000000, 0).UTC())

	c.Handle(&net.UDPAddr{IP: net.ParseIP("10.0.0.5"), Port: 514}, []byte("install started"))

	got := sink.get("host42")
	if len(got) != 1 {
		t.Fatalf("expected 1 line for host42, got %d", len(got))
	}
	want := "1700000000.0\tTue Nov 14 22:13:20 2023\t10.0.0.5\tinstall started\n"
	if got[0] != want {
		t.Errorf("line = %q, want %q", got[0], want)
	}
	if !strings.HasSuffix(got[0], "\t10.0.0.5\tinstall started\n") {
		t.Errorf("line does not end with source and payload: %q", got[0])
	}
}

func TestCollector_HandleUnknownSourceUsesAddress(t *testing.T) {
	t.Parallel()

	sink := newMemorySink()
	c := NewCollector(mapResolver{}, sink, Config{})

	c.Handle(&net.UDPAddr{IP: net.ParseIP("192.0.2.7"), Port: 514}, []byte("dhcp ok"))

	if got := sink.get("192.0.2.7"); len(got) != 1 {
		t.Fatalf("expected 1 line under the literal address, got %v", sink.lines)
	}
}

func TestCollector_NilResolver(t *testing.T) {
	t.Parallel()

	sink := newMemorySink()
	c := NewCollector(nil, sink, Config{})
	c.Handle(&net.UDPAddr{IP: net.ParseIP("10.0.0.5")}, []byte("x"))

	if got := sink.get("10.0.0.5"); len(got) != 1 {
		t.Fatalf("expected 1 line under the address, got %v", sink.lines)
	}
}

func TestCollector_SinkErrorIsCounted(t *testing.T) {
	t.Parallel()

	sink := newMemorySink()
	sink.err = errors.New("disk full")
	c := NewCollector(nil, sink, Config{})

	before := testutil.ToFloat64(metrics.SyslogWriteErrors)
	c.Handle(&net.UDPAddr{IP: net.ParseIP("10.0.0.5")}, []byte("x"))
	c.Handle(&net.UDPAddr{IP: net.ParseIP("10.0.0.5")}, []byte("y"))

	if got := testutil.ToFloat64(metrics.SyslogWriteErrors) - before; got < 2 {
		t.Errorf("write errors delta = %v, want at least 2", got)
	}
}

func TestSourceIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		addr net.Addr
		want string
	}{
		{"udp v4", &net.UDPAddr{IP: net.ParseIP("10.0.0.5"), Port: 514}, "10.0.0.5"},
		{"udp v4-mapped", &net.UDPAddr{IP: net.ParseIP("::ffff:10.0.0.5"), Port: 514}, "10.0.0.5"},
		{"udp v6", &net.UDPAddr{IP: net.ParseIP("fd00::5"), Port: 514}, "fd00::5"},
		{"other", &net.TCPAddr{IP: net.ParseIP("10.0.0.9"), Port: 1}, "10.0.0.9"},
		{"nil", nil, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sourceIP(tt.addr); got != tt.want {
				t.Errorf("sourceIP = %q, want %q", got, tt.want)
			}
		})
	}
}

// startCollector runs a collector on a loopback UDP socket backed by a
// FileSink in a temp dir.
func startCollector(t *testing.T, resolver IdentityResolver, cfg Config) (dir string, addr net.Addr, cancel context.CancelFunc, done <-chan error) {
	t.Helper()

	dir = t.TempDir()
	sink, err := NewFileSink(dir)
	if err != nil {
		t.Fatalf("NewFileSink: %v", err)
	}

	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenPacket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	errCh := make(chan error, 1)
	c := NewCollector(resolver, sink, cfg)
	go func() { errCh <- c.Serve(ctx, conn) }()

	return dir, conn.LocalAddr(), cancel, errCh
}

func send(t *testing.T, addr net.Addr, payloads ...string) {
	t.Helper()
	client, err := net.Dial("udp", addr.String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()
	for _, p := range payloads {
		if _, err := client.Write([]byte(p)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
}

func waitForLines(t *testing.T, path string, n int) []string {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		data, err := os.ReadFile(path)
		if err == nil {
			lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
			if len(lines) >= n && lines[0] != "" {
				return lines
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d lines in %s", n, path)
	return nil
}

func TestCollector_ServeLoopback(t *testing.T) {
	t.Parallel()

	dir, addr, cancel, done := startCollector(t, mapResolver{"127.0.0.1": "host42"}, Config{StopOnEmpty: true})

	send(t, addr, "first", "second", "third")

	lines := waitForLines(t, filepath.Join(dir, "host42"), 3)
	for i, want := range []string{"first", "second", "third"} {
		fields := strings.Split(lines[i], "\t")
		if len(fields) != 4 {
			t.Fatalf("line %d has %d fields: %q", i, len(fields), lines[i])
		}
		if fields[2] != "127.0.0.1" || fields[3] != want {
			t.Errorf("line %d = %q, want source 127.0.0.1 and payload %q", i, lines[i], want)
		}
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestCollector_ServeUnknownSource(t *testing.T) {
	t.Parallel()

	dir, addr, _, _ := startCollector(t, mapResolver{}, Config{StopOnEmpty: true})

	send(t, addr, "hello")

	waitForLines(t, filepath.Join(dir, "127.0.0.1"), 1)
}

func TestCollector_ServeTruncatesLongDatagrams(t *testing.T) {
	t.Parallel()

	dir, addr, _, _ := startCollector(t, nil, Config{MaxDatagram: 16, StopOnEmpty: true})

	send(t, addr, strings.Repeat("a", 64))

	lines := waitForLines(t, filepath.Join(dir, "127.0.0.1"), 1)
	fields := strings.Split(lines[0], "\t")
	if fields[3] != strings.Repeat("a", 16) {
		t.Errorf("payload = %q, want 16 bytes", fields[3])
	}
}

func TestCollector_ServeStopsOnEmptyDatagram(t *testing.T) {
	t.Parallel()

	dir, addr, _, done := startCollector(t, nil, Config{StopOnEmpty: true})

	send(t, addr, "before", "")

	select {
	case err := <-done:
		if !errors.Is(err, ErrEmptyDatagram) {
			t.Errorf("Serve returned %v, want ErrEmptyDatagram", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not stop on empty datagram")
	}

	waitForLines(t, filepath.Join(dir, "127.0.0.1"), 1)
}

func TestCollector_ServeIgnoresEmptyWhenDisabled(t *testing.T) {
	t.Parallel()

	dir, addr, cancel, done := startCollector(t, nil, Config{StopOnEmpty: false})

	send(t, addr, "", "after")

	lines := waitForLines(t, filepath.Join(dir, "127.0.0.1"), 1)
	if !strings.HasSuffix(lines[0], "\tafter") {
		t.Errorf("line = %q, want payload after", lines[0])
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve returned %v, want context.Canceled", err)
	}
}
