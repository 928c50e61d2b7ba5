// Cobblerd - Provisioning Daemon and Install-Time Syslog Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cobblerd

package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/pflag"

	"github.com/tomtom215/cobblerd/internal/announce"
	"github.com/tomtom215/cobblerd/internal/config"
	"github.com/tomtom215/cobblerd/internal/registry"
	"github.com/tomtom215/cobblerd/internal/rpc"
	"github.com/tomtom215/cobblerd/internal/supervisor"
	"github.com/tomtom215/cobblerd/internal/supervisor/services"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		SyslogPort:      25150,
		XMLRPCPort:      25151,
		XMLRPCRWPort:    25152,
		XMLRPCRWEnabled: true,
		Server: config.ServerConfig{
			SocketPath:      filepath.Join(dir, "sock"),
			RetryDelay:      10 * time.Millisecond,
			ShutdownTimeout: time.Second,
		},
		Syslog: config.SyslogConfig{
			Dir:         filepath.Join(dir, "syslog"),
			MaxDatagram: 1024,
			StopOnEmpty: true,
		},
		RPC: config.RPCConfig{
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
		},
	}
}

func openTestRegistry(t *testing.T) *registry.Store {
	t.Helper()
	reg, err := registry.Open(registry.Options{InMemory: true})
	if err != nil {
		t.Fatalf("open registry: %v", err)
	}
	t.Cleanup(func() { reg.Close() })
	return reg
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    options
		wantErr bool
	}{
		{"none", nil, options{}, false},
		{"config long", []string{"--config", "/etc/cobbler/cobblerd.yaml"}, options{configPath: "/etc/cobbler/cobblerd.yaml"}, false},
		{"config short", []string{"-c", "x.yaml"}, options{configPath: "x.yaml"}, false},
		{"unix only", []string{"--unix-only"}, options{unixOnly: true}, false},
		{"version", []string{"--version"}, options{showVersion: true}, false},
		{"unknown flag", []string{"--bogus"}, options{}, true},
		{"positional", []string{"serve"}, options{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFlags(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("options = %+v, want %+v", got, tt.want)
			}
		})
	}

	if _, err := parseFlags([]string{"--help"}); !errors.Is(err, pflag.ErrHelp) {
		t.Errorf("--help should return pflag.ErrHelp, got %v", err)
	}
}

func TestServiceFactory_Kinds(t *testing.T) {
	cfg := testConfig(t)
	factory := newServiceFactory(cfg, openTestRegistry(t), announce.NewRunner("", "", ""), "test")
	topo := supervisor.Plan(cfg.Settings(), true, supervisor.PlanOptions{})

	for _, leaf := range topo.Leaves {
		svc, err := factory.NewService(leaf)
		if err != nil {
			t.Fatalf("%s: %v", leaf.Name, err)
		}

		var ok bool
		switch leaf.Kind {
		case supervisor.KindEndpoint:
			_, ok = svc.(*services.EndpointService)
		case supervisor.KindSyslog:
			_, ok = svc.(*services.SyslogService)
		case supervisor.KindAnnounce:
			_, ok = svc.(*services.AnnouncementService)
		}
		if !ok {
			t.Errorf("%s: unexpected service type %T", leaf.Name, svc)
		}
		if got := svc.(interface{ String() string }).String(); got != leaf.Name {
			t.Errorf("service name = %q, want %q", got, leaf.Name)
		}
	}

	if _, err := os.Stat(cfg.Syslog.Dir); err != nil {
		t.Errorf("syslog dir should be created by the factory: %v", err)
	}

	if _, err := factory.NewService(supervisor.Leaf{Name: "odd", Kind: supervisor.LeafKind(42)}); err == nil {
		t.Error("expected error for unknown leaf kind")
	}
}

func unixClient(path string) *http.Client {
	return &http.Client{Transport: &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", path)
		},
	}}
}

func call(t *testing.T, client *http.Client, body string) rpc.Response {
	t.Helper()
	resp, err := client.Post("http://cobblerd/RPC2", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST %s: %v", body, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	var out rpc.Response
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode %q: %v", data, err)
	}
	return out
}

// TestUnixOnly_EndToEnd serves the unix-only topology and drives the
// read-write surface through the socket.
func TestUnixOnly_EndToEnd(t *testing.T) {
	cfg := testConfig(t)
	reg := openTestRegistry(t)

	tree, err := supervisor.NewSupervisorTree(testSlog(), supervisor.TreeConfig{ShutdownTimeout: time.Second})
	if err != nil {
		t.Fatalf("NewSupervisorTree: %v", err)
	}
	topo := supervisor.PlanUnixOnly(cfg.Settings(), supervisor.PlanOptions{})
	if _, err := supervisor.Build(tree, topo, newServiceFactory(cfg, reg, nil, "test")); err != nil {
		t.Fatalf("Build: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	socket := cfg.Server.SocketPath
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := os.Stat(socket); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("socket was not created")
		}
		time.Sleep(5 * time.Millisecond)
	}

	client := unixClient(socket)

	if resp := call(t, client, `{"method":"register_system","params":{"name":"host42","ip_addresses":["10.0.0.5"]}}`); resp.Fault != nil {
		t.Fatalf("register_system fault: %+v", resp.Fault)
	}

	resp := call(t, client, `{"method":"find_system","params":{"ip":"10.0.0.5"}}`)
	if resp.Fault != nil {
		t.Fatalf("find_system fault: %+v", resp.Fault)
	}
	found, _ := json.Marshal(resp.Result)
	if !strings.Contains(string(found), `"host42"`) {
		t.Errorf("find_system result = %s", found)
	}

	if name, ok := reg.ResolveIdentity("10.0.0.5"); !ok || name != "host42" {
		t.Errorf("registry should resolve 10.0.0.5 to host42, got %q %v", name, ok)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("unexpected tree error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("tree did not stop")
	}
	if _, err := os.Stat(socket); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("socket should be removed on shutdown, stat err = %v", err)
	}
}

// TestSyslogLeaf_UsesRegistry checks that the collector built by the factory
// names log files after registered systems.
func TestSyslogLeaf_UsesRegistry(t *testing.T) {
	cfg := testConfig(t)
	reg := openTestRegistry(t)
	if _, err := reg.Put(context.Background(), &registry.System{Name: "host42", IPAddresses: []string{"127.0.0.1"}}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	probe, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("probe port: %v", err)
	}
	addr := probe.LocalAddr().String()
	probe.Close()

	leaf := supervisor.Leaf{
		Name:     supervisor.LeafSyslog,
		Branch:   supervisor.BranchIngestion,
		Kind:     supervisor.KindSyslog,
		Network:  "udp",
		Address:  addr,
		Settings: cfg.Settings(),
	}
	svc, err := newServiceFactory(cfg, reg, nil, "test").NewService(leaf)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	conn, err := net.Dial("udp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	path := filepath.Join(cfg.Syslog.Dir, "host42")
	deadline := time.Now().Add(2 * time.Second)
	for {
		// Resend until the collector is up; UDP drops datagrams sent before bind.
		_, _ = conn.Write([]byte("install started"))
		data, err := os.ReadFile(path)
		if err == nil && strings.Contains(string(data), "\t127.0.0.1\tinstall started\n") {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("no log line in %s (err=%v)", path, err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("syslog leaf did not stop")
	}
}
