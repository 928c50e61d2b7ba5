// Cobblerd - Provisioning Daemon and Install-Time Syslog Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cobblerd

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/tomtom215/cobblerd/internal/announce"
	"github.com/tomtom215/cobblerd/internal/config"
	"github.com/tomtom215/cobblerd/internal/logging"
	"github.com/tomtom215/cobblerd/internal/metrics"
	"github.com/tomtom215/cobblerd/internal/registry"
	"github.com/tomtom215/cobblerd/internal/supervisor"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		logging.Error().Err(err).Msg("cobblerd stopped")
		os.Exit(1)
	}
}

type options struct {
	configPath  string
	unixOnly    bool
	showVersion bool
}

func parseFlags(args []string) (options, error) {
	var opts options

	flagSet := pflag.NewFlagSet("cobblerd", pflag.ContinueOnError)
	flagSet.StringVarP(&opts.configPath, "config", "c", "", "path to the YAML config file (default: search cobblerd.yaml, /etc/cobbler/cobblerd.yaml)")
	flagSet.BoolVar(&opts.unixOnly, "unix-only", false, "serve only the read-write unix socket endpoint")
	flagSet.BoolVar(&opts.showVersion, "version", false, "print the version and exit")

	if err := flagSet.Parse(args); err != nil {
		return opts, err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return opts, fmt.Errorf("unexpected argument: %s", rest[0])
	}
	return opts, nil
}

func run(args []string) error {
	opts, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if opts.showVersion {
		fmt.Println("cobblerd", version)
		return nil
	}

	cfg, err := config.LoadFrom(opts.configPath)
	if err != nil {
		return err
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
		Output: os.Stderr,
	})
	metrics.SetAppInfo(version)

	settings := cfg.Settings()
	logging.Info().
		Str("version", version).
		Uint16("syslog_port", settings.SyslogPort).
		Uint16("xmlrpc_port", settings.XMLRPCPort).
		Uint16("xmlrpc_rw_port", settings.XMLRPCRWPort).
		Bool("xmlrpc_rw_enabled", settings.XMLRPCRWEnabled).
		Str("socket", settings.SocketPath).
		Str("syslog_dir", settings.SyslogDir).
		Msg("Starting cobblerd")

	reg, err := registry.Open(registry.Options{
		Path:      cfg.Registry.Path,
		InMemory:  cfg.Registry.InMemory,
		CacheSize: cfg.Registry.CacheSize,
		CacheTTL:  cfg.Registry.CacheTTL,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := reg.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing registry")
		}
	}()

	runner := announce.NewRunner(cfg.Announce.Binary, cfg.Announce.ServiceName, cfg.Announce.ServiceType)

	planOpts := supervisor.PlanOptions{LogRequests: cfg.RPC.LogRequests}
	var topo supervisor.Topology
	if opts.unixOnly {
		topo = supervisor.PlanUnixOnly(settings, planOpts)
		logging.Info().Msg("Unix-only mode: serving the socket endpoint alone")
	} else {
		topo = supervisor.Plan(settings, probeAnnouncer(cfg, runner), planOpts)
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: cfg.Supervisor.FailureThreshold,
		FailureDecay:     cfg.Supervisor.FailureDecay,
		FailureBackoff:   cfg.Supervisor.FailureBackoff,
		ShutdownTimeout:  cfg.Supervisor.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	factory := newServiceFactory(cfg, reg, runner, version)
	if _, err := supervisor.Build(tree, topo, factory); err != nil {
		return err
	}
	for _, leaf := range topo.Leaves {
		logging.Debug().
			Str("leaf", leaf.Name).
			Str("branch", string(leaf.Branch)).
			Str("kind", leaf.Kind.String()).
			Str("addr", leaf.Address).
			Msg("Service added")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Strs("services", topo.Names()).Msg("Starting supervisor tree")
	treeErr := <-tree.ServeBackground(ctx)

	reportUnstopped(tree)

	if treeErr != nil && !errors.Is(treeErr, context.Canceled) {
		return fmt.Errorf("supervisor tree: %w", treeErr)
	}
	logging.Info().Msg("cobblerd stopped gracefully")
	return nil
}

// probeAnnouncer reports whether the announce leaf should run.
func probeAnnouncer(cfg *config.Config, runner *announce.Runner) bool {
	if !cfg.Announce.Enabled {
		logging.Info().Msg("Service announcement disabled (ANNOUNCE_ENABLED=false)")
		return false
	}
	if !runner.Available() {
		logging.Info().Str("binary", runner.Binary).Msg("Announcement helper not found, running syslog only")
		return false
	}
	return true
}

func reportUnstopped(tree *supervisor.SupervisorTree) {
	unstopped, err := tree.UnstoppedServiceReport()
	if err != nil {
		logging.Warn().Err(err).Msg("Could not collect unstopped service report")
		return
	}
	if len(unstopped) == 0 {
		return
	}
	logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
	}
}
