package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/veesix-networks/checkdhcp/internal/probe"
	"github.com/veesix-networks/checkdhcp/internal/transport"
	"github.com/veesix-networks/checkdhcp/pkg/check"
	"github.com/veesix-networks/checkdhcp/pkg/config"
	"github.com/veesix-networks/checkdhcp/pkg/logger"
	"github.com/veesix-networks/checkdhcp/pkg/version"
)

// alarmGrace lets the probe report its own timeout before the hard alarm.
const alarmGrace = time.Second

func main() {
	reporter := check.NewReporter(os.Stdout, os.Exit)

	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			reporter.Report(check.Newf(check.Unknown, "Usage: check_dhcp [-i <DEV>] [-H <HOSTNAME> [--unicast]] [--mac <MAC>]"))
			return
		}
		reporter.Report(check.Newf(check.Unknown, "Parsing arguments failed: %v", err))
		return
	}

	if opts.version {
		fmt.Fprintf(os.Stdout, "check_dhcp %s\n", version.Full())
		os.Exit(0)
	}

	reporter.Report(run(opts, reporter))
}

func loadConfig(opts *options) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Parse(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	opts.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func configureLogging(cfg *config.Config) {
	level := logger.VerbosityLevel(cfg.Verbose)
	if cfg.Logging.Level != "" {
		level = logger.LogLevel(cfg.Logging.Level)
	}
	components := make(map[string]logger.LogLevel, len(cfg.Logging.Components))
	for name, lvl := range cfg.Logging.Components {
		components[name] = logger.LogLevel(lvl)
	}
	logger.Configure(os.Stderr, cfg.Logging.Format, level, components)
}

func run(opts *options, reporter *check.Reporter) check.Result {
	cfg, err := loadConfig(opts)
	if err != nil {
		return check.Newf(check.Unknown, "Invalid arguments: %v", err)
	}
	configureLogging(cfg)

	mode := transport.ModeBroadcast
	if cfg.Unicast {
		mode = transport.ModeUnicast
	}

	probeID := uuid.NewString()
	mainLog := logger.WithProbe(logger.Get(logger.Main), logger.ProbeAttrs{
		ProbeID:   probeID,
		Interface: cfg.Interface,
		Mode:      string(mode),
		Target:    cfg.Hostname,
	})
	mainLog.Info("Starting check_dhcp", "version", version.Version, "timeout", cfg.Timeout)

	if err := transport.CheckPrivileges(); err != nil {
		return check.Newf(check.Unknown, "check_dhcp must run as root: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	var hostAddrs []net.IP
	if cfg.Hostname != "" {
		hostAddrs, err = probe.ResolveHost(ctx, net.DefaultResolver, cfg.Hostname)
		if err != nil {
			mainLog.Error("Host lookup failed", "error", err)
			return check.Newf(check.Unknown, "Host %s not found", cfg.Hostname)
		}
	}

	alarm := reporter.StartAlarm(cfg.Timeout+alarmGrace, cfg.Timeout)
	defer alarm.Stop()

	if cfg.Netns != "" {
		restore, err := transport.EnterNetns(cfg.Netns)
		if err != nil {
			return check.Newf(check.Unknown, "Cannot enter network namespace: %v", err)
		}
		defer func() {
			if err := restore(); err != nil {
				mainLog.Warn("Failed to restore network namespace", "error", err)
			}
		}()
	}

	link, err := transport.LookupLink(cfg.Interface)
	if err != nil {
		return check.Newf(check.Unknown, "Interface %s not usable: %v", cfg.Interface, err)
	}
	if mode == transport.ModeUnicast && link.IPv4 == nil {
		return check.Newf(check.Unknown, "Interface %s has no IPv4 address for unicast probing", cfg.Interface)
	}

	hw := cfg.HardwareAddr()
	if hw == nil {
		hw = link.HardwareAddr
	}

	spec := transport.Spec{Mode: mode, Interface: cfg.Interface}
	if mode == transport.ModeUnicast {
		spec.Server = hostAddrs[0]
	}

	conn, err := transport.Open(ctx, spec, link)
	if err != nil {
		mainLog.Error("Socket setup failed", "error", err)
		if errors.Is(err, transport.ErrNotPrivileged) {
			return check.Newf(check.Unknown, "check_dhcp must run as root: %v", err)
		}
		return check.Newf(check.Critical, "Socket setup failed: %v", err)
	}
	if cfg.Capture != "" {
		captured, err := transport.OpenCapture(cfg.Capture, conn, link, spec)
		if err != nil {
			conn.Close()
			return check.Newf(check.Unknown, "Cannot open capture file: %v", err)
		}
		conn = captured
	}
	defer conn.Close()

	metrics := probe.NewMetrics(cfg.Interface, string(mode))

	var dump io.Writer
	if cfg.Verbose >= 2 {
		dump = os.Stderr
	}

	p := probe.New(probe.Config{
		Mode:      mode,
		HWAddr:    hw,
		LocalIP:   link.IPv4,
		Hostname:  cfg.Hostname,
		HostAddrs: hostAddrs,
		RequestIP: cfg.RequestedIP(),
		Expect:    cfg.ExpectedType(),
		Dump:      dump,
	}, conn,
		probe.WithMetrics(metrics),
		probe.WithLogger(logger.WithProbe(logger.Get(logger.Probe), logger.ProbeAttrs{
			ProbeID:   probeID,
			Interface: cfg.Interface,
			Mode:      string(mode),
			Target:    cfg.Hostname,
		})),
	)

	res := p.Run(ctx)

	if cfg.MetricsFile != "" {
		if err := metrics.WriteFile(cfg.MetricsFile); err != nil {
			mainLog.Warn("Failed to write metrics file", "path", cfg.MetricsFile, "error", err)
		}
	}

	return res
}
