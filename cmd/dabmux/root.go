/*
DESCRIPTION
  root.go wires every collaborator package together into one running
  multiplexer process and exposes it as a cobra command (spec.md §4.K):
  load the bootstrap document, build the assembler/carousel/clock/emitter,
  start the statistics/remote-control server, hand everything to
  muxloop.Loop, and run until signalled or the frame limit is hit. The
  flag-parsing-then-RunE shape follows USA-RedDragon-DMRHub's cobra-based
  cmd package; sdnotify READY=1 at startup and WATCHDOG=1 on every healthy
  liveness check follow the teacher's go-systemd dependency, applied here
  to dabmux's own process-supervision integration (no in-pack example
  calls daemon.SdNotify itself, so this call site is grounded only on the
  documented API, noted in DESIGN.md).

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package main

import (
	"context"
	"io"
	"time"

	"github.com/coreos/go-systemd/daemon"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ausocean/dabmux/internal/config"
	"github.com/ausocean/dabmux/internal/edi"
	"github.com/ausocean/dabmux/internal/ensemble"
	"github.com/ausocean/dabmux/internal/errs"
	"github.com/ausocean/dabmux/internal/eti"
	"github.com/ausocean/dabmux/internal/fic"
	"github.com/ausocean/dabmux/internal/msc"
	"github.com/ausocean/dabmux/internal/muxloop"
	"github.com/ausocean/dabmux/internal/stats"
	"github.com/ausocean/dabmux/internal/tai"
	"github.com/ausocean/dabmux/internal/xlog"
)

// cliFlags mirrors config.Config's Key* constants, overriding whatever the
// bootstrap document's "config" section set.
type cliFlags struct {
	bootstrapPath string
	frameLimit    uint64
	verbosity     int
	syslog        bool
	logPath       string
	rcAddress     string
	statsInterval uint64
	tistOffset    int
	snapshotPath  string
	metrics       bool
}

func newRootCmd() *cobra.Command {
	var flags cliFlags

	cmd := &cobra.Command{
		Use:   "dabmux",
		Short: "dabmux assembles ETI-NI/EDI frames from a DAB ensemble description",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.bootstrapPath, "bootstrap", "", "path to the bootstrap JSON document (required)")
	f.Uint64Var(&flags.frameLimit, "frame-limit", 0, "stop after this many frames (0 = use the bootstrap document's value, where 0 means unbounded)")
	f.IntVar(&flags.verbosity, "verbosity", int(xlog.Info), "log verbosity: -1=debug 0=info 1=warning 2=error")
	f.BoolVar(&flags.syslog, "syslog", false, "also log to a rotating file at --log-path")
	f.StringVar(&flags.logPath, "log-path", "/var/log/dabmux/dabmux.log", "rotating log file path when --syslog is set")
	f.StringVar(&flags.rcAddress, "rc-address", "", "bind address for the statistics/remote-control HTTP surface (overrides the bootstrap document)")
	f.Uint64Var(&flags.statsInterval, "stats-interval", 0, "stats interval stored in the runtime configuration; it does not change when statistics are broadcast (0 = use the bootstrap document's value)")
	f.IntVar(&flags.tistOffset, "tist-offset", 0, "initial TIST seconds offset (overrides the bootstrap document)")
	f.StringVar(&flags.snapshotPath, "management-snapshot", "/var/run/dabmux/config.json", "path the running configuration snapshot is published to every 10 frames")
	f.BoolVar(&flags.metrics, "metrics", true, "expose Prometheus metrics on the statistics server's /metrics endpoint")
	cmd.MarkFlagRequired("bootstrap")

	return cmd
}

// Execute runs the dabmux command, returning the error RunE produced.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

// run bootstraps and drives one multiplexer instance until ctx is
// cancelled, a termination signal arrives, or the frame limit is reached.
func run(ctx context.Context, flags cliFlags) error {
	doc, err := loadBootstrap(flags.bootstrapPath)
	if err != nil {
		return errs.NewConfigError("could not load bootstrap document", err)
	}
	cfg := applyCLIOverrides(doc.Config, flags)

	log := xlog.New(cfg.Verbosity, logPathFor(cfg))
	log.Info("dabmux: starting", "ensemble_eid", doc.Ensemble.EId, "subchannels", len(doc.Ensemble.SubChannels))

	ens := &doc.Ensemble

	var closers []io.Closer

	var sources []msc.SubChannelSource
	var inputs []msc.Input
	for _, sc := range ens.SubChannels {
		in, err := buildInput(log, sc)
		if err != nil {
			closeInputs(log, inputs)
			closeAll(log, closers)
			return errs.NewConfigError("could not open sub-channel input", err)
		}
		inputs = append(inputs, in)
		sources = append(sources, msc.SubChannelSource{SubChannel: sc, Input: in})
	}
	defer closeInputs(log, inputs)

	reg := stats.New()
	for _, sc := range ens.SubChannels {
		reg.Register(sc.UID)
	}
	reg.SetTISTOffset(cfg.TISTOffset)

	assembler := msc.New(log, sources)
	assembler.OnUnderrun = func(uid string) { reg.RecordUnderrun(uid) }

	var loop *muxloop.Loop
	cifCnt := func() int {
		if loop == nil {
			return 0
		}
		return int(loop.Frames() % 4096)
	}
	carousel := fic.NewEnsembleCarousel(ens, cifCnt, time.Now)

	clock := tai.NewClock()
	clock.Init(0, cfg.TISTOffset)
	var leap *tai.LeapSecondCache
	if cfg.RequireTAIOffset {
		leap = tai.NewLeapSecondCache()
		if doc.Config.TAIOffsetSeconds != nil {
			leap.Set(*doc.Config.TAIOffsetSeconds)
		}
		if _, ok := leap.Offset(); !ok {
			closeInputs(log, inputs)
			closeAll(log, closers)
			return errs.NewConfigError("EDI/ZMQ metadata output requires a TAI-UTC offset, but none was supplied in the bootstrap document", nil)
		}
	}

	components := make([]eti.StreamComponent, len(ens.SubChannels))
	for i, sc := range ens.SubChannels {
		components[i] = eti.StreamComponent{SCID: sc.ID, SAD: sc.Start, TPL: ensemble.ToTPL(sc.Protect), STL: sc.Size}
	}

	var emitter *edi.Emitter
	if doc.EDI != nil {
		pft := edi.PFTConfig{
			Enabled:    doc.EDI.PFTEnabled,
			ChunkLen:   doc.EDI.ChunkLen,
			FEC:        doc.EDI.FEC,
			LatencyMs:  doc.EDI.LatencyMs,
			ChunkDurMs: doc.EDI.ChunkDurMs,
		}
		emitter = edi.New(log, pft, doc.EDI.AFCRC)
		if err := buildEDIDestinations(emitter, doc.EDI.Destinations); err != nil {
			closeAll(log, closers)
			return errs.NewConfigError("could not open EDI destination", err)
		}
	}

	etiOutputs, etiClosers, err := buildETIOutputs(doc.ETIOutputs)
	if err != nil {
		closeAll(log, closers)
		return errs.NewConfigError("could not open ETI output", err)
	}
	closers = append(closers, etiClosers...)
	defer closeAll(log, closers)

	if len(etiOutputs) == 0 && emitter == nil {
		return errs.NewFatalError("output layer unable to open any destination", nil)
	}

	mgmt := newFileManagementService(log, flags.snapshotPath)

	var registerer prometheus.Registerer
	if flags.metrics {
		registerer = prometheus.DefaultRegisterer
	}
	var statsServer *stats.Server
	if cfg.RCAddress != "" {
		statsServer = stats.NewServer(log, reg, cfg.RCAddress, registerer)
		go func() {
			if err := statsServer.Serve(ctx); err != nil {
				log.Warning("stats server stopped", "error", err.Error())
			}
		}()
		defer statsServer.Close()
	}

	onLiveness := func(healthy bool) {
		if healthy {
			daemon.SdNotify(false, daemon.SdNotifyWatchdog)
		} else {
			log.Warning("dabmux: liveness check failed, withholding watchdog notification")
		}
		if statsServer != nil {
			statsServer.Broadcast(time.Now())
		}
	}

	loop = muxloop.New(log, &cfg, ens, assembler, carousel, clock, leap, components,
		emitter, etiOutputs, mgmt, reg, onLiveness)

	runCtx, stop := muxloop.WithSignalHandling(ctx, log)
	defer stop()

	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Warning("sdnotify READY failed", "error", err.Error())
	} else if ok {
		log.Info("dabmux: notified systemd readiness")
	}

	err = loop.Run(runCtx)
	log.Info("dabmux: stopped", "frames", loop.Frames())
	return err
}

// applyCLIOverrides builds the runtime config.Config from the bootstrap
// document's flat knobs. The frame-limit, rc-address, stats-interval and
// tist-offset flags take precedence only when non-zero/non-empty. The
// verbosity and syslog flags always replace the document's values (with
// their defaults when not given), and the document's log_path is kept only
// when --syslog is not set.
func applyCLIOverrides(rc runConfig, flags cliFlags) config.Config {
	cfg := config.Config{
		FrameLimit:       rc.FrameLimit,
		Verbosity:        rc.Verbosity,
		Syslog:           rc.Syslog,
		LogPath:          rc.LogPath,
		RCAddress:        rc.RCAddress,
		StatsInterval:    rc.StatsInterval,
		TISTOffset:       rc.TISTOffset,
		RequireTAIOffset: rc.RequireTAIOffset,
	}
	if flags.frameLimit != 0 {
		cfg.FrameLimit = flags.frameLimit
	}
	if flags.rcAddress != "" {
		cfg.RCAddress = flags.rcAddress
	}
	if flags.statsInterval != 0 {
		cfg.StatsInterval = flags.statsInterval
	}
	if flags.tistOffset != 0 {
		cfg.TISTOffset = flags.tistOffset
	}
	cfg.Verbosity = int8(flags.verbosity)
	cfg.Syslog = flags.syslog
	if flags.syslog {
		cfg.LogPath = flags.logPath
	}
	return cfg
}

func logPathFor(cfg config.Config) string {
	if cfg.Syslog {
		return cfg.LogPath
	}
	return ""
}

func closeAll(log xlog.Logger, closers []io.Closer) {
	for _, c := range closers {
		if err := c.Close(); err != nil {
			log.Warning("close failed during shutdown", "error", err.Error())
		}
	}
}

