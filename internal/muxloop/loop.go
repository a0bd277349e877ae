/*
DESCRIPTION
  loop.go implements the multiplexer's main loop (spec.md §4.K): for
  every 24ms tick, assemble one MST region, serialise it into an ETI-NI
  frame and the FIC into that frame, hand the frame to every configured
  ETI output, serialise and fan out the EDI TAG packet, advance the
  frame/TAI counters, and periodically check remote-control liveness and
  push a configuration snapshot. The struct-of-collaborators shape
  (config plus every subsystem it drives, wired once at construction)
  follows revid.Revid in the teacher repo.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package muxloop implements the multiplexer's 24ms main loop (spec.md
// §4.K): wiring the assembler, FIC carousel, TAI clock, ETI/EDI emitters
// and the statistics registry together, and driving them with
// wall-clock pacing until the frame limit is hit or the loop is
// cancelled.
package muxloop

import (
	"context"
	"time"

	"github.com/ausocean/dabmux/internal/config"
	"github.com/ausocean/dabmux/internal/edi"
	"github.com/ausocean/dabmux/internal/ensemble"
	"github.com/ausocean/dabmux/internal/eti"
	"github.com/ausocean/dabmux/internal/fic"
	"github.com/ausocean/dabmux/internal/msc"
	"github.com/ausocean/dabmux/internal/stats"
	"github.com/ausocean/dabmux/internal/tai"
	"github.com/ausocean/dabmux/internal/xlog"
)

// livenessCheckFrames and configPushFrames are the two periodic cadences
// named in §4.K ("every 250 frames verify remote-control liveness; every
// 10 frames push the current configuration snapshot").
const (
	livenessCheckFrames = 250
	configPushFrames    = 10
)

// Output is the byte-oriented write contract every concrete ETI output
// transport satisfies; the transports themselves (file/fifo/raw/UDP/TCP)
// are out of scope (spec.md §1) and are supplied by the caller.
type Output interface {
	Write(frame []byte) error
}

// ManagementService is the opaque remote-control/management collaborator
// the main loop pushes configuration snapshots to and verifies the
// liveness of (spec.md §1 "treated as opaque key/value controllables").
type ManagementService interface {
	// PushConfig delivers the current configuration snapshot.
	PushConfig(cfg config.Config) error
	// CheckLiveness reports whether the service is still responsive.
	CheckLiveness() bool
	// Restart attempts to bring a faulted service back up.
	Restart() error
}

// Loop wires every frame-assembly collaborator together and drives them
// on the 24ms tick.
type Loop struct {
	log xlog.Logger
	cfg *config.Config
	ens *ensemble.Ensemble

	assembler *msc.Assembler
	carousel  *fic.Carousel
	clock     *tai.Clock
	leap      *tai.LeapSecondCache // nil means UTCO is always reported as 0.

	components []eti.StreamComponent
	ediSubs    []edi.SubChannelPayload // Reused across ticks; MST slices refreshed in place each frame.

	emitter    *edi.Emitter      // nil disables EDI output.
	etiOutputs []Output
	mgmt       ManagementService // nil disables the management/liveness hooks.
	reg        *stats.Registry   // nil disables statistics publication.
	onLiveness func(healthy bool)

	mstSize  int
	mstBuf   []byte
	etiBuf   []byte
	ficBuf   []byte
	frameCtr uint64
}

// New returns a Loop ready to Run. components must be in the same order
// as assembler's sources, matching the ETI STC/EDI est<n> ordering
// spec.md §4.H/§4.I require. emitter, mgmt, reg and leap may be nil to
// disable EDI output, the management surface, statistics publication
// and the EDI UTCO timestamp field respectively. onLiveness, if
// non-nil, is called once per liveness check (§4.K) with the check's
// result, letting the caller drive process-supervision signalling
// without this package depending on it directly.
func New(log xlog.Logger, cfg *config.Config, ens *ensemble.Ensemble, assembler *msc.Assembler,
	carousel *fic.Carousel, clock *tai.Clock, leap *tai.LeapSecondCache, components []eti.StreamComponent,
	emitter *edi.Emitter, etiOutputs []Output, mgmt ManagementService, reg *stats.Registry,
	onLiveness func(healthy bool)) *Loop {

	subs := make([]edi.SubChannelPayload, len(components))
	for i, c := range components {
		subs[i] = edi.SubChannelPayload{Index: i, SCID: c.SCID, SAD: c.SAD, TPL: c.TPL}
	}

	mstSize := 0
	for _, sc := range ens.SubChannels {
		mstSize += sc.Size * 4
	}

	return &Loop{
		log:        log,
		cfg:        cfg,
		ens:        ens,
		assembler:  assembler,
		carousel:   carousel,
		clock:      clock,
		leap:       leap,
		components: components,
		ediSubs:    subs,
		emitter:    emitter,
		etiOutputs: etiOutputs,
		mgmt:       mgmt,
		reg:        reg,
		onLiveness: onLiveness,
		mstSize:    mstSize,
	}
}

// Frames returns the number of frames emitted so far.
func (l *Loop) Frames() uint64 { return l.frameCtr }

// Run drives the 24ms loop until ctx is cancelled or cfg.FrameLimit
// frames have been emitted (0 means unbounded). It returns nil on a
// clean stop.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(config.FrameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.log.Info("muxloop: stopping on cancellation", "frames", l.frameCtr)
			return nil
		case <-ticker.C:
			l.tick()
			if l.cfg.FrameLimit > 0 && l.frameCtr >= l.cfg.FrameLimit {
				l.log.Info("muxloop: frame limit reached", "frames", l.frameCtr)
				return nil
			}
		}
	}
}

// tick assembles and emits exactly one frame, then runs whatever
// periodic hooks are due.
func (l *Loop) tick() {
	if cap(l.mstBuf) < l.mstSize {
		l.mstBuf = make([]byte, l.mstSize)
	}
	l.mstBuf = l.mstBuf[:l.mstSize]

	tist24, ediSeconds := l.clock.Current()
	utco, tsta := l.timestampFields(tist24)

	n := l.assembler.Assemble(l.mstBuf, ediSeconds, utco, tsta)
	mst := l.mstBuf[:n]

	l.ficBuf = l.carousel.Generate(l.ficBuf)

	frame := &eti.Frame{
		FrameCounter: l.frameCtr,
		FICBytes:     l.ficBuf,
		Components:   l.components,
		MST:          mst,
		MNSC:         0,
		TISTEnabled:  l.cfg.RequireTAIOffset,
		TIST24:       tist24,
	}
	l.etiBuf = frame.Bytes(l.etiBuf)
	l.writeETI(l.etiBuf)

	if l.emitter != nil {
		l.emitSubChannels(mst)
		h := edi.DetiHeader{
			FCT:     byte(l.frameCtr % 250),
			FICF:    true,
			NST:     len(l.components),
			FP:      byte(l.frameCtr % 8),
			ATSTF:   l.cfg.RequireTAIOffset,
			UTCO:    utco,
			Seconds: ediSeconds,
			TSTA:    tsta,
		}
		if err := l.emitter.Emit(h, l.ediSubs); err != nil {
			l.log.Warning("muxloop: EDI emit failed", "error", err)
		}
	}

	l.clock.Advance24ms()
	l.frameCtr++

	if l.reg != nil {
		l.reg.SetFrames(l.frameCtr)
	}

	if l.frameCtr%configPushFrames == 0 {
		l.pushConfig()
	}
	if l.frameCtr%livenessCheckFrames == 0 {
		l.checkLiveness()
	}
}

// timestampFields derives the deti ATSTF timestamp fields: UTCO is the
// current TAI-UTC leap-second offset (§4.A), and TSTA mirrors the
// frame's 24-bit TIST value, since both express the same sub-second
// phase (§4.I).
func (l *Loop) timestampFields(tist24 uint32) (utco byte, tsta uint32) {
	if l.leap != nil {
		if offset, ok := l.leap.Offset(); ok {
			utco = byte(offset)
		}
	}
	return utco, tist24
}

// writeETI hands the serialised ETI-NI frame to every configured
// output, logging (but not aborting the tick on) a write failure —
// slow/broken outputs are expected to drop internally rather than stall
// the assembler (spec.md §5).
func (l *Loop) writeETI(frame []byte) {
	for _, o := range l.etiOutputs {
		if err := o.Write(frame); err != nil {
			l.log.Warning("muxloop: ETI output write failed", "error", err)
		}
	}
}

// emitSubChannels refreshes l.ediSubs' Bytes slices from the just-
// assembled MST region, in place, using each sub-channel's byte offset
// and size (spec.md §4.I "est<n> carries the same bytes the ETI STC
// describes").
func (l *Loop) emitSubChannels(mst []byte) {
	offset := 0
	for i, sc := range l.ens.SubChannels {
		size := sc.Size * 4
		if i >= len(l.ediSubs) || offset+size > len(mst) {
			break
		}
		l.ediSubs[i].Bytes = mst[offset : offset+size]
		offset += size
	}
}

// pushConfig pushes the current configuration snapshot to the
// management service and restarts it if it reports a fault (§4.K).
func (l *Loop) pushConfig() {
	if l.mgmt == nil {
		return
	}
	if err := l.mgmt.PushConfig(*l.cfg); err != nil {
		l.log.Warning("muxloop: management config push failed, restarting", "error", err)
		if err := l.mgmt.Restart(); err != nil {
			l.log.Error("muxloop: management service restart failed", "error", err)
		}
	}
}

// checkLiveness verifies the remote-control surface is responsive and
// invokes onLiveness with the result (§4.K), used by the caller to drive
// process-supervision watchdog signalling.
func (l *Loop) checkLiveness() {
	healthy := true
	if l.mgmt != nil {
		healthy = l.mgmt.CheckLiveness()
		if !healthy {
			l.log.Warning("muxloop: remote-control liveness check failed")
		}
	}
	if l.onLiveness != nil {
		l.onLiveness(healthy)
	}
}
