/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package muxloop

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ausocean/dabmux/internal/config"
	"github.com/ausocean/dabmux/internal/ensemble"
	"github.com/ausocean/dabmux/internal/eti"
	"github.com/ausocean/dabmux/internal/fic"
	"github.com/ausocean/dabmux/internal/msc"
	"github.com/ausocean/dabmux/internal/stats"
	"github.com/ausocean/dabmux/internal/tai"
	"github.com/ausocean/dabmux/internal/xlog"
)

// fakeInput is a msc.Input that always fills the requested slot with a
// fixed byte, so tests can tell assembled MST bytes from zero-fill.
type fakeInput struct{ fill byte }

func (f *fakeInput) ReadFrame(buf []byte) (int, error) {
	for i := range buf {
		buf[i] = f.fill
	}
	return len(buf), nil
}

func (f *fakeInput) ReadFrameAt(buf []byte, seconds uint32, utco byte, tsta uint32) (int, error) {
	return f.ReadFrame(buf)
}

// fakeOutput records every frame handed to it.
type fakeOutput struct{ writes [][]byte }

func (o *fakeOutput) Write(frame []byte) error {
	cp := append([]byte(nil), frame...)
	o.writes = append(o.writes, cp)
	return nil
}

// fakeMgmt is a ManagementService whose push/liveness behaviour is
// driven by test-controlled fields.
type fakeMgmt struct {
	pushes     int
	pushErr    error
	restarts   int
	livenessOK bool
	checks     int
}

func (m *fakeMgmt) PushConfig(cfg config.Config) error { m.pushes++; return m.pushErr }
func (m *fakeMgmt) CheckLiveness() bool                { m.checks++; return m.livenessOK }
func (m *fakeMgmt) Restart() error                     { m.restarts++; return nil }

func newTestLoop(t *testing.T) (*Loop, *fakeOutput) {
	t.Helper()

	ens := &ensemble.Ensemble{
		EId:  0x4000,
		Mode: ensemble.ModeI,
		SubChannels: []*ensemble.SubChannel{
			{UID: "sub-a", ID: 1, BitrateKb: 8, Start: 0, Size: 6, Protect: ensemble.Protection{UEP: true, UEPTableIndex: 0}},
		},
	}

	sc := ens.SubChannels[0]
	sources := []msc.SubChannelSource{{SubChannel: sc, Input: &fakeInput{fill: 0xAB}}}
	assembler := msc.New(xlog.NewTestLogger(t), sources)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cif := 0
	carousel := fic.NewEnsembleCarousel(ens, func() int { return cif }, func() time.Time { return now })

	clock := tai.NewClock()
	clock.Init(0, 0)

	components := []eti.StreamComponent{{SCID: sc.ID, SAD: sc.Start, TPL: ensemble.ToTPL(sc.Protect), STL: sc.Size}}

	cfg := &config.Config{FrameLimit: 0}
	out := &fakeOutput{}

	l := New(xlog.NewTestLogger(t), cfg, ens, assembler, carousel, clock, nil, components,
		nil, []Output{out}, nil, nil, nil)
	return l, out
}

func TestTickAssemblesAndWritesETIFrame(t *testing.T) {
	l, out := newTestLoop(t)

	l.tick()

	if l.Frames() != 1 {
		t.Fatalf("Frames() = %d, want 1", l.Frames())
	}
	if len(out.writes) != 1 {
		t.Fatalf("len(writes) = %d, want 1", len(out.writes))
	}
	if string(out.writes[0][0:1]) != "\xff" {
		t.Fatalf("frame ERR byte = %x, want 0xff", out.writes[0][0])
	}
}

func TestConfigPushAndLivenessCadence(t *testing.T) {
	l, _ := newTestLoop(t)
	mgmt := &fakeMgmt{livenessOK: true}
	l.mgmt = mgmt

	var lastHealthy []bool
	l.onLiveness = func(healthy bool) { lastHealthy = append(lastHealthy, healthy) }

	for i := 0; i < configPushFrames-1; i++ {
		l.tick()
	}
	if mgmt.pushes != 0 {
		t.Fatalf("pushes before cadence = %d, want 0", mgmt.pushes)
	}
	l.tick() // Frame #configPushFrames.
	if mgmt.pushes != 1 {
		t.Fatalf("pushes at cadence = %d, want 1", mgmt.pushes)
	}

	for l.Frames() < livenessCheckFrames {
		l.tick()
	}
	if mgmt.checks == 0 {
		t.Fatalf("CheckLiveness was never called by frame %d", livenessCheckFrames)
	}
	if len(lastHealthy) == 0 || !lastHealthy[len(lastHealthy)-1] {
		t.Fatalf("onLiveness last result = %v, want true", lastHealthy)
	}
}

func TestPushConfigFailureTriggersRestart(t *testing.T) {
	l, _ := newTestLoop(t)
	mgmt := &fakeMgmt{pushErr: errors.New("boom")}
	l.mgmt = mgmt

	for i := 0; i < configPushFrames; i++ {
		l.tick()
	}
	if mgmt.restarts != 1 {
		t.Fatalf("restarts = %d, want 1", mgmt.restarts)
	}
}

func TestStatsRegistryReceivesFrameCount(t *testing.T) {
	l, _ := newTestLoop(t)
	reg := stats.New()
	l.reg = reg

	l.tick()
	l.tick()
	l.tick()

	if got := reg.Frames(); got != 3 {
		t.Fatalf("Frames() = %d, want 3", got)
	}
}

func TestRunStopsOnContextCancellation(t *testing.T) {
	l, _ := newTestLoop(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	time.Sleep(60 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}

func TestRunStopsAtFrameLimit(t *testing.T) {
	l, _ := newTestLoop(t)
	l.cfg.FrameLimit = 2

	done := make(chan error, 1)
	go func() { done <- l.Run(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop at frame limit")
	}
	if l.Frames() != 2 {
		t.Fatalf("Frames() = %d, want 2", l.Frames())
	}
}
