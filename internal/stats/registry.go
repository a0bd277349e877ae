/*
DESCRIPTION
  registry.go implements the process-wide statistics registry of spec.md
  §4.J: every input registers itself under its uid, publishes fill-level,
  audio-peak and glitch observations each frame, and the registry exposes
  a read-only snapshot plus a small per-input/per-multiplexer
  controllable parameter set. The registry is a plain mutex-guarded map
  rather than a database, following the teacher's preference for the
  simplest structure that satisfies the access pattern (compare
  internal/ensemble's in-memory model).

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package stats implements the statistics registry and remote-control
// surface described in spec.md §4.J: per-input liveness and level
// tracking, a JSON values/config/info read surface, Prometheus metrics,
// and a websocket push channel.
package stats

import (
	"sync"
	"time"

	"github.com/ausocean/dabmux/internal/prebuffer"
)

// InputControl is the per-input controllable parameter set named in
// §4.J: "buffer/prebuffering thresholds, enable flag, encryption
// keyfiles".
type InputControl struct {
	Enabled             bool   `json:"enabled"`
	PrebufferThresholdMs int   `json:"prebuffer_threshold_ms"`
	BufferFrames        int    `json:"buffer_frames"`
	KeyFile             string `json:"key_file,omitempty"`
}

// InputValues is one input's published statistics, matching the JSON
// shape returned by the `values` remote-control operation.
type InputValues struct {
	UID          string  `json:"uid"`
	State        string  `json:"state"`
	MinFill      int     `json:"min_fill"`
	MaxFill      int     `json:"max_fill"`
	PeakShortDBFS float64 `json:"peak_short_dbfs"`
	PeakLongDBFS  float64 `json:"peak_long_dbfs"`
	Underruns    uint64  `json:"underruns"`
	Overruns     uint64  `json:"overruns"`
}

// inputEntry is one registered input's live state, guarded by the
// Registry's mutex.
type inputEntry struct {
	fsm    *prebuffer.FSM
	fill   fillWindow
	peak   peakWindow
	control InputControl

	underruns uint64
	overruns  uint64
}

// MuxControl is the per-multiplexer controllable parameter set named in
// §4.J: "frames counter read-only, tist_offset read-write".
type MuxControl struct {
	Frames     uint64 `json:"frames"`
	TISTOffset int    `json:"tist_offset"`
}

// Registry is the process-wide statistics and remote-control state
// described in §4.J. The zero value is not usable; construct with New.
type Registry struct {
	mu     sync.Mutex
	inputs map[string]*inputEntry
	order  []string // Registration order, for stable info/config listings.

	mux MuxControl
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{inputs: make(map[string]*inputEntry)}
}

// Register adds uid to the registry with default controls, returning the
// input's liveness FSM so the caller's input goroutine can feed it
// directly (mirroring how internal/prebuffer.FSM is already owned
// per-input). Re-registering an existing uid is a no-op that returns the
// existing FSM.
func (r *Registry) Register(uid string) *prebuffer.FSM {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.inputs[uid]; ok {
		return e.fsm
	}
	e := &inputEntry{fsm: prebuffer.NewFSM(), control: InputControl{Enabled: true}}
	r.inputs[uid] = e
	r.order = append(r.order, uid)
	return e.fsm
}

// RecordFill records uid's current buffer-fill level (in frames) at now.
func (r *Registry) RecordFill(uid string, now time.Time, level int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.inputs[uid]
	if !ok {
		return
	}
	e.fill.Add(now, level)
	e.fsm.RecordFill(level)
}

// RecordAudioPeak records uid's peak level (dBFS) for the most recent
// 120ms window at now.
func (r *Registry) RecordAudioPeak(uid string, now time.Time, dBFS float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.inputs[uid]
	if !ok {
		return
	}
	e.peak.Add(now, dBFS)
	e.fsm.RecordAudioPeak(dBFS)
}

// RecordUnderrun increments uid's underrun counter and its liveness FSM.
func (r *Registry) RecordUnderrun(uid string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.inputs[uid]
	if !ok {
		return
	}
	e.underruns++
	e.fsm.RecordGlitch()
}

// RecordOverrun increments uid's overrun counter and its liveness FSM.
func (r *Registry) RecordOverrun(uid string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.inputs[uid]
	if !ok {
		return
	}
	e.overruns++
	e.fsm.RecordGlitch()
}

// SetFrames updates the mux-level read-only frame counter. Called once
// per main-loop iteration.
func (r *Registry) SetFrames(n uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mux.Frames = n
}

// Frames returns the current mux-level frame counter.
func (r *Registry) Frames() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mux.Frames
}

// TISTOffset returns the current mux-level TIST offset.
func (r *Registry) TISTOffset() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mux.TISTOffset
}

// SetTISTOffset applies a new mux-level TIST offset, the one read-write
// multiplexer parameter named in §4.J.
func (r *Registry) SetTISTOffset(v int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mux.TISTOffset = v
}

// Info lists the registered uids in registration order, backing the
// `info` remote-control operation.
func (r *Registry) Info() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// ConfigSnapshot is the JSON shape returned by the `config` operation:
// the uid list plus the current controllable parameters for each input
// and for the multiplexer as a whole.
type ConfigSnapshot struct {
	UIDs   []string                `json:"uids"`
	Inputs map[string]InputControl `json:"inputs"`
	Mux    MuxControl              `json:"mux"`
}

// Config returns the current controllable-parameter snapshot.
func (r *Registry) Config() ConfigSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	cs := ConfigSnapshot{Inputs: make(map[string]InputControl, len(r.inputs)), Mux: r.mux}
	for _, uid := range r.order {
		cs.UIDs = append(cs.UIDs, uid)
		cs.Inputs[uid] = r.inputs[uid].control
	}
	return cs
}

// SetInputControl replaces uid's controllable parameters wholesale. It
// reports whether uid is registered.
func (r *Registry) SetInputControl(uid string, c InputControl) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.inputs[uid]
	if !ok {
		return false
	}
	e.control = c
	return true
}

// Values returns every registered input's current published statistics,
// backing the `values` remote-control operation.
func (r *Registry) Values(now time.Time) []InputValues {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]InputValues, 0, len(r.order))
	for _, uid := range r.order {
		e := r.inputs[uid]
		min, max := e.fill.MinMax(now)
		short, long := e.peak.ShortLong(now)
		out = append(out, InputValues{
			UID:           uid,
			State:         e.fsm.State().String(),
			MinFill:       min,
			MaxFill:       max,
			PeakShortDBFS: short,
			PeakLongDBFS:  long,
			Underruns:     e.underruns,
			Overruns:      e.overruns,
		})
	}
	return out
}
