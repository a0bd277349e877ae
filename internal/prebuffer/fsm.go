/*
DESCRIPTION
  fsm.go implements the per-input liveness state machine (spec.md §4.E):
  NoData, Unstable, Silence and Streaming, derived from rolling buffer-fill
  and audio-peak observations with saturating glitch counters. The
  saturating-counter-with-decay shape follows the frame/error counters kept
  by revid/input statistics in the teacher repo.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package prebuffer

import (
	"sync"
	"time"
)

// State is one of the four input liveness states named in §4.E.
type State int

// Liveness states, in escalating order of "things are fine".
const (
	NoData State = iota
	Unstable
	Silence
	Streaming
)

func (s State) String() string {
	switch s {
	case NoData:
		return "no-data"
	case Unstable:
		return "unstable"
	case Silence:
		return "silence"
	case Streaming:
		return "streaming"
	default:
		return "unknown"
	}
}

// Thresholds controlling state transitions, per §4.E's guidance.
const (
	emptyForNoData     = 30 * time.Second
	glitchWindow       = 30 * time.Minute
	glitchesForUnstable = 3
	maxGlitchCount      = 500 // Saturating counter ceiling.

	silencePeakDBFS   = -50.0
	silenceWindow     = 120 * time.Millisecond
	silenceWindowsReq = 100
)

// FSM tracks one input's liveness state from buffer-fill, glitch and
// audio-peak observations. The current time is read through the
// package-level timeNow variable (time.Now by default), not passed in by
// the caller.
type FSM struct {
	mu sync.Mutex

	state State

	lastNonEmpty   time.Time
	everSeenData   bool

	glitchCount int
	lastGlitch  time.Time

	silentWindows int
	lastPeakTime  time.Time
}

// NewFSM returns an FSM in the NoData state.
func NewFSM() *FSM { return &FSM{state: NoData} }

// RecordFill notes the current ring-fill level (in frames); fillLevel==0
// starts (or continues) the empty timer that, after emptyForNoData,
// collapses the state to NoData regardless of prior glitch/peak history.
func (f *FSM) RecordFill(fillLevel int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if fillLevel > 0 {
		f.lastNonEmpty = timeNow()
		f.everSeenData = true
	}
	f.recompute()
}

// RecordGlitch registers one underrun/overrun event, saturating at
// maxGlitchCount so a persistently broken input does not overflow the
// counter, and decaying to zero once glitchWindow has elapsed since the
// last event.
func (f *FSM) RecordGlitch() {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := timeNow()
	if !f.lastGlitch.IsZero() && now.Sub(f.lastGlitch) > glitchWindow {
		f.glitchCount = 0
	}
	if f.glitchCount < maxGlitchCount {
		f.glitchCount++
	}
	f.lastGlitch = now
	f.recompute()
}

// RecordAudioPeak registers one 120ms window's peak level in dBFS. 100
// consecutive windows at or below silencePeakDBFS move the state to
// Silence; any louder window resets the counter.
func (f *FSM) RecordAudioPeak(dBFS float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastPeakTime = timeNow()
	if dBFS <= silencePeakDBFS {
		f.silentWindows++
	} else {
		f.silentWindows = 0
	}
	f.recompute()
}

// State returns the current liveness state.
func (f *FSM) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// recompute re-derives f.state from the accumulated observations. Caller
// must hold f.mu.
func (f *FSM) recompute() {
	now := timeNow()

	if !f.everSeenData || (!f.lastNonEmpty.IsZero() && now.Sub(f.lastNonEmpty) >= emptyForNoData) {
		f.state = NoData
		return
	}

	if !f.lastGlitch.IsZero() && now.Sub(f.lastGlitch) <= glitchWindow && f.glitchCount >= glitchesForUnstable {
		f.state = Unstable
		return
	}

	if f.silentWindows >= silenceWindowsReq {
		f.state = Silence
		return
	}

	f.state = Streaming
}

// timeNow is a package-level indirection over time.Now so that tests can
// observe recompute's behaviour by constructing FSM states directly
// without fighting the wall clock; production code always takes this path.
var timeNow = time.Now
