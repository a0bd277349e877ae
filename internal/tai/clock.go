/*
DESCRIPTION
  clock.go implements the multiplexer's wall-clock/TAI time discipline: the
  TIST (ETS 300 799 Annex C) field arithmetic, Modified Julian Day
  computation, and the pulse-per-second millisecond counter that anchors
  FCT=0 to a requested TIST offset (spec.md §4.A).

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package tai implements the TAI/UTC-aware wall clock, MJD and TIST
// arithmetic used to time-discipline the 24ms frame scheduler.
package tai

import (
	"sync"
	"sync/atomic"
	"time"
)

// FrameInterval is the DAB transport frame period.
const FrameInterval = 24 * time.Millisecond

// frameIntervalMS is FrameInterval expressed in whole milliseconds.
const frameIntervalMS = 24

// msPerSecond is the modulus of the pulse-per-second millisecond counter.
const msPerSecond = 1000

// fctModulus is the ETI frame counter's wrap point (§6 "Frame counter
// increments with wrap at 250 for FCT").
const fctModulus = 250

// tistShift converts a millisecond offset into the 24-bit level 1..5 TIST
// representation defined by ETS 300 799 Annex C: ms * 16384, truncated to
// 24 bits.
const tistShift = 16384

// tistMask truncates to the 24-bit TIST field width.
const tistMask = 0x00FFFFFF

// Clock tracks per-run frame-level time discipline: the millisecond offset
// within the current second, the EDI seconds counter, and a live,
// atomically-readable TIST offset that the remote-control surface can
// adjust without synchronising with the assembler (§5 "tearing is
// tolerated").
type Clock struct {
	mu sync.Mutex

	msOffset   int    // milliseconds since the last PPS edge, 0..999.
	ediSeconds uint32 // EDI seconds counter, incremented on each PPS edge.

	tistOffset atomic.Int64 // runtime-settable offset in seconds.
}

// NewClock returns a Clock with its PPS counters zeroed.
func NewClock() *Clock { return &Clock{} }

// Init places FCT=0 at the requested TIST by choosing an initial frame
// counter value so that, once wrapped into the ETI FCT field, the
// multiplexer's first transmitted frame carries the desired millisecond
// offset. tistOffsetSeconds seeds the runtime-adjustable TIST offset.
//
// The chosen initial frame counter N satisfies:
//
//	(N + offsetInCounts) mod fctModulus == (fctModulus - counterOffset) mod fctModulus
//
// where offsetInCounts is tistAtFCT0Ms expressed in 24ms counts and
// counterOffset is the sub-frame remainder (tistAtFCT0Ms mod 24ms),
// expressed in the same 24-bit TIST units added to the first frame.
func (c *Clock) Init(tistAtFCT0Ms int, tistOffsetSeconds int) (initialFrameCounter uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tistOffset.Store(int64(tistOffsetSeconds))

	offsetInCounts := tistAtFCT0Ms / frameIntervalMS
	counterOffset := tistAtFCT0Ms % frameIntervalMS

	target := (fctModulus - counterOffset) % fctModulus
	if target < 0 {
		target += fctModulus
	}

	n := ((target - offsetInCounts) % fctModulus + fctModulus) % fctModulus
	c.msOffset = tistAtFCT0Ms % msPerSecond
	return uint64(n)
}

// SetTISTOffset sets the runtime-adjustable TIST offset, in seconds. This
// is the remote-control surface's `tist_offset` parameter (§4.J).
func (c *Clock) SetTISTOffset(seconds int) { c.tistOffset.Store(int64(seconds)) }

// TISTOffset returns the current runtime TIST offset, in seconds.
func (c *Clock) TISTOffset() int { return int(c.tistOffset.Load()) }

// Current returns the 24-bit TIST field value and the current EDI seconds
// counter.
func (c *Clock) Current() (tist24 uint32, ediTimeSec uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// The runtime TIST offset is a wall-clock/EDI-seconds adjustment, not a
	// sub-second one, so it has no effect on the millisecond phase reported
	// here; callers read it separately via TISTOffset when they need it.
	tist24 = uint32(c.msOffset*tistShift) & tistMask
	return tist24, c.ediSeconds
}

// Advance24ms moves the clock forward by one 24ms frame tick, wrapping the
// millisecond-in-second counter at 1000 and incrementing the EDI seconds
// counter on wrap.
func (c *Clock) Advance24ms() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msOffset += frameIntervalMS
	if c.msOffset >= msPerSecond {
		c.msOffset -= msPerSecond
		c.ediSeconds++
	}
}

// MJD returns the Modified Julian Day for t, used by FIG 0/10 (§4.F).
func MJD(t time.Time) int {
	u := t.UTC()
	// MJD = JD - 2400000.5. Using the civil-to-Julian-day-number algorithm
	// (Fliegel & Van Flandern), which is exact for the Gregorian calendar.
	y, m, d := int(u.Year()), int(u.Month()), u.Day()
	a := (14 - m) / 12
	yy := y + 4800 - a
	mm := m + 12*a - 3
	jdn := d + (153*mm+2)/5 + 365*yy + yy/4 - yy/100 + yy/400 - 32045
	return jdn - 2400001
}

// LeapSecondCache holds an updatable TAI-UTC offset, as obtained from an
// IETF leap-second bulletin. No leap-second parsing library exists in the
// retrieved reference pack, so the bulletin fetch/parse itself is left to
// the caller, which hands the result to Set, and this cache only holds the resulting offset
// (§4.A: "if EDI or ZMQ metadata output is enabled the offset must be
// available at startup").
type LeapSecondCache struct {
	mu     sync.RWMutex
	offset int
	valid  bool
}

// NewLeapSecondCache returns an empty cache.
func NewLeapSecondCache() *LeapSecondCache { return &LeapSecondCache{} }

// Set records a freshly-fetched TAI-UTC offset, in seconds.
func (l *LeapSecondCache) Set(offsetSeconds int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.offset = offsetSeconds
	l.valid = true
}

// Offset returns the current TAI-UTC offset and whether it has been set.
func (l *LeapSecondCache) Offset() (int, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.offset, l.valid
}
