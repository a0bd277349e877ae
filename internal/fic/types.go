/*
DESCRIPTION
  types.go declares the Generator contract every FIG producer implements
  and the repetition-rate classes the carousel schedules them by
  (spec.md §4.F).

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package fic implements the Fast Information Channel carousel and its
// concrete FIG generators (spec.md §4.F).
package fic

// Rate is a FIG repetition-rate class, mapped to a concrete millisecond
// deadline by IntervalMs.
type Rate int

// Repetition-rate classes (ETSI TR 101 496-2 table 3.6.1).
const (
	RateFIG0_0 Rate = iota // Special-cased by the carousel; see Carousel.fig00IntervalMs.
	RateA                  // >= 10 Hz
	RateAB                 // 1-10 Hz
	RateB                  // 1 Hz
	RateC                  // 0.1 Hz
	RateD                  // < 0.1 Hz
	RateE                  // all within 2 minutes
)

// IntervalMs returns the repetition deadline for r, in milliseconds.
// Values are multiples of the 24ms frame period (spec.md §4.F).
func (r Rate) IntervalMs() int {
	switch r {
	case RateFIG0_0:
		return 96
	case RateA:
		return 240
	case RateAB:
		return 480
	case RateB:
		return 960
	case RateC:
		return 24000
	case RateD:
		return 30000
	case RateE:
		return 120000
	default:
		return 960
	}
}

// Generator produces one FIG type/extension's instances across repeated
// calls to Fill, carrying its own iteration state between calls so a
// table that doesn't fit in one invocation can be completed over several
// (spec.md §4.F "Each generator is stateful across frames").
type Generator interface {
	FIGType() int
	FIGExtension() int
	Rate() Rate

	// Fill writes at most one FIG instance into buf[:maxLen] and reports
	// how many bytes were written and whether the generator's full table
	// was transmitted (false means call again before advancing the
	// schedule).
	Fill(buf []byte, maxLen int) (n int, complete bool)
}
