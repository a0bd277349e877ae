/*
DESCRIPTION
  interleave.go implements PFT's convolutional fragment interleaver
  (ETSI TS 102 821 Annex B.5, spec.md §4.I "interleaved by
  latency_frames × 24 ms / chunk_duration"): fragment i of a pseq is
  delayed by i mod depth ticks before transmission, so a burst loss on the
  wire is spread across several original pseqs' fragments instead of
  concentrating on one, improving the odds that each pseq's surviving
  fragment count stays at or above its Reed-Solomon recovery threshold.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package edi

// interleaver spreads one pseq's fragments across depth ticks: fragment i
// is released on tick (currentTick + i%depth). The ring has a fixed number
// of slots (depth); each Advance empties one slot.
type interleaver struct {
	depth int
	ring  [][][]byte // ring[slot] holds fragments due for release at that slot.
	pos   int
}

// newInterleaver returns an interleaver with the given depth (at least 1).
func newInterleaver(depth int) *interleaver {
	if depth < 1 {
		depth = 1
	}
	return &interleaver{depth: depth, ring: make([][][]byte, depth)}
}

// Push schedules fragments for release, spreading fragment i onto ring
// slot (pos+i)%depth.
func (il *interleaver) Push(fragments [][]byte) {
	for i, f := range fragments {
		slot := (il.pos + i%il.depth) % il.depth
		il.ring[slot] = append(il.ring[slot], f)
	}
}

// Advance moves to the next tick and returns every fragment due for
// release now.
func (il *interleaver) Advance() [][]byte {
	due := il.ring[il.pos]
	il.ring[il.pos] = nil
	il.pos = (il.pos + 1) % il.depth
	return due
}
