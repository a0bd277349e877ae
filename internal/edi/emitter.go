/*
DESCRIPTION
  emitter.go ties together one assembler tick's worth of EDI output
  (spec.md §4.I): build the TAG packet (tag.go), wrap it in an AF packet,
  optionally PFT-fragment and FEC-protect and interleave it
  (internal/ediinput.FragmentPF, internal/edi/fec), and fan the result out
  to every configured destination (destinations.go) in one tick.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package edi

import (
	"fmt"

	"github.com/ausocean/dabmux/internal/ediinput"
	"github.com/ausocean/dabmux/internal/xlog"
)

// defaultChunkLen is the PFT fragment payload size (§4.I "chunk_len
// (default 207)").
const defaultChunkLen = 207

// defaultFEC is the default PFT FEC strength; each pseq carries 2*FEC
// Reed-Solomon parity shards (§4.I "fec defaults to 3").
const defaultFEC = 3

// maxInterleaveMs caps PFT interleaving latency (§4.I "interleaving is
// capped at 30 s").
const maxInterleaveMs = 30000

// PFTConfig configures optional PFT fragmentation for the emitter.
type PFTConfig struct {
	Enabled    bool
	ChunkLen   int
	FEC        int
	LatencyMs  int // Interleave latency in ms, capped at maxInterleaveMs.
	ChunkDurMs int // Nominal duration of one chunk, for the interleave depth formula.
}

// normalise applies §4.I's defaults and the 30s interleave cap.
func (c PFTConfig) normalise() PFTConfig {
	if c.ChunkLen <= 0 {
		c.ChunkLen = defaultChunkLen
	}
	if c.FEC <= 0 {
		c.FEC = defaultFEC
	}
	if c.LatencyMs > maxInterleaveMs {
		c.LatencyMs = maxInterleaveMs
	}
	if c.ChunkDurMs <= 0 {
		c.ChunkDurMs = 24 // One ETI frame period.
	}
	return c
}

// InterleaveDepth returns the PFT interleaver's fragment depth: latency /
// chunk duration, per spec.md §4.I.
func (c PFTConfig) InterleaveDepth() int {
	c = c.normalise()
	d := c.LatencyMs / c.ChunkDurMs
	if d < 1 {
		d = 1
	}
	return d
}

// Emitter assembles and fans out one EDI TAG packet per multiplexer tick.
type Emitter struct {
	log   xlog.Logger
	pft   PFTConfig
	afCRC bool

	destinations []*destination
	interleaver  *interleaver

	seq  uint16 // AF packet sequence.
	pseq uint16 // PFT pseq, independent counter per §6.

	sent uint64
}

// New returns an Emitter with the given PFT configuration and AF-level
// CRC enablement, fanning out to dests once opened via AddDestination.
func New(log xlog.Logger, pft PFTConfig, afCRC bool) *Emitter {
	pft = pft.normalise()
	e := &Emitter{log: log, pft: pft, afCRC: afCRC}
	if pft.Enabled {
		e.interleaver = newInterleaver(pft.InterleaveDepth())
	}
	return e
}

// AddDestination opens and registers one output destination.
func (e *Emitter) AddDestination(cfg DestinationConfig) error {
	d, err := newDestination(e.log, cfg)
	if err != nil {
		return err
	}
	e.destinations = append(e.destinations, d)
	return nil
}

// Emit builds one frame's TAG packet from h and subs, frames it as AF
// (optionally PFT-fragmented), and sends it to every destination
// (spec.md §4.I "A single TAG packet fans out to all destinations in one
// assembler tick").
func (e *Emitter) Emit(h DetiHeader, subs []SubChannelPayload) error {
	body := BuildTagPacket(h, subs)
	af := BuildAF(e.seq, body, e.afCRC)
	e.seq++

	if !e.pft.Enabled {
		e.sendAll(af)
		return nil
	}

	fragments, err := ediinput.FragmentPF(e.pseq, af, e.pft.ChunkLen, 2*e.pft.FEC)
	if err != nil {
		return fmt.Errorf("edi: PFT fragmentation failed: %w", err)
	}
	e.pseq++

	e.interleaver.Push(fragments)
	for _, frag := range e.interleaver.Advance() {
		e.sendAll(frag)
	}
	return nil
}

func (e *Emitter) sendAll(pkt []byte) {
	for _, d := range e.destinations {
		d.Send(pkt)
	}
	e.sent++
}

// Stats reports cumulative per-destination send/drop counters.
func (e *Emitter) Stats() (sent uint64, perDest []DestinationStats) {
	for _, d := range e.destinations {
		s, dr := d.Stats()
		perDest = append(perDest, DestinationStats{Addr: d.cfg.Addr, Sent: s, Dropped: dr})
	}
	return e.sent, perDest
}

// DestinationStats reports one destination's cumulative counters.
type DestinationStats struct {
	Addr    string
	Sent    uint64
	Dropped uint64
}

// Close releases every destination's resources.
func (e *Emitter) Close() error {
	var firstErr error
	for _, d := range e.destinations {
		if err := d.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
