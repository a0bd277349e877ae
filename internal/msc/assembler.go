/*
DESCRIPTION
  assembler.go implements the Main Service Channel assembler (spec.md
  §4.G): for every 24ms tick it pulls exactly bitrate_kbps*3 bytes from
  each sub-channel's input (timestamped or data-driven, per its buffer
  policy) and writes them into the MST region at the byte offset implied
  by the ensemble's declared sub-channel order, zero-filling on underrun.
  The MST's own trailer (CRC16 + RFU + TIST) is a specific byte layout
  inside the ETI-NI frame and is built by package eti (spec.md §4.H),
  which owns the full SYNC..TIST frame format.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package msc implements the Main Service Channel assembler (spec.md §4.G).
package msc

import (
	"github.com/ausocean/dabmux/internal/ensemble"
	"github.com/ausocean/dabmux/internal/inputs"
	"github.com/ausocean/dabmux/internal/xlog"
)

// Input is the minimal contract the assembler needs from a sub-channel's
// data source: it is satisfied by inputs.Input and by
// internal/ediinput.Input.
type Input interface {
	ReadFrame(buf []byte) (int, error)
	ReadFrameAt(buf []byte, seconds uint32, utco byte, tsta uint32) (int, error)
}

// SubChannelSource pairs an ensemble sub-channel descriptor with its live
// input handle.
type SubChannelSource struct {
	SubChannel *ensemble.SubChannel
	Input      Input
}

// Assembler builds the MST region for one ensemble.
type Assembler struct {
	log      xlog.Logger
	sources  []SubChannelSource
	underruns uint64

	// OnUnderrun, if non-nil, is called with a sub-channel's uid every
	// time its slot underruns, letting a caller (e.g. the statistics
	// registry) track per-sub-channel glitches without polling.
	OnUnderrun func(uid string)
}

// New returns an Assembler over the given sub-channel sources, which must
// be ordered exactly as declared in the ensemble (their Start offsets were
// computed in that order by ensemble.Validate).
func New(log xlog.Logger, sources []SubChannelSource) *Assembler {
	return &Assembler{log: log, sources: sources}
}

// MSTSize returns the total MST region size in bytes for the given
// sub-channels (sum of each sub-channel's CU size, in bytes; 1 CU = 4
// bytes per EN 300 401).
func MSTSize(sources []SubChannelSource) int {
	total := 0
	for _, s := range sources {
		total += s.SubChannel.Size * 4
	}
	return total
}

// Assemble writes one frame's MST region into dst, which must be at least
// MSTSize(a.sources) bytes long, and returns the number of bytes written.
// ediSeconds/utco/tsta are the current EDI time, used by Timestamped
// sub-channels to pick the frame due for release.
func (a *Assembler) Assemble(dst []byte, ediSeconds uint32, utco byte, tsta uint32) int {
	offset := 0
	for _, src := range a.sources {
		sc := src.SubChannel
		frameLen := inputs.FrameBytes(sc.BitrateKb)
		slot := dst[offset : offset+frameLen]

		var n int
		var err error
		if sc.BufferPolicy == ensemble.Timestamped {
			n, err = src.Input.ReadFrameAt(slot, ediSeconds, utco, tsta)
		} else {
			n, err = src.Input.ReadFrame(slot)
		}

		if err != nil || n < frameLen {
			a.underruns++
			a.log.Warning("MSC underrun, zero-filling slot", "subchannel", sc.UID, "error", errString(err))
			if a.OnUnderrun != nil {
				a.OnUnderrun(sc.UID)
			}
			for i := range slot {
				slot[i] = 0
			}
		}

		offset += frameLen
	}

	return offset
}

// Underruns reports the cumulative MSC underrun count, for the statistics
// surface.
func (a *Assembler) Underruns() uint64 { return a.underruns }

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
