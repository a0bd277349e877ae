/*
DESCRIPTION
  input.go defines the Input contract shared by every sub-channel data
  source (spec.md §4.C): open/read/bitrate-negotiate/close, plus the two
  buffer-management policies (Prebuffering, Timestamped) that govern how
  the MSC assembler pulls bytes from it.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package inputs defines the synchronous Input contract and its file/PRBS
// implementations; network-fed (EDI/STI-D) inputs live in package ediinput
// because their real-time reassembly pipeline is substantial enough to
// warrant its own package (spec.md §4.C, §4.D).
package inputs

import "github.com/ausocean/dabmux/internal/ensemble"

// Input is the contract every sub-channel data source implements.
// len, in ReadFrame/ReadFrameAt, is always bitrateKbps*3 bytes: one 24ms
// frame's worth of data at the negotiated bitrate.
type Input interface {
	// Open prepares the input for reading, given its configured URI.
	Open(uri string) error

	// ReadFrame fills buf[:n] with one frame's worth of bytes for a
	// Prebuffering-policy sub-channel and returns n. A negative return (via
	// error) indicates underrun; the caller zero-fills the slot.
	ReadFrame(buf []byte) (n int, err error)

	// ReadFrameAt is used for Timestamped-policy sub-channels: it returns
	// bytes for the frame whose embedded timestamp is due at the given EDI
	// time (seconds, UTC offset in half-hours as per MNSC, and the 24-bit
	// TSTA sub-second offset).
	ReadFrameAt(buf []byte, seconds uint32, utco byte, tsta uint32) (n int, err error)

	// SetBitrate negotiates the per-frame read size and returns the
	// effective bitrate the input will actually produce (which may differ
	// from the request, e.g. when a file's sub-channel was authored at a
	// fixed rate).
	SetBitrate(kbps int) (effectiveKbps int, err error)

	// Close releases any resources held by the input.
	Close() error
}

// Policy returns the buffer-management policy a sub-channel's input
// should be driven with.
func Policy(sc *ensemble.SubChannel) ensemble.BufferPolicy { return sc.BufferPolicy }

// FrameBytes returns the number of bytes in one 24ms frame at the given
// bitrate (§4.C: "len equals bitrate_kbps × 3").
func FrameBytes(bitrateKbps int) int { return bitrateKbps * 3 }
