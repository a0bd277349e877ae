/*
DESCRIPTION
  frame.go implements the ETI-NI frame: SYNC/FC/STC/EOH/MST/EOF/TIST,
  bit-exact per spec.md §4.H. The Frame struct plus its Bytes(buf) method
  follows protocol/rtp.Packet's pattern in the teacher repo: fields are
  held as a plain struct and a single method packs them into a caller-
  supplied (or freshly allocated) buffer, rather than building the frame
  byte-by-byte inline in the caller.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package eti implements the ETI-NI frame emitter (spec.md §4.H).
package eti

import (
	"encoding/binary"

	"github.com/ausocean/dabmux/internal/crc16"
)

// FrameBudget is the maximum ETI-NI frame size (spec.md §4.H "6144-byte-
// bounded buffer").
const FrameBudget = 6144

// syncPattern and its bitwise complement, alternated every other frame
// (spec.md §4.H "FSYNC... alternating between 0x07_3A_B6 and its
// complement every other frame").
const syncPattern = 0x073AB6

// StreamComponent describes one sub-channel's STC word and its
// already-assembled MST bytes (produced by package msc).
type StreamComponent struct {
	SCID byte // 6-bit sub-channel id.
	SAD  int  // 10-bit start address, in CU.
	TPL  byte // 6-bit transport protection level.
	STL  int  // Sub-channel size in CU; STL-in-dwords is STL/2 (1 CU = 2 dwords... see note below).
}

// Frame holds every field needed to emit one ETI-NI frame.
type Frame struct {
	FrameCounter uint64 // Monotonically increasing; FCT = FrameCounter % 250.
	FICBytes     []byte // FICL*4 bytes, already assembled by package fic.
	Components   []StreamComponent
	MST          []byte // Pre-assembled MST region (package msc's output), length = Σ STL*4.

	MNSC uint16 // Multiplex Network Signalling Channel slot for EOH.

	TISTEnabled bool
	TIST24      uint32 // 24-bit TIST value (ignored if !TISTEnabled).
}

// Bytes packs f into buf (reusing its capacity if large enough) and
// returns the encoded frame.
func (f *Frame) Bytes(buf []byte) []byte {
	nst := len(f.Components)
	ficl := len(f.FICBytes) / 4

	// FL = frame length in 32-bit words, counting STC+EOH+MST (spec.md
	// §4.H: "FL (11-bit frame length in 32-bit words including STC, EOH,
	// MST)"). FICF=1 means the FIC is present but, per ETS 300 799, FIC
	// length is not counted in FL.
	stcLen := 4 * nst
	eohLen := 4
	mstLen := len(f.MST)
	fl := (stcLen + eohLen + mstLen) / 4

	total := 4 + 4 + ficl*4 + stcLen + eohLen + mstLen + 4 + 4

	if buf == nil || cap(buf) < total {
		buf = make([]byte, total)
	}
	buf = buf[:total]

	idx := 0
	idx += f.encodeSync(buf[idx:])

	fcStart := idx
	idx += f.encodeFC(buf[idx:idx+4], nst, fl)
	fcEnd := idx

	copy(buf[idx:], f.FICBytes)
	idx += len(f.FICBytes)

	stcStart := idx
	for _, c := range f.Components {
		f.encodeSTC(buf[idx:idx+4], c)
		idx += 4
	}

	eohStart := idx
	// CRC16 covers FC+STC (the FIC sits between them in the frame but is
	// not itself part of the checksummed region).
	fcAndSTC := append(append([]byte(nil), buf[fcStart:fcEnd]...), buf[stcStart:eohStart]...)
	idx += f.encodeEOH(buf[idx:idx+4], fcAndSTC)

	mstStart := idx
	copy(buf[idx:], f.MST)
	idx += len(f.MST)

	idx += f.encodeEOF(buf[idx:idx+4], buf[mstStart:idx])
	idx += f.encodeTIST(buf[idx : idx+4])

	return buf[:idx]
}

// encodeSync writes the 4-byte SYNC field: ERR(1)=0xFF (no error) + FSYNC
// (3), alternating per frame.
func (f *Frame) encodeSync(buf []byte) int {
	buf[0] = 0xFF // ERR: 0xFF indicates no transmission error, per ETS 300 799.
	pattern := uint32(syncPattern)
	if f.FrameCounter%2 == 1 {
		pattern = ^pattern & 0xFFFFFF
	}
	buf[1] = byte(pattern >> 16)
	buf[2] = byte(pattern >> 8)
	buf[3] = byte(pattern)
	return 4
}

// encodeFC writes the 4-byte Frame Characterisation field: FCT(8), FICF(1)
// + NST(7), FP(3) + MID(2) + FL-high(3), FL-low(8).
func (f *Frame) encodeFC(buf []byte, nst, fl int) int {
	fct := byte(f.FrameCounter % 250)
	const ficf = 1
	fp := byte(f.FrameCounter % 8)
	mid := midForFrame(f.FrameCounter)

	buf[0] = fct
	buf[1] = byte(ficf)<<7 | byte(nst)&0x7F
	buf[2] = fp<<5 | mid<<3 | byte(fl>>8)&0x07
	buf[3] = byte(fl)
	return 4
}

// midForFrame returns the Mode Identifier cycling {1,2,3,0} (spec.md
// §4.H "MID ∈ {1,2,3,0}").
func midForFrame(frameCounter uint64) byte {
	cycle := [4]byte{1, 2, 3, 0}
	return cycle[frameCounter%4]
}

// encodeSTC writes one 4-byte Stream Characterisation word: 6-bit SCID,
// 10-bit SAD, 6-bit TPL, 10-bit STL-in-dwords (STL is in CU; 1 CU = 2
// 32-bit-word-halves, i.e. STL-in-dwords = STL/2 per ETS 300 799 table 6).
func (f *Frame) encodeSTC(buf []byte, c StreamComponent) {
	stlDwords := c.STL / 2
	buf[0] = c.SCID&0x3F<<2 | byte(c.SAD>>8)&0x03
	buf[1] = byte(c.SAD)
	buf[2] = c.TPL&0x3F<<2 | byte(stlDwords>>8)&0x03
	buf[3] = byte(stlDwords)
}

// encodeEOH writes the 4-byte End Of Header field: MNSC(2) + CRC16(2) over
// FC+STC+MNSC.
func (f *Frame) encodeEOH(buf []byte, fcAndSTC []byte) int {
	binary.BigEndian.PutUint16(buf[0:2], f.MNSC)
	crcInput := append(append([]byte(nil), fcAndSTC...), buf[0], buf[1])
	crc := crc16.Checksum(crcInput)
	binary.BigEndian.PutUint16(buf[2:4], crc)
	return 4
}

// encodeEOF writes the 4-byte End Of Frame field: CRC16(2) over MST +
// RFU(2)=0xFFFF.
func (f *Frame) encodeEOF(buf []byte, mst []byte) int {
	crc := crc16.Checksum(mst)
	binary.BigEndian.PutUint16(buf[0:2], crc)
	buf[2] = 0xFF
	buf[3] = 0xFF
	return 4
}

// encodeTIST writes the 4-byte TIST field: 24-bit TIST value + trailing
// 0xFF, or 0xFFFFFFFF when TIST is disabled.
func (f *Frame) encodeTIST(buf []byte) int {
	if !f.TISTEnabled {
		buf[0], buf[1], buf[2], buf[3] = 0xFF, 0xFF, 0xFF, 0xFF
		return 4
	}
	buf[0] = byte(f.TIST24 >> 16)
	buf[1] = byte(f.TIST24 >> 8)
	buf[2] = byte(f.TIST24)
	buf[3] = 0xFF
	return 4
}
