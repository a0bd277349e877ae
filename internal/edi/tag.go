/*
DESCRIPTION
  tag.go builds the emitter-side EDI TAG packet: *ptr (DETI/0.0), deti
  (management header derived from the ETI FC/STC/MNSC plus the full
  UTCO+seconds+TSTA timestamp when ATSTF is enabled), and one est<n> per
  sub-channel (spec.md §4.I, §6 "tag ordering: *ptr, DETI, EST1, EST2, …,
  ESTn"). The {name, bit-length, payload} item shape mirrors the parsing
  side's tagItem in package ediinput; this file is the write path of the
  same wire format.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package edi implements the EDI emitter: TAG packet construction, AF
// framing, optional PFT fragmentation with Reed-Solomon FEC, and
// multi-destination fan-out over UDP/TCP (spec.md §4.I).
package edi

import (
	"encoding/binary"
	"fmt"

	"github.com/ausocean/dabmux/internal/crc16"
)

// tagPacketAlignment is the default padding boundary for a TAG Packet's
// total length (§6 "tagpacket_alignment (default 8)").
const tagPacketAlignment = 8

// SubChannelPayload pairs one sub-channel's STC fields with its MST bytes
// for the current frame, enough to build one est<n> tag.
type SubChannelPayload struct {
	Index int // 0-based EDI stream index, used to derive the est<n> tag name.
	SCID  byte
	SAD   int
	TPL   byte
	Bytes []byte
}

// DetiHeader carries the management fields an est/deti tag needs, derived
// from the current frame's ETI FC/STC/MNSC plus the multiplexer's EDI time
// (spec.md §4.I).
type DetiHeader struct {
	FCT  byte
	FICF bool
	NST  int
	FP   byte

	MNSC uint16

	ATSTF   bool // Timestamp present.
	UTCO    byte
	Seconds uint32
	TSTA    uint32 // 24-bit.

	RFADF bool // Reserved-for-future-additions flag, mirrored from STI-D input when relaying.
}

// BuildTagPacket assembles the *ptr/deti/est<n> TAG Packet for one frame,
// padded to tagPacketAlignment bytes (§4.I, §6).
func BuildTagPacket(h DetiHeader, subs []SubChannelPayload) []byte {
	var body []byte
	body = appendTag(body, "*ptr", encodePtr())
	body = appendTag(body, "deti", encodeDeti(h))
	for _, s := range subs {
		name := estTagName(s.Index)
		body = appendTag(body, name, s.Bytes)
	}

	for len(body)%tagPacketAlignment != 0 {
		body = append(body, 0)
	}
	return body
}

// appendTag appends one {4-byte name, 32-bit bit-length, payload} TAG
// Packet item to dst (§4.D point 3, §6 "length field is in bits,
// big-endian").
func appendTag(dst []byte, name string, payload []byte) []byte {
	dst = append(dst, name[0], name[1], name[2], name[3])
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(payload))*8)
	dst = append(dst, payload...)
	return dst
}

// estTagName returns the 4-byte "est<n>" tag name for a 0-based stream
// index (§6 "EST1, EST2, …, ESTn"): the single trailing character is '0'-
// '9' for indices 0-9 and 'a'-'z' beyond that, the convention ODR-DabMux
// itself uses since only one ASCII character remains in the fixed 4-byte
// tag name.
func estTagName(index int) string {
	var c byte
	switch {
	case index < 0:
		c = '0'
	case index < 10:
		c = '0' + byte(index)
	case index < 36:
		c = 'a' + byte(index-10)
	default:
		c = 'z'
	}
	return fmt.Sprintf("est%c", c)
}

// encodePtr builds the *ptr tag payload: a 4-byte protocol name plus two
// 16-bit version numbers, fixed at "DETI/0.0" for this emitter (§6).
func encodePtr() []byte {
	buf := make([]byte, 8)
	copy(buf[0:4], "DETI")
	binary.BigEndian.PutUint16(buf[4:6], 0)
	binary.BigEndian.PutUint16(buf[6:8], 0)
	return buf
}

// encodeDeti builds the deti management tag payload, mirroring the
// dsti/DETI management field layout the decoder reads on input (spec.md
// §4.D, §4.I): flags (STIHF unused on output, ATSTF, RFADF), FCT, NST,
// FP/MNSC, and the optional UTCO+seconds+TSTA timestamp.
func encodeDeti(h DetiHeader) []byte {
	flags := byte(0)
	if h.ATSTF {
		flags |= 0x40
	}
	if h.RFADF {
		flags |= 0x20
	}

	buf := make([]byte, 0, 8)
	buf = append(buf, flags, h.FCT)
	nstByte := byte(h.NST) & 0x7F
	ficfBit := byte(0)
	if h.FICF {
		ficfBit = 0x80
	}
	buf = append(buf, ficfBit|nstByte, h.FP)
	buf = binary.BigEndian.AppendUint16(buf, h.MNSC)

	if h.ATSTF {
		buf = append(buf, h.UTCO)
		buf = binary.BigEndian.AppendUint32(buf, h.Seconds)
		buf = append(buf, byte(h.TSTA>>16), byte(h.TSTA>>8), byte(h.TSTA))
	}
	return buf
}

// afFlagCRC marks a trailing CRC16, mirroring the decoder's afFlagCRC in
// package ediinput.
const afFlagCRC = 0x80

// afHeaderLen is the fixed AF header length: magic(2)+length(4)+seq(2)+
// flags(1)+proto(1) (spec.md §4.D point 3, §6).
const afHeaderLen = 10

// BuildAF wraps a TAG Packet body in one AF packet: magic "AF", 32-bit
// length, 16-bit sequence, flags (with the CRC-present bit when
// withCRC is true), protocol tag 'T' (STI-D/DAB), and an optional
// trailing CRC16 (spec.md §4.I, §6).
func BuildAF(seq uint16, body []byte, withCRC bool) []byte {
	buf := make([]byte, 0, afHeaderLen+len(body)+2)
	buf = append(buf, 'A', 'F')
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(body)))
	buf = binary.BigEndian.AppendUint16(buf, seq)
	flags := byte(0)
	if withCRC {
		flags |= afFlagCRC
	}
	buf = append(buf, flags, 'T')
	buf = append(buf, body...)
	if withCRC {
		buf = binary.BigEndian.AppendUint16(buf, crc16.Checksum(buf))
	}
	return buf
}
