/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package eti

import (
	"encoding/binary"
	"testing"

	"github.com/ausocean/dabmux/internal/crc16"
)

func TestEncodeSyncAlternatesEveryFrame(t *testing.T) {
	f0 := &Frame{FrameCounter: 0}
	f1 := &Frame{FrameCounter: 1}

	buf0 := make([]byte, 4)
	buf1 := make([]byte, 4)
	f0.encodeSync(buf0)
	f1.encodeSync(buf1)

	if buf0[0] != 0xFF || buf1[0] != 0xFF {
		t.Fatalf("ERR byte should be 0xFF, got %02x and %02x", buf0[0], buf1[0])
	}

	p0 := uint32(buf0[1])<<16 | uint32(buf0[2])<<8 | uint32(buf0[3])
	p1 := uint32(buf1[1])<<16 | uint32(buf1[2])<<8 | uint32(buf1[3])

	if p0 != syncPattern {
		t.Fatalf("frame 0 FSYNC = %06x, want %06x", p0, syncPattern)
	}
	if p1 != ^uint32(syncPattern)&0xFFFFFF {
		t.Fatalf("frame 1 FSYNC = %06x, want complement %06x", p1, ^uint32(syncPattern)&0xFFFFFF)
	}
}

func TestEncodeFCFieldsRoundTrip(t *testing.T) {
	f := &Frame{FrameCounter: 13}
	buf := make([]byte, 4)
	f.encodeFC(buf, 3, 1500)

	if buf[0] != 13 {
		t.Fatalf("FCT = %d, want 13", buf[0])
	}
	if buf[1]>>7 != 1 {
		t.Fatalf("FICF bit not set")
	}
	if int(buf[1]&0x7F) != 3 {
		t.Fatalf("NST = %d, want 3", buf[1]&0x7F)
	}

	fp := buf[2] >> 5
	mid := (buf[2] >> 3) & 0x03
	flHigh := int(buf[2]&0x07) << 8
	fl := flHigh | int(buf[3])

	if fp != byte(13%8) {
		t.Fatalf("FP = %d, want %d", fp, 13%8)
	}
	if mid != midForFrame(13) {
		t.Fatalf("MID = %d, want %d", mid, midForFrame(13))
	}
	if fl != 1500 {
		t.Fatalf("FL = %d, want 1500", fl)
	}
}

func TestMidForFrameCyclesExpectedSequence(t *testing.T) {
	want := []byte{1, 2, 3, 0, 1, 2, 3, 0}
	for i, w := range want {
		if got := midForFrame(uint64(i)); got != w {
			t.Fatalf("midForFrame(%d) = %d, want %d", i, got, w)
		}
	}
}

func TestEncodeSTCPacksFields(t *testing.T) {
	f := &Frame{}
	c := StreamComponent{SCID: 0x3F, SAD: 0x3FF, TPL: 0x2C, STL: 20} // STL=20 CU -> 10 dwords.
	buf := make([]byte, 4)
	f.encodeSTC(buf, c)

	scid := buf[0] >> 2
	sadHigh := buf[0] & 0x03
	sad := int(sadHigh)<<8 | int(buf[1])
	tpl := buf[2] >> 2
	stlHigh := buf[2] & 0x03
	stlDwords := int(stlHigh)<<8 | int(buf[3])

	if scid != c.SCID {
		t.Fatalf("SCID = %d, want %d", scid, c.SCID)
	}
	if sad != c.SAD {
		t.Fatalf("SAD = %d, want %d", sad, c.SAD)
	}
	if tpl != c.TPL {
		t.Fatalf("TPL = %d, want %d", tpl, c.TPL)
	}
	if stlDwords != c.STL/2 {
		t.Fatalf("STL-in-dwords = %d, want %d", stlDwords, c.STL/2)
	}
}

func TestEncodeEOHChecksumMatchesCRC16(t *testing.T) {
	f := &Frame{MNSC: 0xABCD}
	fcAndSTC := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	buf := make([]byte, 4)
	f.encodeEOH(buf, fcAndSTC)

	if got := binary.BigEndian.Uint16(buf[0:2]); got != f.MNSC {
		t.Fatalf("MNSC = %04x, want %04x", got, f.MNSC)
	}

	want := crc16.Checksum(append(append([]byte(nil), fcAndSTC...), buf[0], buf[1]))
	if got := binary.BigEndian.Uint16(buf[2:4]); got != want {
		t.Fatalf("EOH CRC = %04x, want %04x", got, want)
	}
}

func TestEncodeEOFChecksumAndRFU(t *testing.T) {
	f := &Frame{}
	mst := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x01}
	buf := make([]byte, 4)
	f.encodeEOF(buf, mst)

	want := crc16.Checksum(mst)
	if got := binary.BigEndian.Uint16(buf[0:2]); got != want {
		t.Fatalf("EOF CRC = %04x, want %04x", got, want)
	}
	if buf[2] != 0xFF || buf[3] != 0xFF {
		t.Fatalf("RFU = %02x%02x, want ffff", buf[2], buf[3])
	}
}

func TestEncodeTISTDisabled(t *testing.T) {
	f := &Frame{TISTEnabled: false}
	buf := make([]byte, 4)
	f.encodeTIST(buf)
	for i, b := range buf {
		if b != 0xFF {
			t.Fatalf("byte %d = %02x, want ff when TIST disabled", i, b)
		}
	}
}

func TestEncodeTISTEnabled(t *testing.T) {
	f := &Frame{TISTEnabled: true, TIST24: 0x0102FE}
	buf := make([]byte, 4)
	f.encodeTIST(buf)

	if buf[0] != 0x01 || buf[1] != 0x02 || buf[2] != 0xFE {
		t.Fatalf("TIST24 = %02x%02x%02x, want 0102fe", buf[0], buf[1], buf[2])
	}
	if buf[3] != 0xFF {
		t.Fatalf("trailing byte = %02x, want ff", buf[3])
	}
}

func TestFrameBytesProducesWellFormedFrame(t *testing.T) {
	f := &Frame{
		FrameCounter: 4,
		FICBytes:     make([]byte, 96), // FICL=24 words typical for mode I.
		Components: []StreamComponent{
			{SCID: 1, SAD: 0, TPL: 0x2C, STL: 6},
		},
		MST:         make([]byte, 24),
		MNSC:        0,
		TISTEnabled: true,
		TIST24:      0x000001,
	}

	out := f.Bytes(nil)

	// SYNC(4) + FC(4) + FIC(96) + STC(4*1) + EOH(4) + MST(24) + EOF(4) + TIST(4).
	wantLen := 4 + 4 + 96 + 4 + 4 + 24 + 4 + 4
	if len(out) != wantLen {
		t.Fatalf("frame length = %d, want %d", len(out), wantLen)
	}
	if len(out) > FrameBudget {
		t.Fatalf("frame length %d exceeds budget %d", len(out), FrameBudget)
	}

	// Layout: SYNC[0:4] FC[4:8] FIC[8:104] STC[104:108] EOH[108:112].
	eohCRC := binary.BigEndian.Uint16(out[110:112])
	fc := out[4:8]
	stc := out[104:108]
	mnsc := out[108:110]
	want := crc16.Checksum(append(append(append([]byte(nil), fc...), stc...), mnsc...))
	if eohCRC != want {
		t.Fatalf("embedded EOH CRC = %04x, want %04x", eohCRC, want)
	}
}
