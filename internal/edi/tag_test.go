/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package edi

import (
	"encoding/binary"
	"testing"

	"github.com/ausocean/dabmux/internal/crc16"
)

func TestBuildTagPacketIsAlignedAndOrdered(t *testing.T) {
	h := DetiHeader{FCT: 7, FICF: true, NST: 2, FP: 3, MNSC: 0x1234}
	subs := []SubChannelPayload{
		{Index: 0, Bytes: []byte{1, 2, 3}},
		{Index: 1, Bytes: []byte{4, 5}},
	}
	body := BuildTagPacket(h, subs)
	if len(body)%tagPacketAlignment != 0 {
		t.Fatalf("tag packet length %d not %d-byte aligned", len(body), tagPacketAlignment)
	}
	if string(body[0:4]) != "*ptr" {
		t.Fatalf("first tag = %q, want *ptr", body[0:4])
	}
	// *ptr item: 8-byte header + 8-byte payload; deti item: 8 + 6 (no
	// timestamp); est0 item: 8 + 3; est1 follows.
	if string(body[16:20]) != "deti" {
		t.Fatalf("second tag = %q, want deti", body[16:20])
	}
	if string(body[30:34]) != "est0" {
		t.Fatalf("third tag = %q, want est0", body[30:34])
	}
	if string(body[41:45]) != "est1" {
		t.Fatalf("fourth tag = %q, want est1", body[41:45])
	}
}

func TestEstTagNameSequence(t *testing.T) {
	cases := []struct {
		index int
		want  string
	}{
		{0, "est0"},
		{9, "est9"},
		{10, "esta"},
		{35, "estz"},
	}
	for _, c := range cases {
		if got := estTagName(c.index); got != c.want {
			t.Errorf("estTagName(%d) = %q, want %q", c.index, got, c.want)
		}
	}
}

// TestBuildAFIsWellFormed checks the AF framing this package produces
// against the wire layout spec.md §4.D point 3/§6 describe: magic,
// big-endian 32-bit length, protocol tag 'T', and a verifiable trailing
// CRC16 when requested.
func TestBuildAFIsWellFormed(t *testing.T) {
	h := DetiHeader{FCT: 42, FICF: true, NST: 1, FP: 2, MNSC: 0xBEEF}
	payload := []byte{0xAA, 0xBB, 0xCC, 0xDD}
	body := BuildTagPacket(h, []SubChannelPayload{{Index: 0, Bytes: payload}})
	af := BuildAF(7, body, true)

	if string(af[0:2]) != "AF" {
		t.Fatalf("missing AF magic")
	}
	if gotLen := binary.BigEndian.Uint32(af[2:6]); int(gotLen) != len(body) {
		t.Fatalf("AF length = %d, want %d", gotLen, len(body))
	}
	if gotSeq := binary.BigEndian.Uint16(af[6:8]); gotSeq != 7 {
		t.Fatalf("AF sequence = %d, want 7", gotSeq)
	}
	if af[9] != 'T' {
		t.Fatalf("protocol tag = %q, want 'T'", af[9])
	}

	want := binary.BigEndian.Uint16(af[len(af)-2:])
	got := crc16.Checksum(af[:len(af)-2])
	if want != got {
		t.Fatalf("trailing CRC16 = %04x, want %04x", want, got)
	}
}
