/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package ediinput

import (
	"encoding/binary"
	"testing"

	"github.com/ausocean/dabmux/internal/crc16"
	"github.com/ausocean/dabmux/internal/xlog"
)

// buildTagPacket lays out a sequence of {name, payload} tag items the way
// parseTagPacket expects to read them.
func buildTagPacket(items []tagItem) []byte {
	var buf []byte
	for _, it := range items {
		buf = append(buf, it.name...)
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(it.payload))*8)
		buf = append(buf, lenBuf[:]...)
		buf = append(buf, it.payload...)
	}
	return buf
}

func buildAF(body []byte, withCRC bool) []byte {
	buf := make([]byte, afHeaderLen)
	buf[0], buf[1] = 'A', 'F'
	binary.BigEndian.PutUint32(buf[2:6], uint32(len(body)))
	binary.BigEndian.PutUint16(buf[6:8], 0)
	flags := byte(0)
	if withCRC {
		flags |= afFlagCRC
	}
	buf[8] = flags
	buf[9] = 'T'
	buf = append(buf, body...)
	if withCRC {
		buf = binary.BigEndian.AppendUint16(buf, crc16.Checksum(buf))
	}
	return buf
}

func TestParseAFRejectsWrongProtocol(t *testing.T) {
	buf := buildAF(nil, false)
	buf[9] = 'X'
	if _, err := parseAF(buf); err == nil {
		t.Fatalf("expected error for non-DAB protocol tag")
	}
}

func TestParseAFValidatesCRC(t *testing.T) {
	buf := buildAF([]byte{1, 2, 3}, true)
	if _, err := parseAF(buf); err != nil {
		t.Fatalf("valid AF with CRC rejected: %v", err)
	}
	buf[len(buf)-1] ^= 0xFF
	if _, err := parseAF(buf); err == nil {
		t.Fatalf("expected CRC mismatch to be rejected")
	}
}

func TestParseTagPacketRoundTrip(t *testing.T) {
	items := []tagItem{
		{name: "*ptr", payload: []byte{0, 0, 0, 0}},
		{name: "ss01", payload: []byte{9, 9, 9}},
	}
	body := buildTagPacket(items)
	got, err := parseTagPacket(body)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].name != "*ptr" || got[1].name != "ss01" {
		t.Fatalf("parseTagPacket = %+v", got)
	}
}

func TestSSStreamIndex(t *testing.T) {
	n, ok := ssStreamIndex("ss03")
	if !ok || n != 3 {
		t.Fatalf("ssStreamIndex(ss03) = %d, %v", n, ok)
	}
	if _, ok := ssStreamIndex("dsti"); ok {
		t.Fatalf("ssStreamIndex(dsti) should not match")
	}
}

func TestDecoderAssemblesFrameFromAFPacket(t *testing.T) {
	dstiPayload := []byte{0x00, 0x00, 0x00} // No STAT/time flags set.
	body := buildTagPacket([]tagItem{
		{name: "*ptr", payload: []byte{0, 0, 0, 0}},
		{name: "dsti", payload: dstiPayload},
		{name: "ss01", payload: []byte{1, 2, 3, 4}},
	})
	af := buildAF(body, false)

	d := NewDecoder(xlog.NewTestLogger(t), 10)
	d.PushPacket(af)

	f, ok := d.Pop()
	if !ok {
		t.Fatalf("expected an assembled frame")
	}
	if string(f.Streams[1]) != string([]byte{1, 2, 3, 4}) {
		t.Fatalf("stream 1 payload = %v", f.Streams[1])
	}
}
