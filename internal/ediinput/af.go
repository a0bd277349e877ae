/*
DESCRIPTION
  af.go parses AF (Application Frame) packets and the TAG Packet they
  carry, dispatching each tag item to a registered handler by its 4-byte
  ASCII name (spec.md §4.D point 3). Unknown tags are ignored so a future
  protocol revision's extra tags do not break an older decoder.

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
	"fmt"
	"strconv"

	"github.com/ausocean/dabmux/internal/crc16"
)

// afHeaderLen is the fixed AF header length (magic, 32-bit length, 16-bit
// sequence, flags, protocol tag), per spec.md §4.D point 3.
const afHeaderLen = 10

// afFlagCRC marks that a trailing CRC16 follows the TAG Packet body.
const afFlagCRC = 0x80

// parseAF validates and splits one AF packet into its TAG Packet body.
func parseAF(buf []byte) ([]byte, error) {
	if len(buf) < afHeaderLen {
		return nil, fmt.Errorf("ediinput: AF packet too short (%d bytes)", len(buf))
	}
	if string(buf[0:2]) != "AF" {
		return nil, fmt.Errorf("ediinput: missing AF magic")
	}

	length := binary.BigEndian.Uint32(buf[2:6])
	flags := buf[8]
	proto := buf[9]
	if proto != 'T' {
		return nil, fmt.Errorf("ediinput: unsupported AF protocol tag %q (want 'T')", proto)
	}

	body := buf[afHeaderLen:]
	hasCRC := flags&afFlagCRC != 0
	if hasCRC {
		if len(body) < 2 {
			return nil, fmt.Errorf("ediinput: AF packet too short for trailing CRC")
		}
		want := binary.BigEndian.Uint16(body[len(body)-2:])
		got := crc16.Checksum(buf[:len(buf)-2])
		if want != got {
			return nil, fmt.Errorf("ediinput: AF packet CRC mismatch (want %04x, got %04x)", want, got)
		}
		body = body[:len(body)-2]
	}

	if uint32(len(body)) < length {
		return nil, fmt.Errorf("ediinput: AF packet body shorter than declared length")
	}
	return body[:length], nil
}

// tagItem is one {name, payload} item from a TAG Packet.
type tagItem struct {
	name    string
	payload []byte
}

// parseTagPacket splits a TAG Packet body into its constituent tag items:
// a sequence of {4-byte ASCII tag name, 32-bit bit-length, payload},
// 8-byte padded at the end (spec.md §4.D point 3, §4.I).
func parseTagPacket(body []byte) ([]tagItem, error) {
	var items []tagItem
	for len(body) >= 8 {
		name := string(body[0:4])
		bitLen := binary.BigEndian.Uint32(body[4:8])
		byteLen := (bitLen + 7) / 8
		body = body[8:]
		if uint32(len(body)) < byteLen {
			// Remaining bytes are end-of-packet padding.
			break
		}
		items = append(items, tagItem{name: name, payload: body[:byteLen]})
		body = body[byteLen:]
	}
	return items, nil
}

// dsti is the parsed `dsti` management tag.
type dsti struct {
	stihf bool
	atstf bool
	rfadf bool
	dflc  uint16 // 14-bit, modulo 5000.
	stat  byte
	spid  uint16
	haveStat bool
	utco  byte
	seconds uint32
	tsta  uint32 // 24-bit.
	haveTime bool
}

// parseDSTI decodes the `dsti` tag payload.
func parseDSTI(p []byte) (dsti, error) {
	if len(p) < 3 {
		return dsti{}, fmt.Errorf("ediinput: dsti tag too short")
	}
	var d dsti
	flags := p[0]
	d.stihf = flags&0x80 != 0
	d.atstf = flags&0x40 != 0
	d.rfadf = flags&0x20 != 0

	dflc := binary.BigEndian.Uint16(p[1:3]) & 0x3FFF
	d.dflc = dflc % 5000

	offset := 3
	if d.stihf {
		if len(p) < offset+3 {
			return dsti{}, fmt.Errorf("ediinput: dsti tag truncated before STAT/SPID")
		}
		d.haveStat = true
		d.stat = p[offset]
		d.spid = binary.BigEndian.Uint16(p[offset+1 : offset+3])
		offset += 3
	}
	if d.atstf {
		if len(p) < offset+8 {
			return dsti{}, fmt.Errorf("ediinput: dsti tag truncated before timestamp")
		}
		d.haveTime = true
		d.utco = p[offset]
		d.seconds = binary.BigEndian.Uint32(p[offset+1 : offset+5])
		d.tsta = binary.BigEndian.Uint32(append([]byte{0}, p[offset+5:offset+8]...))
		offset += 8
	}
	return d, nil
}

// ssStreamIndex parses the 1-based stream index encoded in an `ss##` tag's
// numeric suffix.
func ssStreamIndex(name string) (int, bool) {
	if len(name) != 4 || name[0:2] != "ss" {
		return 0, false
	}
	n, err := strconv.Atoi(name[2:4])
	if err != nil {
		return 0, false
	}
	return n, true
}
