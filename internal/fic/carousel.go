/*
DESCRIPTION
  carousel.go implements the FIC scheduler: one Fill call per due
  generator per 24 ms frame, walked in FIG-type order (0, 1, 2), then
  split into FIBs of 30 data bytes each with a trailing CRC16 (spec.md
  §4.F). FIG 0/0 is pulled first whenever it is due, ahead of every
  other generator, so it always lands in the first FIB.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package fic

import (
	"encoding/binary"

	"github.com/ausocean/dabmux/internal/crc16"
	"github.com/ausocean/dabmux/internal/ensemble"
)

// frameMs is the fixed ETI frame period; the carousel advances its clock
// by this much on every Generate call regardless of transmission mode.
const frameMs = 24

const fibDataLen = 30
const fibLen = fibDataLen + 2 // +CRC16.

// PaddingByte fills unused FIB space (spec.md §4.F "Padding is 0xFF").
const PaddingByte = 0xFF

type scheduled struct {
	gen      Generator
	deadline int
}

// Carousel schedules and packs FIG generators into FIC frames.
type Carousel struct {
	mode ensemble.Mode

	fig00      Generator
	fig00Dline int

	type0 []*scheduled
	type1 []*scheduled
	type2 []*scheduled

	nowMs int
}

// NewCarousel returns a Carousel for the given transmission mode. fig00
// is the ensemble-header generator (FIG 0/0), scheduled specially;
// others is every remaining generator, scheduled in FIG-type order.
func NewCarousel(mode ensemble.Mode, fig00 Generator, others []Generator) *Carousel {
	c := &Carousel{mode: mode, fig00: fig00}
	for _, g := range others {
		s := &scheduled{gen: g}
		switch g.FIGType() {
		case 1:
			c.type1 = append(c.type1, s)
		case 2:
			c.type2 = append(c.type2, s)
		default:
			c.type0 = append(c.type0, s)
		}
	}
	return c
}

// fig00IntervalMs is FIG 0/0's special-cased repetition: every frame in
// modes I/IV, every fourth frame (96ms) in modes II/III (spec.md §4.F).
func (c *Carousel) fig00IntervalMs() int {
	if c.mode == ensemble.ModeI || c.mode == ensemble.ModeIV {
		return frameMs
	}
	return 96
}

// Generate advances the carousel by one frame and returns the packed FIC
// bytes (FICL(mode)*4 bytes: fibs FIBs of 30 data bytes + CRC16 each).
func (c *Carousel) Generate(buf []byte) []byte {
	fibs := c.mode.FIBCount()
	total := fibs * fibLen
	if buf == nil || cap(buf) < total {
		buf = make([]byte, total)
	}
	buf = buf[:total]

	c.nowMs += frameMs

	data := make([]byte, fibs*fibDataLen)
	used := 0

	used += c.pullFIG00(data[used:])
	used += c.pullList(c.type0, data[used:])
	used += c.pullList(c.type1, data[used:])
	used += c.pullList(c.type2, data[used:])

	consumed := 0
	for i := 0; i < fibs; i++ {
		start := i * fibLen
		n := copy(buf[start:start+fibDataLen], data[consumed:used])
		consumed += n
		for j := start + n; j < start+fibDataLen; j++ {
			buf[j] = PaddingByte
		}
		crc := crc16.Checksum(buf[start : start+fibDataLen])
		binary.BigEndian.PutUint16(buf[start+fibDataLen:start+fibLen], crc)
	}

	return buf
}

func (c *Carousel) pullFIG00(dst []byte) int {
	if c.fig00 == nil || c.nowMs < c.fig00Dline {
		return 0
	}
	n, complete := c.fig00.Fill(dst, len(dst))
	if complete {
		c.fig00Dline += c.fig00IntervalMs()
	}
	return n
}

func (c *Carousel) pullList(list []*scheduled, dst []byte) int {
	written := 0
	for _, s := range list {
		if c.nowMs < s.deadline {
			continue
		}
		if written >= len(dst) {
			break
		}
		n, complete := s.gen.Fill(dst[written:], len(dst)-written)
		written += n
		if complete {
			s.deadline += s.gen.Rate().IntervalMs()
		}
	}
	return written
}
