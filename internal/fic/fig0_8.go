/*
DESCRIPTION
  fig0_8.go implements FIG 0/8, service-component global definition: a
  3-byte short form for stream-mode components (referencing their
  sub-channel id) or a 4-byte long form for packet-mode components
  (referencing their 16-bit SCId), selected by the component's Ext bit
  (spec.md §4.F; grounded on original_source/src/fig/FIG0_8.cpp's
  FIGtype0_8_short/FIGtype0_8_long layouts).

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package fic

import "github.com/ausocean/dabmux/internal/ensemble"

// FIG0_8 emits service-component global definitions.
type FIG0_8 struct {
	e           *ensemble.Ensemble
	initialised bool
	order       []*ensemble.Component
	pos         int
}

// NewFIG0_8 returns a FIG 0/8 generator.
func NewFIG0_8(e *ensemble.Ensemble) *FIG0_8 { return &FIG0_8{e: e} }

func (f *FIG0_8) FIGType() int      { return 0 }
func (f *FIG0_8) FIGExtension() int { return 8 }
func (f *FIG0_8) Rate() Rate        { return RateB }

func (f *FIG0_8) serviceByUID(uid string) *ensemble.Service {
	for _, s := range f.e.Services {
		if s.UID == uid {
			return s
		}
	}
	return nil
}

func (f *FIG0_8) subChannelByUID(uid string) *ensemble.SubChannel {
	for _, sc := range f.e.SubChannels {
		if sc.UID == uid {
			return sc
		}
	}
	return nil
}

func (f *FIG0_8) Fill(buf []byte, maxLen int) (int, bool) {
	if !f.initialised {
		f.initialised = true
		f.order = append(f.order[:0], f.e.Components...)
		f.pos = 0
	}

	remaining := maxLen
	written := 0
	haveHeader := false
	length := 0

	for f.pos < len(f.order) {
		c := f.order[f.pos]
		svc := f.serviceByUID(c.ServiceUID)
		sc := f.subChannelByUID(c.SubChanUID)
		if svc == nil || sc == nil {
			f.pos++
			continue
		}
		pd := svc.SId > 0xFFFF
		entrySize := 3
		if c.IsPacket {
			entrySize = 4
		}

		if !haveHeader {
			if remaining < 2+entrySize {
				break
			}
			writeFIG0Header(buf, 1, 8, pd, false, false)
			written += 2
			remaining -= 2
			haveHeader = true
			length = 1
		} else if remaining < entrySize {
			break
		}

		e := buf[written : written+entrySize]
		e[0] = c.SCIdS&0x0F<<4 | boolBit(c.IsPacket)<<7

		if c.IsPacket {
			e[1] = byte(c.PacketID>>8)&0x0F | 1<<7 // LS=1.
			e[2] = byte(c.PacketID)
			e[3] = 0
		} else {
			e[1] = sc.ID&0x3F | 0<<7 // LS=0, MscFic=0 (MSC stream mode).
			e[2] = 0
		}

		written += entrySize
		remaining -= entrySize
		length += entrySize
		setFIG0Length(buf, length)

		f.pos++
	}

	complete := f.pos >= len(f.order)
	if complete {
		f.initialised = false
	}
	return written, complete
}
