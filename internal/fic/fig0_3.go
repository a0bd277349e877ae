/*
DESCRIPTION
  fig0_3.go implements FIG 0/3, packet-mode component addressing: one
  5-byte entry per packet-mode component naming its SCId, data-service
  component type, packet address and hosting sub-channel (spec.md §4.F;
  grounded on original_source/src/fig/FIG0_3.cpp's FIGtype0_3 layout).

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package fic

import "github.com/ausocean/dabmux/internal/ensemble"

// FIG0_3 emits packet-mode component addressing entries.
type FIG0_3 struct {
	e           *ensemble.Ensemble
	initialised bool
	order       []*ensemble.Component
	pos         int
}

// NewFIG0_3 returns a FIG 0/3 generator.
func NewFIG0_3(e *ensemble.Ensemble) *FIG0_3 { return &FIG0_3{e: e} }

func (f *FIG0_3) FIGType() int      { return 0 }
func (f *FIG0_3) FIGExtension() int { return 3 }
func (f *FIG0_3) Rate() Rate        { return RateB }

func (f *FIG0_3) subChannelByUID(uid string) *ensemble.SubChannel {
	for _, sc := range f.e.SubChannels {
		if sc.UID == uid {
			return sc
		}
	}
	return nil
}

func (f *FIG0_3) Fill(buf []byte, maxLen int) (int, bool) {
	if !f.initialised {
		f.initialised = true
		f.order = f.order[:0]
		for _, c := range f.e.Components {
			if c.IsPacket {
				f.order = append(f.order, c)
			}
		}
		f.pos = 0
	}

	const entrySize = 5
	if maxLen < 2+entrySize {
		return 0, false
	}

	remaining := maxLen
	written := 0
	haveHeader := false
	length := 0

	for f.pos < len(f.order) {
		c := f.order[f.pos]
		sc := f.subChannelByUID(c.SubChanUID)
		if sc == nil {
			f.pos++
			continue
		}

		if !haveHeader {
			if remaining < 2+entrySize {
				break
			}
			writeFIG0Header(buf, 1, 3, true, false, false)
			written += 2
			remaining -= 2
			haveHeader = true
			length = 1
		} else if remaining < entrySize {
			break
		}

		e := buf[written : written+entrySize]
		// byte0: SCId[11:4]; byte1: SCId[3:0](4)<<4 | rfa(3)<<1 | SCCA_flag(1).
		e[0] = byte(c.PacketID >> 4)
		e[1] = byte(c.PacketID&0x0F)<<4 | boolBit(false)
		// byte2: DG_flag(1)<<7 | rfu(1)<<6 | DSCTy(6).
		e[2] = boolBit(c.DataGroup)<<7 | c.ComponentType&0x3F
		// byte3: SubChId(6)<<2 | Packet_address[9:8]; byte4: Packet_address[7:0].
		e[3] = sc.ID&0x3F<<2 | byte(c.PacketAddr>>8)&0x03
		e[4] = byte(c.PacketAddr)

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
