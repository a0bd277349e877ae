/*
DESCRIPTION
  fig0_14.go implements FIG 0/14, the FEC scheme used by enhanced
  packet-mode sub-channels: one byte per sub-channel of type DataDmb or
  Packet (spec.md §4.F; grounded
  on original_source/src/fig/FIG0_14.cpp's FIG0_14_AppInfo layout).

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package fic

import "github.com/ausocean/dabmux/internal/ensemble"

// FIG0_14 emits the FEC scheme byte for data sub-channels.
type FIG0_14 struct {
	e           *ensemble.Ensemble
	initialised bool
	order       []*ensemble.SubChannel
	pos         int
}

// NewFIG0_14 returns a FIG 0/14 generator.
func NewFIG0_14(e *ensemble.Ensemble) *FIG0_14 { return &FIG0_14{e: e} }

func (f *FIG0_14) FIGType() int      { return 0 }
func (f *FIG0_14) FIGExtension() int { return 14 }
func (f *FIG0_14) Rate() Rate        { return RateB }

func (f *FIG0_14) Fill(buf []byte, maxLen int) (int, bool) {
	if !f.initialised {
		f.initialised = true
		f.order = f.order[:0]
		for _, sc := range f.e.SubChannels {
			if sc.Type == ensemble.DataDmb || sc.Type == ensemble.Packet {
				f.order = append(f.order, sc)
			}
		}
		f.pos = 0
	}

	if maxLen < 3 {
		return 0, false
	}

	remaining := maxLen
	written := 0
	haveHeader := false
	length := 0

	for f.pos < len(f.order) {
		sc := f.order[f.pos]

		if !haveHeader {
			if remaining < 2+1 {
				break
			}
			writeFIG0Header(buf, 1, 14, false, false, false)
			written += 2
			remaining -= 2
			haveHeader = true
			length = 1
		} else if remaining < 1 {
			break
		}

		const fecScheme = 1 // RS+Fire code, the only scheme this core emits.
		buf[written] = sc.ID&0x3F | fecScheme<<6

		written++
		remaining--
		length++
		setFIG0Length(buf, length)

		f.pos++
	}

	complete := f.pos >= len(f.order)
	if complete {
		f.initialised = false
	}
	return written, complete
}
