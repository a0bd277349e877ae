/*
DESCRIPTION
  fig0_1.go implements FIG 0/1, sub-channel organisation, in both the
  3-byte UEP short form and the 4-byte EEP long form, plus the
  watermarked iteration direction described in spec.md §4.F. Grounded
  directly on original_source/src/fig/FIG0_1.cpp's field layout and
  watermark-driven reverse-iteration logic.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package fic

import "github.com/ausocean/dabmux/internal/ensemble"

// FIG0_1 emits sub-channel organisation entries, rotating through the
// ensemble's sub-channels across as many Fill calls as needed.
type FIG0_1 struct {
	e *ensemble.Ensemble

	initialised bool
	order       []*ensemble.SubChannel
	pos         int

	watermark     []byte
	watermarkBits int
	watermarkPos  int
}

// NewFIG0_1 returns a FIG 0/1 generator that embeds ident as its
// watermark fingerprint.
func NewFIG0_1(e *ensemble.Ensemble, ident string) *FIG0_1 {
	pattern, nbits := buildWatermark(ident)
	return &FIG0_1{e: e, watermark: pattern, watermarkBits: nbits}
}

func (f *FIG0_1) FIGType() int      { return 0 }
func (f *FIG0_1) FIGExtension() int { return 1 }
func (f *FIG0_1) Rate() Rate        { return RateA }

func (f *FIG0_1) Fill(buf []byte, maxLen int) (int, bool) {
	if !f.initialised {
		f.initialised = true
		f.order = append([]*ensemble.SubChannel(nil), f.e.SubChannels...)

		forward := watermarkBit(f.watermark, f.watermarkBits, f.watermarkPos) == 1
		if !forward {
			for i, j := 0, len(f.order)-1; i < j; i, j = i+1, j-1 {
				f.order[i], f.order[j] = f.order[j], f.order[i]
			}
		}
		f.pos = 0
	}

	if maxLen < 6 {
		return 0, false
	}

	remaining := maxLen
	written := 0
	haveHeader := false
	length := 0

	for f.pos < len(f.order) {
		sc := f.order[f.pos]
		entrySize := 3
		if !sc.Protect.UEP {
			entrySize = 4
		}

		if !haveHeader {
			if remaining < 2+entrySize {
				break
			}
			writeFIG0Header(buf, 1, 1, false, false, false)
			written += 2
			remaining -= 2
			haveHeader = true
			length = 1
		} else if remaining < entrySize {
			break
		}

		entry := buf[written : written+entrySize]
		if sc.Protect.UEP {
			entry[0] = sc.ID&0x3F<<2 | byte(sc.Start>>8)&0x03
			entry[1] = byte(sc.Start)
			entry[2] = sc.Protect.UEPTableIndex & 0x3F // Short_Long_form=0, TableSwitch=0.
		} else {
			opt := byte(0)
			if sc.Protect.EEPProfile == ensemble.EEPProfileB {
				opt = 1
			}
			level := sc.Protect.EEPLevel - 1
			entry[0] = sc.ID&0x3F<<2 | byte(sc.Start>>8)&0x03
			entry[1] = byte(sc.Start)
			entry[2] = 1<<7 | opt&0x07<<4 | level&0x03<<2 | byte(sc.Size>>8)&0x03
			entry[3] = byte(sc.Size)
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
		f.watermarkPos++
	}

	return written, complete
}
