/*
DESCRIPTION
  fig0_17.go implements FIG 0/17, programme type: a 4-byte entry per
  service with a non-zero PTy, SId plus a dynamic-PTy flag and the
  international programme-type code (spec.md §4.F; grounded on
  original_source/src/fig/FIG0_17.cpp).

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package fic

import "github.com/ausocean/dabmux/internal/ensemble"

// FIG0_17 emits per-service programme type entries.
type FIG0_17 struct {
	e           *ensemble.Ensemble
	initialised bool
	order       []*ensemble.Service
	pos         int
}

// NewFIG0_17 returns a FIG 0/17 generator.
func NewFIG0_17(e *ensemble.Ensemble) *FIG0_17 { return &FIG0_17{e: e} }

func (f *FIG0_17) FIGType() int      { return 0 }
func (f *FIG0_17) FIGExtension() int { return 17 }
func (f *FIG0_17) Rate() Rate        { return RateB }

func (f *FIG0_17) Fill(buf []byte, maxLen int) (int, bool) {
	if !f.initialised {
		f.initialised = true
		f.order = append(f.order[:0], f.e.Services...)
		f.pos = 0
	}

	remaining := maxLen
	written := 0
	haveHeader := false
	length := 0

	for f.pos < len(f.order) {
		svc := f.order[f.pos]
		if svc.PTy == 0 {
			f.pos++
			continue
		}

		const entrySize = 4
		if !haveHeader {
			if remaining < 2+entrySize {
				break
			}
			writeFIG0Header(buf, 1, 17, false, false, false)
			written += 2
			remaining -= 2
			haveHeader = true
			length = 1
		} else if remaining < entrySize {
			break
		}

		e := buf[written : written+entrySize]
		e[0] = byte(svc.SId >> 8)
		e[1] = byte(svc.SId)
		e[2] = boolBit(svc.PTyDynamic) << 5
		e[3] = svc.PTy

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
