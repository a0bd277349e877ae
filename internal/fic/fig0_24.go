/*
DESCRIPTION
  fig0_24.go implements FIG 0/24, other-ensemble service information:
  announces that a service carried locally, or only referenced, is also
  receivable via one or more other ensembles (spec.md §4.F; grounded on
  original_source/src/fig/FIG0_24.cpp's FIGtype0_24_audioservice/
  FIGtype0_24_dataservice layouts).

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package fic

import "github.com/ausocean/dabmux/internal/ensemble"

// FIG0_24 emits other-ensemble service cross-references.
type FIG0_24 struct {
	e           *ensemble.Ensemble
	initialised bool
	pos         int
}

// NewFIG0_24 returns a FIG 0/24 generator.
func NewFIG0_24(e *ensemble.Ensemble) *FIG0_24 { return &FIG0_24{e: e} }

func (f *FIG0_24) FIGType() int      { return 0 }
func (f *FIG0_24) FIGExtension() int { return 24 }
func (f *FIG0_24) Rate() Rate        { return RateE }

func (f *FIG0_24) localService(sid uint32) *ensemble.Service {
	for _, s := range f.e.Services {
		if s.SId == sid {
			return s
		}
	}
	return nil
}

func (f *FIG0_24) Fill(buf []byte, maxLen int) (int, bool) {
	if !f.initialised {
		f.initialised = true
		f.pos = 0
	}

	remaining := maxLen
	written := 0
	var fig0Start int
	fig0Open := false
	length := 0
	lastOE := false

	for f.pos < len(f.e.OtherService) {
		os := f.e.OtherService[f.pos]

		local := f.localService(os.SId)
		oe := local == nil
		isProgramme := local == nil || local.SId <= 0xFFFF

		sidWidth := 2
		if !isProgramme {
			sidWidth = 4
		}
		entrySize := sidWidth + 1 + len(os.EIds)*2

		if fig0Open && lastOE != oe {
			fig0Open = false
		}

		if !fig0Open {
			if remaining < 2+entrySize {
				return written, false
			}
			cn := f.pos != 0
			writeFIG0Header(buf[written:], 1, 24, !isProgramme, oe, cn)
			fig0Start = written
			written += 2
			remaining -= 2
			fig0Open = true
			length = 1
			lastOE = oe
		} else if remaining < entrySize {
			return written, false
		}

		e := buf[written : written+entrySize]
		idx := 0
		if isProgramme {
			e[0] = byte(os.SId >> 8)
			e[1] = byte(os.SId)
			idx = 2
		} else {
			e[0] = byte(os.SId >> 24)
			e[1] = byte(os.SId >> 16)
			e[2] = byte(os.SId >> 8)
			e[3] = byte(os.SId)
			idx = 4
		}
		// byte: Length(4)<<4|CAId(3)<<1|rfa(1).
		e[idx] = byte(len(os.EIds)&0x0F)<<4
		idx++
		for _, eid := range os.EIds {
			e[idx] = byte(eid >> 8)
			e[idx+1] = byte(eid)
			idx += 2
		}

		written += entrySize
		remaining -= entrySize
		length += entrySize
		setFIG0Length(buf[fig0Start:], length)

		f.pos++
	}

	complete := f.pos >= len(f.e.OtherService)
	if complete {
		f.initialised = false
	}
	return written, complete
}
