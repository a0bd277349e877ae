/*
DESCRIPTION
  fig0_5.go implements FIG 0/5, service component language: one 2-byte
  entry (sub-channel id + language code) per component whose service has
  a non-zero language set (spec.md §4.F; grounded on
  original_source/src/fig/FIG0_5.cpp's FIGtype0_5_short layout).

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package fic

import "github.com/ausocean/dabmux/internal/ensemble"

// FIG0_5 emits per-component language entries.
type FIG0_5 struct {
	e           *ensemble.Ensemble
	initialised bool
	order       []*ensemble.Component
	pos         int
}

// NewFIG0_5 returns a FIG 0/5 generator.
func NewFIG0_5(e *ensemble.Ensemble) *FIG0_5 { return &FIG0_5{e: e} }

func (f *FIG0_5) FIGType() int      { return 0 }
func (f *FIG0_5) FIGExtension() int { return 5 }
func (f *FIG0_5) Rate() Rate        { return RateB }

func (f *FIG0_5) serviceByUID(uid string) *ensemble.Service {
	for _, s := range f.e.Services {
		if s.UID == uid {
			return s
		}
	}
	return nil
}

func (f *FIG0_5) subChannelByUID(uid string) *ensemble.SubChannel {
	for _, sc := range f.e.SubChannels {
		if sc.UID == uid {
			return sc
		}
	}
	return nil
}

func (f *FIG0_5) Fill(buf []byte, maxLen int) (int, bool) {
	if !f.initialised {
		f.initialised = true
		f.order = append(f.order[:0], f.e.Components...)
		f.pos = 0
	}

	if maxLen < 4 {
		return 0, false
	}

	remaining := maxLen
	written := 0
	haveHeader := false
	length := 0

	for f.pos < len(f.order) {
		c := f.order[f.pos]
		svc := f.serviceByUID(c.ServiceUID)
		sc := f.subChannelByUID(c.SubChanUID)
		if svc == nil || sc == nil || svc.Language == 0 {
			f.pos++
			continue
		}

		if !haveHeader {
			if remaining < 2+2 {
				break
			}
			writeFIG0Header(buf, 1, 5, false, false, false)
			written += 2
			remaining -= 2
			haveHeader = true
			length = 1
		} else if remaining < 2 {
			break
		}

		e := buf[written : written+2]
		e[0] = sc.ID & 0x3F << 2 // LS=0, rfu=0.
		e[1] = svc.Language

		written += 2
		remaining -= 2
		length += 2
		setFIG0Length(buf, length)

		f.pos++
	}

	complete := f.pos >= len(f.order)
	if complete {
		f.initialised = false
	}
	return written, complete
}
