/*
DESCRIPTION
  fig0_13.go implements FIG 0/13, user application information: one
  service header (SId+SCIdS+app count) per component carrying user
  applications, followed by a 3-byte app descriptor (type+length+data)
  per declared UserApplication (spec.md §4.F; grounded on
  original_source/src/fig/FIG0_13.cpp's FIG0_13_shortAppInfo/
  FIG0_13_app layouts).

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package fic

import "github.com/ausocean/dabmux/internal/ensemble"

// FIG0_13 emits per-component user-application descriptor lists.
type FIG0_13 struct {
	e           *ensemble.Ensemble
	initialised bool
	order       []*ensemble.Component
	pos         int
}

// NewFIG0_13 returns a FIG 0/13 generator.
func NewFIG0_13(e *ensemble.Ensemble) *FIG0_13 { return &FIG0_13{e: e} }

func (f *FIG0_13) FIGType() int      { return 0 }
func (f *FIG0_13) FIGExtension() int { return 13 }
func (f *FIG0_13) Rate() Rate        { return RateB }

func (f *FIG0_13) serviceByUID(uid string) *ensemble.Service {
	for _, s := range f.e.Services {
		if s.UID == uid {
			return s
		}
	}
	return nil
}

func (f *FIG0_13) Fill(buf []byte, maxLen int) (int, bool) {
	if !f.initialised {
		f.initialised = true
		f.order = f.order[:0]
		for _, c := range f.e.Components {
			if len(c.UserApps) > 0 {
				f.order = append(f.order, c)
			}
		}
		f.pos = 0
	}

	remaining := maxLen
	written := 0
	haveHeader := false
	length := 0

	for f.pos < len(f.order) {
		c := f.order[f.pos]
		svc := f.serviceByUID(c.ServiceUID)
		if svc == nil {
			f.pos++
			continue
		}
		pd := svc.SId > 0xFFFF
		sidWidth := 2
		if pd {
			sidWidth = 4
		}
		appsSize := 0
		for _, app := range c.UserApps {
			appsSize += 2 + len(app.AppData)
		}
		entrySize := sidWidth + 1 + appsSize

		if !haveHeader {
			if remaining < 2+entrySize {
				break
			}
			writeFIG0Header(buf, 1, 13, pd, false, false)
			written += 2
			remaining -= 2
			haveHeader = true
			length = 1
		} else if remaining < entrySize {
			break
		}

		e := buf[written:]
		idx := 0
		if pd {
			e[0], e[1], e[2], e[3] = byte(svc.SId>>24), byte(svc.SId>>16), byte(svc.SId>>8), byte(svc.SId)
			idx = 4
		} else {
			e[0], e[1] = byte(svc.SId>>8), byte(svc.SId)
			idx = 2
		}
		e[idx] = byte(len(c.UserApps)&0x0F)<<4 | c.SCIdS&0x0F
		idx++

		for _, app := range c.UserApps {
			e[idx] = byte(app.Type >> 3)
			e[idx+1] = byte(len(app.AppData)&0x1F)<<3 | byte(app.Type)&0x07
			idx += 2
			if len(app.AppData) > 0 {
				n := copy(e[idx:], app.AppData)
				idx += n
			}
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
