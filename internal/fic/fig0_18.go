/*
DESCRIPTION
  fig0_18.go implements FIG 0/18, announcement support: SId+ASu bitmap
  plus the list of announcement cluster ids a service participates in
  (spec.md §4.F; grounded on original_source/src/fig/FIG0_18.cpp's
  FIGtype0_18 layout).

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package fic

import "github.com/ausocean/dabmux/internal/ensemble"

// FIG0_18 emits per-service announcement support entries.
type FIG0_18 struct {
	e           *ensemble.Ensemble
	initialised bool
	order       []*ensemble.Service
	pos         int
}

// NewFIG0_18 returns a FIG 0/18 generator.
func NewFIG0_18(e *ensemble.Ensemble) *FIG0_18 { return &FIG0_18{e: e} }

func (f *FIG0_18) FIGType() int      { return 0 }
func (f *FIG0_18) FIGExtension() int { return 18 }
func (f *FIG0_18) Rate() Rate        { return RateB }

func (f *FIG0_18) clusterID(uid string) byte {
	for _, c := range f.e.Clusters {
		if c.UID == uid {
			return c.ClusterID
		}
	}
	return 0
}

func (f *FIG0_18) Fill(buf []byte, maxLen int) (int, bool) {
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
		if svc.ASu == 0 {
			f.pos++
			continue
		}

		n := len(svc.Clusters)
		entrySize := 5 + n
		if !haveHeader {
			if remaining < 2+entrySize {
				break
			}
			writeFIG0Header(buf, 1, 18, false, false, false)
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
		e[2] = byte(svc.ASu >> 8)
		e[3] = byte(svc.ASu)
		e[4] = byte(n) & 0x1F
		for i, uid := range svc.Clusters {
			e[5+i] = f.clusterID(uid)
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
