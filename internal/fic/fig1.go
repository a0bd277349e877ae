/*
DESCRIPTION
  fig1.go implements FIG 1/0, 1/1 and 1/5: 16-character labels plus an
  16-bit short-label character mask for the ensemble and for each
  service (spec.md §4.F). FIG1.cpp itself was not present in the
  retained source set; the two-byte header follows the FIG0-derived
  convention already used by writeFIG1Header, and the label body
  layout (fixed 16-byte label, 16-bit short-label character mask)
  follows the field names referenced by DabLabel::setLabel in
  original_source/src/ConfigParser.cpp. Primary service components
  (SCIdS==0) carry no label of their own per internal/ensemble's
  validation rule, so FIG 1/4 (component label) has no populated
  source in this build and is not emitted.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package fic

import "github.com/ausocean/dabmux/internal/ensemble"

const labelLen = 16

// putLabel writes a fixed 16-byte, space-padded label into dst.
func putLabel(dst []byte, s string) {
	n := copy(dst, s)
	for ; n < labelLen; n++ {
		dst[n] = ' '
	}
}

// FIG1 emits ensemble and service labels.
type FIG1 struct {
	e            *ensemble.Ensemble
	ensembleSent bool
	order        []*ensemble.Service
	pos          int
}

// NewFIG1 returns a FIG 1/x label generator.
func NewFIG1(e *ensemble.Ensemble) *FIG1 { return &FIG1{e: e} }

func (f *FIG1) FIGType() int      { return 1 }
func (f *FIG1) FIGExtension() int { return 0 }
func (f *FIG1) Rate() Rate        { return RateD }

func (f *FIG1) Fill(buf []byte, maxLen int) (int, bool) {
	if f.order == nil && len(f.e.Services) > 0 {
		f.order = append(f.order[:0], f.e.Services...)
	}

	written := 0

	if !f.ensembleSent {
		const size = 2 + 2 + labelLen + 2
		if maxLen < size {
			return 0, false
		}
		writeFIG1Header(buf, 1+2+labelLen+2, 0, 0)
		buf[2] = byte(f.e.EId >> 8)
		buf[3] = byte(f.e.EId)
		putLabel(buf[4:4+labelLen], f.e.LongLabel)
		buf[4+labelLen] = byte(f.e.ShortLabelSet >> 8)
		buf[5+labelLen] = byte(f.e.ShortLabelSet)
		f.ensembleSent = true
		return size, len(f.order) == 0
	}

	if f.pos >= len(f.order) {
		f.pos = 0
		f.ensembleSent = false
		return 0, true
	}

	svc := f.order[f.pos]
	pd := svc.SId > 0xFFFF
	sidWidth := 2
	ext := byte(1)
	if pd {
		sidWidth = 4
		ext = 5
	}
	size := 2 + sidWidth + labelLen + 2
	if maxLen < size {
		return 0, false
	}
	writeFIG1Header(buf, 1+sidWidth+labelLen+2, ext, 0)
	idx := 2
	if pd {
		buf[idx] = byte(svc.SId >> 24)
		buf[idx+1] = byte(svc.SId >> 16)
		buf[idx+2] = byte(svc.SId >> 8)
		buf[idx+3] = byte(svc.SId)
	} else {
		buf[idx] = byte(svc.SId >> 8)
		buf[idx+1] = byte(svc.SId)
	}
	idx += sidWidth
	putLabel(buf[idx:idx+labelLen], svc.LongLabel)
	idx += labelLen
	buf[idx] = byte(svc.ShortLabelSet >> 8)
	buf[idx+1] = byte(svc.ShortLabelSet)

	f.pos++
	written = size
	complete := f.pos >= len(f.order)
	if complete {
		f.pos = 0
	}
	return written, complete
}
