/*
DESCRIPTION
  fig2.go implements FIG 2/0 and 2/1: extended UTF-8 labels with a
  text-control byte pair, for the ensemble and for services that carry
  an ExtendedLabel (spec.md §4.F). The wire-exact FIG2 segmentation
  format was not present in the retained source set; grounded on the
  field set DabLabel::setFIG2Label/setFIG2CharacterField/
  setFIG2TextControl expose in original_source/src/ConfigParser.cpp
  (bidi flag, base direction, contextual/combining flags, character
  field, label text). This build emits each extended label as a single
  segment and does not model the multi-segment continuation flag.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package fic

import "github.com/ausocean/dabmux/internal/ensemble"

// extendedLabelSource names one entity carrying an optional extended label.
type extendedLabelSource struct {
	sid   uint32 // 0 for the ensemble entry.
	eid   uint16
	pd    bool
	label *ensemble.ExtendedLabel
}

// FIG2 emits extended labels for the ensemble and services.
type FIG2 struct {
	e     *ensemble.Ensemble
	order []extendedLabelSource
	pos   int
}

// NewFIG2 returns a FIG 2/x extended-label generator.
func NewFIG2(e *ensemble.Ensemble) *FIG2 { return &FIG2{e: e} }

func (f *FIG2) FIGType() int      { return 2 }
func (f *FIG2) FIGExtension() int { return 0 }
func (f *FIG2) Rate() Rate        { return RateD }

func (f *FIG2) build() {
	f.order = f.order[:0]
	if f.e.ExtendedLabel != nil {
		f.order = append(f.order, extendedLabelSource{eid: f.e.EId, label: f.e.ExtendedLabel})
	}
	for _, svc := range f.e.Services {
		if svc.ExtendedLabel != nil {
			f.order = append(f.order, extendedLabelSource{
				sid:   svc.SId,
				pd:    svc.SId > 0xFFFF,
				label: svc.ExtendedLabel,
			})
		}
	}
}

func textControlByte(l *ensemble.ExtendedLabel) byte {
	var b byte
	for _, seg := range l.Segments {
		if seg.Attribute&0x01 != 0 {
			b |= 0x08 // bidi_flag.
		}
		if seg.Attribute&0x02 != 0 {
			b |= 0x04 // base direction RTL.
		}
		if seg.Attribute&0x04 != 0 {
			b |= 0x02 // contextual.
		}
		if seg.Attribute&0x08 != 0 {
			b |= 0x01 // combining.
		}
	}
	return b
}

func (f *FIG2) Fill(buf []byte, maxLen int) (int, bool) {
	if f.order == nil {
		f.build()
	}
	if f.pos >= len(f.order) {
		f.pos = 0
		f.build()
		if len(f.order) == 0 {
			return 0, true
		}
	}

	src := f.order[f.pos]
	text := []byte(src.label.Text)
	if len(text) > 16 {
		text = text[:16]
	}

	sidWidth := 2
	if src.sid != 0 {
		if src.pd {
			sidWidth = 4
		} else {
			sidWidth = 2
		}
	}
	// Identifier(sidWidth) + TC(1) + Charset(1) + text.
	body := sidWidth + 1 + 1 + len(text)
	size := 2 + body
	if maxLen < size {
		return 0, false
	}

	ext := byte(0)
	if src.sid != 0 {
		ext = 1
	}
	writeFIG2Header(buf, 1+body, ext, src.pd)
	idx := 2
	if src.sid == 0 {
		buf[idx] = byte(src.eid >> 8)
		buf[idx+1] = byte(src.eid)
		idx += 2
	} else if src.pd {
		buf[idx] = byte(src.sid >> 24)
		buf[idx+1] = byte(src.sid >> 16)
		buf[idx+2] = byte(src.sid >> 8)
		buf[idx+3] = byte(src.sid)
		idx += 4
	} else {
		buf[idx] = byte(src.sid >> 8)
		buf[idx+1] = byte(src.sid)
		idx += 2
	}

	buf[idx] = textControlByte(src.label)
	idx++
	buf[idx] = src.label.Charset
	idx++
	idx += copy(buf[idx:], text)

	f.pos++
	complete := f.pos >= len(f.order)
	return idx, complete
}
