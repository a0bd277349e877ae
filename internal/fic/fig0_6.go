/*
DESCRIPTION
  fig0_6.go implements FIG 0/6, service linkage: one linkage-set entry
  per cluster, followed by a sub-list of ids per link type (DAB, FM/RDS,
  DRM, AMSS) present in that set (spec.md §4.F; grounded on
  original_source/src/fig/FIG0_6.cpp's FIGtype0_6/FIGtype0_6_header
  layouts).

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package fic

import "github.com/ausocean/dabmux/internal/ensemble"

// linkType identifies the kind of id carried in a FIG 0/6 sub-list, per
// IdListQualifier (IdLQ).
type linkType int

const (
	linkDAB linkType = 0
	linkFM  linkType = 1
	linkDRM linkType = 3
)

// FIG0_6 emits service-linkage information, one entry per linkage set.
type FIG0_6 struct {
	e           *ensemble.Ensemble
	initialised bool
	order       []*ensemble.LinkageSet
	pos         int
}

// NewFIG0_6 returns a FIG 0/6 generator.
func NewFIG0_6(e *ensemble.Ensemble) *FIG0_6 { return &FIG0_6{e: e} }

func (f *FIG0_6) FIGType() int      { return 0 }
func (f *FIG0_6) FIGExtension() int { return 6 }
func (f *FIG0_6) Rate() Rate        { return RateE }

// idsFor returns the ids in ls belonging to lt, in declaration order. The
// DRM group also carries AMSS ids: both share IdLQ=3 on the wire.
func idsFor(ls *ensemble.LinkageSet, lt linkType) []uint32 {
	var ids []uint32
	for _, l := range ls.Links {
		if ensemble.LinkType(lt) == l.Type || (lt == linkDRM && l.Type == ensemble.LinkAMSS) {
			ids = append(ids, l.ID)
		}
	}
	return ids
}

func (f *FIG0_6) Fill(buf []byte, maxLen int) (int, bool) {
	if !f.initialised {
		f.initialised = true
		f.order = append(f.order[:0], f.e.LinkageSets...)
		f.pos = 0
	}

	remaining := maxLen
	written := 0
	haveHeader := false
	length := 0

	for f.pos < len(f.order) {
		ls := f.order[f.pos]

		groups := [3]linkType{linkDAB, linkFM, linkDRM}
		widths := [3]int{2, 2, 4} // DAB/FM ids are 16 bits; DRM/AMSS ids 32 bits.
		entrySize := 2            // LSN(16)+flags byte pair.
		var lists [3][]uint32
		for i, lt := range groups {
			ids := idsFor(ls, lt)
			if len(ids) == 0 {
				continue
			}
			lists[i] = ids
			entrySize += 1 + widths[i]*len(ids) // header byte + ids.
		}

		if !haveHeader {
			if remaining < 2+entrySize {
				break
			}
			writeFIG0Header(buf, 1, 6, false, false, false)
			written += 2
			remaining -= 2
			haveHeader = true
			length = 1
		} else if remaining < entrySize {
			break
		}

		e := buf[written:]
		idx := 0
		// byte0: LSN_high(4)<<4|ILS(1)<<3|SH(1)<<2|LA(1)<<1|IdListFlag(1).
		// byte1: LSN_low(8).
		idListFlag := 1
		e[0] = byte(ls.LSN>>8)&0x0F<<4 | boolBit(ls.International)<<3 | boolBit(ls.Hard)<<2 | boolBit(ls.Active)<<1 | byte(idListFlag)
		e[1] = byte(ls.LSN)
		idx = 2

		for i, lt := range groups {
			ids := lists[i]
			if len(ids) == 0 {
				continue
			}
			// header: num_ids(4)<<4|rfa(1)<<3|IdLQ(2)<<1|rfu(1).
			e[idx] = byte(len(ids)&0x0F)<<4 | byte(lt)&0x03<<1
			idx++
			w := widths[i]
			for _, id := range ids {
				for b := w - 1; b >= 0; b-- {
					e[idx] = byte(id >> (8 * uint(b)))
					idx++
				}
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
