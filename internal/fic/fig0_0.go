/*
DESCRIPTION
  fig0_0.go implements FIG 0/0, the ensemble header: EId, a change-event
  flag (unused — this core does not support scheduled reconfiguration so
  it is always emitted as 0), the alarm flag and the current CIF count
  (spec.md §4.F "Ensemble header, CIF count, alarm flag"). The exact
  byte layout was not present in the retrieved original source (only
  FIG 0/1 onward were kept), so it follows the same header convention
  confirmed by those files, with EId/Change/Al/CIFcnt following the
  well-known EN 300 401 clause 5.2.2.1 field order.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package fic

import "github.com/ausocean/dabmux/internal/ensemble"

// FIG0_0 emits the ensemble header once per repetition period.
type FIG0_0 struct {
	e       *ensemble.Ensemble
	cifCnt  func() int // 0..4095, supplied by the main loop.
}

// NewFIG0_0 returns a FIG 0/0 generator. cifCnt reports the current CIF
// count within the current 5.12s logical frame.
func NewFIG0_0(e *ensemble.Ensemble, cifCnt func() int) *FIG0_0 {
	return &FIG0_0{e: e, cifCnt: cifCnt}
}

func (f *FIG0_0) FIGType() int      { return 0 }
func (f *FIG0_0) FIGExtension() int { return 0 }
func (f *FIG0_0) Rate() Rate        { return RateFIG0_0 }

// Fill always emits in one shot: the ensemble header never needs more
// than 6 bytes.
func (f *FIG0_0) Fill(buf []byte, maxLen int) (int, bool) {
	const size = 2 + 2 + 2
	if maxLen < size {
		return 0, false
	}

	writeFIG0Header(buf, 5, 0, false, false, false)

	buf[2] = byte(f.e.EId >> 8)
	buf[3] = byte(f.e.EId)

	cif := f.cifCnt()
	cifHigh := byte((cif >> 8) & 0x1F)
	al := boolBit(f.e.Alarm)
	buf[4] = al<<5 | cifHigh // Change=0 (no scheduled reconfiguration).
	buf[5] = byte(cif)

	return size, true
}
