/*
DESCRIPTION
  fig0_9.go implements FIG 0/9, country/LTO/international-table
  information for the ensemble only; no per-service ECC subfield is
  written (spec.md §4.F; grounded on original_source/src/fig/FIG0_9.cpp's
  FIGtype0_9 layout).

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package fic

import "github.com/ausocean/dabmux/internal/ensemble"

// FIG0_9 emits the ensemble LTO/ECC/international-table block.
type FIG0_9 struct {
	e *ensemble.Ensemble
}

// NewFIG0_9 returns a FIG 0/9 generator.
func NewFIG0_9(e *ensemble.Ensemble) *FIG0_9 { return &FIG0_9{e: e} }

func (f *FIG0_9) FIGType() int      { return 0 }
func (f *FIG0_9) FIGExtension() int { return 9 }
func (f *FIG0_9) Rate() Rate        { return RateB }

func (f *FIG0_9) Fill(buf []byte, maxLen int) (int, bool) {
	const size = 2 + 3
	if maxLen < size {
		return 0, false
	}
	writeFIG0Header(buf, 4, 9, false, false, false)

	lto := f.e.LTO
	if lto == ensemble.LTOAuto {
		lto = 0
	}
	// byte0: ensembleLto(6, LSB)|rfa1(1)<<6|ext(1)<<7.
	buf[2] = byte(lto) & 0x3F
	buf[3] = f.e.ECC
	buf[4] = f.e.InternationalTab

	return size, true
}
