/*
DESCRIPTION
  fig0_7.go implements FIG 0/7, the configuration counter and service
  count (spec.md §4.F; grounded on
  original_source/src/fig/FIG0_7.cpp's FIGtype0_7 layout).

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package fic

import "github.com/ausocean/dabmux/internal/ensemble"

// FIG0_7 emits the ensemble's reconfiguration counter and service count.
type FIG0_7 struct {
	e *ensemble.Ensemble
}

// NewFIG0_7 returns a FIG 0/7 generator.
func NewFIG0_7(e *ensemble.Ensemble) *FIG0_7 { return &FIG0_7{e: e} }

func (f *FIG0_7) FIGType() int      { return 0 }
func (f *FIG0_7) FIGExtension() int { return 7 }
func (f *FIG0_7) Rate() Rate        { return RateFIG0_0 }

func (f *FIG0_7) Fill(buf []byte, maxLen int) (int, bool) {
	const size = 2 + 2
	if maxLen < size {
		return 0, false
	}
	writeFIG0Header(buf, 3, 7, false, false, false)

	counter := ensemble.ReconfigCounterValue(f.e)
	svcCount := len(f.e.Services)

	// byte0: ReconfigCounter[9:8](2)<<6 | ServiceCount(6); byte1: ReconfigCounter[7:0].
	buf[2] = byte(counter>>8)&0x03<<6 | byte(svcCount)&0x3F
	buf[3] = byte(counter)

	return size, true
}
