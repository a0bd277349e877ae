/*
DESCRIPTION
  fig0_10.go implements FIG 0/10, the long-form date and time field:
  Modified Julian Date plus hours/minutes/seconds/milliseconds (spec.md
  §4.F; grounded on original_source/src/fig/FIG0_10.cpp's
  FIGtype0_10_LongForm bit layout).

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package fic

import (
	"time"

	"github.com/ausocean/dabmux/internal/tai"
)

// FIG0_10 emits the current date/time in long form, with seconds and
// milliseconds resolution (UTC flag set).
type FIG0_10 struct {
	now func() time.Time
}

// NewFIG0_10 returns a FIG 0/10 generator sourcing the current time from
// now.
func NewFIG0_10(now func() time.Time) *FIG0_10 { return &FIG0_10{now: now} }

func (f *FIG0_10) FIGType() int      { return 0 }
func (f *FIG0_10) FIGExtension() int { return 10 }
func (f *FIG0_10) Rate() Rate        { return RateB }

func (f *FIG0_10) Fill(buf []byte, maxLen int) (int, bool) {
	const size = 2 + 4
	if maxLen < size {
		return 0, false
	}
	writeFIG0Header(buf, 5, 10, false, false, false)

	t := f.now().UTC()
	mjd := uint32(tai.MJD(t))
	hour := t.Hour()
	min := t.Minute()
	sec := t.Second()
	ms := t.Nanosecond() / 1_000_000

	buf[2] = byte(mjd>>10) & 0x7F // MJD_high(7), RFU=0.
	buf[3] = byte(mjd >> 2)       // MJD_med(8).

	const utc = 1    // Long form always carries seconds/ms.
	const confInd = 0 // No confidence flag.
	const lsi = 0
	buf[4] = byte(hour>>2)&0x07<<5 | utc<<4 | confInd<<3 | lsi<<2 | byte(mjd)&0x03

	buf[5] = byte(min)&0x3F | byte(hour&0x03)<<6

	buf[6] = byte(ms>>8)&0x03<<6 | byte(sec)&0x3F
	buf[7] = byte(ms)

	return size, true
}
