/*
DESCRIPTION
  wire.go assembles the full set of FIG generators for an ensemble and
  returns a ready-to-run Carousel (spec.md §4.F).

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

	"github.com/ausocean/dabmux/internal/ensemble"
)

// NewEnsembleCarousel builds the Carousel that carries every FIG
// generator this package implements for e. cifCnt returns the running
// CIF count (FIG 0/0); now sources wall-clock time for FIG 0/10 and the
// FIG 0/19 announcement stabilization timer.
func NewEnsembleCarousel(e *ensemble.Ensemble, cifCnt func() int, now func() time.Time) *Carousel {
	fig00 := NewFIG0_0(e, cifCnt)

	others := []Generator{
		NewFIG0_1(e, e.LongLabel),
		NewFIG0_2(e),
		NewFIG0_3(e),
		NewFIG0_5(e),
		NewFIG0_6(e),
		NewFIG0_7(e),
		NewFIG0_8(e),
		NewFIG0_9(e),
		NewFIG0_10(now),
		NewFIG0_13(e),
		NewFIG0_14(e),
		NewFIG0_17(e),
		NewFIG0_18(e),
		NewFIG0_19(e, now),
		NewFIG0_21(e),
		NewFIG0_24(e),
		NewFIG1(e),
		NewFIG2(e),
	}

	return NewCarousel(e.Mode, fig00, others)
}
