/*
DESCRIPTION
  fic_test.go builds a small fixture ensemble shared by this package's
  tests and exercises the carousel's scheduling and FIB packing.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package fic

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/ausocean/dabmux/internal/crc16"
	"github.com/ausocean/dabmux/internal/ensemble"
)

func fixtureEnsemble() *ensemble.Ensemble {
	return &ensemble.Ensemble{
		ECC:           0xE1,
		EId:           0x4001,
		LTO:           2,
		Mode:          ensemble.ModeI,
		LongLabel:     "Test Multiplex",
		ShortLabelSet: 0x8421,
		SubChannels: []*ensemble.SubChannel{
			{UID: "sub0", ID: 0, Type: ensemble.DabAudio, BitrateKb: 128, Start: 0, Size: 32,
				Protect: ensemble.Protection{UEP: true, UEPTableIndex: 10}},
			{UID: "sub1", ID: 1, Type: ensemble.DataDmb, BitrateKb: 64, Start: 32, Size: 16,
				Protect: ensemble.Protection{EEPProfile: ensemble.EEPProfileA, EEPLevel: 3}},
		},
		Services: []*ensemble.Service{
			{UID: "svc0", SId: 0x4001, PTy: 10, Language: 0x09, LongLabel: "Test Radio", ShortLabelSet: 0x0003},
			{UID: "svc1", SId: 0x00504001, PTy: 0, LongLabel: "Test Data"},
		},
		Components: []*ensemble.Component{
			{UID: "c0", ServiceUID: "svc0", SubChanUID: "sub0", SCIdS: 0, ComponentType: 0x3F},
			{UID: "c1", ServiceUID: "svc1", SubChanUID: "sub1", SCIdS: 0, ComponentType: 0x00},
		},
	}
}

func TestCarouselProducesCorrectFrameLength(t *testing.T) {
	e := fixtureEnsemble()
	c := NewEnsembleCarousel(e, func() int { return 0 }, time.Now)

	buf := c.Generate(nil)
	want := e.Mode.FIBCount() * fibLen
	if len(buf) != want {
		t.Fatalf("frame length = %d, want %d", len(buf), want)
	}
}

func TestCarouselFIBsHaveValidCRC(t *testing.T) {
	e := fixtureEnsemble()
	c := NewEnsembleCarousel(e, func() int { return 0 }, time.Now)

	buf := c.Generate(nil)
	fibs := e.Mode.FIBCount()
	for i := 0; i < fibs; i++ {
		start := i * fibLen
		fib := buf[start : start+fibDataLen]
		want := crc16.Checksum(fib)
		got := binary.BigEndian.Uint16(buf[start+fibDataLen : start+fibLen])
		if got != want {
			t.Errorf("FIB %d CRC = %04x, want %04x", i, got, want)
		}
	}
}

func TestCarouselFIG00AlwaysLeadsModeI(t *testing.T) {
	e := fixtureEnsemble()
	e.Mode = ensemble.ModeI
	c := NewEnsembleCarousel(e, func() int { return 0 }, time.Now)

	buf := c.Generate(nil)
	// First FIB's first two bytes must be the FIG 0/0 header: type=0,
	// extension=0, and PD/OE/CN clear.
	if buf[0]&0x1F == 0 {
		t.Fatalf("expected FIG 0/0 to have a non-zero length in the first FIB")
	}
	extension := buf[1] & 0x1F
	if extension != 0 {
		t.Fatalf("first FIG in first FIB has extension %d, want 0 (FIG 0/0)", extension)
	}
}

func TestCarouselAdvancesClockByFrameMs(t *testing.T) {
	e := fixtureEnsemble()
	c := NewEnsembleCarousel(e, func() int { return 0 }, time.Now)
	c.Generate(nil)
	if c.nowMs != frameMs {
		t.Fatalf("nowMs = %d, want %d", c.nowMs, frameMs)
	}
	c.Generate(nil)
	if c.nowMs != 2*frameMs {
		t.Fatalf("nowMs = %d, want %d", c.nowMs, 2*frameMs)
	}
}

func TestRateIntervalsMatchSpecTable(t *testing.T) {
	cases := []struct {
		r    Rate
		want int
	}{
		{RateFIG0_0, 96},
		{RateA, 240},
		{RateAB, 480},
		{RateB, 960},
		{RateC, 24000},
		{RateD, 30000},
		{RateE, 120000},
	}
	for _, c := range cases {
		if got := c.r.IntervalMs(); got != c.want {
			t.Errorf("Rate(%d).IntervalMs() = %d, want %d", c.r, got, c.want)
		}
	}
}
