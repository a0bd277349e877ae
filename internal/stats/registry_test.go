/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package stats

import (
	"math"
	"testing"
	"time"
)

func TestRegisterAndValues(t *testing.T) {
	r := New()
	r.Register("input-a")
	now := time.Now()

	r.RecordFill("input-a", now, 10)
	r.RecordFill("input-a", now.Add(time.Second), 4)
	r.RecordAudioPeak("input-a", now, -20)
	r.RecordUnderrun("input-a")
	r.RecordOverrun("input-a")

	vals := r.Values(now.Add(2 * time.Second))
	if len(vals) != 1 {
		t.Fatalf("len(Values) = %d, want 1", len(vals))
	}
	v := vals[0]
	if v.UID != "input-a" {
		t.Errorf("UID = %q", v.UID)
	}
	if v.MinFill != 4 || v.MaxFill != 10 {
		t.Errorf("MinFill/MaxFill = %d/%d, want 4/10", v.MinFill, v.MaxFill)
	}
	if v.Underruns != 1 || v.Overruns != 1 {
		t.Errorf("Underruns/Overruns = %d/%d, want 1/1", v.Underruns, v.Overruns)
	}
	if v.PeakShortDBFS != -20 {
		t.Errorf("PeakShortDBFS = %v, want -20", v.PeakShortDBFS)
	}
}

func TestValuesOnUnknownUIDIsNoop(t *testing.T) {
	r := New()
	// No Register call: every recorder must silently ignore an unknown uid.
	r.RecordFill("ghost", time.Now(), 5)
	r.RecordAudioPeak("ghost", time.Now(), -10)
	r.RecordUnderrun("ghost")
	r.RecordOverrun("ghost")
	if got := r.Values(time.Now()); len(got) != 0 {
		t.Fatalf("Values = %v, want empty", got)
	}
}

func TestInfoPreservesRegistrationOrder(t *testing.T) {
	r := New()
	r.Register("b")
	r.Register("a")
	r.Register("c")
	got := r.Info()
	want := []string{"b", "a", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Info() = %v, want %v", got, want)
		}
	}
}

func TestConfigAndControl(t *testing.T) {
	r := New()
	r.Register("input-a")

	cs := r.Config()
	if len(cs.UIDs) != 1 || cs.UIDs[0] != "input-a" {
		t.Fatalf("Config().UIDs = %v", cs.UIDs)
	}
	if !cs.Inputs["input-a"].Enabled {
		t.Errorf("default InputControl.Enabled = false, want true")
	}

	ok := r.SetInputControl("input-a", InputControl{Enabled: false, BufferFrames: 500, KeyFile: "/etc/dabmux/key.pem"})
	if !ok {
		t.Fatal("SetInputControl on registered uid returned false")
	}
	if ok := r.SetInputControl("ghost", InputControl{}); ok {
		t.Fatal("SetInputControl on unknown uid returned true")
	}

	cs = r.Config()
	if cs.Inputs["input-a"].Enabled {
		t.Errorf("InputControl.Enabled not updated")
	}
	if cs.Inputs["input-a"].BufferFrames != 500 {
		t.Errorf("BufferFrames = %d, want 500", cs.Inputs["input-a"].BufferFrames)
	}
}

func TestMuxControl(t *testing.T) {
	r := New()
	r.SetFrames(1234)
	r.SetTISTOffset(-7)

	if got := r.Frames(); got != 1234 {
		t.Errorf("Frames() = %d, want 1234", got)
	}
	if got := r.TISTOffset(); got != -7 {
		t.Errorf("TISTOffset() = %d, want -7", got)
	}
	if got := r.Config().Mux; got.Frames != 1234 || got.TISTOffset != -7 {
		t.Errorf("Config().Mux = %+v", got)
	}
}

func TestPeakWindowNoSamplesReturnsNegativeInfinity(t *testing.T) {
	var w peakWindow
	short, long := w.ShortLong(time.Now())
	if !math.IsInf(short, -1) || !math.IsInf(long, -1) {
		t.Fatalf("ShortLong with no samples = %v/%v, want -Inf/-Inf", short, long)
	}
}

func TestFillWindowEvictsOldSamples(t *testing.T) {
	var w fillWindow
	now := time.Now()
	w.Add(now, 100)
	min, max := w.MinMax(now.Add(fillWindowSpan + time.Second))
	if min != 0 || max != 0 {
		t.Fatalf("MinMax after eviction = %d/%d, want 0/0", min, max)
	}
}
