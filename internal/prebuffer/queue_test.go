/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package prebuffer

import (
	"bytes"
	"testing"
	"time"
)

func TestQueuePrebuffersBeforeRelease(t *testing.T) {
	q := New(2, 3, 10, 1, nil)

	// Below threshold: Pop must return zeroed frames.
	q.Push([]byte{1, 2, 3})
	got := q.Pop(3)
	if !bytes.Equal(got, []byte{0, 0, 0}) {
		t.Fatalf("Pop before threshold = %v, want zeroed", got)
	}

	q.Push([]byte{4, 5, 6})
	q.Push([]byte{7, 8, 9})

	// Now at threshold (3 frames buffered): Pop should start releasing.
	got = q.Pop(3)
	if !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Fatalf("Pop at threshold = %v, want {1,2,3}", got)
	}
}

func TestQueueDropsWholeSuperframeOnOverflow(t *testing.T) {
	const superframeLen = 5
	q := New(1, 1, 10, superframeLen, nil)

	for i := 0; i < 11; i++ {
		q.Push([]byte{byte(i)})
	}

	_, overruns := q.Stats()
	if overruns == 0 {
		t.Fatalf("expected an overrun to be recorded")
	}
	if q.buffered > q.max {
		t.Fatalf("buffered = %d, want at most max (%d) after overflow drop", q.buffered, q.max)
	}
}

func TestQueueUnderrunRecordedOnEmptyPop(t *testing.T) {
	q := New(1, 1, 10, 1, nil)
	q.Pop(4)
	underruns, _ := q.Stats()
	if underruns != 1 {
		t.Fatalf("underruns = %d, want 1", underruns)
	}
}

func TestQueueResetReturnsToPrebuffering(t *testing.T) {
	q := New(1, 1, 10, 1, nil)
	q.Push([]byte{1})
	q.Pop(1)
	q.Reset()
	got := q.Pop(1)
	if !bytes.Equal(got, []byte{0}) {
		t.Fatalf("Pop after Reset = %v, want zeroed", got)
	}
}

func TestFSMTransitionsToNoDataWhenNeverSeenData(t *testing.T) {
	f := NewFSM()
	if f.State() != NoData {
		t.Fatalf("fresh FSM state = %v, want NoData", f.State())
	}
}

func TestFSMBecomesStreamingAfterData(t *testing.T) {
	f := NewFSM()
	f.RecordFill(5)
	if f.State() != Streaming {
		t.Fatalf("state after fill = %v, want Streaming", f.State())
	}
}

func TestFSMUnstableAfterRepeatedGlitches(t *testing.T) {
	f := NewFSM()
	f.RecordFill(5)
	for i := 0; i < glitchesForUnstable; i++ {
		f.RecordGlitch()
	}
	if f.State() != Unstable {
		t.Fatalf("state after %d glitches = %v, want Unstable", glitchesForUnstable, f.State())
	}
}

func TestFSMSilenceAfterSustainedLowPeaks(t *testing.T) {
	f := NewFSM()
	f.RecordFill(5)
	for i := 0; i < silenceWindowsReq; i++ {
		f.RecordAudioPeak(-60)
	}
	if f.State() != Silence {
		t.Fatalf("state after %d silent windows = %v, want Silence", silenceWindowsReq, f.State())
	}
}

func TestTimestampQueueHoldsFutureFrame(t *testing.T) {
	q := NewTimestampQueue(0, nil)
	base := timeNow()
	q.Push(base.Add(time.Second), []byte{9})
	got := q.Pop(base, 1)
	if !bytes.Equal(got, []byte{0}) {
		t.Fatalf("Pop before release time = %v, want zeroed", got)
	}
	got = q.Pop(base.Add(time.Second), 1)
	if !bytes.Equal(got, []byte{9}) {
		t.Fatalf("Pop at release time = %v, want {9}", got)
	}
}
