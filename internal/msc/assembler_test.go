/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package msc

import (
	"bytes"
	"testing"

	"github.com/ausocean/dabmux/internal/ensemble"
	"github.com/ausocean/dabmux/internal/xlog"
)

type fakeInput struct {
	data []byte
	fail bool
}

func (f *fakeInput) ReadFrame(buf []byte) (int, error) {
	if f.fail {
		return 0, errFake
	}
	return copy(buf, f.data), nil
}

func (f *fakeInput) ReadFrameAt(buf []byte, seconds uint32, utco byte, tsta uint32) (int, error) {
	return f.ReadFrame(buf)
}

var errFake = &fakeErr{}

type fakeErr struct{}

func (*fakeErr) Error() string { return "fake underrun" }

func TestAssembleWritesSubChannelsAtSequentialOffsets(t *testing.T) {
	sc1 := &ensemble.SubChannel{UID: "a", BitrateKb: 8, Size: 6}
	sc2 := &ensemble.SubChannel{UID: "b", BitrateKb: 8, Size: 6}

	sources := []SubChannelSource{
		{SubChannel: sc1, Input: &fakeInput{data: bytes.Repeat([]byte{0xAA}, 24)}},
		{SubChannel: sc2, Input: &fakeInput{data: bytes.Repeat([]byte{0xBB}, 24)}},
	}

	a := New(xlog.NewTestLogger(t), sources)
	dst := make([]byte, MSTSize(sources))
	n := a.Assemble(dst, 0, 0, 0)

	if n != 48 {
		t.Fatalf("Assemble wrote %d bytes, want 48", n)
	}
	if !bytes.Equal(dst[:24], bytes.Repeat([]byte{0xAA}, 24)) {
		t.Fatalf("first sub-channel slot wrong: %v", dst[:24])
	}
	if !bytes.Equal(dst[24:48], bytes.Repeat([]byte{0xBB}, 24)) {
		t.Fatalf("second sub-channel slot wrong: %v", dst[24:48])
	}
}

func TestAssembleZeroFillsOnUnderrun(t *testing.T) {
	sc := &ensemble.SubChannel{UID: "a", BitrateKb: 8, Size: 6}
	sources := []SubChannelSource{{SubChannel: sc, Input: &fakeInput{fail: true}}}

	a := New(xlog.NewTestLogger(t), sources)
	dst := bytes.Repeat([]byte{0xFF}, MSTSize(sources))
	a.Assemble(dst, 0, 0, 0)

	if !bytes.Equal(dst, make([]byte, len(dst))) {
		t.Fatalf("expected zero-filled slot on underrun, got %v", dst)
	}
	if a.Underruns() != 1 {
		t.Fatalf("Underruns() = %d, want 1", a.Underruns())
	}
}
