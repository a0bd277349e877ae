/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package ediinput

import (
	"bytes"
	"testing"
)

func TestFragmentPFReassemblesInOrder(t *testing.T) {
	af := bytes.Repeat([]byte{0xAB}, 50)
	frags, err := FragmentPF(1, af, 10, 0)
	if err != nil {
		t.Fatal(err)
	}

	r := NewReassembler(10)
	var got []byte
	for _, f := range frags {
		out, ok, err := r.PushFragment(f)
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			got = out
		}
	}
	if !bytes.Equal(got, af) {
		t.Fatalf("reassembled = %v, want %v", got, af)
	}
}

func TestFragmentPFReassemblesOutOfOrder(t *testing.T) {
	af := bytes.Repeat([]byte{0xCD}, 33)
	frags, err := FragmentPF(2, af, 7, 0)
	if err != nil {
		t.Fatal(err)
	}

	reordered := append([][]byte{}, frags...)
	reordered[0], reordered[len(reordered)-1] = reordered[len(reordered)-1], reordered[0]

	r := NewReassembler(10)
	var got []byte
	for _, f := range reordered {
		out, ok, err := r.PushFragment(f)
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			got = out
		}
	}
	if !bytes.Equal(got, af) {
		t.Fatalf("reassembled out-of-order = %v, want %v", got, af)
	}
}

func TestFragmentPFRecoversFromLossWithFEC(t *testing.T) {
	af := bytes.Repeat([]byte{0x11, 0x22, 0x33}, 20)
	frags, err := FragmentPF(3, af, 12, 2)
	if err != nil {
		t.Fatal(err)
	}

	// Drop one fragment; two parity fragments should allow recovery.
	var delivered [][]byte
	for i, f := range frags {
		if i == 1 {
			continue
		}
		delivered = append(delivered, f)
	}

	r := NewReassembler(10)
	var got []byte
	for _, f := range delivered {
		out, ok, err := r.PushFragment(f)
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			got = out
		}
	}
	if !bytes.Equal(got, af) {
		t.Fatalf("recovered AF = %v, want %v", got, af)
	}
	_, recovered, _ := r.Stats()
	if recovered == 0 {
		t.Fatalf("expected reassembler to record a recovery")
	}
}

func TestReassemblerEvictsExpiredPseq(t *testing.T) {
	af := bytes.Repeat([]byte{0x01}, 40)
	frags, err := FragmentPF(4, af, 10, 0)
	if err != nil {
		t.Fatal(err)
	}

	r := NewReassembler(2)
	// Push the first fragment, then enough unrelated fragments for other
	// pseqs to age it past maxDelay before it can complete.
	r.PushFragment(frags[0])
	fillerFrags, _ := FragmentPF(99, []byte{0, 0}, 10, 0)
	for i := 0; i < 3; i++ {
		r.PushFragment(fillerFrags[0])
	}

	_, _, lost := r.Stats()
	if lost == 0 {
		t.Fatalf("expected the stalled pseq to be evicted as lost")
	}
}
