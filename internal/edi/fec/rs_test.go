/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package fec

import (
	"bytes"
	"testing"
)

func TestGF256MulDivRoundTrip(t *testing.T) {
	for a := 1; a < 256; a++ {
		for b := 1; b < 256; b++ {
			p := mul(byte(a), byte(b))
			back := div(p, byte(b))
			if back != byte(a) {
				t.Fatalf("mul/div round trip failed: a=%d b=%d p=%d back=%d", a, b, p, back)
			}
		}
	}
}

func TestEncodeReconstructNoLoss(t *testing.T) {
	c, err := New(4, 2)
	if err != nil {
		t.Fatal(err)
	}
	shards := make([][]byte, 6)
	for i := 0; i < 4; i++ {
		shards[i] = []byte{byte(i), byte(i * 2), byte(i * 3)}
	}
	if err := c.Encode(shards); err != nil {
		t.Fatal(err)
	}
	present := []bool{true, true, true, true, true, true}
	if err := c.Reconstruct(shards, present); err != nil {
		t.Fatal(err)
	}
}

func TestReconstructRecoversErasedDataShards(t *testing.T) {
	c, err := New(4, 2)
	if err != nil {
		t.Fatal(err)
	}
	shards := make([][]byte, 6)
	originals := make([][]byte, 4)
	for i := 0; i < 4; i++ {
		shards[i] = []byte{byte(i + 1), byte(i*7 + 3), byte(255 - i)}
		originals[i] = append([]byte(nil), shards[i]...)
	}
	if err := c.Encode(shards); err != nil {
		t.Fatal(err)
	}

	// Erase two data shards; two parity shards remain to recover them.
	present := []bool{false, true, false, true, true, true}
	lost0, lost2 := shards[0], shards[2]
	shards[0], shards[2] = nil, nil

	if err := c.Reconstruct(shards, present); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(shards[0], originals[0]) {
		t.Fatalf("shard 0 not recovered: got %v want %v", shards[0], originals[0])
	}
	if !bytes.Equal(shards[2], originals[2]) {
		t.Fatalf("shard 2 not recovered: got %v want %v", shards[2], originals[2])
	}
	_ = lost0
	_ = lost2
}

func TestReconstructFailsWithTooFewShards(t *testing.T) {
	c, err := New(4, 2)
	if err != nil {
		t.Fatal(err)
	}
	shards := make([][]byte, 6)
	for i := 0; i < 4; i++ {
		shards[i] = []byte{byte(i)}
	}
	if err := c.Encode(shards); err != nil {
		t.Fatal(err)
	}
	present := []bool{true, true, false, false, false, true}
	if err := c.Reconstruct(shards, present); err == nil {
		t.Fatalf("expected error reconstructing with only 3 of 4 required shards")
	}
}
