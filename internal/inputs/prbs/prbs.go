/*
DESCRIPTION
  prbs.go implements the pseudo-random test input: a self-synchronising
  Galois LFSR byte generator keyed from a "prbs://:0xPOLY" URI
  (spec.md §4.C). "Self-synchronising" here means the generator always
  resets to the same fixed seed on Open/rewind, so two independent runs (or
  a receiver resynchronising after a dropout) see the identical bit
  sequence rather than a sequence dependent on how much was previously
  consumed.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package prbs implements the PRBS test Input.
package prbs

import (
	"fmt"
	"strconv"
	"strings"
)

// seed is the fixed non-zero LFSR starting state used on every Open/rewind
// so the generated sequence is reproducible (self-synchronising).
const seed uint32 = 0x1

// Input generates bytes from a Galois LFSR.
type Input struct {
	poly      uint32
	state     uint32
	frameSize int
}

// New returns an unopened PRBS input.
func New() *Input { return &Input{} }

// Open parses the polynomial from a URI of the form "prbs://:0xPOLY".
func (in *Input) Open(uri string) error {
	poly, err := parsePoly(uri)
	if err != nil {
		return err
	}
	in.poly = poly
	in.state = seed
	return nil
}

func parsePoly(uri string) (uint32, error) {
	const prefix = "prbs://:"
	if !strings.HasPrefix(uri, prefix) {
		return 0, fmt.Errorf("prbs: malformed uri %q, want prbs://:0xPOLY", uri)
	}
	hex := uri[len(prefix):]
	v, err := strconv.ParseUint(hex, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("prbs: invalid polynomial %q: %w", hex, err)
	}
	if v == 0 {
		return 0, fmt.Errorf("prbs: polynomial must be non-zero")
	}
	return uint32(v), nil
}

// SetBitrate sets the per-frame generation size; PRBS always honours the
// requested rate.
func (in *Input) SetBitrate(kbps int) (int, error) {
	in.frameSize = kbps * 3
	return kbps, nil
}

// ReadFrame fills buf with LFSR-generated bytes.
func (in *Input) ReadFrame(buf []byte) (int, error) {
	for i := range buf {
		buf[i] = in.nextByte()
	}
	return len(buf), nil
}

// ReadFrameAt ignores the timestamp: PRBS is data-driven.
func (in *Input) ReadFrameAt(buf []byte, seconds uint32, utco byte, tsta uint32) (int, error) {
	return in.ReadFrame(buf)
}

// nextByte advances the Galois LFSR by 8 steps and returns the resulting
// byte, MSB first.
func (in *Input) nextByte() byte {
	var b byte
	for i := 0; i < 8; i++ {
		lsb := in.state & 1
		in.state >>= 1
		if lsb == 1 {
			in.state ^= in.poly
		}
		b = b<<1 | byte(lsb)
	}
	return b
}

// Close resets the generator to its seed (the next Open/rewind restarts
// the identical sequence).
func (in *Input) Close() error {
	in.state = seed
	return nil
}
