/*
DESCRIPTION
  inputs.go resolves a sub-channel's InputURI to a live msc.Input (spec.md
  §4.C, §4.D): "prbs://" to internal/inputs/prbs, "edi://" to
  internal/ediinput, and anything else (a bare path or "file://") to
  internal/inputs/file in blocking mode. Dispatch-by-scheme-prefix mirrors
  revid/input.go's own "which device am I talking to" switch in the
  teacher repo.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package main

import (
	"fmt"
	"strings"

	"github.com/ausocean/dabmux/internal/edi"
	"github.com/ausocean/dabmux/internal/ediinput"
	"github.com/ausocean/dabmux/internal/ensemble"
	"github.com/ausocean/dabmux/internal/inputs/file"
	"github.com/ausocean/dabmux/internal/inputs/prbs"
	"github.com/ausocean/dabmux/internal/msc"
	"github.com/ausocean/dabmux/internal/xlog"
)

// ediMaxDelay bounds the PFT reassembler's maximum fragment age, in
// AF-packet-equivalents, for every ediinput.Input this command opens
// (§4.D's reassembly window).
const ediMaxDelay = 75

// opener is the lifecycle every concrete Input implements, beyond the
// msc.Input read contract: msc.Input alone is not enough to bootstrap one,
// since Open/SetBitrate/Close are needed exactly once at startup.
type opener interface {
	Open(uri string) error
	SetBitrate(kbps int) (int, error)
	Close() error
}

// closer is satisfied by every value buildInput returns, so the caller can
// release inputs cleanly on shutdown.
type closer interface {
	Close() error
}

// buildInput opens sc's InputURI and returns it as an msc.Input, ready for
// the assembler. The returned value also satisfies closer.
func buildInput(log xlog.Logger, sc *ensemble.SubChannel) (msc.Input, error) {
	var in opener
	switch {
	case strings.HasPrefix(sc.InputURI, "prbs://"):
		in = prbs.New()
	case strings.HasPrefix(sc.InputURI, "edi://"):
		in = ediinput.New(log, 1, sc.BufferPolicy, ediMaxDelay)
	default:
		in = file.New(log, file.Blocking)
	}

	if err := in.Open(sc.InputURI); err != nil {
		return nil, fmt.Errorf("input %q: could not open %q: %w", sc.UID, sc.InputURI, err)
	}
	if _, err := in.SetBitrate(sc.BitrateKb); err != nil {
		return nil, fmt.Errorf("input %q: could not negotiate bitrate: %w", sc.UID, err)
	}

	mi, ok := in.(msc.Input)
	if !ok {
		return nil, fmt.Errorf("input %q: %T does not satisfy msc.Input", sc.UID, in)
	}
	return mi, nil
}

// closeInputs releases every input, logging (rather than aborting on) an
// individual close failure, since shutdown must still proceed.
func closeInputs(log xlog.Logger, inputs []msc.Input) {
	for _, in := range inputs {
		if c, ok := in.(closer); ok {
			if err := c.Close(); err != nil {
				log.Warning("could not close input cleanly", "error", err.Error())
			}
		}
	}
}

// buildEDIDestinations opens every configured EDI output destination.
func buildEDIDestinations(emitter *edi.Emitter, cfgs []ediDestinationConfig) error {
	for _, c := range cfgs {
		dc, err := c.toDestinationConfig()
		if err != nil {
			return err
		}
		if err := emitter.AddDestination(dc); err != nil {
			return fmt.Errorf("edi: could not add destination %q: %w", c.Addr, err)
		}
	}
	return nil
}
