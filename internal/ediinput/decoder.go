/*
DESCRIPTION
  decoder.go assembles one STI frame per completed AF packet: sub-channel
  payload bytes keyed by stream index, the DFLC/timestamp management
  fields, and forwards it into a bounded queue for the consuming Input
  (spec.md §4.D). This mirrors the teacher's device/pipeline split between
  a parser and an AVDevice-facing consumer: decode here, consume
  through the Input contract in listener.go.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package ediinput implements the EDI/STI-D network input: packet framing,
// PFT reassembly and AF/TAG dispatch (spec.md §4.D).
package ediinput

import (
	"sync"

	"github.com/ausocean/dabmux/internal/xlog"
)

// maxQueuedFrames is the bounded STI frame queue's capacity (spec.md
// §4.D "bounded queue (max 1000 frames)").
const maxQueuedFrames = 1000

// Frame is one assembled STI frame.
type Frame struct {
	DFLC uint16 // Modulo-5000 frame counter.

	UTCO    byte
	Seconds uint32
	TSTA    uint32
	HaveTime bool

	STAT byte
	SPID uint16
	HaveStat bool

	// Streams maps a 1-based stream index (as carried in the `ss##` tag
	// name) to that stream's payload bytes for this frame.
	Streams map[int][]byte
}

// Decoder turns a byte stream (push_bytes-style, for TCP) or individual
// packets (push_packet-style, for UDP) into assembled Frames, via PFT
// reassembly (for PF-framed input) and TAG dispatch (for AF-framed
// input).
type Decoder struct {
	log xlog.Logger

	reassembler *Reassembler

	mu     sync.Mutex
	queue  []Frame
	notify chan struct{}

	malformedSkipped int
	framesDropped    int
}

// NewDecoder returns a Decoder. maxDelay configures the PFT reassembler's
// maximum fragment age, in AF-packet-equivalents.
func NewDecoder(log xlog.Logger, maxDelay int) *Decoder {
	return &Decoder{
		log:         log,
		reassembler: NewReassembler(maxDelay),
		notify:      make(chan struct{}, 1),
	}
}

// PushPacket ingests one complete datagram: either an AF packet or a PF
// fragment, distinguished by its 2-byte magic. Malformed packets are
// counted and dropped, never fatal (spec.md §4.D "skipped silently but
// counted").
func (d *Decoder) PushPacket(buf []byte) {
	if len(buf) < 2 {
		d.malformedSkipped++
		return
	}
	switch string(buf[0:2]) {
	case "AF":
		body, err := parseAF(buf)
		if err != nil {
			d.log.Warning("discarding malformed AF packet", "error", err.Error())
			d.malformedSkipped++
			return
		}
		d.dispatchAF(body)
	case "PF":
		af, complete, err := d.reassembler.PushFragment(buf)
		if err != nil {
			d.log.Warning("discarding malformed PF fragment", "error", err.Error())
			d.malformedSkipped++
			return
		}
		if complete {
			body, err := parseAF(af)
			if err != nil {
				d.log.Warning("reassembled AF packet invalid", "error", err.Error())
				d.malformedSkipped++
				return
			}
			d.dispatchAF(body)
		}
	default:
		d.malformedSkipped++
	}
}

// PushBytes hands buf to PushPacket unchanged; it does not scan for magic
// or split buf. The caller must already have split a stream transport's
// bytes (TCP) into single packets using the declared AF length / PF
// fragment size fields; byte-stream resynchronisation is handled by the
// TCP listener (listener.go) before packets reach this method.
func (d *Decoder) PushBytes(buf []byte) {
	d.PushPacket(buf)
}

// dispatchAF parses the TAG Packet inside one complete AF packet's body
// and assembles a Frame from the tags it recognises.
func (d *Decoder) dispatchAF(body []byte) {
	items, err := parseTagPacket(body)
	if err != nil {
		d.malformedSkipped++
		return
	}

	var frame Frame
	frame.Streams = make(map[int][]byte)
	sawPtr, sawDSTI := false, false

	for _, it := range items {
		switch {
		case it.name == "*ptr":
			sawPtr = true
		case it.name == "dsti":
			parsed, err := parseDSTI(it.payload)
			if err != nil {
				d.log.Warning("discarding frame with malformed dsti tag", "error", err.Error())
				return
			}
			sawDSTI = true
			frame.DFLC = parsed.dflc
			frame.HaveStat = parsed.haveStat
			frame.STAT = parsed.stat
			frame.SPID = parsed.spid
			frame.HaveTime = parsed.haveTime
			frame.UTCO = parsed.utco
			frame.Seconds = parsed.seconds
			frame.TSTA = parsed.tsta
		case len(it.name) == 4 && it.name[0:2] == "ss":
			if idx, ok := ssStreamIndex(it.name); ok {
				frame.Streams[idx] = append([]byte(nil), it.payload...)
			}
		case it.name == "ODRa" || it.name == "ODRv":
			// Extra diagnostic metrics; acknowledged but not retained.
		default:
			// Unknown tag: forward-compatible, ignored per §4.D.
		}
	}

	if !sawPtr || !sawDSTI {
		d.log.Warning("discarding AF packet missing required tags", "ptr", sawPtr, "dsti", sawDSTI)
		d.malformedSkipped++
		return
	}

	d.enqueue(frame)
}

// enqueue appends frame to the bounded queue, dropping the oldest entry on
// overflow (spec.md §4.D "bounded queue (max 1000 frames)").
func (d *Decoder) enqueue(frame Frame) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queue = append(d.queue, frame)
	if len(d.queue) > maxQueuedFrames {
		d.queue = d.queue[1:]
		d.framesDropped++
	}
	select {
	case d.notify <- struct{}{}:
	default:
	}
}

// Pop removes and returns the oldest queued Frame, if any.
func (d *Decoder) Pop() (Frame, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.queue) == 0 {
		return Frame{}, false
	}
	f := d.queue[0]
	d.queue = d.queue[1:]
	return f, true
}

// Stats reports cumulative decode outcomes for the statistics surface.
func (d *Decoder) Stats() (malformedSkipped, framesDropped, reassembled, recovered, lost int) {
	c, r, l := d.reassembler.Stats()
	return d.malformedSkipped, d.framesDropped, c, r, l
}

// Len returns the number of frames currently queued, for diagnostics.
func (d *Decoder) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// Notify returns a channel that receives a value whenever a new frame is
// enqueued, letting a consumer (e.g. the statistics surface) wake up on
// arrival instead of polling.
func (d *Decoder) Notify() <-chan struct{} { return d.notify }
