/*
DESCRIPTION
  listener.go wires a Decoder to a live UDP or TCP socket, running the
  receive loop on its own goroutine so decoding never blocks the frame
  scheduler (spec.md §4.D), and exposes the result as an inputs.Input so it
  plugs into the same Prebuffering/Timestamped consumption path as the
  file and PRBS inputs. The net.ListenUDP + background-goroutine-feeding-
  a-queue shape follows protocol/rtp.Client/PacketReader in the teacher
  repo; TCP self-framing (scanning a byte stream for AF/PF magic) follows
  the same read-then-resync idea applied to a stream instead of datagrams.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package ediinput

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ausocean/dabmux/internal/ensemble"
	"github.com/ausocean/dabmux/internal/prebuffer"
	"github.com/ausocean/dabmux/internal/xlog"
)

// maxDatagramSize is the largest UDP datagram we attempt to read; EDI
// fragments are always much smaller than this.
const maxDatagramSize = 65507

// Input is an EDI/STI-D network Input implementing inputs.Input, buffering
// assembled frames' per-stream payload through either a Prebuffering or
// Timestamped policy queue (spec.md §4.C, §4.D, §4.E).
type Input struct {
	log xlog.Logger

	decoder *Decoder

	mu       sync.Mutex
	conn     net.PacketConn
	listener net.Listener
	stream   int // Which stream index (1-based) this Input reads from.

	policy   ensemble.BufferPolicy
	prebuf   *prebuffer.Queue
	tsQueue  *prebuffer.TimestampQueue
	fsm      *prebuffer.FSM

	frameSize int
	staleFor  time.Duration

	closing chan struct{}
	wg      sync.WaitGroup
}

// New returns an unopened EDI Input reading the given 1-based stream index
// out of decoded frames, driven by the given buffer-management policy.
func New(log xlog.Logger, stream int, policy ensemble.BufferPolicy, maxDelay int) *Input {
	fsm := prebuffer.NewFSM()
	in := &Input{
		log:      log,
		decoder:  NewDecoder(log, maxDelay),
		stream:   stream,
		policy:   policy,
		fsm:      fsm,
		staleFor: 2 * time.Second,
		closing:  make(chan struct{}),
	}
	if policy == ensemble.Timestamped {
		in.tsQueue = prebuffer.NewTimestampQueue(in.staleFor, fsm)
	} else {
		in.prebuf = prebuffer.New(prebuffer.MinFrames, prebuffer.DefaultFrames, prebuffer.MaxFrames, 5, fsm)
	}
	return in
}

// Open starts receiving on the given URI: "edi://udp@host:port" or
// "edi://tcp@host:port" (the scheme/transport spelling follows the
// original_source input URI conventions for EDI sources).
func (in *Input) Open(uri string) error {
	u, err := url.Parse(uri)
	if err != nil {
		return fmt.Errorf("ediinput: invalid uri %q: %w", uri, err)
	}
	transport := u.User.Username()
	addr := u.Host

	switch strings.ToLower(transport) {
	case "udp":
		return in.openUDP(addr)
	case "tcp":
		return in.openTCP(addr)
	default:
		return fmt.Errorf("ediinput: unsupported transport %q (want udp or tcp)", transport)
	}
}

func (in *Input) openUDP(addr string) error {
	a, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", a)
	if err != nil {
		return err
	}
	in.mu.Lock()
	in.conn = conn
	in.mu.Unlock()

	in.wg.Add(1)
	go in.runUDP(conn)
	return nil
}

func (in *Input) runUDP(conn net.PacketConn) {
	defer in.wg.Done()
	buf := make([]byte, maxDatagramSize)
	for {
		select {
		case <-in.closing:
			return
		default:
		}
		conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return
		}
		in.decoder.PushPacket(append([]byte(nil), buf[:n]...))
		in.drainDecoder()
	}
}

func (in *Input) openTCP(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	in.mu.Lock()
	in.listener = ln
	in.mu.Unlock()

	in.wg.Add(1)
	go in.acceptTCP(ln)
	return nil
}

func (in *Input) acceptTCP(ln net.Listener) {
	defer in.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		in.wg.Add(1)
		go in.runTCP(conn)
	}
}

// runTCP resynchronises on AF/PF magic within a byte stream, reading each
// packet's declared length before dispatching it whole to the decoder.
func (in *Input) runTCP(conn net.Conn) {
	defer in.wg.Done()
	defer conn.Close()

	r := bufio.NewReader(conn)
	for {
		select {
		case <-in.closing:
			return
		default:
		}

		magic, err := r.Peek(2)
		if err != nil {
			return
		}
		switch string(magic) {
		case "AF":
			hdr, err := r.Peek(afHeaderLen)
			if err != nil {
				return
			}
			length := binary.BigEndian.Uint32(hdr[2:6])
			total := afHeaderLen + int(length)
			if hdr[8]&afFlagCRC != 0 {
				total += 2 // Trailing CRC16.
			}
			pkt := make([]byte, total)
			if _, err := io.ReadFull(r, pkt); err != nil {
				return
			}
			in.decoder.PushPacket(pkt)
		case "PF":
			hdr := make([]byte, 11)
			if _, err := io.ReadFull(r, hdr); err != nil {
				return
			}
			// Fragment payload length is implied by the transport; without
			// it we cannot resynchronise further on a stream, so treat the
			// remainder of this read cycle as malformed and resync on the
			// next magic.
			_, err := r.Discard(r.Buffered())
			if err != nil {
				return
			}
			in.decoder.malformedSkipped++
			_ = hdr
		default:
			r.Discard(1)
		}
		in.drainDecoder()
	}
}

// drainDecoder moves any newly-assembled frames' payload for in.stream
// into the configured buffer policy queue.
func (in *Input) drainDecoder() {
	for {
		f, ok := in.decoder.Pop()
		if !ok {
			return
		}
		payload, ok := f.Streams[in.stream]
		if !ok {
			continue
		}
		if in.policy == ensemble.Timestamped && f.HaveTime {
			release := time.Unix(int64(f.Seconds), 0).Add(time.Duration(f.TSTA) * time.Second / (1 << 24))
			in.tsQueue.Push(release, payload)
		} else if in.prebuf != nil {
			in.prebuf.Push(payload)
		}
	}
}

// SetBitrate records the per-frame size; EDI inputs always honour the
// requested rate, the source having already been authored at it.
func (in *Input) SetBitrate(kbps int) (int, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.frameSize = kbps * 3
	return kbps, nil
}

// ReadFrame returns the next frame from the Prebuffering queue.
func (in *Input) ReadFrame(buf []byte) (int, error) {
	if in.prebuf == nil {
		return 0, fmt.Errorf("ediinput: ReadFrame called on a Timestamped input")
	}
	copy(buf, in.prebuf.Pop(len(buf)))
	return len(buf), nil
}

// ReadFrameAt returns the frame due at the given EDI time from the
// Timestamped queue.
func (in *Input) ReadFrameAt(buf []byte, seconds uint32, utco byte, tsta uint32) (int, error) {
	if in.tsQueue == nil {
		return 0, fmt.Errorf("ediinput: ReadFrameAt called on a Prebuffering input")
	}
	release := time.Unix(int64(seconds), 0).Add(time.Duration(tsta) * time.Second / (1 << 24))
	copy(buf, in.tsQueue.Pop(release, len(buf)))
	return len(buf), nil
}

// FSM returns the input's liveness state machine, for the statistics
// surface (spec.md §4.J).
func (in *Input) FSM() *prebuffer.FSM { return in.fsm }

// Close stops the receive loop(s) and releases the socket.
func (in *Input) Close() error {
	close(in.closing)
	in.mu.Lock()
	if in.conn != nil {
		in.conn.Close()
	}
	if in.listener != nil {
		in.listener.Close()
	}
	in.mu.Unlock()
	in.wg.Wait()
	return nil
}
