/*
DESCRIPTION
  destinations.go implements EDI output transport: UDP unicast/multicast
  destinations (fire-and-forget) and TCP server destinations (each with a
  bounded, drop-from-front queue so a slow peer cannot stall the
  assembler), fanned out from one assembler tick to every configured
  destination (spec.md §4.I, §5 "slow outputs are expected to drop
  internally rather than stall the assembler"). The per-destination bounded
  queue, backed by github.com/ausocean/utils/pool.Buffer and drained on its
  own goroutine, mirrors revid/senders.go's pool-buffer-backed sender tasks
  in the teacher repo.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package edi

import (
	"fmt"
	"net"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/ausocean/utils/pool"

	"github.com/ausocean/dabmux/internal/xlog"
)

// Protocol selects a destination's transport.
type Protocol int

// Destination transports (§6 "protocol ∈ {udp, tcp}").
const (
	UDP Protocol = iota
	TCP
)

// DestinationConfig describes one EDI output destination (§6 "EDI accepts
// a list of destinations each with protocol ∈ {udp, tcp}").
type DestinationConfig struct {
	Protocol Protocol
	Addr     string // host:port.
	TTL      int    // Multicast TTL; ignored for unicast/TCP.

	// QueueLen bounds the per-destination TCP backpressure queue
	// (dropped from the front on overflow, §4.I, §5).
	QueueLen int
}

// defaultQueueLen is the TCP destination queue depth used when a
// DestinationConfig doesn't specify one.
const defaultQueueLen = 64

// initialElementSize is the starting per-packet allocation handed to
// pool.NewBuffer; oversized packets grow it, mirroring newMTSSender's
// recovery from pool.ErrTooLong in the teacher repo.
const initialElementSize = 2048

// drainPollInterval bounds how long drainLoop blocks on an empty queue
// between checks of the closing channel.
const drainPollInterval = 200 * time.Millisecond

// destination is one live output destination, draining its own bounded
// queue on a dedicated goroutine so a stalled peer never blocks the
// assembler tick that feeds it.
type destination struct {
	log xlog.Logger
	cfg DestinationConfig

	udpConn net.Conn // UDP only.

	mu          sync.Mutex
	buf         *pool.Buffer // TCP only.
	elementSize int
	queued      int // Packets currently held in buf; pool.Buffer exposes no length.
	closing     chan struct{}

	ln      net.Listener // TCP only: accepts and fans out to every connected peer.
	connsMu sync.Mutex
	conns   []net.Conn

	dropped uint64
	sent    uint64
}

// newDestination starts one destination's transport and, for TCP, its
// accept and drain loops.
func newDestination(log xlog.Logger, cfg DestinationConfig) (*destination, error) {
	if cfg.QueueLen <= 0 {
		cfg.QueueLen = defaultQueueLen
	}
	d := &destination{log: log, cfg: cfg, closing: make(chan struct{})}

	switch cfg.Protocol {
	case UDP:
		conn, err := net.Dial("udp", cfg.Addr)
		if err != nil {
			return nil, fmt.Errorf("edi: could not dial udp destination %q: %w", cfg.Addr, err)
		}
		if cfg.TTL > 0 {
			setMulticastTTL(conn, cfg.TTL)
		}
		d.udpConn = conn
	case TCP:
		ln, err := net.Listen("tcp", cfg.Addr)
		if err != nil {
			return nil, fmt.Errorf("edi: could not listen on tcp destination %q: %w", cfg.Addr, err)
		}
		d.ln = ln
		d.elementSize = initialElementSize
		d.buf = pool.NewBuffer(cfg.QueueLen, d.elementSize, drainPollInterval)
		go d.acceptLoop()
		go d.drainLoop()
	default:
		return nil, fmt.Errorf("edi: unknown destination protocol %d", cfg.Protocol)
	}
	return d, nil
}

// Send hands one AF (or PF) packet to the destination. UDP writes
// immediately; TCP enqueues for the drain loop, dropping the oldest queued
// packet on overflow rather than blocking the caller.
func (d *destination) Send(pkt []byte) {
	if d.udpConn != nil {
		if _, err := d.udpConn.Write(pkt); err != nil {
			d.log.Warning("edi: udp destination write failed", "addr", d.cfg.Addr, "error", err.Error())
			return
		}
		d.sent++
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.queued >= d.cfg.QueueLen {
		if chunk, err := d.buf.Next(0); err == nil {
			chunk.Close()
			d.queued--
			d.dropped++
		}
	}

	if _, err := d.buf.Write(pkt); err != nil {
		if err != pool.ErrTooLong {
			return
		}
		d.elementSize = len(pkt) * 2
		d.buf = pool.NewBuffer(d.cfg.QueueLen, d.elementSize, drainPollInterval)
		d.queued = 0
		if _, err := d.buf.Write(pkt); err != nil {
			return
		}
	}
	d.buf.Flush()
	d.queued++
}

func (d *destination) acceptLoop() {
	for {
		conn, err := d.ln.Accept()
		if err != nil {
			return
		}
		d.connsMu.Lock()
		d.conns = append(d.conns, conn)
		d.connsMu.Unlock()
	}
}

func (d *destination) drainLoop() {
	for {
		select {
		case <-d.closing:
			return
		default:
		}

		chunk, err := d.buf.Next(drainPollInterval)
		if err != nil {
			continue
		}
		pkt := append([]byte(nil), chunk.Bytes()...)
		chunk.Close()

		d.mu.Lock()
		d.queued--
		d.mu.Unlock()

		d.connsMu.Lock()
		live := d.conns[:0]
		for _, c := range d.conns {
			c.SetWriteDeadline(time.Now().Add(500 * time.Millisecond))
			if _, err := c.Write(pkt); err != nil {
				c.Close()
				continue
			}
			live = append(live, c)
		}
		d.conns = live
		d.connsMu.Unlock()
		d.sent++
	}
}

// Stats reports cumulative send/drop counters for the statistics surface.
func (d *destination) Stats() (sent, dropped uint64) { return d.sent, d.dropped }

// Close releases the destination's sockets.
func (d *destination) Close() error {
	if d.ln != nil {
		close(d.closing)
	}

	if d.udpConn != nil {
		return d.udpConn.Close()
	}
	if d.ln != nil {
		d.ln.Close()
	}
	d.connsMu.Lock()
	for _, c := range d.conns {
		c.Close()
	}
	d.connsMu.Unlock()
	return nil
}

// setMulticastTTL applies IP_MULTICAST_TTL to a dialled UDP connection via
// its raw file descriptor, best-effort (§6 "udp... with TTL"). Uses
// golang.org/x/sys/unix the same way internal/muxloop uses it for signal
// handling, rather than pulling in golang.org/x/net/ipv4 for one setsockopt
// call.
func setMulticastTTL(conn net.Conn, ttl int) {
	udpConn, ok := conn.(*net.UDPConn)
	if !ok {
		return
	}
	raw, err := udpConn.SyscallConn()
	if err != nil {
		return
	}
	raw.Control(func(fd uintptr) {
		_ = unix.SetsockoptInt(int(fd), unix.IPPROTO_IP, unix.IP_MULTICAST_TTL, ttl)
	})
}
