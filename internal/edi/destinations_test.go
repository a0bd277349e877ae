/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package edi

import (
	"net"
	"testing"
	"time"

	"github.com/ausocean/utils/pool"

	"github.com/ausocean/dabmux/internal/xlog"
)

func TestTCPDestinationFansOutToConnectedPeer(t *testing.T) {
	d, err := newDestination(xlog.NewTestLogger(t), DestinationConfig{Protocol: TCP, Addr: "127.0.0.1:0"})
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	conn, err := net.Dial("tcp", d.ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	// Give acceptLoop a moment to register the new connection.
	time.Sleep(50 * time.Millisecond)

	d.Send([]byte("hello"))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 5)
	if _, err := conn.Read(buf); err != nil {
		t.Fatalf("expected the fanned-out packet: %v", err)
	}
	if string(buf) != "hello" {
		t.Fatalf("got %q, want %q", buf, "hello")
	}
}

func TestTCPDestinationDropsFromFrontOnOverflow(t *testing.T) {
	// Built directly rather than via newDestination, so no drain loop is
	// running to race with Send's own enqueue/drop logic under test.
	d := &destination{log: xlog.NewTestLogger(t), cfg: DestinationConfig{Protocol: TCP, QueueLen: 2}}
	d.elementSize = initialElementSize
	d.buf = pool.NewBuffer(d.cfg.QueueLen, d.elementSize, drainPollInterval)
	d.closing = make(chan struct{})

	for i := 0; i < 5; i++ {
		d.Send([]byte{byte(i)})
	}

	if d.queued != 2 {
		t.Fatalf("queued = %d, want 2 (QueueLen)", d.queued)
	}
	if d.dropped != 3 {
		t.Fatalf("dropped = %d, want 3", d.dropped)
	}

	// The surviving entries must be the most recent two (front-dropped).
	chunk, err := d.buf.Next(0)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if chunk.Bytes()[0] != 3 {
		t.Fatalf("first surviving entry = %d, want 3", chunk.Bytes()[0])
	}
	chunk.Close()

	chunk, err = d.buf.Next(0)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if chunk.Bytes()[0] != 4 {
		t.Fatalf("second surviving entry = %d, want 4", chunk.Bytes()[0])
	}
	chunk.Close()
}
