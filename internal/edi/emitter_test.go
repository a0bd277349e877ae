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

	"github.com/ausocean/dabmux/internal/xlog"
)

func TestPFTConfigNormalise(t *testing.T) {
	c := PFTConfig{Enabled: true, LatencyMs: 60000}.normalise()
	if c.ChunkLen != defaultChunkLen {
		t.Errorf("ChunkLen = %d, want default %d", c.ChunkLen, defaultChunkLen)
	}
	if c.FEC != defaultFEC {
		t.Errorf("FEC = %d, want default %d", c.FEC, defaultFEC)
	}
	if c.LatencyMs != maxInterleaveMs {
		t.Errorf("LatencyMs = %d, want capped at %d", c.LatencyMs, maxInterleaveMs)
	}
}

func TestEmitterSendsToUDPDestination(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer pc.Close()

	e := New(xlog.NewTestLogger(t), PFTConfig{}, false)
	if err := e.AddDestination(DestinationConfig{Protocol: UDP, Addr: pc.LocalAddr().String()}); err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	h := DetiHeader{FCT: 1, FICF: true, NST: 1, FP: 0}
	if err := e.Emit(h, []SubChannelPayload{{Index: 0, Bytes: []byte{1, 2, 3, 4}}}); err != nil {
		t.Fatal(err)
	}

	pc.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 2048)
	n, _, err := pc.ReadFrom(buf)
	if err != nil {
		t.Fatalf("expected a UDP packet from the emitter: %v", err)
	}
	if string(buf[0:2]) != "AF" {
		t.Fatalf("received packet missing AF magic: %v", buf[:n])
	}

	sent, perDest := e.Stats()
	if sent != 1 {
		t.Errorf("Emitter.Stats sent = %d, want 1", sent)
	}
	if len(perDest) != 1 || perDest[0].Sent != 1 {
		t.Errorf("per-destination stats = %+v", perDest)
	}
}

func TestEmitterFragmentsWithPFTEnabled(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer pc.Close()

	e := New(xlog.NewTestLogger(t), PFTConfig{Enabled: true, ChunkLen: 16, FEC: 2}, false)
	if err := e.AddDestination(DestinationConfig{Protocol: UDP, Addr: pc.LocalAddr().String()}); err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	h := DetiHeader{FCT: 1, FICF: true, NST: 1, FP: 0}
	big := make([]byte, 200)
	if err := e.Emit(h, []SubChannelPayload{{Index: 0, Bytes: big}}); err != nil {
		t.Fatal(err)
	}

	pc.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 2048)
	n, _, err := pc.ReadFrom(buf)
	if err != nil {
		t.Fatalf("expected at least one PF fragment: %v", err)
	}
	if string(buf[0:2]) != "PF" {
		t.Fatalf("received packet missing PF magic: %v", buf[:n])
	}
}
