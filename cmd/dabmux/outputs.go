/*
DESCRIPTION
  outputs.go implements the handful of concrete ETI output transports
  (file, UDP, TCP) dabmux needs to actually emit something; spec.md §1
  places transports beyond their byte-oriented write contract out of
  scope, so these are deliberately minimal — no fifo/raw/ZMQ variants, no
  reconnect/backoff policy beyond what net.Dial gives for free.

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
	"io"
	"net"
	"os"

	"github.com/ausocean/dabmux/internal/muxloop"
)

// fileOutput appends every frame to a regular file, for offline capture or
// a pre-existing named pipe opened externally.
type fileOutput struct{ f *os.File }

func newFileOutput(path string) (*fileOutput, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("eti output: could not open %q: %w", path, err)
	}
	return &fileOutput{f: f}, nil
}

func (o *fileOutput) Write(frame []byte) error {
	_, err := o.f.Write(frame)
	return err
}

func (o *fileOutput) Close() error { return o.f.Close() }

// connOutput writes each frame to a live net.Conn (UDP or TCP).
type connOutput struct{ conn net.Conn }

func newUDPOutput(addr string) (*connOutput, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("eti output: could not dial udp %q: %w", addr, err)
	}
	return &connOutput{conn: conn}, nil
}

func newTCPOutput(addr string) (*connOutput, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("eti output: could not dial tcp %q: %w", addr, err)
	}
	return &connOutput{conn: conn}, nil
}

func (o *connOutput) Write(frame []byte) error {
	_, err := o.conn.Write(frame)
	return err
}

func (o *connOutput) Close() error { return o.conn.Close() }

// buildETIOutputs opens every configured ETI output transport.
func buildETIOutputs(cfgs []etiOutputConfig) ([]muxloop.Output, []io.Closer, error) {
	var outs []muxloop.Output
	var closers []io.Closer
	for _, c := range cfgs {
		var out interface {
			muxloop.Output
			io.Closer
		}
		var err error
		switch c.Type {
		case "file":
			out, err = newFileOutput(c.Addr)
		case "udp":
			out, err = newUDPOutput(c.Addr)
		case "tcp":
			out, err = newTCPOutput(c.Addr)
		default:
			err = fmt.Errorf("eti output: unknown type %q", c.Type)
		}
		if err != nil {
			for _, cl := range closers {
				cl.Close()
			}
			return nil, nil, err
		}
		outs = append(outs, out)
		closers = append(closers, out)
	}
	return outs, closers, nil
}
