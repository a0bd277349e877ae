/*
DESCRIPTION
  file.go implements the three file-input modes described by spec.md §4.C:
  blocking (read + rewind on EOF), non-blocking (partial reads accumulated
  until a full frame is available) and load-entire-file (whole file held in
  memory, circularly consumed). The mutex-guarded *os.File handle and
  EOF/rewind handling follow device/file.AVFile in the teacher repo; the
  reopen-on-change behaviour for load-entire-file additionally watches the
  backing path with fsnotify so a failed reopen can retry once the file is
  rewritten.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package file implements the file-backed Input.
package file

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/ausocean/dabmux/internal/xlog"
)

// Mode selects one of the three file-input behaviours.
type Mode int

// File input modes.
const (
	Blocking Mode = iota
	NonBlocking
	LoadEntire
)

// Input implements inputs.Input for a local file.
type Input struct {
	mode Mode
	log  xlog.Logger

	mu   sync.Mutex
	path string
	f    *os.File

	frameSize int

	// non-blocking mode accumulation buffer.
	acc []byte

	// load-entire-file mode state.
	whole   []byte
	pos     int
	watcher *fsnotify.Watcher
}

// New returns a file Input in the given mode.
func New(log xlog.Logger, mode Mode) *Input {
	return &Input{mode: mode, log: log}
}

// Open opens the file at uri (a plain filesystem path; the file:// scheme
// is also accepted and stripped).
func (in *Input) Open(uri string) error {
	in.mu.Lock()
	defer in.mu.Unlock()

	path := stripScheme(uri)
	in.path = path

	switch in.mode {
	case LoadEntire:
		return in.loadWhole()
	default:
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("could not open input file: %w", err)
		}
		in.f = f
		return nil
	}
}

func stripScheme(uri string) string {
	const scheme = "file://"
	if len(uri) > len(scheme) && uri[:len(scheme)] == scheme {
		return uri[len(scheme):]
	}
	return uri
}

// loadWhole reads the entire file into memory and arms a watcher so that a
// later failed reopen (e.g. the file was mid-rewrite) can be retried once
// the watcher reports a write.
func (in *Input) loadWhole() error {
	data, err := os.ReadFile(in.path)
	if err != nil {
		if in.whole != nil {
			// A failed reopen keeps the previously loaded content, and
			// readWhole goes on serving it; no zeroed frames are substituted.
			in.log.Warning("load-entire-file reopen failed, keeping previous content", "error", err.Error())
			return nil
		}
		return fmt.Errorf("could not load input file: %w", err)
	}
	in.whole = data
	in.pos = 0

	if in.watcher == nil {
		w, err := fsnotify.NewWatcher()
		if err == nil {
			if err := w.Add(in.path); err == nil {
				in.watcher = w
			}
		}
	}
	return nil
}

// maybeReload checks for a pending fsnotify write event and reloads the
// file if one is seen, so a corrected/rewritten file is picked up without
// restarting the multiplexer.
func (in *Input) maybeReload() {
	if in.watcher == nil {
		return
	}
	select {
	case ev := <-in.watcher.Events:
		if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
			if err := in.loadWhole(); err != nil {
				in.log.Warning("reload after fsnotify event failed", "error", err.Error())
			}
		}
	default:
	}
}

// SetBitrate fixes the per-frame read size. File inputs always honour the
// requested rate.
func (in *Input) SetBitrate(kbps int) (int, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.frameSize = kbps * 3
	return kbps, nil
}

// ReadFrame reads one frame according to the configured mode.
func (in *Input) ReadFrame(buf []byte) (int, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	switch in.mode {
	case Blocking:
		return in.readBlocking(buf)
	case NonBlocking:
		return in.readNonBlocking(buf)
	case LoadEntire:
		return in.readWhole(buf)
	default:
		return 0, fmt.Errorf("unknown file input mode %d", in.mode)
	}
}

// ReadFrameAt ignores the timestamp: file inputs are data-driven
// (Prebuffering policy), per §4.C.
func (in *Input) ReadFrameAt(buf []byte, seconds uint32, utco byte, tsta uint32) (int, error) {
	return in.ReadFrame(buf)
}

func (in *Input) readBlocking(buf []byte) (int, error) {
	n, err := io.ReadFull(in.f, buf)
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		if _, serr := in.f.Seek(0, io.SeekStart); serr != nil {
			return n, fmt.Errorf("could not rewind input file: %w", serr)
		}
		return io.ReadFull(in.f, buf)
	}
	return n, err
}

// readNonBlocking accumulates partial reads until a full frame is
// available; an empty underlying read returns zero bytes rather than
// blocking (§4.C).
func (in *Input) readNonBlocking(buf []byte) (int, error) {
	need := len(buf)
	for len(in.acc) < need {
		tmp := make([]byte, need-len(in.acc))
		n, err := in.f.Read(tmp)
		if n > 0 {
			in.acc = append(in.acc, tmp[:n]...)
		}
		if err == io.EOF {
			if _, serr := in.f.Seek(0, io.SeekStart); serr != nil {
				return 0, fmt.Errorf("could not rewind input file: %w", serr)
			}
		} else if err != nil {
			return 0, err
		}
		if n == 0 && err == nil {
			// No data currently available; return zero without blocking.
			return 0, nil
		}
	}
	copy(buf, in.acc[:need])
	in.acc = in.acc[need:]
	return need, nil
}

func (in *Input) readWhole(buf []byte) (int, error) {
	in.maybeReload()
	if len(in.whole) == 0 {
		for i := range buf {
			buf[i] = 0
		}
		return len(buf), nil
	}
	n := copy(buf, in.whole[in.pos:])
	in.pos += n
	for n < len(buf) {
		in.pos = 0
		m := copy(buf[n:], in.whole)
		n += m
		if m == 0 {
			break
		}
	}
	if in.pos >= len(in.whole) {
		in.pos = 0
	}
	return n, nil
}

// Close releases the underlying file handle and watcher, if any.
func (in *Input) Close() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.watcher != nil {
		in.watcher.Close()
	}
	if in.f != nil {
		return in.f.Close()
	}
	return nil
}
