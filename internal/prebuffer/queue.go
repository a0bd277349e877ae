/*
DESCRIPTION
  queue.go implements the Prebuffering queue (spec.md §4.E): a data-driven
  ring of whole frames that absorbs jitter/glitches from network-fed
  inputs, refilling to a threshold before releasing data again, and
  dropping whole superframes (AAC) or individual frames (MPEG) on overflow
  so alignment is preserved. The ring is github.com/ausocean/utils/pool.Buffer,
  used the same way by revid/senders.go's mtsSender/rtmpSender in the
  teacher repo, including its grow-and-recreate recovery when a frame
  exceeds the buffer's element size.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package prebuffer implements the Prebuffering and Timestamped queue
// policies and the input liveness FSM (spec.md §4.E).
package prebuffer

import (
	"sync"
	"time"

	"github.com/ausocean/utils/pool"
)

// Frame counts corresponding to the sizing guidance in §4.E. A "superframe"
// is five DAB logical frames for DAB+ (AAC); these counts are expressed in
// whole frames and the grouping is handled by the caller via SuperframeSize.
const (
	MinFrames     = 5    // ~1 superframe (120ms) at 24ms/frame.
	DefaultFrames = 40   // ~8 superframes (960ms).
	MaxFrames     = 2500 // ~500 superframes (60s).
)

// initialElementSize is the starting per-frame allocation handed to
// pool.NewBuffer; oversized frames grow it, mirroring newMTSSender's
// recovery from pool.ErrTooLong in the teacher repo.
const initialElementSize = 2048

// queueTimeout bounds how long Next blocks for; the ring sits on the
// frame-scheduler hot path, so both Push and Pop treat it as effectively
// non-blocking rather than waiting on a producer or consumer.
const queueTimeout = time.Millisecond

// Queue is the Prebuffering policy queue: an in-RAM ring of whole frames
// backed by a pool.Buffer.
type Queue struct {
	mu sync.Mutex

	buf         *pool.Buffer
	elementSize int
	buffered    int // Frames currently held in buf; pool.Buffer exposes no length.

	threshold     int // Refill threshold (frames) before releasing again.
	max           int // Overflow threshold (frames).
	superframeLen int // Frames per superframe; 1 for non-grouped (e.g. MPEG) content.

	prebuffering bool // True while refilling after an underrun.

	underruns uint64
	overruns  uint64

	fsm *FSM
}

// New returns a Prebuffering Queue sized per §4.E's guidance.
// superframeLen is the number of frames that make up one superframe for
// this sub-channel's codec (5 for DAB+'s AAC superframes, 1 for plain MPEG
// frames, which are dropped individually).
func New(minFrames, defaultFrames, maxFrames, superframeLen int, fsm *FSM) *Queue {
	if superframeLen < 1 {
		superframeLen = 1
	}
	return &Queue{
		buf:           pool.NewBuffer(maxFrames, initialElementSize, queueTimeout),
		elementSize:   initialElementSize,
		threshold:     defaultFrames,
		max:           maxFrames,
		superframeLen: superframeLen,
		prebuffering:  true,
		fsm:           fsm,
	}
}

// Push enqueues one frame of input data. On overflow, the oldest whole
// superframe (or single frame, if superframeLen==1) is dropped to preserve
// alignment.
func (q *Queue) Push(frame []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, err := q.buf.Write(frame); err != nil {
		if err != pool.ErrTooLong {
			return
		}
		q.elementSize = len(frame) * 2
		q.buf = pool.NewBuffer(q.max, q.elementSize, queueTimeout)
		q.buffered = 0
		if _, err := q.buf.Write(frame); err != nil {
			return
		}
	}
	q.buf.Flush()
	q.buffered++

	if q.buffered > q.max {
		drop := q.superframeLen
		if drop > q.buffered {
			drop = q.buffered
		}
		for i := 0; i < drop; i++ {
			chunk, err := q.buf.Next(0)
			if err != nil {
				break
			}
			chunk.Close()
			q.buffered--
		}
		q.overruns++
		if q.fsm != nil {
			q.fsm.RecordGlitch()
		}
	}

	if q.prebuffering && q.buffered >= q.threshold {
		q.prebuffering = false
	}
	if q.fsm != nil {
		q.fsm.RecordFill(q.buffered)
	}
}

// Pop returns the next frame's bytes, or a zero-filled slice of size
// frameLen while Prebuffering (either because the ring is empty, or it has
// not yet refilled to threshold after an underrun).
func (q *Queue) Pop(frameLen int) []byte {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.prebuffering || q.buffered == 0 {
		if q.buffered == 0 {
			q.prebuffering = true
			q.underruns++
			if q.fsm != nil {
				q.fsm.RecordGlitch()
				q.fsm.RecordFill(0)
			}
		}
		return make([]byte, frameLen)
	}

	chunk, err := q.buf.Next(queueTimeout)
	if err != nil {
		q.prebuffering = true
		q.underruns++
		if q.fsm != nil {
			q.fsm.RecordGlitch()
			q.fsm.RecordFill(q.buffered)
		}
		return make([]byte, frameLen)
	}
	f := append([]byte(nil), chunk.Bytes()...)
	chunk.Close()
	q.buffered--
	if q.fsm != nil {
		q.fsm.RecordFill(q.buffered)
	}
	return f
}

// Stats returns the accumulated underrun/overrun counters.
func (q *Queue) Stats() (underruns, overruns uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.underruns, q.overruns
}

// Reset empties the queue and returns it to the initial Prebuffering
// state, used to validate idempotence (§8 P7: enable/disable leaves the
// queue empty and the FSM in NoData).
func (q *Queue) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.buf = pool.NewBuffer(q.max, q.elementSize, queueTimeout)
	q.buffered = 0
	q.prebuffering = true
	if q.fsm != nil {
		q.fsm.mu.Lock()
		q.fsm.everSeenData = false
		q.fsm.lastNonEmpty = time.Time{}
		q.fsm.state = NoData
		q.fsm.mu.Unlock()
	}
}
