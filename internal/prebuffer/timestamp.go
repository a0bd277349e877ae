/*
DESCRIPTION
  timestamp.go implements the Timestamped queue policy (spec.md §4.E): each
  frame carries an explicit release time (derived from the input's embedded
  EDI-seconds/UTCO/TIST fields) and is only handed to the assembler once
  that time is due, rather than being released in pure arrival order as the
  Prebuffering policy does.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package prebuffer

import (
	"sort"
	"sync"
	"time"
)

// tsFrame is one frame awaiting its release time.
type tsFrame struct {
	release time.Time
	data    []byte
}

// TimestampQueue releases frames only once their embedded release time is
// due, discarding frames whose release time has already passed by more
// than staleAfter (a receiver too far behind to usefully deliver them).
type TimestampQueue struct {
	mu sync.Mutex

	frames     []tsFrame
	staleAfter time.Duration

	fsm *FSM
}

// NewTimestampQueue returns a TimestampQueue that drops frames whose
// release time is more than staleAfter in the past at Pop time.
func NewTimestampQueue(staleAfter time.Duration, fsm *FSM) *TimestampQueue {
	return &TimestampQueue{staleAfter: staleAfter, fsm: fsm}
}

// Push enqueues a frame for release at the given time, keeping the
// internal slice ordered by release time (network arrival order need not
// match release order).
func (q *TimestampQueue) Push(release time.Time, data []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()

	cp := append([]byte(nil), data...)
	f := tsFrame{release: release, data: cp}

	i := sort.Search(len(q.frames), func(i int) bool { return q.frames[i].release.After(release) })
	q.frames = append(q.frames, tsFrame{})
	copy(q.frames[i+1:], q.frames[i:])
	q.frames[i] = f

	if q.fsm != nil {
		q.fsm.RecordFill(len(q.frames))
	}
}

// Pop returns the frame due at now, a zero-filled slice of frameLen if the
// head frame's release time has not yet arrived, or the head frame
// (discarding anything staler behind it) if it is already due.
func (q *TimestampQueue) Pop(now time.Time, frameLen int) []byte {
	q.mu.Lock()
	defer q.mu.Unlock()

	// Drop anything that fell too far behind; it will never be useful.
	for len(q.frames) > 0 && now.Sub(q.frames[0].release) > q.staleAfter {
		q.frames = q.frames[1:]
		if q.fsm != nil {
			q.fsm.RecordGlitch()
		}
	}

	if len(q.frames) == 0 || q.frames[0].release.After(now) {
		if q.fsm != nil {
			q.fsm.RecordFill(len(q.frames))
		}
		return make([]byte, frameLen)
	}

	f := q.frames[0]
	q.frames = q.frames[1:]
	if q.fsm != nil {
		q.fsm.RecordFill(len(q.frames))
	}
	return f.data
}

// Reset empties the queue.
func (q *TimestampQueue) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.frames = nil
}
