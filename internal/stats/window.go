/*
DESCRIPTION
  window.go implements the two rolling-window shapes spec.md §4.J asks the
  statistics registry to maintain per input: a min/max fill-level window
  (30s) and a peak audio-level window sampled over two spans (500ms
  "short", 5min "long"). Both are simple ring buffers of timestamped
  samples that discard anything older than their span on each read,
  mirroring the saturating/decaying counter shape used by
  internal/prebuffer's FSM rather than a general-purpose time series
  library.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package stats

import (
	"math"
	"time"
)

// fillSample is one observation of an input's buffer-fill level.
type fillSample struct {
	at    time.Time
	level int
}

// fillWindow tracks the min/max fill level observed over the trailing
// fillWindowSpan (§4.J "min/max fill levels (30s window)").
const fillWindowSpan = 30 * time.Second

type fillWindow struct {
	samples []fillSample
}

// Add records a fill-level observation, evicting samples older than
// fillWindowSpan.
func (w *fillWindow) Add(now time.Time, level int) {
	w.samples = append(w.samples, fillSample{at: now, level: level})
	w.evict(now)
}

func (w *fillWindow) evict(now time.Time) {
	cutoff := now.Add(-fillWindowSpan)
	i := 0
	for i < len(w.samples) && w.samples[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		w.samples = w.samples[i:]
	}
}

// MinMax returns the minimum and maximum fill level currently in the
// window. Both are zero if no samples remain.
func (w *fillWindow) MinMax(now time.Time) (min, max int) {
	w.evict(now)
	if len(w.samples) == 0 {
		return 0, 0
	}
	min, max = w.samples[0].level, w.samples[0].level
	for _, s := range w.samples[1:] {
		if s.level < min {
			min = s.level
		}
		if s.level > max {
			max = s.level
		}
	}
	return min, max
}

// peakSample is one observation of an audio peak level, in dBFS.
type peakSample struct {
	at    time.Time
	dBFS  float64
}

// Peak spans named by §4.J: short covers bursts, long covers the
// programme-level loudness trend.
const (
	peakShortSpan = 500 * time.Millisecond
	peakLongSpan  = 5 * time.Minute
)

// peakWindow tracks the maximum audio peak seen over two trailing spans
// simultaneously from one stream of samples.
type peakWindow struct {
	samples []peakSample
}

// Add records a peak observation, evicting anything older than the
// longer of the two spans.
func (w *peakWindow) Add(now time.Time, dBFS float64) {
	w.samples = append(w.samples, peakSample{at: now, dBFS: dBFS})
	cutoff := now.Add(-peakLongSpan)
	i := 0
	for i < len(w.samples) && w.samples[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		w.samples = w.samples[i:]
	}
}

// ShortLong returns the peak dBFS over the short and long spans. Both
// are math.Inf(-1) (silence floor) if no samples fall in the span.
func (w *peakWindow) ShortLong(now time.Time) (short, long float64) {
	short, long = math.Inf(-1), math.Inf(-1)
	shortCutoff := now.Add(-peakShortSpan)
	longCutoff := now.Add(-peakLongSpan)
	for _, s := range w.samples {
		if s.at.Before(longCutoff) {
			continue
		}
		if s.dBFS > long {
			long = s.dBFS
		}
		if !s.at.Before(shortCutoff) && s.dBFS > short {
			short = s.dBFS
		}
	}
	return short, long
}
