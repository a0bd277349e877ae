/*
DESCRIPTION
  prometheus.go publishes the registry's per-input statistics as
  Prometheus gauges and counters, alongside the JSON `values` snapshot
  (spec.md §4.J). The metric set and the CounterVec/GaugeVec-per-uid
  shape follow metrics/prometheus.go in the USA-RedDragon-DMRHub example,
  substituting dabmux's fill/peak/glitch/state fields for DMRHub's KV
  store counters.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package stats

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PromExporter mirrors a Registry's snapshots onto Prometheus
// gauges/counters on request, rather than updating them inline on every
// RecordFill/RecordAudioPeak call, so the hot per-frame path never pays
// for a label lookup it doesn't need.
type PromExporter struct {
	reg *Registry

	minFill     *prometheus.GaugeVec
	maxFill     *prometheus.GaugeVec
	peakShort   *prometheus.GaugeVec
	peakLong    *prometheus.GaugeVec
	underruns   *prometheus.GaugeVec
	overruns    *prometheus.GaugeVec
	state       *prometheus.GaugeVec
	muxFrames   prometheus.Gauge
	muxTISTOff  prometheus.Gauge
}

// NewPromExporter registers dabmux's statistics metrics against reg and
// the given Prometheus registerer (use prometheus.DefaultRegisterer for
// the process-wide registry).
func NewPromExporter(reg *Registry, registerer prometheus.Registerer) *PromExporter {
	e := &PromExporter{
		reg: reg,
		minFill: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dabmux_input_min_fill",
			Help: "Minimum buffer fill level (frames) over the trailing 30s window.",
		}, []string{"uid"}),
		maxFill: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dabmux_input_max_fill",
			Help: "Maximum buffer fill level (frames) over the trailing 30s window.",
		}, []string{"uid"}),
		peakShort: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dabmux_input_peak_short_dbfs",
			Help: "Peak audio level (dBFS) over the trailing 500ms window.",
		}, []string{"uid"}),
		peakLong: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dabmux_input_peak_long_dbfs",
			Help: "Peak audio level (dBFS) over the trailing 5 minute window.",
		}, []string{"uid"}),
		underruns: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dabmux_input_underruns_total",
			Help: "Cumulative underrun count.",
		}, []string{"uid"}),
		overruns: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dabmux_input_overruns_total",
			Help: "Cumulative overrun count.",
		}, []string{"uid"}),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dabmux_input_state",
			Help: "Input liveness state (0=no-data,1=unstable,2=silence,3=streaming).",
		}, []string{"uid"}),
		muxFrames: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dabmux_frames_total",
			Help: "Frames emitted since startup.",
		}),
		muxTISTOff: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dabmux_tist_offset_seconds",
			Help: "Current runtime TIST offset in seconds.",
		}),
	}
	registerer.MustRegister(e.minFill, e.maxFill, e.peakShort, e.peakLong,
		e.underruns, e.overruns, e.state, e.muxFrames, e.muxTISTOff)
	return e
}

// stateValue maps an input's State() string to the gauge encoding
// documented on the dabmux_input_state metric.
func stateValue(s string) float64 {
	switch s {
	case "no-data":
		return 0
	case "unstable":
		return 1
	case "silence":
		return 2
	case "streaming":
		return 3
	default:
		return -1
	}
}

// Collect pulls the registry's current snapshot into the Prometheus
// gauges. Call this periodically (Server.Broadcast calls it on each
// broadcast) rather than on every frame.
func (e *PromExporter) Collect(now time.Time) {
	for _, v := range e.reg.Values(now) {
		e.minFill.WithLabelValues(v.UID).Set(float64(v.MinFill))
		e.maxFill.WithLabelValues(v.UID).Set(float64(v.MaxFill))
		e.peakShort.WithLabelValues(v.UID).Set(v.PeakShortDBFS)
		e.peakLong.WithLabelValues(v.UID).Set(v.PeakLongDBFS)
		e.underruns.WithLabelValues(v.UID).Set(float64(v.Underruns))
		e.overruns.WithLabelValues(v.UID).Set(float64(v.Overruns))
		e.state.WithLabelValues(v.UID).Set(stateValue(v.State))
	}
	e.muxFrames.Set(float64(e.reg.Frames()))
	e.muxTISTOff.Set(float64(e.reg.TISTOffset()))
}
