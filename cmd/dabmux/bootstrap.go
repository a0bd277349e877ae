/*
DESCRIPTION
  bootstrap.go reads the one JSON document dabmux is launched with: the
  already-validated ensemble description plus the flat operational knobs
  of config.Config and the output transports to wire up. This is glue, not
  the configuration-file parser named out of scope by spec.md §1 — there
  is no key/value tree, no TOML/INI grammar, and no incremental reload;
  encoding/json simply decodes straight onto ensemble.Ensemble's exported
  fields the way internal/stats/server.go already decodes remote-control
  requests, because the real parser and its live-reload machinery are an
  external collaborator this command is handed a finished result by.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ausocean/dabmux/internal/edi"
	"github.com/ausocean/dabmux/internal/ensemble"
)

// etiOutputConfig describes one concrete ETI output transport. Concrete
// transports are out of scope beyond their byte-oriented write contract
// (spec.md §1); these three are the minimum needed to run dabmux at all.
type etiOutputConfig struct {
	Type string `json:"type"` // "file", "udp" or "tcp".
	Addr string `json:"addr"` // Path for "file", host:port for udp/tcp.
}

// ediDestinationConfig mirrors edi.DestinationConfig with a JSON-friendly
// string protocol field in place of edi.Protocol's int encoding.
type ediDestinationConfig struct {
	Protocol string `json:"protocol"` // "udp" or "tcp".
	Addr     string `json:"addr"`
	TTL      int    `json:"ttl"`
	QueueLen int    `json:"queue_len"`
}

func (c ediDestinationConfig) toDestinationConfig() (edi.DestinationConfig, error) {
	var proto edi.Protocol
	switch c.Protocol {
	case "udp":
		proto = edi.UDP
	case "tcp":
		proto = edi.TCP
	default:
		return edi.DestinationConfig{}, fmt.Errorf("bootstrap: unknown edi destination protocol %q", c.Protocol)
	}
	return edi.DestinationConfig{Protocol: proto, Addr: c.Addr, TTL: c.TTL, QueueLen: c.QueueLen}, nil
}

// ediOutputConfig configures the optional EDI emitter (§4.I). A nil
// pointer in bootstrapDoc means EDI output is disabled entirely.
type ediOutputConfig struct {
	AFCRC        bool                   `json:"af_crc"`
	PFTEnabled   bool                   `json:"pft_enabled"`
	ChunkLen     int                    `json:"chunk_len"`
	FEC          int                    `json:"fec"`
	LatencyMs    int                    `json:"latency_ms"`
	ChunkDurMs   int                    `json:"chunk_dur_ms"`
	Destinations []ediDestinationConfig `json:"destinations"`
}

// runConfig is the flat set of operational knobs config.Config models,
// decoded under the "config" key.
type runConfig struct {
	FrameLimit       uint64 `json:"frame_limit"`
	Verbosity        int8   `json:"verbosity"`
	Syslog           bool   `json:"syslog"`
	LogPath          string `json:"log_path"`
	RCAddress        string `json:"rc_address"`
	StatsInterval    uint64 `json:"stats_interval"`
	TISTOffset       int    `json:"tist_offset"`
	RequireTAIOffset bool   `json:"require_tai_offset"`

	// TAIOffsetSeconds is the already-resolved TAI-UTC leap-second offset,
	// supplied by the external management layer the same way the embedded
	// ensemble arrives already validated (spec.md §1). A nil value with
	// RequireTAIOffset set means the offset was never supplied at all.
	TAIOffsetSeconds *int `json:"tai_offset_seconds,omitempty"`
}

// bootstrapDoc is the single JSON document dabmux loads at startup.
type bootstrapDoc struct {
	Ensemble   ensemble.Ensemble `json:"ensemble"`
	Config     runConfig         `json:"config"`
	ETIOutputs []etiOutputConfig `json:"eti_outputs"`
	EDI        *ediOutputConfig  `json:"edi"`
}

// loadBootstrap reads and decodes the bootstrap document at path, then
// validates the embedded ensemble so every downstream component can trust
// its slot-allocation and uid-reference invariants (ensemble.Validate,
// spec.md §3).
func loadBootstrap(path string) (*bootstrapDoc, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: could not open %q: %w", path, err)
	}
	defer f.Close()

	var doc bootstrapDoc
	if err := json.NewDecoder(f).Decode(&doc); err != nil {
		return nil, fmt.Errorf("bootstrap: could not decode %q: %w", path, err)
	}
	if err := doc.Ensemble.Validate(); err != nil {
		return nil, fmt.Errorf("bootstrap: invalid ensemble: %w", err)
	}
	return &doc, nil
}
