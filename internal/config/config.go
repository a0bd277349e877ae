/*
DESCRIPTION
  config.go holds the operational configuration for a multiplexer run: log
  verbosity, frame limit, remote-control bind address and the TAI offset
  source. Parsing of the ensemble description itself (the hierarchical
  key/value tree of §6) is an external collaborator; this package only
  describes the flat, already-validated knobs the main loop and its
  immediate collaborators need.

AUTHORS
  (see TEACHER.txt / DESIGN.md for provenance)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package config holds the flat operational configuration for the dabmux
// main loop, separate from the ensemble model it is used to construct.
package config

import (
	"fmt"
	"strconv"
	"time"
)

// Config map keys, used by Update when applying remote-control variables.
const (
	KeyTISTOffset    = "TISTOffset"
	KeyFrameLimit    = "FrameLimit"
	KeyVerbosity     = "Verbosity"
	KeySyslog        = "Syslog"
	KeyRCAddress     = "RCAddress"
	KeyStatsInterval = "StatsInterval"
)

// Verbosity levels, mirroring the teacher's logging.Logger level constants.
const (
	LogDebug int8 = iota - 1
	LogInfo
	LogWarning
	LogError
)

// Config holds operational parameters for a dabmux run.
type Config struct {
	// EnsembleFile is the path to the (externally parsed) ensemble
	// description. The parser itself is out of scope; dabmux is handed a
	// ready ensemble.Ensemble by its caller.
	EnsembleFile string

	// FrameLimit is the number of 24ms frames to emit before exiting with
	// code 0. Zero means run until signalled.
	FrameLimit uint64

	// Verbosity is the minimum log level that will be emitted.
	Verbosity int8

	// Syslog enables syslog-style (rotating file) logging in addition to
	// stderr.
	Syslog bool

	// LogPath is the rotating log file path used when Syslog is true.
	LogPath string

	// RCAddress is the bind address for the remote-control/statistics
	// request-reply surface (§4.J). Empty disables it.
	RCAddress string

	// StatsInterval is carried in the runtime configuration and its
	// published snapshot. No code reads it to schedule statistics
	// broadcasts; cmd/dabmux broadcasts on every liveness check.
	StatsInterval uint64

	// TISTOffset is the runtime-settable seconds offset applied to the
	// TIST field (§4.A).
	TISTOffset int

	// RequireTAIOffset forces startup to fail if the TAI-UTC offset table
	// can't be loaded; set true whenever EDI-with-TIST or ZMQ metadata
	// output is configured (§4.A, §5).
	RequireTAIOffset bool
}

// Default returns a Config with the teacher-style sane defaults.
func Default() Config {
	return Config{
		Verbosity:     LogInfo,
		StatsInterval: 25,
	}
}

// Update applies string-keyed remote-control variables to the config,
// mirroring revid/config's Update(vars map[string]string) pattern: only
// recognised keys are applied, and a bad value for a recognised key is an
// error rather than being silently ignored.
func (c *Config) Update(vars map[string]string) error {
	for k, v := range vars {
		switch k {
		case KeyTISTOffset:
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", k, err)
			}
			c.TISTOffset = n
		case KeyFrameLimit:
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", k, err)
			}
			c.FrameLimit = n
		case KeyVerbosity:
			n, err := strconv.ParseInt(v, 10, 8)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", k, err)
			}
			c.Verbosity = int8(n)
		case KeySyslog:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", k, err)
			}
			c.Syslog = b
		case KeyRCAddress:
			c.RCAddress = v
		case KeyStatsInterval:
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", k, err)
			}
			c.StatsInterval = n
		default:
			return fmt.Errorf("unrecognised config variable: %s", k)
		}
	}
	return nil
}

// FrameInterval is the fixed DAB transmission frame cadence (§1, §8 P1).
const FrameInterval = 24 * time.Millisecond
