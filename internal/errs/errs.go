/*
DESCRIPTION
  errs.go defines the three error classes named in spec.md §7: invalid
  configuration/startup state exits 1, runtime-fatal conditions exit 2,
  and everything else (runtime-transient glitches) is logged and counted
  in place rather than typed at all. ConfigError/FatalError wrap a cause
  with github.com/pkg/errors.Wrap, the same annotate-while-preserving-cause
  convention container/mts and device use in the teacher repo for exactly
  this kind of boundary error.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package errs defines the ConfigError/FatalError exit-code classes named
// in spec.md §7.
package errs

import "github.com/pkg/errors"

// Exit codes, per spec.md §7.
const (
	ExitConfig = 1
	ExitFatal  = 2
)

// ConfigError wraps an invalid-configuration-or-startup cause (spec.md §7
// class 1: bad bitrate, duplicate id, missing foreign key, invalid URI,
// missing TAI offset when required).
type ConfigError struct{ cause error }

// NewConfigError wraps cause as a ConfigError, annotated with message.
// cause may be nil, in which case message alone becomes the error text.
func NewConfigError(message string, cause error) *ConfigError {
	return &ConfigError{cause: wrap(message, cause)}
}

func (e *ConfigError) Error() string { return e.cause.Error() }
func (e *ConfigError) Unwrap() error { return e.cause }

// FatalError wraps a runtime-fatal cause (spec.md §7 class 3: an
// impossible invariant violation in the frame assembler, or the output
// layer unable to open any destination).
type FatalError struct{ cause error }

// NewFatalError wraps cause as a FatalError, annotated with message.
// cause may be nil, in which case message alone becomes the error text.
func NewFatalError(message string, cause error) *FatalError {
	return &FatalError{cause: wrap(message, cause)}
}

// wrap behaves like errors.Wrap but tolerates a nil cause, since some
// fatal conditions (e.g. "no output destination opened") have no
// underlying error to annotate.
func wrap(message string, cause error) error {
	if cause == nil {
		return errors.New(message)
	}
	return errors.Wrap(cause, message)
}

func (e *FatalError) Error() string { return e.cause.Error() }
func (e *FatalError) Unwrap() error { return e.cause }

// ExitCode maps err to the process exit code spec.md §7 assigns its
// class: 1 for ConfigError, 2 for FatalError, 1 for anything else reaching
// main (an unclassified startup failure is treated as a config error).
func ExitCode(err error) int {
	switch err.(type) {
	case *FatalError:
		return ExitFatal
	case *ConfigError:
		return ExitConfig
	default:
		return ExitConfig
	}
}
