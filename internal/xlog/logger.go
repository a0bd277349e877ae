/*
DESCRIPTION
  logger.go adapts the Logger interface shared by every package in this
  module onto github.com/ausocean/utils/logging.Logger, the same interface
  revid/revid.go and revid/senders.go thread through the teacher repo. New
  builds the io.Writer logging.New writes through: stderr, and additionally
  a rotating file via gopkg.in/natefinch/lumberjack.v2 when file logging is
  enabled.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package xlog provides the Logger interface used throughout dabmux, backed
// by github.com/ausocean/utils/logging.
package xlog

import (
	"io"
	"os"

	"github.com/ausocean/utils/logging"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log levels, re-exported from ausocean/utils/logging so callers need not
// import that package directly.
const (
	Debug   = logging.Debug
	Info    = logging.Info
	Warning = logging.Warning
	Error   = logging.Error
)

// logSuppress disables logging.Logger's own duplicate-suppression, matching
// the teacher's cmd/looper and cmd/rv entry points, which always pass false:
// dabmux's callers already rate-limit chatty paths (the stats ticker,
// per-frame carousel warnings) themselves.
const logSuppress = false

// Logger is the logging contract used throughout dabmux. It is injected,
// never a package-level singleton (§9 Design Notes: "Global state").
type Logger = logging.Logger

// New returns a Logger that writes to stderr, and additionally to a
// rotating file at logPath when logPath is non-empty.
func New(level int8, logPath string) Logger {
	var w io.Writer = os.Stderr
	if logPath != "" {
		w = io.MultiWriter(w, &lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    50, // MB
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		})
	}
	return logging.New(level, w, logSuppress)
}

// testingT is the subset of *testing.T that TestLogger needs; declared
// locally so this package need not import "testing".
type testingT interface {
	Log(args ...interface{})
	Helper()
}

// TestLogger adapts a *testing.T into a Logger, mirroring
// logging.TestLogger used throughout the teacher's _test.go files.
type TestLogger struct {
	T     testingT
	level int8
}

// NewTestLogger returns a Logger that forwards to t.Log.
func NewTestLogger(t testingT) *TestLogger { return &TestLogger{T: t} }

func (t *TestLogger) SetLevel(level int8) { t.level = level }

func (t *TestLogger) Log(level int8, message string, params ...interface{}) {
	if level < t.level {
		return
	}
	t.T.Helper()
	args := append([]interface{}{message}, params...)
	t.T.Log(args...)
}

func (t *TestLogger) Debug(message string, params ...interface{})   { t.Log(Debug, message, params...) }
func (t *TestLogger) Info(message string, params ...interface{})    { t.Log(Info, message, params...) }
func (t *TestLogger) Warning(message string, params ...interface{}) { t.Log(Warning, message, params...) }
func (t *TestLogger) Error(message string, params ...interface{})   { t.Log(Error, message, params...) }
