/*
DESCRIPTION
  signal.go implements the clean-shutdown / ignore-SIGPIPE signal
  handling named in spec.md §4.K and §5 ("A SIGINT/SIGTERM/SIGHUP cleanly
  ends the loop; SIGPIPE is ignored"). The context-cancel-on-signal shape
  follows the dbehnke-ysf2dmr example's main(): a buffered signal channel
  feeding a cancel func, rather than a bespoke shutdown broadcaster.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package muxloop

import (
	"context"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"

	"github.com/ausocean/dabmux/internal/xlog"
)

// WithSignalHandling returns a context that is cancelled when the
// process receives SIGINT, SIGTERM or SIGHUP, and a stop func the caller
// must call (typically via defer) to release the underlying signal
// notification. SIGPIPE is explicitly ignored so a broken output
// connection surfaces as a write error instead of terminating the
// process (spec.md §5).
func WithSignalHandling(parent context.Context, log xlog.Logger) (ctx context.Context, stop func()) {
	signal.Ignore(unix.SIGPIPE)

	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, unix.SIGINT, unix.SIGTERM, unix.SIGHUP)

	done := make(chan struct{})
	go func() {
		select {
		case sig := <-sigCh:
			log.Info("muxloop: received signal, shutting down", "signal", sig.String())
			cancel()
		case <-done:
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		close(done)
		cancel()
	}
}
