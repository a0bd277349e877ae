/*
DESCRIPTION
  main.go is dabmux's entry point: it hands off to the cobra command tree
  in root.go and exits non-zero on error, per spec.md §7's exit-code
  convention (ConfigError exits 1, FatalError exits 2; any other run
  failure here falls back to 1).

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Command dabmux assembles a DAB/DAB+ ensemble into ETI-NI and EDI/STI-D
// output frames in real time.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ausocean/dabmux/internal/errs"
)

func main() {
	if err := Execute(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "dabmux:", err)
		os.Exit(errs.ExitCode(err))
	}
}
