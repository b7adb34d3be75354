// Command trackalign compares GPX recordings of the same route against a base
// recording and writes the synchronised profiles as reports.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// BuildDate can be set at build time via ldflags.
var (
	Version   = "0.0.1"
	BuildDate = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
