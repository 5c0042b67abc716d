package cmdutil

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vm2r/sds/pkg/logutil"
)

// SignalRootContext returns a copy of ctx that gets cancelled on SIGINT or
// SIGTERM. ctx should already carry the logger, since the signal handling
// logs through it.
func SignalRootContext(ctx context.Context) context.Context {
	return SignalContext(ctx, syscall.SIGINT, syscall.SIGTERM)
}

// SignalContext returns a copy of the parent context that gets cancelled if
// the application gets any of the given signals. Running processes receive
// an interrupt through executil.Run then.
func SignalContext(ctx context.Context, signals ...os.Signal) context.Context {
	ctx, cancel := context.WithCancel(ctx)

	c := make(chan os.Signal, 1)
	signal.Notify(c, signals...)

	go func() {
		log := logutil.Get(ctx).At("cmdutil.SignalContext")

		sig := <-c
		log.Debug(fmt.Sprintf("received signal '%v'", sig))
		cancel()

		sig = <-c
		log.Debug(fmt.Sprintf("received signal '%v'", sig))
		fmt.Fprintln(os.Stderr, "Two interrupts received. Exiting immediately.")
		os.Exit(ExitCodeMultipleInterrupts)
	}()

	return ctx
}
