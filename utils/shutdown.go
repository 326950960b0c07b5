package utils

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("utils")

// MonitorShutdown cancels the returned context on SIGTERM, SIGINT or when
// triggerCh is closed. The returned channel is closed once cancellation is
// done.
func MonitorShutdown(ctx context.Context, triggerCh <-chan struct{}) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(ctx)
	sigCh := make(chan os.Signal, 2)
	out := make(chan struct{})

	go func() {
		defer signal.Stop(sigCh)
		select {
		case sig := <-sigCh:
			log.Warnw("received shutdown", "signal", sig)
		case <-triggerCh:
			log.Warn("received shutdown")
		case <-ctx.Done():
		}

		cancel()

		// Sync all loggers.
		_ = log.Sync() //nolint:errcheck
		close(out)
	}()

	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	return ctx, out
}
