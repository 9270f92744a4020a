// Package shutdown turns process signals into an orderly quit.
package shutdown

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// Quitter is asked to shut down when the first signal arrives.
type Quitter interface {
	RequestQuit(ctx context.Context) error
}

// RunWithGracefulShutdown runs fn until it returns. The first SIGINT or
// SIGTERM asks q to quit and gives fn up to timeout to finish on its own;
// a second signal or the timeout cancels fn's context.
func RunWithGracefulShutdown(
	ctx context.Context,
	logger *slog.Logger,
	timeout time.Duration,
	q Quitter,
	fn func(ctx context.Context) error,
) error {
	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	return run(ctx, logger, timeout, q, fn, sigChan)
}

func run(
	ctx context.Context,
	logger *slog.Logger,
	timeout time.Duration,
	q Quitter,
	fn func(ctx context.Context) error,
	sigChan <-chan os.Signal,
) error {
	runCtx, runCancel := context.WithCancel(ctx)
	defer runCancel()

	runDone := make(chan error, 1)
	go func() {
		runDone <- fn(runCtx)
	}()

	select {
	case err := <-runDone:
		return err
	case sig := <-sigChan:
		logger.Info("received signal, quitting", "signal", sig)
		if err := q.RequestQuit(ctx); err != nil {
			logger.Warn("quit request failed, cancelling", "error", err)
			runCancel()
		}
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		select {
		case err := <-runDone:
			if errors.Is(err, context.Canceled) {
				err = nil
			}
			logger.Info("shutdown complete")
			return err
		case sig := <-sigChan:
			logger.Warn("second signal, forcing shutdown", "signal", sig)
			runCancel()
		case <-deadline.C:
			logger.Warn("shutdown timeout exceeded, forcing shutdown", "timeout", timeout)
			runCancel()
		}
	}
}
