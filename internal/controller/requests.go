package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/npratt/walletshell/internal/events"
)

// requestDownload starts the update download without blocking the loop.
// Failures are logged; progress or quit notifications decide what happens
// next.
func (c *Controller) requestDownload(ctx context.Context, version string) {
	go func() {
		err := c.timed(events.RequestDownload, version, func() error {
			return c.updates.Download(ctx, version)
		})
		if err != nil {
			c.logger.Error("update download request failed", "version", version, "error", err)
		}
	}()
}

// shutdown stops the daemon and, when version is set, hands over to the
// installer. A failed stop never blocks the install. The result is posted
// to the loop, which exits on it.
func (c *Controller) shutdown(ctx context.Context, version string) {
	stopCtx, cancel := context.WithTimeout(ctx, c.stopTimeout)
	err := c.timed(events.RequestStopDaemon, "", func() error {
		return c.daemon.Stop(stopCtx)
	})
	cancel()
	if err != nil {
		c.logger.Error("daemon stop failed", "install_pending", version != "", "error", err)
	}

	if version == "" {
		c.teardown <- nil
		return
	}

	err = c.timed(events.RequestQuitInstall, version, func() error {
		return c.updates.QuitAndInstall(ctx, version)
	})
	if err != nil {
		c.logger.Error("quit and install failed", "version", version, "error", err)
		c.teardown <- fmt.Errorf("quit and install %s: %w", version, err)
		return
	}
	c.logger.Info("handed over to installer", "version", version)
	c.teardown <- nil
}

// timed runs fn and records it as a request event.
func (c *Controller) timed(request, version string, fn func() error) error {
	start := time.Now()
	err := fn()
	ev := &events.RequestEvent{
		BaseEvent:  events.NewInternalEvent(events.EventRequest),
		Request:    request,
		Version:    version,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	c.emit(ev)
	return err
}
