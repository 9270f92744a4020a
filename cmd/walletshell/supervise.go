package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/npratt/walletshell/internal/events"
	"github.com/npratt/walletshell/internal/lifecycle"
)

// daemonProcess is the part of walletd.Handle the supervisor drives.
type daemonProcess interface {
	Managed() bool
	Start(ctx context.Context) error
	WaitReady(ctx context.Context) error
	Exited() <-chan struct{}
}

// lifecycleSink receives daemon notifications.
type lifecycleSink interface {
	Deliver(ctx context.Context, e lifecycle.Event) error
	Quitting() <-chan struct{}
}

// supervisor ties the wallet daemon process to the lifecycle controller.
type supervisor struct {
	daemon daemonProcess
	router *events.Router
	logger *slog.Logger
}

func newSupervisor(d daemonProcess, router *events.Router, logger *slog.Logger) *supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &supervisor{daemon: d, router: router, logger: logger}
}

// start spawns a managed daemon and journals the request.
func (s *supervisor) start(ctx context.Context) error {
	if !s.daemon.Managed() {
		return nil
	}
	began := time.Now()
	err := s.daemon.Start(ctx)
	ev := &events.RequestEvent{
		BaseEvent:  events.NewEvent(events.EventRequest, events.SourceDaemon),
		Request:    events.RequestDaemonStartup,
		DurationMs: time.Since(began).Milliseconds(),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	s.router.Emit(ev)
	return err
}

// awaitReady delivers daemon-ready once the daemon reports STARTED.
func (s *supervisor) awaitReady(ctx context.Context, sink lifecycleSink) {
	if err := s.daemon.WaitReady(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("daemon did not become ready", "error", err)
		s.fail("daemon did not become ready: "+err.Error())
		return
	}
	if err := sink.Deliver(ctx, lifecycle.Event{Kind: lifecycle.EventDaemonReady}); err != nil && ctx.Err() == nil {
		s.logger.Warn("deliver daemon-ready failed", "error", err)
	}
}

// watchExit reports a managed daemon that exits before the shell quits.
func (s *supervisor) watchExit(ctx context.Context, sink lifecycleSink) {
	if !s.daemon.Managed() {
		return
	}
	select {
	case <-ctx.Done():
		return
	case <-sink.Quitting():
		return
	case <-s.daemon.Exited():
	}
	// Teardown closes Quitting before it stops the daemon.
	select {
	case <-sink.Quitting():
		return
	default:
	}
	s.logger.Error("daemon exited unexpectedly")
	s.fail("daemon exited unexpectedly")
}

func (s *supervisor) fail(msg string) {
	s.router.Emit(&events.ErrorEvent{
		BaseEvent: events.NewEvent(events.EventError, events.SourceDaemon),
		Message:   msg,
		Severity:  events.SeverityError,
	})
}
