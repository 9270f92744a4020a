// Package controller runs the wallet shell lifecycle: it owns the lifecycle
// state, serializes inbound notifications through one queue, drives timers
// and carries out the requests the state machine asks for.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/npratt/walletshell/internal/events"
	"github.com/npratt/walletshell/internal/lifecycle"
	"github.com/npratt/walletshell/internal/viewmodel"
	"github.com/tidwall/gjson"
)

// DaemonHandle is the controller's view of the wallet daemon.
type DaemonHandle interface {
	// Status samples the daemon, wallet and lock states.
	Status(ctx context.Context) (lifecycle.DaemonStatus, error)
	// Stop asks the daemon to shut down and waits for it.
	Stop(ctx context.Context) error
}

// UpdateChannel carries outbound requests to the update service.
type UpdateChannel interface {
	Download(ctx context.Context, version string) error
	QuitAndInstall(ctx context.Context, version string) error
}

// Errors returned by Deliver.
var (
	ErrUnknownEvent = errors.New("unknown event")
	ErrStopped      = errors.New("controller stopped")
)

// DefaultStopTimeout bounds how long teardown waits for the daemon to stop.
const DefaultStopTimeout = 30 * time.Second

// Options configures a Controller.
type Options struct {
	Machine     lifecycle.Machine
	StopTimeout time.Duration
	QueueSize   int
	Version     string
}

// envelope is one item on the controller queue. Timer deliveries carry the
// generation they were armed in and are discarded once it is stale.
type envelope struct {
	event   lifecycle.Event
	timer   bool
	timerID uint64
	gen     uint64
}

// Controller owns the lifecycle state. All transitions happen on the
// goroutine running Run.
type Controller struct {
	machine     lifecycle.Machine
	daemon      DaemonHandle
	updates     UpdateChannel
	router      *events.Router
	logger      *slog.Logger
	stopTimeout time.Duration
	version     string
	status      lifecycle.DaemonStatus

	inbox chan envelope
	done  chan struct{}

	state   lifecycle.State
	stateMu sync.RWMutex

	// Loop-owned.
	timers   map[uint64]*time.Timer
	timerSeq uint64
	timerGen uint64
	teardown chan error

	quitting chan struct{}
	quitOnce sync.Once
}

// New samples the daemon once and derives the initial state from it.
func New(ctx context.Context, opts Options, daemon DaemonHandle, updates UpdateChannel, router *events.Router, logger *slog.Logger) (*Controller, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Machine == (lifecycle.Machine{}) {
		opts.Machine = lifecycle.NewMachine()
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = DefaultStopTimeout
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}

	status, err := daemon.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("sample daemon status: %w", err)
	}

	return &Controller{
		machine:     opts.Machine,
		daemon:      daemon,
		updates:     updates,
		router:      router,
		logger:      logger,
		stopTimeout: opts.StopTimeout,
		version:     opts.Version,
		status:      status,
		inbox:       make(chan envelope, opts.QueueSize),
		done:        make(chan struct{}),
		state:       lifecycle.Initial(status),
		timers:      make(map[uint64]*time.Timer),
		teardown:    make(chan error, 1),
		quitting:    make(chan struct{}),
	}, nil
}

// State returns a copy of the current lifecycle state.
func (c *Controller) State() lifecycle.State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// Snapshot returns the display snapshot of the current state.
func (c *Controller) Snapshot() viewmodel.Snapshot {
	return viewmodel.FromState(c.State())
}

// Quitting is closed once the controller enters the quitting phase.
func (c *Controller) Quitting() <-chan struct{} {
	return c.quitting
}

// Deliver queues an inbound notification. It blocks only while the queue is
// full and fails once Run has returned.
func (c *Controller) Deliver(ctx context.Context, e lifecycle.Event) error {
	if !e.Kind.Valid() {
		c.logger.Warn("rejected notification", "kind", e.Kind)
		return fmt.Errorf("deliver %q: %w", e.Kind, ErrUnknownEvent)
	}
	// The inbox may still have room after Run returns.
	select {
	case <-c.done:
		return ErrStopped
	default:
	}
	select {
	case c.inbox <- envelope{event: e}:
		return nil
	case <-c.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LoginComplete reports that the user unlocked the wallet.
func (c *Controller) LoginComplete(ctx context.Context) error {
	return c.Deliver(ctx, lifecycle.Event{Kind: lifecycle.EventLoginComplete})
}

// RequestQuit asks the shell to shut down.
func (c *Controller) RequestQuit(ctx context.Context) error {
	return c.Deliver(ctx, lifecycle.Event{Kind: lifecycle.EventQuitRequested})
}

// Run processes notifications until teardown finishes or ctx is canceled.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.done)
	defer c.stopTimers()

	initial := c.State()
	c.emit(&events.ShellStartEvent{
		BaseEvent:    events.NewInternalEvent(events.EventShellStart),
		Version:      c.version,
		DaemonState:  string(c.status.DaemonState),
		WalletState:  string(c.status.WalletState),
		LockState:    string(c.status.LockState),
		InitialPhase: initial.Phase.String(),
	})
	c.emit(stateChanged(initial, initial))
	c.logger.Info("lifecycle started",
		"phase", initial.Phase,
		"daemon_state", c.status.DaemonState,
		"wallet_state", c.status.WalletState,
		"lock_state", c.status.LockState,
	)

	for {
		select {
		case <-ctx.Done():
			c.stop("context cancelled")
			return nil
		case env := <-c.inbox:
			c.handle(ctx, env)
		case err := <-c.teardown:
			if err != nil {
				c.stop("teardown failed")
				return err
			}
			c.stop("quit")
			return nil
		}
	}
}

func (c *Controller) stop(reason string) {
	c.emit(&events.ShellStopEvent{
		BaseEvent: events.NewInternalEvent(events.EventShellStop),
		Reason:    reason,
	})
	c.logger.Info("lifecycle stopped", "reason", reason)
}

func (c *Controller) handle(ctx context.Context, env envelope) {
	if env.timer {
		delete(c.timers, env.timerID)
		if env.gen != c.timerGen {
			c.logger.Debug("discarding stale timer", "kind", env.event.Kind)
			return
		}
	}

	if !env.timer {
		c.emit(notification(env.event))
	}
	c.logger.Debug("handling notification", "kind", env.event.Kind, "timer", env.timer)

	prev := c.State()
	next, effects := c.machine.Transition(prev, env.event)
	c.setState(prev, next)

	install := ""
	for _, eff := range effects {
		switch eff := eff.(type) {
		case lifecycle.RequestDownload:
			c.requestDownload(ctx, eff.Version)
		case lifecycle.RetryLater:
			c.logger.Debug("deferring notification", "kind", eff.Event.Kind, "delay", eff.Delay, "phase", prev.Phase)
			c.arm(eff.Delay, eff.Event)
		case lifecycle.CancelTimers:
			c.stopTimers()
		case lifecycle.ArmSlowQuitNotice:
			c.arm(eff.Delay, lifecycle.Event{Kind: lifecycle.EventSlowQuitNotice})
		case lifecycle.InstallUpdate:
			install = eff.Version
		case lifecycle.Anomaly:
			c.anomaly(eff)
		case lifecycle.Dropped:
			c.logger.Debug("notification ignored", "kind", eff.Event, "phase", eff.Phase, "reason", eff.Reason)
			c.emit(&events.IgnoredEvent{
				BaseEvent: events.NewInternalEvent(events.EventIgnored),
				Kind:      string(eff.Event),
				Phase:     eff.Phase.String(),
				Reason:    eff.Reason,
			})
		}
	}

	if prev.Phase != lifecycle.PhaseQuitting && next.Phase == lifecycle.PhaseQuitting {
		c.quitOnce.Do(func() { close(c.quitting) })
		go c.shutdown(context.WithoutCancel(ctx), install)
	}
}

func (c *Controller) setState(prev, next lifecycle.State) {
	if prev == next {
		return
	}
	c.stateMu.Lock()
	c.state = next
	c.stateMu.Unlock()

	c.logger.Info("state changed", "from", prev.Phase, "to", next.Phase, "status", next.StatusText)
	c.emit(stateChanged(prev, next))
}

func (c *Controller) anomaly(a lifecycle.Anomaly) {
	attrs := []any{"kind", a.Event, "phase", a.Phase, "reason", a.Reason}
	ev := &events.AnomalyEvent{
		BaseEvent: events.NewInternalEvent(events.EventAnomaly),
		Kind:      string(a.Event),
		Phase:     a.Phase.String(),
		Reason:    a.Reason,
	}
	if a.Err != nil {
		attrs = append(attrs, "error", a.Err)
		ev.Error = a.Err.Error()
	}
	c.logger.Warn("lifecycle anomaly", attrs...)
	c.emit(ev)
}

// arm schedules e for redelivery in the current timer generation.
func (c *Controller) arm(delay time.Duration, e lifecycle.Event) {
	c.timerSeq++
	env := envelope{event: e, timer: true, timerID: c.timerSeq, gen: c.timerGen}
	c.timers[env.timerID] = time.AfterFunc(delay, func() {
		select {
		case c.inbox <- env:
		case <-c.done:
		}
	})
}

// stopTimers cancels every pending timer. Deliveries already queued are
// discarded by the generation check.
func (c *Controller) stopTimers() {
	c.timerGen++
	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
	}
}

func (c *Controller) emit(e events.Event) {
	if c.router != nil {
		c.router.Emit(e)
	}
}

func stateChanged(prev, next lifecycle.State) *events.StateChangedEvent {
	snap := viewmodel.FromState(next)
	return &events.StateChangedEvent{
		BaseEvent:      events.NewInternalEvent(events.EventStateChanged),
		From:           prev.Phase.String(),
		To:             snap.Phase,
		Ready:          snap.Ready,
		StatusText:     snap.StatusText,
		StatusSubtext:  snap.StatusSubtext,
		PendingVersion: snap.PendingVersion,
	}
}

func notification(e lifecycle.Event) *events.NotificationEvent {
	src := events.SourceDaemon
	switch e.Kind {
	case lifecycle.EventUpdateFound, lifecycle.EventUpdateProgress, lifecycle.EventUpdateDownloaded:
		src = events.SourceUpdater
	case lifecycle.EventLoginComplete, lifecycle.EventQuitRequested:
		src = events.SourceUser
	}
	ev := &events.NotificationEvent{
		BaseEvent: events.NewEvent(events.EventNotification, src),
		Kind:      string(e.Kind),
	}
	if len(e.Payload) > 0 && gjson.ValidBytes(e.Payload) {
		ev.Payload = e.Payload
	}
	return ev
}
