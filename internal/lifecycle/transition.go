package lifecycle

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Default timings.
const (
	DefaultUpdateRetryInterval = time.Second
	DefaultSlowQuitDelay       = 3 * time.Second
)

// Machine holds the timing parameters of the state machine.
type Machine struct {
	// UpdateRetryInterval is how long an update-found notification waits
	// before being re-checked while the login gate is unresolved.
	UpdateRetryInterval time.Duration
	// SlowQuitDelay is how long shutdown may take before the slow-quit
	// notice is shown.
	SlowQuitDelay time.Duration
}

// NewMachine returns a Machine with the default timings.
func NewMachine() Machine {
	return Machine{
		UpdateRetryInterval: DefaultUpdateRetryInterval,
		SlowQuitDelay:       DefaultSlowQuitDelay,
	}
}

// Transition applies e to s and returns the resulting state and the effects
// the caller must carry out, in order. It never mutates s.
func (m Machine) Transition(s State, e Event) (State, []Effect) {
	switch e.Kind {
	case EventDaemonReady:
		return m.daemonReady(s)
	case EventUpdateFound:
		return m.updateFound(s, e)
	case EventUpdateProgress:
		return m.updateProgress(s, e)
	case EventUpdateDownloaded:
		return m.updateDownloaded(s)
	case EventQuitRequested:
		if s.Phase == PhaseQuitting {
			return s, dropped(e.Kind, s, "already quitting")
		}
		return m.quit(s)
	case EventLoginComplete:
		return m.loginComplete(s)
	case EventSlowQuitNotice:
		if s.Phase != PhaseQuitting {
			return s, dropped(e.Kind, s, "not quitting")
		}
		s.StatusSubtext = SubtextSlowQuit
		return s, nil
	default:
		return s, anomaly(e.Kind, s, "unknown event", nil)
	}
}

func (m Machine) daemonReady(s State) (State, []Effect) {
	switch s.Phase {
	case PhaseStarting:
		return State{Phase: PhaseLoading}, nil
	case PhaseQuitting:
		return s, dropped(EventDaemonReady, s, "already quitting")
	default:
		return s, anomaly(EventDaemonReady, s, "daemon already reported ready", nil)
	}
}

func (m Machine) updateFound(s State, e Event) (State, []Effect) {
	switch {
	case s.Phase == PhaseQuitting:
		return s, dropped(e.Kind, s, "already quitting")
	case s.Phase.gated():
		return s, []Effect{RetryLater{Delay: m.UpdateRetryInterval, Event: e}}
	case s.Phase == PhaseUpdating:
		return s, anomaly(e.Kind, s, "update already in progress", nil)
	}

	info, err := ParseUpdateInfo(e.Payload)
	if err != nil {
		return s, anomaly(e.Kind, s, "update abandoned", err)
	}

	next := State{
		Phase:         PhaseUpdating,
		StatusText:    fmt.Sprintf("Downloading update %s...", info.Version),
		StatusSubtext: SubtextKeepOpen,
		PendingUpdate: &info,
	}
	return next, []Effect{RequestDownload{Version: info.Version}}
}

func (m Machine) updateProgress(s State, e Event) (State, []Effect) {
	switch s.Phase {
	case PhaseUpdating:
	case PhaseQuitting:
		return s, dropped(e.Kind, s, "already quitting")
	default:
		return s, anomaly(e.Kind, s, "no update in progress", nil)
	}

	progress, err := ParseProgressInfo(e.Payload)
	if err != nil {
		return State{Phase: PhaseReady}, anomaly(e.Kind, s, "update abandoned", err)
	}

	s.StatusText = fmt.Sprintf("Downloading update %s (%s%%)...", s.PendingVersion(), roundPercent(progress.Percent))
	return s, nil
}

func (m Machine) updateDownloaded(s State) (State, []Effect) {
	switch s.Phase {
	case PhaseUpdating:
	case PhaseQuitting:
		return s, dropped(EventUpdateDownloaded, s, "already quitting")
	default:
		return s, anomaly(EventUpdateDownloaded, s, "no update in progress", nil)
	}

	version := s.PendingVersion()
	next, effects := m.quit(s)
	return next, append(effects, InstallUpdate{Version: version})
}

// quit enters PhaseQuitting, abandoning any update workflow.
func (m Machine) quit(State) (State, []Effect) {
	next := State{
		Phase:      PhaseQuitting,
		StatusText: TextClosingDaemon,
	}
	return next, []Effect{
		CancelTimers{},
		ArmSlowQuitNotice{Delay: m.SlowQuitDelay},
	}
}

func (m Machine) loginComplete(s State) (State, []Effect) {
	if !s.AwaitingLogin() {
		return s, anomaly(EventLoginComplete, s, "login not pending", nil)
	}
	return State{Phase: PhaseReady}, nil
}

// roundPercent rounds to the nearest whole percent with ties toward
// positive infinity, so -2.5 gives -2. Values outside 0-100 are rendered
// as-is.
func roundPercent(p float64) string {
	r := math.Round(p)
	if p-r == 0.5 {
		r++
	}
	if r == 0 {
		r = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(r, 'f', 0, 64)
}

func anomaly(kind EventKind, s State, reason string, err error) []Effect {
	return []Effect{Anomaly{Event: kind, Phase: s.Phase, Reason: reason, Err: err}}
}

func dropped(kind EventKind, s State, reason string) []Effect {
	return []Effect{Dropped{Event: kind, Phase: s.Phase, Reason: reason}}
}
