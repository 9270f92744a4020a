package lifecycle

import "time"

// EventKind identifies an inbound notification.
type EventKind string

// Inbound notifications. SlowQuitNotice is raised by the controller's own
// timer; everything else comes from the daemon, the update service or the
// user.
const (
	EventDaemonReady      EventKind = "daemon-ready"
	EventUpdateFound      EventKind = "update-found"
	EventUpdateProgress   EventKind = "update-progress"
	EventUpdateDownloaded EventKind = "update-downloaded"
	EventQuitRequested    EventKind = "quit-requested"
	EventLoginComplete    EventKind = "login-complete"
	EventSlowQuitNotice   EventKind = "slow-quit-notice"
)

// Kinds lists the notifications accepted from outside the controller.
var Kinds = []EventKind{
	EventDaemonReady,
	EventUpdateFound,
	EventUpdateProgress,
	EventUpdateDownloaded,
	EventQuitRequested,
	EventLoginComplete,
}

// Valid reports whether k is an externally deliverable notification.
func (k EventKind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Event is a notification with its raw JSON payload, if any.
type Event struct {
	Kind    EventKind
	Payload []byte
}

// Effect is a side effect requested by a transition.
type Effect interface {
	effect()
}

// RequestDownload asks the update channel to start downloading.
type RequestDownload struct {
	Version string
}

// RetryLater asks for Event to be delivered again after Delay.
type RetryLater struct {
	Delay time.Duration
	Event Event
}

// CancelTimers stops every pending timer. ArmSlowQuitNotice effects in the
// same transition are applied after it.
type CancelTimers struct{}

// ArmSlowQuitNotice asks for EventSlowQuitNotice after Delay.
type ArmSlowQuitNotice struct {
	Delay time.Duration
}

// InstallUpdate asks for the daemon to be stopped and the downloaded update
// to be installed. The install request is sent even if the stop fails.
type InstallUpdate struct {
	Version string
}

// Anomaly reports an event that was not acted on because it violated the
// notification protocol or carried a malformed payload.
type Anomaly struct {
	Event  EventKind
	Phase  Phase
	Reason string
	Err    error
}

// Dropped reports an event ignored by design, such as update traffic after
// shutdown has begun.
type Dropped struct {
	Event  EventKind
	Phase  Phase
	Reason string
}

func (RequestDownload) effect()   {}
func (RetryLater) effect()        {}
func (CancelTimers) effect()      {}
func (ArmSlowQuitNotice) effect() {}
func (InstallUpdate) effect()     {}
func (Anomaly) effect()           {}
func (Dropped) effect()           {}
