// Package events defines the event taxonomy of the wallet shell and the
// channel-based pub/sub used to fan events out to the journal and the view.
package events

import (
	"encoding/json"
	"time"
)

// EventType identifies the category and nature of an event.
type EventType string

// Event types.
const (
	// Shell events
	EventShellStart EventType = "shell.start"
	EventShellStop  EventType = "shell.stop"

	// Lifecycle events
	EventNotification EventType = "lifecycle.notification"
	EventStateChanged EventType = "lifecycle.state_changed"
	EventAnomaly      EventType = "lifecycle.anomaly"
	EventIgnored      EventType = "lifecycle.ignored"

	// Outbound requests to the daemon and update service
	EventRequest EventType = "request"

	// Error events
	EventError EventType = "error"
)

// Source constants identify the origin of events.
const (
	SourceDaemon   = "daemon"
	SourceUpdater  = "updater"
	SourceUser     = "user"
	SourceInternal = "walletshell"
)

// Event is the base interface for all events in the system.
type Event interface {
	Type() EventType
	Timestamp() time.Time
	Source() string
}

// BaseEvent provides the common fields for all events.
type BaseEvent struct {
	EventType EventType `json:"type"`
	Time      time.Time `json:"timestamp"`
	Src       string    `json:"source"`
}

// Type returns the event type.
func (e BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e BaseEvent) Timestamp() time.Time {
	return e.Time
}

// Source returns the origin of the event.
func (e BaseEvent) Source() string {
	return e.Src
}

// ShellStartEvent is emitted once the controller has sampled the daemon.
type ShellStartEvent struct {
	BaseEvent
	Version      string `json:"version"`
	DaemonState  string `json:"daemon_state"`
	WalletState  string `json:"wallet_state"`
	LockState    string `json:"lock_state"`
	InitialPhase string `json:"initial_phase"`
}

// ShellStopEvent is emitted when the controller loop exits.
type ShellStopEvent struct {
	BaseEvent
	Reason string `json:"reason"`
}

// NotificationEvent records an inbound notification as received.
type NotificationEvent struct {
	BaseEvent
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// StateChangedEvent is emitted after every transition that changed state.
type StateChangedEvent struct {
	BaseEvent
	From           string `json:"from"`
	To             string `json:"to"`
	Ready          bool   `json:"ready"`
	StatusText     string `json:"status_text,omitempty"`
	StatusSubtext  string `json:"status_subtext,omitempty"`
	PendingVersion string `json:"pending_version,omitempty"`
}

// AnomalyEvent records a notification that violated the protocol or carried
// a malformed payload.
type AnomalyEvent struct {
	BaseEvent
	Kind   string `json:"kind"`
	Phase  string `json:"phase"`
	Reason string `json:"reason"`
	Error  string `json:"error,omitempty"`
}

// IgnoredEvent records a notification dropped by design.
type IgnoredEvent struct {
	BaseEvent
	Kind   string `json:"kind"`
	Phase  string `json:"phase"`
	Reason string `json:"reason"`
}

// Request names for RequestEvent.
const (
	RequestDownload      = "download_update"
	RequestStopDaemon    = "stop_daemon"
	RequestQuitInstall   = "quit_and_install"
	RequestDaemonStartup = "start_daemon"
)

// RequestEvent records an outbound request and its outcome.
type RequestEvent struct {
	BaseEvent
	Request    string `json:"request"`
	Version    string `json:"version,omitempty"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// Severity levels for error events.
const (
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// ErrorEvent is emitted for failures outside the lifecycle protocol.
type ErrorEvent struct {
	BaseEvent
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// NewEvent creates a BaseEvent with the given type and source.
func NewEvent(eventType EventType, source string) BaseEvent {
	return BaseEvent{
		EventType: eventType,
		Time:      time.Now(),
		Src:       source,
	}
}

// NewInternalEvent creates a BaseEvent with the shell as the source.
func NewInternalEvent(eventType EventType) BaseEvent {
	return NewEvent(eventType, SourceInternal)
}
