package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrUnknownEventType is returned by Decode for journal lines whose type
// field names no known event.
var ErrUnknownEventType = errors.New("unknown event type")

// Decode parses one journal line back into its concrete event type.
func Decode(line []byte) (Event, error) {
	if !gjson.ValidBytes(line) {
		return nil, fmt.Errorf("decode journal line: invalid JSON")
	}

	t := EventType(gjson.GetBytes(line, "type").String())
	var event Event
	switch t {
	case EventShellStart:
		event = &ShellStartEvent{}
	case EventShellStop:
		event = &ShellStopEvent{}
	case EventNotification:
		event = &NotificationEvent{}
	case EventStateChanged:
		event = &StateChangedEvent{}
	case EventAnomaly:
		event = &AnomalyEvent{}
	case EventIgnored:
		event = &IgnoredEvent{}
	case EventRequest:
		event = &RequestEvent{}
	case EventError:
		event = &ErrorEvent{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, t)
	}

	if err := json.Unmarshal(line, event); err != nil {
		return nil, fmt.Errorf("decode %s: %w", t, err)
	}
	return event, nil
}

// Summary renders a one-line, human readable description of an event.
func Summary(e Event) string {
	ts := e.Timestamp().Format("15:04:05")
	var detail string
	switch ev := e.(type) {
	case *ShellStartEvent:
		detail = fmt.Sprintf("shell started (daemon %s, wallet %s, %s) in %s",
			ev.DaemonState, ev.WalletState, strings.ToLower(ev.LockState), ev.InitialPhase)
	case *ShellStopEvent:
		detail = "shell stopped: " + ev.Reason
	case *NotificationEvent:
		detail = "received " + ev.Kind
		if len(ev.Payload) > 0 {
			detail += " " + string(ev.Payload)
		}
	case *StateChangedEvent:
		detail = fmt.Sprintf("%s -> %s", ev.From, ev.To)
		if ev.StatusText != "" {
			detail += fmt.Sprintf(" %q", ev.StatusText)
		}
	case *AnomalyEvent:
		detail = fmt.Sprintf("anomaly: %s in %s: %s", ev.Kind, ev.Phase, ev.Reason)
		if ev.Error != "" {
			detail += " (" + ev.Error + ")"
		}
	case *IgnoredEvent:
		detail = fmt.Sprintf("ignored %s in %s: %s", ev.Kind, ev.Phase, ev.Reason)
	case *RequestEvent:
		detail = fmt.Sprintf("%s %dms", ev.Request, ev.DurationMs)
		if ev.Version != "" {
			detail = fmt.Sprintf("%s %s %dms", ev.Request, ev.Version, ev.DurationMs)
		}
		if ev.Error != "" {
			detail += " failed: " + ev.Error
		}
	case *ErrorEvent:
		detail = fmt.Sprintf("%s: %s", ev.Severity, ev.Message)
	default:
		detail = string(e.Type())
	}
	return fmt.Sprintf("[%s] %s", ts, detail)
}
