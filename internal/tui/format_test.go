package tui

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/npratt/walletshell/internal/events"
)

func TestFormat(t *testing.T) {
	internal := func(et events.EventType) events.BaseEvent { return events.NewInternalEvent(et) }

	tests := []struct {
		name  string
		event events.Event
		want  string
	}{
		{"nil", nil, ""},
		{
			name: "shell start",
			event: &events.ShellStartEvent{
				BaseEvent:    internal(events.EventShellStart),
				DaemonState:  "STARTING",
				InitialPhase: "starting",
			},
			want: "shell started in starting (daemon starting)",
		},
		{
			name:  "shell stop",
			event: &events.ShellStopEvent{BaseEvent: internal(events.EventShellStop), Reason: "quit"},
			want:  "shell stopped: quit",
		},
		{
			name: "notification with payload",
			event: &events.NotificationEvent{
				BaseEvent: events.NewEvent(events.EventNotification, events.SourceUpdater),
				Kind:      "update-found",
				Payload:   json.RawMessage(`{"version":"2.4.1"}`),
			},
			want: `update-found {"version":"2.4.1"}`,
		},
		{
			name: "notification without payload",
			event: &events.NotificationEvent{
				BaseEvent: events.NewEvent(events.EventNotification, events.SourceUser),
				Kind:      "quit-requested",
			},
			want: "quit-requested",
		},
		{
			name:  "state change",
			event: &events.StateChangedEvent{BaseEvent: internal(events.EventStateChanged), From: "updating", To: "ready", Ready: true},
			want:  "updating -> ready",
		},
		{
			name:  "initial state is not logged",
			event: &events.StateChangedEvent{BaseEvent: internal(events.EventStateChanged), From: "login", To: "login"},
			want:  "",
		},
		{
			name: "anomaly",
			event: &events.AnomalyEvent{
				BaseEvent: internal(events.EventAnomaly),
				Kind:      "update-progress",
				Phase:     "updating",
				Reason:    "update abandoned",
				Error:     "malformed payload: percent is not a number",
			},
			want: "update-progress in updating: update abandoned (malformed payload: percent is not a number)",
		},
		{
			name:  "ignored",
			event: &events.IgnoredEvent{BaseEvent: internal(events.EventIgnored), Kind: "update-found", Phase: "quitting", Reason: "already quitting"},
			want:  "ignored update-found: already quitting",
		},
		{
			name:  "request",
			event: &events.RequestEvent{BaseEvent: internal(events.EventRequest), Request: events.RequestDownload, Version: "2.4.1", DurationMs: 2400},
			want:  "download update 2.4.1 (2.4s)",
		},
		{
			name:  "fast request",
			event: &events.RequestEvent{BaseEvent: internal(events.EventRequest), Request: events.RequestStopDaemon, DurationMs: 850},
			want:  "stop daemon (850ms)",
		},
		{
			name:  "failed request",
			event: &events.RequestEvent{BaseEvent: internal(events.EventRequest), Request: events.RequestQuitInstall, Version: "2.4.1", Error: "signature mismatch"},
			want:  "quit and install 2.4.1 failed: signature mismatch",
		},
		{
			name:  "error",
			event: &events.ErrorEvent{BaseEvent: internal(events.EventError), Message: "journal write failed", Severity: events.SeverityError},
			want:  "error: journal write failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.event); got != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormat_TruncatesPayload(t *testing.T) {
	e := &events.NotificationEvent{
		BaseEvent: events.NewEvent(events.EventNotification, events.SourceUpdater),
		Kind:      "update-found",
		Payload:   json.RawMessage(`{"version":"` + strings.Repeat("9", 300) + `"}`),
	}
	got := Format(e)
	if len(got) != maxTextLength || !strings.HasSuffix(got, truncateIndicator) {
		t.Errorf("Format() = %q (len %d)", got, len(got))
	}
}

func TestSafeString(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"line\nbreak", "line break"},
		{"\x1b[31mred\x1b[0m", "red"},
		{"tab\tand  spaces", "taband spaces"},
		{"  padded  ", "padded"},
		{"bell\a", "bell"},
	}
	for _, tt := range tests {
		if got := safeString(tt.in); got != tt.want {
			t.Errorf("safeString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate() = %q", got)
	}
	if got := truncate("much longer text", 10); got != "much lo..." {
		t.Errorf("truncate() = %q", got)
	}
	if got := truncate("anything", 2); got != truncateIndicator {
		t.Errorf("truncate() = %q", got)
	}
}
