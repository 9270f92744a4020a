package tui

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/npratt/walletshell/internal/events"
)

const (
	maxTextLength     = 120
	truncateIndicator = "..."
)

// Format converts an event to a one-line description for the event log.
// Returns empty string for nil or unknown event types.
func Format(event events.Event) string {
	if event == nil {
		return ""
	}

	switch e := event.(type) {
	case *events.ShellStartEvent:
		return fmt.Sprintf("shell started in %s (daemon %s)", e.InitialPhase, strings.ToLower(e.DaemonState))
	case *events.ShellStopEvent:
		return "shell stopped: " + safeString(e.Reason)
	case *events.NotificationEvent:
		if len(e.Payload) > 0 {
			return truncate(e.Kind+" "+string(e.Payload), maxTextLength)
		}
		return e.Kind
	case *events.StateChangedEvent:
		if e.From == e.To {
			return ""
		}
		return fmt.Sprintf("%s -> %s", e.From, e.To)
	case *events.AnomalyEvent:
		text := fmt.Sprintf("%s in %s: %s", e.Kind, e.Phase, e.Reason)
		if e.Error != "" {
			text += " (" + e.Error + ")"
		}
		return truncate(text, maxTextLength)
	case *events.IgnoredEvent:
		return fmt.Sprintf("ignored %s: %s", e.Kind, e.Reason)
	case *events.RequestEvent:
		return formatRequest(e)
	case *events.ErrorEvent:
		return truncate("error: "+e.Message, maxTextLength)
	default:
		return ""
	}
}

func formatRequest(e *events.RequestEvent) string {
	name := strings.ReplaceAll(e.Request, "_", " ")
	if e.Version != "" {
		name += " " + e.Version
	}
	if e.Error != "" {
		return truncate(fmt.Sprintf("%s failed: %s", name, e.Error), maxTextLength)
	}
	return fmt.Sprintf("%s (%s)", name, formatDuration(e.DurationMs))
}

// formatDuration renders milliseconds as "850ms" or "2.4s".
func formatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", max(ms, 0))
	}
	return fmt.Sprintf("%.1fs", float64(ms)/1000)
}

// truncate shortens text to maxLen, adding indicator if truncated.
func truncate(s string, maxLen int) string {
	s = safeString(s)
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= len(truncateIndicator) {
		return truncateIndicator
	}
	return s[:maxLen-len(truncateIndicator)] + truncateIndicator
}

// safeString sanitizes a string for display by removing control characters
// and limiting newlines.
func safeString(s string) string {
	s = stripANSI(s)
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")

	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if r == ' ' || !unicode.IsControl(r) {
			sb.WriteRune(r)
		}
	}

	result := sb.String()
	for strings.Contains(result, "  ") {
		result = strings.ReplaceAll(result, "  ", " ")
	}
	return strings.TrimSpace(result)
}

// ansiRegex matches ANSI escape sequences.
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// stripANSI removes ANSI escape sequences from a string.
func stripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}
