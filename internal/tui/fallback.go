package tui

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/term"
)

// isTerminal returns true if both stdout and stdin are TTYs.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd())) && term.IsTerminal(int(os.Stdin.Fd()))
}

// terminalSize returns the current terminal width and height.
// Returns 0, 0 if the terminal size cannot be determined.
func terminalSize() (width, height int) {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0, 0
	}
	return width, height
}

// terminalTooSmall returns true if the terminal is below the minimum size.
func terminalTooSmall() bool {
	width, height := terminalSize()
	return width < minWidth || height < minHeight
}

// runSimple prints one line per event for non-interactive environments.
// It returns when the channel closes or ctx is cancelled. There is no
// passphrase prompt here; unlock with the daemon's own tooling and report it
// with "walletshell notify login-complete".
func (t *TUI) runSimple(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-t.eventChan:
			if !ok {
				return nil
			}
			text := Format(event)
			if text == "" {
				continue
			}
			_, _ = fmt.Fprintf(t.out, "%s %s\n", event.Timestamp().Format("15:04:05"), text)
		}
	}
}
