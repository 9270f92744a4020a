package tui

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/npratt/walletshell/internal/balance"
	"github.com/npratt/walletshell/internal/events"
	"github.com/npratt/walletshell/internal/walletd"
)

const (
	// maxEventLines is the maximum number of event lines to keep in the buffer.
	maxEventLines = 200
	// trimEventLines is the number of lines to remove when buffer exceeds max.
	trimEventLines = 50
)

// channelClosedMsg signals that the event channel was closed.
type channelClosedMsg struct{}

// tickMsg drives the balance refresh and the snapshot resync.
type tickMsg time.Time

// balanceMsg carries one fetched balance.
type balanceMsg struct {
	currency balance.Currency
	balance  walletd.Balance
	err      error
}

// unlockMsg reports the outcome of a login attempt.
type unlockMsg struct{ err error }

// quitMsg reports whether the quit request was accepted.
type quitMsg struct{ err error }

// waitForEvent creates a command that waits for the next event from the channel.
// Returns channelClosedMsg if the channel is closed.
func waitForEvent(ch <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return channelClosedMsg{}
		}
		return eventMsg{event}
	}
}

func doTick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case eventMsg:
		cmd := m.handleEvent(msg.Event)
		return m, tea.Batch(cmd, waitForEvent(m.eventChan))

	case channelClosedMsg:
		slog.Info("event channel closed, exiting TUI")
		return m, tea.Quit

	case tickMsg:
		cmd := m.handleTick()
		return m, tea.Batch(cmd, doTick(m.refresh))

	case balanceMsg:
		m.setBalance(msg)
		return m, nil

	case unlockMsg:
		m.unlocking = false
		if msg.err != nil {
			slog.Warn("login failed", "error", msg.err)
			m.loginErr = safeString(msg.err.Error())
		}
		m.syncInput()
		return m, nil

	case quitMsg:
		if msg.err != nil {
			slog.Error("quit request failed", "error", msg.err)
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	default:
		var cmd tea.Cmd
		m.passphrase, cmd = m.passphrase.Update(msg)
		return m, cmd
	}
}

// handleKey processes keyboard input and returns the updated model and command.
func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return m.quit()
	}

	if m.passphrase.Focused() {
		switch key {
		case "enter":
			return m.submitLogin()
		case "esc":
			m.passphrase.Reset()
			m.loginErr = ""
			return m, nil
		}
		var cmd tea.Cmd
		m.passphrase, cmd = m.passphrase.Update(msg)
		return m, cmd
	}

	switch key {
	case "q":
		return m.quit()
	case "r":
		if m.snap.Ready {
			return m, m.fetchBalances()
		}
	}
	return m, nil
}

// quit asks the controller to shut down. The TUI keeps running, showing the
// closing status, until the event channel closes. A second request while
// quitting leaves immediately.
func (m model) quit() (tea.Model, tea.Cmd) {
	if m.quitSent || m.lifecycle == nil {
		return m, tea.Quit
	}
	m.quitSent = true
	lc, ctx := m.lifecycle, m.ctx
	return m, func() tea.Msg {
		return quitMsg{err: lc.RequestQuit(ctx)}
	}
}

func (m model) submitLogin() (tea.Model, tea.Cmd) {
	pass := m.passphrase.Value()
	if pass == "" || m.unlocking {
		return m, nil
	}
	m.passphrase.Reset()
	m.loginErr = ""
	m.unlocking = true
	m.syncInput()

	w, lc, ctx := m.wallet, m.lifecycle, m.ctx
	return m, func() tea.Msg {
		if w != nil {
			if err := w.Unlock(ctx, pass); err != nil {
				return unlockMsg{err: err}
			}
		}
		if lc != nil {
			if err := lc.LoginComplete(ctx); err != nil {
				return unlockMsg{err: fmt.Errorf("report login: %w", err)}
			}
		}
		return unlockMsg{}
	}
}

// handleEvent applies an event to the model and adds it to the event log.
func (m *model) handleEvent(event events.Event) tea.Cmd {
	var cmd tea.Cmd
	if e, ok := event.(*events.StateChangedEvent); ok {
		wasReady := m.snap.Ready
		m.snap.Phase = e.To
		m.snap.Ready = e.Ready
		m.snap.StatusText = e.StatusText
		m.snap.StatusSubtext = e.StatusSubtext
		m.snap.PendingVersion = e.PendingVersion
		m.syncInput()
		if m.snap.Ready && !wasReady {
			cmd = m.fetchBalances()
		}
	}

	text := Format(event)
	if text == "" {
		return cmd
	}
	m.eventLines = append(m.eventLines, eventLine{
		Time:  event.Timestamp(),
		Text:  text,
		Style: StyleForEvent(event),
	})
	if len(m.eventLines) > maxEventLines {
		m.eventLines = m.eventLines[trimEventLines:]
	}
	return cmd
}

// handleTick refreshes balances and resyncs the snapshot with the
// controller in case an event was dropped on a full channel.
func (m *model) handleTick() tea.Cmd {
	if m.lifecycle != nil {
		snap := m.lifecycle.Snapshot()
		if snap != m.snap {
			slog.Warn("snapshot drift detected", "tui", m.snap.Phase, "controller", snap.Phase)
			wasReady := m.snap.Ready
			m.snap = snap
			m.syncInput()
			if snap.Ready && !wasReady {
				return m.fetchBalances()
			}
		}
	}
	if m.snap.Ready {
		return m.fetchBalances()
	}
	return nil
}

// fetchBalances starts one fetch per card.
func (m model) fetchBalances() tea.Cmd {
	if m.wallet == nil {
		return nil
	}
	cmds := make([]tea.Cmd, 0, len(m.cards))
	for _, c := range m.cards {
		w, ctx, cur := m.wallet, m.ctx, c.Currency
		cmds = append(cmds, func() tea.Msg {
			b, err := w.Balance(ctx, string(cur))
			return balanceMsg{currency: cur, balance: b, err: err}
		})
	}
	return tea.Batch(cmds...)
}

func (m *model) setBalance(msg balanceMsg) {
	for i := range m.cards {
		if m.cards[i].Currency != msg.currency {
			continue
		}
		if msg.err != nil {
			slog.Debug("balance fetch failed", "currency", msg.currency, "error", msg.err)
			m.cards[i].Err = safeString(msg.err.Error())
			return
		}
		m.cards[i].Loaded = true
		m.cards[i].Balance = msg.balance
		m.cards[i].Err = ""
		return
	}
}
