package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/npratt/walletshell/internal/balance"
	"github.com/npratt/walletshell/internal/events"
	"github.com/npratt/walletshell/internal/viewmodel"
	"github.com/npratt/walletshell/internal/walletd"
)

// eventLine represents a formatted event for display.
type eventLine struct {
	Time  time.Time
	Text  string
	Style lipgloss.Style
}

// card is one currency's balance as last fetched.
type card struct {
	Currency balance.Currency
	Loaded   bool
	Balance  walletd.Balance
	Err      string
}

// model is the bubbletea model for the TUI.
type model struct {
	// ctx bounds the commands the model starts.
	ctx context.Context

	eventChan <-chan events.Event
	lifecycle Lifecycle
	wallet    Wallet
	refresh   time.Duration
	version   string

	snap       viewmodel.Snapshot
	cards      []card
	eventLines []eventLine

	spinner    spinner.Model
	passphrase textinput.Model
	unlocking  bool
	loginErr   string
	quitSent   bool

	width  int
	height int
}

// eventMsg wraps an event for the bubbletea message system.
type eventMsg struct{ events.Event }

func newModel(ctx context.Context, t *TUI) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	ti := textinput.New()
	ti.Placeholder = "passphrase"
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.CharLimit = 256
	ti.Width = 32
	ti.Prompt = "> "

	m := model{
		ctx:        ctx,
		eventChan:  t.eventChan,
		lifecycle:  t.lifecycle,
		wallet:     t.wallet,
		refresh:    t.refresh,
		version:    t.version,
		spinner:    sp,
		passphrase: ti,
	}
	for _, c := range t.currencies {
		m.cards = append(m.cards, card{Currency: c})
	}
	if t.lifecycle != nil {
		m.snap = t.lifecycle.Snapshot()
	}
	m.syncInput()
	return m
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		waitForEvent(m.eventChan),
		m.spinner.Tick,
		doTick(m.refresh),
	}
	if m.snap.AwaitingLogin() {
		cmds = append(cmds, textinput.Blink)
	}
	if m.snap.Ready {
		cmds = append(cmds, m.fetchBalances())
	}
	return tea.Batch(cmds...)
}

// syncInput focuses the passphrase field only while login is possible.
func (m *model) syncInput() {
	if m.snap.AwaitingLogin() && !m.unlocking {
		m.passphrase.Focus()
		return
	}
	m.passphrase.Blur()
}

// visibleEvents returns how many event lines fit below the main panel.
func (m model) visibleEvents() int {
	return max(1, min(maxVisibleEvents, m.height-mainPanelRows))
}
