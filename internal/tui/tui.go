// Package tui provides the terminal front end of walletshell using bubbletea.
package tui

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/npratt/walletshell/internal/balance"
	"github.com/npratt/walletshell/internal/events"
	"github.com/npratt/walletshell/internal/viewmodel"
	"github.com/npratt/walletshell/internal/walletd"
)

// Lifecycle is the part of the controller the TUI drives.
type Lifecycle interface {
	Snapshot() viewmodel.Snapshot
	LoginComplete(ctx context.Context) error
	RequestQuit(ctx context.Context) error
}

// Wallet is the part of the daemon handle the TUI drives.
type Wallet interface {
	Unlock(ctx context.Context, passphrase string) error
	Balance(ctx context.Context, currency string) (walletd.Balance, error)
}

// DefaultRefreshInterval is how often balances are refetched while ready.
const DefaultRefreshInterval = 5 * time.Second

// TUI is the terminal UI for a running shell.
type TUI struct {
	eventChan  <-chan events.Event
	lifecycle  Lifecycle
	wallet     Wallet
	currencies []balance.Currency
	refresh    time.Duration
	version    string
	out        io.Writer
}

// Option configures the TUI.
type Option func(*TUI)

// New creates a TUI fed by eventChan. The TUI exits when eventChan closes.
func New(eventChan <-chan events.Event, opts ...Option) *TUI {
	t := &TUI{
		eventChan:  eventChan,
		currencies: []balance.Currency{balance.CurrencyECA, balance.CurrencyBTC, balance.CurrencyUSD},
		refresh:    DefaultRefreshInterval,
		out:        os.Stdout,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// WithLifecycle sets the controller the TUI reads and drives.
func WithLifecycle(l Lifecycle) Option {
	return func(t *TUI) {
		t.lifecycle = l
	}
}

// WithWallet sets the daemon handle used for login and balances.
func WithWallet(w Wallet) Option {
	return func(t *TUI) {
		t.wallet = w
	}
}

// WithCurrencies sets the balance cards shown once ready.
func WithCurrencies(codes []string) Option {
	return func(t *TUI) {
		if len(codes) == 0 {
			return
		}
		t.currencies = make([]balance.Currency, len(codes))
		for i, c := range codes {
			t.currencies[i] = balance.Currency(c)
		}
	}
}

// WithRefreshInterval sets how often balances are refetched.
func WithRefreshInterval(d time.Duration) Option {
	return func(t *TUI) {
		if d > 0 {
			t.refresh = d
		}
	}
}

// WithVersion sets the version shown in the header.
func WithVersion(v string) Option {
	return func(t *TUI) {
		t.version = v
	}
}

// Run starts the TUI and blocks until it exits. Without a usable terminal
// it falls back to line output.
func (t *TUI) Run(ctx context.Context) error {
	if !isTerminal() || terminalTooSmall() {
		return t.runSimple(ctx)
	}

	m := newModel(ctx, t)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
