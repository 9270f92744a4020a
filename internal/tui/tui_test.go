package tui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/npratt/walletshell/internal/balance"
	"github.com/npratt/walletshell/internal/events"
	"github.com/npratt/walletshell/internal/viewmodel"
	"github.com/npratt/walletshell/internal/walletd"
)

// mockLifecycle is a controller stand-in.
type mockLifecycle struct {
	mu         sync.Mutex
	snap       viewmodel.Snapshot
	logins     int
	quits      int
	loginErr   error
	quitErr    error
	quitCalled chan struct{}
}

func newMockLifecycle(snap viewmodel.Snapshot) *mockLifecycle {
	return &mockLifecycle{snap: snap, quitCalled: make(chan struct{}, 1)}
}

func (l *mockLifecycle) Snapshot() viewmodel.Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snap
}

func (l *mockLifecycle) setSnapshot(s viewmodel.Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.snap = s
}

func (l *mockLifecycle) LoginComplete(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logins++
	return l.loginErr
}

func (l *mockLifecycle) RequestQuit(context.Context) error {
	l.mu.Lock()
	l.quits++
	err := l.quitErr
	l.mu.Unlock()
	select {
	case l.quitCalled <- struct{}{}:
	default:
	}
	return err
}

func (l *mockLifecycle) counts() (logins, quits int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.logins, l.quits
}

// mockWallet returns canned balances.
type mockWallet struct {
	mu        sync.Mutex
	balances  map[string]walletd.Balance
	unlockErr error
	unlocked  []string
}

func (w *mockWallet) Unlock(_ context.Context, passphrase string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.unlocked = append(w.unlocked, passphrase)
	return w.unlockErr
}

func (w *mockWallet) passphrases() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.unlocked...)
}

func (w *mockWallet) Balance(_ context.Context, currency string) (walletd.Balance, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	b, ok := w.balances[currency]
	if !ok {
		return walletd.Balance{}, errors.New("no balance for " + currency)
	}
	return b, nil
}

var (
	snapStarting = viewmodel.Snapshot{Phase: "starting", StatusText: "Starting Daemon..."}
	snapLogin    = viewmodel.Snapshot{Phase: "login"}
	snapLoading  = viewmodel.Snapshot{Phase: "loading"}
	snapReady    = viewmodel.Snapshot{Phase: "ready", Ready: true}
	snapQuitting = viewmodel.Snapshot{Phase: "quitting", StatusText: "Closing daemon..."}
)

func stateChanged(from, to viewmodel.Snapshot) *events.StateChangedEvent {
	return &events.StateChangedEvent{
		BaseEvent:      events.BaseEvent{EventType: events.EventStateChanged, Time: time.Now(), Src: events.SourceInternal},
		From:           from.Phase,
		To:             to.Phase,
		Ready:          to.Ready,
		StatusText:     to.StatusText,
		StatusSubtext:  to.StatusSubtext,
		PendingVersion: to.PendingVersion,
	}
}

func TestNew_AppliesOptions(t *testing.T) {
	eventChan := make(chan events.Event)
	lc := newMockLifecycle(snapReady)
	w := &mockWallet{}

	tui := New(eventChan,
		WithLifecycle(lc),
		WithWallet(w),
		WithCurrencies([]string{"BTC", "USD"}),
		WithRefreshInterval(time.Minute),
		WithVersion("2.4.0"),
	)

	if tui.lifecycle != lc || tui.wallet != w {
		t.Error("lifecycle or wallet not set")
	}
	if len(tui.currencies) != 2 || tui.currencies[0] != balance.CurrencyBTC {
		t.Errorf("currencies = %v", tui.currencies)
	}
	if tui.refresh != time.Minute || tui.version != "2.4.0" {
		t.Errorf("refresh = %v, version = %q", tui.refresh, tui.version)
	}
}

func TestNew_Defaults(t *testing.T) {
	tui := New(nil, WithCurrencies(nil), WithRefreshInterval(0))

	if len(tui.currencies) != 3 {
		t.Errorf("default currencies = %v", tui.currencies)
	}
	if tui.refresh != DefaultRefreshInterval {
		t.Errorf("refresh = %v, want %v", tui.refresh, DefaultRefreshInterval)
	}
}

func TestNewModel_SeedsSnapshot(t *testing.T) {
	tests := []struct {
		name    string
		snap    viewmodel.Snapshot
		focused bool
	}{
		{"starting", snapStarting, false},
		{"login", snapLogin, true},
		{"loading", snapLoading, true},
		{"ready", snapReady, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newModel(context.Background(), New(nil, WithLifecycle(newMockLifecycle(tt.snap))))
			if m.snap != tt.snap {
				t.Errorf("snap = %+v, want %+v", m.snap, tt.snap)
			}
			if m.passphrase.Focused() != tt.focused {
				t.Errorf("passphrase focused = %v, want %v", m.passphrase.Focused(), tt.focused)
			}
			if len(m.cards) != 3 {
				t.Errorf("cards = %d, want 3", len(m.cards))
			}
		})
	}
}
