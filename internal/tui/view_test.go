package tui

import (
	"strings"
	"testing"

	"github.com/npratt/walletshell/internal/balance"
	"github.com/npratt/walletshell/internal/viewmodel"
	"github.com/npratt/walletshell/internal/walletd"
)

func TestView_Sizes(t *testing.T) {
	m, _ := testModel(snapReady, nil)

	m.width, m.height = 0, 0
	if got := m.View(); got != "Loading..." {
		t.Errorf("View() before size = %q", got)
	}

	m.width, m.height = 30, 10
	if got := m.View(); !strings.Contains(got, "Terminal too small") {
		t.Errorf("View() small = %q", got)
	}
}

func TestView_Phases(t *testing.T) {
	tests := []struct {
		name    string
		snap    viewmodel.Snapshot
		want    []string
		notWant []string
	}{
		{
			name: "starting shows loader",
			snap: snapStarting,
			want: []string{"STARTING", "Starting Daemon...", "q: quit"},
		},
		{
			name: "login shows prompt",
			snap: snapLogin,
			want: []string{"LOGIN", "Unlock wallet for staking", "Daemon running.", "enter: unlock"},
		},
		{
			name: "loading shows prompt",
			snap: snapLoading,
			want: []string{"LOADING", "Daemon ready."},
		},
		{
			name: "updating shows version and subtext",
			snap: viewmodel.Snapshot{
				Phase:          "updating",
				StatusText:     "Downloading update 2.4.1 (42%)...",
				StatusSubtext:  "Please don't close the wallet.",
				PendingVersion: "2.4.1",
			},
			want: []string{"UPDATING 2.4.1", "Downloading update 2.4.1 (42%)...", "Please don't close the wallet."},
		},
		{
			name:    "quitting",
			snap:    viewmodel.Snapshot{Phase: "quitting", StatusText: "Closing daemon...", StatusSubtext: "This may take a while."},
			want:    []string{"QUITTING", "Closing daemon...", "This may take a while.", "ctrl+c: force quit"},
			notWant: []string{"Unlock wallet"},
		},
		{
			name:    "ready shows placeholders before balances arrive",
			snap:    snapReady,
			want:    []string{"READY", "ECA", balance.PlaceholderCrypto, balance.PlaceholderFiat, "r: refresh"},
			notWant: []string{"0.00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := testModel(tt.snap, nil)
			out := m.View()
			for _, s := range tt.want {
				if !strings.Contains(out, s) {
					t.Errorf("View() missing %q:\n%s", s, out)
				}
			}
			for _, s := range tt.notWant {
				if strings.Contains(out, s) {
					t.Errorf("View() should not contain %q:\n%s", s, out)
				}
			}
		})
	}
}

func TestRenderCard(t *testing.T) {
	tests := []struct {
		name string
		card card
		want []string
	}{
		{
			name: "milli prefix shared by the pair",
			card: card{Currency: balance.CurrencyBTC, Loaded: true, Balance: walletd.Balance{Confirmed: 0.005, Unconfirmed: 0.001}},
			want: []string{"mBTC", "5.00000", "+1.00000 pending"},
		},
		{
			name: "fiat",
			card: card{Currency: balance.CurrencyUSD, Loaded: true, Balance: walletd.Balance{Confirmed: 1234.5}},
			want: []string{"USD", "1.23K", "+0.00 pending"},
		},
		{
			name: "not loaded",
			card: card{Currency: balance.CurrencyECA},
			want: []string{"ECA", balance.PlaceholderCrypto},
		},
		{
			name: "fetch failed",
			card: card{Currency: balance.CurrencyECA, Err: "rpc down"},
			want: []string{"ECA !", balance.PlaceholderCrypto},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := stripANSI(renderCard(tt.card))
			for _, s := range tt.want {
				if !strings.Contains(out, s) {
					t.Errorf("renderCard() missing %q:\n%s", s, out)
				}
			}
		})
	}
}

func TestView_EventLog(t *testing.T) {
	m, _ := testModel(snapLogin, nil)
	m.handleEvent(stateChanged(snapStarting, snapLoading))

	out := m.View()
	if !strings.Contains(out, "starting -> loading") {
		t.Errorf("event log missing transition:\n%s", out)
	}
}

func TestView_LoginError(t *testing.T) {
	m, _ := testModel(snapLogin, nil)
	m.loginErr = "unlock wallet: wrong passphrase"
	if out := m.View(); !strings.Contains(out, "wrong passphrase") {
		t.Errorf("View() missing login error:\n%s", out)
	}

	m.loginErr = ""
	m.unlocking = true
	if out := m.View(); !strings.Contains(out, "Unlocking...") {
		t.Errorf("View() missing unlocking status:\n%s", out)
	}
}
