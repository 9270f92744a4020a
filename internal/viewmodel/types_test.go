package viewmodel

import (
	"testing"

	"github.com/npratt/walletshell/internal/lifecycle"
)

func TestFromState(t *testing.T) {
	tests := []struct {
		name      string
		state     lifecycle.State
		want      Snapshot
		busy      bool
		awaitUser bool
	}{
		{
			name:  "starting",
			state: lifecycle.State{Phase: lifecycle.PhaseStarting, StatusText: lifecycle.TextStartingDaemon},
			want:  Snapshot{Phase: "starting", StatusText: lifecycle.TextStartingDaemon},
			busy:  true,
		},
		{
			name:      "login",
			state:     lifecycle.State{Phase: lifecycle.PhaseLogin},
			want:      Snapshot{Phase: "login"},
			awaitUser: true,
		},
		{
			name:      "loading",
			state:     lifecycle.State{Phase: lifecycle.PhaseLoading},
			want:      Snapshot{Phase: "loading"},
			awaitUser: true,
		},
		{
			name: "updating",
			state: lifecycle.State{
				Phase:         lifecycle.PhaseUpdating,
				StatusText:    "Downloading update 2.4.1...",
				StatusSubtext: lifecycle.SubtextKeepOpen,
				PendingUpdate: &lifecycle.UpdateInfo{Version: "2.4.1"},
			},
			want: Snapshot{
				Phase:          "updating",
				StatusText:     "Downloading update 2.4.1...",
				StatusSubtext:  lifecycle.SubtextKeepOpen,
				PendingVersion: "2.4.1",
			},
			busy: true,
		},
		{
			name:  "ready",
			state: lifecycle.State{Phase: lifecycle.PhaseReady},
			want:  Snapshot{Phase: "ready", Ready: true},
		},
		{
			name: "quitting",
			state: lifecycle.State{
				Phase:         lifecycle.PhaseQuitting,
				StatusText:    lifecycle.TextClosingDaemon,
				StatusSubtext: lifecycle.SubtextKeepOpen,
			},
			want: Snapshot{Phase: "quitting", StatusText: lifecycle.TextClosingDaemon, StatusSubtext: lifecycle.SubtextKeepOpen},
			busy: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromState(tt.state)
			if got != tt.want {
				t.Errorf("FromState() = %+v, want %+v", got, tt.want)
			}
			if got.Busy() != tt.busy {
				t.Errorf("Busy() = %v, want %v", got.Busy(), tt.busy)
			}
			if got.AwaitingLogin() != tt.awaitUser {
				t.Errorf("AwaitingLogin() = %v, want %v", got.AwaitingLogin(), tt.awaitUser)
			}
		})
	}
}
