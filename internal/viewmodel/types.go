// Package viewmodel provides the display snapshot shared by the controller,
// the control socket and the TUI.
package viewmodel

import "github.com/npratt/walletshell/internal/lifecycle"

// Snapshot is the display-relevant view of the lifecycle state.
type Snapshot struct {
	Phase          string `json:"phase"`
	Ready          bool   `json:"ready"`
	StatusText     string `json:"status_text"`
	StatusSubtext  string `json:"status_subtext,omitempty"`
	PendingVersion string `json:"pending_version,omitempty"`
}

// FromState derives a Snapshot. Ready is recomputed on every call.
func FromState(s lifecycle.State) Snapshot {
	return Snapshot{
		Phase:          s.Phase.String(),
		Ready:          s.Ready(),
		StatusText:     s.StatusText,
		StatusSubtext:  s.StatusSubtext,
		PendingVersion: s.PendingVersion(),
	}
}

// Busy reports whether the loader should be shown instead of the wallet.
func (s Snapshot) Busy() bool {
	return !s.Ready && s.StatusText != ""
}

// AwaitingLogin reports whether the passphrase prompt should be shown.
func (s Snapshot) AwaitingLogin() bool {
	return s.Phase == lifecycle.PhaseLogin.String() || s.Phase == lifecycle.PhaseLoading.String()
}
