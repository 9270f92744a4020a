// Package lifecycle defines the wallet shell's lifecycle state machine.
//
// The machine is pure: Machine.Transition maps a State and an Event to a new
// State plus a list of Effects. Timers, daemon calls and update requests are
// described by effects and carried out by the controller package, which feeds
// their outcomes back in as events.
package lifecycle

// Phase is the shell's single authoritative lifecycle state.
type Phase int

// Lifecycle phases.
const (
	// PhaseStarting means the daemon process has not reported ready yet.
	PhaseStarting Phase = iota
	// PhaseLogin means the daemon was already up at startup but the wallet
	// still needs to be unlocked.
	PhaseLogin
	// PhaseLoading means the daemon reported ready and the wallet is waiting
	// for the user to log in.
	PhaseLoading
	// PhaseUpdating means an update is being downloaded.
	PhaseUpdating
	// PhaseQuitting means shutdown has begun. It is terminal.
	PhaseQuitting
	// PhaseReady means the wallet is usable.
	PhaseReady
)

// String returns the string representation of Phase.
func (p Phase) String() string {
	switch p {
	case PhaseStarting:
		return "starting"
	case PhaseLogin:
		return "login"
	case PhaseLoading:
		return "loading"
	case PhaseUpdating:
		return "updating"
	case PhaseQuitting:
		return "quitting"
	case PhaseReady:
		return "ready"
	default:
		return "unknown"
	}
}

// gated reports whether the phase still waits on daemon startup or login.
// Starting counts as gated so no update download is requested before the
// daemon has answered.
func (p Phase) gated() bool {
	return p == PhaseStarting || p == PhaseLogin || p == PhaseLoading
}

// DaemonState is the process state reported by the wallet daemon.
type DaemonState string

// Daemon process states.
const (
	DaemonStarting DaemonState = "STARTING"
	DaemonStarted  DaemonState = "STARTED"
	DaemonStopped  DaemonState = "STOPPED"
)

// WalletState is the wallet state reported by the wallet daemon.
type WalletState string

// Wallet states.
const (
	WalletEmpty   WalletState = "EMPTY"
	WalletCreated WalletState = "CREATED"
	WalletReady   WalletState = "READY"
)

// LockState is the lock state reported by the wallet daemon.
type LockState string

// Lock states.
const (
	LockLocked   LockState = "LOCKED"
	LockStaking  LockState = "STAKING"
	LockUnlocked LockState = "UNLOCKED"
)

// DaemonStatus is a sample of the daemon's reported state.
type DaemonStatus struct {
	DaemonState DaemonState `json:"daemonState"`
	WalletState WalletState `json:"walletState"`
	LockState   LockState   `json:"lockState"`
}

// UpdateInfo describes an available update.
type UpdateInfo struct {
	Version string `json:"version"`
}

// ProgressInfo reports download progress of an update.
type ProgressInfo struct {
	Percent float64 `json:"percent"`
}

// Status messages shown while the shell is not ready.
const (
	TextStartingDaemon = "Starting Daemon..."
	TextClosingDaemon  = "Closing daemon..."
	SubtextKeepOpen    = "Please don't close the wallet."
	SubtextSlowQuit    = "This may take a while."
)

// State is the lifecycle state owned by the controller.
type State struct {
	Phase         Phase
	StatusText    string
	StatusSubtext string
	// PendingUpdate is set only while Phase is PhaseUpdating.
	PendingUpdate *UpdateInfo
}

// Initial derives the starting state from a daemon status sample.
func Initial(status DaemonStatus) State {
	if status.DaemonState == DaemonStarted &&
		status.WalletState == WalletReady &&
		status.LockState == LockStaking {
		return State{Phase: PhaseReady}
	}

	if status.DaemonState == DaemonStarting || status.DaemonState == DaemonStopped {
		return State{Phase: PhaseStarting, StatusText: TextStartingDaemon}
	}

	return State{Phase: PhaseLogin}
}

// Ready reports whether the shell is usable: none of the login, startup,
// update or shutdown phases is active.
func (s State) Ready() bool {
	switch s.Phase {
	case PhaseStarting, PhaseLogin, PhaseLoading, PhaseUpdating, PhaseQuitting:
		return false
	default:
		return true
	}
}

// AwaitingLogin reports whether the login gate is showing.
func (s State) AwaitingLogin() bool {
	return s.Phase == PhaseLogin || s.Phase == PhaseLoading
}

// PendingVersion returns the version of the update being downloaded, if any.
func (s State) PendingVersion() string {
	if s.PendingUpdate == nil {
		return ""
	}
	return s.PendingUpdate.Version
}
