// Package walletd is the shell's handle on the wallet daemon. It optionally
// supervises the daemon process and talks to it through helper commands
// that print JSON.
package walletd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/npratt/walletshell/internal/config"
	"github.com/npratt/walletshell/internal/exec"
	"github.com/npratt/walletshell/internal/lifecycle"
	"github.com/npratt/walletshell/internal/runner"
)

// ErrNotRunning is returned when the supervised daemon process has exited.
var ErrNotRunning = errors.New("daemon not running")

// Handle owns the daemon for the lifetime of the shell.
type Handle struct {
	cfg    config.DaemonConfig
	cmds   exec.CommandRunner
	proc   runner.ProcessRunner
	logger *slog.Logger

	mu      sync.Mutex
	started bool
	exited  chan struct{}
	exitErr error
}

// New creates a Handle. proc is only used when cfg.Command is set.
func New(cfg config.DaemonConfig, cmds exec.CommandRunner, proc runner.ProcessRunner, logger *slog.Logger) *Handle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handle{
		cfg:    cfg,
		cmds:   cmds,
		proc:   proc,
		logger: logger,
		exited: make(chan struct{}),
	}
}

// Managed reports whether the shell supervises the daemon process.
func (h *Handle) Managed() bool {
	return h.cfg.Command != ""
}

// Start spawns the daemon process. It is a no-op for an externally managed
// daemon.
func (h *Handle) Start(ctx context.Context) error {
	if !h.Managed() {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.started {
		return fmt.Errorf("daemon already started")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	stdout, stderr, err := h.proc.Start(h.cfg.Command, h.cfg.Args...)
	if err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}
	h.started = true
	h.logger.Info("daemon process started", "command", h.cfg.Command, "args", h.cfg.Args)

	go h.stream(stdout, "stdout")
	go h.stream(stderr, "stderr")
	go h.wait()
	return nil
}

func (h *Handle) stream(r io.ReadCloser, name string) {
	defer func() { _ = r.Close() }()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		h.logger.Debug("daemon output", "stream", name, "line", scanner.Text())
	}
}

func (h *Handle) wait() {
	err := h.proc.Wait()
	h.mu.Lock()
	h.exitErr = err
	h.mu.Unlock()
	close(h.exited)

	if err != nil {
		h.logger.Warn("daemon process exited", "error", err)
	} else {
		h.logger.Info("daemon process exited")
	}
}

// Exited is closed when the supervised process exits. It never closes for
// an externally managed daemon.
func (h *Handle) Exited() <-chan struct{} {
	return h.exited
}

func (h *Handle) running() (started, alive bool) {
	h.mu.Lock()
	started = h.started
	h.mu.Unlock()
	if !started {
		return false, false
	}
	select {
	case <-h.exited:
		return true, false
	default:
		return true, true
	}
}

func (h *Handle) exitError() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.exitErr != nil {
		return fmt.Errorf("%w: %v", ErrNotRunning, h.exitErr)
	}
	return ErrNotRunning
}

// Status samples the daemon. A daemon that does not answer is reported as
// STARTING while its supervised process is alive and STOPPED otherwise;
// only unreadable output is an error.
func (h *Handle) Status(ctx context.Context) (lifecycle.DaemonStatus, error) {
	name, args, err := config.ExpandCommand(h.cfg.StatusCommand, config.CommandVars{})
	if err != nil {
		return lifecycle.DaemonStatus{}, fmt.Errorf("status command: %w", err)
	}

	out, err := h.cmds.Run(ctx, nil, name, args...)
	if err != nil {
		if ctx.Err() != nil {
			return lifecycle.DaemonStatus{}, ctx.Err()
		}
		h.logger.Debug("daemon status unavailable", "error", err)
		if _, alive := h.running(); alive {
			return lifecycle.DaemonStatus{DaemonState: lifecycle.DaemonStarting}, nil
		}
		return lifecycle.DaemonStatus{DaemonState: lifecycle.DaemonStopped}, nil
	}

	status, err := ParseStatus(out)
	if err != nil {
		return lifecycle.DaemonStatus{}, err
	}
	return status, nil
}

// WaitReady polls Status until the daemon reports STARTED.
func (h *Handle) WaitReady(ctx context.Context) error {
	ticker := time.NewTicker(h.cfg.PollInterval)
	defer ticker.Stop()

	for {
		status, err := h.Status(ctx)
		if err != nil {
			return fmt.Errorf("wait for daemon: %w", err)
		}
		if status.DaemonState == lifecycle.DaemonStarted {
			h.logger.Info("daemon ready", "wallet_state", status.WalletState, "lock_state", status.LockState)
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-h.exited:
			return h.exitError()
		case <-ticker.C:
		}
	}
}

// Unlock unlocks the wallet for staking. The passphrase is passed on stdin.
func (h *Handle) Unlock(ctx context.Context, passphrase string) error {
	name, args, err := config.ExpandCommand(h.cfg.UnlockCommand, config.CommandVars{})
	if err != nil {
		return fmt.Errorf("unlock command: %w", err)
	}
	if _, err := h.cmds.Run(ctx, []byte(passphrase+"\n"), name, args...); err != nil {
		return fmt.Errorf("unlock wallet: %w", err)
	}
	return nil
}

// Balance fetches the confirmed and unconfirmed balance in currency.
func (h *Handle) Balance(ctx context.Context, currency string) (Balance, error) {
	name, args, err := config.ExpandCommand(h.cfg.BalanceCommand, config.CommandVars{Currency: currency})
	if err != nil {
		return Balance{}, fmt.Errorf("balance command: %w", err)
	}
	out, err := h.cmds.Run(ctx, nil, name, args...)
	if err != nil {
		return Balance{}, fmt.Errorf("fetch %s balance: %w", currency, err)
	}
	b, err := ParseBalance(out)
	if err != nil {
		return Balance{}, fmt.Errorf("fetch %s balance: %w", currency, err)
	}
	return b, nil
}

// Stop asks the daemon to shut down and, for a supervised process, waits
// for it to exit. When the stop command is missing or fails the process is
// sent SIGTERM; if ctx expires first it is killed.
func (h *Handle) Stop(ctx context.Context) error {
	started, alive := h.running()
	if started && !alive {
		return nil
	}

	var stopErr error
	if len(h.cfg.StopCommand) > 0 {
		name, args, err := config.ExpandCommand(h.cfg.StopCommand, config.CommandVars{})
		if err == nil {
			_, err = h.cmds.Run(ctx, nil, name, args...)
		}
		if err != nil {
			stopErr = fmt.Errorf("stop daemon: %w", err)
		}
	}

	if !started {
		return stopErr
	}

	if stopErr != nil || len(h.cfg.StopCommand) == 0 {
		if stopErr != nil {
			h.logger.Warn("stop command failed, terminating daemon", "error", stopErr)
		}
		if err := h.proc.Terminate(); err != nil {
			h.logger.Warn("terminate daemon failed", "error", err)
		}
	}

	select {
	case <-h.exited:
		return nil
	case <-ctx.Done():
	}

	h.logger.Warn("daemon did not exit in time, killing")
	if err := h.proc.Kill(); err != nil {
		return fmt.Errorf("kill daemon: %w", err)
	}
	<-h.exited
	return fmt.Errorf("daemon did not stop: %w", ctx.Err())
}
