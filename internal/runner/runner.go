// Package runner manages the long-lived wallet daemon process. It streams
// the process output and supports a graceful terminate before a hard kill.
package runner

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
)

// ProcessRunner abstracts a supervised subprocess.
// Unlike exec.CommandRunner, the process outlives the call that started it.
type ProcessRunner interface {
	// Start spawns a process and returns readers for stdout and stderr.
	Start(name string, args ...string) (stdout, stderr io.ReadCloser, err error)

	// Wait blocks until the process exits and returns the exit error.
	// Must be called after Start to avoid resource leaks.
	Wait() error

	// Terminate asks the process to exit with SIGTERM.
	Terminate() error

	// Kill terminates the process immediately with SIGKILL.
	// Safe to call multiple times or if process already exited.
	Kill() error
}

// ExecProcessRunner implements ProcessRunner using os/exec.
type ExecProcessRunner struct {
	mu      sync.Mutex
	cmd     *exec.Cmd
	started bool
}

// NewExecProcessRunner creates a new ExecProcessRunner.
func NewExecProcessRunner() *ExecProcessRunner {
	return &ExecProcessRunner{}
}

// Start spawns the named process in its own process group so terminal
// signals aimed at the shell do not reach the daemon directly.
func (r *ExecProcessRunner) Start(name string, args ...string) (io.ReadCloser, io.ReadCloser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return nil, nil, fmt.Errorf("process already started")
	}

	r.cmd = exec.Command(name, args...)
	r.cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := r.cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("stdout pipe: %w", err)
	}

	stderr, err := r.cmd.StderrPipe()
	if err != nil {
		_ = stdout.Close()
		return nil, nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := r.cmd.Start(); err != nil {
		_ = stdout.Close()
		_ = stderr.Close()
		return nil, nil, fmt.Errorf("start process: %w", err)
	}

	r.started = true
	return stdout, stderr, nil
}

// Wait blocks until the process exits and returns the exit error.
func (r *ExecProcessRunner) Wait() error {
	r.mu.Lock()
	cmd := r.cmd
	r.mu.Unlock()

	if cmd == nil {
		return fmt.Errorf("process not started")
	}

	return cmd.Wait()
}

// Terminate sends SIGTERM. It is a no-op before Start.
func (r *ExecProcessRunner) Terminate() error {
	return r.signal(syscall.SIGTERM)
}

// Kill sends SIGKILL. It is a no-op before Start.
func (r *ExecProcessRunner) Kill() error {
	return r.signal(syscall.SIGKILL)
}

func (r *ExecProcessRunner) signal(sig syscall.Signal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cmd == nil || r.cmd.Process == nil {
		return nil
	}
	if err := r.cmd.Process.Signal(sig); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			return nil
		}
		return fmt.Errorf("signal %s: %w", sig, err)
	}
	return nil
}
