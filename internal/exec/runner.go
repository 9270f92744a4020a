// Package exec runs the short-lived helper commands the shell talks to the
// wallet daemon and the update service through.
package exec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// CommandRunner abstracts command execution for dependency injection.
// stdin may be nil.
type CommandRunner interface {
	Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)
}

// ExecRunner executes real commands using os/exec.
type ExecRunner struct{}

// NewExecRunner creates a new ExecRunner for production use.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes a command and returns its stdout. A failing command's error
// carries the last line of its stderr.
func (r *ExecRunner) Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	cmd := execCommand(ctx, name, args...)
	if stdin != nil {
		cmd.SetStdin(bytes.NewReader(stdin))
	}
	out, err := cmd.Output()
	if err != nil {
		return out, commandError(name, err)
	}
	return out, nil
}

func commandError(name string, err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if msg := lastLine(exitErr.Stderr); msg != "" {
			return fmt.Errorf("%s: %w: %s", name, err, msg)
		}
	}
	return fmt.Errorf("%s: %w", name, err)
}

func lastLine(b []byte) string {
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

// execCommand is a variable to allow testing.
var execCommand = execCommandImpl

func execCommandImpl(ctx context.Context, name string, args ...string) execCmd {
	return &realExecCmd{cmd: exec.CommandContext(ctx, name, args...)}
}

// execCmd abstracts exec.Cmd for testing.
type execCmd interface {
	SetStdin(r *bytes.Reader)
	Output() ([]byte, error)
}

type realExecCmd struct {
	cmd *exec.Cmd
}

func (c *realExecCmd) SetStdin(r *bytes.Reader) {
	c.cmd.Stdin = r
}

func (c *realExecCmd) Output() ([]byte, error) {
	return c.cmd.Output()
}
