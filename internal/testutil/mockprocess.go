package testutil

import (
	"errors"
	"io"
	"strings"
	"sync"
)

// Errors returned by MockProcessRunner.
var (
	ErrProcessAlreadyStarted = errors.New("process already started")
	ErrProcessNotStarted     = errors.New("process not started")
	ErrProcessKilled         = errors.New("process killed")
	ErrProcessTerminated     = errors.New("process terminated")
)

// MockProcess records a single Start call.
type MockProcess struct {
	Name string
	Args []string
}

// MockProcessRunner implements runner.ProcessRunner for testing. The fake
// process runs until Terminate, Kill or Exit is called.
type MockProcessRunner struct {
	mu sync.Mutex

	stdout     string
	stderr     string
	startErr   error
	ignoreTerm bool

	started    bool
	terminated bool
	killed     bool
	exitErr    error
	exited     chan struct{}
	exitOnce   sync.Once
	processes  []MockProcess
	stdoutPipe *mockPipe
	stderrPipe *mockPipe
}

// NewMockProcessRunner creates a new mock for testing.
func NewMockProcessRunner() *MockProcessRunner {
	return &MockProcessRunner{
		exited: make(chan struct{}),
	}
}

// SetOutput configures the stdout content.
func (m *MockProcessRunner) SetOutput(content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stdout = content
}

// SetStderr configures the stderr content.
func (m *MockProcessRunner) SetStderr(content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stderr = content
}

// SetStartError configures an error to return from Start.
func (m *MockProcessRunner) SetStartError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startErr = err
}

// IgnoreTerminate makes the fake process survive SIGTERM.
func (m *MockProcessRunner) IgnoreTerminate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ignoreTerm = true
}

// Start implements runner.ProcessRunner.Start.
func (m *MockProcessRunner) Start(name string, args ...string) (io.ReadCloser, io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return nil, nil, ErrProcessAlreadyStarted
	}
	m.processes = append(m.processes, MockProcess{Name: name, Args: args})
	if m.startErr != nil {
		return nil, nil, m.startErr
	}

	m.started = true
	m.stdoutPipe = newMockPipe(m.stdout)
	m.stderrPipe = newMockPipe(m.stderr)
	return m.stdoutPipe, m.stderrPipe, nil
}

// Wait blocks until the fake process exits.
func (m *MockProcessRunner) Wait() error {
	m.mu.Lock()
	started := m.started
	m.mu.Unlock()

	if !started {
		return ErrProcessNotStarted
	}

	<-m.exited

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.exitErr
}

// Terminate implements runner.ProcessRunner.Terminate.
func (m *MockProcessRunner) Terminate() error {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return nil
	}
	m.terminated = true
	ignore := m.ignoreTerm
	m.mu.Unlock()

	if !ignore {
		m.Exit(ErrProcessTerminated)
	}
	return nil
}

// Kill implements runner.ProcessRunner.Kill.
func (m *MockProcessRunner) Kill() error {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return nil
	}
	m.killed = true
	m.mu.Unlock()

	m.Exit(ErrProcessKilled)
	return nil
}

// Exit ends the fake process with err, as if it crashed or returned. Only
// the first call has an effect.
func (m *MockProcessRunner) Exit(err error) {
	m.exitOnce.Do(func() {
		m.mu.Lock()
		m.exitErr = err
		if m.stdoutPipe != nil {
			_ = m.stdoutPipe.Close()
		}
		if m.stderrPipe != nil {
			_ = m.stderrPipe.Close()
		}
		m.mu.Unlock()
		close(m.exited)
	})
}

// Processes returns a copy of all recorded process starts.
func (m *MockProcessRunner) Processes() []MockProcess {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]MockProcess, len(m.processes))
	copy(result, m.processes)
	return result
}

// Started reports whether a process was started.
func (m *MockProcessRunner) Started() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

// Terminated reports whether Terminate was called.
func (m *MockProcessRunner) Terminated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.terminated
}

// Killed reports whether Kill was called.
func (m *MockProcessRunner) Killed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.killed
}

// mockPipe provides a simple io.ReadCloser for mock output.
type mockPipe struct {
	reader io.Reader
	closed bool
	mu     sync.Mutex
}

func newMockPipe(content string) *mockPipe {
	return &mockPipe{
		reader: strings.NewReader(content),
	}
}

func (p *mockPipe) Read(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, io.EOF
	}

	return p.reader.Read(buf)
}

func (p *mockPipe) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}
