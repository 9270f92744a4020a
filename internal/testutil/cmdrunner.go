// Package testutil provides test infrastructure for unit and integration testing.
// It includes mocks and helpers that other packages use for testing.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// CommandCall records a command invocation for assertion purposes.
type CommandCall struct {
	Name  string
	Args  []string
	Stdin []byte
}

// DynamicResponseFunc generates a response for a command. Returning
// handled=false falls through to the canned responses.
type DynamicResponseFunc func(ctx context.Context, name string, args []string) (resp []byte, err error, handled bool)

// MockRunner returns canned responses based on command patterns.
// It implements exec.CommandRunner and records all calls.
type MockRunner struct {
	mu              sync.Mutex
	Responses       map[string][]byte
	Errors          map[string]error
	Calls           []CommandCall
	DynamicResponse DynamicResponseFunc
}

// NewMockRunner creates a MockRunner with initialized maps.
func NewMockRunner() *MockRunner {
	return &MockRunner{
		Responses: make(map[string][]byte),
		Errors:    make(map[string]error),
	}
}

// Run records the call and returns the configured response.
// The lookup key is "name arg1 arg2 ...", matched exactly first and then by
// prefix.
func (m *MockRunner) Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	call := CommandCall{Name: name, Args: append([]string(nil), args...)}
	if stdin != nil {
		call.Stdin = append([]byte(nil), stdin...)
	}
	m.Calls = append(m.Calls, call)

	if m.DynamicResponse != nil {
		if resp, err, handled := m.DynamicResponse(ctx, name, args); handled {
			return resp, err
		}
	}

	key := makeKey(name, args)

	if err, ok := m.Errors[key]; ok {
		return nil, err
	}
	if resp, ok := m.Responses[key]; ok {
		return resp, nil
	}

	for k, err := range m.Errors {
		if strings.HasPrefix(key, k) {
			return nil, err
		}
	}
	for k, resp := range m.Responses {
		if strings.HasPrefix(key, k) {
			return resp, nil
		}
	}

	return nil, fmt.Errorf("unexpected command: %s", key)
}

// SetResponse configures a canned response for a command.
func (m *MockRunner) SetResponse(name string, args []string, response []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[makeKey(name, args)] = response
}

// SetError configures an error response for a command.
func (m *MockRunner) SetError(name string, args []string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors[makeKey(name, args)] = err
}

// GetCalls returns a copy of all recorded calls.
func (m *MockRunner) GetCalls() []CommandCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]CommandCall, len(m.Calls))
	copy(result, m.Calls)
	return result
}

// Reset clears all recorded calls.
func (m *MockRunner) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
}

func makeKey(name string, args []string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}
