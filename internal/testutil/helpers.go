package testutil

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

// Canned wallet helper output.
const (
	StatusStarting = `{"daemonState":"STARTING","walletState":"EMPTY","lockState":"LOCKED"}`
	StatusLocked   = `{"daemonState":"STARTED","walletState":"READY","lockState":"LOCKED"}`
	StatusStaking  = `{"daemonState":"STARTED","walletState":"READY","lockState":"STAKING"}`
)

// WriteFile writes content to a file in the given directory.
// It creates parent directories as needed and returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// ReadFile reads a file and returns its contents.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

// FileExists checks if a file exists.
func FileExists(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Stat(path)
	return err == nil
}

// AssertCalled verifies that a command was called with the expected args.
func AssertCalled(t *testing.T, mock *MockRunner, name string, args ...string) {
	t.Helper()
	calls := mock.GetCalls()
	for _, call := range calls {
		if call.Name == name && slices.Equal(call.Args, args) {
			return
		}
	}
	t.Errorf("expected call to %s %v not found in %v", name, args, calls)
}

// AssertNotCalled verifies that a command was NOT called.
func AssertNotCalled(t *testing.T, mock *MockRunner, name string, args ...string) {
	t.Helper()
	for _, call := range mock.GetCalls() {
		if call.Name == name && (len(args) == 0 || slices.Equal(call.Args, args)) {
			t.Errorf("unexpected call to %s found: %v", name, call)
			return
		}
	}
}

// AssertCallCount verifies the number of times a command was called.
func AssertCallCount(t *testing.T, mock *MockRunner, name string, expected int) {
	t.Helper()
	count := 0
	calls := mock.GetCalls()
	for _, call := range calls {
		if call.Name == name {
			count++
		}
	}
	if count != expected {
		t.Errorf("expected %d calls to %s, got %d (calls: %v)", expected, name, count, calls)
	}
}

// SetupTestDir creates a temporary project with a .walletshell directory.
func SetupTestDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, ".walletshell"), 0755); err != nil {
		t.Fatal(err)
	}
	return dir
}

// SetupMockWallet configures a MockRunner for the default walletctl helper
// commands with the given status output.
func SetupMockWallet(mock *MockRunner, status string) {
	mock.SetResponse("walletctl", []string{"status", "--json"}, []byte(status))
	mock.SetResponse("walletctl", []string{"unlock", "--staking"}, []byte("ok"))
	mock.SetResponse("walletctl", []string{"stop"}, []byte("ok"))
}
