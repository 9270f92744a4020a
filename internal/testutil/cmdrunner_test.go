package testutil

import (
	"context"
	"errors"
	"testing"
)

func TestNewMockRunner(t *testing.T) {
	mock := NewMockRunner()

	if mock.Responses == nil {
		t.Error("Responses map should be initialized")
	}
	if mock.Errors == nil {
		t.Error("Errors map should be initialized")
	}
	if mock.Calls != nil {
		t.Error("Calls should be nil initially")
	}
}

func TestMockRunner_Run_RecordsCalls(t *testing.T) {
	mock := NewMockRunner()
	mock.SetResponse("walletctl", []string{"unlock", "--staking"}, []byte("ok"))

	_, _ = mock.Run(context.Background(), []byte("secret\n"), "walletctl", "unlock", "--staking")
	_, _ = mock.Run(context.Background(), nil, "walletctl", "unlock", "--staking")

	calls := mock.GetCalls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	if calls[0].Name != "walletctl" || len(calls[0].Args) != 2 || calls[0].Args[1] != "--staking" {
		t.Errorf("unexpected call: %+v", calls[0])
	}
	if string(calls[0].Stdin) != "secret\n" {
		t.Errorf("stdin = %q", calls[0].Stdin)
	}
	if calls[1].Stdin != nil {
		t.Errorf("nil stdin recorded as %q", calls[1].Stdin)
	}
}

func TestMockRunner_Run(t *testing.T) {
	boom := errors.New("command failed")
	tests := []struct {
		name    string
		setup   func(m *MockRunner)
		args    []string
		want    string
		wantErr error
	}{
		{
			name:  "exact response",
			setup: func(m *MockRunner) { m.SetResponse("walletctl", []string{"status", "--json"}, []byte(StatusStaking)) },
			args:  []string{"status", "--json"},
			want:  StatusStaking,
		},
		{
			name:    "error",
			setup:   func(m *MockRunner) { m.SetError("walletctl", []string{"stop"}, boom) },
			args:    []string{"stop"},
			wantErr: boom,
		},
		{
			name: "error takes precedence",
			setup: func(m *MockRunner) {
				m.SetResponse("walletctl", []string{"stop"}, []byte("ok"))
				m.SetError("walletctl", []string{"stop"}, boom)
			},
			args:    []string{"stop"},
			wantErr: boom,
		},
		{
			name:  "prefix match",
			setup: func(m *MockRunner) { m.SetResponse("walletctl", []string{"balance"}, []byte(`{"confirmed":1}`)) },
			args:  []string{"balance", "--currency", "ECA"},
			want:  `{"confirmed":1}`,
		},
		{
			name: "dynamic response wins",
			setup: func(m *MockRunner) {
				m.SetResponse("walletctl", []string{"status"}, []byte("static"))
				m.DynamicResponse = func(_ context.Context, _ string, args []string) ([]byte, error, bool) {
					return []byte("dynamic"), nil, args[0] == "status"
				}
			},
			args: []string{"status"},
			want: "dynamic",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockRunner()
			tt.setup(mock)

			got, err := mock.Run(context.Background(), nil, "walletctl", tt.args...)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMockRunner_Run_UnexpectedCommand(t *testing.T) {
	mock := NewMockRunner()

	_, err := mock.Run(context.Background(), nil, "walletctl", "rescan")
	if err == nil || err.Error() != "unexpected command: walletctl rescan" {
		t.Errorf("err = %v", err)
	}
}

func TestMockRunner_Reset(t *testing.T) {
	mock := NewMockRunner()
	SetupMockWallet(mock, StatusLocked)

	_, _ = mock.Run(context.Background(), nil, "walletctl", "stop")
	mock.Reset()

	if len(mock.GetCalls()) != 0 {
		t.Error("Reset should clear calls")
	}
	if _, err := mock.Run(context.Background(), nil, "walletctl", "stop"); err != nil {
		t.Errorf("Reset should keep responses: %v", err)
	}
}
