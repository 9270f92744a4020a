package controller

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/npratt/walletshell/internal/events"
	"github.com/npratt/walletshell/internal/lifecycle"
)

const (
	testRetry    = 40 * time.Millisecond
	testSlowQuit = 120 * time.Millisecond
)

var (
	statusReady    = lifecycle.DaemonStatus{DaemonState: lifecycle.DaemonStarted, WalletState: lifecycle.WalletReady, LockState: lifecycle.LockStaking}
	statusStarting = lifecycle.DaemonStatus{DaemonState: lifecycle.DaemonStarting}
	statusLocked   = lifecycle.DaemonStatus{DaemonState: lifecycle.DaemonStarted, WalletState: lifecycle.WalletReady, LockState: lifecycle.LockLocked}
)

// callLog records outbound requests across both fakes in order.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.calls)
}

type fakeDaemon struct {
	log       *callLog
	status    lifecycle.DaemonStatus
	statusErr error
	stopErr   error
	// release, when set, blocks Stop until closed.
	release chan struct{}
}

func (d *fakeDaemon) Status(context.Context) (lifecycle.DaemonStatus, error) {
	return d.status, d.statusErr
}

func (d *fakeDaemon) Stop(ctx context.Context) error {
	d.log.add("stop")
	if d.release != nil {
		select {
		case <-d.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return d.stopErr
}

type fakeUpdates struct {
	log        *callLog
	installErr error
}

func (u *fakeUpdates) Download(_ context.Context, version string) error {
	u.log.add("download " + version)
	return nil
}

func (u *fakeUpdates) QuitAndInstall(_ context.Context, version string) error {
	u.log.add("install " + version)
	return u.installErr
}

type harness struct {
	c       *Controller
	daemon  *fakeDaemon
	updates *fakeUpdates
	log     *callLog
	sub     <-chan events.Event
	done    chan error
	cancel  context.CancelFunc
}

func newHarness(t *testing.T, status lifecycle.DaemonStatus, configure ...func(*fakeDaemon, *fakeUpdates)) *harness {
	t.Helper()

	log := &callLog{}
	daemon := &fakeDaemon{log: log, status: status}
	updates := &fakeUpdates{log: log}
	for _, fn := range configure {
		fn(daemon, updates)
	}

	router := events.NewRouter(500)
	t.Cleanup(router.Close)
	sub := router.Subscribe()

	opts := Options{
		Machine:     lifecycle.Machine{UpdateRetryInterval: testRetry, SlowQuitDelay: testSlowQuit},
		StopTimeout: time.Second,
	}
	c, err := New(context.Background(), opts, daemon, updates, router, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &harness{c: c, daemon: daemon, updates: updates, log: log, sub: sub, done: make(chan error, 1), cancel: cancel}
	go func() {
		h.done <- c.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		if daemon.release != nil {
			select {
			case <-daemon.release:
			default:
				close(daemon.release)
			}
		}
	})
	return h
}

func (h *harness) deliver(t *testing.T, kind lifecycle.EventKind, payload string) {
	t.Helper()
	e := lifecycle.Event{Kind: kind}
	if payload != "" {
		e.Payload = []byte(payload)
	}
	if err := h.c.Deliver(context.Background(), e); err != nil {
		t.Fatalf("Deliver(%s) failed: %v", kind, err)
	}
}

func (h *harness) waitPhase(t *testing.T, want lifecycle.Phase) lifecycle.State {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s := h.c.State(); s.Phase == want {
			return s
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for phase %s, still %s", want, h.c.State().Phase)
	return lifecycle.State{}
}

// waitEvent returns the first event of type et matching kind, if given.
func (h *harness) waitEvent(t *testing.T, et events.EventType, kind string) events.Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case e := <-h.sub:
			if e.Type() != et {
				continue
			}
			switch ev := e.(type) {
			case *events.AnomalyEvent:
				if kind != "" && ev.Kind != kind {
					continue
				}
			case *events.IgnoredEvent:
				if kind != "" && ev.Kind != kind {
					continue
				}
			}
			return e
		case <-deadline:
			t.Fatalf("timeout waiting for %s %s", et, kind)
			return nil
		}
	}
}

func (h *harness) waitDone(t *testing.T) error {
	t.Helper()
	select {
	case err := <-h.done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for Run to return")
		return nil
	}
}

func blockStop(d *fakeDaemon, _ *fakeUpdates) {
	d.release = make(chan struct{})
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		status   lifecycle.DaemonStatus
		want     lifecycle.Phase
		wantText string
	}{
		{"staking wallet is ready immediately", statusReady, lifecycle.PhaseReady, ""},
		{"starting daemon", statusStarting, lifecycle.PhaseStarting, lifecycle.TextStartingDaemon},
		{"stopped daemon", lifecycle.DaemonStatus{DaemonState: lifecycle.DaemonStopped}, lifecycle.PhaseStarting, lifecycle.TextStartingDaemon},
		{"locked wallet needs login", statusLocked, lifecycle.PhaseLogin, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &fakeDaemon{log: &callLog{}, status: tt.status}
			c, err := New(context.Background(), Options{}, d, &fakeUpdates{log: d.log}, nil, nil)
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			s := c.State()
			if s.Phase != tt.want || s.StatusText != tt.wantText {
				t.Errorf("State() = %+v, want phase %s text %q", s, tt.want, tt.wantText)
			}
			if got := c.Snapshot().Ready; got != (tt.want == lifecycle.PhaseReady) {
				t.Errorf("Snapshot().Ready = %v", got)
			}
		})
	}

	t.Run("status failure", func(t *testing.T) {
		boom := errors.New("daemon unreachable")
		d := &fakeDaemon{log: &callLog{}, statusErr: boom}
		_, err := New(context.Background(), Options{}, d, &fakeUpdates{log: d.log}, nil, nil)
		if !errors.Is(err, boom) {
			t.Errorf("err = %v, want wrapped %v", err, boom)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		d := &fakeDaemon{log: &callLog{}, status: statusReady}
		c, err := New(context.Background(), Options{}, d, &fakeUpdates{log: d.log}, nil, nil)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		if c.machine != lifecycle.NewMachine() {
			t.Errorf("machine = %+v, want defaults", c.machine)
		}
		if c.stopTimeout != DefaultStopTimeout {
			t.Errorf("stopTimeout = %v", c.stopTimeout)
		}
	})
}

func TestReadyAtStartupSkipsGates(t *testing.T) {
	h := newHarness(t, statusReady)

	start := h.waitEvent(t, events.EventShellStart, "").(*events.ShellStartEvent)
	if start.InitialPhase != "ready" || start.LockState != "STAKING" {
		t.Errorf("unexpected start event: %+v", start)
	}
	changed := h.waitEvent(t, events.EventStateChanged, "").(*events.StateChangedEvent)
	if changed.To != "ready" || !changed.Ready {
		t.Errorf("initial snapshot = %+v, want ready", changed)
	}
}

func TestStartupToReady(t *testing.T) {
	h := newHarness(t, statusStarting)

	h.deliver(t, lifecycle.EventDaemonReady, "")
	s := h.waitPhase(t, lifecycle.PhaseLoading)
	if s.StatusText != "" || s.StatusSubtext != "" {
		t.Errorf("loading state should clear status, got %+v", s)
	}

	h.deliver(t, lifecycle.EventDaemonReady, "")
	h.waitEvent(t, events.EventAnomaly, string(lifecycle.EventDaemonReady))
	if got := h.c.State().Phase; got != lifecycle.PhaseLoading {
		t.Errorf("phase after duplicate daemon-ready = %s", got)
	}

	if err := h.c.LoginComplete(context.Background()); err != nil {
		t.Fatalf("LoginComplete failed: %v", err)
	}
	h.waitPhase(t, lifecycle.PhaseReady)
	if !h.c.Snapshot().Ready {
		t.Error("snapshot should be ready")
	}
}

func TestUpdateDeferredUntilGateClears(t *testing.T) {
	h := newHarness(t, statusStarting)

	h.deliver(t, lifecycle.EventDaemonReady, "")
	h.waitPhase(t, lifecycle.PhaseLoading)

	h.deliver(t, lifecycle.EventUpdateFound, `{"version":"1.2.0"}`)
	time.Sleep(3 * testRetry)
	if got := h.c.State().Phase; got != lifecycle.PhaseLoading {
		t.Fatalf("phase = %s while gated, want loading", got)
	}
	if calls := h.log.list(); len(calls) != 0 {
		t.Fatalf("outbound calls while gated: %v", calls)
	}

	cleared := time.Now()
	h.deliver(t, lifecycle.EventLoginComplete, "")
	s := h.waitPhase(t, lifecycle.PhaseUpdating)
	if elapsed := time.Since(cleared); elapsed > testRetry+50*time.Millisecond {
		t.Errorf("update started %v after gate cleared, want within one backoff (%v)", elapsed, testRetry)
	}
	if s.StatusText != "Downloading update 1.2.0..." || s.StatusSubtext != lifecycle.SubtextKeepOpen {
		t.Errorf("updating state = %+v", s)
	}

	deadline := time.Now().Add(time.Second)
	for !slices.Contains(h.log.list(), "download 1.2.0") {
		if time.Now().After(deadline) {
			t.Fatalf("download not requested, calls = %v", h.log.list())
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestUpdateProgress(t *testing.T) {
	h := newHarness(t, statusReady)

	h.deliver(t, lifecycle.EventUpdateFound, `{"version":"1.2.0"}`)
	h.waitPhase(t, lifecycle.PhaseUpdating)

	h.deliver(t, lifecycle.EventUpdateProgress, `{"percent":42.5}`)
	deadline := time.Now().Add(time.Second)
	for h.c.State().StatusText != "Downloading update 1.2.0 (43%)..." {
		if time.Now().After(deadline) {
			t.Fatalf("status text = %q", h.c.State().StatusText)
		}
		time.Sleep(2 * time.Millisecond)
	}

	h.deliver(t, lifecycle.EventUpdateFound, `{"version":"1.3.0"}`)
	h.waitEvent(t, events.EventAnomaly, string(lifecycle.EventUpdateFound))
	if v := h.c.Snapshot().PendingVersion; v != "1.2.0" {
		t.Errorf("PendingVersion = %q after second update-found", v)
	}
}

func TestMalformedProgressAbandonsUpdate(t *testing.T) {
	h := newHarness(t, statusReady)

	h.deliver(t, lifecycle.EventUpdateFound, `{"version":"1.2.0"}`)
	h.waitPhase(t, lifecycle.PhaseUpdating)

	h.deliver(t, lifecycle.EventUpdateProgress, `{"percent":"lots"}`)
	s := h.waitPhase(t, lifecycle.PhaseReady)
	if s.StatusText != "" || s.PendingUpdate != nil {
		t.Errorf("abandoned update left state %+v", s)
	}
	anomaly := h.waitEvent(t, events.EventAnomaly, string(lifecycle.EventUpdateProgress)).(*events.AnomalyEvent)
	if anomaly.Error == "" {
		t.Error("anomaly should carry the parse error")
	}
}

func TestQuitWhileUpdating(t *testing.T) {
	h := newHarness(t, statusReady, blockStop)

	h.deliver(t, lifecycle.EventUpdateFound, `{"version":"1.2.0"}`)
	h.waitPhase(t, lifecycle.PhaseUpdating)

	h.deliver(t, lifecycle.EventQuitRequested, "")
	s := h.waitPhase(t, lifecycle.PhaseQuitting)
	if s.StatusText != lifecycle.TextClosingDaemon || s.StatusSubtext != "" || s.PendingUpdate != nil {
		t.Errorf("quitting state = %+v", s)
	}

	select {
	case <-h.c.Quitting():
	case <-time.After(time.Second):
		t.Fatal("Quitting() not closed")
	}

	h.deliver(t, lifecycle.EventUpdateProgress, `{"percent":90}`)
	h.waitEvent(t, events.EventIgnored, string(lifecycle.EventUpdateProgress))
	if got := h.c.State().StatusText; got != lifecycle.TextClosingDaemon {
		t.Errorf("status text after progress = %q", got)
	}

	h.deliver(t, lifecycle.EventUpdateDownloaded, "")
	h.waitEvent(t, events.EventIgnored, string(lifecycle.EventUpdateDownloaded))

	close(h.daemon.release)
	if err := h.waitDone(t); err != nil {
		t.Errorf("Run returned %v", err)
	}
	for _, call := range h.log.list() {
		if call == "install 1.2.0" {
			t.Error("quit must not install an abandoned update")
		}
	}
}

func TestSlowQuitNotice(t *testing.T) {
	h := newHarness(t, statusReady, blockStop)

	entered := time.Now()
	h.deliver(t, lifecycle.EventQuitRequested, "")
	h.waitPhase(t, lifecycle.PhaseQuitting)

	time.Sleep(testSlowQuit / 2)
	if sub := h.c.State().StatusSubtext; sub != "" {
		t.Fatalf("subtext = %q before the slow-quit delay", sub)
	}

	deadline := time.Now().Add(time.Second)
	for h.c.State().StatusSubtext == "" {
		if time.Now().After(deadline) {
			t.Fatal("slow-quit notice never shown")
		}
		time.Sleep(2 * time.Millisecond)
	}
	if elapsed := time.Since(entered); elapsed < testSlowQuit {
		t.Errorf("notice shown after %v, want at least %v", elapsed, testSlowQuit)
	}
	if sub := h.c.State().StatusSubtext; sub != lifecycle.SubtextSlowQuit {
		t.Errorf("subtext = %q", sub)
	}

	h.deliver(t, lifecycle.EventQuitRequested, "")
	h.waitEvent(t, events.EventIgnored, string(lifecycle.EventQuitRequested))
	time.Sleep(2 * testSlowQuit)
	if sub := h.c.State().StatusSubtext; sub != lifecycle.SubtextSlowQuit {
		t.Errorf("subtext reverted to %q", sub)
	}

	close(h.daemon.release)
	if err := h.waitDone(t); err != nil {
		t.Errorf("Run returned %v", err)
	}
	if calls := h.log.list(); !slices.Equal(calls, []string{"stop"}) {
		t.Errorf("calls = %v, want [stop]", calls)
	}
}

func TestUpdateDownloadedInstalls(t *testing.T) {
	tests := []struct {
		name       string
		stopErr    error
		installErr error
		wantErr    bool
	}{
		{name: "clean stop"},
		{name: "stop failure still installs", stopErr: errors.New("daemon hung")},
		{name: "install failure is returned", installErr: errors.New("installer missing"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, statusReady, func(d *fakeDaemon, u *fakeUpdates) {
				d.stopErr = tt.stopErr
				u.installErr = tt.installErr
			})

			h.deliver(t, lifecycle.EventUpdateFound, `{"version":"2.0.1"}`)
			h.waitPhase(t, lifecycle.PhaseUpdating)
			h.deliver(t, lifecycle.EventUpdateDownloaded, "")

			err := h.waitDone(t)
			if (err != nil) != tt.wantErr {
				t.Errorf("Run() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := h.c.State().Phase; got != lifecycle.PhaseQuitting {
				t.Errorf("final phase = %s, want quitting", got)
			}

			calls := h.log.list()
			stop := slices.Index(calls, "stop")
			install := slices.Index(calls, "install 2.0.1")
			if stop < 0 || install < 0 || stop > install {
				t.Errorf("calls = %v, want stop before install", calls)
			}
		})
	}
}

func TestDeliver(t *testing.T) {
	h := newHarness(t, statusReady)

	for _, kind := range []lifecycle.EventKind{lifecycle.EventSlowQuitNotice, "bogus"} {
		err := h.c.Deliver(context.Background(), lifecycle.Event{Kind: kind})
		if !errors.Is(err, ErrUnknownEvent) {
			t.Errorf("Deliver(%s) = %v, want ErrUnknownEvent", kind, err)
		}
	}

	h.deliver(t, lifecycle.EventLoginComplete, "")
	h.waitEvent(t, events.EventAnomaly, string(lifecycle.EventLoginComplete))

	h.cancel()
	if err := h.waitDone(t); err != nil {
		t.Errorf("Run returned %v", err)
	}
	// Repeated so a select that races the open inbox against done shows up.
	for i := 0; i < 50; i++ {
		if err := h.c.Deliver(context.Background(), lifecycle.Event{Kind: lifecycle.EventQuitRequested}); !errors.Is(err, ErrStopped) {
			t.Fatalf("Deliver after stop (attempt %d) = %v, want ErrStopped", i, err)
		}
	}
	if err := h.c.RequestQuit(context.Background()); !errors.Is(err, ErrStopped) {
		t.Errorf("RequestQuit after stop = %v, want ErrStopped", err)
	}
	if err := h.c.LoginComplete(context.Background()); !errors.Is(err, ErrStopped) {
		t.Errorf("LoginComplete after stop = %v, want ErrStopped", err)
	}
}

func TestCancelStopsTimers(t *testing.T) {
	h := newHarness(t, statusReady, blockStop)

	h.deliver(t, lifecycle.EventQuitRequested, "")
	h.waitPhase(t, lifecycle.PhaseQuitting)
	h.cancel()
	if err := h.waitDone(t); err != nil {
		t.Errorf("Run returned %v", err)
	}

	stop := h.waitEvent(t, events.EventShellStop, "").(*events.ShellStopEvent)
	if stop.Reason != "context cancelled" {
		t.Errorf("stop reason = %q", stop.Reason)
	}

	time.Sleep(2 * testSlowQuit)
	if sub := h.c.State().StatusSubtext; sub != "" {
		t.Errorf("slow-quit notice fired after exit: %q", sub)
	}
}
