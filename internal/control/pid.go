package control

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/gofrs/flock"

	"github.com/npratt/walletshell/internal/config"
)

// ErrAlreadyRunning is returned when another shell holds the instance lock.
var ErrAlreadyRunning = errors.New("walletshell already running")

// InstanceLock is held by the one shell driving a wallet. It is an flock on
// the PID file; the shell's instance.json is published under it and removed
// when it is released.
type InstanceLock struct {
	paths    config.PathsConfig
	infoPath string
	lock     *flock.Flock
}

// AcquireLock takes the instance lock for paths. Files left behind by a
// shell that died are removed first. infoPath may be empty when no
// instance info is published.
func AcquireLock(paths config.PathsConfig, infoPath string) (*InstanceLock, error) {
	l := &InstanceLock{paths: paths, infoPath: infoPath}
	l.cleanupStale()

	if err := os.MkdirAll(filepath.Dir(paths.PID), 0755); err != nil {
		return nil, fmt.Errorf("create pid directory: %w", err)
	}
	fl := flock.New(paths.PID)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock pid file: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (pid %d, lock %s)", ErrAlreadyRunning, ReadPID(paths.PID), paths.PID)
	}

	if err := os.WriteFile(paths.PID, []byte(strconv.Itoa(os.Getpid())+"\n"), 0644); err != nil {
		_ = fl.Unlock()
		return nil, fmt.Errorf("write pid: %w", err)
	}
	l.lock = fl
	return l, nil
}

// Publish writes info to instance.json with the lock's paths and the
// current PID filled in.
func (l *InstanceLock) Publish(info Info) error {
	if l.infoPath == "" {
		return nil
	}
	info.SocketPath = l.paths.Socket
	info.PIDPath = l.paths.PID
	info.LogPath = l.paths.Log
	info.PID = os.Getpid()
	return WriteInfo(l.infoPath, &info)
}

// Release removes instance.json and the PID file and drops the lock. It is
// safe to call more than once.
func (l *InstanceLock) Release() error {
	var err error
	if l.infoPath != "" {
		err = RemoveInfo(l.infoPath)
	}
	if l.lock != nil {
		if uerr := l.lock.Unlock(); uerr != nil {
			err = errors.Join(err, fmt.Errorf("unlock pid file: %w", uerr))
		}
		l.lock = nil
		_ = os.Remove(l.paths.PID)
	}
	return err
}

// cleanupStale removes files of a shell whose recorded PID is dead. The
// instance info is only removed when it belongs to that same dead shell.
func (l *InstanceLock) cleanupStale() {
	pid := ReadPID(l.paths.PID)
	if pid == 0 || IsProcessRunning(pid) {
		return
	}
	_ = os.Remove(l.paths.PID)
	if l.paths.Socket != "" {
		_ = os.Remove(l.paths.Socket)
	}
	if l.infoPath != "" {
		if info, err := ReadInfo(l.infoPath); err == nil && info.PID == pid {
			_ = RemoveInfo(l.infoPath)
		}
	}
}

// ReadPID returns the PID recorded at path, or 0 if the file is missing or
// invalid.
func ReadPID(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid < 0 {
		return 0
	}
	return pid
}

// IsProcessRunning reports whether pid names a live process.
func IsProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// FindProcess always succeeds on Unix.
	return process.Signal(syscall.Signal(0)) == nil
}
