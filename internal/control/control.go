// Package control exposes a running shell over a Unix socket so the daemon,
// the update service and the CLI can post notifications and query state.
package control

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/npratt/walletshell/internal/lifecycle"
	"github.com/npratt/walletshell/internal/viewmodel"
)

// Target is the part of the controller the socket drives.
type Target interface {
	Snapshot() viewmodel.Snapshot
	Deliver(ctx context.Context, e lifecycle.Event) error
	RequestQuit(ctx context.Context) error
}

// Server serves control requests on a Unix socket.
type Server struct {
	target    Target
	sockPath  string
	startTime time.Time
	logger    *slog.Logger

	listener net.Listener
	running  bool
	mu       sync.RWMutex
}

// NewServer creates a Server for target listening on sockPath.
func NewServer(sockPath string, target Target, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		target:   target,
		sockPath: sockPath,
		logger:   logger,
	}
}

// Running returns whether the server is accepting connections.
func (s *Server) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// StartTime returns when the server started listening.
func (s *Server) StartTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.startTime
}

// SocketPath returns the Unix socket path.
func (s *Server) SocketPath() string {
	return s.sockPath
}
