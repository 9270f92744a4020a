package control

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"time"
)

const (
	// maxMessageSize is the maximum size of a request (1MB).
	maxMessageSize = 1024 * 1024
	// readTimeout is the timeout for reading a request from a client.
	readTimeout = 30 * time.Second
	// socketPermissions are the file permissions for the Unix socket.
	socketPermissions = 0600
)

// Start begins listening on the Unix socket and serving requests.
// It blocks until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("control server already running")
	}
	s.mu.Unlock()

	// A previous instance that crashed leaves its socket behind.
	_ = os.Remove(s.sockPath)

	listener, err := net.Listen("unix", s.sockPath)
	if err != nil {
		return fmt.Errorf("listen on socket: %w", err)
	}
	if err := os.Chmod(s.sockPath, socketPermissions); err != nil {
		_ = listener.Close()
		return fmt.Errorf("set socket permissions: %w", err)
	}

	s.mu.Lock()
	s.listener = listener
	s.running = true
	s.startTime = time.Now()
	s.mu.Unlock()

	s.logger.Info("control socket listening", "socket", s.sockPath)

	go s.serve(ctx, listener)

	<-ctx.Done()
	return s.Stop()
}

// Stop closes the listener and removes the socket.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			s.logger.Error("error closing listener", "error", err)
		}
		s.listener = nil
	}
	_ = os.Remove(s.sockPath)

	s.logger.Info("control socket closed")
	return nil
}

func (s *Server) serve(ctx context.Context, listener net.Listener) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || !s.Running() {
				return
			}
			s.logger.Error("accept error", "error", err)
			continue
		}
		go s.handleConnection(ctx, conn)
	}
}

// handleConnection reads one request, dispatches it and writes the response.
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer func() { _ = conn.Close() }()

	if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
		s.logger.Error("set read deadline error", "error", err)
		return
	}

	decoder := json.NewDecoder(io.LimitReader(conn, maxMessageSize))
	encoder := json.NewEncoder(conn)

	var req Request
	if err := decoder.Decode(&req); err != nil {
		_ = encoder.Encode(Response{Error: fmt.Sprintf("decode error: %v", err)})
		return
	}

	resp := s.handleRequest(ctx, &req)
	resp.ID = req.ID
	_ = encoder.Encode(resp)
}
