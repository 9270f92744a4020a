package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Sink consumes events from the router.
type Sink interface {
	Start(ctx context.Context, events <-chan Event) error
	Stop() error
}

// Rotation bounds the size and age of the event journal.
type Rotation struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// LogSink appends events to a JSON lines journal. The journal rotates by
// size, so `walletshell events -f` can follow it across restarts.
type LogSink struct {
	path     string
	rotation Rotation
	out      io.WriteCloser
	encoder  *json.Encoder
	mu       sync.Mutex
	done     chan struct{}
}

// NewLogSink creates a LogSink writing to path.
func NewLogSink(path string, rotation Rotation) *LogSink {
	return &LogSink{
		path:     path,
		rotation: rotation,
		done:     make(chan struct{}),
	}
}

// Start opens the journal and consumes events until ctx is canceled or the
// channel is closed.
func (s *LogSink) Start(ctx context.Context, events <-chan Event) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create journal directory: %w", err)
	}

	out := &lumberjack.Logger{
		Filename:   s.path,
		MaxSize:    s.rotation.MaxSizeMB,
		MaxBackups: s.rotation.MaxBackups,
		MaxAge:     s.rotation.MaxAgeDays,
		Compress:   s.rotation.Compress,
	}

	s.mu.Lock()
	s.out = out
	s.encoder = json.NewEncoder(out)
	s.mu.Unlock()

	go s.run(ctx, events)
	return nil
}

func (s *LogSink) run(ctx context.Context, events <-chan Event) {
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			s.write(event)
		}
	}
}

func (s *LogSink) write(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.encoder == nil {
		return
	}
	if err := s.encoder.Encode(event); err != nil {
		slog.Error("journal write failed", "event_type", event.Type(), "error", err)
	}
}

// Stop waits for the consumer to exit and closes the journal.
func (s *LogSink) Stop() error {
	s.mu.Lock()
	started := s.out != nil
	s.mu.Unlock()
	if !started {
		return nil
	}

	<-s.done

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.out.Close()
	s.out = nil
	s.encoder = nil
	return err
}

// Path returns the journal path.
func (s *LogSink) Path() string {
	return s.path
}
