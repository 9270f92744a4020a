package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/npratt/walletshell/internal/events"
)

// Poll intervals for `events -f`.
var (
	fileWaitInterval = 500 * time.Millisecond
	followInterval   = 100 * time.Millisecond
)

// tailLast prints the last n journal entries.
func tailLast(w io.Writer, path string, n int) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			_, _ = fmt.Fprintln(w, "No events yet (journal does not exist)")
			return nil
		}
		return fmt.Errorf("open journal: %w", err)
	}
	defer func() { _ = file.Close() }()

	// Keep a ring of the last n lines rather than the whole journal.
	ring := make([]string, 0, n)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if n <= 0 {
			continue
		}
		if len(ring) == n {
			ring = ring[1:]
		}
		ring = append(ring, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read journal: %w", err)
	}

	if len(ring) == 0 {
		_, _ = fmt.Fprintln(w, "No events yet")
		return nil
	}
	for _, line := range ring {
		printEventLine(w, line)
	}
	return nil
}

// waitForFile waits for a file to be created and returns the opened file.
func waitForFile(ctx context.Context, path string) (*os.File, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(fileWaitInterval):
			file, err := os.Open(path)
			if err == nil {
				return file, nil
			}
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("open journal: %w", err)
			}
		}
	}
}

// tailFollow prints journal entries as they are appended until ctx is done.
func tailFollow(ctx context.Context, w io.Writer, path string) error {
	file, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("open journal: %w", err)
		}
		_, _ = fmt.Fprintln(w, "Waiting for journal to be created...")
		file, err = waitForFile(ctx, path)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	} else if _, err := file.Seek(0, io.SeekEnd); err != nil {
		_ = file.Close()
		return fmt.Errorf("seek to end: %w", err)
	}
	defer func() { _ = file.Close() }()

	_, _ = fmt.Fprintln(w, "Following events (Ctrl+C to stop)...")
	reader := bufio.NewReader(file)
	var partial strings.Builder
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		chunk, err := reader.ReadString('\n')
		partial.WriteString(chunk)
		if err != nil {
			if err != io.EOF {
				return fmt.Errorf("read journal: %w", err)
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(followInterval):
			}
			continue
		}
		printEventLine(w, strings.TrimSuffix(partial.String(), "\n"))
		partial.Reset()
	}
}

// printEventLine prints a journal line as a one-line summary. Lines that are
// not recognizable events are printed as-is.
func printEventLine(w io.Writer, line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	event, err := events.Decode([]byte(line))
	if err != nil {
		_, _ = fmt.Fprintln(w, line)
		return
	}
	_, _ = fmt.Fprintln(w, events.Summary(event))
}
