package clitool

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"

	"mercator-hq/ganymede/pkg/providers"
)

// streamReader yields a running command's stdout line by line. EOF on the
// pipe ends the session with a synthesized terminal chunk; Close cancels
// the process context and reaps the process.
type streamReader struct {
	provider string
	model    string
	cmd      *exec.Cmd
	stdout   io.ReadCloser
	reader   *bufio.Reader
	cancel   context.CancelFunc
	logger   *slog.Logger

	content strings.Builder

	// pending withholds the most recent line until the next read proves
	// more output follows; at EOF its trailing newline is trimmed so the
	// concatenated deltas match the unary Chat content.
	pending string
	eof     bool

	done     bool
	closed   bool
	waitOnce sync.Once
	waitErr  error
	mu       sync.Mutex
}

func newStreamReader(provider, model string, cmd *exec.Cmd, stdout io.ReadCloser, cancel context.CancelFunc, logger *slog.Logger) *streamReader {
	return &streamReader{
		provider: provider,
		model:    model,
		cmd:      cmd,
		stdout:   stdout,
		reader:   bufio.NewReader(stdout),
		cancel:   cancel,
		logger:   logger,
	}
}

// Read returns the next chunk of the session.
func (s *streamReader) Read(ctx context.Context) (*providers.StreamChunk, error) {
	s.mu.Lock()
	finished := s.done || s.closed
	s.mu.Unlock()
	if finished {
		return nil, io.EOF
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if s.eof {
			if delta := strings.TrimSuffix(s.pending, "\n"); delta != "" {
				s.pending = ""
				s.content.WriteString(delta)
				return &providers.StreamChunk{
					Delta: delta,
					Model: s.model,
				}, nil
			}
			s.pending = ""
			s.mu.Lock()
			s.done = true
			s.mu.Unlock()
			s.reap()
			return &providers.StreamChunk{
				Done:         true,
				FinishReason: providers.FinishReasonStop,
				Model:        s.model,
			}, nil
		}

		line, readErr := s.reader.ReadString('\n')

		if readErr == nil {
			if line == "" {
				continue
			}
			emit := s.pending
			s.pending = line
			if emit == "" {
				continue
			}
			s.content.WriteString(emit)
			return &providers.StreamChunk{
				Delta: emit,
				Model: s.model,
			}, nil
		}

		if errors.Is(readErr, io.EOF) {
			s.eof = true
			s.pending += line
			continue
		}

		s.mu.Lock()
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return nil, io.EOF
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		s.reap()
		return nil, providers.Classify(s.provider, readErr)
	}
}

// Close terminates the process and releases the pipe. Safe to call
// repeatedly.
func (s *streamReader) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.reap()
	return nil
}

// reap waits for the process exactly once so it never leaks as a zombie.
func (s *streamReader) reap() {
	s.waitOnce.Do(func() {
		s.waitErr = s.cmd.Wait()
		s.cancel()
		if s.waitErr != nil {
			s.logger.Debug("command exited with error", "error", s.waitErr)
		}
	})
}

// Content returns the text accumulated so far across the session.
func (s *streamReader) Content() string {
	return s.content.String()
}
