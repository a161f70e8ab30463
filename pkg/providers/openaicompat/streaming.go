package openaicompat

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"mercator-hq/ganymede/pkg/providers"
)

// streamReader pulls Server-Sent Events off an open completions stream.
// Lines arrive as "data: {json}" records terminated by "data: [DONE]".
// Non-data lines and malformed payloads are skipped; a transport close
// without a terminal signal synthesizes one, so every session delivers
// exactly one terminal chunk.
type streamReader struct {
	provider string
	model    string
	body     io.ReadCloser
	reader   *bufio.Reader
	logger   *slog.Logger

	content strings.Builder

	done      bool
	closed    bool
	closeOnce sync.Once
	mu        sync.Mutex
}

func newStreamReader(provider, model string, body io.ReadCloser, logger *slog.Logger) *streamReader {
	return &streamReader{
		provider: provider,
		model:    model,
		body:     body,
		reader:   bufio.NewReader(body),
		logger:   logger.With("stream", uuid.New().String()),
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

		line, readErr := s.reader.ReadString('\n')

		if trimmed := strings.TrimSpace(line); trimmed != "" {
			chunk, terminal, ok := s.parseLine(trimmed)
			if terminal {
				s.finish()
				return chunk, nil
			}
			if ok {
				return chunk, nil
			}
		}

		if readErr == nil {
			continue
		}

		if errors.Is(readErr, io.EOF) {
			s.finish()
			s.logger.Debug("stream closed without terminal record, synthesizing",
				"provider", s.provider,
			)
			return &providers.StreamChunk{
				Done:  true,
				Model: s.model,
			}, nil
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

		s.finish()
		return nil, providers.Classify(s.provider, readErr)
	}
}

// parseLine parses one SSE line. terminal marks the chunk that ends the
// session; ok marks a non-terminal chunk worth yielding.
func (s *streamReader) parseLine(line string) (chunk *providers.StreamChunk, terminal, ok bool) {
	if !strings.HasPrefix(line, "data: ") {
		// Comments, event names, keep-alives.
		return nil, false, false
	}

	data := strings.TrimPrefix(line, "data: ")

	if data == "[DONE]" {
		return &providers.StreamChunk{
			Done:  true,
			Model: s.model,
		}, true, false
	}

	var rec streamResponse
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		s.logger.Debug("skipping malformed stream line",
			"provider", s.provider,
			"error", err,
		)
		return nil, false, false
	}

	if rec.Model != "" {
		s.model = rec.Model
	}
	if len(rec.Choices) == 0 {
		return nil, false, false
	}

	choice := rec.Choices[0]
	s.content.WriteString(choice.Delta.Content)

	if choice.FinishReason != "" {
		return &providers.StreamChunk{
			Delta:        choice.Delta.Content,
			Done:         true,
			FinishReason: normalizeFinishReason(choice.FinishReason),
			Model:        s.model,
		}, true, false
	}

	if choice.Delta.Content == "" {
		return nil, false, false
	}

	return &providers.StreamChunk{
		Delta: choice.Delta.Content,
		Model: s.model,
	}, false, true
}

// finish marks the session complete and releases the connection.
func (s *streamReader) finish() {
	s.mu.Lock()
	s.done = true
	s.mu.Unlock()
	s.release()
}

// Close releases the underlying connection. Safe to call repeatedly and
// concurrently with a pending Read.
func (s *streamReader) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.release()
	return nil
}

func (s *streamReader) release() {
	s.closeOnce.Do(func() {
		s.body.Close()
	})
}

// Content returns the text accumulated so far across the session.
func (s *streamReader) Content() string {
	return s.content.String()
}
