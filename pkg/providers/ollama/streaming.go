package ollama

import (
	"bufio"
	"bytes"
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

// streamReader pulls NDJSON records off an open /api/chat stream and
// normalizes them into StreamChunks. The bufio.Reader buffers incomplete
// trailing lines across transport reads; each complete line is parsed
// independently and malformed lines are skipped without aborting the
// session.
//
// Exactly one terminal chunk is delivered per session: either the parsed
// done=true record, or a synthesized empty one when the transport closes
// without it. After the terminal chunk, Read reports io.EOF.
type streamReader struct {
	provider string
	model    string
	session  string
	body     io.ReadCloser
	reader   *bufio.Reader
	logger   *slog.Logger

	// content accumulates every delta across the session, mirroring what
	// an equivalent non-streaming call would have returned
	content strings.Builder

	done      bool
	closed    bool
	closeOnce sync.Once
	mu        sync.Mutex
}

// newStreamReader wraps an open response body.
func newStreamReader(provider, model string, body io.ReadCloser, logger *slog.Logger) *streamReader {
	session := uuid.New().String()
	return &streamReader{
		provider: provider,
		model:    model,
		session:  session,
		body:     body,
		reader:   bufio.NewReader(body),
		logger:   logger.With("stream", session),
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
		// The transport read below does not observe ctx directly;
		// cancellation of the request context tears the body down and
		// surfaces as a read error. This check catches callers whose
		// read context differs from the request context.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		line, readErr := s.reader.ReadBytes('\n')

		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			if chunk, ok := s.parseLine(trimmed); ok {
				return chunk, nil
			}
		}

		if readErr == nil {
			continue
		}

		if errors.Is(readErr, io.EOF) {
			// Transport closed without an explicit done record:
			// synthesize the terminal chunk so the caller still
			// observes exactly one terminal signal.
			s.finish()
			s.logger.Debug("stream closed without terminal record, synthesizing",
				"provider", s.provider,
				"content_len", s.content.Len(),
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

		// Mid-stream transport failure: surfaced, never retried.
		s.finish()
		return nil, providers.Classify(s.provider, readErr)
	}
}

// parseLine parses one complete NDJSON line. It returns false for records
// that yield no chunk: malformed lines and empty non-terminal deltas.
func (s *streamReader) parseLine(line []byte) (*providers.StreamChunk, bool) {
	var rec chatResponse
	if err := json.Unmarshal(line, &rec); err != nil {
		s.logger.Debug("skipping malformed stream line",
			"provider", s.provider,
			"error", err,
		)
		return nil, false
	}

	if rec.Model != "" {
		s.model = rec.Model
	}
	s.content.WriteString(rec.Message.Content)

	if rec.Done {
		s.finish()
		return &providers.StreamChunk{
			Delta:        rec.Message.Content,
			Done:         true,
			FinishReason: normalizeFinishReason(rec.DoneReason, true),
			Model:        s.model,
		}, true
	}

	if rec.Message.Content == "" {
		return nil, false
	}

	return &providers.StreamChunk{
		Delta: rec.Message.Content,
		Model: s.model,
	}, true
}

// finish marks the session complete and releases the connection.
func (s *streamReader) finish() {
	s.mu.Lock()
	s.done = true
	s.mu.Unlock()
	s.release()
}

// Close releases the underlying connection. Safe to call repeatedly and
// concurrently with a pending Read: closing the body unblocks it.
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
