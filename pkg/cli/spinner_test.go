package cli

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer guards writes from the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinnerRendersAndClears(t *testing.T) {
	buf := &syncBuffer{}

	s := NewSpinner(buf, "thinking")
	s.Start()
	time.Sleep(250 * time.Millisecond)
	s.Stop()

	out := buf.String()
	if !strings.Contains(out, "thinking") {
		t.Errorf("expected message in output, got %q", out)
	}
	if !strings.HasSuffix(out, "\r") {
		t.Errorf("expected trailing clear, got %q", out)
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := NewSpinner(&syncBuffer{}, "waiting")
	s.Start()
	s.Stop()
	s.Stop()
	s.Start()
	s.Stop()
}
