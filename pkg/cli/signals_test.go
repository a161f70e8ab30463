package cli

import (
	"testing"
	"time"
)

func TestSetupSignalHandler(t *testing.T) {
	ctx := SetupSignalHandler()
	if ctx == nil {
		t.Fatal("SetupSignalHandler() returned nil context")
	}

	select {
	case <-ctx.Done():
		t.Error("context should not be canceled without a signal")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWaitForShutdown(t *testing.T) {
	ch := WaitForShutdown()
	if ch == nil {
		t.Fatal("WaitForShutdown() returned nil channel")
	}

	select {
	case sig := <-ch:
		t.Errorf("unexpected signal: %v", sig)
	case <-time.After(50 * time.Millisecond):
	}
}
