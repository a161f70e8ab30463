package ollama

import (
	"testing"

	"mercator-hq/ganymede/pkg/providers"
)

func TestNormalizeFinishReason(t *testing.T) {
	tests := []struct {
		name   string
		reason string
		done   bool
		want   string
	}{
		{"terminal stop", "stop", true, providers.FinishReasonStop},
		{"terminal without reason", "", true, providers.FinishReasonStop},
		{"mid-stream record", "", false, ""},
		{"length", "length", true, providers.FinishReasonLength},
		{"unknown reason maps to error", "load", true, providers.FinishReasonError},
		{"unloaded model reason maps to error", "unload", true, providers.FinishReasonError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeFinishReason(tt.reason, tt.done); got != tt.want {
				t.Errorf("normalizeFinishReason(%q, %v) = %q, want %q", tt.reason, tt.done, got, tt.want)
			}
		})
	}
}
