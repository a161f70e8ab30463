package providers

import (
	"context"
	"fmt"
	"log/slog"
)

// ResolveModel picks the effective model for a call. requested is the
// request override or the configured default. The enumeration is fresh and
// best-effort: a failed or empty enumeration leaves requested unchanged.
// When the enumeration is non-empty and does not contain requested, the
// first enumerated model is used instead and a non-fatal warning is logged.
func ResolveModel(ctx context.Context, providerID, requested string, enumerate func(context.Context) []string) string {
	models := enumerate(ctx)
	if len(models) == 0 {
		return requested
	}

	if requested == "" {
		return models[0]
	}

	for _, name := range models {
		if name == requested {
			return requested
		}
	}

	slog.Warn("configured model not found, falling back to first available",
		"provider", providerID,
		"requested", requested,
		"fallback", models[0],
	)
	return models[0]
}

// ValidateChatRequest checks a request before anything is sent to a backend.
func ValidateChatRequest(req *ChatRequest) error {
	if req == nil {
		return &ValidationError{
			Field:   "request",
			Message: "request cannot be nil",
		}
	}

	if len(req.Messages) == 0 {
		return &ValidationError{
			Field:   "messages",
			Message: "at least one message is required",
		}
	}

	for i, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem, RoleUser, RoleAssistant:
		default:
			return &ValidationError{
				Field:   "messages",
				Message: fmt.Sprintf("unknown role %q at index %d", msg.Role, i),
			}
		}
	}

	return nil
}
