package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

// Kind identifies a class of provider failure. The taxonomy is closed:
// every failure maps to exactly one of these values.
type Kind string

const (
	// KindNetwork covers connection failures: refused, reset, DNS, etc.
	KindNetwork Kind = "network_error"

	// KindTimeout covers deadline expiry on a request or probe.
	KindTimeout Kind = "timeout"

	// KindRateLimit covers HTTP 429 responses.
	KindRateLimit Kind = "rate_limit"

	// KindInvalidRequest covers malformed or rejected requests (4xx),
	// including authentication failures.
	KindInvalidRequest Kind = "invalid_request"

	// KindAPI is the catch-all for backend-reported errors.
	KindAPI Kind = "api_error"

	// KindModelNotFound covers requests naming a model the backend does
	// not have. Detection is a best-effort text heuristic since backends
	// do not encode this as a structured code.
	KindModelNotFound Kind = "model_not_found"
)

// Action is a suggested remediation the presentation layer can offer.
type Action string

const (
	// ActionRetry suggests re-issuing the request.
	ActionRetry Action = "retry"

	// ActionSwitchProvider suggests selecting the fallback provider.
	ActionSwitchProvider Action = "switch_provider"

	// ActionRefreshModels suggests refreshing the provider's model list.
	ActionRefreshModels Action = "refresh_models"

	// ActionOpenSettings suggests opening provider configuration.
	ActionOpenSettings Action = "open_settings"
)

// Fallbacks is the narrow registry view the classifier consults to decide
// whether switching providers is a viable suggestion.
type Fallbacks interface {
	// NextAvailable returns the first registered provider not in exclude,
	// or false when none exists.
	NextAvailable(exclude ...string) (Provider, bool)
}

// Error is a classified provider failure.
type Error struct {
	// Kind is the failure class from the closed taxonomy
	Kind Kind

	// Provider is the id of the provider the failure originated from
	Provider string

	// StatusCode is the HTTP status code (0 if not applicable)
	StatusCode int

	// Message is the backend-provided or synthesized error message
	Message string

	// Cause is the underlying error (if any)
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %q %s (status %d): %s", e.Provider, e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %q %s: %s", e.Provider, e.Kind, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Retryable reports whether re-issuing the request may succeed.
// Network failures, timeouts and rate limits are transient; invalid
// requests, unknown models and backend API errors are not.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindNetwork, KindTimeout, KindRateLimit:
		return true
	default:
		return false
	}
}

// Actions derives the ranked remediation list for this failure.
// fallbacks may be nil when no registry is in play.
func (e *Error) Actions(fallbacks Fallbacks) []Action {
	var actions []Action

	if e.Retryable() {
		actions = append(actions, ActionRetry)
	}

	if fallbacks != nil {
		if _, ok := fallbacks.NextAvailable(e.Provider); ok {
			actions = append(actions, ActionSwitchProvider)
		}
	}

	if e.Kind == KindModelNotFound {
		actions = append(actions, ActionRefreshModels)
	}

	if len(actions) == 0 {
		actions = append(actions, ActionOpenSettings)
	}

	return actions
}

// SuggestActions derives remediation suggestions for any error. Failures
// that never passed through the classifier only get the generic settings
// affordance.
func SuggestActions(err error, fallbacks Fallbacks) []Action {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Actions(fallbacks)
	}
	return []Action{ActionOpenSettings}
}

// Classify maps a raw failure from provider into the taxonomy.
// Already-classified errors pass through unchanged.
func Classify(provider string, err error) *Error {
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}

	kind := KindNetwork
	message := err.Error()

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
		message = "request deadline exceeded"

	case errors.Is(err, context.Canceled):
		kind = KindAPI
		message = "request cancelled"

	case isTimeout(err):
		kind = KindTimeout

	case looksLikeModelNotFound(message):
		kind = KindModelNotFound
	}

	return &Error{
		Kind:     kind,
		Provider: provider,
		Message:  message,
		Cause:    err,
	}
}

// ClassifyStatus maps a non-2xx HTTP response into the taxonomy, carrying
// the status and the backend-provided message.
func ClassifyStatus(provider string, status int, message string) *Error {
	var kind Kind

	switch {
	case status == http.StatusTooManyRequests:
		kind = KindRateLimit

	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		kind = KindTimeout

	case status >= 400 && status < 500:
		if looksLikeModelNotFound(message) {
			kind = KindModelNotFound
		} else {
			kind = KindInvalidRequest
		}

	default:
		kind = KindAPI
	}

	return &Error{
		Kind:       kind,
		Provider:   provider,
		StatusCode: status,
		Message:    message,
	}
}

// looksLikeModelNotFound applies the case-insensitive substring heuristic
// for unknown-model failures.
func looksLikeModelNotFound(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "model") || strings.Contains(lower, "not found")
}

// isTimeout reports whether err is a network-level timeout.
func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// ConfigError represents an invalid adapter configuration.
type ConfigError struct {
	// Provider is the id of the provider with invalid configuration
	Provider string

	// Field is the configuration field that is invalid
	Field string

	// Message describes the configuration error
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("provider %q configuration error for field %q: %s",
		e.Provider, e.Field, e.Message)
}

// ValidationError represents a request validation failure detected before
// anything is sent to the backend.
type ValidationError struct {
	// Field is the name of the invalid field
	Field string

	// Message describes what is invalid about the field
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field %q: %s", e.Field, e.Message)
}

// RetryAfter extracts the Retry-After value from a rate limited response
// header, supporting both delay-seconds and HTTP-date formats.
func RetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}

	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}

	return 0
}
