// ABOUTME: Shared error taxonomy for remote service adapters
// ABOUTME: Sentinel errors distinguish auth, rate-limit, duplicate, and transport failures
package remote

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrProviderUnavailable covers 5xx responses and unusable backends.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrAuth covers invalid or expired credentials (401/403).
	ErrAuth = errors.New("authentication failed")
	// ErrRateLimited covers quota exhaustion (402/429).
	ErrRateLimited = errors.New("rate limited")
	// ErrNetwork covers transport failures and timeouts.
	ErrNetwork = errors.New("network error")
	// ErrDuplicateClient signals a client-name conflict reported by the backend.
	ErrDuplicateClient = errors.New("client already exists")
	// ErrDuplicateProject signals a project-name conflict reported by the backend.
	ErrDuplicateProject = errors.New("project already exists")
	// ErrNoActiveTimer is the benign no-op case for stop/status.
	ErrNoActiveTimer = errors.New("no active timer")
)

// StatusError is an HTTP response the taxonomy did not classify.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// Fatal reports whether err must abort the remaining work queue.
// Duplicate conflicts are recoverable (the caller re-resolves by lookup);
// auth, rate-limit, and transport failures are not.
func Fatal(err error) bool {
	return errors.Is(err, ErrAuth) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrNetwork) ||
		errors.Is(err, ErrProviderUnavailable)
}

// Conflict reports whether err is a backend name-conflict response.
// Toggl reports duplicates as 400 with an "already exists" message,
// other backends use 409.
func Conflict(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	if se.Code == 409 {
		return true
	}
	return se.Code == 400 && strings.Contains(strings.ToLower(se.Body), "already exists")
}

// classify maps an HTTP status to the taxonomy, leaving unrecognized
// codes as StatusError for the adapter to interpret.
func classify(code int, body string) error {
	switch {
	case code == 401 || code == 403:
		return fmt.Errorf("%w (status %d)", ErrAuth, code)
	case code == 402 || code == 429:
		return fmt.Errorf("%w (status %d)", ErrRateLimited, code)
	case code >= 500:
		return fmt.Errorf("%w (status %d: %s)", ErrProviderUnavailable, code, body)
	default:
		return &StatusError{Code: code, Body: body}
	}
}
