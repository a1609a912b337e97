// ABOUTME: Tests for the remote error taxonomy
// ABOUTME: Covers status classification, conflict detection, and fatality rules
package remote

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		code int
		want error
	}{
		{401, ErrAuth},
		{403, ErrAuth},
		{402, ErrRateLimited},
		{429, ErrRateLimited},
		{500, ErrProviderUnavailable},
		{502, ErrProviderUnavailable},
	}

	for _, tt := range tests {
		if err := classify(tt.code, ""); !errors.Is(err, tt.want) {
			t.Errorf("classify(%d) = %v, want %v", tt.code, err, tt.want)
		}
	}

	var se *StatusError
	err := classify(404, "not found")
	if !errors.As(err, &se) {
		t.Fatalf("classify(404) = %T, want *StatusError", err)
	}
	if se.Code != 404 {
		t.Errorf("StatusError code = %d", se.Code)
	}
}

func TestConflict(t *testing.T) {
	if !Conflict(&StatusError{Code: 409}) {
		t.Error("409 should be a conflict")
	}
	if !Conflict(&StatusError{Code: 400, Body: "Name already exists"}) {
		t.Error("400 with already-exists body should be a conflict")
	}
	if Conflict(&StatusError{Code: 400, Body: "bad request"}) {
		t.Error("plain 400 should not be a conflict")
	}
	if Conflict(fmt.Errorf("wrapped: %w", ErrNetwork)) {
		t.Error("network error should not be a conflict")
	}
	if !Conflict(fmt.Errorf("create: %w", error(&StatusError{Code: 409}))) {
		t.Error("wrapped 409 should be a conflict")
	}
}

func TestFatal(t *testing.T) {
	fatal := []error{ErrAuth, ErrRateLimited, ErrNetwork, ErrProviderUnavailable}
	for _, err := range fatal {
		if !Fatal(fmt.Errorf("wrapped: %w", err)) {
			t.Errorf("%v should be fatal", err)
		}
	}

	benign := []error{ErrDuplicateClient, ErrDuplicateProject, ErrNoActiveTimer, &StatusError{Code: 404}}
	for _, err := range benign {
		if Fatal(err) {
			t.Errorf("%v should not be fatal", err)
		}
	}
}
