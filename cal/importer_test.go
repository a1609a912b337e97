// ABOUTME: Tests for calendar event filtering and meeting recording
// ABOUTME: Covers skip rules, dedup via the sync log, and token round-trip
package cal

import (
	"database/sql"
	"testing"
	"time"

	"github.com/adrg/xdg"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"

	"github.com/iross/taskbridge/db"
)

func TestShouldSkipEvent(t *testing.T) {
	attendees := func(n int) []*calendar.EventAttendee {
		var out []*calendar.EventAttendee
		for i := 0; i < n; i++ {
			out = append(out, &calendar.EventAttendee{})
		}
		return out
	}

	tests := []struct {
		name       string
		event      *calendar.Event
		wantSkip   bool
		wantReason string
	}{
		{"nil event", nil, true, "nil event"},
		{"missing start", &calendar.Event{}, true, "missing start time"},
		{
			"all-day event",
			&calendar.Event{Start: &calendar.EventDateTime{Date: "2026-08-20"}},
			true, "all-day",
		},
		{
			"cancelled",
			&calendar.Event{
				Status: "cancelled",
				Start:  &calendar.EventDateTime{DateTime: "2026-08-20T10:00:00Z"},
			},
			true, "cancelled",
		},
		{
			"declined by user",
			&calendar.Event{
				Start: &calendar.EventDateTime{DateTime: "2026-08-20T10:00:00Z"},
				Attendees: []*calendar.EventAttendee{
					{Self: true, ResponseStatus: "declined"},
					{},
				},
			},
			true, "declined",
		},
		{
			"solo event",
			&calendar.Event{
				Start:     &calendar.EventDateTime{DateTime: "2026-08-20T10:00:00Z"},
				Attendees: attendees(1),
			},
			true, "solo",
		},
		{
			"real meeting",
			&calendar.Event{
				Start:     &calendar.EventDateTime{DateTime: "2026-08-20T10:00:00Z"},
				Attendees: attendees(3),
			},
			false, "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			skip, reason := shouldSkipEvent(tt.event)
			if skip != tt.wantSkip {
				t.Errorf("shouldSkipEvent() skip = %v, want %v", skip, tt.wantSkip)
			}
			if reason != tt.wantReason {
				t.Errorf("shouldSkipEvent() reason = %q, want %q", reason, tt.wantReason)
			}
		})
	}
}

func setupStore(t *testing.T) *sql.DB {
	t.Helper()
	store, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	store.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = store.Close() })
	if err := db.InitSchema(store); err != nil {
		t.Fatalf("failed to init schema: %v", err)
	}
	return store
}

func TestRecordMeetingDedupes(t *testing.T) {
	store := setupStore(t)
	im := NewImporter(store, nil)

	event := &calendar.Event{
		Id:      "evt-1",
		Summary: "Sprint planning",
		Start:   &calendar.EventDateTime{DateTime: "2026-08-20T10:00:00Z"},
		End:     &calendar.EventDateTime{DateTime: "2026-08-20T11:00:00Z"},
	}

	recorded, err := im.recordMeeting(event)
	if err != nil {
		t.Fatalf("recordMeeting failed: %v", err)
	}
	if !recorded {
		t.Fatal("expected first import to record")
	}

	recorded, err = im.recordMeeting(event)
	if err != nil {
		t.Fatalf("recordMeeting failed on re-run: %v", err)
	}
	if recorded {
		t.Error("expected duplicate event to be skipped")
	}

	sessions, err := db.ListTimerSessions(store, 10)
	if err != nil {
		t.Fatalf("failed to list sessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}

	s := sessions[0]
	if s.Description != "Sprint planning" {
		t.Errorf("description = %q", s.Description)
	}
	if s.StoppedAt == nil {
		t.Fatal("imported session should be closed")
	}
	if got := s.Duration(); got != time.Hour {
		t.Errorf("duration = %v, want 1h", got)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	orig := xdg.DataHome
	xdg.DataHome = t.TempDir()
	t.Cleanup(func() { xdg.DataHome = orig })

	token := &oauth2.Token{
		AccessToken:  "access",
		TokenType:    "Bearer",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(time.Hour).UTC(),
	}

	if err := SaveToken(token); err != nil {
		t.Fatalf("SaveToken failed: %v", err)
	}

	loaded, err := LoadToken()
	if err != nil {
		t.Fatalf("LoadToken failed: %v", err)
	}
	if loaded.AccessToken != token.AccessToken || loaded.RefreshToken != token.RefreshToken {
		t.Errorf("token mismatch: %+v", loaded)
	}
}

func TestPersistIfRefreshed(t *testing.T) {
	orig := xdg.DataHome
	xdg.DataHome = t.TempDir()
	t.Cleanup(func() { xdg.DataHome = orig })

	stored := &oauth2.Token{AccessToken: "old", RefreshToken: "refresh"}
	if err := SaveToken(stored); err != nil {
		t.Fatalf("SaveToken failed: %v", err)
	}

	// Same access token: nothing to persist, file stays as-is.
	if err := PersistIfRefreshed(oauth2.StaticTokenSource(stored), stored); err != nil {
		t.Fatalf("PersistIfRefreshed failed: %v", err)
	}
	loaded, err := LoadToken()
	if err != nil {
		t.Fatalf("LoadToken failed: %v", err)
	}
	if loaded.AccessToken != "old" {
		t.Errorf("access token = %q, want %q", loaded.AccessToken, "old")
	}

	// Rotated token gets written back.
	rotated := &oauth2.Token{AccessToken: "new", RefreshToken: "refresh"}
	if err := PersistIfRefreshed(oauth2.StaticTokenSource(rotated), stored); err != nil {
		t.Fatalf("PersistIfRefreshed failed: %v", err)
	}
	loaded, err = LoadToken()
	if err != nil {
		t.Fatalf("LoadToken failed: %v", err)
	}
	if loaded.AccessToken != "new" {
		t.Errorf("access token = %q, want %q", loaded.AccessToken, "new")
	}
}

func TestLoadTokenMissing(t *testing.T) {
	orig := xdg.DataHome
	xdg.DataHome = t.TempDir()
	t.Cleanup(func() { xdg.DataHome = orig })

	if _, err := LoadToken(); err == nil {
		t.Fatal("expected error for missing token")
	}
}
