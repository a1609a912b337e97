// ABOUTME: Calendar meeting importer
// ABOUTME: Records attended meetings as closed timer sessions, deduped by event ID
package cal

import (
	"database/sql"
	"fmt"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/iross/taskbridge/db"
	"github.com/iross/taskbridge/models"
)

const (
	maxResults    = 250 // Google Calendar API max per page
	eventIDPrefix = "gcal:"
)

// ImportStats summarizes one import pass.
type ImportStats struct {
	Fetched    int
	Imported   int
	Duplicates int
	// Skipped counts by reason (all-day, cancelled, declined, solo).
	Skipped map[string]int
}

// shouldSkipEvent filters events that don't represent attended meetings.
// Returns (true, reason) when the event should be skipped.
func shouldSkipEvent(event *calendar.Event) (bool, string) {
	if event == nil {
		return true, "nil event"
	}
	if event.Start == nil {
		return true, "missing start time"
	}

	// All-day events carry a Date instead of a DateTime.
	if event.Start.Date != "" {
		return true, "all-day"
	}
	if event.Status == "cancelled" {
		return true, "cancelled"
	}

	for _, attendee := range event.Attendees {
		if attendee.Self && attendee.ResponseStatus == "declined" {
			return true, "declined"
		}
	}

	// A meeting needs someone else in it.
	if len(event.Attendees) <= 1 {
		return true, "solo"
	}

	return false, ""
}

// Importer walks recent calendar events and records each attended
// meeting as a closed timer session. The sync log tracks imported event
// IDs so re-runs never duplicate sessions.
type Importer struct {
	store *sql.DB
	svc   *calendar.Service
}

func NewImporter(store *sql.DB, svc *calendar.Service) *Importer {
	return &Importer{store: store, svc: svc}
}

// Import fetches the last `days` days of events from the primary
// calendar and records the meetings.
func (im *Importer) Import(days int) (*ImportStats, error) {
	if days <= 0 {
		days = 7
	}

	stats := &ImportStats{Skipped: make(map[string]int)}
	since := time.Now().AddDate(0, 0, -days)

	pageToken := ""
	for {
		call := im.svc.Events.List("primary").
			MaxResults(maxResults).
			SingleEvents(true).
			OrderBy("startTime").
			TimeMin(since.Format(time.RFC3339)).
			TimeMax(time.Now().Format(time.RFC3339))
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		events, err := call.Do()
		if err != nil {
			return stats, fmt.Errorf("failed to fetch calendar events: %w", err)
		}

		stats.Fetched += len(events.Items)
		for _, event := range events.Items {
			if skip, reason := shouldSkipEvent(event); skip {
				stats.Skipped[reason]++
				continue
			}

			recorded, err := im.recordMeeting(event)
			if err != nil {
				return stats, err
			}
			if recorded {
				stats.Imported++
			} else {
				stats.Duplicates++
			}
		}

		pageToken = events.NextPageToken
		if pageToken == "" {
			return stats, nil
		}
	}
}

// recordMeeting writes one closed timer session for the event unless it
// was imported before. Returns false for duplicates.
func (im *Importer) recordMeeting(event *calendar.Event) (bool, error) {
	eventID := eventIDPrefix + event.Id

	seen, err := db.SyncLogExists(im.store, eventID)
	if err != nil {
		return false, err
	}
	if seen {
		return false, nil
	}

	start, err := time.Parse(time.RFC3339, event.Start.DateTime)
	if err != nil {
		return false, fmt.Errorf("failed to parse start of event %s: %w", event.Id, err)
	}
	end := start
	if event.End != nil && event.End.DateTime != "" {
		end, err = time.Parse(time.RFC3339, event.End.DateTime)
		if err != nil {
			return false, fmt.Errorf("failed to parse end of event %s: %w", event.Id, err)
		}
	}

	description := event.Summary
	if description == "" {
		description = "Meeting"
	}

	session := &models.TimerSession{
		Description: description,
		StartedAt:   start,
	}
	if err := db.CreateTimerSession(im.store, session); err != nil {
		return false, err
	}
	if err := db.CloseTimerSession(im.store, session.ID, end); err != nil {
		return false, err
	}

	details := fmt.Sprintf("imported meeting %q (%s)", description, end.Sub(start))
	if _, err := db.AppendSyncLog(im.store, models.ActionLink, eventID, details); err != nil {
		return false, err
	}

	return true, nil
}
