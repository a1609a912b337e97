// ABOUTME: Append-only sync log operations
// ABOUTME: Records one immutable row per atomic sync action for auditing and dedup
package db

import (
	"database/sql"
	"fmt"
	"math/rand"
	"time"

	"github.com/iross/taskbridge/models"
	"github.com/oklog/ulid/v2"
)

// AppendSyncLog writes one audit row and returns its ID. sourceID is
// optional and enables later existence checks (e.g. calendar event dedup).
func AppendSyncLog(db *sql.DB, action, sourceID, details string) (string, error) {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()

	var src sql.NullString
	if sourceID != "" {
		src = sql.NullString{String: sourceID, Valid: true}
	}

	_, err := db.Exec(`
		INSERT INTO sync_log (id, action, source_id, timestamp, details)
		VALUES (?, ?, ?, ?, ?)
	`, id, action, src, time.Now(), details)

	if err != nil {
		return "", fmt.Errorf("failed to append sync log: %w", err)
	}

	return id, nil
}

// SyncLogExists reports whether any entry was recorded for sourceID.
func SyncLogExists(db *sql.DB, sourceID string) (bool, error) {
	var count int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM sync_log WHERE source_id = ?
	`, sourceID).Scan(&count)

	if err != nil {
		return false, fmt.Errorf("failed to check sync log: %w", err)
	}

	return count > 0, nil
}

// ListSyncLog returns recent entries, newest first.
func ListSyncLog(db *sql.DB, limit int) ([]models.SyncLogEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := db.Query(`
		SELECT id, action, source_id, timestamp, details
		FROM sync_log
		ORDER BY timestamp DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []models.SyncLogEntry
	for rows.Next() {
		var e models.SyncLogEntry
		var sourceID, details sql.NullString

		if err := rows.Scan(&e.ID, &e.Action, &sourceID, &e.Timestamp, &details); err != nil {
			return nil, fmt.Errorf("failed to scan sync log entry: %w", err)
		}

		if sourceID.Valid {
			e.SourceID = sourceID.String
		}
		if details.Valid {
			e.Details = details.String
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync log: %w", err)
	}

	return entries, nil
}

// PruneSyncLog deletes entries older than the given number of days.
// This is the only mutation the log permits.
func PruneSyncLog(db *sql.DB, olderThanDays int) (int64, error) {
	result, err := db.Exec(`
		DELETE FROM sync_log WHERE timestamp < datetime('now', ?)
	`, fmt.Sprintf("-%d days", olderThanDays))
	if err != nil {
		return 0, fmt.Errorf("failed to prune sync log: %w", err)
	}

	return result.RowsAffected()
}
