// ABOUTME: Timer session database operations
// ABOUTME: Persists open/closed work intervals; open session has NULL stopped_at
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/iross/taskbridge/models"
)

// CreateTimerSession inserts an open session and populates its row ID.
func CreateTimerSession(db *sql.DB, s *models.TimerSession) error {
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now()
	}

	var taskID sql.NullString
	if s.TaskID != "" {
		taskID = sql.NullString{String: s.TaskID, Valid: true}
	}

	result, err := db.Exec(`
		INSERT INTO timer_sessions (task_id, description, project_name, toggl_entry_id, started_at)
		VALUES (?, ?, ?, ?, ?)
	`, taskID, s.Description, s.ProjectName, s.TogglEntryID, s.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to create timer session: %w", err)
	}

	s.ID, err = result.LastInsertId()
	if err != nil {
		return err
	}

	return nil
}

// OpenTimerSession returns the currently running session, or nil when
// nothing is being tracked.
func OpenTimerSession(db *sql.DB) (*models.TimerSession, error) {
	row := db.QueryRow(`
		SELECT id, task_id, description, project_name, toggl_entry_id, started_at, stopped_at
		FROM timer_sessions
		WHERE stopped_at IS NULL
		ORDER BY started_at DESC
		LIMIT 1
	`)

	s, err := scanTimerSession(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// CloseTimerSession marks a session stopped.
func CloseTimerSession(db *sql.DB, id int64, stoppedAt time.Time) error {
	result, err := db.Exec(`
		UPDATE timer_sessions
		SET stopped_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stopped_at IS NULL
	`, stoppedAt, id)
	if err != nil {
		return fmt.Errorf("failed to close timer session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("timer session %d not open", id)
	}

	return nil
}

// LatestSessionForTask returns the most recent session for a task, or nil.
func LatestSessionForTask(db *sql.DB, taskID string) (*models.TimerSession, error) {
	row := db.QueryRow(`
		SELECT id, task_id, description, project_name, toggl_entry_id, started_at, stopped_at
		FROM timer_sessions
		WHERE task_id = ?
		ORDER BY started_at DESC
		LIMIT 1
	`, taskID)

	s, err := scanTimerSession(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// ListTimerSessions returns recent sessions, newest first.
func ListTimerSessions(db *sql.DB, limit int) ([]models.TimerSession, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.Query(`
		SELECT id, task_id, description, project_name, toggl_entry_id, started_at, stopped_at
		FROM timer_sessions
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query timer sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []models.TimerSession
	for rows.Next() {
		s, err := scanTimerSession(rows.Scan)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating timer sessions: %w", err)
	}

	return sessions, nil
}

func scanTimerSession(scan func(dest ...any) error) (*models.TimerSession, error) {
	var s models.TimerSession
	var taskID, projectName sql.NullString
	var entryID sql.NullInt64
	var stoppedAt sql.NullTime

	err := scan(&s.ID, &taskID, &s.Description, &projectName, &entryID, &s.StartedAt, &stoppedAt)
	if err != nil {
		return nil, err
	}

	if taskID.Valid {
		s.TaskID = taskID.String
	}
	if projectName.Valid {
		s.ProjectName = projectName.String
	}
	if entryID.Valid {
		s.TogglEntryID = &entryID.Int64
	}
	if stoppedAt.Valid {
		s.StoppedAt = &stoppedAt.Time
	}

	return &s, nil
}
