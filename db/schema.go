// ABOUTME: Database schema definitions and migrations
// ABOUTME: Handles SQLite table creation and initialization
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS project_mappings (
	id TEXT PRIMARY KEY,
	source_id TEXT NOT NULL UNIQUE,
	source_name TEXT NOT NULL,
	target_client_id INTEGER,
	target_project_id INTEGER,
	status TEXT NOT NULL DEFAULT 'active' CHECK(status IN ('active', 'archived')),
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_project_mappings_source_id ON project_mappings(source_id);
CREATE INDEX IF NOT EXISTS idx_project_mappings_target_project ON project_mappings(target_project_id);

CREATE TABLE IF NOT EXISTS sync_log (
	id TEXT PRIMARY KEY,
	action TEXT NOT NULL CHECK(action IN ('create_client', 'create_project', 'link', 'skip', 'error')),
	source_id TEXT,
	timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	details TEXT
);

CREATE INDEX IF NOT EXISTS idx_sync_log_timestamp ON sync_log(timestamp);
CREATE INDEX IF NOT EXISTS idx_sync_log_source_id ON sync_log(source_id);

CREATE TABLE IF NOT EXISTS timer_sessions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	task_id TEXT,
	description TEXT NOT NULL,
	project_name TEXT,
	toggl_entry_id INTEGER,
	started_at DATETIME NOT NULL,
	stopped_at DATETIME,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_timer_sessions_task_id ON timer_sessions(task_id);
CREATE INDEX IF NOT EXISTS idx_timer_sessions_stopped_at ON timer_sessions(stopped_at);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
