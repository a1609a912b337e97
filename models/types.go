// ABOUTME: Data models for taskbridge entities
// ABOUTME: Defines ProjectMapping, SyncLogEntry, ParsedLabel, and TimerSession structs
package models

import (
	"time"

	"github.com/google/uuid"
)

// ProjectMapping links a task-provider project to a Toggl client/project pair.
// Target IDs are nil until the corresponding Toggl object has been created.
type ProjectMapping struct {
	ID              uuid.UUID  `json:"id"`
	SourceID        string     `json:"source_id"`
	SourceName      string     `json:"source_name"`
	TargetClientID  *int64     `json:"target_client_id,omitempty"`
	TargetProjectID *int64     `json:"target_project_id,omitempty"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Mapping status constants. Mappings are never hard-deleted.
const (
	MappingStatusActive   = "active"
	MappingStatusArchived = "archived"
)

// SyncLogEntry is one immutable row of the append-only sync audit log.
type SyncLogEntry struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	SourceID  string    `json:"source_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Details   string    `json:"details,omitempty"`
}

// Sync action constants.
const (
	ActionCreateClient  = "create_client"
	ActionCreateProject = "create_project"
	ActionLink          = "link"
	ActionSkip          = "skip"
	ActionError         = "error"
)

// ParsedLabel is the result of running a naming convention over a
// task-provider project. Client is empty when the project did not match.
// Derived on every sync pass, never persisted.
type ParsedLabel struct {
	Client      string `json:"client,omitempty"`
	ProjectName string `json:"project_name"`
	Raw         string `json:"raw"`
}

// HasClient reports whether the convention matched.
func (p ParsedLabel) HasClient() bool {
	return p.Client != ""
}

// TimerSession is a tracked work interval. An open session has no StoppedAt;
// at most one session is open at any time.
type TimerSession struct {
	ID           int64      `json:"id"`
	TaskID       string     `json:"task_id,omitempty"`
	Description  string     `json:"description"`
	ProjectName  string     `json:"project_name,omitempty"`
	TogglEntryID *int64     `json:"toggl_entry_id,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	StoppedAt    *time.Time `json:"stopped_at,omitempty"`
}

// Open reports whether the session is still running.
func (s *TimerSession) Open() bool {
	return s.StoppedAt == nil
}

// Duration returns elapsed time, using the current clock for open sessions.
func (s *TimerSession) Duration() time.Duration {
	if s.StoppedAt != nil {
		return s.StoppedAt.Sub(s.StartedAt)
	}
	return time.Since(s.StartedAt)
}
