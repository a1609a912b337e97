// ABOUTME: Timer lifecycle controller
// ABOUTME: Enforces the single-open-session invariant across Toggl and the local store
package timer

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iross/taskbridge/db"
	"github.com/iross/taskbridge/models"
	"github.com/iross/taskbridge/providers"
	"github.com/iross/taskbridge/toggl"
)

// Tracker is the Toggl timer surface the controller needs.
type Tracker interface {
	StartTimer(ctx context.Context, projectID *int64, description string) (*toggl.TimeEntry, error)
	StopTimer(ctx context.Context) (*toggl.TimeEntry, error)
	CurrentTimer(ctx context.Context) (*toggl.TimeEntry, error)
}

// Controller owns TimerSession state. All reads and writes of open
// sessions go through here, never directly through the store.
type Controller struct {
	store    *sql.DB
	provider providers.TaskProvider
	tracker  Tracker
}

func New(store *sql.DB, provider providers.TaskProvider, tracker Tracker) *Controller {
	return &Controller{store: store, provider: provider, tracker: tracker}
}

// Start begins tracking. An open session is stopped first, remote before
// local, so there is no window with two open sessions. When taskID is
// given, the task's project mapping resolves the Toggl project; a task
// without a mapping still gets a timer, just project-less.
func (c *Controller) Start(ctx context.Context, taskID, description string) (*models.TimerSession, error) {
	if _, err := c.Stop(ctx); err != nil {
		return nil, fmt.Errorf("failed to stop previous timer: %w", err)
	}

	var projectID *int64
	var projectName string

	if taskID != "" {
		issue, err := c.findIssue(ctx, taskID)
		if err != nil {
			return nil, err
		}
		if issue != nil {
			if description == "" {
				description = issue.Title
			}
			if issue.ProjectID != "" {
				mapping, err := db.GetMappingBySourceID(c.store, issue.ProjectID)
				if err != nil {
					return nil, err
				}
				if mapping != nil && mapping.TargetProjectID != nil {
					projectID = mapping.TargetProjectID
					projectName = mapping.SourceName
				}
			}
		}
	}
	if description == "" && taskID != "" {
		// The provider had nothing to say about this task; reuse what it
		// was called last time.
		last, err := db.LatestSessionForTask(c.store, taskID)
		if err != nil {
			return nil, err
		}
		if last != nil {
			description = last.Description
		}
	}
	if description == "" {
		description = "Working"
	}

	entry, err := c.tracker.StartTimer(ctx, projectID, description)
	if err != nil {
		return nil, err
	}

	session := &models.TimerSession{
		TaskID:       taskID,
		Description:  description,
		ProjectName:  projectName,
		TogglEntryID: &entry.ID,
	}
	if err := db.CreateTimerSession(c.store, session); err != nil {
		return nil, err
	}

	return session, nil
}

// Stop closes the open session, remote first. No open session is a
// benign no-op and yields nil.
func (c *Controller) Stop(ctx context.Context) (*models.TimerSession, error) {
	open, err := db.OpenTimerSession(c.store)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return nil, nil
	}

	if _, err := c.tracker.StopTimer(ctx); err != nil {
		return nil, err
	}

	now := time.Now()
	if err := db.CloseTimerSession(c.store, open.ID, now); err != nil {
		return nil, err
	}

	open.StoppedAt = &now
	c.annotate(ctx, open)
	return open, nil
}

// annotate writes the tracked duration back onto the task. Best effort:
// the session is already closed on both sides, so a failed comment is
// not worth surfacing as an error.
func (c *Controller) annotate(ctx context.Context, session *models.TimerSession) {
	if c.provider == nil || session.TaskID == "" || session.StoppedAt == nil {
		return
	}
	tracked := session.StoppedAt.Sub(session.StartedAt).Round(time.Minute)
	if tracked < time.Minute {
		return
	}
	text := fmt.Sprintf("Tracked %s: %s", tracked, session.Description)
	_, _ = c.provider.AddComment(ctx, session.TaskID, text)
}

// Status returns the open session, or nil. Purely local, safe to poll
// even when the remote is unreachable.
func (c *Controller) Status() (*models.TimerSession, error) {
	return db.OpenTimerSession(c.store)
}

func (c *Controller) findIssue(ctx context.Context, taskID string) (*providers.Issue, error) {
	issues, err := c.provider.ListIssues(ctx, providers.IssueFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to look up task %s: %w", taskID, err)
	}
	for i := range issues {
		if issues[i].ID == taskID {
			return &issues[i], nil
		}
	}
	return nil, nil
}
