// ABOUTME: Todoist task provider adapter
// ABOUTME: REST client for projects, tasks, and comments with cursor pagination
package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/iross/taskbridge/remote"
)

// Todoist talks to the Todoist REST API.
type Todoist struct {
	c *remote.Client
}

func NewTodoist(token, baseURL string) *Todoist {
	return &Todoist{
		c: remote.New(baseURL, func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+token)
		}),
	}
}

func (t *Todoist) Name() string { return "todoist" }

type todoistPage[T any] struct {
	Results    []T    `json:"results"`
	NextCursor string `json:"next_cursor"`
}

// listAll walks a cursor-paginated collection endpoint until next_cursor
// comes back empty.
func listAll[T any](ctx context.Context, c *remote.Client, path string, query url.Values) ([]T, error) {
	var all []T
	cursor := ""

	for {
		q := url.Values{}
		for k, vs := range query {
			q[k] = vs
		}
		if cursor != "" {
			q.Set("cursor", cursor)
		}

		p := path
		if len(q) > 0 {
			p += "?" + q.Encode()
		}

		var page todoistPage[T]
		if err := c.Get(ctx, p, &page); err != nil {
			return nil, err
		}

		all = append(all, page.Results...)
		if page.NextCursor == "" {
			return all, nil
		}
		cursor = page.NextCursor
	}
}

type todoistProject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (t *Todoist) ListProjects(ctx context.Context) ([]Project, error) {
	raw, err := listAll[todoistProject](ctx, t.c, "/projects", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list todoist projects: %w", err)
	}

	projects := make([]Project, 0, len(raw))
	for _, p := range raw {
		projects = append(projects, Project{ID: p.ID, Name: p.Name})
	}
	return projects, nil
}

func (t *Todoist) CreateProject(ctx context.Context, name string) (*Project, error) {
	var created todoistProject
	body := map[string]any{"name": name}
	if err := t.c.Do(ctx, http.MethodPost, "/projects", body, &created); err != nil {
		if remote.Conflict(err) {
			return nil, fmt.Errorf("%w: %s", remote.ErrDuplicateProject, name)
		}
		return nil, fmt.Errorf("failed to create todoist project: %w", err)
	}
	return &Project{ID: created.ID, Name: created.Name}, nil
}

type todoistTask struct {
	ID        string   `json:"id"`
	Content   string   `json:"content"`
	ProjectID string   `json:"project_id"`
	Labels    []string `json:"labels"`
}

func (t *Todoist) ListIssues(ctx context.Context, filter IssueFilter) ([]Issue, error) {
	query := url.Values{}
	if filter.ProjectID != "" {
		query.Set("project_id", filter.ProjectID)
	}

	raw, err := listAll[todoistTask](ctx, t.c, "/tasks", query)
	if err != nil {
		return nil, fmt.Errorf("failed to list todoist tasks: %w", err)
	}

	// Todoist has no server-side title search on this endpoint, so
	// substring matching happens here.
	var issues []Issue
	for _, task := range raw {
		if filter.Query != "" && !strings.Contains(strings.ToLower(task.Content), strings.ToLower(filter.Query)) {
			continue
		}
		issues = append(issues, Issue{
			ID:        task.ID,
			Title:     task.Content,
			ProjectID: task.ProjectID,
			Labels:    task.Labels,
		})
		if filter.Limit > 0 && len(issues) >= filter.Limit {
			break
		}
	}

	return issues, nil
}

func (t *Todoist) AddComment(ctx context.Context, issueID, text string) (bool, error) {
	body := map[string]any{"task_id": issueID, "content": text}
	if err := t.c.Do(ctx, http.MethodPost, "/comments", body, nil); err != nil {
		return false, fmt.Errorf("failed to comment on task %s: %w", issueID, err)
	}
	return true, nil
}
