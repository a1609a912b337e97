// ABOUTME: Toggl Track API v9 client
// ABOUTME: Workspace-scoped clients, projects, and time entries with basic-auth token
package toggl

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/iross/taskbridge/remote"
)

const (
	createdWith = "taskbridge"

	clientsCacheKey  = "toggl/clients"
	projectsCacheKey = "toggl/projects"
)

// Client is a Toggl billing client (a customer, not an API handle).
type Client struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	WID      int64  `json:"wid"`
	Archived bool   `json:"archived"`
}

// Project is a Toggl project.
type Project struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	WID      int64  `json:"wid"`
	ClientID *int64 `json:"cid"`
	Active   bool   `json:"active"`
}

// TimeEntry is a Toggl time entry. A running entry has a negative
// Duration and no Stop.
type TimeEntry struct {
	ID          int64   `json:"id"`
	Description string  `json:"description"`
	WID         int64   `json:"wid"`
	ProjectID   *int64  `json:"pid"`
	Start       string  `json:"start"`
	Stop        *string `json:"stop"`
	Duration    int64   `json:"duration"`
}

// Running reports whether the entry is still open.
func (e *TimeEntry) Running() bool {
	return e.Duration < 0
}

// API talks to Toggl Track. The workspace ID is resolved lazily from the
// authenticated user's default workspace. Reads go through the cache when
// one is attached; writes invalidate it.
type API struct {
	http        *remote.Client
	cache       *Cache
	workspaceID int64
}

// New creates an API handle. Toggl authenticates with HTTP basic auth
// using token:api_token. cache may be nil.
func New(token, baseURL string, cache *Cache) *API {
	encoded := base64.StdEncoding.EncodeToString([]byte(token + ":api_token"))
	return &API{
		http: remote.New(baseURL, func(r *http.Request) {
			r.Header.Set("Authorization", "Basic "+encoded)
		}),
		cache: cache,
	}
}

type me struct {
	DefaultWorkspaceID int64 `json:"default_workspace_id"`
}

func (a *API) ensureWorkspace(ctx context.Context) error {
	if a.workspaceID != 0 {
		return nil
	}

	var m me
	if err := a.http.Get(ctx, "/me", &m); err != nil {
		return fmt.Errorf("failed to resolve toggl workspace: %w", err)
	}
	if m.DefaultWorkspaceID == 0 {
		return fmt.Errorf("%w: no default workspace on account", remote.ErrProviderUnavailable)
	}

	a.workspaceID = m.DefaultWorkspaceID
	return nil
}

// ListClients returns all clients in the workspace, cached.
func (a *API) ListClients(ctx context.Context) ([]Client, error) {
	if a.cache != nil {
		var cached []Client
		if hit, _ := a.cache.Get(clientsCacheKey, &cached); hit {
			return cached, nil
		}
	}

	if err := a.ensureWorkspace(ctx); err != nil {
		return nil, err
	}

	var clients []Client
	path := fmt.Sprintf("/workspaces/%d/clients", a.workspaceID)
	if err := a.http.Get(ctx, path, &clients); err != nil {
		return nil, fmt.Errorf("failed to list toggl clients: %w", err)
	}

	if a.cache != nil {
		_ = a.cache.Set(clientsCacheKey, clients)
	}
	return clients, nil
}

// CreateClient makes a new client. A name conflict maps to
// remote.ErrDuplicateClient so the caller can re-resolve by lookup.
func (a *API) CreateClient(ctx context.Context, name string) (*Client, error) {
	if err := a.ensureWorkspace(ctx); err != nil {
		return nil, err
	}

	var created Client
	path := fmt.Sprintf("/workspaces/%d/clients", a.workspaceID)
	err := a.http.Do(ctx, http.MethodPost, path, map[string]any{"name": name}, &created)
	if err != nil {
		if remote.Conflict(err) {
			// Someone else created it; drop the cached list so the
			// caller's re-resolve lookup sees the new client.
			a.invalidate(clientsCacheKey)
			return nil, fmt.Errorf("%w: %s", remote.ErrDuplicateClient, name)
		}
		return nil, fmt.Errorf("failed to create toggl client: %w", err)
	}

	a.invalidate(clientsCacheKey)
	return &created, nil
}

// ListProjects returns workspace projects, optionally narrowed to one
// client. Toggl has no server-side client filter on this endpoint, so
// narrowing happens after the (cached) full fetch.
func (a *API) ListProjects(ctx context.Context, clientID *int64) ([]Project, error) {
	projects, err := a.allProjects(ctx)
	if err != nil {
		return nil, err
	}
	if clientID == nil {
		return projects, nil
	}

	var filtered []Project
	for _, p := range projects {
		if p.ClientID != nil && *p.ClientID == *clientID {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

func (a *API) allProjects(ctx context.Context) ([]Project, error) {
	if a.cache != nil {
		var cached []Project
		if hit, _ := a.cache.Get(projectsCacheKey, &cached); hit {
			return cached, nil
		}
	}

	if err := a.ensureWorkspace(ctx); err != nil {
		return nil, err
	}

	var projects []Project
	path := fmt.Sprintf("/workspaces/%d/projects", a.workspaceID)
	if err := a.http.Get(ctx, path, &projects); err != nil {
		return nil, fmt.Errorf("failed to list toggl projects: %w", err)
	}

	if a.cache != nil {
		_ = a.cache.Set(projectsCacheKey, projects)
	}
	return projects, nil
}

// CreateProject makes a new active private project, optionally attached
// to a client. Conflicts map to remote.ErrDuplicateProject.
func (a *API) CreateProject(ctx context.Context, name string, clientID *int64) (*Project, error) {
	if err := a.ensureWorkspace(ctx); err != nil {
		return nil, err
	}

	body := map[string]any{
		"name":       name,
		"is_private": true,
		"active":     true,
	}
	if clientID != nil {
		body["cid"] = *clientID
	}

	var created Project
	path := fmt.Sprintf("/workspaces/%d/projects", a.workspaceID)
	err := a.http.Do(ctx, http.MethodPost, path, body, &created)
	if err != nil {
		if remote.Conflict(err) {
			a.invalidate(projectsCacheKey)
			return nil, fmt.Errorf("%w: %s", remote.ErrDuplicateProject, name)
		}
		return nil, fmt.Errorf("failed to create toggl project: %w", err)
	}

	a.invalidate(projectsCacheKey)
	return &created, nil
}

// StartTimer stops any running entry and starts a new one. projectID may
// be nil for a project-less timer.
func (a *API) StartTimer(ctx context.Context, projectID *int64, description string) (*TimeEntry, error) {
	if err := a.ensureWorkspace(ctx); err != nil {
		return nil, err
	}

	if _, err := a.StopTimer(ctx); err != nil {
		return nil, fmt.Errorf("failed to stop previous timer: %w", err)
	}

	now := time.Now().UTC()
	body := map[string]any{
		"description":  description,
		"wid":          a.workspaceID,
		"created_with": createdWith,
		"start":        now.Format(time.RFC3339),
		// Negative duration marks the entry as running.
		"duration": -now.Unix(),
	}
	if projectID != nil {
		body["pid"] = *projectID
	}

	var created TimeEntry
	path := fmt.Sprintf("/workspaces/%d/time_entries", a.workspaceID)
	if err := a.http.Do(ctx, http.MethodPost, path, body, &created); err != nil {
		return nil, fmt.Errorf("failed to start toggl timer: %w", err)
	}
	return &created, nil
}

// StopTimer stops the running entry if there is one. No running entry is
// not an error; the result is nil in that case.
func (a *API) StopTimer(ctx context.Context) (*TimeEntry, error) {
	current, err := a.CurrentTimer(ctx)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, nil
	}

	if err := a.ensureWorkspace(ctx); err != nil {
		return nil, err
	}

	body := map[string]any{"stop": time.Now().UTC().Format(time.RFC3339)}

	var stopped TimeEntry
	path := fmt.Sprintf("/workspaces/%d/time_entries/%d", a.workspaceID, current.ID)
	if err := a.http.Do(ctx, http.MethodPut, path, body, &stopped); err != nil {
		return nil, fmt.Errorf("failed to stop toggl timer: %w", err)
	}
	return &stopped, nil
}

// CurrentTimer returns the running entry, or nil when none is running.
func (a *API) CurrentTimer(ctx context.Context) (*TimeEntry, error) {
	var entry TimeEntry
	if err := a.http.Get(ctx, "/me/time_entries/current", &entry); err != nil {
		return nil, fmt.Errorf("failed to fetch current toggl timer: %w", err)
	}
	if entry.ID == 0 {
		return nil, nil
	}
	return &entry, nil
}

// TimeEntries returns entries in [start, end], optionally narrowed to a
// project. Dates go to the API in YYYY-MM-DD form.
func (a *API) TimeEntries(ctx context.Context, start, end time.Time, projectID *int64) ([]TimeEntry, error) {
	path := fmt.Sprintf("/me/time_entries?start_date=%s&end_date=%s",
		start.Format("2006-01-02"), end.Format("2006-01-02"))

	var entries []TimeEntry
	if err := a.http.Get(ctx, path, &entries); err != nil {
		return nil, fmt.Errorf("failed to list toggl time entries: %w", err)
	}
	if projectID == nil {
		return entries, nil
	}

	var filtered []TimeEntry
	for _, e := range entries {
		if e.ProjectID != nil && *e.ProjectID == *projectID {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

func (a *API) invalidate(keys ...string) {
	if a.cache != nil {
		_ = a.cache.Invalidate(keys...)
	}
}
