// ABOUTME: Task provider interface and factory
// ABOUTME: Uniform project/issue shape over Linear, Todoist, and Taskwarrior backends
package providers

import (
	"context"
	"fmt"

	"github.com/iross/taskbridge/config"
)

// Project is a task-provider project in the uniform shape.
type Project struct {
	ID     string
	Name   string
	Labels []string
}

// Issue is a task-provider work item in the uniform shape.
type Issue struct {
	ID        string
	Title     string
	ProjectID string
	Labels    []string
}

// IssueFilter narrows ListIssues by project or free-text query; neither is
// required, and callers supply at most one of the two.
type IssueFilter struct {
	ProjectID string
	Query     string
	Limit     int
}

// TaskProvider is the capability set every task backend implements.
// List calls paginate until exhaustion or fail; they never silently return
// a truncated page. Write calls are single remote calls with no local
// state mutation.
type TaskProvider interface {
	Name() string
	ListProjects(ctx context.Context) ([]Project, error)
	CreateProject(ctx context.Context, name string) (*Project, error)
	ListIssues(ctx context.Context, filter IssueFilter) ([]Issue, error)
	AddComment(ctx context.Context, issueID, text string) (bool, error)
}

// NewFromConfig resolves the configured backend.
func NewFromConfig(cfg *config.Config) (TaskProvider, error) {
	switch cfg.Provider {
	case config.ProviderLinear:
		if cfg.LinearToken == "" {
			return nil, fmt.Errorf("linear API token not configured. Run 'taskbridge config' first")
		}
		return NewLinear(cfg.LinearToken, cfg.LinearURL), nil
	case config.ProviderTodoist:
		if cfg.TodoistToken == "" {
			return nil, fmt.Errorf("todoist API token not configured. Run 'taskbridge config' first")
		}
		return NewTodoist(cfg.TodoistToken, cfg.TodoistURL), nil
	case config.ProviderTaskwarrior:
		return NewTaskwarrior(cfg.TaskwarriorCmd), nil
	default:
		return nil, fmt.Errorf("unknown task provider %q", cfg.Provider)
	}
}
