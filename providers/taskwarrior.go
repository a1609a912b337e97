// ABOUTME: Taskwarrior task provider adapter
// ABOUTME: Shells out to the task CLI and parses its JSON export
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"
	"strings"
)

// Taskwarrior reads and writes tasks through the local task CLI.
// Projects are implicit in Taskwarrior: a project exists as long as a
// task references it, so ListProjects derives the set from an export.
type Taskwarrior struct {
	cmd string
}

func NewTaskwarrior(cmd string) *Taskwarrior {
	if cmd == "" {
		cmd = "task"
	}
	return &Taskwarrior{cmd: cmd}
}

func (tw *Taskwarrior) Name() string { return "taskwarrior" }

func (tw *Taskwarrior) run(ctx context.Context, stdin string, args ...string) (string, error) {
	c := exec.CommandContext(ctx, tw.cmd, args...)
	if stdin != "" {
		c.Stdin = strings.NewReader(stdin)
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	if err := c.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("task %s failed: %s", strings.Join(args, " "), msg)
	}
	return stdout.String(), nil
}

type twTask struct {
	UUID        string   `json:"uuid"`
	Description string   `json:"description"`
	Status      string   `json:"status"`
	Project     string   `json:"project"`
	Tags        []string `json:"tags"`
}

func (tw *Taskwarrior) export(ctx context.Context, extra ...string) ([]twTask, error) {
	args := append([]string{"export"}, extra...)
	out, err := tw.run(ctx, "", args...)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(out) == "" {
		return nil, nil
	}

	var tasks []twTask
	if err := json.Unmarshal([]byte(out), &tasks); err != nil {
		return nil, fmt.Errorf("failed to parse task export: %w", err)
	}
	return tasks, nil
}

// normalizeClientTag maps Taskwarrior's tag spellings for a client
// ("client:Acme" or "#client/Acme") onto the label form the rest of the
// pipeline understands.
func normalizeClientTag(tag string) string {
	if rest, ok := strings.CutPrefix(tag, "client:"); ok {
		return "client/" + rest
	}
	if rest, ok := strings.CutPrefix(tag, "#client/"); ok {
		return "client/" + rest
	}
	return tag
}

func (tw *Taskwarrior) ListProjects(ctx context.Context) ([]Project, error) {
	tasks, err := tw.export(ctx)
	if err != nil {
		return nil, err
	}

	// Collect each project once, merging client tags from all of its
	// pending tasks.
	byName := make(map[string]map[string]bool)
	for _, task := range tasks {
		if task.Project == "" || task.Status == "deleted" {
			continue
		}
		labels, seen := byName[task.Project]
		if !seen {
			labels = make(map[string]bool)
			byName[task.Project] = labels
		}
		for _, tag := range task.Tags {
			labels[normalizeClientTag(tag)] = true
		}
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	projects := make([]Project, 0, len(names))
	for _, name := range names {
		var labels []string
		for label := range byName[name] {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		projects = append(projects, Project{ID: name, Name: name, Labels: labels})
	}
	return projects, nil
}

// CreateProject seeds a placeholder task, since Taskwarrior has no
// standalone project object.
func (tw *Taskwarrior) CreateProject(ctx context.Context, name string) (*Project, error) {
	if _, err := tw.run(ctx, "", "add", "project:"+name, "Project setup"); err != nil {
		return nil, fmt.Errorf("failed to create taskwarrior project %s: %w", name, err)
	}
	return &Project{ID: name, Name: name}, nil
}

func (tw *Taskwarrior) ListIssues(ctx context.Context, filter IssueFilter) ([]Issue, error) {
	tasks, err := tw.export(ctx)
	if err != nil {
		return nil, err
	}

	var issues []Issue
	for _, task := range tasks {
		if task.Status != "pending" && task.Status != "waiting" {
			continue
		}
		if filter.ProjectID != "" && task.Project != filter.ProjectID {
			continue
		}
		if filter.Query != "" && !strings.Contains(strings.ToLower(task.Description), strings.ToLower(filter.Query)) {
			continue
		}

		labels := make([]string, 0, len(task.Tags))
		for _, tag := range task.Tags {
			labels = append(labels, normalizeClientTag(tag))
		}

		issues = append(issues, Issue{
			ID:        task.UUID,
			Title:     task.Description,
			ProjectID: task.Project,
			Labels:    labels,
		})
		if filter.Limit > 0 && len(issues) >= filter.Limit {
			break
		}
	}
	return issues, nil
}

// AddComment annotates the task.
func (tw *Taskwarrior) AddComment(ctx context.Context, issueID, text string) (bool, error) {
	if _, err := tw.run(ctx, "", issueID, "annotate", text); err != nil {
		return false, err
	}
	return true, nil
}
