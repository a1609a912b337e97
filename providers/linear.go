// ABOUTME: Linear task provider adapter
// ABOUTME: GraphQL client for projects, issues, and comments with cursor pagination
package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/iross/taskbridge/remote"
)

const linearPageSize = 50

// Linear talks to the Linear GraphQL API.
type Linear struct {
	c *remote.Client
}

// NewLinear creates the adapter. Linear authenticates with the raw token
// in the Authorization header.
func NewLinear(token, baseURL string) *Linear {
	return &Linear{
		c: remote.New(baseURL, func(r *http.Request) {
			r.Header.Set("Authorization", token)
		}),
	}
}

func (l *Linear) Name() string { return "linear" }

type gqlError struct {
	Message string `json:"message"`
}

type gqlEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

// query executes one GraphQL request. Reads retry once on transport
// failure; mutations never retry to avoid duplicate remote objects.
func (l *Linear) query(ctx context.Context, query string, vars map[string]any, out any, isRead bool) error {
	payload := map[string]any{"query": query, "variables": vars}

	var env gqlEnvelope
	err := l.c.Do(ctx, http.MethodPost, "", payload, &env)
	if isRead && errors.Is(err, remote.ErrNetwork) {
		env = gqlEnvelope{}
		err = l.c.Do(ctx, http.MethodPost, "", payload, &env)
	}
	if err != nil {
		return err
	}

	if len(env.Errors) > 0 {
		messages := make([]string, 0, len(env.Errors))
		for _, e := range env.Errors {
			messages = append(messages, e.Message)
		}
		joined := strings.Join(messages, "; ")
		if strings.Contains(strings.ToLower(joined), "already exists") {
			return fmt.Errorf("%w: %s", remote.ErrDuplicateProject, joined)
		}
		return fmt.Errorf("%w: graphql errors: %s", remote.ErrProviderUnavailable, joined)
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode graphql data: %w", err)
		}
	}

	return nil
}

type linearLabelNode struct {
	Name   string `json:"name"`
	Parent *struct {
		Name string `json:"name"`
	} `json:"parent"`
}

type linearProjectNode struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Labels struct {
		Nodes []linearLabelNode `json:"nodes"`
	} `json:"labels"`
}

// flattenLabels folds Linear's grouped labels into plain strings. A label
// whose parent group is named "client" becomes "client/<name>" so the
// label convention sees both spellings uniformly.
func flattenLabels(nodes []linearLabelNode) []string {
	var labels []string
	for _, node := range nodes {
		if node.Parent != nil && strings.EqualFold(node.Parent.Name, "client") {
			labels = append(labels, "client/"+node.Name)
			continue
		}
		labels = append(labels, node.Name)
	}
	return labels
}

const linearProjectsQuery = `
query GetProjects($first: Int!, $after: String) {
	projects(first: $first, after: $after) {
		nodes {
			id
			name
			labels {
				nodes {
					name
					parent {
						name
					}
				}
			}
		}
		pageInfo {
			hasNextPage
			endCursor
		}
	}
}`

func (l *Linear) ListProjects(ctx context.Context) ([]Project, error) {
	var projects []Project
	after := ""

	for {
		vars := map[string]any{"first": linearPageSize}
		if after != "" {
			vars["after"] = after
		}

		var data struct {
			Projects struct {
				Nodes    []linearProjectNode `json:"nodes"`
				PageInfo struct {
					HasNextPage bool   `json:"hasNextPage"`
					EndCursor   string `json:"endCursor"`
				} `json:"pageInfo"`
			} `json:"projects"`
		}
		if err := l.query(ctx, linearProjectsQuery, vars, &data, true); err != nil {
			return nil, fmt.Errorf("failed to list linear projects: %w", err)
		}

		for _, node := range data.Projects.Nodes {
			projects = append(projects, Project{
				ID:     node.ID,
				Name:   node.Name,
				Labels: flattenLabels(node.Labels.Nodes),
			})
		}

		if !data.Projects.PageInfo.HasNextPage {
			return projects, nil
		}
		after = data.Projects.PageInfo.EndCursor
	}
}

const linearCreateProjectMutation = `
mutation CreateProject($input: ProjectCreateInput!) {
	projectCreate(input: $input) {
		success
		project {
			id
			name
		}
	}
}`

func (l *Linear) CreateProject(ctx context.Context, name string) (*Project, error) {
	var data struct {
		ProjectCreate struct {
			Success bool `json:"success"`
			Project struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"project"`
		} `json:"projectCreate"`
	}

	vars := map[string]any{"input": map[string]any{"name": name}}
	if err := l.query(ctx, linearCreateProjectMutation, vars, &data, false); err != nil {
		return nil, fmt.Errorf("failed to create linear project: %w", err)
	}
	if !data.ProjectCreate.Success {
		return nil, fmt.Errorf("%w: projectCreate reported failure", remote.ErrProviderUnavailable)
	}

	return &Project{ID: data.ProjectCreate.Project.ID, Name: data.ProjectCreate.Project.Name}, nil
}

const linearIssuesQuery = `
query GetIssues($filter: IssueFilter, $first: Int) {
	issues(filter: $filter, first: $first) {
		nodes {
			id
			title
			project {
				id
			}
			labels {
				nodes {
					name
					parent {
						name
					}
				}
			}
		}
	}
}`

func (l *Linear) ListIssues(ctx context.Context, filter IssueFilter) ([]Issue, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	conditions := map[string]any{
		// Active issues only
		"state": map[string]any{"type": map[string]any{"nin": []string{"completed", "canceled"}}},
	}
	if filter.ProjectID != "" {
		conditions["project"] = map[string]any{"id": map[string]any{"eq": filter.ProjectID}}
	}
	if filter.Query != "" {
		conditions["title"] = map[string]any{"contains": filter.Query}
	}

	var data struct {
		Issues struct {
			Nodes []struct {
				ID      string `json:"id"`
				Title   string `json:"title"`
				Project *struct {
					ID string `json:"id"`
				} `json:"project"`
				Labels struct {
					Nodes []linearLabelNode `json:"nodes"`
				} `json:"labels"`
			} `json:"nodes"`
		} `json:"issues"`
	}

	vars := map[string]any{"filter": conditions, "first": limit}
	if err := l.query(ctx, linearIssuesQuery, vars, &data, true); err != nil {
		return nil, fmt.Errorf("failed to list linear issues: %w", err)
	}

	issues := make([]Issue, 0, len(data.Issues.Nodes))
	for _, node := range data.Issues.Nodes {
		issue := Issue{
			ID:     node.ID,
			Title:  node.Title,
			Labels: flattenLabels(node.Labels.Nodes),
		}
		if node.Project != nil {
			issue.ProjectID = node.Project.ID
		}
		issues = append(issues, issue)
	}

	return issues, nil
}

const linearCreateCommentMutation = `
mutation CreateComment($input: CommentCreateInput!) {
	commentCreate(input: $input) {
		success
	}
}`

func (l *Linear) AddComment(ctx context.Context, issueID, text string) (bool, error) {
	var data struct {
		CommentCreate struct {
			Success bool `json:"success"`
		} `json:"commentCreate"`
	}

	vars := map[string]any{"input": map[string]any{"issueId": issueID, "body": text}}
	if err := l.query(ctx, linearCreateCommentMutation, vars, &data, false); err != nil {
		return false, fmt.Errorf("failed to create comment on %s: %w", issueID, err)
	}

	return data.CommentCreate.Success, nil
}
