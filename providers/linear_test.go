// ABOUTME: Tests for the Linear GraphQL adapter
// ABOUTME: Uses httptest servers to exercise pagination, label flattening, and error mapping
package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iross/taskbridge/remote"
)

func TestLinearListProjectsPaginates(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req struct {
			Variables map[string]any `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if calls == 1 {
			assert.Nil(t, req.Variables["after"])
			w.Write([]byte(`{"data":{"projects":{
				"nodes":[{"id":"p1","name":"Website","labels":{"nodes":[{"name":"Acme","parent":{"name":"client"}}]}}],
				"pageInfo":{"hasNextPage":true,"endCursor":"cur-1"}}}}`))
			return
		}
		assert.Equal(t, "cur-1", req.Variables["after"])
		w.Write([]byte(`{"data":{"projects":{
			"nodes":[{"id":"p2","name":"Internal","labels":{"nodes":[{"name":"infra","parent":null}]}}],
			"pageInfo":{"hasNextPage":false,"endCursor":""}}}}`))
	}))
	defer server.Close()

	l := NewLinear("tok", server.URL)
	projects, err := l.ListProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 2)

	assert.Equal(t, 2, calls)
	assert.Equal(t, []string{"client/Acme"}, projects[0].Labels)
	assert.Equal(t, []string{"infra"}, projects[1].Labels)
}

func TestLinearAuthIncludedOnRequests(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "lin_api_test", r.Header.Get("Authorization"))
		w.Write([]byte(`{"data":{"projects":{"nodes":[],"pageInfo":{"hasNextPage":false,"endCursor":""}}}}`))
	}))
	defer server.Close()

	l := NewLinear("lin_api_test", server.URL)
	_, err := l.ListProjects(context.Background())
	require.NoError(t, err)
}

func TestLinearCreateProject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Variables struct {
				Input map[string]any `json:"input"`
			} `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "New Thing", req.Variables.Input["name"])

		w.Write([]byte(`{"data":{"projectCreate":{"success":true,"project":{"id":"p9","name":"New Thing"}}}}`))
	}))
	defer server.Close()

	l := NewLinear("tok", server.URL)
	project, err := l.CreateProject(context.Background(), "New Thing")
	require.NoError(t, err)
	assert.Equal(t, "p9", project.ID)
	assert.Equal(t, "New Thing", project.Name)
}

func TestLinearGraphQLErrorsSurface(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":null,"errors":[{"message":"project already exists"}]}`))
	}))
	defer server.Close()

	l := NewLinear("tok", server.URL)
	_, err := l.CreateProject(context.Background(), "Dup")
	assert.ErrorIs(t, err, remote.ErrDuplicateProject)
}

func TestLinearHTTPStatusClassified(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, remote.ErrAuth},
		{"rate limited", http.StatusTooManyRequests, remote.ErrRateLimited},
		{"server error", http.StatusBadGateway, remote.ErrProviderUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer server.Close()

			l := NewLinear("tok", server.URL)
			_, err := l.ListProjects(context.Background())
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestLinearListIssuesFilter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Variables struct {
				Filter map[string]any `json:"filter"`
			} `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		assert.Contains(t, req.Variables.Filter, "state")
		assert.Contains(t, req.Variables.Filter, "title")

		w.Write([]byte(`{"data":{"issues":{"nodes":[
			{"id":"i1","title":"Fix login","project":{"id":"p1"},"labels":{"nodes":[]}},
			{"id":"i2","title":"Login page polish","project":null,"labels":{"nodes":[]}}]}}}`))
	}))
	defer server.Close()

	l := NewLinear("tok", server.URL)
	issues, err := l.ListIssues(context.Background(), IssueFilter{Query: "login"})
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, "p1", issues[0].ProjectID)
	assert.Equal(t, "", issues[1].ProjectID)
}

func TestLinearNetworkErrorWrapped(t *testing.T) {
	l := NewLinear("tok", "http://127.0.0.1:1")
	_, err := l.ListProjects(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, remote.ErrNetwork))
}
