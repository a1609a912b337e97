// ABOUTME: Tests for the BadgerDB response cache
// ABOUTME: Covers round-trip, miss, invalidation, and read-through behavior
package toggl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	cache, err := OpenCache(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func TestCacheRoundTrip(t *testing.T) {
	cache := openTestCache(t)

	clients := []Client{{ID: 1, Name: "Acme", WID: 777}}
	require.NoError(t, cache.Set(clientsCacheKey, clients))

	var loaded []Client
	hit, err := cache.Get(clientsCacheKey, &loaded)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, clients, loaded)
}

func TestCacheMiss(t *testing.T) {
	cache := openTestCache(t)

	var loaded []Client
	hit, err := cache.Get("toggl/absent", &loaded)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheInvalidate(t *testing.T) {
	cache := openTestCache(t)

	require.NoError(t, cache.Set(clientsCacheKey, []Client{{ID: 1, Name: "Acme"}}))
	require.NoError(t, cache.Set(projectsCacheKey, []Project{{ID: 10, Name: "Website"}}))
	require.NoError(t, cache.Invalidate(clientsCacheKey, projectsCacheKey))

	var clients []Client
	hit, err := cache.Get(clientsCacheKey, &clients)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestListClientsReadsThroughCache(t *testing.T) {
	fetches := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/me":
			w.Write([]byte(`{"default_workspace_id":777}`))
		case "/workspaces/777/clients":
			fetches++
			w.Write([]byte(`[{"id":1,"name":"Acme","wid":777}]`))
		}
	}))
	defer server.Close()

	api := New("tok", server.URL, openTestCache(t))

	ctx := context.Background()
	first, err := api.ListClients(ctx)
	require.NoError(t, err)
	second, err := api.ListClients(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, fetches)
	assert.Equal(t, first, second)
}

func TestCreateClientInvalidatesCache(t *testing.T) {
	fetches := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/me":
			w.Write([]byte(`{"default_workspace_id":777}`))
		case r.Method == http.MethodPost:
			w.Write([]byte(`{"id":2,"name":"Beta","wid":777}`))
		default:
			fetches++
			w.Write([]byte(`[{"id":1,"name":"Acme","wid":777},{"id":2,"name":"Beta","wid":777}]`))
		}
	}))
	defer server.Close()

	api := New("tok", server.URL, openTestCache(t))
	ctx := context.Background()

	_, err := api.ListClients(ctx)
	require.NoError(t, err)
	_, err = api.CreateClient(ctx, "Beta")
	require.NoError(t, err)

	// The create dropped the cached list, so this hits the API again.
	clients, err := api.ListClients(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, fetches)
	assert.Len(t, clients, 2)
}
