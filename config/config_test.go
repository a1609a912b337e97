// ABOUTME: Tests for configuration loading and persistence
// ABOUTME: Covers defaults, file round-trip, and environment overrides
package config

import (
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withTempConfigHome(t *testing.T) {
	t.Helper()
	origHome := xdg.ConfigHome
	xdg.ConfigHome = t.TempDir()
	t.Cleanup(func() { xdg.ConfigHome = origHome })
}

func TestPath(t *testing.T) {
	path := Path()
	assert.Equal(t, filepath.Join(xdg.ConfigHome, "taskbridge"), filepath.Dir(path))
	assert.Equal(t, "config.yaml", filepath.Base(path))
}

func TestLoadNotFoundReturnsDefaults(t *testing.T) {
	withTempConfigHome(t)

	cfg, err := Load()
	require.NoError(t, err, "Load should not error when file not found")
	require.NotNil(t, cfg)

	assert.Equal(t, ProviderLinear, cfg.Provider)
	assert.Equal(t, "label", cfg.Convention)
	assert.Equal(t, DefaultTogglURL, cfg.TogglURL)
	assert.Equal(t, "task", cfg.TaskwarriorCmd)
	assert.Empty(t, cfg.TogglToken)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	withTempConfigHome(t)

	in := Defaults()
	in.Provider = ProviderTodoist
	in.Convention = "prefix"
	in.TodoistToken = "tok-123"
	in.TogglToken = "tog-456"

	require.NoError(t, Save(in))

	out, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ProviderTodoist, out.Provider)
	assert.Equal(t, "prefix", out.Convention)
	assert.Equal(t, "tok-123", out.TodoistToken)
	assert.Equal(t, "tog-456", out.TogglToken)
	assert.Equal(t, DefaultTodoistURL, out.TodoistURL, "defaults should be refilled")
}

func TestEnvOverrides(t *testing.T) {
	withTempConfigHome(t)

	in := Defaults()
	in.TogglToken = "from-file"
	require.NoError(t, Save(in))

	t.Setenv("TASKBRIDGE_TOGGL_TOKEN", "from-env")
	t.Setenv("TASKBRIDGE_PROVIDER", ProviderTaskwarrior)

	out, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from-env", out.TogglToken)
	assert.Equal(t, ProviderTaskwarrior, out.Provider)
}
