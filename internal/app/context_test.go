package app

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Someesvaar/Freelance-Hub/internal/config"
	"github.com/Someesvaar/Freelance-Hub/internal/engine"
	"github.com/Someesvaar/Freelance-Hub/internal/engine/auth"
)

func TestInitWritesConfigOnce(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	res, err := Init(ctx, dir, false)
	require.NoError(t, err)
	assert.True(t, res.ConfigWritten)
	assert.Equal(t, 1, res.SchemaVersion)
	_, err = os.Stat(res.DBPath)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(res.ConfigPath, []byte("log:\n  level: debug\n"), 0o644))
	res, err = Init(ctx, dir, false)
	require.NoError(t, err)
	assert.False(t, res.ConfigWritten)
	data, err := os.ReadFile(res.ConfigPath)
	require.NoError(t, err)
	assert.Equal(t, "log:\n  level: debug\n", string(data))

	res, err = Init(ctx, dir, true)
	require.NoError(t, err)
	assert.True(t, res.ConfigWritten)
}

func TestOpenWithoutConfigUsesDefaults(t *testing.T) {
	ctx := context.Background()
	ws, err := Open(ctx, t.TempDir(), Options{})
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })

	assert.Equal(t, config.Default().Server.Addr, ws.Config.Server.Addr)
	v, err := ws.Engine.CreateProject(ctx, auth.Actor{ID: "c1"}, engine.ProjectCreateOptions{Title: "Logo", Budget: 50})
	require.NoError(t, err)
	assert.Equal(t, "open", string(v.Project.Status))
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(config.Path(dir), []byte("ranking:\n  tie_floor: 2\n"), 0o644))
	_, err := Open(context.Background(), dir, Options{})
	require.Error(t, err)
}
