package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenCreatesWorkspaceAndWAL(t *testing.T) {
	dir := t.TempDir()
	conn, err := Open(Config{Workspace: dir})
	require.NoError(t, err)
	defer conn.Close()

	_, err = os.Stat(Path(dir))
	require.NoError(t, err)

	var mode string
	require.NoError(t, conn.QueryRow(`PRAGMA journal_mode`).Scan(&mode))
	assert.Equal(t, "wal", mode)
	var fk int
	require.NoError(t, conn.QueryRow(`PRAGMA foreign_keys`).Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestIsUniqueViolation(t *testing.T) {
	conn, err := Open(Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	defer conn.Close()
	ctx := context.Background()

	_, err = conn.ExecContext(ctx, `CREATE TABLE pairs(a TEXT NOT NULL, b TEXT NOT NULL, UNIQUE(a,b))`)
	require.NoError(t, err)
	_, err = conn.ExecContext(ctx, `INSERT INTO pairs(a,b) VALUES ('p','f')`)
	require.NoError(t, err)
	_, err = conn.ExecContext(ctx, `INSERT INTO pairs(a,b) VALUES ('p','f')`)
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", err)))
	assert.False(t, IsTransient(err))
}

func TestClassifiersIgnoreForeignErrors(t *testing.T) {
	err := errors.New("database is locked")
	assert.False(t, IsTransient(err))
	assert.False(t, IsUniqueViolation(err))
	assert.False(t, IsTransient(nil))
}
