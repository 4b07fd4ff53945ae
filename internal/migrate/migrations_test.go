package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Someesvaar/Freelance-Hub/internal/db"
)

func TestMigrateIsRepeatable(t *testing.T) {
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, Migrate(conn))
	require.NoError(t, Migrate(conn))

	var version int
	require.NoError(t, conn.QueryRow(`SELECT version FROM schema_version`).Scan(&version))
	migrations, err := loadMigrations()
	require.NoError(t, err)
	assert.Equal(t, migrations[len(migrations)-1].Version, version)

	for _, table := range []string{"users", "projects", "bids", "reviews", "events", "api_keys"} {
		var name string
		err := conn.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, table)
	}
}

func TestProjectAssignmentCheck(t *testing.T) {
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, Migrate(conn))

	_, err = conn.Exec(`INSERT INTO users(id,created_at) VALUES ('c','2025-01-01T00:00:00Z')`)
	require.NoError(t, err)
	// in_progress without an assigned freelancer violates the schema
	_, err = conn.Exec(`INSERT INTO projects(id,client_id,title,budget,status,created_at,updated_at)
		VALUES ('p','c','t',10,'in_progress','2025-01-01T00:00:00Z','2025-01-01T00:00:00Z')`)
	assert.Error(t, err)
}
