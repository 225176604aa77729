package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateSQLiteIsIdempotent(t *testing.T) {
	db, err := NewSQLite(filepath.Join(t.TempDir(), "crs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))

	var applied int
	require.NoError(t, db.Get(&applied, "SELECT COUNT(*) FROM schema_migrations"))
	assert.Equal(t, 1, applied)

	for _, table := range []string{"semesters", "students", "courses", "registrations", "selections", "payments", "grades", "notifications"} {
		var count int
		require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table), table)
		assert.Equal(t, 1, count, table)
	}
}

func TestExtractUpMigration(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE a (id TEXT);\n-- +migrate Down\nDROP TABLE a;\n"
	assert.Equal(t, "\nCREATE TABLE a (id TEXT);\n", ExtractUpMigration(content))
	assert.Equal(t, "SELECT 1", ExtractUpMigration("SELECT 1"))
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements("CREATE TABLE a (id TEXT);\n\nCREATE INDEX b ON a (id);\n")
	assert.Equal(t, []string{"CREATE TABLE a (id TEXT)", "CREATE INDEX b ON a (id)"}, stmts)
}

func TestMigrationRootRejectsUnknownDriver(t *testing.T) {
	_, err := migrationRoot("mysql")
	assert.Error(t, err)
}
