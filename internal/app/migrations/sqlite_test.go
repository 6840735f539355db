package migrations

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "migrate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func countRows(t *testing.T, db *sql.DB, query string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(query).Scan(&n))
	return n
}

func TestApplySQLiteRecordsAndSkipsApplied(t *testing.T) {
	db := openSQLite(t)
	fsys := fstest.MapFS{
		"sqlite/001_create.sql": &fstest.MapFile{
			Data: []byte("-- +migrate Up\nCREATE TABLE items(id INTEGER PRIMARY KEY);\n-- +migrate Down\nDROP TABLE items;"),
		},
	}

	require.NoError(t, ApplySQLite(context.Background(), db, fsys, "sqlite"))
	require.NoError(t, ApplySQLite(context.Background(), db, fsys, "sqlite"))

	assert.Equal(t, 1, countRows(t, db, "SELECT COUNT(*) FROM schema_migrations"))
	assert.Equal(t, 1, countRows(t, db, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'items'"))
}

func TestApplySQLiteDoesNotRecordFailedMigration(t *testing.T) {
	db := openSQLite(t)
	fsys := fstest.MapFS{
		"bad/001_broken.sql": &fstest.MapFile{Data: []byte("CREATE TABLE (")},
	}

	require.Error(t, ApplySQLite(context.Background(), db, fsys, "bad"))
	assert.Equal(t, 0, countRows(t, db, "SELECT COUNT(*) FROM schema_migrations"))
}

func TestEmbeddedSQLiteSchemaApplies(t *testing.T) {
	db := openSQLite(t)

	require.NoError(t, ApplySQLite(context.Background(), db, FS, SQLiteRoot))

	for _, table := range []string{"departments", "professors", "students", "courses", "enrollments"} {
		n := countRows(t, db, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = '"+table+"'")
		assert.Equal(t, 1, n, "table %s", table)
	}
}

func TestExtractUpMigration(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "no markers", content: "CREATE TABLE a(id INT);", want: "CREATE TABLE a(id INT);"},
		{name: "up only", content: "-- +migrate Up\nCREATE TABLE a(id INT);", want: "\nCREATE TABLE a(id INT);"},
		{name: "up and down", content: "-- +migrate Up\nUP;\n-- +migrate Down\nDOWN;", want: "\nUP;\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractUpMigration(tt.content))
		})
	}
}
