package database

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "test.db")}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func writeMigration(t *testing.T, dir, name, sql string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(sql), 0o644))
}

func TestMigrator_AppliesInOrderAndOnce(t *testing.T) {
	db := newTestDB(t)
	dir := t.TempDir()
	writeMigration(t, dir, "002_add_column.sql", "ALTER TABLE notes ADD COLUMN detail TEXT;")
	writeMigration(t, dir, "001_create_notes.sql", "CREATE TABLE notes (id INTEGER PRIMARY KEY);")
	writeMigration(t, dir, "README.md", "not a migration")

	migrator := NewMigrator(db, zap.NewNop())
	require.NoError(t, migrator.RunMigrations(dir))

	// Both ran despite the out-of-order filenames.
	_, err := db.Exec("INSERT INTO notes (detail) VALUES ('x')")
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 2, count)

	// A second run is a no-op.
	require.NoError(t, migrator.RunMigrations(dir))
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 2, count)
}

func TestMigrator_FailedMigrationRollsBack(t *testing.T) {
	db := newTestDB(t)
	dir := t.TempDir()
	writeMigration(t, dir, "001_broken.sql", "CREATE BROKEN SYNTAX;")

	migrator := NewMigrator(db, zap.NewNop())
	require.Error(t, migrator.RunMigrations(dir))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 0, count)
}

func TestMigrator_InvalidFilename(t *testing.T) {
	db := newTestDB(t)
	dir := t.TempDir()
	writeMigration(t, dir, "noversion.sql", "SELECT 1;")

	migrator := NewMigrator(db, zap.NewNop())
	assert.Error(t, migrator.RunMigrations(dir))
}

func TestWithTransaction(t *testing.T) {
	db := newTestDB(t)
	_, err := db.Exec("CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT)")
	require.NoError(t, err)

	require.NoError(t, db.WithTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec("INSERT INTO items (name) VALUES ('kept')")
		return err
	}))

	require.Error(t, db.WithTransaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO items (name) VALUES ('discarded')"); err != nil {
			return err
		}
		return assert.AnError
	}))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM items").Scan(&count))
	assert.Equal(t, 1, count)
}
