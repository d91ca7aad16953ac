package db

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// newTestDB creates a new in-memory SQLite database for testing.
// It runs migrations and returns the DB instance.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewSQLiteDB(":memory:", testLogger())
	require.NoError(t, err, "failed to create test database")
	require.NoError(t, db.Migrate(), "failed to migrate test database")
	t.Cleanup(func() { db.Close() })
	return db
}

// mustCreateUser registers a user with a dummy hash.
func mustCreateUser(t *testing.T, db *DB, username string) User {
	t.Helper()
	u, err := db.CreateUser(context.Background(), username, "hash-"+username)
	require.NoError(t, err)
	return u
}

func TestNewSQLiteDB(t *testing.T) {
	t.Run("in-memory database", func(t *testing.T) {
		db, err := NewSQLiteDB(":memory:", testLogger())
		require.NoError(t, err)
		defer db.Close()

		assert.NotNil(t, db.db)
		assert.NotNil(t, db.eventListeners)
		assert.NoError(t, db.Ping(context.Background()))
	})

	t.Run("file database", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "snapmark-test.db")

		db, err := NewSQLiteDB(path, nil)
		require.NoError(t, err)
		defer db.Close()

		require.NoError(t, db.Migrate())
	})
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "app.db?_foreign_keys=on&_busy_timeout=5000", sqliteDSN("app.db"))
	assert.Equal(t, "file:app.db?cache=shared&_foreign_keys=on&_busy_timeout=5000", sqliteDSN("file:app.db?cache=shared"))
}

func TestMigrate(t *testing.T) {
	t.Run("applies migrations successfully", func(t *testing.T) {
		db := newTestDB(t)

		var count int
		require.NoError(t, db.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
		assert.Equal(t, 2, count)
	})

	t.Run("migrations are idempotent", func(t *testing.T) {
		db := newTestDB(t)
		require.NoError(t, db.Migrate())

		u := mustCreateUser(t, db, "alice")
		_, err := db.AddBookmark(context.Background(), u.ID, "https://example.com", "Test")
		assert.NoError(t, err)
	})

	t.Run("foreign keys are enforced", func(t *testing.T) {
		db := newTestDB(t)

		_, err := db.AddBookmark(context.Background(), 4242, "https://example.com", "Orphan")
		assert.Error(t, err, "bookmark for a missing user must be rejected")
	})
}

func TestClose(t *testing.T) {
	db, err := NewSQLiteDB(":memory:", testLogger())
	require.NoError(t, err)

	require.NoError(t, db.Close())

	_, err = db.db.Exec("SELECT 1")
	assert.Error(t, err, "expected error after close")
}
