package db

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateBookmarkURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"https", "https://example.com", false},
		{"http with path", "http://example.com/a?b=c", false},
		{"empty", "", true},
		{"no scheme", "example.com", true},
		{"ftp scheme", "ftp://example.com", true},
		{"javascript", "javascript:alert(1)", true},
		{"missing host", "https://", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBookmarkURL(tt.url)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidURL), "got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestAddBookmark(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := mustCreateUser(t, db, "alice")

	t.Run("creates bookmark successfully", func(t *testing.T) {
		b, err := db.AddBookmark(ctx, u.ID, "https://example.com", "Example Site")
		require.NoError(t, err)
		assert.Positive(t, b.ID)
		assert.Equal(t, u.ID, b.UserID)
		assert.False(t, b.HasScreenshot())
	})

	t.Run("assigns sequential IDs", func(t *testing.T) {
		b1, _ := db.AddBookmark(ctx, u.ID, "https://site1.com", "Site 1")
		b2, _ := db.AddBookmark(ctx, u.ID, "https://site2.com", "Site 2")
		assert.Greater(t, b2.ID, b1.ID)
	})

	t.Run("rejects invalid URL", func(t *testing.T) {
		_, err := db.AddBookmark(ctx, u.ID, "not a url", "Bad")
		assert.ErrorIs(t, err, ErrInvalidURL)
	})
}

func TestGetBookmark(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := mustCreateUser(t, db, "alice")
	bob := mustCreateUser(t, db, "bob")

	created, err := db.AddBookmark(ctx, alice.ID, "https://example.com", "Example Site")
	require.NoError(t, err)

	t.Run("owner retrieves bookmark", func(t *testing.T) {
		b, err := db.GetBookmark(ctx, alice.ID, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created, b)
	})

	t.Run("other user gets not found", func(t *testing.T) {
		_, err := db.GetBookmark(ctx, bob.ID, created.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("missing bookmark gets not found", func(t *testing.T) {
		_, err := db.GetBookmark(ctx, alice.ID, 99999)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestListBookmarks(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := mustCreateUser(t, db, "alice")
	bob := mustCreateUser(t, db, "bob")

	t.Run("returns empty list when no bookmarks", func(t *testing.T) {
		bookmarks, err := db.ListBookmarks(ctx, alice.ID, 0)
		require.NoError(t, err)
		assert.Empty(t, bookmarks)
	})

	t.Run("returns only the owner's bookmarks", func(t *testing.T) {
		db.AddBookmark(ctx, alice.ID, "https://site1.com", "Site 1")
		db.AddBookmark(ctx, alice.ID, "https://site2.com", "Site 2")
		db.AddBookmark(ctx, bob.ID, "https://site3.com", "Site 3")

		bookmarks, err := db.ListBookmarks(ctx, alice.ID, 0)
		require.NoError(t, err)
		assert.Len(t, bookmarks, 2)
		for _, b := range bookmarks {
			assert.Equal(t, alice.ID, b.UserID)
		}
	})

	t.Run("respects limit", func(t *testing.T) {
		bookmarks, err := db.ListBookmarks(ctx, alice.ID, 1)
		require.NoError(t, err)
		assert.Len(t, bookmarks, 1)
	})

	t.Run("orders by created_at DESC", func(t *testing.T) {
		db2 := newTestDB(t)
		u := mustCreateUser(t, db2, "carol")

		for _, row := range []struct{ url, title, createdAt string }{
			{"https://first.com", "First", "2024-01-01T00:00:00Z"},
			{"https://second.com", "Second", "2024-01-02T00:00:00Z"},
			{"https://third.com", "Third", "2024-01-03T00:00:00Z"},
		} {
			_, err := db2.db.Exec("INSERT INTO bookmarks (user_id, url, title, created_at) VALUES (?, ?, ?, ?)",
				u.ID, row.url, row.title, row.createdAt)
			require.NoError(t, err)
		}

		bookmarks, err := db2.ListBookmarks(ctx, u.ID, 0)
		require.NoError(t, err)
		require.Len(t, bookmarks, 3)
		assert.Equal(t, "Third", bookmarks[0].Title)
		assert.Equal(t, "Second", bookmarks[1].Title)
		assert.Equal(t, "First", bookmarks[2].Title)
	})
}

func TestSetScreenshotPath(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := mustCreateUser(t, db, "alice")
	b, err := db.AddBookmark(ctx, u.ID, "https://example.com", "Example")
	require.NoError(t, err)

	t.Run("stores path", func(t *testing.T) {
		require.NoError(t, db.SetScreenshotPath(ctx, b.ID, "screenshots/x.png"))
		got, err := db.GetBookmark(ctx, u.ID, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "screenshots/x.png", got.ScreenshotPath)
	})

	t.Run("empty path stores NULL", func(t *testing.T) {
		require.NoError(t, db.SetScreenshotPath(ctx, b.ID, ""))

		var isNull bool
		require.NoError(t, db.db.QueryRow("SELECT screenshot_path IS NULL FROM bookmarks WHERE id = ?", b.ID).Scan(&isNull))
		assert.True(t, isNull)
	})

	t.Run("missing bookmark", func(t *testing.T) {
		assert.ErrorIs(t, db.SetScreenshotPath(ctx, 99999, "x"), ErrNotFound)
	})
}

func TestListBookmarksWithoutScreenshot(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := mustCreateUser(t, db, "alice")
	bob := mustCreateUser(t, db, "bob")

	withShot, _ := db.AddBookmark(ctx, alice.ID, "https://a.com", "A")
	require.NoError(t, db.SetScreenshotPath(ctx, withShot.ID, "screenshots/a.png"))
	db.AddBookmark(ctx, alice.ID, "https://b.com", "B")
	db.AddBookmark(ctx, bob.ID, "https://c.com", "C")

	bookmarks, err := db.ListBookmarksWithoutScreenshot(ctx, 0)
	require.NoError(t, err)
	require.Len(t, bookmarks, 2)
	for _, b := range bookmarks {
		assert.NotEqual(t, withShot.ID, b.ID)
	}

	limited, err := db.ListBookmarksWithoutScreenshot(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestDeleteBookmark(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := mustCreateUser(t, db, "alice")
	bob := mustCreateUser(t, db, "bob")

	b, err := db.AddBookmark(ctx, alice.ID, "https://example.com", "To Delete")
	require.NoError(t, err)

	t.Run("other user cannot delete", func(t *testing.T) {
		assert.ErrorIs(t, db.DeleteBookmark(ctx, bob.ID, b.ID), ErrNotFound)
		_, err := db.GetBookmark(ctx, alice.ID, b.ID)
		assert.NoError(t, err, "bookmark must survive a foreign delete")
	})

	t.Run("owner deletes", func(t *testing.T) {
		require.NoError(t, db.DeleteBookmark(ctx, alice.ID, b.ID))
		_, err := db.GetBookmark(ctx, alice.ID, b.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("deleting twice reports not found", func(t *testing.T) {
		assert.ErrorIs(t, db.DeleteBookmark(ctx, alice.ID, b.ID), ErrNotFound)
	})
}
