package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"
)

// ErrInvalidURL is returned when a bookmark URL fails validation.
var ErrInvalidURL = errors.New("invalid URL")

// ValidateBookmarkURL validates that a URL is acceptable for bookmarking.
// It requires the URL to have http or https scheme and a non-empty host.
func ValidateBookmarkURL(urlStr string) error {
	if urlStr == "" {
		return fmt.Errorf("%w: empty URL", ErrInvalidURL)
	}

	u, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https, got %q", ErrInvalidURL, u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}

	return nil
}

// ------------------------------
// Bookmark methods
// ------------------------------

const bookmarkColumns = "id, user_id, url, title, COALESCE(screenshot_path, ''), created_at"

func scanBookmark(s interface{ Scan(...any) error }) (Bookmark, error) {
	var b Bookmark
	err := s.Scan(&b.ID, &b.UserID, &b.URL, &b.Title, &b.ScreenshotPath, &b.CreatedAt)
	return b, err
}

// GetBookmark returns the bookmark with the given id if it belongs to userID.
// A missing bookmark and one owned by someone else both yield ErrNotFound.
func (db *DB) GetBookmark(ctx context.Context, userID, id int64) (Bookmark, error) {
	row := db.db.QueryRowContext(ctx,
		"SELECT "+bookmarkColumns+" FROM bookmarks WHERE id = ? AND user_id = ?", id, userID)
	b, err := scanBookmark(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Bookmark{}, fmt.Errorf("bookmark %d: %w", id, ErrNotFound)
		}
		return Bookmark{}, fmt.Errorf("failed to get bookmark: %w", err)
	}
	return b, nil
}

// AddBookmark inserts a bookmark owned by userID and returns it.
//
// It validates the URL before inserting and returns ErrInvalidURL if validation fails.
// Emits a BookmarkCreatedEvent after successful insert.
func (db *DB) AddBookmark(ctx context.Context, userID int64, url string, title string) (Bookmark, error) {
	if err := ValidateBookmarkURL(url); err != nil {
		return Bookmark{}, err
	}

	createdAt := time.Now().UTC().Format(time.RFC3339)
	result, err := db.db.ExecContext(ctx,
		"INSERT INTO bookmarks (user_id, url, title, created_at) VALUES (?, ?, ?, ?)",
		userID,
		url,
		title,
		createdAt,
	)
	if err != nil {
		return Bookmark{}, fmt.Errorf("failed to add bookmark: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Bookmark{}, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	b := Bookmark{
		ID:        id,
		UserID:    userID,
		URL:       url,
		Title:     title,
		CreatedAt: createdAt,
	}
	db.emit(BookmarkCreatedEvent{Bookmark: b})
	return b, nil
}

// ListBookmarks returns the bookmarks of userID, newest first.
func (db *DB) ListBookmarks(ctx context.Context, userID int64, limit int) ([]Bookmark, error) {
	query := `
		SELECT ` + bookmarkColumns + `
		FROM bookmarks
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`
	args := []any{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return db.queryBookmarks(ctx, query, args...)
}

// ListBookmarksWithoutScreenshot returns bookmarks of every user that have no
// screenshot recorded, oldest first.
func (db *DB) ListBookmarksWithoutScreenshot(ctx context.Context, limit int) ([]Bookmark, error) {
	query := `
		SELECT ` + bookmarkColumns + `
		FROM bookmarks
		WHERE screenshot_path IS NULL
		ORDER BY created_at ASC, id ASC
	`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return db.queryBookmarks(ctx, query, args...)
}

func (db *DB) queryBookmarks(ctx context.Context, query string, args ...any) ([]Bookmark, error) {
	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			db.log.WithError(err).Warn("failed to close rows")
		}
	}()

	var out []Bookmark
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bookmark: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookmarks: %w", err)
	}
	return out, nil
}

// SetScreenshotPath records the screenshot path of a bookmark.
// An empty path stores NULL.
// Emits a ScreenshotUpdatedEvent after successful update.
func (db *DB) SetScreenshotPath(ctx context.Context, id int64, path string) error {
	var value any
	if path != "" {
		value = path
	}
	res, err := db.db.ExecContext(ctx, "UPDATE bookmarks SET screenshot_path = ? WHERE id = ?", value, id)
	if err != nil {
		return fmt.Errorf("failed to update screenshot path: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to determine rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("bookmark %d: %w", id, ErrNotFound)
	}

	db.emit(ScreenshotUpdatedEvent{BookmarkID: id, Path: path})
	return nil
}

// DeleteBookmark removes a bookmark owned by userID.
// Emits a BookmarkDeletedEvent after successful deletion.
func (db *DB) DeleteBookmark(ctx context.Context, userID, id int64) error {
	b, err := db.GetBookmark(ctx, userID, id)
	if err != nil {
		return err
	}

	res, err := db.db.ExecContext(ctx, "DELETE FROM bookmarks WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to determine rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("bookmark %d: %w", id, ErrNotFound)
	}

	db.emit(BookmarkDeletedEvent{Bookmark: b})
	return nil
}
