package web

import (
	"path"
	"time"

	"github.com/seckatie/snapmark/internal/core/db"
	"github.com/seckatie/snapmark/internal/core/session"
)

type pageData struct {
	Title      string
	ActivePage string
	Username   string
	Flashes    []session.Flash
	Bookmarks  []bookmarkView
}

type bookmarkView struct {
	ID            int64
	URL           string
	Title         string
	ScreenshotURL string // "" when no screenshot exists
	CreatedAt     string
}

func newBookmarkView(b db.Bookmark) bookmarkView {
	v := bookmarkView{
		ID:        b.ID,
		URL:       b.URL,
		Title:     b.Title,
		CreatedAt: b.CreatedAt,
	}
	if t, err := time.Parse(time.RFC3339, b.CreatedAt); err == nil {
		v.CreatedAt = t.Format("2006-01-02 15:04")
	}
	if b.HasScreenshot() {
		v.ScreenshotURL = path.Join("/static", b.ScreenshotPath)
	}
	return v
}
