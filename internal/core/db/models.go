package db

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	// CreatedAt is stored in the DB as RFC3339 text.
	CreatedAt string
}

type Bookmark struct {
	ID     int64
	UserID int64
	URL    string
	Title  string
	// ScreenshotPath is relative to the static root; empty means NULL.
	ScreenshotPath string
	CreatedAt      string
}

// HasScreenshot reports whether a screenshot path is recorded.
func (b Bookmark) HasScreenshot() bool {
	return b.ScreenshotPath != ""
}
