package core

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/seckatie/snapmark/internal/core/db"
	"github.com/sirupsen/logrus"
)

// ErrValidation is returned when user input is missing or malformed.
var ErrValidation = errors.New("validation failed")

// Screenshotter produces and removes bookmark screenshots. *Capturer
// implements it.
type Screenshotter interface {
	Capture(ctx context.Context, url string, bookmarkID int64) (string, bool)
	RemoveScreenshot(relPath string) error
}

// Bookmarks couples the bookmark store with the screenshot capturer.
type Bookmarks struct {
	db     *db.DB
	shots  Screenshotter
	policy *bluemonday.Policy
	log    logrus.FieldLogger
}

func NewBookmarks(database *db.DB, shots Screenshotter, logger logrus.FieldLogger) *Bookmarks {
	return &Bookmarks{
		db:     database,
		shots:  shots,
		policy: bluemonday.StrictPolicy(),
		log:    logger.WithField("component", "bookmarks"),
	}
}

// AddResult reports the outcome of Add. ScreenshotCaptured is false when the
// bookmark was stored but its screenshot could not be taken.
type AddResult struct {
	Bookmark           db.Bookmark
	ScreenshotCaptured bool
}

// RefreshResult reports the outcome of Refresh.
type RefreshResult struct {
	Bookmark           db.Bookmark
	ScreenshotCaptured bool
}

// RunResult reports the outcome of a batch capture run.
type RunResult struct {
	Attempted int
	Succeeded int
	Failed    int
}

// NormalizeURL trims rawURL and prefixes https:// unless it already starts
// with http:// or https://.
func NormalizeURL(rawURL string) string {
	u := strings.TrimSpace(rawURL)
	lower := strings.ToLower(u)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return u
	}
	return "https://" + u
}

// cleanTitle strips markup from a user supplied title.
func (s *Bookmarks) cleanTitle(title string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(strings.TrimSpace(title))))
}

// Add stores a bookmark for userID and synchronously captures its screenshot.
// A failed capture is not an error: the bookmark is kept without an image and
// AddResult.ScreenshotCaptured is false.
func (s *Bookmarks) Add(ctx context.Context, userID int64, rawURL, title string) (AddResult, error) {
	return s.add(ctx, userID, rawURL, title, true)
}

func (s *Bookmarks) add(ctx context.Context, userID int64, rawURL, title string, capture bool) (AddResult, error) {
	rawURL = strings.TrimSpace(rawURL)
	title = s.cleanTitle(title)
	if rawURL == "" || title == "" {
		return AddResult{}, fmt.Errorf("%w: URL and title are required", ErrValidation)
	}

	b, err := s.db.AddBookmark(ctx, userID, NormalizeURL(rawURL), title)
	if err != nil {
		return AddResult{}, err
	}
	if !capture {
		return AddResult{Bookmark: b}, nil
	}

	b, ok := s.captureAndStore(ctx, b)
	return AddResult{Bookmark: b, ScreenshotCaptured: ok}, nil
}

// Refresh re-captures the screenshot of a bookmark owned by userID. The old
// image is removed first; if the new capture fails the stored path is cleared
// so it never points at a missing file.
func (s *Bookmarks) Refresh(ctx context.Context, userID, id int64) (RefreshResult, error) {
	b, err := s.db.GetBookmark(ctx, userID, id)
	if err != nil {
		return RefreshResult{}, err
	}

	hadScreenshot := b.HasScreenshot()
	if hadScreenshot {
		if err := s.shots.RemoveScreenshot(b.ScreenshotPath); err != nil {
			s.log.WithError(err).WithField("bookmark_id", id).Warn("Failed to remove old screenshot")
		}
	}

	b, ok := s.captureAndStore(ctx, b)
	if !ok && hadScreenshot {
		if err := s.db.SetScreenshotPath(context.WithoutCancel(ctx), b.ID, ""); err != nil {
			return RefreshResult{Bookmark: b}, fmt.Errorf("failed to clear screenshot path: %w", err)
		}
	}
	return RefreshResult{Bookmark: b, ScreenshotCaptured: ok}, nil
}

// captureAndStore captures b.URL and records the resulting path on success.
// A capture that started is recorded even if ctx is cancelled meanwhile.
func (s *Bookmarks) captureAndStore(ctx context.Context, b db.Bookmark) (db.Bookmark, bool) {
	path, ok := s.shots.Capture(ctx, b.URL, b.ID)
	if !ok {
		b.ScreenshotPath = ""
		return b, false
	}
	ctx = context.WithoutCancel(ctx)

	if err := s.db.SetScreenshotPath(ctx, b.ID, path); err != nil {
		s.log.WithError(err).WithField("bookmark_id", b.ID).Error("Failed to record screenshot path")
		if rmErr := s.shots.RemoveScreenshot(path); rmErr != nil {
			s.log.WithError(rmErr).WithField("bookmark_id", b.ID).Warn("Failed to remove unrecorded screenshot")
		}
		b.ScreenshotPath = ""
		return b, false
	}

	b.ScreenshotPath = path
	return b, true
}

// Delete removes a bookmark owned by userID together with its screenshot.
// Ownership is checked before anything is touched.
func (s *Bookmarks) Delete(ctx context.Context, userID, id int64) error {
	b, err := s.db.GetBookmark(ctx, userID, id)
	if err != nil {
		return err
	}

	if b.HasScreenshot() {
		if err := s.shots.RemoveScreenshot(b.ScreenshotPath); err != nil {
			return err
		}
	}

	if err := s.db.DeleteBookmark(ctx, userID, id); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"bookmark_id": id, "user_id": userID}).Info("Bookmark deleted")
	return nil
}

// List returns the bookmarks of userID, newest first.
func (s *Bookmarks) List(ctx context.Context, userID int64) ([]db.Bookmark, error) {
	return s.db.ListBookmarks(ctx, userID, 0)
}

// CaptureMissing captures bookmarks that have no screenshot, oldest first.
// If limit <= 0 every such bookmark is attempted. It returns an error when
// any capture failed.
func (s *Bookmarks) CaptureMissing(ctx context.Context, limit int) (RunResult, error) {
	bookmarks, err := s.db.ListBookmarksWithoutScreenshot(ctx, limit)
	if err != nil {
		return RunResult{}, err
	}
	if len(bookmarks) == 0 {
		s.log.Info("No bookmarks without a screenshot")
		return RunResult{}, nil
	}

	s.log.WithField("count", len(bookmarks)).Info("Capturing missing screenshots")
	var res RunResult
	for _, b := range bookmarks {
		if ctx.Err() != nil {
			break
		}
		res.Attempted++
		if _, ok := s.captureAndStore(ctx, b); !ok {
			res.Failed++
			continue
		}
		res.Succeeded++
	}

	if res.Failed > 0 {
		return res, fmt.Errorf("capture finished with %d failure(s)", res.Failed)
	}
	return res, nil
}
