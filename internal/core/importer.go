package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/seckatie/snapmark/internal/core/db"
)

// ImportEntry is one link found in a bookmark export.
type ImportEntry struct {
	URL   string
	Title string
}

// ImportResult reports the outcome of an import.
type ImportResult struct {
	Imported int
	Skipped  int
	Captured int
}

// ParseNetscapeBookmarks extracts links from a Netscape bookmark file, the
// HTML format browsers use for bookmark export. Entries without an href are
// dropped; an empty title falls back to the URL.
func ParseNetscapeBookmarks(r io.Reader) ([]ImportEntry, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bookmark file: %w", err)
	}

	var entries []ImportEntry
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(strings.ToLower(href), "place:") {
			return
		}
		title := strings.TrimSpace(s.Text())
		if title == "" {
			title = href
		}
		entries = append(entries, ImportEntry{URL: href, Title: title})
	})
	return entries, nil
}

// Import adds every entry in a Netscape bookmark file for userID. Entries
// that fail validation are skipped. When capture is true each imported
// bookmark is captured as in Add.
func (s *Bookmarks) Import(ctx context.Context, userID int64, r io.Reader, capture bool) (ImportResult, error) {
	entries, err := ParseNetscapeBookmarks(r)
	if err != nil {
		return ImportResult{}, err
	}

	var res ImportResult
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		added, err := s.add(ctx, userID, e.URL, e.Title, capture)
		if err != nil {
			if errors.Is(err, ErrValidation) || errors.Is(err, db.ErrInvalidURL) {
				s.log.WithError(err).WithField("url", e.URL).Warn("Skipping bookmark")
				res.Skipped++
				continue
			}
			return res, err
		}
		res.Imported++
		if added.ScreenshotCaptured {
			res.Captured++
		}
	}

	s.log.WithField("imported", res.Imported).WithField("skipped", res.Skipped).Info("Import finished")
	return res, nil
}
