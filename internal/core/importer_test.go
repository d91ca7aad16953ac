package core

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const netscapeExport = `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<META HTTP-EQUIV="Content-Type" CONTENT="text/html; charset=UTF-8">
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks</H1>
<DL><p>
    <DT><H3 ADD_DATE="1700000000">Reading</H3>
    <DL><p>
        <DT><A HREF="https://go.dev/blog" ADD_DATE="1700000001">The Go Blog</A>
        <DT><A HREF="example.org/docs">  </A>
        <DT><A HREF="place:sort=8&maxResults=10">Recent Tags</A>
        <DT><A HREF="http://">Broken</A>
    </DL><p>
    <DT><A HREF="https://news.ycombinator.com/">Hacker News</A>
</DL><p>
`

func TestParseNetscapeBookmarks(t *testing.T) {
	entries, err := ParseNetscapeBookmarks(strings.NewReader(netscapeExport))
	require.NoError(t, err)

	assert.Equal(t, []ImportEntry{
		{URL: "https://go.dev/blog", Title: "The Go Blog"},
		{URL: "example.org/docs", Title: "example.org/docs"},
		{URL: "http://", Title: "Broken"},
		{URL: "https://news.ycombinator.com/", Title: "Hacker News"},
	}, entries)
}

func TestBookmarksImport(t *testing.T) {
	ctx := context.Background()

	t.Run("without capture", func(t *testing.T) {
		f := newBookmarksFixture(t)

		res, err := f.svc.Import(ctx, f.alice.ID, strings.NewReader(netscapeExport), false)
		require.NoError(t, err)
		assert.Equal(t, ImportResult{Imported: 3, Skipped: 1}, res)
		assert.Zero(t, f.launcher.launched)

		list, err := f.svc.List(ctx, f.alice.ID)
		require.NoError(t, err)
		require.Len(t, list, 3)
		urls := []string{list[0].URL, list[1].URL, list[2].URL}
		assert.ElementsMatch(t, []string{
			"https://go.dev/blog",
			"https://example.org/docs",
			"https://news.ycombinator.com/",
		}, urls)
	})

	t.Run("with capture", func(t *testing.T) {
		f := newBookmarksFixture(t)

		res, err := f.svc.Import(ctx, f.alice.ID, strings.NewReader(netscapeExport), true)
		require.NoError(t, err)
		assert.Equal(t, ImportResult{Imported: 3, Skipped: 1, Captured: 3}, res)
	})

	t.Run("empty file", func(t *testing.T) {
		f := newBookmarksFixture(t)

		res, err := f.svc.Import(ctx, f.alice.ID, strings.NewReader(""), true)
		require.NoError(t, err)
		assert.Equal(t, ImportResult{}, res)
	})
}
