package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/seckatie/snapmark/internal/core"
	"github.com/seckatie/snapmark/internal/core/db"
	"github.com/seckatie/snapmark/internal/core/session"
)

func (ws *Server) handleListBookmarks(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	bookmarks, err := ws.bookmarks.List(r.Context(), sess.UserID)
	if err != nil {
		ws.serverError(w, err, "Failed to get bookmarks")
		return
	}

	views := make([]bookmarkView, 0, len(bookmarks))
	for _, b := range bookmarks {
		views = append(views, newBookmarkView(b))
	}
	ws.renderTemplate(w, r, "bookmarks.html", pageData{
		Title:      "Bookmarks",
		ActivePage: "bookmarks",
		Bookmarks:  views,
	})
}

func (ws *Server) handleAddBookmark(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	res, err := ws.bookmarks.Add(r.Context(), sess.UserID, r.FormValue("url"), r.FormValue("title"))
	switch {
	case err == nil && res.ScreenshotCaptured:
		ws.redirectWithFlash(w, r, "/bookmarks", session.FlashSuccess, "Bookmark added successfully with mobile screenshot!")
	case err == nil:
		ws.redirectWithFlash(w, r, "/bookmarks", session.FlashWarning, "Bookmark added, but screenshot capture failed.")
	case errors.Is(err, core.ErrValidation):
		ws.redirectWithFlash(w, r, "/bookmarks", session.FlashDanger, "URL and title are required.")
	case errors.Is(err, db.ErrInvalidURL):
		ws.redirectWithFlash(w, r, "/bookmarks", session.FlashDanger, "Invalid URL.")
	default:
		ws.serverError(w, err, "Failed to add bookmark")
	}
}

func (ws *Server) handleRefreshBookmark(w http.ResponseWriter, r *http.Request) {
	id, ok := bookmarkID(r)
	if !ok {
		ws.redirectWithFlash(w, r, "/bookmarks", session.FlashDanger, "Bookmark not found.")
		return
	}

	res, err := ws.bookmarks.Refresh(r.Context(), sessionFrom(r).UserID, id)
	switch {
	case err == nil && res.ScreenshotCaptured:
		ws.redirectWithFlash(w, r, "/bookmarks", session.FlashSuccess, "Screenshot refreshed successfully!")
	case err == nil:
		ws.redirectWithFlash(w, r, "/bookmarks", session.FlashDanger, "Failed to refresh screenshot.")
	case errors.Is(err, db.ErrNotFound):
		ws.redirectWithFlash(w, r, "/bookmarks", session.FlashDanger, "Bookmark not found.")
	default:
		ws.serverError(w, err, "Failed to refresh screenshot")
	}
}

func (ws *Server) handleDeleteBookmark(w http.ResponseWriter, r *http.Request) {
	id, ok := bookmarkID(r)
	if !ok {
		ws.redirectWithFlash(w, r, "/bookmarks", session.FlashDanger, "Bookmark not found.")
		return
	}

	err := ws.bookmarks.Delete(r.Context(), sessionFrom(r).UserID, id)
	switch {
	case err == nil:
		ws.redirectWithFlash(w, r, "/bookmarks", session.FlashSuccess, "Bookmark deleted successfully!")
	case errors.Is(err, db.ErrNotFound):
		ws.redirectWithFlash(w, r, "/bookmarks", session.FlashDanger, "Bookmark not found.")
	default:
		ws.serverError(w, err, "Failed to delete bookmark")
	}
}

func bookmarkID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
