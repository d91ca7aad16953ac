package web

import (
	"net/http"
)

// renderTemplate renders a page with the standard HTML content-type header.
// Pending flashes are consumed and shown on the page.
// If template execution fails, it logs the error and returns a 500 response.
func (ws *Server) renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data pageData) {
	sess := sessionFrom(r)
	if sess != nil {
		data.Username = sess.Username
		data.Flashes = sess.PopFlashes()
		if len(data.Flashes) > 0 {
			if err := ws.sessions.Save(r.Context(), sess); err != nil {
				ws.log.WithError(err).Warn("Failed to clear flashes")
			}
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := ws.templates.ExecuteTemplate(w, templateName, data); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		ws.log.WithError(err).WithField("template", templateName).Error("Failed to execute template")
	}
}

// redirectWithFlash queues a flash on the session and redirects with 303.
func (ws *Server) redirectWithFlash(w http.ResponseWriter, r *http.Request, to, kind, message string) {
	sess := sessionFrom(r)
	sess.AddFlash(kind, message)
	if err := ws.saveSession(w, r, sess); err != nil {
		ws.serverError(w, err, "Failed to save session")
		return
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func (ws *Server) serverError(w http.ResponseWriter, err error, msg string) {
	ws.log.WithError(err).Error(msg)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func (ws *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if sess := sessionFrom(r); sess != nil && sess.Authenticated() {
		http.Redirect(w, r, "/bookmarks", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
