package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/seckatie/snapmark/internal/core/session"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "snapmark_session"

type sessionKey struct{}

// withSession loads the session named by the request cookie, or starts an
// unsaved anonymous one.
func (ws *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sess *session.Session
		if c, err := r.Cookie(SessionCookieName); err == nil {
			sess, err = ws.sessions.Get(r.Context(), c.Value)
			if err != nil && !errors.Is(err, session.ErrNotFound) {
				ws.log.WithError(err).Error("Failed to load session")
			}
		}
		if sess == nil {
			sess = ws.sessions.New()
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, sess)))
	})
}

func sessionFrom(r *http.Request) *session.Session {
	sess, _ := r.Context().Value(sessionKey{}).(*session.Session)
	return sess
}

// requireLogin redirects anonymous visitors to the login page.
func (ws *Server) requireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sess := sessionFrom(r); sess == nil || !sess.Authenticated() {
			ws.redirectWithFlash(w, r, "/login", session.FlashWarning, "Please log in to access this page.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// saveSession persists the request's session and (re)issues its cookie.
func (ws *Server) saveSession(w http.ResponseWriter, r *http.Request, sess *session.Session) error {
	if err := ws.sessions.Save(r.Context(), sess); err != nil {
		return err
	}
	ws.setSessionCookie(w, sess)
	return nil
}

func (ws *Server) setSessionCookie(w http.ResponseWriter, sess *session.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		MaxAge:   int(ws.sessions.TTLFor(sess).Seconds()),
		HttpOnly: true,
		Secure:   ws.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (ws *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   ws.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
