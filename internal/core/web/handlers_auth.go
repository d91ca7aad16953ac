package web

import (
	"errors"
	"net/http"

	"github.com/seckatie/snapmark/internal/core"
	"github.com/seckatie/snapmark/internal/core/db"
	"github.com/seckatie/snapmark/internal/core/session"
)

func (ws *Server) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	ws.renderTemplate(w, r, "register.html", pageData{Title: "Register", ActivePage: "register"})
}

func (ws *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	_, err := ws.accounts.Register(r.Context(),
		r.FormValue("username"),
		r.FormValue("password"),
		r.FormValue("confirm_password"),
	)
	switch {
	case err == nil:
		ws.redirectWithFlash(w, r, "/login", session.FlashSuccess, "Registration successful! Please log in.")
	case errors.Is(err, core.ErrValidation):
		ws.redirectWithFlash(w, r, "/register", session.FlashDanger, "Username and password are required.")
	case errors.Is(err, core.ErrPasswordMismatch):
		ws.redirectWithFlash(w, r, "/register", session.FlashDanger, "Passwords do not match.")
	case errors.Is(err, db.ErrUsernameTaken):
		ws.redirectWithFlash(w, r, "/register", session.FlashDanger, "Username already exists.")
	default:
		ws.serverError(w, err, "Failed to register user")
	}
}

func (ws *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	ws.renderTemplate(w, r, "login.html", pageData{Title: "Login", ActivePage: "login"})
}

func (ws *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	u, err := ws.accounts.Authenticate(r.Context(), r.FormValue("username"), r.FormValue("password"))
	if err != nil {
		if errors.Is(err, core.ErrInvalidCredentials) {
			ws.redirectWithFlash(w, r, "/login", session.FlashDanger, "Invalid username or password.")
			return
		}
		ws.serverError(w, err, "Failed to authenticate user")
		return
	}

	sess := sessionFrom(r)
	sess.Login(u.ID, u.Username)
	sess.AddFlash(session.FlashSuccess, "Login successful!")
	if err := ws.sessions.Rotate(r.Context(), sess); err != nil {
		ws.serverError(w, err, "Failed to save session")
		return
	}
	ws.setSessionCookie(w, sess)
	ws.log.WithField("username", u.Username).Info("User logged in")
	http.Redirect(w, r, "/bookmarks", http.StatusSeeOther)
}

func (ws *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := sessionFrom(r); sess != nil {
		if err := ws.sessions.Delete(r.Context(), sess.Token); err != nil {
			ws.log.WithError(err).Warn("Failed to delete session")
		}
	}

	fresh := ws.sessions.New()
	fresh.AddFlash(session.FlashInfo, "You have been logged out.")
	if err := ws.saveSession(w, r, fresh); err != nil {
		ws.clearSessionCookie(w)
		ws.log.WithError(err).Warn("Failed to save session")
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
