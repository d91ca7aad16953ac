package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/seckatie/snapmark/internal/core"
	"github.com/seckatie/snapmark/internal/core/session"
	"github.com/sirupsen/logrus"
)

//go:embed templates/*.html static/*.css
var templatesFS embed.FS

// Options configures a Server.
type Options struct {
	// StaticDir is served under /static/ and holds the screenshots directory.
	StaticDir string
	// SecureCookie marks the session cookie Secure.
	SecureCookie bool
	// ShutdownTimeout bounds graceful shutdown so in-flight captures can
	// finish. If <= 0, the default capture deadline is used.
	ShutdownTimeout time.Duration
}

type Server struct {
	accounts     *core.Accounts
	bookmarks    *core.Bookmarks
	sessions     *session.Store
	templates    *template.Template
	assetsFS     http.FileSystem
	staticDir    string
	secureCookie bool
	shutdown     time.Duration
	log          logrus.FieldLogger
}

func NewServer(accounts *core.Accounts, bookmarks *core.Bookmarks, sessions *session.Store, opts Options, logger logrus.FieldLogger) (*Server, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	templates, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	assetsSub, err := fs.Sub(templatesFS, "static")
	if err != nil {
		return nil, err
	}

	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = core.CaptureOptions{}.Deadline()
	}

	return &Server{
		accounts:     accounts,
		bookmarks:    bookmarks,
		sessions:     sessions,
		templates:    templates,
		assetsFS:     http.FS(assetsSub),
		staticDir:    opts.StaticDir,
		secureCookie: opts.SecureCookie,
		shutdown:     opts.ShutdownTimeout,
		log:          logger.WithField("component", "web"),
	}, nil
}

// Handler returns the application's router.
func (ws *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(ws.logRequests)
	r.Use(middleware.Recoverer)

	ws.registerStaticRoutes(r)

	r.Group(func(r chi.Router) {
		r.Use(ws.withSession)

		r.Get("/", ws.handleIndex)
		r.Get("/register", ws.handleRegisterForm)
		r.Post("/register", ws.handleRegister)
		r.Get("/login", ws.handleLoginForm)
		r.Post("/login", ws.handleLogin)
		r.Get("/logout", ws.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(ws.requireLogin)

			r.Get("/bookmarks", ws.handleListBookmarks)
			r.Post("/bookmarks", ws.handleAddBookmark)
			r.Post("/bookmarks/{id}/refresh", ws.handleRefreshBookmark)
			r.Post("/bookmarks/{id}/delete", ws.handleDeleteBookmark)
		})
	})

	return r
}

func (ws *Server) registerStaticRoutes(r chi.Router) {
	// Embedded stylesheet.
	r.Handle("/assets/*", http.StripPrefix("/assets/", noDirListing(http.FileServer(ws.assetsFS))))
	// Screenshots and anything else under the static root on disk.
	r.Handle("/static/*", http.StripPrefix("/static/", noDirListing(http.FileServer(http.Dir(ws.staticDir)))))
}

func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (ws *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		ws.log.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"duration":   time.Since(start).String(),
			"request_id": middleware.GetReqID(r.Context()),
		}).Debug("Request handled")
	})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (ws *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           ws.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		ws.log.WithField("addr", addr).Info("Starting web server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("web server failed: %w", err)
	case <-ctx.Done():
	}

	ws.log.Info("Shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ws.shutdown)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down web server: %w", err)
	}
	return nil
}
