/*
Copyright © 2025 Katie Mulliken <katie@mulliken.net>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/seckatie/snapmark/internal/config"
	"github.com/seckatie/snapmark/internal/core"
	"github.com/seckatie/snapmark/internal/core/db"
	"github.com/seckatie/snapmark/internal/core/session"
	"github.com/seckatie/snapmark/internal/core/web"
	"github.com/seckatie/snapmark/internal/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	cfgFile string
	v       = config.New()
	cfg     config.Config
	logger  *logrus.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "snapmark",
	Short: "Bookmark manager that keeps a mobile screenshot of every page",
	Long: `snapmark stores bookmarks per user and captures a screenshot of each
page as an iPhone would render it.

Run without a subcommand to start the web app. The capture, user and import
subcommands work on the same database from the shell.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default ./snapmark.yaml)")
	pf.StringP("db", "d", "snapmark.db", "Path to the SQLite database file")
	pf.String("static-dir", "static", "Directory served under /static; screenshots go to its screenshots/ subdirectory")
	pf.String("browser", core.DriverChromedp, "Browser driver: chromedp, rod or playwright")
	pf.String("chrome-path", "", "Path to Chrome/Chromium executable")
	pf.Bool("headful", false, "Run the browser with a visible window (not headless)")
	pf.Bool("stealth", false, "Hide automation fingerprints (rod driver only)")
	pf.Int("capture-workers", core.DefaultCaptureWorkers, "Maximum number of concurrent browser sessions")
	pf.String("log-level", "info", "Log level: debug, info, warn or error")
	pf.String("log-format", "text", "Log format: text or json")

	rootCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	rootCmd.Flags().String("host", "localhost", "Host to listen on")

	bindFlags(pf, map[string]string{
		"db":              "db",
		"static-dir":      "static_dir",
		"browser":         "browser.driver",
		"chrome-path":     "browser.chrome_path",
		"headful":         "browser.headful",
		"stealth":         "browser.stealth",
		"capture-workers": "capture.workers",
		"log-level":       "log.level",
		"log-format":      "log.format",
	})
	bindFlags(rootCmd.Flags(), map[string]string{
		"port": "port",
		"host": "host",
	})
}

func bindFlags(fs *pflag.FlagSet, keys map[string]string) {
	for flag, key := range keys {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("failed to bind --%s: %v", flag, err))
		}
	}
}

// setup loads configuration and builds the logger shared by every command.
func setup() error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	c, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	l, err := logging.New(c.Log.Level, c.Log.Format)
	if err != nil {
		return err
	}
	cfg, logger = c, l
	return nil
}

func runServe(ctx context.Context) error {
	database, err := initDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	bookmarks, stop, err := newBookmarks(database)
	if err != nil {
		return err
	}
	defer stop()

	sessions, err := session.Open(cfg.Session.Dir, cfg.Session.TTL, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := sessions.Close(); err != nil {
			logger.WithError(err).Error("Failed to close session store")
		}
	}()
	go sessions.RunGC(ctx, 10*time.Minute)

	srv, err := web.NewServer(
		core.NewAccounts(database, logger),
		bookmarks,
		sessions,
		web.Options{
			StaticDir:       cfg.StaticDir,
			SecureCookie:    cfg.Session.SecureCookie,
			ShutdownTimeout: captureOptions().Deadline(),
		},
		logger,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize web server: %w", err)
	}
	return srv.ListenAndServe(ctx, cfg.Addr())
}

func initDB() (*db.DB, error) {
	database, err := db.NewSQLiteDB(cfg.DB, logger)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(); err != nil {
		database.Close()
		return nil, err
	}
	logger.WithField("path", cfg.DB).Debug("Database migrated successfully")

	registerEventLogging(database, logger)
	return database, nil
}

func closeDB(database *db.DB) {
	if err := database.Close(); err != nil {
		logger.WithError(err).Error("Failed to close database")
	}
}

// registerEventLogging logs every store mutation.
func registerEventLogging(database *db.DB, log logrus.FieldLogger) {
	log = log.WithField("component", "events")

	database.RegisterEventListener(db.OnBookmarkCreatedEvent, func(event db.Event) error {
		ev := event.(db.BookmarkCreatedEvent)
		log.WithFields(logrus.Fields{
			"bookmark_id": ev.Bookmark.ID,
			"user_id":     ev.Bookmark.UserID,
			"url":         ev.Bookmark.URL,
		}).Info("Bookmark created")
		return nil
	})
	database.RegisterEventListener(db.OnBookmarkDeletedEvent, func(event db.Event) error {
		ev := event.(db.BookmarkDeletedEvent)
		log.WithFields(logrus.Fields{
			"bookmark_id": ev.Bookmark.ID,
			"user_id":     ev.Bookmark.UserID,
		}).Info("Bookmark deleted")
		return nil
	})
	database.RegisterEventListener(db.OnScreenshotUpdatedEvent, func(event db.Event) error {
		ev := event.(db.ScreenshotUpdatedEvent)
		entry := log.WithField("bookmark_id", ev.BookmarkID)
		if ev.Path == "" {
			entry.Info("Screenshot cleared")
			return nil
		}
		entry.WithField("path", ev.Path).Info("Screenshot saved")
		return nil
	})
	database.RegisterEventListener(db.OnUserCreatedEvent, func(event db.Event) error {
		ev := event.(db.UserCreatedEvent)
		log.WithField("username", ev.User.Username).Info("User created")
		return nil
	})
}

func captureOptions() core.CaptureOptions {
	return core.CaptureOptions{
		StaticDir:         cfg.StaticDir,
		Workers:           cfg.Capture.Workers,
		NavigationTimeout: cfg.Capture.NavigationTimeout,
		SettleDelay:       cfg.Capture.SettleDelay,
	}
}

// newBookmarks wires the configured browser driver into a bookmark service.
// The returned func releases the driver.
func newBookmarks(database *db.DB) (*core.Bookmarks, func(), error) {
	chromePath := cfg.Browser.ChromePath
	if chromePath == "" && runtime.GOOS == "darwin" && cfg.Browser.Driver == core.DriverChromedp {
		// Best-effort default for macOS.
		chromePath = "/Applications/Google Chrome.app/Contents/MacOS/Google Chrome"
	}

	launcher, err := core.NewLauncher(cfg.Browser.Driver, core.BrowserOptions{
		ChromePath: chromePath,
		Headful:    cfg.Browser.Headful,
		Stealth:    cfg.Browser.Stealth,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	stop := func() {
		if err := core.StopLauncher(launcher); err != nil {
			logger.WithError(err).Warn("Failed to stop browser driver")
		}
	}

	capturer, err := core.NewCapturer(launcher, captureOptions(), logger)
	if err != nil {
		stop()
		return nil, nil, err
	}

	return core.NewBookmarks(database, capturer, logger), stop, nil
}
