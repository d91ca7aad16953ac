package core

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// Launcher starts isolated, short-lived browser sessions.
//
// Each call to Launch must return a fresh browser that shares no state with
// sessions returned earlier.
type Launcher interface {
	Launch(ctx context.Context) (BrowserSession, error)
}

// BrowserSession is one running browser. Close must release every process
// and connection the session holds and is always called by the Capturer.
type BrowserSession interface {
	// Screenshot navigates to url using the emulated device, waits for the
	// network to settle (bounded by opts.NavigationTimeout), waits
	// opts.SettleDelay and returns a PNG of the visible viewport.
	Screenshot(ctx context.Context, url string, opts ShotOptions) ([]byte, error)
	Close() error
}

// ShotOptions is passed to a BrowserSession for a single capture.
type ShotOptions struct {
	Profile           DeviceProfile
	NavigationTimeout time.Duration
	SettleDelay       time.Duration
}

// CaptureOptions controls where screenshots go and how captures are bounded.
type CaptureOptions struct {
	// StaticDir is the static-assets root. Screenshots are written to
	// StaticDir/screenshots and reported relative to StaticDir.
	StaticDir string
	// Workers bounds the number of concurrent browser sessions.
	// If <= 0, DefaultCaptureWorkers is used.
	Workers int
	// NavigationTimeout, SettleDelay and LaunchGrace default to the package
	// constants when <= 0.
	NavigationTimeout time.Duration
	SettleDelay       time.Duration
	LaunchGrace       time.Duration
}

func (o *CaptureOptions) defaults() {
	if o.Workers <= 0 {
		o.Workers = DefaultCaptureWorkers
	}
	if o.NavigationTimeout <= 0 {
		o.NavigationTimeout = DefaultNavigationTimeout
	}
	if o.SettleDelay <= 0 {
		o.SettleDelay = DefaultSettleDelay
	}
	if o.LaunchGrace <= 0 {
		o.LaunchGrace = DefaultLaunchGrace
	}
}

// Deadline is the longest a single capture may take end to end. Unset
// timings count at their defaults.
func (o CaptureOptions) Deadline() time.Duration {
	o.defaults()
	return o.NavigationTimeout + o.SettleDelay + o.LaunchGrace
}

// Capturer renders bookmark URLs in a headless mobile browser and stores the
// viewport as a PNG. It is safe for concurrent use.
type Capturer struct {
	launcher Launcher
	opts     CaptureOptions
	dir      string
	slots    chan struct{}
	log      logrus.FieldLogger
}

// NewCapturer creates the screenshot directory and returns a Capturer that
// runs at most opts.Workers browser sessions at a time.
func NewCapturer(launcher Launcher, opts CaptureOptions, logger logrus.FieldLogger) (*Capturer, error) {
	opts.defaults()
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	dir := filepath.Join(opts.StaticDir, ScreenshotSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create screenshot directory: %w", err)
	}

	return &Capturer{
		launcher: launcher,
		opts:     opts,
		dir:      dir,
		slots:    make(chan struct{}, opts.Workers),
		log:      logger.WithField("component", "capturer"),
	}, nil
}

// Dir returns the directory screenshots are written to.
func (c *Capturer) Dir() string {
	return c.dir
}

// ScreenshotFilename derives the file name for a bookmark's screenshot from
// its id and the first URLHashLength hex characters of md5(url).
func ScreenshotFilename(bookmarkID int64, url string) string {
	sum := md5.Sum([]byte(url))
	return fmt.Sprintf("bookmark_%d_%s.png", bookmarkID, hex.EncodeToString(sum[:])[:URLHashLength])
}

// Capture renders url and writes its screenshot for bookmarkID.
//
// It returns the path relative to the static root and true on success.
// Every failure (launch, navigation, timeout, write, panic inside the browser
// driver) is logged and reported as ("", false). The browser session is
// always closed before Capture returns.
//
// ctx only bounds the wait for a free worker. Once a worker is held the
// capture runs until it completes or its deadline passes, even if ctx is
// cancelled.
func (c *Capturer) Capture(ctx context.Context, url string, bookmarkID int64) (relPath string, ok bool) {
	log := c.log.WithFields(logrus.Fields{
		"bookmark_id": bookmarkID,
		"url":         url,
	})

	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("Screenshot capture panicked")
			relPath, ok = "", false
		}
	}()

	select {
	case c.slots <- struct{}{}:
		defer func() { <-c.slots }()
	case <-ctx.Done():
		log.WithError(ctx.Err()).Warn("Screenshot capture abandoned while waiting for a worker")
		return "", false
	}

	start := time.Now()
	log.Info("Capturing mobile screenshot")

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opts.Deadline())
	defer cancel()

	png, err := c.shoot(ctx, url)
	if err != nil {
		log.WithError(err).WithField("elapsed", time.Since(start).String()).Warn("Screenshot capture failed")
		return "", false
	}

	name := ScreenshotFilename(bookmarkID, url)
	if err := writeFileAtomic(c.dir, name, png); err != nil {
		log.WithError(err).Error("Failed to write screenshot")
		return "", false
	}

	relPath = path.Join(ScreenshotSubdir, name)
	log.WithFields(logrus.Fields{
		"path":    relPath,
		"bytes":   len(png),
		"elapsed": time.Since(start).String(),
	}).Info("Screenshot captured")
	return relPath, true
}

// shoot runs one browser session. The session is closed on every path, and
// the call returns once ctx is done even if the driver ignores cancellation.
func (c *Capturer) shoot(ctx context.Context, url string) (png []byte, err error) {
	session, err := c.launcher.Launch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			c.log.WithError(closeErr).Warn("Failed to close browser session")
		}
	}()

	type result struct {
		png []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("browser driver panic: %v", r)}
			}
		}()
		png, err := session.Screenshot(ctx, url, ShotOptions{
			Profile:           MobileProfile,
			NavigationTimeout: c.opts.NavigationTimeout,
			SettleDelay:       c.opts.SettleDelay,
		})
		done <- result{png: png, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, r.err
		}
		if len(r.png) == 0 {
			return nil, fmt.Errorf("browser returned an empty screenshot")
		}
		return r.png, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("capture deadline exceeded: %w", ctx.Err())
	}
}

// RemoveScreenshot deletes the file referenced by a stored relative path.
// A file that is already gone is not an error.
func (c *Capturer) RemoveScreenshot(relPath string) error {
	if relPath == "" {
		return nil
	}
	// Stored paths only ever name a file directly inside the screenshot directory.
	full := filepath.Join(c.dir, path.Base(relPath))
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove screenshot %s: %w", relPath, err)
	}
	return nil
}

// writeFileAtomic writes data to a temp file in dir and renames it to name so
// readers never observe a partially written image.
func writeFileAtomic(dir, name string, data []byte) error {
	tmp, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(dir, name)); err != nil {
		return fmt.Errorf("failed to move screenshot into place: %w", err)
	}
	return nil
}
