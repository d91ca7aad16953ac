package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"
)

// ErrDriverNotStarted is returned by PlaywrightLauncher.Launch before Start.
var ErrDriverNotStarted = errors.New("playwright driver not started")

// PlaywrightLauncher keeps one playwright driver process alive for the life
// of the application and launches a fresh Chromium per session.
type PlaywrightLauncher struct {
	mu   sync.Mutex
	pw   *playwright.Playwright
	opts BrowserOptions
	log  logrus.FieldLogger
}

func NewPlaywrightLauncher(opts BrowserOptions, logger logrus.FieldLogger) *PlaywrightLauncher {
	return &PlaywrightLauncher{opts: opts, log: logger.WithField("driver", "playwright")}
}

// Start installs (if needed) and runs the playwright driver. It is a no-op
// when the driver is already running.
func (l *PlaywrightLauncher) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pw != nil {
		return nil
	}

	runOpts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}
	if l.opts.ChromePath != "" {
		runOpts.SkipInstallBrowsers = true
	}
	if err := playwright.Install(runOpts); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}
	l.pw = pw
	l.log.Info("Playwright driver started")
	return nil
}

// Stop shuts the driver down.
func (l *PlaywrightLauncher) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pw == nil {
		return nil
	}
	err := l.pw.Stop()
	l.pw = nil
	return err
}

func (l *PlaywrightLauncher) Launch(_ context.Context) (BrowserSession, error) {
	l.mu.Lock()
	pw := l.pw
	l.mu.Unlock()
	if pw == nil {
		return nil, ErrDriverNotStarted
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(!l.opts.Headful),
	}
	if l.opts.ChromePath != "" {
		launchOpts.ExecutablePath = playwright.String(l.opts.ChromePath)
	}

	browser, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	return &playwrightSession{browser: browser}, nil
}

type playwrightSession struct {
	browser playwright.Browser
}

// Screenshot does not observe ctx directly; the Capturer closes the browser
// when its deadline passes, which fails any call still in flight.
func (s *playwrightSession) Screenshot(_ context.Context, url string, opts ShotOptions) ([]byte, error) {
	bctx, err := s.browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  opts.Profile.Width,
			Height: opts.Profile.Height,
		},
		DeviceScaleFactor: playwright.Float(opts.Profile.DeviceScaleFactor),
		IsMobile:          playwright.Bool(opts.Profile.Mobile),
		HasTouch:          playwright.Bool(opts.Profile.Touch),
		UserAgent:         playwright.String(opts.Profile.UserAgent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create context: %w", err)
	}
	defer bctx.Close()

	page, err := bctx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	if _, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(float64(opts.NavigationTimeout.Milliseconds())),
	}); err != nil {
		return nil, fmt.Errorf("navigation failed: %w", err)
	}

	page.WaitForTimeout(float64(opts.SettleDelay.Milliseconds()))

	png, err := page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return png, nil
}

func (s *playwrightSession) Close() error {
	return s.browser.Close()
}
