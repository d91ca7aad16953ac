package core

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
)

// BrowserOptions configures how browser processes are started.
type BrowserOptions struct {
	// ChromePath optionally overrides the Chrome/Chromium executable path.
	// If empty, the driver looks for a browser on PATH / default locations.
	ChromePath string
	// Headful runs Chrome with a visible window, for debugging captures.
	Headful bool
	// Stealth applies anti-bot-detection patches where the driver supports it.
	Stealth bool
}

// ChromedpLauncher starts a dedicated Chrome process per session over the
// DevTools protocol.
type ChromedpLauncher struct {
	opts BrowserOptions
	log  logrus.FieldLogger
}

func NewChromedpLauncher(opts BrowserOptions, logger logrus.FieldLogger) *ChromedpLauncher {
	return &ChromedpLauncher{opts: opts, log: logger.WithField("driver", "chromedp")}
}

func (l *ChromedpLauncher) Launch(ctx context.Context) (BrowserSession, error) {
	allocatorOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocatorOpts = append(allocatorOpts,
		chromedp.NoDefaultBrowserCheck,
		chromedp.NoFirstRun,
	)
	if l.opts.ChromePath != "" {
		allocatorOpts = append(allocatorOpts, chromedp.ExecPath(l.opts.ChromePath))
	}
	if l.opts.Headful {
		allocatorOpts = append(allocatorOpts, chromedp.Flag("headless", false))
	} else {
		allocatorOpts = append(allocatorOpts, chromedp.Headless)
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocatorOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// Running no actions starts the browser and opens the first tab.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, err
	}

	return &chromedpSession{
		ctx:           browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
		log:           l.log,
	}, nil
}

type chromedpSession struct {
	ctx           context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
	log           logrus.FieldLogger
}

func (s *chromedpSession) Screenshot(ctx context.Context, url string, opts ShotOptions) ([]byte, error) {
	// Actions must run on the chromedp context; honour the caller's
	// cancellation as well.
	runCtx, cancelRun := context.WithCancel(s.ctx)
	defer cancelRun()
	stop := context.AfterFunc(ctx, cancelRun)
	defer stop()

	viewportOpts := []chromedp.EmulateViewportOption{chromedp.EmulateScale(opts.Profile.DeviceScaleFactor)}
	if opts.Profile.Mobile {
		viewportOpts = append(viewportOpts, chromedp.EmulateMobile)
	}
	if opts.Profile.Touch {
		viewportOpts = append(viewportOpts, chromedp.EmulateTouch)
	}

	if err := chromedp.Run(runCtx,
		chromedp.EmulateViewport(int64(opts.Profile.Width), int64(opts.Profile.Height), viewportOpts...),
		emulation.SetUserAgentOverride(opts.Profile.UserAgent),
	); err != nil {
		return nil, fmt.Errorf("failed to emulate device: %w", err)
	}

	navCtx, cancelNav := context.WithTimeout(runCtx, opts.NavigationTimeout)
	defer cancelNav()
	if err := chromedp.Run(navCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		return navigateAndWaitForNetworkIdle(ctx, url, s.log)
	})); err != nil {
		return nil, fmt.Errorf("navigation failed: %w", err)
	}

	var buf []byte
	if err := chromedp.Run(runCtx,
		chromedp.Sleep(opts.SettleDelay),
		chromedp.CaptureScreenshot(&buf),
	); err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return buf, nil
}

// navigateAndWaitForNetworkIdle navigates and blocks until Chrome reports the
// networkIdle lifecycle event or ctx ends.
func navigateAndWaitForNetworkIdle(ctx context.Context, url string, log logrus.FieldLogger) error {
	if err := page.SetLifecycleEventsEnabled(true).Do(ctx); err != nil {
		return err
	}

	ch := make(chan struct{}, 1)
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		if e, ok := ev.(*page.EventLifecycleEvent); ok && e.Name == "networkIdle" {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	})

	if err := chromedp.Navigate(url).Do(ctx); err != nil {
		return err
	}

	select {
	case <-ch:
		log.WithField("url", url).Debug("Network idle reached")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *chromedpSession) Close() error {
	// Closes the tab and the browser, then kills the process.
	s.cancelBrowser()
	s.cancelAlloc()
	return nil
}
