package core

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/sirupsen/logrus"
)

// RodLauncher starts a dedicated Chrome process per session through rod.
type RodLauncher struct {
	opts BrowserOptions
	log  logrus.FieldLogger
}

func NewRodLauncher(opts BrowserOptions, logger logrus.FieldLogger) *RodLauncher {
	return &RodLauncher{opts: opts, log: logger.WithField("driver", "rod")}
}

func (l *RodLauncher) Launch(ctx context.Context) (BrowserSession, error) {
	ln := launcher.New().Context(ctx).Headless(!l.opts.Headful)

	path := l.opts.ChromePath
	if path == "" {
		if found, ok := launcher.LookPath(); ok {
			path = found
		}
	}
	if path != "" {
		ln = ln.Bin(path)
	}
	if l.opts.Stealth {
		ln = ln.Set("disable-blink-features", "AutomationControlled")
	}

	u, err := ln.Launch()
	if err != nil {
		ln.Cleanup()
		return nil, fmt.Errorf("failed to launch chrome: %w", err)
	}

	browser := rod.New().ControlURL(u).Context(ctx)
	if err := browser.Connect(); err != nil {
		ln.Kill()
		ln.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &rodSession{
		browser:  browser,
		launcher: ln,
		stealth:  l.opts.Stealth,
		log:      l.log,
	}, nil
}

type rodSession struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	stealth  bool
	log      logrus.FieldLogger
}

func (s *rodSession) newPage() (*rod.Page, error) {
	if s.stealth {
		return stealth.Page(s.browser)
	}
	return s.browser.Page(proto.TargetCreateTarget{})
}

func (s *rodSession) Screenshot(ctx context.Context, url string, opts ShotOptions) ([]byte, error) {
	p, err := s.newPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	p = p.Context(ctx)

	if err := p.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.Profile.Width,
		Height:            opts.Profile.Height,
		DeviceScaleFactor: opts.Profile.DeviceScaleFactor,
		Mobile:            opts.Profile.Mobile,
	}); err != nil {
		return nil, fmt.Errorf("failed to set viewport: %w", err)
	}
	if err := p.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: opts.Profile.UserAgent}); err != nil {
		return nil, fmt.Errorf("failed to set user agent: %w", err)
	}
	if opts.Profile.Touch {
		if err := (proto.EmulationSetTouchEmulationEnabled{Enabled: true}).Call(p); err != nil {
			return nil, fmt.Errorf("failed to enable touch emulation: %w", err)
		}
	}

	navCtx, cancel := context.WithTimeout(ctx, opts.NavigationTimeout)
	defer cancel()
	navPage := p.Context(navCtx)

	wait := navPage.WaitNavigation(proto.PageLifecycleEventNameNetworkIdle)
	if err := navPage.Navigate(url); err != nil {
		return nil, fmt.Errorf("navigation failed: %w", err)
	}
	wait()
	if err := navCtx.Err(); err != nil {
		return nil, fmt.Errorf("waiting for network idle: %w", err)
	}
	s.log.WithField("url", url).Debug("Network idle reached")

	select {
	case <-time.After(opts.SettleDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	png, err := p.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return png, nil
}

func (s *rodSession) Close() error {
	err := s.browser.Close()
	s.launcher.Kill()
	s.launcher.Cleanup()
	return err
}
