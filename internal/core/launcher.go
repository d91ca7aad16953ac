package core

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Browser driver names accepted by NewLauncher.
const (
	DriverChromedp   = "chromedp"
	DriverRod        = "rod"
	DriverPlaywright = "playwright"
)

// NewLauncher returns the Launcher for the named driver. The playwright
// driver is started before it is returned; callers stop it through
// StopLauncher.
func NewLauncher(driver string, opts BrowserOptions, logger logrus.FieldLogger) (Launcher, error) {
	switch driver {
	case "", DriverChromedp:
		return NewChromedpLauncher(opts, logger), nil
	case DriverRod:
		return NewRodLauncher(opts, logger), nil
	case DriverPlaywright:
		l := NewPlaywrightLauncher(opts, logger)
		if err := l.Start(); err != nil {
			return nil, err
		}
		return l, nil
	default:
		return nil, fmt.Errorf("unknown browser driver %q (want %s, %s or %s)",
			driver, DriverChromedp, DriverRod, DriverPlaywright)
	}
}

// StopLauncher releases long-lived resources held by a Launcher, if any.
func StopLauncher(l Launcher) error {
	if s, ok := l.(interface{ Stop() error }); ok {
		return s.Stop()
	}
	return nil
}
