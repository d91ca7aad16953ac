package core

import "time"

// Capture timing defaults
const (
	DefaultNavigationTimeout = 30 * time.Second
	DefaultSettleDelay       = 2 * time.Second
	// DefaultLaunchGrace bounds browser start-up and shutdown on top of
	// navigation and settle time.
	DefaultLaunchGrace = 10 * time.Second
)

// Capture pool defaults
const (
	DefaultCaptureWorkers = 2
)

// Screenshot storage layout
const (
	// ScreenshotSubdir is the directory under the static root that holds
	// screenshots; stored paths are prefixed with it.
	ScreenshotSubdir = "screenshots"
	// URLHashLength is the number of hex characters of the URL's MD5 used in filenames.
	URLHashLength = 10
)

// MobileUserAgent is sent by every capture session.
const MobileUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 14_7_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.1.2 Mobile/15E148 Safari/604.1"

// DeviceProfile describes the emulated device a page is rendered in.
type DeviceProfile struct {
	Width             int
	Height            int
	DeviceScaleFactor float64
	Mobile            bool
	Touch             bool
	UserAgent         string
}

// MobileProfile is the fixed iPhone 12 Pro sized profile used for previews.
var MobileProfile = DeviceProfile{
	Width:             390,
	Height:            844,
	DeviceScaleFactor: 3,
	Mobile:            true,
	Touch:             true,
	UserAgent:         MobileUserAgent,
}
