package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by the application,
// e.g. SNAPMARK_SESSION_DIR for session.dir.
const EnvPrefix = "SNAPMARK"

// Config holds all configuration for the application.
type Config struct {
	DB        string        `mapstructure:"db"`
	Host      string        `mapstructure:"host"`
	Port      int           `mapstructure:"port"`
	StaticDir string        `mapstructure:"static_dir"`
	Session   SessionConfig `mapstructure:"session"`
	Browser   BrowserConfig `mapstructure:"browser"`
	Capture   CaptureConfig `mapstructure:"capture"`
	Log       LogConfig     `mapstructure:"log"`
}

type SessionConfig struct {
	Dir          string        `mapstructure:"dir"`
	TTL          time.Duration `mapstructure:"ttl"`
	SecureCookie bool          `mapstructure:"secure_cookie"`
}

type BrowserConfig struct {
	Driver     string `mapstructure:"driver"`
	ChromePath string `mapstructure:"chrome_path"`
	Headful    bool   `mapstructure:"headful"`
	Stealth    bool   `mapstructure:"stealth"`
}

type CaptureConfig struct {
	Workers           int           `mapstructure:"workers"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"`
	SettleDelay       time.Duration `mapstructure:"settle_delay"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Addr returns the host:port the web server listens on.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// New returns a viper instance with defaults and environment lookup set up.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("db", "snapmark.db")
	v.SetDefault("host", "localhost")
	v.SetDefault("port", 8080)
	v.SetDefault("static_dir", "static")

	v.SetDefault("session.dir", "snapmark-sessions")
	v.SetDefault("session.ttl", 7*24*time.Hour)
	v.SetDefault("session.secure_cookie", false)

	v.SetDefault("browser.driver", "chromedp")
	v.SetDefault("browser.chrome_path", "")
	v.SetDefault("browser.headful", false)
	v.SetDefault("browser.stealth", false)

	v.SetDefault("capture.workers", 2)
	v.SetDefault("capture.navigation_timeout", 30*time.Second)
	v.SetDefault("capture.settle_delay", 2*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadDotEnv loads variables from the given .env files (default ".env")
// without overriding the existing environment. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads configFile, or snapmark.yaml from the working directory when
// configFile is empty, and decodes v into a Config. A missing default config
// file is not an error.
func Load(v *viper.Viper, configFile string) (Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("snapmark")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values no component can work with.
func (c Config) Validate() error {
	switch {
	case c.DB == "":
		return errors.New("db must not be empty")
	case c.Port < 1 || c.Port > 65535:
		return fmt.Errorf("port %d out of range", c.Port)
	case c.StaticDir == "":
		return errors.New("static_dir must not be empty")
	case c.Capture.Workers < 1:
		return fmt.Errorf("capture.workers must be at least 1, got %d", c.Capture.Workers)
	case c.Capture.NavigationTimeout <= 0:
		return fmt.Errorf("capture.navigation_timeout must be positive, got %s", c.Capture.NavigationTimeout)
	case c.Capture.SettleDelay <= 0:
		return fmt.Errorf("capture.settle_delay must be positive, got %s", c.Capture.SettleDelay)
	case c.Session.TTL <= 0:
		return fmt.Errorf("session.ttl must be positive, got %s", c.Session.TTL)
	}
	return nil
}
