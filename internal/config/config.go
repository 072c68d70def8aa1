// Package config loads twitfetch settings from a YAML file, a .env file
// and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"twitfetch/internal/adapters/browser"
	"twitfetch/internal/adapters/scraper"
	"twitfetch/internal/usecases"
	"twitfetch/pkg/log"
)

// Config holds all application configuration.
type Config struct {
	Credentials Credentials `yaml:"credentials"`
	LoginURL    string      `yaml:"login_url"`

	Browser     browser.Options           `yaml:"browser"`
	Collector   scraper.CollectorConfig   `yaml:"collector"`
	Interceptor scraper.InterceptorConfig `yaml:"interceptor"`
	Fetch       usecases.FetchConfig      `yaml:"fetch"`
	Selectors   SelectorsConfig           `yaml:"selectors"`

	// DumpDir receives raw payload dumps. Empty disables dumping.
	DumpDir string `yaml:"dump_dir"`

	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Schedule ScheduleConfig `yaml:"schedule"`
}

// Credentials for the account the browser signs in as.
type Credentials struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type SelectorsConfig struct {
	Path           string        `yaml:"path"`
	ReloadInterval time.Duration `yaml:"reload_interval"`
}

type ServerConfig struct {
	Port     string        `yaml:"port"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
	// RateLimit is the number of fetches a client may start per minute.
	RateLimit int `yaml:"rate_limit"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	// Format is "json" or "console".
	Format string `yaml:"format"`
}

// ScheduleConfig drives `twitfetch schedule`.
type ScheduleConfig struct {
	Spec     string        `yaml:"spec"`
	Timezone string        `yaml:"timezone"`
	Timeout  time.Duration `yaml:"timeout"`
	Targets  []string      `yaml:"targets"`
	Mode     string        `yaml:"mode"`
	// Days is how far back each scheduled run reaches.
	Days int `yaml:"days"`
}

// Default returns a Config with working defaults for the live site.
func Default() *Config {
	return &Config{
		LoginURL:    scraper.DefaultLoginURL,
		Browser:     browser.DefaultOptions(),
		Collector:   scraper.CollectorConfig{BaseURL: scraper.DefaultBaseURL, ScrollPixels: 1000, MaxScrolls: 200},
		Interceptor: scraper.InterceptorConfig{BaseURL: scraper.DefaultBaseURL, ResponseTimeout: 30 * time.Second},
		Fetch:       usecases.FetchConfig{MaxPages: 5},
		Selectors:   SelectorsConfig{Path: "config/selectors.yaml", ReloadInterval: 5 * time.Second},
		Server:      ServerConfig{Port: "3000", CacheTTL: 5 * time.Minute, RateLimit: 10},
		Log:         LogConfig{Level: "info", Format: "json"},
		Schedule:    ScheduleConfig{Spec: "0 */2 * * *", Timezone: "UTC", Timeout: 30 * time.Minute, Mode: "api", Days: 1},
	}
}

// Load builds the configuration: defaults, then path (skipped when
// empty), then environment overrides. Values from a .env file in the
// working directory are visible to the overrides but never replace
// variables already set in the process environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads the given .env files, ignoring missing ones.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	setString := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	setString(&c.Credentials.Username, "TWITFETCH_USERNAME")
	setString(&c.Credentials.Password, "TWITFETCH_PASSWORD")
	setString(&c.Browser.ChromePath, "CHROME_PATH")
	setString(&c.Browser.RemoteURL, "CHROME_REMOTE_URL")
	setString(&c.Server.Port, "PORT")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.DumpDir, "TWITFETCH_DUMP_DIR")

	if v := getenv("HEADLESS"); v != "" {
		headless, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid HEADLESS value %q: %w", v, err)
		}
		c.Browser.Headless = headless
	}

	if v := getenv("CACHE_TTL_MINUTES"); v != "" {
		minutes, err := strconv.Atoi(v)
		if err != nil || minutes < 0 {
			return fmt.Errorf("invalid CACHE_TTL_MINUTES value %q", v)
		}
		c.Server.CacheTTL = time.Duration(minutes) * time.Minute
	}
	return nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level %q: %w", c.Log.Level, err)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	if _, err := usecases.ParseMode(c.Schedule.Mode); err != nil {
		return fmt.Errorf("schedule.mode: %w", err)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must not be negative")
	}
	return nil
}

// HasCredentials reports whether both username and password are set.
func (c *Config) HasCredentials() bool {
	return c.Credentials.Username != "" && c.Credentials.Password != ""
}
