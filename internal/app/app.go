// Package app assembles the fetch engine from configuration.
package app

import (
	"fmt"

	"twitfetch/internal/adapters/browser"
	"twitfetch/internal/adapters/scraper"
	"twitfetch/internal/adapters/storage"
	"twitfetch/internal/config"
	"twitfetch/internal/usecases"
	"twitfetch/pkg/log"
	"twitfetch/pkg/log/transporters"
)

// Engine owns the browser session and everything driving it.
type Engine struct {
	Session   *browser.Session
	Selectors *scraper.SelectorConfig
	Fetch     *usecases.TwitFetch
	// Store is nil when no dump directory is configured.
	Store *storage.JSONStore
}

// NewEngine starts the browser and wires the collectors to it.
func NewEngine(cfg *config.Config) (*Engine, error) {
	selectors, err := scraper.LoadSelectors(cfg.Selectors.Path, cfg.Selectors.ReloadInterval)
	if err != nil {
		return nil, fmt.Errorf("failed to load selectors: %w", err)
	}

	var (
		store *storage.JSONStore
		sink  scraper.PayloadSink
	)
	if cfg.DumpDir != "" {
		store, err = storage.NewJSONStore(cfg.DumpDir)
		if err != nil {
			selectors.Close()
			return nil, err
		}
		sink = store
	}

	session, err := browser.NewSession(cfg.Browser)
	if err != nil {
		selectors.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	fetch := usecases.NewTwitFetch(
		scraper.NewLoginController(session, selectors, cfg.LoginURL, cfg.Browser.SettleDelay),
		scraper.NewCollector(session, selectors, cfg.Collector),
		scraper.NewInterceptor(session, cfg.Interceptor, sink),
		scraper.NewNormalizer(),
		usecases.Credentials{Username: cfg.Credentials.Username, Password: cfg.Credentials.Password},
		cfg.Fetch,
	)

	return &Engine{
		Session:   session,
		Selectors: selectors,
		Fetch:     fetch,
		Store:     store,
	}, nil
}

// Close stops the browser and the selector watcher.
func (e *Engine) Close() error {
	e.Selectors.Close()
	return e.Session.Close()
}

// SetupLogger installs the global logger described by cfg and returns it
// so the caller can flush it on exit.
func SetupLogger(cfg config.LogConfig) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
	}

	var t log.Transporter
	switch cfg.Format {
	case "console":
		t = transporters.NewConsole()
	case "", "json":
		t = transporters.NewStdout()
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	logger := log.New(level, t)
	log.SetDefault(logger)
	return logger, nil
}
