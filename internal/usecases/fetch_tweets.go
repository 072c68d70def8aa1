package usecases

import (
	"context"
	"fmt"
	"time"

	"twitfetch/internal/domain"
	"twitfetch/pkg/log"
)

// Authenticator signs the browser session in.
type Authenticator interface {
	Login(ctx context.Context, username, password string) error
}

// DOMCollector scrolls a profile timeline and reads posts from the page.
type DOMCollector interface {
	Collect(ctx context.Context, account string, window domain.TimeWindow) ([]domain.Post, error)
}

// TimelineInterceptor captures raw timeline payloads from the network.
type TimelineInterceptor interface {
	CollectUntil(ctx context.Context, target domain.Target, pages int, done func(payload []byte) bool) ([][]byte, error)
}

// PayloadNormalizer turns raw payloads into posts.
type PayloadNormalizer interface {
	Normalize(payloads [][]byte, authors []string, excludeRetweets bool) []domain.Post
	OldestTimestamp(payload []byte) (time.Time, bool)
}

// Credentials used for the lazy login before the first fetch.
type Credentials struct {
	Username string
	Password string
}

// FetchConfig tunes the API path.
type FetchConfig struct {
	// MaxPages bounds how many timeline pages are captured when the window
	// has a start date. Without one only the first page is read.
	MaxPages int `yaml:"max_pages"`
	// IncludeRetweets keeps retweets in normalized output.
	IncludeRetweets bool `yaml:"include_retweets"`
}

// TwitFetch is the entry point for collecting posts. It owns one browser
// session and runs one fetch at a time against it.
type TwitFetch struct {
	auth        Authenticator
	dom         DOMCollector
	interceptor TimelineInterceptor
	normalizer  PayloadNormalizer
	creds       Credentials
	cfg         FetchConfig

	sem      chan struct{}
	loggedIn bool // guarded by sem
}

// NewTwitFetch wires the facade.
func NewTwitFetch(auth Authenticator, dom DOMCollector, interceptor TimelineInterceptor, normalizer PayloadNormalizer, creds Credentials, cfg FetchConfig) *TwitFetch {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 5
	}
	return &TwitFetch{
		auth:        auth,
		dom:         dom,
		interceptor: interceptor,
		normalizer:  normalizer,
		creds:       creds,
		cfg:         cfg,
		sem:         make(chan struct{}, 1),
	}
}

// withSession runs fn while holding exclusive use of the browser session.
func (t *TwitFetch) withSession(ctx context.Context, fn func(ctx context.Context) error) error {
	select {
	case t.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-t.sem }()

	return fn(ctx)
}

// Login signs in with explicit credentials, replacing the configured ones
// for later fetches on success.
func (t *TwitFetch) Login(ctx context.Context, username, password string) error {
	ctx = log.WithRunID(ctx)
	return t.withSession(ctx, func(ctx context.Context) error {
		if err := t.auth.Login(ctx, username, password); err != nil {
			return err
		}
		t.creds = Credentials{Username: username, Password: password}
		t.loggedIn = true
		log.GlobalInfoCtx(ctx, "logged in", "username", username)
		return nil
	})
}

// ensureLogin must be called with the session held.
func (t *TwitFetch) ensureLogin(ctx context.Context) error {
	if t.loggedIn {
		return nil
	}
	if err := t.auth.Login(ctx, t.creds.Username, t.creds.Password); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	t.loggedIn = true
	log.GlobalInfoCtx(ctx, "logged in", "username", t.creds.Username)
	return nil
}

// FetchByDOMScrolling collects account's original posts by reading the
// rendered profile timeline.
func (t *TwitFetch) FetchByDOMScrolling(ctx context.Context, account string, window domain.TimeWindow) ([]domain.Post, error) {
	if err := domain.AccountTarget(account).Validate(); err != nil {
		return nil, err
	}
	ctx = log.WithFields(log.WithRunID(ctx), "mode", "dom", "target", domain.AccountTarget(account).String())

	var posts []domain.Post
	err := t.withSession(ctx, func(ctx context.Context) error {
		if err := t.ensureLogin(ctx); err != nil {
			return err
		}
		start := time.Now()
		collected, err := t.dom.Collect(ctx, account, window)
		if err != nil {
			return err
		}
		posts = collected
		log.GlobalInfoCtx(ctx, "fetch completed", "posts", len(posts), "duration", time.Since(start).String())
		return nil
	})
	return posts, err
}

// FetchRawTimeline returns the timeline payloads the page itself loaded.
// With a window start, pages are read until one reaches back past it.
func (t *TwitFetch) FetchRawTimeline(ctx context.Context, target domain.Target, window domain.TimeWindow) ([][]byte, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	ctx = log.WithFields(log.WithRunID(ctx), "target", target.String())

	var payloads [][]byte
	err := t.withSession(ctx, func(ctx context.Context) error {
		if err := t.ensureLogin(ctx); err != nil {
			return err
		}
		collected, err := t.rawTimeline(ctx, target, window)
		if err != nil {
			return err
		}
		payloads = collected
		return nil
	})
	return payloads, err
}

func (t *TwitFetch) rawTimeline(ctx context.Context, target domain.Target, window domain.TimeWindow) ([][]byte, error) {
	if window.Start == nil {
		return t.interceptor.CollectUntil(ctx, target, 1, nil)
	}
	done := func(payload []byte) bool {
		oldest, ok := t.normalizer.OldestTimestamp(payload)
		return ok && window.Before(oldest)
	}
	return t.interceptor.CollectUntil(ctx, target, t.cfg.MaxPages, done)
}

// FetchByAPIInterception collects posts from intercepted timeline payloads.
// Account targets keep only the account's own posts; lists keep every
// member. Posts outside window are dropped.
func (t *TwitFetch) FetchByAPIInterception(ctx context.Context, target domain.Target, window domain.TimeWindow) ([]domain.Post, error) {
	ctx = log.WithFields(log.WithRunID(ctx), "mode", "api")

	payloads, err := t.FetchRawTimeline(ctx, target, window)
	if err != nil {
		return nil, err
	}

	var authors []string
	if target.Kind == domain.TargetAccount {
		authors = []string{target.ID}
	}

	normalized := t.normalizer.Normalize(payloads, authors, !t.cfg.IncludeRetweets)
	posts := make([]domain.Post, 0, len(normalized))
	for _, p := range normalized {
		if window.Contains(p.PostedAt) {
			posts = append(posts, p)
		}
	}

	log.GlobalInfoCtx(ctx, "fetch completed", "pages", len(payloads), "posts", len(posts), "dropped", len(normalized)-len(posts))
	return posts, nil
}
