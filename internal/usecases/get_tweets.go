package usecases

import (
	"context"
	"fmt"

	"twitfetch/internal/domain"
	"twitfetch/pkg/log"
)

// Mode selects how posts are collected.
type Mode string

const (
	ModeDOM Mode = "dom"
	ModeAPI Mode = "api"
)

// ParseMode maps a user-supplied mode name, defaulting to ModeAPI.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "":
		return ModeAPI, nil
	case ModeDOM, ModeAPI:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidTarget, s)
	}
}

// PostCache stores fetch results keyed by mode, target and window.
type PostCache interface {
	Get(mode string, target domain.Target, window domain.TimeWindow) ([]domain.Post, bool)
	Set(mode string, target domain.Target, window domain.TimeWindow, posts []domain.Post)
}

// PostFetcher is the subset of TwitFetch the use case drives.
type PostFetcher interface {
	FetchByDOMScrolling(ctx context.Context, account string, window domain.TimeWindow) ([]domain.Post, error)
	FetchByAPIInterception(ctx context.Context, target domain.Target, window domain.TimeWindow) ([]domain.Post, error)
}

// Query describes one fetch request.
type Query struct {
	Target domain.Target
	Window domain.TimeWindow
	Mode   Mode
}

// GetTweetsUseCase handles retrieving posts with a cache-first strategy.
type GetTweetsUseCase struct {
	cache   PostCache
	fetcher PostFetcher
}

// NewGetTweetsUseCase creates a new GetTweetsUseCase.
func NewGetTweetsUseCase(cache PostCache, fetcher PostFetcher) *GetTweetsUseCase {
	return &GetTweetsUseCase{cache: cache, fetcher: fetcher}
}

// Execute returns cached posts for q or fetches and caches them.
// DOM mode reads profile pages only, so list targets require ModeAPI.
func (uc *GetTweetsUseCase) Execute(ctx context.Context, q Query) ([]domain.Post, error) {
	if err := q.Target.Validate(); err != nil {
		return nil, err
	}
	if q.Mode == "" {
		q.Mode = ModeAPI
	}
	if q.Mode == ModeDOM && q.Target.Kind != domain.TargetAccount {
		return nil, fmt.Errorf("%w: dom mode needs an account", domain.ErrInvalidTarget)
	}

	if posts, found := uc.cache.Get(string(q.Mode), q.Target, q.Window); found {
		log.GlobalDebugCtx(ctx, "cache hit", "target", q.Target.String(), "mode", string(q.Mode))
		return posts, nil
	}

	log.GlobalDebugCtx(ctx, "cache miss, fetching", "target", q.Target.String(), "mode", string(q.Mode))

	var (
		posts []domain.Post
		err   error
	)
	switch q.Mode {
	case ModeDOM:
		posts, err = uc.fetcher.FetchByDOMScrolling(ctx, q.Target.ID, q.Window)
	case ModeAPI:
		posts, err = uc.fetcher.FetchByAPIInterception(ctx, q.Target, q.Window)
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidTarget, q.Mode)
	}
	if err != nil {
		return nil, err
	}

	uc.cache.Set(string(q.Mode), q.Target, q.Window, posts)
	return posts, nil
}
