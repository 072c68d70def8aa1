// Package scraper implements login and tweet collection on top of a
// browser session.
package scraper

import (
	"context"
	"fmt"
	"time"

	"twitfetch/internal/adapters/browser"
	"twitfetch/internal/adapters/document"
)

// Session is the browser capability the engine drives.
type Session interface {
	Navigate(ctx context.Context, url string, mode browser.WaitMode) error
	Reload(ctx context.Context) error
	Document(ctx context.Context) (string, error)
	Click(ctx context.Context, selector string) error
	TypeAndSubmit(ctx context.Context, text, selector string) error
	ScrollBy(ctx context.Context, px int) error
	ScrollToBottom(ctx context.Context) error
	GoBack(ctx context.Context) error
	Subscribe(ctx context.Context, filter browser.ResponseFilter) (<-chan browser.Response, error)
	Close() error
}

// snapshot dumps and parses the current page.
func snapshot(ctx context.Context, s Session) (document.Node, error) {
	html, err := s.Document(ctx)
	if err != nil {
		return document.Node{}, err
	}
	root, err := document.Parse(html)
	if err != nil {
		return document.Node{}, fmt.Errorf("parse snapshot: %w", err)
	}
	return root, nil
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
