package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"twitfetch/pkg/log"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
)

// ErrClosed is returned by actions on a closed session.
var ErrClosed = errors.New("browser session closed")

// Session owns one Chrome process (or remote connection) and exactly one
// tab. Actions run sequentially against that tab.
type Session struct {
	opts Options

	mu          sync.Mutex
	tab         context.Context
	tabCancel   context.CancelFunc
	allocCancel context.CancelFunc
}

// NewSession starts the browser and opens its tab.
func NewSession(opts Options) (*Session, error) {
	s := &Session{opts: opts.withDefaults()}
	if err := s.start(); err != nil {
		return nil, err
	}
	return s, nil
}

// start initializes the allocator and the tab.
func (s *Session) start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		allocCtx    context.Context
		allocCancel context.CancelFunc
	)
	if s.opts.RemoteURL != "" {
		log.GlobalInfo("browser connecting to remote chrome", "url", s.opts.RemoteURL)
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(context.Background(), s.opts.RemoteURL)
	} else {
		if s.opts.ChromePath != "" {
			log.GlobalInfo("browser using custom chrome path", "path", s.opts.ChromePath)
		}
		allocCtx, allocCancel = chromedp.NewExecAllocator(context.Background(), s.opts.allocatorOptions()...)
	}

	tab, tabCancel := chromedp.NewContext(allocCtx)

	// First Run on the tab context starts the browser; it must not be a
	// derived context or the tab would close with it.
	if err := chromedp.Run(tab, network.Enable()); err != nil {
		tabCancel()
		allocCancel()
		return fmt.Errorf("start browser: %w", err)
	}

	s.tab = tab
	s.tabCancel = tabCancel
	s.allocCancel = allocCancel

	log.GlobalInfo("browser chrome started", "headless", s.opts.Headless)
	return nil
}

// run executes actions on the tab, aborting when ctx is done.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	s.mu.Lock()
	tab := s.tab
	s.mu.Unlock()
	if tab == nil {
		return ErrClosed
	}

	runCtx, cancel := context.WithCancel(tab)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// waitLoaded blocks until the page is usable, then lets it settle. A slow
// page is logged and tolerated.
func (s *Session) waitLoaded(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, s.opts.WaitTimeout)
	err := s.run(waitCtx, chromedp.WaitReady("body", chromedp.ByQuery))
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.GlobalDebugCtx(ctx, "page not ready before timeout", "error", err)
	}
	return sleep(ctx, s.opts.SettleDelay)
}

// Navigate loads url and waits according to mode.
func (s *Session) Navigate(ctx context.Context, url string, mode WaitMode) error {
	navCtx, cancel := context.WithTimeout(ctx, s.opts.NavigateTimeout)
	defer cancel()

	if err := s.run(navCtx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	log.GlobalDebugCtx(ctx, "navigated", "url", url, "wait", mode.String())

	if mode == WaitPostVisible {
		waitCtx, cancel := context.WithTimeout(ctx, s.opts.WaitTimeout)
		defer cancel()
		if err := s.run(waitCtx, chromedp.WaitVisible(s.opts.PostSelector, chromedp.ByQuery)); err != nil {
			return fmt.Errorf("wait for posts on %s: %w", url, err)
		}
		return sleep(ctx, s.opts.SettleDelay)
	}
	return s.waitLoaded(ctx)
}

// Reload refreshes the current page.
func (s *Session) Reload(ctx context.Context) error {
	if err := s.run(ctx, chromedp.Reload()); err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	return s.waitLoaded(ctx)
}

// Document returns the serialized HTML of the current page.
func (s *Session) Document(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("snapshot document: %w", err)
	}
	return html, nil
}

// Click clicks the first node matching selector and waits for the result
// to load.
func (s *Session) Click(ctx context.Context, selector string) error {
	clickCtx, cancel := context.WithTimeout(ctx, s.opts.WaitTimeout)
	defer cancel()
	if err := s.run(clickCtx, chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	return s.waitLoaded(ctx)
}

// TypeAndSubmit types text into selector and presses Enter.
func (s *Session) TypeAndSubmit(ctx context.Context, text, selector string) error {
	typeCtx, cancel := context.WithTimeout(ctx, s.opts.WaitTimeout)
	defer cancel()
	err := s.run(typeCtx,
		chromedp.SendKeys(selector, text, chromedp.ByQuery),
		chromedp.SendKeys(selector, kb.Enter, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("type into %s: %w", selector, err)
	}
	return s.waitLoaded(ctx)
}

// ScrollBy scrolls the viewport down by px pixels and waits for new content.
func (s *Session) ScrollBy(ctx context.Context, px int) error {
	if err := s.run(ctx, chromedp.Evaluate(fmt.Sprintf("window.scrollBy(0, %d)", px), nil)); err != nil {
		return fmt.Errorf("scroll: %w", err)
	}
	return sleep(ctx, s.opts.ScrollDelay)
}

// ScrollToBottom scrolls to the end of the document.
func (s *Session) ScrollToBottom(ctx context.Context) error {
	if err := s.run(ctx, chromedp.Evaluate("window.scrollTo(0, document.body.scrollHeight)", nil)); err != nil {
		return fmt.Errorf("scroll to bottom: %w", err)
	}
	return sleep(ctx, s.opts.ScrollDelay)
}

// GoBack returns to the previous history entry.
func (s *Session) GoBack(ctx context.Context) error {
	if err := s.run(ctx, chromedp.NavigateBack()); err != nil {
		return fmt.Errorf("go back: %w", err)
	}
	return sleep(ctx, s.opts.ScrollDelay)
}

// Ping checks that the tab still answers.
func (s *Session) Ping(ctx context.Context) error {
	var state string
	return s.run(ctx, chromedp.Evaluate("document.readyState", &state))
}

// Close shuts down the tab and the browser.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tab == nil {
		return nil
	}
	s.tabCancel()
	s.allocCancel()
	s.tab = nil
	log.GlobalInfo("browser chrome stopped")
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
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
