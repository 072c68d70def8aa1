package scraper

import (
	"context"
	"errors"
	"sync"

	"twitfetch/internal/adapters/browser"
)

type typedInput struct {
	text     string
	selector string
}

// fakeSession is a scripted Session. render decides what Document returns
// from the recorded state; pages opened by Click are served until GoBack.
type fakeSession struct {
	mu sync.Mutex

	render     func(f *fakeSession) string
	clickPages map[string]string
	clickErr   error
	goBackErr  error
	overlay    string

	navigations     []string
	typed           []typedInput
	clicks          []string
	scrolls         int
	scrollsToBottom int
	goBacks         int
	documentCalls   int

	responses        chan browser.Response
	filter           browser.ResponseFilter
	onNavigate       func(f *fakeSession)
	onScrollToBottom func(f *fakeSession)
}

func newFakeSession(render func(f *fakeSession) string) *fakeSession {
	return &fakeSession{
		render:     render,
		clickPages: make(map[string]string),
		responses:  make(chan browser.Response, 16),
	}
}

// pages serves docs[i] after i scrolls, repeating the last one.
func pages(docs ...string) func(f *fakeSession) string {
	return func(f *fakeSession) string {
		i := f.scrolls
		if i >= len(docs) {
			i = len(docs) - 1
		}
		return docs[i]
	}
}

func (f *fakeSession) Navigate(ctx context.Context, url string, mode browser.WaitMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	f.navigations = append(f.navigations, url)
	hook := f.onNavigate
	f.mu.Unlock()
	if hook != nil {
		hook(f)
	}
	return nil
}

func (f *fakeSession) Reload(ctx context.Context) error {
	return ctx.Err()
}

func (f *fakeSession) Document(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.overlay != "" {
		return f.overlay, nil
	}
	f.documentCalls++
	return f.render(f), nil
}

func (f *fakeSession) Click(ctx context.Context, selector string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clicks = append(f.clicks, selector)
	if f.clickErr != nil {
		return f.clickErr
	}
	page, ok := f.clickPages[selector]
	if !ok {
		return errors.New("no node matches " + selector)
	}
	f.overlay = page
	return nil
}

func (f *fakeSession) TypeAndSubmit(ctx context.Context, text, selector string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typed = append(f.typed, typedInput{text: text, selector: selector})
	return nil
}

func (f *fakeSession) ScrollBy(ctx context.Context, px int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scrolls++
	return nil
}

func (f *fakeSession) ScrollToBottom(ctx context.Context) error {
	f.mu.Lock()
	f.scrollsToBottom++
	hook := f.onScrollToBottom
	f.mu.Unlock()
	if hook != nil {
		hook(f)
	}
	return nil
}

func (f *fakeSession) GoBack(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.goBacks++
	if f.goBackErr != nil {
		return f.goBackErr
	}
	f.overlay = ""
	return nil
}

func (f *fakeSession) Subscribe(ctx context.Context, filter browser.ResponseFilter) (<-chan browser.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter = filter
	return f.responses, nil
}

func (f *fakeSession) Close() error {
	return nil
}

// push queues a captured response as the browser would deliver it.
func (f *fakeSession) push(url, body string) {
	f.responses <- browser.Response{URL: url, Status: 200, Body: []byte(body)}
}
