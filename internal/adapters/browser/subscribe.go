package browser

import (
	"context"
	"sync"

	"twitfetch/pkg/log"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// subscriptionBuffer bounds how many bodies wait for a slow reader.
const subscriptionBuffer = 16

// Subscribe delivers every response accepted by filter until ctx is done.
// Bodies are fetched off the event goroutine, so delivery order follows
// load completion. The channel is never closed; readers select on ctx.
func (s *Session) Subscribe(ctx context.Context, filter ResponseFilter) (<-chan Response, error) {
	s.mu.Lock()
	tab := s.tab
	s.mu.Unlock()
	if tab == nil {
		return nil, ErrClosed
	}

	listenCtx, cancel := context.WithCancel(tab)
	context.AfterFunc(ctx, cancel)

	out := make(chan Response, subscriptionBuffer)

	var (
		mu      sync.Mutex
		pending = make(map[network.RequestID]Response)
	)

	chromedp.ListenTarget(listenCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *network.EventResponseReceived:
			if e.Response == nil || !filter(e.Response.URL, e.Response.Status) {
				return
			}
			mu.Lock()
			pending[e.RequestID] = Response{URL: e.Response.URL, Status: e.Response.Status}
			mu.Unlock()

		case *network.EventLoadingFinished:
			mu.Lock()
			resp, ok := pending[e.RequestID]
			delete(pending, e.RequestID)
			mu.Unlock()
			if !ok {
				return
			}
			// Listeners must not block on CDP calls.
			go s.deliver(listenCtx, e.RequestID, resp, out)
		}
	})

	return out, nil
}

func (s *Session) deliver(ctx context.Context, id network.RequestID, resp Response, out chan<- Response) {
	err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		body, err := network.GetResponseBody(id).Do(ctx)
		resp.Body = body
		return err
	}))
	if err != nil {
		if ctx.Err() == nil {
			log.GlobalWarn("response body unavailable", "url", resp.URL, "error", err)
		}
		return
	}

	select {
	case out <- resp:
	case <-ctx.Done():
	}
}
