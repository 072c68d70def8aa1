package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"twitfetch/internal/adapters/browser"
	"twitfetch/internal/domain"
	"twitfetch/pkg/log"

	"github.com/tidwall/gjson"
)

// GraphQL endpoint names the timelines load through.
const (
	EndpointUserTweets = "UserTweets"
	EndpointListTweets = "ListLatestTweetsTimeline"

	graphQLPath = "/graphql"
)

// InterceptorConfig configures the API collection path.
type InterceptorConfig struct {
	BaseURL         string        `yaml:"base_url"`
	ResponseTimeout time.Duration `yaml:"response_timeout"`
}

// PayloadSink stores raw payloads for later inspection.
type PayloadSink interface {
	SavePayloads(target domain.Target, payloads [][]byte) (string, error)
}

// Interceptor captures the timeline's own GraphQL responses.
type Interceptor struct {
	session Session
	cfg     InterceptorConfig
	sink    PayloadSink
}

// NewInterceptor creates an interceptor. sink may be nil.
func NewInterceptor(session Session, cfg InterceptorConfig, sink PayloadSink) *Interceptor {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ResponseTimeout <= 0 {
		cfg.ResponseTimeout = 30 * time.Second
	}
	return &Interceptor{session: session, cfg: cfg, sink: sink}
}

// endpointSegment matches the operation name as a whole path segment, so
// UserTweets does not also match UserTweetsAndReplies.
func endpointSegment(endpoint string) string {
	return "/" + endpoint + "?"
}

// Route returns the page URL and endpoint name for a target.
func (i *Interceptor) Route(target domain.Target) (string, string, error) {
	if err := target.Validate(); err != nil {
		return "", "", err
	}
	base := strings.TrimRight(i.cfg.BaseURL, "/")
	if target.Kind == domain.TargetList {
		return base + "/i/lists/" + target.ID, EndpointListTweets, nil
	}
	return base + "/" + target.ID, EndpointUserTweets, nil
}

// Collect returns up to pages raw timeline payloads for target.
func (i *Interceptor) Collect(ctx context.Context, target domain.Target, pages int) ([][]byte, error) {
	return i.CollectUntil(ctx, target, pages, nil)
}

// CollectUntil is Collect with an early stop: once done reports true for a
// page, no further page is requested.
func (i *Interceptor) CollectUntil(ctx context.Context, target domain.Target, pages int, done func(payload []byte) bool) ([][]byte, error) {
	url, endpoint, err := i.Route(target)
	if err != nil {
		return nil, err
	}
	if pages <= 0 {
		pages = 1
	}

	// Subscribe before navigating so the first page is not missed.
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	responses, err := i.session.Subscribe(subCtx, browser.MatchAll(graphQLPath, endpointSegment(endpoint)))
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", endpoint, err)
	}

	if err := i.session.Navigate(ctx, url, browser.WaitLoad); err != nil {
		return nil, fmt.Errorf("open %s: %w", target, err)
	}

	var payloads [][]byte
	for len(payloads) < pages {
		if len(payloads) > 0 {
			if err := i.session.ScrollToBottom(ctx); err != nil {
				return nil, fmt.Errorf("load page %d: %w", len(payloads)+1, err)
			}
		}

		body, err := i.await(ctx, responses)
		if err != nil {
			if errors.Is(err, domain.ErrResponseTimeout) && len(payloads) > 0 {
				log.GlobalWarnCtx(ctx, "timeline ended early", "target", target.String(), "pages", len(payloads), "wanted", pages)
				break
			}
			return nil, err
		}

		payloads = append(payloads, body)
		log.GlobalDebugCtx(ctx, "captured timeline page", "target", target.String(), "endpoint", endpoint, "page", len(payloads), "bytes", len(body))

		if done != nil && done(body) {
			break
		}
	}

	i.dump(ctx, target, payloads)
	return payloads, nil
}

// await returns the next valid JSON body, skipping invalid ones, within
// the response timeout.
func (i *Interceptor) await(ctx context.Context, responses <-chan browser.Response) ([]byte, error) {
	timer := time.NewTimer(i.cfg.ResponseTimeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return nil, domain.ErrResponseTimeout
		case resp := <-responses:
			if !gjson.ValidBytes(resp.Body) {
				log.GlobalWarnCtx(ctx, "cannot parse json response", "url", resp.URL, "bytes", len(resp.Body))
				continue
			}
			return resp.Body, nil
		}
	}
}

func (i *Interceptor) dump(ctx context.Context, target domain.Target, payloads [][]byte) {
	if i.sink == nil || len(payloads) == 0 {
		return
	}
	path, err := i.sink.SavePayloads(target, payloads)
	if err != nil {
		log.GlobalWarnCtx(ctx, "payload dump failed", "target", target.String(), "error", err)
		return
	}
	log.GlobalInfoCtx(ctx, "payloads dumped", "target", target.String(), "path", path)
}
