package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"twitfetch/internal/adapters/browser"
	"twitfetch/internal/adapters/document"
	"twitfetch/internal/domain"
	"twitfetch/pkg/log"
)

// DefaultBaseURL is the site root profiles and lists hang off.
const DefaultBaseURL = "https://x.com"

// CollectorConfig bounds and paces a scroll run.
type CollectorConfig struct {
	BaseURL      string `yaml:"base_url"`
	ScrollPixels int    `yaml:"scroll_pixels"`
	// PostLimit stops the run once this many posts were collected.
	PostLimit int `yaml:"post_limit"`
	// MaxScrolls stops the run after this many scrolls.
	MaxScrolls int `yaml:"max_scrolls"`
	// LegacyMarkers rejects any post carrying a socialContext node instead
	// of reading its label.
	LegacyMarkers bool `yaml:"legacy_markers"`
}

// Collector scrolls a profile and extracts posts from DOM snapshots.
type Collector struct {
	session   Session
	selectors SelectorSource
	cfg       CollectorConfig
}

// NewCollector creates a collector.
func NewCollector(session Session, selectors SelectorSource, cfg CollectorConfig) *Collector {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ScrollPixels <= 0 {
		cfg.ScrollPixels = 1000
	}
	return &Collector{session: session, selectors: selectors, cfg: cfg}
}

// errLostTimeline means the session could not return from an expanded post,
// so the page no longer shows the timeline being collected.
var errLostTimeline = errors.New("cannot return to timeline")

// postKind classifies a candidate node.
type postKind int

const (
	kindOriginal postKind = iota
	kindRepost
	kindPinned
)

// collectRun is the state of one Collect call.
type collectRun struct {
	account string
	handle  string
	window  domain.TimeWindow
	sel     Selectors

	seen   map[int64]struct{}
	oldest time.Time
	posts  []domain.Post
}

// newRun validates that the run can terminate.
func (c *Collector) newRun(account string, window domain.TimeWindow) (*collectRun, error) {
	if account == "" {
		return nil, fmt.Errorf("%w: empty account", domain.ErrInvalidTarget)
	}
	if window.Start == nil && c.cfg.PostLimit <= 0 && c.cfg.MaxScrolls <= 0 {
		return nil, domain.ErrNoBoundary
	}
	return &collectRun{
		account: account,
		handle:  "@" + strings.ToLower(account),
		window:  window,
		sel:     c.selectors.Snapshot(),
		seen:    make(map[int64]struct{}),
	}, nil
}

// Collect opens the account's profile and scrolls until the oldest seen
// post predates window.Start, the post limit is hit or the scroll cap is
// reached.
func (c *Collector) Collect(ctx context.Context, account string, window domain.TimeWindow) ([]domain.Post, error) {
	run, err := c.newRun(account, window)
	if err != nil {
		return nil, err
	}

	profile := strings.TrimRight(c.cfg.BaseURL, "/") + "/" + account
	if err := c.session.Navigate(ctx, profile, browser.WaitLoad); err != nil {
		return nil, fmt.Errorf("open profile: %w", err)
	}

	scrolls := 0
	for pass := 1; ; pass++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		root, err := snapshot(ctx, c.session)
		if err != nil {
			return nil, fmt.Errorf("pass %d: %w", pass, err)
		}

		before := len(run.posts)
		for _, node := range root.FindAll(run.sel.Post) {
			if err := c.visit(ctx, run, node); err != nil {
				if errors.Is(err, domain.ErrMalformedPost) {
					log.GlobalDebugCtx(ctx, "skipping post", "error", err)
					continue
				}
				return nil, err
			}
		}

		log.GlobalDebugCtx(ctx, "collection pass done",
			"pass", pass,
			"new_posts", len(run.posts)-before,
			"total_posts", len(run.posts),
		)

		if len(run.seen) > 0 && window.Before(run.oldest) {
			log.GlobalInfoCtx(ctx, "reached window start", "account", account, "posts", len(run.posts), "passes", pass)
			return run.posts, nil
		}
		if c.cfg.PostLimit > 0 && len(run.posts) >= c.cfg.PostLimit {
			log.GlobalInfoCtx(ctx, "reached post limit", "account", account, "limit", c.cfg.PostLimit, "passes", pass)
			return run.posts[:c.cfg.PostLimit], nil
		}
		if c.cfg.MaxScrolls > 0 && scrolls >= c.cfg.MaxScrolls {
			log.GlobalWarnCtx(ctx, "reached scroll cap", "account", account, "scrolls", scrolls, "posts", len(run.posts))
			return run.posts, nil
		}

		if err := c.session.ScrollBy(ctx, c.cfg.ScrollPixels); err != nil {
			return nil, fmt.Errorf("pass %d: %w", pass, err)
		}
		scrolls++
	}
}

// visit handles one candidate node. Irrelevant nodes return nil;
// domain.ErrMalformedPost marks nodes to skip.
func (c *Collector) visit(ctx context.Context, run *collectRun, node document.Node) error {
	if !strings.Contains(strings.ToLower(node.Text()), run.handle) {
		return nil
	}
	if kind := classify(node, run.sel, c.cfg.LegacyMarkers); kind != kindOriginal {
		return nil
	}

	timeNode, postedAt, ok := latestTimestamp(node, run.sel.PostDate)
	if !ok {
		return fmt.Errorf("%w: no timestamp", domain.ErrMalformedPost)
	}
	key := postedAt.UnixNano()
	if _, dup := run.seen[key]; dup {
		return nil
	}

	textNode, ok := node.Find(run.sel.PostText)
	if !ok {
		return fmt.Errorf("%w: no text at %s", domain.ErrMalformedPost, postedAt.Format(time.RFC3339))
	}
	text := textNode.Text()

	if showMore, ok := node.Find(run.sel.ShowMore); ok && shareParent(showMore, textNode) {
		expanded, err := c.expand(ctx, run.sel, node, showMore)
		switch {
		case err == nil:
			text = expanded
		case ctx.Err() != nil:
			return ctx.Err()
		case errors.Is(err, errLostTimeline):
			return err
		default:
			log.GlobalWarnCtx(ctx, "expanding post failed, keeping truncated text", "error", err)
		}
	}

	run.seen[key] = struct{}{}
	if len(run.seen) == 1 || postedAt.Before(run.oldest) {
		run.oldest = postedAt
	}

	if run.window.After(postedAt) {
		return nil
	}

	run.posts = append(run.posts, domain.Post{
		ID:       permalinkID(node, timeNode, run.sel.ShowMoreLink),
		Author:   run.account,
		PostedAt: postedAt,
		Content:  CleanText(text),
		IsQuote:  len(node.FindAll(run.sel.PostText)) > 1,
	})
	return nil
}

// expand opens the full post behind a show-more marker, reads its text and
// returns to the timeline.
func (c *Collector) expand(ctx context.Context, sel Selectors, node, showMore document.Node) (string, error) {
	href, ok := expansionLink(node, showMore, sel.ShowMoreLink)
	if !ok {
		return "", errors.New("no expansion link")
	}

	link := sel.ShowMoreLink.WithValue(href)
	if err := c.session.Click(ctx, link.Selector()); err != nil {
		return "", err
	}

	text, readErr := c.readExpanded(ctx, sel)
	if err := c.session.GoBack(ctx); err != nil {
		return "", fmt.Errorf("%w from %s: %w", errLostTimeline, href, err)
	}
	if readErr != nil {
		return "", fmt.Errorf("read %s: %w", href, readErr)
	}
	return text, nil
}

func (c *Collector) readExpanded(ctx context.Context, sel Selectors) (string, error) {
	root, err := snapshot(ctx, c.session)
	if err != nil {
		return "", err
	}
	post, ok := root.Find(sel.Post)
	if !ok {
		return "", errors.New("no post on expanded page")
	}
	text, ok := post.Find(sel.PostText)
	if !ok {
		return "", errors.New("no text on expanded page")
	}
	return text.Text(), nil
}

// classify reads the social-context label. The live UI prefixes it with
// the reposter's display name, so suffixes count too.
func classify(node document.Node, sel Selectors, legacy bool) postKind {
	if legacy {
		if _, ok := node.Find(sel.Pinned); ok {
			return kindPinned
		}
		if _, ok := node.Find(sel.Repost); ok {
			return kindRepost
		}
		return kindOriginal
	}

	for _, label := range node.FindAll(sel.SocialContext) {
		text := strings.ToLower(CleanText(label.Text()))
		switch {
		case text == "reposted" || strings.HasSuffix(text, " reposted"):
			return kindRepost
		case text == "pinned" || strings.HasSuffix(text, " pinned"):
			return kindPinned
		}
	}
	return kindOriginal
}

// latestTimestamp returns the newest parseable time node. A quoted post
// carries its own, older timestamp.
func latestTimestamp(node document.Node, date domain.Element) (document.Node, time.Time, bool) {
	var (
		best     time.Time
		bestNode document.Node
		found    bool
	)
	for _, n := range node.FindAll(date) {
		raw, ok := n.Attr(date.Attribute)
		if !ok {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			continue
		}
		if !found || t.After(best) {
			best, bestNode, found = t, n, true
		}
	}
	return bestNode, best.UTC(), found
}

// shareParent guards against a nested quoted post's own show-more marker.
func shareParent(a, b document.Node) bool {
	pa, ok := a.Parent()
	if !ok {
		return false
	}
	pb, ok := b.Parent()
	if !ok {
		return false
	}
	return pa.Same(pb)
}

// expansionLink prefers the marker's own status href, then the post's
// first status link.
func expansionLink(node, showMore document.Node, anchor domain.Element) (string, bool) {
	if href, ok := showMore.Attr("href"); ok && strings.Contains(href, "/status/") {
		return href, true
	}
	return firstStatusLink(node, anchor)
}

func firstStatusLink(node document.Node, anchor domain.Element) (string, bool) {
	for _, a := range node.FindAll(anchor) {
		if href, ok := a.Attr("href"); ok && strings.Contains(href, "/status/") {
			return href, true
		}
	}
	return "", false
}

// permalinkID takes the status id from the anchor around the post's time
// node, falling back to the first status link.
func permalinkID(node, timeNode document.Node, anchor domain.Element) string {
	if a, ok := timeNode.Closest(domain.Element{Tag: "a"}); ok {
		if href, ok := a.Attr("href"); ok {
			if id := statusID(href); id != "" {
				return id
			}
		}
	}
	if href, ok := firstStatusLink(node, anchor); ok {
		return statusID(href)
	}
	return ""
}

// statusID extracts the path segment following /status/.
func statusID(href string) string {
	_, rest, ok := strings.Cut(href, "/status/")
	if !ok {
		return ""
	}
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		rest = rest[:i]
	}
	return rest
}
