// Package browser drives a single Chrome tab through chromedp.
package browser

import (
	"time"

	"github.com/chromedp/chromedp"
)

// DefaultUserAgent is a realistic desktop Chrome user agent.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Options configures the browser process and the pacing of tab actions.
type Options struct {
	Headless   bool   `yaml:"headless"`
	ChromePath string `yaml:"chrome_path"`
	// RemoteURL connects to an already running browser's DevTools
	// websocket instead of launching one.
	RemoteURL string `yaml:"remote_url"`
	UserAgent string `yaml:"user_agent"`

	// PostSelector is what WaitPostVisible waits for after navigation.
	PostSelector string `yaml:"post_selector"`

	SettleDelay     time.Duration `yaml:"settle_delay"`
	ScrollDelay     time.Duration `yaml:"scroll_delay"`
	NavigateTimeout time.Duration `yaml:"navigate_timeout"`
	WaitTimeout     time.Duration `yaml:"wait_timeout"`
}

// DefaultOptions returns the pacing used against the live site.
func DefaultOptions() Options {
	return Options{
		Headless:        true,
		UserAgent:       DefaultUserAgent,
		PostSelector:    `article[data-testid="tweet"]`,
		SettleDelay:     500 * time.Millisecond,
		ScrollDelay:     2 * time.Second,
		NavigateTimeout: 20 * time.Second,
		WaitTimeout:     10 * time.Second,
	}
}

// allocatorOptions returns the exec allocator flags: low-memory flags for
// small hosts plus the anti-automation measures the site checks for.
func (o Options) allocatorOptions() []chromedp.ExecAllocatorOption {
	ua := o.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", o.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),

		// navigator.webdriver must stay false
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(ua),
		chromedp.WindowSize(1920, 1080),

		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("disable-component-update", true),
		chromedp.Flag("disable-features", "Translate"),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
	)

	if o.Headless {
		opts = append(opts, chromedp.Flag("disable-gpu", true))
	}

	if o.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(o.ChromePath))
	}

	return opts
}

// withDefaults fills zero durations from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.PostSelector == "" {
		o.PostSelector = d.PostSelector
	}
	if o.SettleDelay <= 0 {
		o.SettleDelay = d.SettleDelay
	}
	if o.ScrollDelay <= 0 {
		o.ScrollDelay = d.ScrollDelay
	}
	if o.NavigateTimeout <= 0 {
		o.NavigateTimeout = d.NavigateTimeout
	}
	if o.WaitTimeout <= 0 {
		o.WaitTimeout = d.WaitTimeout
	}
	return o
}
