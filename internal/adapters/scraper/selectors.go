package scraper

import (
	"fmt"
	"os"
	"sync"
	"time"

	"twitfetch/internal/domain"
	"twitfetch/pkg/log"

	"gopkg.in/yaml.v3"
)

// Selectors is an immutable snapshot of the element templates.
type Selectors struct {
	LoginInput    domain.Element `yaml:"login_input"`
	LoginAlert    domain.Element `yaml:"login_alert"`
	Post          domain.Element `yaml:"post"`
	PostDate      domain.Element `yaml:"post_date"`
	PostText      domain.Element `yaml:"post_text"`
	ShowMore      domain.Element `yaml:"show_more"`
	ShowMoreLink  domain.Element `yaml:"show_more_link"`
	SocialContext domain.Element `yaml:"social_context"`
	Pinned        domain.Element `yaml:"pinned"`
	Repost        domain.Element `yaml:"repost"`
}

// SelectorSource hands out the current selector snapshot.
type SelectorSource interface {
	Snapshot() Selectors
}

// DefaultSelectors returns the templates matching the live site.
func DefaultSelectors() Selectors {
	return Selectors{
		LoginInput:    domain.Element{Tag: "input", Attribute: "class"},
		LoginAlert:    domain.Element{Tag: "div", Attribute: "role", Value: "alert"},
		Post:          domain.Element{Tag: "article"},
		PostDate:      domain.Element{Tag: "time", Attribute: "datetime"},
		PostText:      domain.Element{Tag: "div", Attribute: "data-testid", Value: "tweetText"},
		ShowMore:      domain.Element{Attribute: "data-testid", Value: "tweet-text-show-more-link"},
		ShowMoreLink:  domain.Element{Tag: "a", Attribute: "href"},
		SocialContext: domain.Element{Attribute: "data-testid", Value: "socialContext"},
		Pinned:        domain.Element{Tag: "div", Attribute: "data-testid", Value: "socialContext"},
		Repost:        domain.Element{Tag: "span", Attribute: "data-testid", Value: "socialContext"},
	}
}

// Snapshot lets a fixed Selectors value act as a source.
func (s Selectors) Snapshot() Selectors {
	return s
}

// Validate reports the first template naming neither tag nor attribute.
func (s Selectors) Validate() error {
	fields := []struct {
		name string
		e    domain.Element
	}{
		{"login_input", s.LoginInput},
		{"login_alert", s.LoginAlert},
		{"post", s.Post},
		{"post_date", s.PostDate},
		{"post_text", s.PostText},
		{"show_more", s.ShowMore},
		{"show_more_link", s.ShowMoreLink},
		{"social_context", s.SocialContext},
		{"pinned", s.Pinned},
		{"repost", s.Repost},
	}
	for _, f := range fields {
		if !f.e.Valid() {
			return fmt.Errorf("selector %s: needs a tag or an attribute", f.name)
		}
	}
	return nil
}

// SelectorConfig holds selectors loaded from YAML and reloads them when
// the file changes. Fields missing from the file keep their defaults.
type SelectorConfig struct {
	mu          sync.RWMutex
	current     Selectors
	lastModTime time.Time
	filePath    string

	stop chan struct{}
	once sync.Once
}

// LoadSelectors loads selector configuration from a YAML file.
// It starts a background goroutine for hot-reloading.
func LoadSelectors(filePath string, interval time.Duration) (*SelectorConfig, error) {
	config := &SelectorConfig{
		filePath: filePath,
		stop:     make(chan struct{}),
	}
	if err := config.reload(); err != nil {
		return nil, err
	}

	if interval > 0 {
		go config.watch(interval)
	}

	return config, nil
}

// reload reads the configuration from the file.
func (c *SelectorConfig) reload() error {
	info, err := os.Stat(c.filePath)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(c.filePath)
	if err != nil {
		return err
	}

	parsed := DefaultSelectors()
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("parse %s: %w", c.filePath, err)
	}
	if err := parsed.Validate(); err != nil {
		return fmt.Errorf("%s: %w", c.filePath, err)
	}

	c.mu.Lock()
	c.current = parsed
	c.lastModTime = info.ModTime()
	c.mu.Unlock()

	return nil
}

// watch polls the file and reloads it when it changes. A broken edit
// keeps the previous snapshot.
func (c *SelectorConfig) watch(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
		}

		info, err := os.Stat(c.filePath)
		if err != nil {
			continue
		}

		c.mu.RLock()
		changed := info.ModTime().After(c.lastModTime)
		c.mu.RUnlock()
		if !changed {
			continue
		}

		if err := c.reload(); err != nil {
			c.mu.Lock()
			c.lastModTime = info.ModTime()
			c.mu.Unlock()
			log.GlobalWarn("selector reload failed, keeping previous", "path", c.filePath, "error", err)
			continue
		}
		log.GlobalInfo("selectors reloaded", "path", c.filePath)
	}
}

// Snapshot returns the current selectors (thread-safe).
func (c *SelectorConfig) Snapshot() Selectors {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Close stops the watcher.
func (c *SelectorConfig) Close() {
	c.once.Do(func() { close(c.stop) })
}
