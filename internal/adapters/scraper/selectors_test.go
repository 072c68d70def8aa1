package scraper

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"twitfetch/internal/domain"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestDefaultSelectors_AreValid(t *testing.T) {
	if err := DefaultSelectors().Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
}

func TestLoadSelectors_OverridesAndKeepsDefaults(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "selectors.yaml")
	writeFile(t, path, `
post:
  tag: article
  attribute: data-testid
  value: tweet
login_alert:
  value: status
`)

	// Act
	cfg, err := LoadSelectors(path, 0)
	if err != nil {
		t.Fatalf("LoadSelectors() error = %v", err)
	}
	defer cfg.Close()
	sel := cfg.Snapshot()

	// Assert
	if sel.Post.Selector() != `article[data-testid="tweet"]` {
		t.Errorf("Post: got %s", sel.Post.Selector())
	}
	if sel.LoginAlert.Selector() != `div[role="status"]` {
		t.Errorf("LoginAlert: got %s", sel.LoginAlert.Selector())
	}
	if sel.PostText != DefaultSelectors().PostText {
		t.Errorf("PostText should keep its default, got %s", sel.PostText.Selector())
	}
}

func TestLoadSelectors_InvalidElement_ReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selectors.yaml")
	writeFile(t, path, `
post_date:
  tag: ""
  attribute: ""
`)

	if _, err := LoadSelectors(path, 0); err == nil {
		t.Error("expected error for an element without tag or attribute")
	}
}

func TestLoadSelectors_MissingFile_ReturnsError(t *testing.T) {
	if _, err := LoadSelectors(filepath.Join(t.TempDir(), "nope.yaml"), 0); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestSelectorConfig_HotReload(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "selectors.yaml")
	writeFile(t, path, "post:\n  tag: article\n")
	cfg, err := LoadSelectors(path, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("LoadSelectors() error = %v", err)
	}
	defer cfg.Close()

	// Act
	writeFile(t, path, "post:\n  tag: section\n")
	later := time.Now().Add(time.Minute)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	// Assert
	want := domain.Element{Tag: "section"}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cfg.Snapshot().Post == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("selectors not reloaded, Post = %s", cfg.Snapshot().Post.Selector())
}

func TestLoadSelectors_ShippedFileMatchesDefaults(t *testing.T) {
	cfg, err := LoadSelectors(filepath.Join("..", "..", "..", "config", "selectors.yaml"), 0)
	if err != nil {
		t.Fatalf("LoadSelectors: %v", err)
	}
	defer cfg.Close()

	if cfg.Snapshot() != DefaultSelectors() {
		t.Errorf("shipped selectors drifted from defaults:\n got %+v\nwant %+v", cfg.Snapshot(), DefaultSelectors())
	}
}
