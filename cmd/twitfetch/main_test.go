package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"twitfetch/internal/adapters/storage"
	"twitfetch/internal/domain"
	"twitfetch/internal/usecases"
)

type stubFetcher struct {
	posts []domain.Post
	err   error
	dom   []string
	api   []domain.Target
}

func (s *stubFetcher) FetchByDOMScrolling(ctx context.Context, account string, window domain.TimeWindow) ([]domain.Post, error) {
	s.dom = append(s.dom, account)
	return s.posts, s.err
}

func (s *stubFetcher) FetchByAPIInterception(ctx context.Context, target domain.Target, window domain.TimeWindow) ([]domain.Post, error) {
	s.api = append(s.api, target)
	return s.posts, s.err
}

func TestFetchPosts_RoutesByMode(t *testing.T) {
	// Arrange
	f := &stubFetcher{}

	// Act
	_, errDOM := fetchPosts(context.Background(), f, domain.AccountTarget("nasa"), domain.TimeWindow{}, usecases.ModeDOM)
	_, errAPI := fetchPosts(context.Background(), f, domain.ListTarget("42"), domain.TimeWindow{}, usecases.ModeAPI)

	// Assert
	if errDOM != nil || errAPI != nil {
		t.Fatalf("unexpected errors: %v, %v", errDOM, errAPI)
	}
	if len(f.dom) != 1 || f.dom[0] != "nasa" {
		t.Errorf("dom calls: got %v", f.dom)
	}
	if len(f.api) != 1 || f.api[0] != domain.ListTarget("42") {
		t.Errorf("api calls: got %v", f.api)
	}
}

func TestFetchPosts_DOMModeRejectsLists(t *testing.T) {
	_, err := fetchPosts(context.Background(), &stubFetcher{}, domain.ListTarget("42"), domain.TimeWindow{}, usecases.ModeDOM)

	if !errors.Is(err, domain.ErrInvalidTarget) {
		t.Errorf("expected ErrInvalidTarget, got %v", err)
	}
}

func TestTrailingWindow(t *testing.T) {
	now := time.Date(2024, 3, 2, 18, 0, 0, 0, time.UTC)

	w := trailingWindow(now, 3)

	if w.Key() != "2024-02-29..2024-03-02" {
		t.Errorf("got %s", w.Key())
	}
	if !w.Contains(now) {
		t.Error("window should contain now")
	}
	if trailingWindow(now, 0).Key() != "2024-03-02..2024-03-02" {
		t.Errorf("zero days should cover today, got %s", trailingWindow(now, 0).Key())
	}
}

func TestFetchJob_SavesPosts(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	store, err := storage.NewJSONStore(dir)
	if err != nil {
		t.Fatalf("NewJSONStore: %v", err)
	}
	f := &stubFetcher{posts: []domain.Post{{ID: "1", Content: "hello"}}}
	job := fetchJob(f, store, domain.AccountTarget("nasa"), usecases.ModeAPI, 1)

	// Act
	err = job(context.Background())

	// Assert
	if err != nil {
		t.Fatalf("job: %v", err)
	}
	path, err := store.Latest(domain.AccountTarget("nasa"))
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	posts, _ := storage.LoadPosts(path)
	if len(posts) != 1 || posts[0].Content != "hello" {
		t.Errorf("saved posts: got %+v", posts)
	}
}

func TestFetchJob_PropagatesFetchError(t *testing.T) {
	store, _ := storage.NewJSONStore(t.TempDir())
	job := fetchJob(&stubFetcher{err: domain.ErrResponseTimeout}, store, domain.ListTarget("42"), usecases.ModeAPI, 1)

	if err := job(context.Background()); !errors.Is(err, domain.ErrResponseTimeout) {
		t.Errorf("expected ErrResponseTimeout, got %v", err)
	}
}

func TestJobName(t *testing.T) {
	if got := jobName(domain.ListTarget("42")); got != "list-42" {
		t.Errorf("got %q", got)
	}
}

func TestWriteJSON(t *testing.T) {
	// stdout
	var buf bytes.Buffer
	if err := writeJSON("", &buf, []int{1, 2}); err != nil {
		t.Fatalf("writeJSON: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "[\n  1,") {
		t.Errorf("stdout output: got %q", buf.String())
	}

	// file
	path := filepath.Join(t.TempDir(), "out.json")
	if err := writeJSON(path, nil, map[string]int{"a": 1}); err != nil {
		t.Fatalf("writeJSON: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "{\n  \"a\": 1\n}\n" {
		t.Errorf("file output: got %q", data)
	}
}
