package browser

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMatchAll_RequiresEveryFragmentAndStatus200(t *testing.T) {
	filter := MatchAll("/graphql", "UserTweets")

	testCases := []struct {
		name   string
		url    string
		status int64
		want   bool
	}{
		{name: "match", url: "https://x.com/i/api/graphql/abc/UserTweets?variables=1", status: 200, want: true},
		{name: "wrong endpoint", url: "https://x.com/i/api/graphql/abc/UserByScreenName", status: 200, want: false},
		{name: "not graphql", url: "https://x.com/UserTweets", status: 200, want: false},
		{name: "error status", url: "https://x.com/i/api/graphql/abc/UserTweets", status: 429, want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := filter(tc.url, tc.status); got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestOptionsWithDefaults_FillsZeroValues(t *testing.T) {
	// Arrange
	opts := Options{ScrollDelay: 50 * time.Millisecond}

	// Act
	got := opts.withDefaults()

	// Assert
	if got.ScrollDelay != 50*time.Millisecond {
		t.Errorf("ScrollDelay overwritten: %v", got.ScrollDelay)
	}
	if got.SettleDelay != DefaultOptions().SettleDelay {
		t.Errorf("SettleDelay: got %v", got.SettleDelay)
	}
	if got.PostSelector != `article[data-testid="tweet"]` {
		t.Errorf("PostSelector: got %q", got.PostSelector)
	}
}

func TestAllocatorOptions_AddsChromePath(t *testing.T) {
	base := len(Options{Headless: false}.allocatorOptions())
	withPath := len(Options{Headless: false, ChromePath: "/usr/bin/chromium"}.allocatorOptions())
	headless := len(Options{Headless: true}.allocatorOptions())

	if withPath != base+1 {
		t.Errorf("chrome path should add one option: base=%d withPath=%d", base, withPath)
	}
	if headless != base+1 {
		t.Errorf("headless should add disable-gpu: base=%d headless=%d", base, headless)
	}
}

func TestWaitModeString(t *testing.T) {
	if WaitLoad.String() != "load" || WaitPostVisible.String() != "post-visible" {
		t.Errorf("unexpected names: %s, %s", WaitLoad, WaitPostVisible)
	}
}

func TestSleep_ReturnsOnCancel(t *testing.T) {
	// Arrange
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Act
	start := time.Now()
	err := sleep(ctx, time.Second)

	// Assert
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Error("sleep should return immediately on a canceled context")
	}
}

func TestClosedSession_RejectsActions(t *testing.T) {
	s := &Session{opts: DefaultOptions()}

	if _, err := s.Document(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Document: expected ErrClosed, got %v", err)
	}
	if _, err := s.Subscribe(context.Background(), MatchAll()); !errors.Is(err, ErrClosed) {
		t.Errorf("Subscribe: expected ErrClosed, got %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close on unopened session: %v", err)
	}
}
