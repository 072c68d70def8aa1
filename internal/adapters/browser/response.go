package browser

import "strings"

// WaitMode selects what Navigate waits for once the load event fired.
type WaitMode int

const (
	// WaitLoad waits for document.readyState to become complete.
	WaitLoad WaitMode = iota
	// WaitPostVisible waits until the first post container is visible.
	WaitPostVisible
)

func (m WaitMode) String() string {
	switch m {
	case WaitPostVisible:
		return "post-visible"
	default:
		return "load"
	}
}

// Response is a network response captured from the tab.
type Response struct {
	URL    string
	Status int64
	Body   []byte
}

// ResponseFilter decides which responses a subscription keeps. It sees the
// response before its body is fetched.
type ResponseFilter func(url string, status int64) bool

// MatchAll returns a filter that keeps status-200 responses whose URL
// contains every fragment.
func MatchAll(fragments ...string) ResponseFilter {
	return func(url string, status int64) bool {
		if status != 200 {
			return false
		}
		for _, f := range fragments {
			if !strings.Contains(url, f) {
				return false
			}
		}
		return true
	}
}
