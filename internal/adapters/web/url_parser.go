package web

import (
	"fmt"
	"regexp"
	"strings"

	"twitfetch/internal/domain"
)

// Accepts twitter.com, x.com and mobile.twitter.com; query strings and
// trailing paths such as /with_replies are ignored.
var (
	listURLRegex    = regexp.MustCompile(`^(?:https?://)?(?:www\.)?(?:twitter\.com|x\.com|mobile\.twitter\.com)/i/lists/(\d+)(?:[/?#].*)?$`)
	profileURLRegex = regexp.MustCompile(`^(?:https?://)?(?:www\.)?(?:twitter\.com|x\.com|mobile\.twitter\.com)/(\w{1,15})(?:[/?#].*)?$`)
	handleRegex     = regexp.MustCompile(`^@?(\w{1,15})$`)
	listIDRegex     = regexp.MustCompile(`^list:(\d+)$`)
)

// Paths on the site that look like handles but are not profiles.
var reservedPaths = map[string]bool{
	"home": true, "explore": true, "search": true, "settings": true,
	"notifications": true, "messages": true, "i": true, "login": true,
}

// ParseTarget reads a profile URL, a list URL, a handle ("nasa" or
// "@nasa") or "list:<id>". Returns domain.ErrInvalidTarget otherwise.
func ParseTarget(input string) (domain.Target, error) {
	s := strings.TrimSpace(input)

	if m := listURLRegex.FindStringSubmatch(s); m != nil {
		return domain.ListTarget(m[1]), nil
	}
	if m := listIDRegex.FindStringSubmatch(s); m != nil {
		return domain.ListTarget(m[1]), nil
	}
	if m := profileURLRegex.FindStringSubmatch(s); m != nil {
		if reservedPaths[strings.ToLower(m[1])] {
			return domain.Target{}, fmt.Errorf("%w: %q is not a profile", domain.ErrInvalidTarget, input)
		}
		return domain.AccountTarget(m[1]), nil
	}
	if m := handleRegex.FindStringSubmatch(s); m != nil {
		return domain.AccountTarget(m[1]), nil
	}
	return domain.Target{}, fmt.Errorf("%w: %q", domain.ErrInvalidTarget, input)
}
