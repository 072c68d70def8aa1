package scraper

import (
	"slices"
	"strings"
	"time"

	"twitfetch/internal/domain"
	"twitfetch/pkg/log"

	"github.com/tidwall/gjson"
)

// createdAtLayout is the API's fixed timestamp format,
// e.g. "Wed Oct 10 20:19:24 +0000 2018".
const createdAtLayout = time.RubyDate

// JSON keys of the timeline payload.
const (
	keyInstructions = "instructions"
	keyEntries      = "entries"
	keyLegacy       = "legacy"
	keyRetweet      = "retweeted_status_result"
	keyQuoted       = "quoted_status_result"
	keyRestID       = "rest_id"
	keyUserID       = "user_id_str"
	keyPostID       = "id_str"
	keyCreatedAt    = "created_at"
	keyFullText     = "full_text"
	keyIsQuote      = "is_quote_status"
	keyScreenName   = "screen_name"
)

// Normalizer turns raw timeline payloads into posts. The wrapping around
// post objects differs between profile, list and conversation timelines,
// so posts are found by key at any depth rather than by path.
type Normalizer struct{}

// NewNormalizer creates a normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize extracts posts from payloads in discovery order, deduplicated by
// id. authors may hold user ids or screen names; empty keeps every author.
func (n *Normalizer) Normalize(payloads [][]byte, authors []string, excludeRetweets bool) []domain.Post {
	allowed := make(map[string]struct{}, len(authors))
	for _, a := range authors {
		allowed[strings.ToLower(strings.TrimPrefix(a, "@"))] = struct{}{}
	}

	seen := make(map[string]struct{})
	var posts []domain.Post

	for i, payload := range payloads {
		if !gjson.ValidBytes(payload) {
			log.GlobalWarn("cannot parse json payload", "index", i)
			continue
		}
		root := gjson.ParseBytes(payload)
		names := screenNames(root)

		skip := []string{keyQuoted}
		if excludeRetweets {
			skip = append(skip, keyRetweet)
		}
		for _, legacy := range postObjects(root, skip...) {
			id := legacy.Get(keyPostID).String()
			if _, dup := seen[id]; dup {
				continue
			}
			if excludeRetweets && legacy.Get(keyRetweet).Exists() {
				continue
			}

			userID := legacy.Get(keyUserID).String()
			author := userID
			if name, ok := names[userID]; ok {
				author = name
			}
			if len(allowed) > 0 && !isAllowed(allowed, userID, author) {
				continue
			}

			created, err := time.Parse(createdAtLayout, legacy.Get(keyCreatedAt).String())
			if err != nil {
				log.GlobalDebug("skipping post with bad created_at", "tweet_id", id, "error", err)
				continue
			}

			seen[id] = struct{}{}
			posts = append(posts, domain.Post{
				ID:       id,
				Author:   author,
				PostedAt: created.UTC(),
				Content:  CleanText(legacy.Get(keyFullText).String()),
				IsQuote:  legacy.Get(keyIsQuote).Bool(),
			})
		}
	}

	return posts
}

// OldestTimestamp returns the earliest created_at among payload's posts.
func (n *Normalizer) OldestTimestamp(payload []byte) (time.Time, bool) {
	if !gjson.ValidBytes(payload) {
		return time.Time{}, false
	}
	var (
		oldest time.Time
		found  bool
	)
	for _, legacy := range postObjects(gjson.ParseBytes(payload), keyQuoted, keyRetweet) {
		t, err := time.Parse(createdAtLayout, legacy.Get(keyCreatedAt).String())
		if err != nil {
			continue
		}
		if !found || t.Before(oldest) {
			oldest, found = t.UTC(), true
		}
	}
	return oldest, found
}

func isAllowed(allowed map[string]struct{}, userID, author string) bool {
	if _, ok := allowed[userID]; ok {
		return true
	}
	_, ok := allowed[strings.ToLower(author)]
	return ok
}

// postObjects walks instructions, then entries, then legacy objects, and
// keeps the legacy objects that describe a post. Legacy objects nested under
// a skip key are embedded posts, not timeline entries, and are left out.
func postObjects(root gjson.Result, skip ...string) []gjson.Result {
	var posts []gjson.Result
	for _, instructions := range findKey(root, keyInstructions, nil) {
		for _, entries := range findKey(instructions, keyEntries, nil) {
			for _, legacy := range findKey(entries, keyLegacy, nil, skip...) {
				if isPost(legacy) {
					posts = append(posts, legacy)
				}
			}
		}
	}
	return posts
}

func isPost(legacy gjson.Result) bool {
	return legacy.IsObject() &&
		legacy.Get(keyPostID).Exists() &&
		legacy.Get(keyCreatedAt).Exists() &&
		legacy.Get(keyFullText).Exists()
}

// screenNames maps user rest_id to screen_name for every user object.
func screenNames(root gjson.Result) map[string]string {
	names := make(map[string]string)
	walkObjects(root, func(obj gjson.Result) {
		id := obj.Get(keyRestID)
		name := obj.Get(keyLegacy + "." + keyScreenName)
		if id.Exists() && name.Exists() {
			names[id.String()] = name.String()
		}
	})
	return names
}

// findKey appends every non-empty value stored under key, at any depth.
// A match is searched further, so nested matches follow their parent.
// Values under any of the skip keys are not searched.
func findKey(v gjson.Result, key string, out []gjson.Result, skip ...string) []gjson.Result {
	switch {
	case v.IsArray():
		v.ForEach(func(_, e gjson.Result) bool {
			out = findKey(e, key, out, skip...)
			return true
		})
	case v.IsObject():
		v.ForEach(func(k, e gjson.Result) bool {
			if k.String() == key && nonEmpty(e) {
				out = append(out, e)
			}
			return true
		})
		v.ForEach(func(k, e gjson.Result) bool {
			if !slices.Contains(skip, k.String()) {
				out = findKey(e, key, out, skip...)
			}
			return true
		})
	}
	return out
}

func walkObjects(v gjson.Result, fn func(gjson.Result)) {
	switch {
	case v.IsArray():
		v.ForEach(func(_, e gjson.Result) bool {
			walkObjects(e, fn)
			return true
		})
	case v.IsObject():
		fn(v)
		v.ForEach(func(_, e gjson.Result) bool {
			walkObjects(e, fn)
			return true
		})
	}
}

func nonEmpty(v gjson.Result) bool {
	switch v.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.String:
		return v.Str != ""
	case gjson.JSON:
		raw := strings.TrimSpace(v.Raw)
		return raw != "{}" && raw != "[]"
	default:
		return v.Exists()
	}
}
