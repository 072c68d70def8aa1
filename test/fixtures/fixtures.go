// Package fixtures provides HTML and GraphQL test fixtures.
package fixtures

import (
	"fmt"
	"strings"
)

// LoginInputClass is the class the login fixtures give their input.
const LoginInputClass = "r-30o5oe r-1niwhzg r-17gur6a"

// Post describes one article in a timeline fixture.
type Post struct {
	Handle   string
	ID       string
	Time     string // RFC3339
	Text     string
	ShowMore bool

	// ContextLabel renders a socialContext label, e.g. "Pinned".
	ContextLabel string
	// ContextTag is the label's element; span when empty.
	ContextTag string

	Quote *Post
}

// Article renders p as a post container.
func Article(p Post) string {
	var b strings.Builder
	b.WriteString(`<article data-testid="tweet" role="article">`)
	if p.ContextLabel != "" {
		tag := p.ContextTag
		if tag == "" {
			tag = "span"
		}
		fmt.Fprintf(&b, `<%s data-testid="socialContext">%s</%s>`, tag, p.ContextLabel, tag)
	}
	writeBody(&b, p)
	if p.Quote != nil {
		b.WriteString(`<div role="link" tabindex="0">`)
		writeBody(&b, *p.Quote)
		b.WriteString(`</div>`)
	}
	b.WriteString(`</article>`)
	return b.String()
}

func writeBody(b *strings.Builder, p Post) {
	fmt.Fprintf(b, `<div data-testid="User-Name"><span>%s</span><a href="/%s">@%s</a></div>`, p.Handle, p.Handle, p.Handle)
	fmt.Fprintf(b, `<a href="/%s/status/%s"><time datetime="%s">%s</time></a>`, p.Handle, p.ID, p.Time, p.Time)
	b.WriteString(`<div class="body">`)
	fmt.Fprintf(b, `<div data-testid="tweetText" lang="en">%s</div>`, p.Text)
	if p.ShowMore {
		fmt.Fprintf(b, `<a data-testid="tweet-text-show-more-link" href="/%s/status/%s">Show more</a>`, p.Handle, p.ID)
	}
	b.WriteString(`</div>`)
}

// Timeline wraps post containers in a page.
func Timeline(posts ...Post) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><head><title>Timeline</title></head><body><main><section>`)
	for _, p := range posts {
		b.WriteString(Article(p))
	}
	b.WriteString(`</section></main></body></html>`)
	return b.String()
}

// GenerateLoginPage creates the credential step of the login flow.
func GenerateLoginPage() string {
	return `
<!DOCTYPE html>
<html>
<head><title>Log in to X</title></head>
<body>
<div role="dialog">
    <label><span>Phone, email, or username</span></label>
    <input autocomplete="username" class="` + LoginInputClass + `" name="text" type="text"/>
    <button role="button"><span>Next</span></button>
</div>
</body>
</html>
`
}

// GenerateLoginAlert creates the login step showing a rejection alert.
func GenerateLoginAlert() string {
	return `
<!DOCTYPE html>
<html>
<head><title>Log in to X</title></head>
<body>
<div role="dialog">
    <input autocomplete="username" class="` + LoginInputClass + `" name="text" type="text"/>
</div>
<div role="alert"><span>Sorry, we could not find your account.</span></div>
</body>
</html>
`
}

// GenerateEmptyPage creates a page without any input.
func GenerateEmptyPage() string {
	return `<!DOCTYPE html><html><head><title>Empty</title></head><body><p>nothing here</p></body></html>`
}

// GenerateExpandedPost creates the single-post page a show-more link opens.
func GenerateExpandedPost(p Post) string {
	return Timeline(p, Post{
		Handle: "someone_else",
		ID:     "999",
		Time:   "2020-01-01T00:00:00.000Z",
		Text:   "a reply below the post",
	})
}

// GenerateUserTweetsPayload creates a UserTweets response for elonmusk with
// one retweet of a NASA post and one original post.
func GenerateUserTweetsPayload() string {
	return `{
  "data": {
    "user": {
      "result": {
        "__typename": "User",
        "timeline_v2": {
          "timeline": {
            "instructions": [
              {"type": "TimelineClearCache"},
              {
                "type": "TimelineAddEntries",
                "entries": [
                  {
                    "entryId": "tweet-1050118621198921728",
                    "content": {
                      "entryType": "TimelineTimelineItem",
                      "itemContent": {
                        "tweet_results": {
                          "result": {
                            "rest_id": "1050118621198921728",
                            "core": {"user_results": {"result": {"rest_id": "44196397", "legacy": {"screen_name": "elonmusk", "name": "Elon Musk"}}}},
                            "legacy": {
                              "id_str": "1050118621198921728",
                              "user_id_str": "44196397",
                              "created_at": "Thu Oct 11 09:00:00 +0000 2018",
                              "full_text": "RT @NASA: Liftoff!\n\nFalcon 9   is on its way",
                              "is_quote_status": false,
                              "retweeted_status_result": {
                                "result": {
                                  "rest_id": "1050100000000000000",
                                  "core": {"user_results": {"result": {"rest_id": "11348282", "legacy": {"screen_name": "NASA", "name": "NASA"}}}},
                                  "legacy": {
                                    "id_str": "1050100000000000000",
                                    "user_id_str": "11348282",
                                    "created_at": "Thu Oct 11 08:00:00 +0000 2018",
                                    "full_text": "Liftoff!\n\nFalcon 9   is on its way",
                                    "is_quote_status": false
                                  }
                                }
                              }
                            }
                          }
                        }
                      }
                    }
                  },
                  {
                    "entryId": "tweet-1050100000000000001",
                    "content": {
                      "entryType": "TimelineTimelineItem",
                      "itemContent": {
                        "tweet_results": {
                          "result": {
                            "rest_id": "1050100000000000001",
                            "core": {"user_results": {"result": {"rest_id": "44196397", "legacy": {"screen_name": "elonmusk", "name": "Elon Musk"}}}},
                            "legacy": {
                              "id_str": "1050100000000000001",
                              "user_id_str": "44196397",
                              "created_at": "Wed Oct 10 20:19:24 +0000 2018",
                              "full_text": "Tesla   Model 3\nis now\tthe best-selling car",
                              "is_quote_status": true
                            }
                          }
                        }
                      }
                    }
                  },
                  {
                    "entryId": "cursor-bottom-1",
                    "content": {"entryType": "TimelineTimelineCursor", "value": "DAABCgAB", "cursorType": "Bottom"}
                  }
                ]
              }
            ]
          }
        }
      }
    }
  }
}`
}

// GenerateListPayload creates a ListLatestTweetsTimeline response with
// posts from two authors.
func GenerateListPayload() string {
	return `{
  "data": {
    "list": {
      "tweets_timeline": {
        "timeline": {
          "instructions": [
            {
              "type": "TimelineAddEntries",
              "entries": [
                {"content": {"itemContent": {"tweet_results": {"result": {
                  "core": {"user_results": {"result": {"rest_id": "1", "legacy": {"screen_name": "alice"}}}},
                  "legacy": {"id_str": "10", "user_id_str": "1", "created_at": "Mon Jan 15 10:00:00 +0000 2024", "full_text": "from alice", "is_quote_status": false}
                }}}}},
                {"content": {"itemContent": {"tweet_results": {"result": {
                  "core": {"user_results": {"result": {"rest_id": "2", "legacy": {"screen_name": "bob"}}}},
                  "legacy": {"id_str": "11", "user_id_str": "2", "created_at": "Sun Jan 14 10:00:00 +0000 2024", "full_text": "from bob", "is_quote_status": false}
                }}}}}
              ]
            }
          ]
        }
      }
    }
  }
}`
}
