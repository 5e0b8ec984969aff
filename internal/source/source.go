// Package source reads Telegram channel posts through their RSS mirrors.
package source

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/avoronin/vestnik/internal/htmltext"
)

// DefaultFetchLimit caps a per-source fetch when the configured limit is
// missing or invalid.
const DefaultFetchLimit = 80

// EffectiveFetchLimit clamps non-positive limits to DefaultFetchLimit.
func EffectiveFetchLimit(limit int) int {
	if limit <= 0 {
		return DefaultFetchLimit
	}
	return limit
}

// Post is one channel post, reduced to plain text.
type Post struct {
	ID    int64
	Title string
	Text  string
	Links map[string]string
	Date  time.Time
}

// Feed is one fetched channel: its display title plus new posts.
type Feed struct {
	Title string
	Posts []Post
}

// Fetcher pulls posts from a channel feed. Implementations are expected to
// return only posts newer than sinceID, oldest first.
type Fetcher interface {
	Fetch(ctx context.Context, feedURL string, sinceID int64, limit int) (*Feed, error)
}

// ChannelFetcher reads RSS mirrors of Telegram channels.
type ChannelFetcher struct {
	parser *gofeed.Parser
}

// NewChannelFetcher creates a fetcher with a default RSS parser.
func NewChannelFetcher() *ChannelFetcher {
	return &ChannelFetcher{parser: gofeed.NewParser()}
}

// postIDRe pulls the numeric post ID from a t.me item link such as
// https://t.me/somechannel/12345.
var postIDRe = regexp.MustCompile(`/(\d+)/?$`)

// Fetch downloads the feed and returns posts with ID > sinceID, oldest first,
// capped at limit newest entries.
func (f *ChannelFetcher) Fetch(ctx context.Context, feedURL string, sinceID int64, limit int) (*Feed, error) {
	parsed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching feed %s: %w", feedURL, err)
	}

	feed := &Feed{Title: parsed.Title}
	for _, item := range parsed.Items {
		id := itemID(item)
		if id <= sinceID {
			continue
		}

		body := item.Content
		if body == "" {
			body = item.Description
		}

		post := Post{
			ID:    id,
			Title: item.Title,
			Text:  htmltext.Text(body),
			Links: htmltext.Anchors(body),
		}
		if item.PublishedParsed != nil {
			post.Date = *item.PublishedParsed
		}
		feed.Posts = append(feed.Posts, post)
	}

	sort.Slice(feed.Posts, func(i, j int) bool { return feed.Posts[i].ID < feed.Posts[j].ID })
	if limit > 0 && len(feed.Posts) > limit {
		feed.Posts = feed.Posts[len(feed.Posts)-limit:]
	}
	return feed, nil
}

func itemID(item *gofeed.Item) int64 {
	for _, ref := range []string{item.GUID, item.Link} {
		if m := postIDRe.FindStringSubmatch(ref); m != nil {
			if id, err := strconv.ParseInt(m[1], 10, 64); err == nil {
				return id
			}
		}
	}
	return 0
}
