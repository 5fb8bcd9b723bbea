package collect

import (
	"context"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/snakagawa/eigonews/internal/news"
)

const defaultPerFeed = 5

// Feed publish dates older than this are treated as stale metadata and
// replaced with the fetch time.
const maxArticleAge = 7 * 24 * time.Hour

// FeedConfig describes a single RSS/Atom feed to pull articles from.
type FeedConfig struct {
	URL      string
	Name     string
	Category string
	Limit    int
}

// FeedParser parses RSS/Atom feeds into candidate articles.
type FeedParser struct {
	clock func() time.Time
}

// NewFeedParser creates a new FeedParser.
func NewFeedParser() *FeedParser {
	return &FeedParser{clock: time.Now}
}

// Parse fetches one feed and converts its items into candidate articles,
// capped at the feed's limit.
func (fp *FeedParser) Parse(ctx context.Context, fc FeedConfig) ([]news.Article, error) {
	parser := gofeed.NewParser()
	feed, err := parser.ParseURLWithContext(fc.URL, ctx)
	if err != nil {
		return nil, err
	}

	name := fc.Name
	if name == "" {
		name = extractSourceName(fc.URL)
	}
	limit := fc.Limit
	if limit <= 0 {
		limit = defaultPerFeed
	}

	var articles []news.Article
	for _, item := range feed.Items {
		if len(articles) >= limit {
			break
		}
		if item == nil || item.Title == "" {
			log.Printf("collect: skipping empty feed item from %s", name)
			continue
		}

		content := item.Content
		if content == "" {
			content = item.Description
		}
		if content == "" {
			content = item.Title
		}

		articles = append(articles, news.Article{
			TitleJa:     item.Title,
			URL:         item.Link,
			PublishedAt: fp.clampDate(item.PublishedParsed),
			SummaryJa:   item.Description,
			ContentJa:   content,
			Source:      name,
			Category:    fc.Category,
			Provenance:  news.Fresh,
		})
	}

	log.Printf("collect: parsed %d articles from %s", len(articles), name)
	return articles, nil
}

// clampDate sanitizes a feed publish date. Missing, unparseable, future
// or stale dates all collapse to now so sorting stays meaningful.
func (fp *FeedParser) clampDate(published *time.Time) time.Time {
	now := fp.clock()
	if published == nil {
		return now
	}
	if published.After(now) || now.Sub(*published) > maxArticleAge {
		return now
	}
	return *published
}

// extractSourceName derives a readable source name from a feed URL.
func extractSourceName(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil || u.Host == "" {
		return feedURL
	}
	host := strings.TrimPrefix(u.Host, "www.")
	return host
}
