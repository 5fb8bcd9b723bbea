package collect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>テストニュース</title>
<link>https://example.com</link>
<item>
<title>東京で大規模な停電が発生</title>
<link>https://example.com/news/1</link>
<description>都内で停電が発生しました。</description>
<pubDate>Mon, 02 Mar 2026 09:00:00 +0900</pubDate>
</item>
<item>
<title>新作アニメ映画が公開</title>
<link>https://example.com/news/2</link>
<description>話題の新作が公開されました。</description>
</item>
<item>
<title></title>
<link>https://example.com/news/3</link>
</item>
</channel>
</rss>`

func rssServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
		w.Write([]byte(testRSS))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFeedParse(t *testing.T) {
	srv := rssServer(t)
	fp := NewFeedParser()

	articles, err := fp.Parse(context.Background(), FeedConfig{
		URL:      srv.URL,
		Name:     "テストニュース",
		Category: "general",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The item without a title is skipped.
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}

	first := articles[0]
	if first.TitleJa != "東京で大規模な停電が発生" {
		t.Errorf("unexpected title %q", first.TitleJa)
	}
	if first.URL != "https://example.com/news/1" {
		t.Errorf("unexpected URL %q", first.URL)
	}
	if first.Source != "テストニュース" {
		t.Errorf("unexpected source %q", first.Source)
	}
	if first.Category != "general" {
		t.Errorf("unexpected category %q", first.Category)
	}
	if first.ContentJa == "" {
		t.Error("expected description used as content")
	}

	// The item without a publish date gets a sane timestamp.
	if articles[1].PublishedAt.IsZero() {
		t.Error("expected clamped publish date")
	}
}

func TestFeedParseRespectsLimit(t *testing.T) {
	srv := rssServer(t)
	fp := NewFeedParser()

	articles, err := fp.Parse(context.Background(), FeedConfig{URL: srv.URL, Limit: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(articles) != 1 {
		t.Errorf("expected 1 article with limit 1, got %d", len(articles))
	}
}

func TestFeedParseUnreachable(t *testing.T) {
	fp := NewFeedParser()
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if _, err := fp.Parse(ctx, FeedConfig{URL: "http://127.0.0.1:1/feed.xml"}); err == nil {
		t.Error("expected error for unreachable feed")
	}
}
