package collect

import (
	"context"
	"log"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/snakagawa/eigonews/internal/config"
	"github.com/snakagawa/eigonews/internal/news"
)

// Result holds the results of a collection run.
type Result struct {
	Articles   []news.Article
	TotalFound int
	Filtered   int
	Failed     int
	Sources    map[string]int
}

// Collector gathers candidate articles from all configured feeds.
type Collector struct {
	feeds       []FeedConfig
	parser      *FeedParser
	youthFilter *YouthFilter
}

// NewCollector creates a collector from configuration.
func NewCollector(cfg *config.Config) *Collector {
	feeds := make([]FeedConfig, len(cfg.Sources.Feeds))
	for i, f := range cfg.Sources.Feeds {
		feeds[i] = FeedConfig{URL: f.URL, Name: f.Name, Category: f.Category, Limit: f.Limit}
	}

	var yf *YouthFilter
	if cfg.Sources.YouthFilter.Enabled {
		yf = NewYouthFilter(cfg.Sources.YouthFilter.Keywords)
	}

	return &Collector{
		feeds:       feeds,
		parser:      NewFeedParser(),
		youthFilter: yf,
	}
}

// Collect fetches all feeds concurrently and returns the combined
// candidate pool. Individual feed failures are logged and skipped; when
// every feed fails, synthetic fallback articles are generated for the
// requested categories so the caller still has something to serve.
func (c *Collector) Collect(ctx context.Context, categories []string) *Result {
	r := &Result{Sources: make(map[string]int)}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, fc := range c.feeds {
		g.Go(func() error {
			articles, err := c.parser.Parse(gctx, fc)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("collect: feed %s failed: %v", fc.URL, err)
				r.Failed++
				return nil // one bad feed never sinks the batch
			}
			r.TotalFound += len(articles)

			kept := articles
			if c.youthFilter != nil && isGeneralCategory(fc.Category) {
				kept = c.youthFilter.Apply(articles)
				r.Filtered += len(articles) - len(kept)
			}
			for _, a := range kept {
				r.Sources[a.Source]++
			}
			r.Articles = append(r.Articles, kept...)
			return nil
		})
	}
	g.Wait()

	if len(r.Articles) == 0 {
		log.Printf("collect: all %d feeds failed or empty, generating fallback articles", len(c.feeds))
		r.Articles = GenerateFallback(categories, defaultPerFeed)
	}

	log.Printf("collect: %d found, %d kept, %d filtered, %d feeds failed",
		r.TotalFound, len(r.Articles), r.Filtered, r.Failed)
	return r
}

// isGeneralCategory reports whether a feed category is subject to the
// youth-interest filter. Entertainment and sports feeds pass unfiltered.
func isGeneralCategory(category string) bool {
	c := strings.ToLower(category)
	return c != "entertainment" && c != "sports"
}
