package fetch

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/snakagawa/eigonews/internal/news"
)

// RSS entries below this many bytes of content are considered thin and
// worth a full page fetch before the LLM sees them.
const minContentLen = 200

// ContentFetcher pulls full article text via HTTP + readability
// extraction for candidates whose feed entry carried only a snippet.
type ContentFetcher struct {
	client *http.Client
}

// NewContentFetcher creates a new content fetcher.
func NewContentFetcher(timeout time.Duration) *ContentFetcher {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &ContentFetcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// Enrich returns article with ContentJa replaced by the extracted page
// text when the feed content was thin and the page is fetchable. All
// failures are soft; the article always comes back usable.
func (f *ContentFetcher) Enrich(ctx context.Context, article news.Article) news.Article {
	if len(article.ContentJa) >= minContentLen {
		return article
	}
	if !strings.HasPrefix(article.URL, "http") {
		return article
	}

	text, err := f.extract(ctx, article.URL)
	if err != nil {
		log.Printf("fetch: could not enrich %s: %v", article.URL, err)
		return article
	}
	if text == "" {
		log.Printf("fetch: no extractable content from %s", article.URL)
		return article
	}

	log.Printf("fetch: enriched %q with %d bytes of page text", article.TitleJa, len(text))
	article.ContentJa = text
	return article
}

func (f *ContentFetcher) extract(ctx context.Context, articleURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", articleURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "eigonews/1.0 (learning content generator)")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &httpError{code: resp.StatusCode}
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil
	}

	parsedURL, _ := url.Parse(articleURL)
	page, err := readability.FromReader(strings.NewReader(string(bodyBytes)), parsedURL)
	if err != nil {
		return "", nil
	}

	text := strings.TrimSpace(page.TextContent)
	if len(text) > 100 {
		return text, nil
	}
	return "", nil
}

type httpError struct {
	code int
}

func (e *httpError) Error() string {
	return http.StatusText(e.code)
}
