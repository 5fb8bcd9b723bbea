package collect

import (
	"strings"

	"github.com/snakagawa/eigonews/internal/news"
)

// YouthFilter keeps only articles mentioning at least one topic keyword.
// Applied to general-news feeds; topical feeds bypass it at the caller.
type YouthFilter struct {
	keywords []string
}

// NewYouthFilter creates a filter over the given topic keywords.
func NewYouthFilter(keywords []string) *YouthFilter {
	lowered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw != "" {
			lowered = append(lowered, strings.ToLower(kw))
		}
	}
	return &YouthFilter{keywords: lowered}
}

// Apply returns the articles whose title or content mentions a keyword.
// Articles with neither title nor content are dropped.
func (f *YouthFilter) Apply(articles []news.Article) []news.Article {
	var kept []news.Article
	for _, a := range articles {
		title := strings.ToLower(a.TitleJa)
		content := strings.ToLower(a.ContentJa)
		if title == "" && content == "" {
			continue
		}
		for _, kw := range f.keywords {
			if strings.Contains(title, kw) || strings.Contains(content, kw) {
				kept = append(kept, a)
				break
			}
		}
	}
	return kept
}
