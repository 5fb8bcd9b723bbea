package dedupe

import (
	"log"
	"sort"
	"strings"

	"github.com/snakagawa/eigonews/internal/news"
)

// Mode selects how aggressively the filter rejects candidates.
type Mode string

const (
	// ModeStrict rejects on URL identity, title similarity, shared
	// watch-list entities and keyword overlap. Default.
	ModeStrict Mode = "strict"
	// ModeURLOnly rejects on URL identity alone, matching the simpler
	// code path some deployments prefer.
	ModeURLOnly Mode = "url-only"
)

// Filter removes duplicate articles within a single fetch batch.
type Filter struct {
	mode     Mode
	entities []string

	// Tunable thresholds; the defaults are the reference values and have
	// not been empirically validated beyond them.
	SimilarityThreshold float64 // title similarity at or above this rejects
	KeywordRatio        float64 // overlap ratio above this rejects
	KeywordMinCommon    int     // only when at least this many keywords are shared
}

// NewFilter creates a duplicate filter. entities is the watch-list of
// proper nouns used for co-mention rejection; nil disables that rule.
func NewFilter(mode Mode, entities []string) *Filter {
	if mode == "" {
		mode = ModeStrict
	}
	return &Filter{
		mode:                mode,
		entities:            entities,
		SimilarityThreshold: 0.85,
		KeywordRatio:        0.5,
		KeywordMinCommon:    2,
	}
}

// Dedupe filters a batch of candidate articles, keeping the first
// occurrence of each duplicate group. Iteration order decides survivors;
// the surviving set is returned sorted by publish date, newest first.
func (f *Filter) Dedupe(articles []news.Article) []news.Article {
	seen := make(map[string]bool)
	var accepted []news.Article

	for _, article := range articles {
		if article.TitleJa == "" {
			log.Printf("dedupe: article with empty title from %s, treating as dissimilar", article.Source)
		}

		if article.URL != "" {
			hash := HashURL(article.URL)
			if seen[hash] {
				continue
			}
			seen[hash] = true
		}

		if f.mode == ModeStrict && f.matchesAny(article, accepted) {
			continue
		}

		accepted = append(accepted, article)
	}

	sort.SliceStable(accepted, func(i, j int) bool {
		return accepted[i].PublishedAt.After(accepted[j].PublishedAt)
	})
	return accepted
}

func (f *Filter) matchesAny(candidate news.Article, accepted []news.Article) bool {
	kwC := ExtractKeywords(candidate.TitleJa + " " + candidate.ContentJa)

	for i := range accepted {
		other := &accepted[i]

		if Similarity(candidate.TitleJa, other.TitleJa) >= f.SimilarityThreshold {
			return true
		}

		if f.sharesEntity(candidate.TitleJa+" "+candidate.ContentJa, other.TitleJa+" "+other.ContentJa) {
			return true
		}

		kwO := ExtractKeywords(other.TitleJa + " " + other.ContentJa)
		common, ratio := KeywordOverlap(kwC, kwO)
		if ratio > f.KeywordRatio && common >= f.KeywordMinCommon {
			return true
		}
	}
	return false
}

// sharesEntity reports whether both texts mention at least one common
// watch-list entity.
func (f *Filter) sharesEntity(a, b string) bool {
	for _, entity := range f.entities {
		if entity == "" {
			continue
		}
		if strings.Contains(a, entity) && strings.Contains(b, entity) {
			return true
		}
	}
	return false
}

// SharedEntity reports whether both texts mention a common entry from
// the watch-list. Exported for the rotation engine, which applies the
// same heuristic against history entries.
func SharedEntity(a, b string, entities []string) bool {
	f := Filter{entities: entities}
	return f.sharesEntity(a, b)
}
