package rotation

import (
	"log"

	"github.com/google/uuid"

	"github.com/snakagawa/eigonews/internal/dedupe"
	"github.com/snakagawa/eigonews/internal/news"
)

// Variant selects the rotation policy.
type Variant string

const (
	// VariantThreshold screens candidates against the most-recent window
	// entries by similarity, entity and keyword heuristics, backfilling
	// pseudo-articles from older history on shortfall. Default.
	VariantThreshold Variant = "threshold"
	// VariantBinary screens on URL membership alone, dropping the oldest
	// half of the window when the fresh supply runs short.
	VariantBinary Variant = "binary"
)

// DefaultMinRequired is the nominal batch size a request must receive.
const DefaultMinRequired = 5

// Engine filters fresh candidates against serving history and recycles
// older items when fresh supply is insufficient. It never returns fewer
// than the minimum when candidates plus reusable history can cover it;
// when even that fails it returns what exists and logs the shortfall.
type Engine struct {
	store    *Store
	clock    Clock
	variant  Variant
	entities []string

	MinRequired int

	// Tunable thresholds, looser than the dedup filter's since history
	// comparison tolerates more drift between fetches.
	SimilarityThreshold float64 // candidate vs history title similarity
	KeywordRatio        float64
	KeywordMinCommon    int
}

// NewEngine creates a rotation engine over the given history store.
func NewEngine(store *Store, clock Clock, variant Variant, entities []string) *Engine {
	if clock == nil {
		clock = SystemClock{}
	}
	if variant == "" {
		variant = VariantThreshold
	}
	return &Engine{
		store:               store,
		clock:               clock,
		variant:             variant,
		entities:            entities,
		MinRequired:         DefaultMinRequired,
		SimilarityThreshold: 0.7,
		KeywordRatio:        0.5,
		KeywordMinCommon:    3,
	}
}

// Rotate filters candidates against the history window for key and
// backfills from reusable history when the surviving set is short.
func (e *Engine) Rotate(key string, candidates []news.Article) []news.Article {
	var selected []news.Article
	switch e.variant {
	case VariantBinary:
		selected = e.rotateBinary(key, candidates)
	default:
		selected = e.rotateThreshold(key, candidates)
	}

	if len(selected) < e.MinRequired {
		log.Printf("rotation: shortfall for %s: %d of %d after exhausting candidates and history",
			key, len(selected), e.MinRequired)
	}
	return selected
}

// rotateThreshold treats the most-recent MinRequired entries as
// currently in use and the rest of the window as a reusable pool.
func (e *Engine) rotateThreshold(key string, candidates []news.Article) []news.Article {
	window := e.store.Get(key)

	used := window
	var pool []Entry
	if len(window) > e.MinRequired {
		used = window[:e.MinRequired]
		pool = window[e.MinRequired:]
	}

	var fresh []news.Article
	for _, c := range candidates {
		if !e.matchesHistory(c, used) {
			fresh = append(fresh, c)
		}
	}

	if len(fresh) >= e.MinRequired {
		return fresh
	}

	log.Printf("rotation: only %d fresh candidates for %s, backfilling from %d reusable entries",
		len(fresh), key, len(pool))

	selected := fresh
	for _, entry := range pool {
		if len(selected) >= e.MinRequired {
			break
		}
		selected = append(selected, e.rematerialize(entry))
	}
	return selected
}

// rotateBinary partitions candidates on URL membership in the window,
// releasing the oldest half of the window when unused supply runs short.
func (e *Engine) rotateBinary(key string, candidates []news.Article) []news.Article {
	window := e.store.Get(key)
	inWindow := urlSet(window)

	var unused []news.Article
	for _, c := range candidates {
		if !inWindow[dedupe.NormalizeURL(c.URL)] {
			unused = append(unused, c)
		}
	}
	if len(unused) >= e.MinRequired {
		return unused
	}

	dropped := e.store.DropOldestHalf(key)
	droppedURLs := urlSet(dropped)
	retained := urlSet(e.store.Get(key))

	var selected []news.Article
	for _, c := range candidates {
		nu := dedupe.NormalizeURL(c.URL)
		switch {
		case droppedURLs[nu]:
			c.Provenance = news.Rotated
			selected = append(selected, c)
		case !retained[nu]:
			selected = append(selected, c)
		}
	}
	return selected
}

// matchesHistory reports whether a candidate duplicates any in-use
// history entry by title similarity, shared watch-list entity or
// keyword overlap.
func (e *Engine) matchesHistory(c news.Article, used []Entry) bool {
	kwC := dedupe.ExtractKeywords(c.TitleJa + " " + c.ContentJa)

	for i := range used {
		entry := &used[i]

		if dedupe.Similarity(c.TitleJa, entry.Title) > e.SimilarityThreshold {
			return true
		}
		if dedupe.SharedEntity(c.TitleJa+" "+c.ContentJa, entry.Title, e.entities) {
			return true
		}
		common, ratio := dedupe.KeywordOverlap(kwC, entry.Keywords)
		if ratio > e.KeywordRatio && common >= e.KeywordMinCommon {
			return true
		}
	}
	return false
}

// rematerialize turns a history entry back into a servable article. The
// synthetic URL keeps rotated items distinct from any live feed URL.
func (e *Engine) rematerialize(entry Entry) news.Article {
	return news.Article{
		TitleJa:     entry.Title,
		URL:         "rotated://" + uuid.NewString(),
		PublishedAt: e.clock.Now(),
		Provenance:  news.Rotated,
	}
}

// Commit records served articles into the history window for key. It
// must run only after the articles were actually delivered; committing
// discarded candidates corrupts future rotation decisions.
func (e *Engine) Commit(key string, served []news.Article) {
	if len(served) == 0 {
		return
	}
	entries := make([]Entry, 0, len(served))
	for _, a := range served {
		entries = append(entries, Entry{
			Title:           a.TitleJa,
			NormalizedTitle: dedupe.NormalizeTitle(a.TitleJa),
			Keywords:        dedupe.ExtractKeywords(a.TitleJa + " " + a.ContentJa),
			URL:             a.URL,
			AddedAt:         e.clock.Now(),
		})
	}
	e.store.Append(key, entries)
	log.Printf("history: committed %d entries to %s", len(entries), key)
}

func urlSet(entries []Entry) map[string]bool {
	set := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if entry.URL != "" {
			set[dedupe.NormalizeURL(entry.URL)] = true
		}
	}
	return set
}
