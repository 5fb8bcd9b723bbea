package news

import "time"

// Provenance records how an article entered the current result set.
type Provenance int

const (
	// Fresh articles came straight from a feed fetch.
	Fresh Provenance = iota
	// Rotated articles were re-materialized from serving history because
	// the fresh supply could not meet the minimum batch size.
	Rotated
	// Fallback articles are synthetic stand-ins generated when no feed
	// could be reached.
	Fallback
)

// String returns the provenance name used in API responses and logs.
func (p Provenance) String() string {
	switch p {
	case Rotated:
		return "rotated"
	case Fallback:
		return "fallback"
	default:
		return "fresh"
	}
}

// Article is a candidate news item as produced by the feed collector.
// It is immutable once fetched; selection and history tracking happen
// around it, not inside it.
type Article struct {
	TitleJa     string     `json:"title_ja"`
	URL         string     `json:"url,omitempty"`
	PublishedAt time.Time  `json:"published_at"`
	SummaryJa   string     `json:"summary_ja,omitempty"`
	ContentJa   string     `json:"content_ja,omitempty"`
	Source      string     `json:"source,omitempty"`
	Category    string     `json:"category"`
	Provenance  Provenance `json:"-"`

	// Filled by the title transform during search.
	TitleEn string `json:"en_title,omitempty"`
	Level   string `json:"level,omitempty"`
}

// IsRotated reports whether the article was backfilled from history.
func (a *Article) IsRotated() bool { return a.Provenance == Rotated }

// IsFallback reports whether the article is synthetic fallback content.
func (a *Article) IsFallback() bool { return a.Provenance == Fallback }
