package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/snakagawa/eigonews/internal/collect"
	"github.com/snakagawa/eigonews/internal/config"
	"github.com/snakagawa/eigonews/internal/database"
	"github.com/snakagawa/eigonews/internal/dedupe"
	"github.com/snakagawa/eigonews/internal/fetch"
	"github.com/snakagawa/eigonews/internal/llm"
	"github.com/snakagawa/eigonews/internal/news"
	"github.com/snakagawa/eigonews/internal/rotation"
	"github.com/snakagawa/eigonews/internal/transform"
)

// SelectedArticle is one article in a search response, tagged with its
// provenance so clients can label recycled or synthetic items.
type SelectedArticle struct {
	news.Article
	IsRotated  bool `json:"isRotated"`
	IsFallback bool `json:"isFallback"`
}

// SearchResult summarizes one search run.
type SearchResult struct {
	Articles    []SelectedArticle
	Collected   int
	AfterDedup  int
	AfterRotate int
	Shortfall   bool
}

// Service wires the fetch, dedup, rotation and transform stages into the
// per-request search flow.
type Service struct {
	cfg         *config.Config
	collector   *collect.Collector
	filter      *dedupe.Filter
	store       *rotation.Store
	engine      *rotation.Engine
	transformer *transform.Transformer
	fetcher     *fetch.ContentFetcher
	db          *database.DB
}

// New builds the service from configuration. db may be nil, which
// disables the processed-article cache.
func New(cfg *config.Config, db *database.DB) *Service {
	return NewWithClock(cfg, db, rotation.SystemClock{})
}

// NewWithClock is New with an injected clock, for tests that exercise
// the daily history reset.
func NewWithClock(cfg *config.Config, db *database.DB, clock rotation.Clock) *Service {
	provider := llm.CreateProvider(
		cfg.LLM.Provider,
		cfg.LLM.Model,
		cfg.LLM.OllamaURL,
		cfg.LLM.OpenAIModel,
		cfg.LLM.APIKeyEnv,
		cfg.LLM.RequestsPerMinute,
	)

	filter := dedupe.NewFilter(dedupe.Mode(cfg.Dedupe.Mode), cfg.Entities)
	filter.SimilarityThreshold = cfg.Dedupe.SimilarityThreshold
	filter.KeywordRatio = cfg.Dedupe.KeywordRatio
	filter.KeywordMinCommon = cfg.Dedupe.KeywordMinCommon

	store := rotation.NewStore(clock, cfg.Rotation.MaxHistory, cfg.Rotation.DailyReset)

	engine := rotation.NewEngine(store, clock, rotation.Variant(cfg.Rotation.Variant), cfg.Entities)
	engine.MinRequired = cfg.Rotation.MinRequired
	engine.SimilarityThreshold = cfg.Rotation.SimilarityThreshold
	engine.KeywordRatio = cfg.Rotation.KeywordRatio
	engine.KeywordMinCommon = cfg.Rotation.KeywordMinCommon

	return &Service{
		cfg:         cfg,
		collector:   collect.NewCollector(cfg),
		filter:      filter,
		store:       store,
		engine:      engine,
		transformer: transform.New(provider),
		fetcher:     fetch.NewContentFetcher(0),
		db:          db,
	}
}

// Store exposes the history store for administrative surfaces.
func (s *Service) Store() *rotation.Store { return s.store }

// Search runs the full selection flow for one request: collect fresh
// candidates, dedupe the batch, rotate against history, translate titles
// and commit the served set. History commit is the final step so an
// aborted request leaves no trace.
func (s *Service) Search(ctx context.Context, level string, categories []string) (*SearchResult, error) {
	if !news.ValidLevel(level) {
		return nil, fmt.Errorf("unknown level %q", level)
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("at least one category is required")
	}

	log.Printf("search: level=%s categories=%v", level, categories)

	collected := s.collector.Collect(ctx, categories)
	return s.Select(ctx, level, categories, collected.Articles)
}

// Select runs dedup, rotation, title translation and history commit over
// an already-collected candidate pool. Split from Search so the
// selection flow can be driven with known candidates.
func (s *Service) Select(ctx context.Context, level string, categories []string, candidates []news.Article) (*SearchResult, error) {
	deduped := s.filter.Dedupe(candidates)

	key := rotation.Key(level, categories)
	rotated := s.engine.Rotate(key, deduped)

	selected := rotated
	if len(selected) > s.engine.MinRequired {
		selected = selected[:s.engine.MinRequired]
	}

	log.Printf("search: %d candidates, %d after dedup, %d after rotation, %d selected",
		len(candidates), len(deduped), len(rotated), len(selected))

	out := make([]SelectedArticle, 0, len(selected))
	for _, article := range selected {
		article.Level = level
		// Rotated items were already served once with a translated title;
		// the stored Japanese title is all they need again.
		if !article.IsRotated() {
			article.TitleEn = s.transformer.TranslateTitle(ctx, article, level)
		}
		out = append(out, SelectedArticle{
			Article:    article,
			IsRotated:  article.IsRotated(),
			IsFallback: article.IsFallback(),
		})
	}

	// An aborted request must leave no trace in history.
	if err := ctx.Err(); err != nil {
		log.Printf("search: request aborted, discarding selection without commit")
		return nil, err
	}
	s.engine.Commit(key, selected)

	return &SearchResult{
		Articles:    out,
		Collected:   len(candidates),
		AfterDedup:  len(deduped),
		AfterRotate: len(rotated),
		Shortfall:   len(selected) < s.engine.MinRequired,
	}, nil
}

// ProcessArticle produces the full leveled rendition of one article,
// consulting and feeding the sqlite cache keyed by URL hash and level.
func (s *Service) ProcessArticle(ctx context.Context, article news.Article, level string) (*transform.Processed, error) {
	if !news.ValidLevel(level) {
		return nil, fmt.Errorf("unknown level %q", level)
	}

	hash := contentHash(article)
	if s.db != nil {
		cached, err := s.db.GetProcessed(hash, level)
		if err != nil {
			log.Printf("pipeline: cache read failed: %v", err)
		} else if cached != nil {
			log.Printf("pipeline: cache hit for %q (%s)", article.TitleJa, level)
			return cachedToProcessed(cached), nil
		}
	}

	// Feed snippets are often a single sentence; pull the full page text
	// before asking the LLM to level it.
	article = s.fetcher.Enrich(ctx, article)

	processed := s.transformer.ProcessContent(ctx, article, level)

	if s.db != nil && !processed.IsFallback {
		glossary, err := database.MarshalGlossary(processed.Glossary)
		if err != nil {
			log.Printf("pipeline: %v", err)
		}
		if err := s.db.PutProcessed(&database.ProcessedArticle{
			URLHash:       hash,
			Level:         level,
			TitleJa:       article.TitleJa,
			TitleEn:       processed.TitleEn,
			BodyEn:        processed.BodyEn,
			TranslationJa: processed.TranslationJa,
			GlossaryJSON:  glossary,
			WordCount:     processed.WordCount,
		}); err != nil {
			log.Printf("pipeline: cache write failed: %v", err)
		}
	}

	return processed, nil
}

// Translate renders an English body into natural Japanese.
func (s *Service) Translate(ctx context.Context, bodyEn, level string) (string, error) {
	if !news.ValidLevel(level) {
		return "", fmt.Errorf("unknown level %q", level)
	}
	return s.transformer.TranslateBody(ctx, bodyEn, level)
}

// ResetHistory clears the history window for one key, or every window
// when key is empty. Idempotent.
func (s *Service) ResetHistory(key string) {
	if key == "" {
		s.store.ClearAll()
		log.Printf("history: cleared all windows")
		return
	}
	s.store.Clear(key)
	log.Printf("history: cleared window %s", key)
}

// contentHash keys the processed cache. URL-less articles (fallback,
// rotated) fall back to the title so they still cache per level.
func contentHash(article news.Article) string {
	if article.URL != "" {
		return dedupe.HashURL(article.URL)
	}
	return dedupe.HashURL("title://" + article.TitleJa)
}

func cachedToProcessed(c *database.ProcessedArticle) *transform.Processed {
	p := &transform.Processed{
		TitleEn:       c.TitleEn,
		BodyEn:        c.BodyEn,
		TranslationJa: c.TranslationJa,
		WordCount:     c.WordCount,
		Level:         c.Level,
		IsFallback:    c.IsFallback,
	}
	if c.GlossaryJSON != "" {
		// Best effort: a corrupt cached glossary just renders empty.
		if err := json.Unmarshal([]byte(c.GlossaryJSON), &p.Glossary); err != nil {
			log.Printf("pipeline: bad cached glossary: %v", err)
		}
	}
	return p
}
