package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/snakagawa/eigonews/internal/config"
	"github.com/snakagawa/eigonews/internal/news"
	"github.com/snakagawa/eigonews/internal/rotation"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

// testConfig builds a config with no feeds and no reachable LLM, so the
// pipeline runs entirely offline: collection falls back to synthetic
// articles and title translation degrades to the Japanese title.
func testConfig() *config.Config {
	return &config.Config{
		Dedupe: config.Dedupe{
			Mode:                "strict",
			SimilarityThreshold: 0.85,
			KeywordRatio:        0.5,
			KeywordMinCommon:    2,
		},
		Rotation: config.Rotation{
			Variant:             "threshold",
			MinRequired:         5,
			MaxHistory:          15,
			SimilarityThreshold: 0.7,
			KeywordRatio:        0.5,
			KeywordMinCommon:    3,
		},
		LLM: config.LLM{
			Provider:  "openai",
			APIKeyEnv: "EIGONEWS_TEST_NO_SUCH_KEY",
		},
	}
}

var freshTitles = []string{
	"大谷翔平がホームラン記録を更新した",
	"日銀が政策金利を引き上げ決定",
	"新型スマートフォンの販売が好調",
	"アニメ映画が興行収入の記録を樹立",
	"台風の接近で各地に警報発令",
}

var laterTitles = []string{
	"将棋の若手棋士がタイトル戦へ",
	"新しい美術館が京都に開館",
	"宇宙探査機が小惑星に到着",
	"全国で桜の開花が早まる見込み",
	"電気自動車の充電網が拡大中",
}

func makeCandidates(titles []string) []news.Article {
	now := time.Now()
	articles := make([]news.Article, len(titles))
	for i, title := range titles {
		articles[i] = news.Article{
			TitleJa:     title,
			URL:         fmt.Sprintf("https://example.com/%s", title),
			PublishedAt: now.Add(-time.Duration(i) * time.Minute),
			ContentJa:   title,
			Category:    "general",
		}
	}
	return articles
}

func TestSelectFirstBatchServedAndCommitted(t *testing.T) {
	svc := New(testConfig(), nil)

	result, err := svc.Select(context.Background(), "beginner", []string{"all"}, makeCandidates(freshTitles))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Articles) != 5 {
		t.Fatalf("expected 5 articles, got %d", len(result.Articles))
	}
	if result.Shortfall {
		t.Error("expected no shortfall on a full batch")
	}
	for _, a := range result.Articles {
		if a.IsRotated || a.IsFallback {
			t.Errorf("first batch should be entirely fresh, got %+v", a)
		}
		if a.Level != "beginner" {
			t.Errorf("expected level stamped on article, got %q", a.Level)
		}
		// No LLM is reachable, so the title degrades to the original.
		if a.TitleEn != a.TitleJa {
			t.Errorf("expected degraded title translation, got %q", a.TitleEn)
		}
	}

	key := rotation.Key("beginner", []string{"all"})
	if got := len(svc.Store().Get(key)); got != 5 {
		t.Errorf("expected 5 history entries after commit, got %d", got)
	}
}

func TestSelectSuppressesRepeatedBatch(t *testing.T) {
	svc := New(testConfig(), nil)
	ctx := context.Background()

	if _, err := svc.Select(ctx, "beginner", []string{"all"}, makeCandidates(freshTitles)); err != nil {
		t.Fatalf("first select: %v", err)
	}

	// The identical batch arrives again. Every candidate duplicates
	// history and no reusable pool exists yet, so the result runs short.
	result, err := svc.Select(ctx, "beginner", []string{"all"}, makeCandidates(freshTitles))
	if err != nil {
		t.Fatalf("second select: %v", err)
	}
	if len(result.Articles) != 0 {
		t.Errorf("expected full suppression, got %d articles", len(result.Articles))
	}
	if !result.Shortfall {
		t.Error("expected shortfall to be reported")
	}
}

func TestSelectBackfillsFromOlderHistory(t *testing.T) {
	svc := New(testConfig(), nil)
	ctx := context.Background()

	if _, err := svc.Select(ctx, "beginner", []string{"all"}, makeCandidates(freshTitles)); err != nil {
		t.Fatalf("first select: %v", err)
	}
	if _, err := svc.Select(ctx, "beginner", []string{"all"}, makeCandidates(laterTitles)); err != nil {
		t.Fatalf("second select: %v", err)
	}

	// Only two genuinely new articles remain; the first batch is now the
	// reusable pool and three of its items come back as rotated.
	result, err := svc.Select(ctx, "beginner", []string{"all"}, makeCandidates([]string{
		"深海で新種の魚が発見される",
		"老舗旅館が営業を再開",
	}))
	if err != nil {
		t.Fatalf("third select: %v", err)
	}
	if len(result.Articles) != 5 {
		t.Fatalf("expected backfill to 5 articles, got %d", len(result.Articles))
	}

	var rotated int
	for _, a := range result.Articles {
		if a.IsRotated {
			rotated++
			if a.TitleEn != "" {
				t.Error("rotated items must skip title re-translation")
			}
		}
	}
	if rotated != 3 {
		t.Errorf("expected 3 rotated articles, got %d", rotated)
	}
	if result.Shortfall {
		t.Error("backfilled batch should not report shortfall")
	}
}

func TestSelectKeysHistoryPerLevel(t *testing.T) {
	svc := New(testConfig(), nil)
	ctx := context.Background()

	if _, err := svc.Select(ctx, "beginner", []string{"all"}, makeCandidates(freshTitles)); err != nil {
		t.Fatalf("beginner select: %v", err)
	}

	// The same articles are still fresh for a different level.
	result, err := svc.Select(ctx, "advanced", []string{"all"}, makeCandidates(freshTitles))
	if err != nil {
		t.Fatalf("advanced select: %v", err)
	}
	if len(result.Articles) != 5 {
		t.Errorf("expected independent history per level, got %d articles", len(result.Articles))
	}
}

func TestSelectAbortedRequestLeavesNoTrace(t *testing.T) {
	svc := New(testConfig(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.Select(ctx, "beginner", []string{"all"}, makeCandidates(freshTitles)); err == nil {
		t.Fatal("expected error from cancelled context")
	}

	key := rotation.Key("beginner", []string{"all"})
	if got := len(svc.Store().Get(key)); got != 0 {
		t.Errorf("cancelled request must not commit history, found %d entries", got)
	}
}

func TestSearchValidationErrors(t *testing.T) {
	svc := New(testConfig(), nil)

	if _, err := svc.Search(context.Background(), "expert", []string{"all"}); err == nil {
		t.Error("expected error for unknown level")
	}
	if _, err := svc.Search(context.Background(), "beginner", nil); err == nil {
		t.Error("expected error for empty categories")
	}
}

func TestSearchFallsBackWithoutFeeds(t *testing.T) {
	svc := New(testConfig(), nil)

	result, err := svc.Search(context.Background(), "beginner", []string{"economy"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Articles) == 0 {
		t.Fatal("expected synthetic fallback articles with no feeds configured")
	}
	for _, a := range result.Articles {
		if !a.IsFallback {
			t.Errorf("expected fallback provenance, got %+v", a.Article.Provenance)
		}
	}
}

func TestDailyResetReleasesHistory(t *testing.T) {
	cfg := testConfig()
	cfg.Rotation.DailyReset = true
	clock := &fakeClock{now: time.Date(2026, 3, 1, 23, 0, 0, 0, time.Local)}
	svc := NewWithClock(cfg, nil, clock)
	ctx := context.Background()

	if _, err := svc.Select(ctx, "beginner", []string{"all"}, makeCandidates(freshTitles)); err != nil {
		t.Fatalf("first select: %v", err)
	}

	clock.now = clock.now.Add(2 * time.Hour) // past midnight

	result, err := svc.Select(ctx, "beginner", []string{"all"}, makeCandidates(freshTitles))
	if err != nil {
		t.Fatalf("second select: %v", err)
	}
	if len(result.Articles) != 5 {
		t.Errorf("expected history released after date rollover, got %d articles", len(result.Articles))
	}
}

func TestResetHistory(t *testing.T) {
	svc := New(testConfig(), nil)
	ctx := context.Background()

	if _, err := svc.Select(ctx, "beginner", []string{"all"}, makeCandidates(freshTitles)); err != nil {
		t.Fatalf("select: %v", err)
	}

	key := rotation.Key("beginner", []string{"all"})
	svc.ResetHistory(key)
	if got := len(svc.Store().Get(key)); got != 0 {
		t.Errorf("expected cleared window, found %d entries", got)
	}

	if _, err := svc.Select(ctx, "beginner", []string{"all"}, makeCandidates(freshTitles)); err != nil {
		t.Fatalf("select: %v", err)
	}
	svc.ResetHistory("")
	if got := len(svc.Store().Keys()); got != 0 {
		t.Errorf("expected all windows cleared, found %d", got)
	}
}
