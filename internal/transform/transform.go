package transform

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/snakagawa/eigonews/internal/llm"
	"github.com/snakagawa/eigonews/internal/news"
)

// Body word range for leveled articles, matching the 30-second read the
// product is built around.
const (
	bodyWordsMin = 100
	bodyWordsMax = 150
)

// GlossaryEntry is one vocabulary item attached to a leveled article.
type GlossaryEntry struct {
	Headword  string `json:"headword"`
	MeaningJa string `json:"meaning_ja"`
}

// Processed is the full leveled rendition of one article.
type Processed struct {
	TitleEn       string          `json:"en_title"`
	BodyEn        string          `json:"en_body"`
	TranslationJa string          `json:"ja_translation"`
	Glossary      []GlossaryEntry `json:"vocab_glossary"`
	WordCount     int             `json:"word_count"`
	Level         string          `json:"level"`
	IsFallback    bool            `json:"is_fallback,omitempty"`
}

// Transformer rewrites Japanese articles into leveled English-learning
// content through an LLM provider.
type Transformer struct {
	provider llm.Provider
}

// New creates a Transformer. A nil provider is allowed; every call then
// returns fallback content.
func New(provider llm.Provider) *Transformer {
	return &Transformer{provider: provider}
}

// TranslateTitle produces just the English title for an article, the
// lightweight step used during search so the full transform can happen
// lazily per article. Failures degrade to the Japanese title.
func (t *Transformer) TranslateTitle(ctx context.Context, article news.Article, level string) string {
	cfg := news.Levels[level]
	if t.provider == nil {
		return article.TitleJa
	}

	prompt := fmt.Sprintf(`Translate this Japanese news title to English for %s level learners:
%q

Return ONLY a simple JSON object:
{
  "en_title": "English title (max 80 characters, %s vocabulary)"
}`, cfg.CEFR, article.TitleJa, cfg.CEFR)

	resp, err := t.provider.Generate(ctx, "You are a title translator. Return only valid JSON.", prompt, 150)
	if err != nil {
		log.Printf("transform: title translation failed for %q: %v", article.TitleJa, err)
		return article.TitleJa
	}

	return llm.StringField(llm.ParseJSONResponse(resp), "en_title", article.TitleJa)
}

// ProcessContent produces the complete leveled article: English title
// and body, Japanese back-translation and a vocabulary glossary. On LLM
// or parse failure it returns generic fallback content rather than an
// error so a request never dies on one article.
func (t *Transformer) ProcessContent(ctx context.Context, article news.Article, level string) *Processed {
	cfg := news.Levels[level]
	if t.provider == nil {
		return fallbackContent(article, level, cfg)
	}

	resp, err := t.provider.Generate(ctx, contentSystemPrompt(cfg), contentPrompt(article, cfg), 3000)
	if err != nil {
		log.Printf("transform: content processing failed for %q: %v", article.TitleJa, err)
		return fallbackContent(article, level, cfg)
	}

	parsed := llm.ParseJSONResponse(resp)
	if parsed == nil {
		return fallbackContent(article, level, cfg)
	}

	p := &Processed{
		TitleEn:       llm.StringField(parsed, "en_title", article.TitleJa),
		BodyEn:        llm.StringField(parsed, "en_body", ""),
		TranslationJa: llm.StringField(parsed, "ja_translation", ""),
		Level:         level,
	}
	if p.BodyEn == "" {
		return fallbackContent(article, level, cfg)
	}
	p.WordCount = len(strings.Fields(p.BodyEn))

	if raw, ok := parsed["vocab_glossary"].([]any); ok {
		for _, item := range raw {
			entry, ok := item.(map[string]any)
			if !ok {
				continue
			}
			headword := llm.StringField(entry, "headword", "")
			if headword == "" {
				continue
			}
			p.Glossary = append(p.Glossary, GlossaryEntry{
				Headword:  headword,
				MeaningJa: llm.StringField(entry, "meaning_ja", ""),
			})
		}
	}

	log.Printf("transform: leveled %q to %s (%d words)", article.TitleJa, cfg.CEFR, p.WordCount)
	return p
}

// TranslateBody renders an English body back into natural Japanese for
// the side-by-side reading view.
func (t *Transformer) TranslateBody(ctx context.Context, bodyEn, level string) (string, error) {
	if t.provider == nil {
		return "", fmt.Errorf("no LLM provider configured")
	}
	cfg := news.Levels[level]

	prompt := fmt.Sprintf(`以下の英語ニュース記事を、日本のニュースサイトで読むような自然で読みやすい日本語に翻訳してください。

英語記事:
%q

翻訳要件:
- 直訳ではなく、日本語として最も適切で読みやすい表現を選ぶ
- ニュース記事として自然な文体にする
- 固有名詞は日本で一般的な表記に統一する
- %sレベルの学習者でも理解しやすい語彙と構文を使用

JSONフォーマットで返答:
{
  "ja_translation": "完全に自然な日本語翻訳"
}`, bodyEn, cfg.CEFR)

	resp, err := t.provider.Generate(ctx,
		"あなたは日本の新聞社で働く熟練の翻訳者です。有効なJSONフォーマットで返答してください。",
		prompt, 1500)
	if err != nil {
		return "", fmt.Errorf("generating translation: %w", err)
	}

	translation := llm.StringField(llm.ParseJSONResponse(resp), "ja_translation", "")
	if translation == "" {
		return "", fmt.Errorf("no translation in LLM response")
	}
	return translation, nil
}

func contentSystemPrompt(cfg news.LevelConfig) string {
	return fmt.Sprintf("You are an expert English language learning content creator. "+
		"Extract and include every specific detail from the original Japanese article: names, dates, "+
		"locations, numbers and concrete facts. Never use vague terms like \"someone\" or \"recently\". "+
		"Write for %s level learners. Always return valid JSON only, no other text.", cfg.CEFR)
}

func contentPrompt(article news.Article, cfg news.LevelConfig) string {
	return fmt.Sprintf(`Transform this Japanese news article into English content for %s level learners.

Original Article:
Title: %s
Content: %s
Source: %s
Category: %s
Published: %s

Requirements:
- Preserve personal names, organizations, locations, dates and numbers exactly
- Use %s sentence complexity and %s-level vocabulary
- Body must be %d-%d words and flow naturally

Return ONLY this JSON structure:
{
  "en_title": "English title (max 80 characters, include specific names)",
  "en_body": "English article body (%d-%d words)",
  "ja_translation": "Complete Japanese translation of the en_body",
  "vocab_glossary": [
    {"headword": "vocabulary word", "meaning_ja": "Japanese meaning"}
  ]
}`,
		cfg.CEFR, article.TitleJa, article.ContentJa, article.Source, article.Category,
		article.PublishedAt.Format("2006-01-02"),
		cfg.Complexity, cfg.CEFR, bodyWordsMin, bodyWordsMax, bodyWordsMin, bodyWordsMax)
}

// fallbackContent is served when the LLM is unavailable or returns
// garbage, so the learner still gets something readable.
func fallbackContent(article news.Article, level string, cfg news.LevelConfig) *Processed {
	log.Printf("transform: using fallback content for %q (%s)", article.TitleJa, cfg.CEFR)

	title := article.TitleJa
	if len([]rune(title)) > 50 {
		title = string([]rune(title)[:50])
	}

	body := fmt.Sprintf("This article discusses important developments in %s. "+
		"The content has been adapted for %s level English learners. "+
		"It covers the main points from the original Japanese article while using "+
		"appropriate vocabulary and sentence structures for this learning level.",
		article.Category, cfg.CEFR)

	return &Processed{
		TitleEn:       title,
		BodyEn:        body,
		TranslationJa: fmt.Sprintf("この記事は%s分野の重要な発展について、%sレベルの英語学習者向けに適応された内容です。", article.Category, cfg.CEFR),
		Glossary: []GlossaryEntry{
			{Headword: "development", MeaningJa: "発展、進歩"},
			{Headword: "article", MeaningJa: "記事"},
			{Headword: "important", MeaningJa: "重要な"},
		},
		WordCount:  len(strings.Fields(body)),
		Level:      level,
		IsFallback: true,
	}
}
