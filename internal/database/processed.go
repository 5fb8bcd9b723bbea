package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// ProcessedArticle is one cached leveled rendition of an article.
type ProcessedArticle struct {
	URLHash       string
	Level         string
	TitleJa       string
	TitleEn       string
	BodyEn        string
	TranslationJa string
	GlossaryJSON  string
	WordCount     int
	IsFallback    bool
	CreatedAt     string
}

// PutProcessed inserts or replaces a cached processed article.
func (db *DB) PutProcessed(p *ProcessedArticle) error {
	_, err := db.conn.Exec(
		`INSERT OR REPLACE INTO processed_articles
		(url_hash, level, title_ja, en_title, en_body, ja_translation, glossary, word_count, is_fallback)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.URLHash, p.Level, p.TitleJa, p.TitleEn, p.BodyEn, p.TranslationJa,
		p.GlossaryJSON, p.WordCount, boolToInt(p.IsFallback),
	)
	if err != nil {
		return fmt.Errorf("caching processed article: %w", err)
	}
	return nil
}

// GetProcessed returns the cached rendition for (urlHash, level), or nil
// when absent.
func (db *DB) GetProcessed(urlHash, level string) (*ProcessedArticle, error) {
	row := db.conn.QueryRow(
		`SELECT url_hash, level, title_ja, en_title, en_body, ja_translation, glossary, word_count, is_fallback, created_at
		FROM processed_articles WHERE url_hash = ? AND level = ?`, urlHash, level,
	)

	var p ProcessedArticle
	var fallback int
	var translation, glossary sql.NullString
	err := row.Scan(&p.URLHash, &p.Level, &p.TitleJa, &p.TitleEn, &p.BodyEn,
		&translation, &glossary, &p.WordCount, &fallback, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading processed article: %w", err)
	}
	p.TranslationJa = translation.String
	p.GlossaryJSON = glossary.String
	p.IsFallback = fallback != 0
	return &p, nil
}

// CountProcessed returns how many processed articles are cached.
func (db *DB) CountProcessed() (int, error) {
	var n int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM processed_articles").Scan(&n)
	return n, err
}

// MarshalGlossary encodes a glossary value for storage.
func MarshalGlossary(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding glossary: %w", err)
	}
	return string(data), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
