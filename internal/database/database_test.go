package database

import (
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open db in nested dir: %v", err)
	}
	defer db.Close()

	if db.Path() != path {
		t.Errorf("expected path %q, got %q", path, db.Path())
	}
}

func TestPutAndGetProcessed(t *testing.T) {
	db := openTestDB(t)

	p := &ProcessedArticle{
		URLHash:       "abc123",
		Level:         "beginner",
		TitleJa:       "東京で停電",
		TitleEn:       "Power Outage in Tokyo",
		BodyEn:        "A big power outage happened in Tokyo today.",
		TranslationJa: "今日、東京で大きな停電がありました。",
		GlossaryJSON:  `[{"word":"outage","meaning":"停電"}]`,
		WordCount:     8,
	}
	if err := db.PutProcessed(p); err != nil {
		t.Fatalf("failed to put processed article: %v", err)
	}

	got, err := db.GetProcessed("abc123", "beginner")
	if err != nil {
		t.Fatalf("failed to get processed article: %v", err)
	}
	if got == nil {
		t.Fatal("expected cached article, got nil")
	}
	if got.TitleEn != p.TitleEn {
		t.Errorf("expected title %q, got %q", p.TitleEn, got.TitleEn)
	}
	if got.TranslationJa != p.TranslationJa {
		t.Errorf("expected translation %q, got %q", p.TranslationJa, got.TranslationJa)
	}
	if got.CreatedAt == "" {
		t.Error("expected created_at to be set")
	}
}

func TestGetProcessedMissingReturnsNil(t *testing.T) {
	db := openTestDB(t)

	got, err := db.GetProcessed("nosuch", "beginner")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing row, got %+v", got)
	}
}

func TestProcessedKeyedByLevel(t *testing.T) {
	db := openTestDB(t)

	for _, level := range []string{"beginner", "advanced"} {
		p := &ProcessedArticle{
			URLHash: "abc123",
			Level:   level,
			TitleJa: "東京で停電",
			TitleEn: "Power Outage (" + level + ")",
			BodyEn:  "body",
		}
		if err := db.PutProcessed(p); err != nil {
			t.Fatalf("failed to put %s rendition: %v", level, err)
		}
	}

	got, err := db.GetProcessed("abc123", "advanced")
	if err != nil {
		t.Fatalf("failed to get advanced rendition: %v", err)
	}
	if got == nil || got.TitleEn != "Power Outage (advanced)" {
		t.Errorf("expected level-specific rendition, got %+v", got)
	}

	n, err := db.CountProcessed()
	if err != nil {
		t.Fatalf("failed to count: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 cached renditions, got %d", n)
	}
}

func TestPutProcessedReplacesExisting(t *testing.T) {
	db := openTestDB(t)

	p := &ProcessedArticle{URLHash: "abc123", Level: "beginner", TitleJa: "t", TitleEn: "first", BodyEn: "b"}
	if err := db.PutProcessed(p); err != nil {
		t.Fatalf("failed to put: %v", err)
	}
	p.TitleEn = "second"
	if err := db.PutProcessed(p); err != nil {
		t.Fatalf("failed to replace: %v", err)
	}

	got, err := db.GetProcessed("abc123", "beginner")
	if err != nil {
		t.Fatalf("failed to get: %v", err)
	}
	if got.TitleEn != "second" {
		t.Errorf("expected replacement, got %q", got.TitleEn)
	}
	n, _ := db.CountProcessed()
	if n != 1 {
		t.Errorf("expected 1 row after replace, got %d", n)
	}
}

func TestMarshalGlossary(t *testing.T) {
	s, err := MarshalGlossary([]map[string]string{{"word": "outage", "meaning": "停電"}})
	if err != nil {
		t.Fatalf("failed to marshal glossary: %v", err)
	}
	if s == "" || s == "null" {
		t.Errorf("unexpected glossary encoding %q", s)
	}
}
