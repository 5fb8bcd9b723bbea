package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "processed article cache",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS processed_articles (
    url_hash TEXT NOT NULL,
    level TEXT NOT NULL,
    title_ja TEXT NOT NULL,
    en_title TEXT NOT NULL,
    en_body TEXT NOT NULL,
    ja_translation TEXT,
    glossary TEXT,
    word_count INTEGER DEFAULT 0,
    is_fallback INTEGER DEFAULT 0,
    created_at TEXT DEFAULT (datetime('now')),
    PRIMARY KEY (url_hash, level)
);
`)
			return err
		},
	},
}

func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
