package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/devspace/skills-analyzer/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists cache records in a single-file sqlite database, one
// row per username with upsert-on-conflict writes.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	parentDir := filepath.Dir(dbPath)

	if err := os.MkdirAll(parentDir, 0755); err != nil {
		return nil, fmt.Errorf("creating parent directories: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)

	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS github_skills_cache (
			github_username TEXT PRIMARY KEY,
			languages TEXT NOT NULL,
			cached_at TEXT NOT NULL
		)
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating cache table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, username string) (*model.CacheRecord, error) {
	var languagesJSON, cachedAt string

	err := s.db.QueryRowContext(
		ctx,
		"SELECT languages, cached_at FROM github_skills_cache WHERE github_username = ?",
		username,
	).Scan(&languagesJSON, &cachedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("reading cache record: %w", err)
	}

	record := model.CacheRecord{Username: username}

	if err := json.Unmarshal([]byte(languagesJSON), &record.Languages); err != nil {
		return nil, fmt.Errorf("decoding cached languages: %w", err)
	}

	record.CachedAt, err = time.Parse(time.RFC3339Nano, cachedAt)

	if err != nil {
		return nil, fmt.Errorf("decoding cache timestamp: %w", err)
	}

	return &record, nil
}

func (s *SQLiteStore) Upsert(ctx context.Context, record model.CacheRecord) error {
	languagesJSON, err := json.Marshal(record.Languages)

	if err != nil {
		return fmt.Errorf("encoding languages: %w", err)
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO github_skills_cache (github_username, languages, cached_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(github_username) DO UPDATE SET
		 	languages = excluded.languages,
		 	cached_at = excluded.cached_at`,
		record.Username,
		string(languagesJSON),
		record.CachedAt.Format(time.RFC3339Nano),
	)

	if err != nil {
		return fmt.Errorf("writing cache record: %w", err)
	}

	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
