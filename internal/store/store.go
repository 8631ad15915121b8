// Package store owns the SQLite-backed durable tier: the second cache
// level, the pattern-match rule table, and translation analytics
// (spec.md §3 "durable cache", §4.7 "pattern-match table"). Grounded on the
// plain database/sql + modernc.org/sqlite usage pattern shown by the
// ninesl-scryball reference repo rather than an ORM.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps a *sql.DB opened against a single SQLite file and owns schema
// migration at startup.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS query_cache (
	query_hash   TEXT PRIMARY KEY,
	input_text   TEXT NOT NULL,
	scryfall_query TEXT NOT NULL,
	source       TEXT NOT NULL,
	explanation_readable TEXT NOT NULL DEFAULT '',
	assumptions  TEXT NOT NULL DEFAULT '[]',
	confidence   REAL NOT NULL DEFAULT 0,
	show_affiliate INTEGER NOT NULL DEFAULT 1,
	hit_count    INTEGER NOT NULL DEFAULT 0,
	created_at   INTEGER NOT NULL,
	expires_at   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS pattern_rules (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	normalized_pattern TEXT NOT NULL UNIQUE,
	scryfall_query TEXT NOT NULL,
	confidence   REAL NOT NULL DEFAULT 1.0,
	is_active    INTEGER NOT NULL DEFAULT 1,
	created_at   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS translation_events (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	input_text   TEXT NOT NULL,
	source       TEXT NOT NULL,
	confidence   REAL NOT NULL,
	created_at   INTEGER NOT NULL
);
`

// Open creates/migrates the SQLite database at path and returns a Store.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite serializes writers per connection
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping reports whether the underlying connection is still usable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CachedEntry is a durable-cache row, mirroring spec.md §3's CacheEntry
// data model (scryfallQuery plus the explanation readable/assumptions/
// confidence triple and showAffiliate).
type CachedEntry struct {
	ScryfallQuery      string
	Source             string
	ExplanationReadable string
	Assumptions        []string
	Confidence         float64
	ShowAffiliate      bool
	HitCount           int64
}

// Get looks up a query by its hash, bumping the hit count on a hit. Returns
// (entry, true, nil) on a live hit, (zero, false, nil) on a miss or expiry.
func (s *Store) Get(ctx context.Context, queryHash string, now time.Time) (CachedEntry, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT scryfall_query, source, explanation_readable, assumptions, confidence, show_affiliate, hit_count, expires_at
		 FROM query_cache WHERE query_hash = ?`,
		queryHash)

	var e CachedEntry
	var assumptionsJSON string
	var showAffiliate int
	var expiresAt int64
	if err := row.Scan(&e.ScryfallQuery, &e.Source, &e.ExplanationReadable, &assumptionsJSON,
		&e.Confidence, &showAffiliate, &e.HitCount, &expiresAt); err != nil {
		if err == sql.ErrNoRows {
			return CachedEntry{}, false, nil
		}
		return CachedEntry{}, false, fmt.Errorf("store: get: %w", err)
	}
	if now.Unix() > expiresAt {
		return CachedEntry{}, false, nil
	}
	e.ShowAffiliate = showAffiliate != 0
	_ = json.Unmarshal([]byte(assumptionsJSON), &e.Assumptions)

	if _, err := s.db.ExecContext(ctx,
		`UPDATE query_cache SET hit_count = hit_count + 1 WHERE query_hash = ?`, queryHash); err != nil {
		return CachedEntry{}, false, fmt.Errorf("store: bump hit count: %w", err)
	}
	e.HitCount++
	return e, true, nil
}

// PutParams carries the fields persisted to a durable-cache row, beyond the
// hash/TTL bookkeeping Put already takes positionally.
type PutParams struct {
	InputText           string
	ScryfallQuery       string
	Source              string
	ExplanationReadable string
	Assumptions         []string
	Confidence          float64
	ShowAffiliate       bool
}

// Put upserts a durable-cache row with a fixed TTL from now.
func (s *Store) Put(ctx context.Context, queryHash string, p PutParams, ttl time.Duration, now time.Time) error {
	assumptionsJSON, err := json.Marshal(p.Assumptions)
	if err != nil {
		return fmt.Errorf("store: marshal assumptions: %w", err)
	}
	showAffiliate := 0
	if p.ShowAffiliate {
		showAffiliate = 1
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO query_cache (query_hash, input_text, scryfall_query, source, explanation_readable, assumptions, confidence, show_affiliate, hit_count, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
		ON CONFLICT(query_hash) DO UPDATE SET
			scryfall_query = excluded.scryfall_query,
			source = excluded.source,
			explanation_readable = excluded.explanation_readable,
			assumptions = excluded.assumptions,
			confidence = excluded.confidence,
			show_affiliate = excluded.show_affiliate,
			expires_at = excluded.expires_at
	`, queryHash, p.InputText, p.ScryfallQuery, p.Source, p.ExplanationReadable, string(assumptionsJSON),
		p.Confidence, showAffiliate, now.Unix(), now.Add(ttl).Unix())
	if err != nil {
		return fmt.Errorf("store: put: %w", err)
	}
	return nil
}

// PatternRule is a row from the pattern-match table.
type PatternRule struct {
	NormalizedPattern string
	ScryfallQuery     string
	Confidence        float64
}

// ActivePatterns returns every active rule with confidence >= minConfidence
// (spec.md §4.7: "is_active AND confidence >= 0.8").
func (s *Store) ActivePatterns(ctx context.Context, minConfidence float64) ([]PatternRule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT normalized_pattern, scryfall_query, confidence FROM pattern_rules
		 WHERE is_active = 1 AND confidence >= ?`, minConfidence)
	if err != nil {
		return nil, fmt.Errorf("store: active patterns: %w", err)
	}
	defer rows.Close()

	var out []PatternRule
	for rows.Next() {
		var r PatternRule
		if err := rows.Scan(&r.NormalizedPattern, &r.ScryfallQuery, &r.Confidence); err != nil {
			return nil, fmt.Errorf("store: scan pattern: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RecordEvent appends a translation-analytics row. Nothing in the
// orchestrator or the entry points calls it.
func (s *Store) RecordEvent(ctx context.Context, inputText, source string, confidence float64, now time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO translation_events (input_text, source, confidence, created_at) VALUES (?, ?, ?, ?)`,
		inputText, source, confidence, now.Unix())
	if err != nil {
		return fmt.Errorf("store: record event: %w", err)
	}
	return nil
}
