package store

import (
	"context"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutAndGetRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Unix(1700000000, 0)

	if err := s.Put(ctx, "hash1", PutParams{
		InputText:           "mono red creatures",
		ScryfallQuery:       "c:r t:creature",
		Source:              "deterministic",
		ExplanationReadable: "Parsed deterministically.",
		Assumptions:         []string{"assumed paper"},
		Confidence:          0.9,
		ShowAffiliate:       true,
	}, time.Hour, now); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	entry, ok, err := s.Get(ctx, "hash1", now.Add(time.Minute))
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Fatal("expected a live hit")
	}
	if entry.ScryfallQuery != "c:r t:creature" || entry.Source != "deterministic" {
		t.Errorf("Get() = %+v, unexpected entry", entry)
	}
	if entry.ExplanationReadable != "Parsed deterministically." || entry.Confidence != 0.9 || !entry.ShowAffiliate {
		t.Errorf("Get() = %+v, unexpected explanation fields", entry)
	}
	if len(entry.Assumptions) != 1 || entry.Assumptions[0] != "assumed paper" {
		t.Errorf("Get() Assumptions = %+v, want [assumed paper]", entry.Assumptions)
	}
	if entry.HitCount != 1 {
		t.Errorf("HitCount = %d, want 1", entry.HitCount)
	}
}

func TestGetExpiredEntryIsAMiss(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Unix(1700000000, 0)

	if err := s.Put(ctx, "hash2", PutParams{
		InputText:     "cheap ramp",
		ScryfallQuery: "mv<=3 otag:ramp",
		Source:        "deterministic",
		Confidence:    0.9,
	}, time.Minute, now); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	_, ok, err := s.Get(ctx, "hash2", now.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Fatal("expected expired entry to be reported as a miss")
	}
}

func TestGetMissingEntryIsAMiss(t *testing.T) {
	s := openTestStore(t)
	_, ok, err := s.Get(context.Background(), "nonexistent", time.Now())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Fatal("expected miss for an absent hash")
	}
}

func TestPutUpsertsOnConflict(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Unix(1700000000, 0)

	if err := s.Put(ctx, "hash3", PutParams{
		InputText: "query a", ScryfallQuery: "c:r", Source: "deterministic", Confidence: 0.9,
	}, time.Hour, now); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := s.Put(ctx, "hash3", PutParams{
		InputText: "query a", ScryfallQuery: "c:r t:creature", Source: "ai", Confidence: 0.8,
	}, time.Hour, now); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	entry, ok, err := s.Get(ctx, "hash3", now.Add(time.Minute))
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Fatal("expected a hit after upsert")
	}
	if entry.ScryfallQuery != "c:r t:creature" || entry.Source != "ai" {
		t.Errorf("Get() = %+v, expected upserted values", entry)
	}
}

func TestActivePatternsFiltersByConfidenceAndActive(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.db.ExecContext(ctx, `INSERT INTO pattern_rules (normalized_pattern, scryfall_query, confidence, is_active, created_at) VALUES
		('creatures mono red', 'c:r t:creature', 0.9, 1, 0),
		('low confidence pattern', 'c:u', 0.5, 1, 0),
		('inactive pattern', 'c:b', 0.95, 0, 0)`); err != nil {
		t.Fatalf("seed insert error = %v", err)
	}

	rules, err := s.ActivePatterns(ctx, 0.8)
	if err != nil {
		t.Fatalf("ActivePatterns() error = %v", err)
	}
	if len(rules) != 1 {
		t.Fatalf("ActivePatterns() returned %d rules, want 1: %+v", len(rules), rules)
	}
	if rules[0].NormalizedPattern != "creatures mono red" {
		t.Errorf("ActivePatterns()[0] = %+v, unexpected rule", rules[0])
	}
}

func TestRecordEvent(t *testing.T) {
	s := openTestStore(t)
	if err := s.RecordEvent(context.Background(), "mono red creatures", "cache_memory", 0.95, time.Now()); err != nil {
		t.Fatalf("RecordEvent() error = %v", err)
	}
}

func TestPing(t *testing.T) {
	s := openTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
}
