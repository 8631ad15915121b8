// Package patterns implements the exact-match pattern table consulted
// before the deterministic parser runs (spec.md §4.7, component C7).
package patterns

import (
	"context"
	"sort"
	"strings"

	"github.com/nathanmartins/scryfallnl/internal/store"
)

// wordSort normalizes a phrase for order-independent matching: lowercase,
// split on whitespace, sort the words, rejoin. "blue flying creature" and
// "flying blue creature" land on the same key.
func wordSort(phrase string) string {
	words := strings.Fields(strings.ToLower(phrase))
	sort.Strings(words)
	return strings.Join(words, " ")
}

// Rule is an in-memory pattern-match entry.
type Rule struct {
	Query      string
	Confidence float64
}

// Table is a loaded snapshot of the active, confident pattern rules plus a
// small set of hard-coded critical rules that always apply regardless of
// what the durable store currently holds.
type Table struct {
	byKey map[string]Rule
}

// criticalRules are seeded unconditionally: these are common enough and
// unambiguous enough that they should never depend on the rule table being
// populated (spec.md §4.7 "hard-coded critical rules").
var criticalRules = map[string]Rule{
	wordSort("mono red creatures"):      {Query: "c=r id=r t:creature", Confidence: 1.0},
	wordSort("destroy target creature"): {Query: "otag:creature-removal", Confidence: 1.0},
	wordSort("board wipe"):              {Query: `o:"destroy all creatures"`, Confidence: 1.0},
}

// Load reads active rules with confidence >= minConfidence from the
// durable store and layers the hard-coded critical rules on top, so a
// stored rule for the same phrase never replaces a critical one.
func Load(ctx context.Context, s *store.Store, minConfidence float64) (*Table, error) {
	t := &Table{byKey: make(map[string]Rule, len(criticalRules))}

	if s != nil {
		rules, err := s.ActivePatterns(ctx, minConfidence)
		if err != nil {
			return nil, err
		}
		for _, r := range rules {
			t.byKey[wordSort(r.NormalizedPattern)] = Rule{Query: r.ScryfallQuery, Confidence: r.Confidence}
		}
	}

	for k, v := range criticalRules {
		t.byKey[k] = v
	}
	return t, nil
}

// Match looks up normalized input text against the table using
// order-independent word-sort matching.
func (t *Table) Match(normalized string) (Rule, bool) {
	r, ok := t.byKey[wordSort(normalized)]
	return r, ok
}
