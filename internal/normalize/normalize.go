// Package normalize implements the pure, deterministic pre-processing pass
// that runs before the deterministic parser (spec.md §4.1, component C2).
package normalize

import (
	"regexp"
	"strings"

	"github.com/nathanmartins/scryfallnl/internal/mapping"
)

var (
	whitespaceRE = regexp.MustCompile(`\s+`)
	wordNumberRE *regexp.Regexp
)

func init() {
	var words []string
	for w := range mapping.WordNumberMap {
		words = append(words, regexp.QuoteMeta(w))
	}
	wordNumberRE = regexp.MustCompile(`\b(` + strings.Join(words, "|") + `)\b`)
}

// quoteGlyphReplacer unifies curly/smart quotes to their ASCII forms.
var quoteGlyphReplacer = strings.NewReplacer(
	"‘", "'", "’", "'",
	"“", `"`, "”", `"`,
	"´", "'", "`", "'",
)

// Normalize lowercases, fixes quote glyphs, expands slang and synonyms,
// converts word-numbers to digits, and collapses whitespace. It is pure
// and deterministic: the same input always normalizes to the same output.
func Normalize(raw string) string {
	s := quoteGlyphReplacer.Replace(raw)
	s = strings.ToLower(s)

	for pair := mapping.SynonymMap.Oldest(); pair != nil; pair = pair.Next() {
		s = strings.ReplaceAll(s, pair.Key, pair.Value)
	}

	for pair := mapping.SlangMap.Oldest(); pair != nil; pair = pair.Next() {
		slang := pair.Key
		if strings.Contains(s, slang) {
			s = strings.ReplaceAll(s, slang, strings.ToLower(pair.Value))
		}
	}

	s = wordNumberRE.ReplaceAllStringFunc(s, func(w string) string {
		if d, ok := mapping.WordNumberMap[w]; ok {
			return d
		}
		return w
	})

	s = whitespaceRE.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// FingerprintForm is the normalization applied to derive a cache key, which
// is intentionally shallower than Normalize: only whitespace collapse and
// lowercasing, so that two queries whose slang expands differently still
// occupy distinct cache entries (spec.md §3 "Cache key").
func FingerprintForm(raw string) string {
	s := strings.ToLower(raw)
	s = whitespaceRE.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
