// Package fallback builds a best-effort Scryfall query when neither the
// pattern table nor a full deterministic parse can fully resolve a query
// (spec.md §4.10.1, the orchestrator's last resort before giving up).
package fallback

import (
	"regexp"
	"strings"

	"github.com/nathanmartins/scryfallnl/internal/parser"
	"github.com/nathanmartins/scryfallnl/internal/render"
)

// substitution is one regex -> Scryfall-fragment rule applied to whatever
// residual text survives the deterministic parser.
type substitution struct {
	re   *regexp.Regexp
	frag string
}

// residualSubstitutions is a safety net over anything the ordered parser
// cascade didn't already claim: mono-color names, a few tribal types,
// lands, formats, rarities, price words and guild names. It has no slang,
// archetype or stat entries.
var residualSubstitutions = []substitution{
	{regexp.MustCompile(`\bwhite\b`), "c:w"},
	{regexp.MustCompile(`\bblue\b`), "c:u"},
	{regexp.MustCompile(`\bblack\b`), "c:b"},
	{regexp.MustCompile(`\bred\b`), "c:r"},
	{regexp.MustCompile(`\bgreen\b`), "c:g"},
	{regexp.MustCompile(`\bcolorless\b`), "c:c"},
	{regexp.MustCompile(`\belf(?:ves)?\b`), "t:elf"},
	{regexp.MustCompile(`\bgoblins?\b`), "t:goblin"},
	{regexp.MustCompile(`\bzombies?\b`), "t:zombie"},
	{regexp.MustCompile(`\bdragons?\b`), "t:dragon"},
	{regexp.MustCompile(`\bvampires?\b`), "t:vampire"},
	{regexp.MustCompile(`\bland(?:s)?\b`), "t:land"},
	{regexp.MustCompile(`\bmodern\b`), "f:modern"},
	{regexp.MustCompile(`\bstandard\b`), "f:standard"},
	{regexp.MustCompile(`\blegacy\b`), "f:legacy"},
	{regexp.MustCompile(`\bvintage\b`), "f:vintage"},
	{regexp.MustCompile(`\bpauper\b`), "f:pauper"},
	{regexp.MustCompile(`\bcommon\b`), "r:common"},
	{regexp.MustCompile(`\buncommon\b`), "r:uncommon"},
	{regexp.MustCompile(`\brare\b`), "r:rare"},
	{regexp.MustCompile(`\bmythic\b`), "r:mythic"},
	{regexp.MustCompile(`\bcheap\b|\bbudget\b`), "mv<=3"},
	{regexp.MustCompile(`\bexpensive\b`), "mv>=6"},
	{regexp.MustCompile(`\bazorius\b`), "c:wu"},
	{regexp.MustCompile(`\bdimir\b`), "c:ub"},
	{regexp.MustCompile(`\brakdos\b`), "c:br"},
	{regexp.MustCompile(`\bgruul\b`), "c:rg"},
	{regexp.MustCompile(`\bselesnya\b`), "c:gw"},
	{regexp.MustCompile(`\borzhov\b`), "c:wb"},
	{regexp.MustCompile(`\bizzet\b`), "c:ur"},
	{regexp.MustCompile(`\bgolgari\b`), "c:bg"},
	{regexp.MustCompile(`\bboros\b`), "c:rw"},
	{regexp.MustCompile(`\bsimic\b`), "c:gu"},
}

// Filters carries the request-level filters the orchestrator appends after
// the substitution pass (spec.md §4.10.1 "Appends filter clauses from the
// request").
type Filters struct {
	Format        string
	ColorIdentity []string
}

// Build runs the deterministic parser, substitutes over whatever residual
// text remains, appends request filters, and returns the assembled query
// plus a confidence in [0.5, 0.6].
func Build(normalized string, filters Filters) (query string, confidence float64) {
	result := parser.Build(normalized)
	if result.ShortCircuitQuery != "" {
		return appendFilters(result.ShortCircuitQuery, filters), 0.6
	}

	ir := result.IR
	rendered := render.Render(ir)
	residual := ir.Remaining

	var extra []string
	matched := false
	for _, sub := range residualSubstitutions {
		if sub.re.MatchString(residual) {
			extra = append(extra, sub.frag)
			residual = sub.re.ReplaceAllString(residual, " ")
			matched = true
		}
	}
	residual = strings.Join(strings.Fields(residual), " ")

	parts := []string{rendered}
	parts = append(parts, extra...)
	if residual != "" {
		parts = append(parts, `o:"`+residual+`"`)
	}

	query = strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
	query = appendFilters(query, filters)

	confidence = 0.5
	if matched {
		confidence = 0.6
	}
	return query, confidence
}

func appendFilters(query string, filters Filters) string {
	if filters.Format != "" {
		query = strings.TrimSpace(query + " f:" + filters.Format)
	}
	if len(filters.ColorIdentity) > 0 {
		query = strings.TrimSpace(query + " id:" + strings.Join(filters.ColorIdentity, ""))
	}
	return query
}
