// Package parser implements the deterministic cascade that turns a
// normalized English query into a SearchIR (spec.md §4.3, component C3).
//
// Build runs an ordered list of stage functions, each of type
// stageFunc: (*searchir.IR, string) -> string. A stage consumes the text it
// recognises (by replacing matched spans with a single space) and may
// mutate the IR. Order matters: later stages must not be able to
// re-interpret text an earlier stage already claimed. The order here
// mirrors spec.md §4.3 exactly.
package parser

import (
	"regexp"
	"strings"

	"github.com/nathanmartins/scryfallnl/internal/mapping"
	"github.com/nathanmartins/scryfallnl/internal/searchir"
)

// Result is the outcome of Build: either a short-circuited deterministic
// query (card-name path) or a fully populated IR.
type Result struct {
	// ShortCircuitQuery is non-empty when the card-name short-circuit fired.
	// When set, IR is empty and the caller should emit this query directly.
	ShortCircuitQuery string
	IR                *searchir.IR
}

type stageFunc func(ir *searchir.IR, text string) string

// Build runs the full cascade over an already-normalized query string.
func Build(normalized string) Result {
	if q, ok := cardNameShortCircuit(normalized); ok {
		return Result{ShortCircuitQuery: q, IR: searchir.New()}
	}

	ir := searchir.New()
	text := normalized

	stages := []stageFunc{
		stageSlangSyntax,
		stageCardsLike,
		stageTagFirst,
		stageTokenCreation,
		stageEnablers,
		stageKeywords,
		stageArchetypes,
		stageExclusions,
		stageCompanions,
		stageSpecialPatterns,
		stageOraclePatterns,
		stageTargeting,
		stageColors,
		stageTypes,
		stageSupertypesSubtypes,
		stagePostTypeCorrection,
		stageManaAndEquipment,
		stagePriceHeuristics,
		stageNumeric,
		stageYearPhrases,
	}

	for _, s := range stages {
		text = s(ir, text)
	}

	text = residualCleanup(text)
	ir.Remaining = text
	return Result{IR: ir}
}

// --- stage 1: card-name short-circuit ---------------------------------

// mtgKeywordVocabulary is the set of single-word MTG keywords/search terms
// whose presence disqualifies a raw query from looking like a bare card
// name (spec.md §4.3 step 1).
var mtgKeywordVocabulary = map[string]bool{
	"flying": true, "trample": true, "haste": true, "creature": true,
	"creatures": true, "commander": true, "cheap": true, "budget": true,
	"ramp": true, "removal": true, "draw": true, "color": true,
	"mono": true, "green": true, "blue": true, "black": true, "red": true,
	"white": true, "colorless": true, "artifact": true, "enchantment": true,
	"sorcery": true, "instant": true, "planeswalker": true, "land": true,
	"cards": true, "like": true, "spells": true, "destroy": true,
	"alternatives": true,
}

var possessiveRE = regexp.MustCompile(`'s\b`)
var wordRE = regexp.MustCompile(`[A-Za-z']+`)

// cardNameShortCircuit recognises input that looks like a bare card name:
// 1-6 words, none of them search vocabulary (a leading "!" skips the
// vocabulary check). Capitalisation is not checked: the text it receives
// is already lowercased, so any short phrase without vocabulary words is
// treated as a card name.
func cardNameShortCircuit(normalized string) (string, bool) {
	explicit := strings.HasPrefix(normalized, "!")
	normalized = strings.TrimPrefix(normalized, "!")

	words := strings.Fields(normalized)
	if len(words) == 0 || len(words) > 6 {
		return "", false
	}
	if !explicit {
		for _, w := range words {
			bare := strings.ToLower(possessiveRE.ReplaceAllString(w, ""))
			bare = strings.Trim(bare, ".,!?")
			if mtgKeywordVocabulary[bare] {
				return "", false
			}
		}
	}
	// A single-word query with no recognised vocabulary is treated as a
	// one-word card name lookup.
	if len(words) == 1 && !explicit {
		return "name:" + words[0], true
	}
	return `!"` + titleCase(strings.Join(words, " ")) + `"`, true
}

// smallWords lists articles/conjunctions/prepositions that conventional
// title case keeps lowercase except when leading.
var smallWords = map[string]bool{
	"of": true, "the": true, "a": true, "an": true, "and": true,
	"or": true, "in": true, "on": true, "to": true,
}

func titleCase(s string) string {
	parts := strings.Fields(s)
	for i, p := range parts {
		if p == "" {
			continue
		}
		if i > 0 && smallWords[p] {
			continue
		}
		r := []rune(p)
		r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		parts[i] = string(r)
	}
	return strings.Join(parts, " ")
}

// --- stage 2: slang terms (regex -> raw syntax) -------------------------

func stageSlangSyntax(ir *searchir.IR, text string) string {
	for pair := mapping.SlangToSyntaxMap.Oldest(); pair != nil; pair = pair.Next() {
		re := regexp.MustCompile(pair.Key)
		if re.MatchString(text) {
			ir.AddSpecial(pair.Value)
			text = re.ReplaceAllString(text, " ")
		}
	}
	return text
}

// --- stage 3: cards-like -------------------------------------------------

var cardsLikeRE = []*regexp.Regexp{
	regexp.MustCompile(`\bcards? like ([a-z][a-z ',-]*?)(?:\s*$|[.,;]| or |\band\b)`),
	regexp.MustCompile(`\b([a-z][a-z ',-]*?) alternatives\b`),
	regexp.MustCompile(`\bfunctional(?:ly)? (?:reprints?|equivalents?) (?:of|to) ([a-z][a-z ',-]*?)(?:\s*$|[.,;])`),
}

func stageCardsLike(ir *searchir.IR, text string) string {
	for _, re := range cardsLikeRE {
		m := re.FindStringSubmatchIndex(text)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(text[m[2]:m[3]])
		if expr, ok := mapping.CardsLikeMap[name]; ok {
			ir.AddSpecial(expr)
		} else if name != "" {
			ir.Warn("unknown reference card \"" + name + "\"; approximated with a generic similarity fragment")
			ir.AddOracle(`o:"` + name + `"`)
		}
		text = text[:m[0]] + " " + text[m[1]:]
	}
	return text
}

// --- stage 4: tag-first mappings -----------------------------------------

func stageTagFirst(ir *searchir.IR, text string) string {
	for _, entry := range mapping.TagFirstPatterns {
		re := regexp.MustCompile(entry.Pattern)
		if !re.MatchString(text) {
			continue
		}
		tagName := strings.TrimPrefix(entry.Otag, "otag:")
		if mapping.KnownOtags[tagName] {
			ir.AddTag(entry.Otag)
		} else {
			ir.Warn("oracle tag \"" + entry.Otag + "\" is not on the known-tags allowlist; used an oracle-text approximation instead")
			ir.AddOracle(entry.Fallback)
		}
		text = re.ReplaceAllString(text, " ")
	}
	return text
}

// --- stage 5: token creation ----------------------------------------------

var tokenCreationRE = regexp.MustCompile(`\bcreates?\s+(?:\d+\s+|[a-z]+\s+)*tokens?\b`)

func stageTokenCreation(ir *searchir.IR, text string) string {
	if tokenCreationRE.MatchString(text) {
		ir.AddOracle(`o:"create" o:"token"`)
		text = tokenCreationRE.ReplaceAllString(text, " ")
	}
	return text
}

// --- stage 6: enablers / "grants X" ---------------------------------------

var grantsRE = regexp.MustCompile(`\b(?:gives?|grants?|with)\s+(flying|trample|haste|deathtouch|indestructible)\b`)

func stageEnablers(ir *searchir.IR, text string) string {
	m := grantsRE.FindAllStringSubmatchIndex(text, -1)
	for i := len(m) - 1; i >= 0; i-- {
		idx := m[i]
		kw := text[idx[2]:idx[3]]
		tag := "otag:gives-" + kw
		if mapping.KnownOtags["gives-"+kw] {
			ir.AddTag(tag)
		} else {
			ir.AddOracle(`o:"target creature gains ` + kw + `"`)
		}
		text = text[:idx[0]] + " " + text[idx[1]:]
	}
	return text
}

// --- stage 7: keyword abilities --------------------------------------------

var keywordWithRE = regexp.MustCompile(`\b(?:with|has)\s+([a-z ]+?)\b(?:creature|creatures|\.|,|$)`)

func stageKeywords(ir *searchir.IR, text string) string {
	applied := map[string]bool{}
	apply := func(kw string) bool {
		if applied[kw] {
			return false
		}
		if expr, ok := mapping.KeywordMap[kw]; ok {
			ir.AddSpecial(expr)
			applied[kw] = true
			return true
		}
		return false
	}

	// Pass 1: "with/has FOO"
	matches := keywordWithRE.FindAllStringSubmatchIndex(text, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		kw := strings.TrimSpace(text[m[2]:m[3]])
		if apply(kw) {
			text = text[:m[0]] + " " + text[m[1]:]
		}
	}

	// Pass 2: "FOO creature(s)"
	for kw := range mapping.KeywordMap {
		if applied[kw] {
			continue
		}
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `\s+creatures?\b`)
		if re.MatchString(text) {
			apply(kw)
			text = re.ReplaceAllString(text, " creature ")
		}
	}

	// Pass 3: bare keyword word
	for kw := range mapping.KeywordMap {
		if applied[kw] {
			continue
		}
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `\b`)
		if re.MatchString(text) {
			apply(kw)
			text = re.ReplaceAllString(text, " ")
		}
	}
	return text
}

// --- stage 8: archetypes ----------------------------------------------------

func stageArchetypes(ir *searchir.IR, text string) string {
	for pair := mapping.ArchetypeMap.Oldest(); pair != nil; pair = pair.Next() {
		word := pair.Key
		guarded := false
		for _, phrase := range mapping.ArchetypeVerbPhraseGuard[word] {
			if strings.Contains(text, phrase) {
				guarded = true
				break
			}
		}
		if guarded {
			continue
		}
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(word) + `\b`)
		if re.MatchString(text) {
			ir.AddOracle(pair.Value)
			text = re.ReplaceAllString(text, " ")
		}
	}
	return text
}

// --- stage 9: exclusions -----------------------------------------------------

var exclusionRE = regexp.MustCompile(`\b(?:not a|non-|no)\s*([a-z]+?)s?\b|\b([a-z]+)-less\b`)

func stageExclusions(ir *searchir.IR, text string) string {
	m := exclusionRE.FindAllStringSubmatchIndex(text, -1)
	for i := len(m) - 1; i >= 0; i-- {
		idx := m[i]
		var word string
		if idx[4] >= 0 {
			word = text[idx[4]:idx[5]]
		} else if idx[2] >= 0 {
			word = text[idx[2]:idx[3]]
		}
		word = strings.TrimSpace(word)
		if word == "" {
			continue
		}
		ir.AddExcludedType(singularize(word))
		text = text[:idx[0]] + " " + text[idx[1]:]
	}
	return text
}

func singularize(w string) string {
	if strings.HasSuffix(w, "ies") && len(w) > 3 {
		return w[:len(w)-3] + "y"
	}
	if strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss") && len(w) > 1 {
		return w[:len(w)-1]
	}
	return w
}

// --- stage 10: companions -----------------------------------------------------

func stageCompanions(ir *searchir.IR, text string) string {
	if !strings.Contains(text, "companion") {
		return text
	}
	found := false
	for name, restriction := range mapping.CompanionRestrictions {
		if strings.Contains(text, name) {
			ir.AddSpecial(restriction)
			ir.AddOracle(`o:"companion"`)
			text = strings.ReplaceAll(text, name, " ")
			found = true
		}
	}
	if !found {
		ir.AddSpecial("is:companion")
	}
	text = strings.ReplaceAll(text, "companion", " ")
	return text
}

// --- stage 11: special patterns ------------------------------------------------

var (
	commanderDeckRE   = regexp.MustCompile(`\bcommander\s+(?:deck|format|legal)\b|\blegal\s+(?:in|for)\s+commander\b`)
	commanderBareRE   = regexp.MustCompile(`\bcommander\b`)
	formatFromRE      = regexp.MustCompile(`\b(?:from|in)\s+(modern|standard|legacy|vintage|pioneer|pauper|historic|alchemy)\b`)
)

func stageSpecialPatterns(ir *searchir.IR, text string) string {
	if commanderDeckRE.MatchString(text) {
		ir.AddSpecial("f:commander")
		text = commanderDeckRE.ReplaceAllString(text, " ")
	} else if commanderBareRE.MatchString(text) {
		ir.AddSpecial("is:commander")
		text = commanderBareRE.ReplaceAllString(text, " ")
	}

	for _, m := range formatFromRE.FindAllStringSubmatch(text, -1) {
		ir.AddSpecial("f:" + m[1])
	}
	text = formatFromRE.ReplaceAllString(text, " ")

	return text
}

// --- stage 12: oracle patterns -------------------------------------------------

type oraclePattern struct {
	re   *regexp.Regexp
	tag  string
	frag string
}

var oraclePatterns = []oraclePattern{
	{regexp.MustCompile(`\bdraws? (?:a |an |\d+ )?cards?\b`), "otag:draw", `o:"draw a card"`},
	{regexp.MustCompile(`\bsearch(?:es)? for (?:a |an )?lands?\b`), "", `o:"search your library" o:"land"`},
	{regexp.MustCompile(`\breturn(?:s)? (?:cards? )?from (?:the |your )?graveyard\b`), "", `o:"return" o:"from your graveyard" o:"to your hand"`},
	{regexp.MustCompile(`\bcop(?:y|ies) (?:a )?spells?\b`), "", `o:"copy target" o:"spell"`},
	{regexp.MustCompile(`\bcost reduction\b|\breduces? the cost\b`), "", `o:"costs {1} less to cast"`},
	{regexp.MustCompile(`\bprevents? (?:all )?(?:combat )?damage\b|\bprevent attacks?\b`), "", `o:"prevent all combat damage"`},
	{regexp.MustCompile(`\bwhen an opponent\b`), "", `o:"whenever an opponent"`},
}

func stageOraclePatterns(ir *searchir.IR, text string) string {
	for _, p := range oraclePatterns {
		if !p.re.MatchString(text) {
			continue
		}
		if p.tag != "" {
			tagName := strings.TrimPrefix(p.tag, "otag:")
			if mapping.KnownOtags[tagName] {
				ir.AddTag(p.tag)
			} else {
				ir.Warn("approximated \"" + p.tag + "\" with oracle text")
				ir.AddOracle(p.frag)
			}
		} else {
			ir.AddOracle(p.frag)
		}
		text = p.re.ReplaceAllString(text, " ")
	}
	return text
}

// --- stage 13: targeting patterns (must precede type parsing) -----------------

// targetEffectTable maps (effect verb) -> Scryfall fragment when the target
// is "creature". destroy/remove/kill/damage/counter all collapse onto the
// creature-removal tag; exile has no matching tag so it falls back to raw
// oracle text (spec.md "Removal/target disambiguation").
var targetEffectTable = map[string]string{
	"destroy": "otag:creature-removal",
	"remove":  "otag:creature-removal",
	"kill":    "otag:creature-removal",
	"damage":  "otag:creature-removal",
	"counter": "otag:creature-removal",
	"exile":   `o:"exile target creature"`,
}

var targetingRE = regexp.MustCompile(`\b(destroy|remove|kill|damage|counter|exile)\w*\s+(?:target\s+|a\s+|an\s+)?(creature|creatures)\b`)

func stageTargeting(ir *searchir.IR, text string) string {
	m := targetingRE.FindAllStringSubmatchIndex(text, -1)
	for i := len(m) - 1; i >= 0; i-- {
		idx := m[i]
		verb := text[idx[2]:idx[3]]
		expr := targetEffectTable[verb]
		if strings.HasPrefix(expr, "otag:") {
			tagName := strings.TrimPrefix(expr, "otag:")
			if mapping.KnownOtags[tagName] {
				ir.AddTag(expr)
			} else {
				ir.AddOracle(`o:"destroy target creature"`)
			}
		} else {
			ir.AddOracle(expr)
		}
		text = text[:idx[0]] + " " + text[idx[1]:]
	}
	return text
}

// residualCleanup strips filler words from whatever text survived every
// stage (spec.md §4.3 step 22). Leftover non-empty text triggers LLM
// fallback in the orchestrator.
var fillerWords = map[string]bool{
	"the": true, "a": true, "an": true, "that": true, "which": true,
	"with": true, "cards": true, "card": true, "released": true,
	"printed": true, "utility": true, "synergy": true, "token": true,
	"tokens": true, "opponent": true, "opponents": true, "for": true,
	"of": true, "some": true, "any": true, "and": true,
}

func residualCleanup(text string) string {
	fields := strings.Fields(text)
	out := fields[:0]
	for _, w := range fields {
		if fillerWords[w] {
			continue
		}
		out = append(out, w)
	}
	return strings.Join(out, " ")
}
