// Package validate checks a rendered Scryfall query for structural defects
// and auto-corrects the ones it can fix without changing search intent
// (spec.md §4.5, component C5).
package validate

import (
	"regexp"
	"strings"

	"github.com/nathanmartins/scryfallnl/internal/mapping"
)

// Flag names a specific quality issue detected during validation.
type Flag string

const (
	FlagUnbalancedQuotes       Flag = "unbalanced_quotes"
	FlagUnbalancedSingleQuotes Flag = "unbalanced_single_quotes"
	FlagUnbalancedParens       Flag = "unbalanced_parens"
	FlagUnknownSearchKey       Flag = "unknown_search_key"
	FlagUnknownOracleTag       Flag = "unknown_oracle_tag"
	FlagOrphanOperator         Flag = "orphan_operator"
	FlagVerbosePhrase          Flag = "verbose_phrase"
	FlagGamePaper              Flag = "redundant_game_paper"
	FlagEmptyParens            Flag = "empty_parens"
	FlagLegacySetYear          Flag = "legacy_set_year_syntax"
	FlagTruncated              Flag = "truncated_400_chars"
	FlagDisallowedCharacters   Flag = "disallowed_characters_stripped"
	FlagPowTouArithmetic       Flag = "unsupported_pow_tou_arithmetic"
)

// maxQueryLen is the hard cap on a sanitized query's length (spec.md §4.5:
// "truncate to 400 chars").
const maxQueryLen = 400

// Result is the outcome of Validate: the corrected query plus every flag
// raised along the way (raised even when a correction fixed the issue, so
// callers can log what happened).
type Result struct {
	Query string
	Flags []Flag
}

// Validate runs the ordered sanitisation cascade (spec.md §4.5): normalise
// whitespace, normalise OR-groups, truncate to 400 chars, strip disallowed
// characters, rewrite legacy set/year syntax, drop unsupported
// power+toughness arithmetic, balance curly braces, strip unrecognised
// search keys and oracle tags, strip unbalanced parens, balance double
// quotes, balance single quotes. A handful of stylistic auto-corrections
// (verbose phrasings, redundant game:paper, empty parens) run afterward.
func Validate(query string) Result {
	r := Result{Query: query}

	r.Query = strings.Join(strings.Fields(r.Query), " ")
	r.Query, r.Flags = normalizeOrGroups(r.Query, r.Flags)
	r.Query, r.Flags = truncateQuery(r.Query, r.Flags)
	r.Query, r.Flags = stripDisallowedCharacters(r.Query, r.Flags)
	r.Query, r.Flags = rewriteLegacySetYear(r.Query, r.Flags)
	r.Query, r.Flags = stripPowTouArithmetic(r.Query, r.Flags)
	r.Query, r.Flags = balanceDelimiters(r.Query, r.Flags, '{', '}')
	r.Query, r.Flags = stripUnknownKeys(r.Query, r.Flags)
	r.Query, r.Flags = balanceDelimiters(r.Query, r.Flags, '(', ')')
	r.Query, r.Flags = balanceQuotes(r.Query, r.Flags)
	r.Query, r.Flags = balanceSingleQuotes(r.Query, r.Flags)

	r.Query, r.Flags = correctVerbosePhrases(r.Query, r.Flags)
	r.Query, r.Flags = stripGamePaper(r.Query, r.Flags)
	r.Query, r.Flags = stripEmptyParens(r.Query, r.Flags)
	r.Query = strings.Join(strings.Fields(r.Query), " ")

	return r
}

func truncateQuery(q string, flags []Flag) (string, []Flag) {
	if len(q) <= maxQueryLen {
		return q, flags
	}
	flags = append(flags, FlagTruncated)
	return strings.TrimSpace(q[:maxQueryLen]), flags
}

// disallowedCharRE strips anything outside the characters Scryfall search
// syntax and its regex-metacharacter forms (o:/foo.*bar/) actually use.
var disallowedCharRE = regexp.MustCompile(`[^a-zA-Z0-9\s:=<>(){}\[\]"'/\\^$.*+?|,!_\-]`)

func stripDisallowedCharacters(q string, flags []Flag) (string, []Flag) {
	if !disallowedCharRE.MatchString(q) {
		return q, flags
	}
	flags = append(flags, FlagDisallowedCharacters)
	return disallowedCharRE.ReplaceAllString(q, ""), flags
}

// powTouArithmeticRE matches an arithmetic offset applied directly to a
// power/toughness key (e.g. "pow+1", "toughness-2"), which Scryfall's
// search grammar has no operator for.
var powTouArithmeticRE = regexp.MustCompile(`(?i)\b(?:pow|power|tou|toughness)\s*[+\-]\s*\d+\b`)

func stripPowTouArithmetic(q string, flags []Flag) (string, []Flag) {
	if !powTouArithmeticRE.MatchString(q) {
		return q, flags
	}
	flags = append(flags, FlagPowTouArithmetic)
	stripped := powTouArithmeticRE.ReplaceAllString(q, " ")
	return repairOrphanOperators(stripped, flags)
}

func balanceQuotes(q string, flags []Flag) (string, []Flag) {
	if strings.Count(q, `"`)%2 != 0 {
		flags = append(flags, FlagUnbalancedQuotes)
		q += `"`
	}
	return q, flags
}

// apostropheRE matches a single quote used as a contraction/possessive
// apostrophe (Jace's, can't) rather than as a quoting delimiter, so it is
// excluded from the odd/even balance check below (spec.md §8 invariant 5).
var apostropheRE = regexp.MustCompile(`[a-zA-Z]'[a-zA-Z]`)

func balanceSingleQuotes(q string, flags []Flag) (string, []Flag) {
	apostrophes := len(apostropheRE.FindAllString(q, -1))
	total := strings.Count(q, `'`)
	if (total-apostrophes)%2 == 0 {
		return q, flags
	}
	flags = append(flags, FlagUnbalancedSingleQuotes)
	return q + `'`, flags
}

func balanceDelimiters(q string, flags []Flag, open, close rune) (string, []Flag) {
	depth := 0
	for _, r := range q {
		switch r {
		case open:
			depth++
		case close:
			depth--
		}
	}
	if depth == 0 {
		return q, flags
	}
	flag := FlagUnbalancedParens
	if open == '{' {
		flag = FlagUnbalancedParens
	}
	flags = append(flags, flag)
	if depth > 0 {
		q += strings.Repeat(string(close), depth)
	} else {
		q = strings.Repeat(string(open), -depth) + q
	}
	return q, flags
}

var tokenRE = regexp.MustCompile(`(-?)([A-Za-z]+):(\S+)`)

// stripUnknownKeys removes any key:value token whose key is not on the
// known allowlist, and any otag:/oracletag: token whose tag value is not on
// the known-tags allowlist. Orphaned "or"/"and" connectives left dangling
// by a removed token are cleaned up afterward.
func stripUnknownKeys(q string, flags []Flag) (string, []Flag) {
	out := tokenRE.ReplaceAllStringFunc(q, func(tok string) string {
		m := tokenRE.FindStringSubmatch(tok)
		key := strings.ToLower(m[2])
		val := m[3]

		if key == "otag" || key == "oracletag" {
			tag := strings.Trim(val, `"`)
			if !mapping.KnownOtags[tag] {
				flags = append(flags, FlagUnknownOracleTag)
				return ""
			}
			return tok
		}

		if !mapping.ValidSearchKeys[key] {
			flags = append(flags, FlagUnknownSearchKey)
			return ""
		}
		return tok
	})
	return repairOrphanOperators(out, flags)
}

var orphanOperatorRE = regexp.MustCompile(`(?i)^\s*(or|and)\b|\b(or|and)\s*$|\(\s*(or|and)\b|\b(or|and)\s*\)|\(\s*\)`)

// doubledOperatorRE catches "or or"/"and and"/"or and" left behind when a
// token between two connectives is stripped (e.g. "t:creature or
// otag:badtag or t:goblin" loses its middle token, leaving "or  or").
var doubledOperatorRE = regexp.MustCompile(`(?i)\b(or|and)(\s+(?:or|and)\b)+`)

func repairOrphanOperators(q string, flags []Flag) (string, []Flag) {
	before := q
	for {
		next := orphanOperatorRE.ReplaceAllString(q, " ")
		next = doubledOperatorRE.ReplaceAllString(next, "$1")
		next = strings.Join(strings.Fields(next), " ")
		if next == q {
			break
		}
		q = next
	}
	if q != strings.Join(strings.Fields(before), " ") {
		flags = append(flags, FlagOrphanOperator)
	}
	return q, flags
}

// normalizeOrGroups ensures every "a or b" color/type alternation is
// wrapped in parentheses, using depth-tracked scanning so it does not
// double-wrap a group that is already parenthesized.
var bareOrRE = regexp.MustCompile(`\b[a-z]+:\S+(?:\s+or\s+[a-z]+:\S+)+\b`)

func normalizeOrGroups(q string, flags []Flag) (string, []Flag) {
	var b strings.Builder
	last := 0
	for _, loc := range bareOrRE.FindAllStringIndex(q, -1) {
		prefix := q[:loc[0]]
		if strings.Count(prefix, "(")-strings.Count(prefix, ")") > 0 {
			continue // already inside a parenthesized group
		}
		b.WriteString(q[last:loc[0]])
		b.WriteString("(" + q[loc[0]:loc[1]] + ")")
		last = loc[1]
	}
	b.WriteString(q[last:])
	return b.String(), flags
}

var legacySetYearRE = regexp.MustCompile(`\be:(\d{4})\b`)

func rewriteLegacySetYear(q string, flags []Flag) (string, []Flag) {
	if !legacySetYearRE.MatchString(q) {
		return q, flags
	}
	flags = append(flags, FlagLegacySetYear)
	return legacySetYearRE.ReplaceAllString(q, "year=$1"), flags
}

// verbosePhrases is checked longest-phrase-first so "greater than or equal
// to" is rewritten whole rather than leaving "than or equal to" behind
// after a shorter "greater than" match consumes a prefix of it.
var verbosePhrases = []struct {
	phrase, symbol string
}{
	{"greater than or equal to", ">="},
	{"less than or equal to", "<="},
	{"greater than", ">"},
	{"less than", "<"},
	{"equal to", "="},
}

func correctVerbosePhrases(q string, flags []Flag) (string, []Flag) {
	changed := false
	for _, p := range verbosePhrases {
		if strings.Contains(q, p.phrase) {
			q = strings.ReplaceAll(q, p.phrase, p.symbol)
			changed = true
		}
	}
	if changed {
		flags = append(flags, FlagVerbosePhrase)
	}
	return q, flags
}

var gamePaperRE = regexp.MustCompile(`\bgame:paper\b`)

// stripGamePaper drops "game:paper" since every printing defaults to paper
// already; keeping it is redundant noise rather than a correctness bug.
func stripGamePaper(q string, flags []Flag) (string, []Flag) {
	if !gamePaperRE.MatchString(q) {
		return q, flags
	}
	flags = append(flags, FlagGamePaper)
	return strings.TrimSpace(gamePaperRE.ReplaceAllString(q, "")), flags
}

var emptyParensRE = regexp.MustCompile(`\(\s*\)`)

func stripEmptyParens(q string, flags []Flag) (string, []Flag) {
	if !emptyParensRE.MatchString(q) {
		return q, flags
	}
	flags = append(flags, FlagEmptyParens)
	return strings.TrimSpace(emptyParensRE.ReplaceAllString(q, "")), flags
}
