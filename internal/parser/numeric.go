package parser

import (
	"regexp"

	"github.com/nathanmartins/scryfallnl/internal/searchir"
)

// numericPhrase binds a phrase template to the field/op pair it produces.
// The capture group always holds the numeric value. Order matters: longer,
// more specific phrasings must precede their shorter substrings (e.g. "power
// greater than or equal to" before "power greater than").
type numericPhrase struct {
	re    *regexp.Regexp
	field searchir.NumericField
	op    searchir.NumericOp
}

// fieldNumericPhrases builds the shared cascade of phrase templates for a
// single numeric field: "at least N FIELD", "FIELD >= N", "N FIELD or
// more", "FIELD N or more", "N FIELD+", "at most N FIELD", "FIELD <= N",
// "N FIELD or less", "FIELD > N", "FIELD < N", "exactly N FIELD", "FIELD =
// N", bare "N FIELD", bare "FIELD N". alt is the alternation of words that
// may stand in for the field in text (e.g. "power|pow").
func fieldNumericPhrases(alt string, field searchir.NumericField) []numericPhrase {
	return []numericPhrase{
		{regexp.MustCompile(`\bat least\s+(\d+)\s*(?:` + alt + `)\b`), field, searchir.OpGe},
		{regexp.MustCompile(`\b(?:` + alt + `)\s*(?:greater than or equal to|>=)\s*(\d+)\b`), field, searchir.OpGe},
		{regexp.MustCompile(`\b(\d+)\s*(?:` + alt + `)\s+or more\b`), field, searchir.OpGe},
		{regexp.MustCompile(`\b(?:` + alt + `)\s+(\d+)\s+or more\b`), field, searchir.OpGe},
		{regexp.MustCompile(`\b(\d+)\s*(?:` + alt + `)\+`), field, searchir.OpGe},

		{regexp.MustCompile(`\bat most\s+(\d+)\s*(?:` + alt + `)\b`), field, searchir.OpLe},
		{regexp.MustCompile(`\b(?:` + alt + `)\s*(?:less than or equal to|<=)\s*(\d+)\b`), field, searchir.OpLe},
		{regexp.MustCompile(`\b(\d+)\s*(?:` + alt + `)\s+or less\b`), field, searchir.OpLe},

		{regexp.MustCompile(`\b(?:` + alt + `)\s*(?:greater than|>|over|above)\s*(\d+)\b`), field, searchir.OpGt},
		{regexp.MustCompile(`\b(?:` + alt + `)\s*(?:less than|<|under|below)\s*(\d+)\b`), field, searchir.OpLt},

		{regexp.MustCompile(`\bexactly\s+(\d+)\s*(?:` + alt + `)\b`), field, searchir.OpEq},
		{regexp.MustCompile(`\b(?:` + alt + `)\s*(?:=|equal to|exactly)\s*(\d+)\b`), field, searchir.OpEq},
		{regexp.MustCompile(`\b(\d+)\s*(?:` + alt + `)\b`), field, searchir.OpEq},
		{regexp.MustCompile(`\b(?:` + alt + `)\s+(\d+)\b`), field, searchir.OpEq},
	}
}

var numericPhrases = buildNumericPhrases()

func buildNumericPhrases() []numericPhrase {
	var out []numericPhrase
	out = append(out, fieldNumericPhrases(`mv|mana value|cost`, searchir.FieldMV)...)
	out = append(out, fieldNumericPhrases(`power|pow`, searchir.FieldPow)...)
	out = append(out, fieldNumericPhrases(`toughness|tou`, searchir.FieldTou)...)
	out = append(out, fieldNumericPhrases(`year`, searchir.FieldYear)...)
	return out
}

// powerVsToughnessRE recognises the cross-field comparison "power greater
// than toughness", which has no numeric literal and is rendered directly as
// a special fragment rather than a Numeric entry.
var powerVsToughnessRE = regexp.MustCompile(`\b(?:power|pow)\s+(?:greater than|>|over)\s+(?:its\s+|their\s+)?(?:toughness|tou)\b`)
var toughnessVsPowerRE = regexp.MustCompile(`\b(?:toughness|tou)\s+(?:greater than|>|over)\s+(?:its\s+|their\s+)?(?:power|pow)\b`)

func stageNumeric(ir *searchir.IR, text string) string {
	if powerVsToughnessRE.MatchString(text) {
		ir.AddSpecial("pow>tou")
		text = powerVsToughnessRE.ReplaceAllString(text, " ")
	}
	if toughnessVsPowerRE.MatchString(text) {
		ir.AddSpecial("tou>pow")
		text = toughnessVsPowerRE.ReplaceAllString(text, " ")
	}

	for _, p := range numericPhrases {
		m := p.re.FindStringSubmatchIndex(text)
		if m == nil {
			continue
		}
		value := text[m[2]:m[3]]
		ir.SetNumeric(p.field, p.op, value)
		text = text[:m[0]] + " " + text[m[1]:]
	}

	return text
}

var (
	yearAfterRE  = regexp.MustCompile(`\bafter\s+(\d{4})\b`)
	yearSinceRE  = regexp.MustCompile(`\bsince\s+(\d{4})\b`)
	yearBeforeRE = regexp.MustCompile(`\bbefore\s+(\d{4})\b`)
	yearInRE     = regexp.MustCompile(`\bin\s+(\d{4})\b|\bfrom\s+(\d{4})\b`)
)

// stageYearPhrases handles the year-specific connectives ("after 2020",
// "since 2018", "before 2015", "in 2010", "from 2010") that sit alongside,
// not in place of, the shared numeric templates in fieldNumericPhrases.
func stageYearPhrases(ir *searchir.IR, text string) string {
	if m := yearAfterRE.FindStringSubmatch(text); m != nil {
		ir.SetNumeric(searchir.FieldYear, searchir.OpGt, m[1])
		text = yearAfterRE.ReplaceAllString(text, " ")
	}
	if m := yearSinceRE.FindStringSubmatch(text); m != nil {
		ir.SetNumeric(searchir.FieldYear, searchir.OpGe, m[1])
		text = yearSinceRE.ReplaceAllString(text, " ")
	}
	if m := yearBeforeRE.FindStringSubmatch(text); m != nil {
		ir.SetNumeric(searchir.FieldYear, searchir.OpLt, m[1])
		text = yearBeforeRE.ReplaceAllString(text, " ")
	}
	if m := yearInRE.FindStringSubmatch(text); m != nil {
		year := firstNonEmpty(m[1], m[2])
		ir.SetNumeric(searchir.FieldYear, searchir.OpEq, year)
		text = yearInRE.ReplaceAllString(text, " ")
	}
	return text
}
