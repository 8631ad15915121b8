package parser

import (
	"regexp"
	"sort"
	"strings"

	"github.com/nathanmartins/scryfallnl/internal/mapping"
	"github.com/nathanmartins/scryfallnl/internal/searchir"
)

var colorWordRE = regexp.MustCompile(`\b(white|blue|black|red|green|colorless)\b`)

// identityContextRE recognises phrases that put color words into identity
// mode rather than plain-color mode (spec.md "Color/type disambiguation
// rules").
var identityContextRE = regexp.MustCompile(`\bci\b|\bcolor identity\b|\bcan go in\b|\bfits into\b`)

var monoRE = regexp.MustCompile(`\bmono[- ]?(white|blue|black|red|green|colorless|w|u|b|r|g|c)\b`)

var guildRE *regexp.Regexp

func init() {
	var names []string
	for name := range mapping.MulticolorMap {
		names = append(names, regexp.QuoteMeta(name))
	}
	sort.Strings(names)
	guildRE = regexp.MustCompile(`\b(` + strings.Join(names, "|") + `)\b`)
}

// exactnessRE recognises modifiers that switch a color match to "exact"/
// "within" semantics rather than the default inclusive AND/OR.
var exactnessRE = regexp.MustCompile(`\bexactly\b|\bonly\b|\bjust\b`)

func stageColors(ir *searchir.IR, text string) string {
	identity := identityContextRE.MatchString(text) || containsSpecial(ir, "f:commander") || containsSpecial(ir, "is:commander")
	text = identityContextRE.ReplaceAllString(text, " ")

	// mono-X
	if m := monoRE.FindStringSubmatchIndex(text); m != nil {
		word := text[m[2]:m[3]]
		letter := mapping.ColorMap[word]
		if letter == "" {
			letter = word
		}
		ir.MonoColor = letter
		text = text[:m[0]] + " " + text[m[1]:]
		return text
	}

	// guild/shard/wedge names
	if m := guildRE.FindStringSubmatchIndex(text); m != nil {
		name := text[m[2]:m[3]]
		letters := mapping.MulticolorMap[name]
		op := searchir.OpInclude
		mode := searchir.ModeColor
		if identity {
			mode = searchir.ModeIdentity
		}
		ir.ColorConstraint = &searchir.ColorConstraint{
			Values:   splitLetters(letters),
			Mode:     mode,
			Operator: op,
		}
		text = text[:m[0]] + " " + text[m[1]:]
		return text
	}

	colors := collectColorWords(text)
	if len(colors) == 0 {
		return text
	}
	text = colorWordRE.ReplaceAllString(text, " ")

	mode := searchir.ModeColor
	if identity {
		mode = searchir.ModeIdentity
	}

	op := searchir.OpAnd
	switch {
	case strings.Contains(text, " or "):
		op = searchir.OpOr
	case exactnessRE.MatchString(text):
		op = searchir.OpExact
		text = exactnessRE.ReplaceAllString(text, " ")
	case identity && len(colors) > 1:
		op = searchir.OpWithin
	}

	ir.ColorConstraint = &searchir.ColorConstraint{
		Values:   colors,
		Mode:     mode,
		Operator: op,
	}
	return text
}

func collectColorWords(text string) []string {
	var letters []string
	for _, m := range colorWordRE.FindAllStringSubmatch(text, -1) {
		letter := mapping.ColorMap[m[1]]
		if letter != "" && !containsStr(letters, letter) {
			letters = append(letters, letter)
		}
	}
	return letters
}

func splitLetters(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

func containsStr(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func containsSpecial(ir *searchir.IR, v string) bool {
	for _, s := range ir.Specials {
		if s == v {
			return true
		}
	}
	return false
}
