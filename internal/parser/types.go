package parser

import (
	"regexp"
	"strings"

	"github.com/nathanmartins/scryfallnl/internal/searchir"
)

var cardTypeWords = map[string]bool{
	"creature": true, "instant": true, "sorcery": true, "artifact": true,
	"enchantment": true, "land": true, "planeswalker": true, "battle": true,
	"tribal": true, "kindred": true, "conspiracy": true,
}

var supertypeWords = map[string]bool{
	"legendary": true, "basic": true, "snow": true, "world": true,
}

var subtypeWords = map[string]bool{
	"elf": true, "goblin": true, "zombie": true, "dragon": true, "human": true,
	"vampire": true, "angel": true, "demon": true, "wizard": true, "knight": true,
	"soldier": true, "forest": true, "island": true, "swamp": true,
	"mountain": true, "plains": true, "desert": true, "gate": true,
	"equipment": true, "aura": true, "saga": true, "vehicle": true,
}

var spellsRE = regexp.MustCompile(`\bspells?\b`)
var utilityLandRE = regexp.MustCompile(`\butility\s+lands?\b`)

// typeOrGroupRE matches "A or B" / "A, B, or C" over card-type words only.
var typeOrGroupRE = regexp.MustCompile(`\b(artifact|creature|enchantment|instant|sorcery|land|planeswalker|battle)s?(?:\s*,\s*(artifact|creature|enchantment|instant|sorcery|land|planeswalker|battle)s?)*\s*(?:,\s*)?or\s+(artifact|creature|enchantment|instant|sorcery|land|planeswalker|battle)s?\b`)

func stageTypes(ir *searchir.IR, text string) string {
	if utilityLandRE.MatchString(text) {
		ir.AddType("land")
		ir.AddExcludedType("basic")
		text = utilityLandRE.ReplaceAllString(text, " ")
	}

	if spellsRE.MatchString(text) {
		ir.AddSpecial("(t:instant or t:sorcery)")
		text = spellsRE.ReplaceAllString(text, " ")
	}

	orGroupTypes := map[string]bool{}
	if m := typeOrGroupRE.FindString(text); m != "" {
		words := typeWordRE.FindAllString(m, -1)
		var frags []string
		seen := map[string]bool{}
		for _, w := range words {
			w = singularize(strings.TrimSuffix(w, "s"))
			if w == "or" || seen[w] {
				continue
			}
			seen[w] = true
			orGroupTypes[w] = true
			frags = append(frags, "t:"+w)
		}
		if len(frags) > 1 {
			ir.AddSpecial("(" + strings.Join(frags, " or ") + ")")
		}
		text = strings.Replace(text, m, " ", 1)
	}

	for word := range cardTypeWords {
		if orGroupTypes[word] {
			continue
		}
		re := regexp.MustCompile(`\b` + word + `s?\b`)
		if re.MatchString(text) {
			ir.AddType(word)
			text = re.ReplaceAllString(text, " ")
		}
	}

	return text
}

var typeWordRE = regexp.MustCompile(`[a-z]+`)

func stageSupertypesSubtypes(ir *searchir.IR, text string) string {
	for word := range supertypeWords {
		re := regexp.MustCompile(`\b` + word + `\b`)
		if re.MatchString(text) {
			ir.AddType(word)
			text = re.ReplaceAllString(text, " ")
		}
	}
	for word := range subtypeWords {
		re := regexp.MustCompile(`\b` + word + `s?\b`)
		if re.MatchString(text) {
			ir.AddSubtype(word)
			text = re.ReplaceAllString(text, " ")
		}
	}
	return text
}

// stagePostTypeCorrection implements spec.md §4.3 step 17: mana rocks are
// artifacts, not lands, so a manarock tag implies excluding land.
func stagePostTypeCorrection(ir *searchir.IR, text string) string {
	for _, tag := range ir.Tags {
		if tag == "otag:manarock" {
			ir.AddExcludedType("land")
		}
	}
	return text
}

var (
	manaProductionRE = regexp.MustCompile(`\bproduces?\s+(?:two|2|three|3|any)\s+(?:colou?red\s+)?mana\b`)
	equipRE          = regexp.MustCompile(`\bequip\s+(\d+)\s*(or less)?\b`)
)

func stageManaAndEquipment(ir *searchir.IR, text string) string {
	if manaProductionRE.MatchString(text) {
		ir.AddOracle(`o:/\{[WUBRG]\}.*\{[WUBRG]\}/`)
		if !containsStr(ir.Types, "land") {
			ir.AddExcludedType("land")
		}
		text = manaProductionRE.ReplaceAllString(text, " ")
	}

	if m := equipRE.FindStringSubmatch(text); m != nil {
		if m[2] != "" {
			ir.AddOracle(`o:/equip \{?[0-` + m[1] + `]\}?/`)
		} else {
			ir.AddOracle(`o:"equip {` + m[1] + `}"`)
		}
		text = equipRE.ReplaceAllString(text, " ")
	}

	return text
}

var (
	explicitPriceRE = regexp.MustCompile(`\bunder\s*\$(\d+(?:\.\d+)?)\b|\bless than\s*\$(\d+(?:\.\d+)?)\b`)
	overPriceRE     = regexp.MustCompile(`\bover\s*\$(\d+(?:\.\d+)?)\b|\bmore than\s*\$(\d+(?:\.\d+)?)\b`)
	reprintsRE      = regexp.MustCompile(`\bmore than\s+(\d+)\s+reprints?\b`)
)

func stagePriceHeuristics(ir *searchir.IR, text string) string {
	if m := explicitPriceRE.FindStringSubmatch(text); m != nil {
		val := firstNonEmpty(m[1], m[2])
		ir.SetNumeric(searchir.FieldUSD, searchir.OpLt, val)
		text = explicitPriceRE.ReplaceAllString(text, " ")
	}
	if m := overPriceRE.FindStringSubmatch(text); m != nil {
		val := firstNonEmpty(m[1], m[2])
		ir.SetNumeric(searchir.FieldUSD, searchir.OpGt, val)
		text = overPriceRE.ReplaceAllString(text, " ")
	}
	if m := reprintsRE.FindStringSubmatch(text); m != nil {
		ir.AddSpecial("prints>" + m[1])
		text = reprintsRE.ReplaceAllString(text, " ")
	}
	return text
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
