// Package mapping holds the static lookup tables the deterministic parser
// and validator consult. Everything here is built once at process start and
// never mutated (spec.md §5 "Mapping tables are immutable after init").
package mapping

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// StrMap is an insertion-ordered string->string table. Ordered iteration
// matters for the regex cascades in the parser: SlangToSyntaxMap and
// ArchetypeMap are scanned in table order so earlier, more specific entries
// win before a later, more general one can steal the match.
type StrMap = *orderedmap.OrderedMap[string, string]

func newStrMap(pairs ...[2]string) StrMap {
	m := orderedmap.New[string, string]()
	for _, p := range pairs {
		m.Set(p[0], p[1])
	}
	return m
}

// SlangMap maps casual card names/nicknames to canonical card names or raw
// Scryfall fragments.
var SlangMap = newStrMap(
	[2]string{"bolt", "Lightning Bolt"},
	[2]string{"tron", `t:land (set:atq OR set:chr)`},
	[2]string{"walker", "Planeswalker"},
	[2]string{"mana dork", "Llanowar Elves"},
	[2]string{"lotus", "Black Lotus"},
	[2]string{"the stick", "Umezawa's Jitte"},
	[2]string{"dork", "Llanowar Elves"},
	[2]string{"rock", "Sol Ring"},
)

// ColorMap maps single-letter and word color forms to a canonical letter.
var ColorMap = map[string]string{
	"w": "w", "white": "w",
	"u": "u", "blue": "u",
	"b": "b", "black": "b",
	"r": "r", "red": "r",
	"g": "g", "green": "g",
	"c": "c", "colorless": "c",
}

// MulticolorMap maps guild/shard/wedge/nicknames to concatenated color
// letters, each in that name's conventional order (not sorted w,u,b,r,g).
var MulticolorMap = map[string]string{
	// guilds
	"azorius":  "wu",
	"dimir":    "ub",
	"rakdos":   "br",
	"gruul":    "rg",
	"selesnya": "gw",
	"orzhov":   "wb",
	"izzet":    "ur",
	"golgari":  "bg",
	"boros":    "rw",
	"simic":    "gu",
	// shards
	"bant":    "gwu",
	"esper":   "wub",
	"grixis":  "ubr",
	"jund":    "brg",
	"naya":    "rgw",
	// wedges
	"abzan":    "wbg",
	"jeskai":   "urw",
	"sultai":   "bgu",
	"mardu":    "rwb",
	"temur":    "gur",
	// four/five color
	"glint-eye":  "ubrg",
	"dune-brood": "wbrg",
	"ink-treader": "wurg",
	"witch-maw":  "wubg",
	"yore-tiller": "wubr",
	"wubrg":      "wubrg",
	"five-color": "wubrg",
	"rainbow":    "wubrg",
}

// KeywordMap maps MTG ability keywords to Scryfall operator expressions.
var KeywordMap = map[string]string{
	"flying":         "kw:flying",
	"trample":        "kw:trample",
	"haste":          "kw:haste",
	"vigilance":      "kw:vigilance",
	"deathtouch":     "kw:deathtouch",
	"lifelink":       "kw:lifelink",
	"first strike":   "kw:first strike",
	"double strike":  "kw:double strike",
	"menace":         "kw:menace",
	"reach":          "kw:reach",
	"hexproof":       "kw:hexproof",
	"indestructible": "kw:indestructible",
	"flash":          "kw:flash",
	"defender":       "kw:defender",
	"protection":     "kw:protection",
	"ward":           "kw:ward",
	"prowess":        "kw:prowess",
	"cycling":        "kw:cycling",
	"convoke":        "kw:convoke",
	"delve":          "kw:delve",
	"flashback":      "kw:flashback",
	"kicker":         "kw:kicker",
}

// ArchetypeMap maps single-word strategy names to Scryfall oracle-text
// expressions; it is scanned in insertion order.
var ArchetypeMap = newStrMap(
	[2]string{"aristocrats", `o:"sacrifice a creature" or o:"whenever a creature you control dies"`},
	[2]string{"voltron", `o:"equipped creature" or o:"enchanted creature"`},
	[2]string{"landfall", `o:landfall`},
	[2]string{"reanimator", `o:"return target creature card from your graveyard"`},
	[2]string{"stax", `o:"each player" o:"unless"`},
	[2]string{"spellslinger", `o:"instant or sorcery spell"`},
	[2]string{"tokens", `o:"create" o:"token"`},
	[2]string{"superfriends", "t:planeswalker"},
	[2]string{"mill", `o:"put the top" o:"library into their graveyard"`},
	[2]string{"burn", `o:"damage to any target" or o:"damage to each opponent"`},
)

// archetypeVerbPhraseGuard lists phrases whose presence suppresses the
// corresponding archetype match because the word is being used literally
// rather than naming the strategy (spec.md §4.3 step 8).
var ArchetypeVerbPhraseGuard = map[string][]string{
	"aristocrats": {"sacrifice a creature", "sac a creature", "sacrifice your creature"},
}

// CardsLikeMap maps known card names to a representative query for
// functional equivalents.
var CardsLikeMap = map[string]string{
	"sol ring":       `(mv<=2 t:artifact o:"add {C}{C}")`,
	"swords to plowshares": `(o:"exile target creature" mv=1 c:w)`,
	"lightning bolt": `(o:"deals 3 damage to any target" mv<=1 c:r)`,
	"rhystic study":  `(o:"draw a card unless that player pays")`,
	"cyclonic rift":  `(o:"return target permanent" o:"return all")`,
}

// TagFirstEntry pairs a regex pattern (matched by the parser over
// TagFirstPatterns) with an otag token. Patterns that would reference an
// unknown oracle tag fall back to the paired oracle expression instead,
// recorded in the entry's Fallback field.
type TagFirstEntry struct {
	Pattern  string
	Otag     string
	Fallback string
}

var TagFirstPatterns = []TagFirstEntry{
	{Pattern: `\bramp\b`, Otag: "otag:ramp", Fallback: `o:"search your library for a basic land" or o:"add {C}"`},
	{Pattern: `\bcard draw\b|\bdraws? (a |an )?card`, Otag: "otag:draw", Fallback: `o:"draw a card"`},
	{Pattern: `\bremoval\b`, Otag: "otag:removal", Fallback: `o:"destroy target" or o:"exile target"`},
	{Pattern: `\bwrath\b|\bboard wipe\b|\bsweeper\b`, Otag: "otag:wrath", Fallback: `o:"destroy all creatures"`},
	{Pattern: `\bsac outlet\b|\bsacrifice outlet\b`, Otag: "otag:sac-outlet", Fallback: `o:"sacrifice a creature:"`},
	{Pattern: `\bmana ?rock\b`, Otag: "otag:manarock", Fallback: `t:artifact o:"add {"`},
	{Pattern: `\bland ?fetch\b|\bfetchland\b`, Otag: "otag:fetchland", Fallback: `o:"search your library for a" o:"land card"`},
	{Pattern: `\bcounterspell\b`, Otag: "otag:counterspell", Fallback: `o:"counter target spell"`},
}

// ArtTagMap maps regex patterns to atag tokens (art content tags).
var ArtTagMap = map[string]string{
	`\bforest art\b`:  "atag:forest",
	`\bdragon art\b`:  "atag:dragon",
	`\bunderwater\b`:  "atag:underwater",
	`\bcat art\b`:     "atag:cat",
}

// SlangToSyntaxMap maps regex patterns directly to raw Scryfall syntax
// fragments or entire queries (bypasses otag allowlisting entirely).
var SlangToSyntaxMap = newStrMap(
	[2]string{`\bcheap\b|\bbudget\b|\binexpensive\b`, "mv<=3"},
	[2]string{`\bphyrexian mana\b`, `m:/P/`},
)

// KnownOtags is the curated allowlist of oracle-tag identifiers the live
// card database is known to support (spec.md §9 open question: bootstrap
// from this set, extend by validating against the live database).
var KnownOtags = map[string]bool{
	"ramp": true, "draw": true, "removal": true, "wrath": true,
	"sac-outlet": true, "manarock": true, "fetchland": true,
	"counterspell": true, "creature-removal": true, "recursion": true,
	"copy": true, "cost-reduction": true, "fog": true,
	"gives-flying": true, "gives-trample": true, "gives-haste": true,
	"gives-deathtouch": true, "gives-indestructible": true,
}

// ValidSearchKeys is the allowlist of recognised Scryfall operator
// prefixes. Anything else is stripped by the validator (spec.md §4.5).
var ValidSearchKeys = map[string]bool{
	"t": true, "type": true, "c": true, "color": true, "id": true,
	"identity": true, "o": true, "oracle": true, "mv": true, "cmc": true,
	"pow": true, "power": true, "tou": true, "toughness": true,
	"loy": true, "loyalty": true, "year": true, "f": true, "format": true,
	"is": true, "not": true, "otag": true, "function": true, "oracletag": true,
	"atag": true, "arttag": true, "usd": true, "eur": true, "tix": true,
	"set": true, "e": true, "r": true, "rarity": true, "a": true,
	"artist": true, "game": true, "prints": true, "border": true,
	"frame": true, "lang": true, "name": true, "produces": true,
	"devotion": true, "m": true, "mana": true, "banned": true,
	"restricted": true, "legal": true,
}

// WordNumberMap converts English number words into digit strings.
var WordNumberMap = map[string]string{
	"zero": "0", "one": "1", "two": "2", "three": "3", "four": "4",
	"five": "5", "six": "6", "seven": "7", "eight": "8", "nine": "9",
	"ten": "10",
}

// SynonymMap collapses casual synonyms/abbreviations onto one canonical
// phrase before pattern matching runs. Ordered so a longer phrase is
// replaced before a shorter one it contains ("power/toughness" before
// "toughness", "colour identity" before "colour") — a plain map here would
// make Normalize's output depend on Go's randomized map iteration order.
var SynonymMap = newStrMap(
	[2]string{"converted mana cost", "mv"},
	[2]string{"mana value", "mv"},
	[2]string{"cmc", "mv"},
	[2]string{"power/toughness", "pow/tou"},
	[2]string{"colour identity", "ci"},
	[2]string{"color identity", "ci"},
	[2]string{"colour", "color"},
	[2]string{"toughness", "tou"},
)

// CompanionRestrictions maps a companion's name to its deckbuilding
// restriction clause, emitted when the companion is named explicitly
// (spec.md §4.3 step 10).
var CompanionRestrictions = map[string]string{
	"lurrus of the dream-den":  `(mv<=2 -t:land)`,
	"jegantha, the wellspring": `-o:"{U/R}" -o:"{U/B}"`,
	"gyruda, doom of depths":   `mv%2=0`,
	"kaheera, the orphanguard": `t:beast or t:cat or t:dinosaur`,
	"zirda, the dawnwaker":     `o:"activated ability" o:"costs {1} or more"`,
	"keruga, the macrosage":    `mv>=3`,
}
