// Package render turns a populated SearchIR into the final Scryfall query
// string (spec.md §4.4, component C4).
package render

import (
	"strings"

	"github.com/nathanmartins/scryfallnl/internal/searchir"
)

// Render assembles the Scryfall query fragment in the fixed order the
// original tool's output follows: color/identity, types, numeric
// constraints, color counts, tags, art tags, oracle text, then any special
// fragments (OR-groups, format filters, raw slang substitutions).
func Render(ir *searchir.IR) string {
	var parts []string

	if ir.MonoColor != "" {
		// "Mono red" means exactly red in both card color and commander
		// color identity; a bare "c:r" would also match multicolor cards
		// that merely include red.
		parts = append(parts, "c="+ir.MonoColor, "id="+ir.MonoColor)
	} else if ir.ColorConstraint != nil {
		parts = append(parts, renderColorConstraint(ir.ColorConstraint))
	}

	parts = append(parts, renderTypes(ir)...)

	for _, n := range ir.Numeric {
		parts = append(parts, string(n.Field)+string(n.Op)+n.Value)
	}

	if ir.ColorCount != nil {
		cc := ir.ColorCount
		parts = append(parts, string(cc.Field)+string(cc.Op)+cc.Value)
	}

	parts = append(parts, ir.Tags...)
	parts = append(parts, ir.ArtTags...)
	parts = append(parts, ir.Oracle...)
	parts = append(parts, ir.Specials...)

	return dedupAndJoin(parts)
}

func renderColorConstraint(cc *searchir.ColorConstraint) string {
	prefix := "c"
	if cc.Mode == searchir.ModeIdentity {
		prefix = "id"
	}

	switch cc.Operator {
	case searchir.OpOr:
		var frags []string
		for _, v := range cc.Values {
			frags = append(frags, prefix+":"+v)
		}
		return "(" + strings.Join(frags, " or ") + ")"
	case searchir.OpExact:
		return prefix + "=" + strings.Join(cc.Values, "")
	case searchir.OpWithin:
		return prefix + "<=" + strings.Join(cc.Values, "")
	case searchir.OpInclude:
		return prefix + ":" + strings.Join(cc.Values, "")
	default: // OpAnd
		return prefix + ":" + strings.Join(cc.Values, "")
	}
}

// renderTypes emits type/subtype/excluded-type fragments. Any type already
// covered by an OR-group special (e.g. "artifact or enchantment") is
// subtracted here so the same type does not appear twice (spec.md invariant
// 2: a type named inside an OR-group is never also emitted as a bare t:
// fragment).
func renderTypes(ir *searchir.IR) []string {
	covered := map[string]bool{}
	for _, s := range ir.Specials {
		if strings.HasPrefix(s, "(t:") {
			for _, frag := range strings.Split(strings.Trim(s, "()"), " or ") {
				frag = strings.TrimPrefix(frag, "t:")
				covered[frag] = true
			}
		}
	}

	var out []string
	for _, t := range ir.Types {
		if covered[t] {
			continue
		}
		out = append(out, "t:"+t)
	}
	for _, t := range ir.Subtypes {
		out = append(out, "t:"+t)
	}
	for _, t := range ir.ExcludedTypes {
		out = append(out, "-t:"+t)
	}
	return out
}

// dedupAndJoin case-insensitively deduplicates fragments (preserving the
// first-seen casing), drops empties, and collapses whitespace.
func dedupAndJoin(parts []string) string {
	seen := make(map[string]bool, len(parts))
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		key := strings.ToLower(p)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	joined := strings.Join(out, " ")
	return strings.Join(strings.Fields(joined), " ")
}
