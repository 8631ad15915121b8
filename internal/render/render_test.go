package render

import (
	"strings"
	"testing"

	"github.com/nathanmartins/scryfallnl/internal/searchir"
)

func TestRenderMonoColorEmitsBothColorAndIdentity(t *testing.T) {
	ir := searchir.New()
	ir.MonoColor = "r"
	ir.AddType("creature")

	got := Render(ir)
	for _, want := range []string{"c=r", "id=r", "t:creature"} {
		if !strings.Contains(got, want) {
			t.Errorf("Render() = %q, missing %q", got, want)
		}
	}
}

func TestRenderColorConstraintOperators(t *testing.T) {
	cases := []struct {
		name string
		cc   *searchir.ColorConstraint
		want string
	}{
		{"or", &searchir.ColorConstraint{Values: []string{"u", "b"}, Mode: searchir.ModeColor, Operator: searchir.OpOr}, "(c:u or c:b)"},
		{"exact", &searchir.ColorConstraint{Values: []string{"u", "g"}, Mode: searchir.ModeColor, Operator: searchir.OpExact}, "c=ug"},
		{"within-identity", &searchir.ColorConstraint{Values: []string{"w", "u"}, Mode: searchir.ModeIdentity, Operator: searchir.OpWithin}, "id<=wu"},
		{"include", &searchir.ColorConstraint{Values: []string{"b", "r"}, Mode: searchir.ModeColor, Operator: searchir.OpInclude}, "c:br"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ir := searchir.New()
			ir.ColorConstraint = tc.cc
			got := Render(ir)
			if got != tc.want {
				t.Errorf("Render() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRenderTypesSubtractsORGroupCoverage(t *testing.T) {
	ir := searchir.New()
	ir.AddSpecial("(t:instant or t:sorcery)")
	ir.AddType("instant")
	ir.AddType("creature")

	got := Render(ir)
	// "t:instant" legitimately appears once, inside the kept OR-group; a
	// second, bare occurrence would mean the subtraction failed.
	if strings.Count(got, "t:instant") != 1 {
		t.Errorf("Render() = %q, expected t:instant to appear only inside the OR-group", got)
	}
	if !strings.Contains(got, "t:creature") {
		t.Errorf("Render() = %q, expected t:creature to survive", got)
	}
	if !strings.Contains(got, "(t:instant or t:sorcery)") {
		t.Errorf("Render() = %q, expected the OR-group itself to remain", got)
	}
}

func TestRenderDedupIsCaseInsensitive(t *testing.T) {
	ir := searchir.New()
	ir.AddOracle(`o:"draw a card"`)
	ir.Specials = append(ir.Specials, `o:"draw a card"`)

	got := Render(ir)
	if strings.Count(got, "draw a card") != 1 {
		t.Errorf("Render() = %q, expected duplicate fragment collapsed", got)
	}
}

func TestRenderExcludedTypes(t *testing.T) {
	ir := searchir.New()
	ir.AddType("land")
	ir.AddExcludedType("basic")

	got := Render(ir)
	if !strings.Contains(got, "t:land") || !strings.Contains(got, "-t:basic") {
		t.Errorf("Render() = %q, want both t:land and -t:basic", got)
	}
}
