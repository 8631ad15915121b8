package validate

import (
	"strings"
	"testing"
)

func TestBalanceQuotesAndParens(t *testing.T) {
	got := Validate(`t:creature o:"draw`)
	want := `t:creature o:"draw"`
	if got.Query != want {
		t.Errorf("Validate().Query = %q, want %q", got.Query, want)
	}
	if !containsFlag(got.Flags, FlagUnbalancedQuotes) {
		t.Errorf("expected FlagUnbalancedQuotes, got %v", got.Flags)
	}
}

func TestStripUnknownKey(t *testing.T) {
	got := Validate("foo:bar t:creature")
	want := "t:creature"
	if got.Query != want {
		t.Errorf("Validate().Query = %q, want %q", got.Query, want)
	}
	if !containsFlag(got.Flags, FlagUnknownSearchKey) {
		t.Errorf("expected FlagUnknownSearchKey, got %v", got.Flags)
	}
}

func TestStripUnknownTagRepairsOrphanOr(t *testing.T) {
	got := Validate("t:creature or otag:doesnotexist or t:goblin")
	if strings.Contains(got.Query, "or or") {
		t.Errorf("Validate().Query = %q, contains orphan \"or or\"", got.Query)
	}
	if !strings.Contains(got.Query, "t:creature") || !strings.Contains(got.Query, "t:goblin") {
		t.Errorf("Validate().Query = %q, expected both known fragments to survive", got.Query)
	}
}

func TestRewriteLegacySetYear(t *testing.T) {
	got := Validate("e:2020 t:creature")
	if !strings.Contains(got.Query, "year=2020") {
		t.Errorf("Validate().Query = %q, want year=2020", got.Query)
	}
	if strings.Contains(got.Query, "e:2020") {
		t.Errorf("Validate().Query = %q, legacy e:YYYY should be rewritten away", got.Query)
	}
}

func TestVerbosePhraseLongestFirst(t *testing.T) {
	got := Validate("power greater than or equal to 4")
	if !strings.Contains(got.Query, ">=") {
		t.Errorf("Validate().Query = %q, want >=", got.Query)
	}
	if strings.Contains(got.Query, "equal to") {
		t.Errorf("Validate().Query = %q, phrase not fully consumed", got.Query)
	}
}

func TestStripGamePaperAndEmptyParens(t *testing.T) {
	got := Validate("t:creature game:paper ()")
	if strings.Contains(got.Query, "game:paper") {
		t.Errorf("Validate().Query = %q, expected game:paper stripped", got.Query)
	}
	if strings.Contains(got.Query, "()") {
		t.Errorf("Validate().Query = %q, expected empty parens stripped", got.Query)
	}
}

func TestNormalizeOrGroupsWrapsBareAlternation(t *testing.T) {
	got := Validate("c:u or c:b t:creature")
	if !strings.Contains(got.Query, "(c:u or c:b)") {
		t.Errorf("Validate().Query = %q, want parenthesized OR-group", got.Query)
	}
}

func TestTruncateTo400Chars(t *testing.T) {
	got := Validate(strings.Repeat("a", 410))
	if len(got.Query) != 400 {
		t.Errorf("Validate().Query length = %d, want 400", len(got.Query))
	}
	if !containsFlag(got.Flags, FlagTruncated) {
		t.Errorf("expected FlagTruncated, got %v", got.Flags)
	}
}

func TestStripDisallowedCharacters(t *testing.T) {
	got := Validate("t:creature @@@ c:r")
	if strings.Contains(got.Query, "@") {
		t.Errorf("Validate().Query = %q, expected disallowed chars stripped", got.Query)
	}
	if !strings.Contains(got.Query, "t:creature") || !strings.Contains(got.Query, "c:r") {
		t.Errorf("Validate().Query = %q, expected known fragments to survive", got.Query)
	}
	if !containsFlag(got.Flags, FlagDisallowedCharacters) {
		t.Errorf("expected FlagDisallowedCharacters, got %v", got.Flags)
	}
}

func TestStripPowTouArithmetic(t *testing.T) {
	got := Validate("pow+1 t:creature")
	if strings.Contains(got.Query, "pow+1") {
		t.Errorf("Validate().Query = %q, expected arithmetic stripped", got.Query)
	}
	if !strings.Contains(got.Query, "t:creature") {
		t.Errorf("Validate().Query = %q, expected t:creature to survive", got.Query)
	}
	if !containsFlag(got.Flags, FlagPowTouArithmetic) {
		t.Errorf("expected FlagPowTouArithmetic, got %v", got.Flags)
	}
}

func TestBalanceSingleQuotesAppendsOnOddCount(t *testing.T) {
	got := Validate("t:creature 'Ability")
	if !strings.HasSuffix(got.Query, "'") {
		t.Errorf("Validate().Query = %q, want a trailing single quote appended", got.Query)
	}
	if !containsFlag(got.Flags, FlagUnbalancedSingleQuotes) {
		t.Errorf("expected FlagUnbalancedSingleQuotes, got %v", got.Flags)
	}
}

func TestBalanceSingleQuotesIgnoresApostrophes(t *testing.T) {
	got := Validate("can't t:creature")
	if containsFlag(got.Flags, FlagUnbalancedSingleQuotes) {
		t.Errorf("Validate().Flags = %v, apostrophe should not count as unbalanced", got.Flags)
	}
	if strings.HasSuffix(got.Query, "'") {
		t.Errorf("Validate().Query = %q, should not append a spurious quote", got.Query)
	}
}

func containsFlag(flags []Flag, want Flag) bool {
	for _, f := range flags {
		if f == want {
			return true
		}
	}
	return false
}
