// Package searchir defines the intermediate representation produced by the
// deterministic parser and consumed by the renderer.
package searchir

// ColorMode distinguishes a plain color-identity constraint from a deck
// color-identity (commander) constraint.
type ColorMode string

const (
	ModeColor    ColorMode = "color"
	ModeIdentity ColorMode = "identity"
)

// ColorOperator describes how a set of color letters combines.
type ColorOperator string

const (
	OpOr      ColorOperator = "or"      // (c:u or c:b)
	OpAnd     ColorOperator = "and"     // c:ug  (must include both, may include more)
	OpExact   ColorOperator = "exact"   // c=ug  (exactly these colors)
	OpWithin  ColorOperator = "within"  // id<=ug
	OpInclude ColorOperator = "include" // c:ug as a single bare fragment
)

// ColorConstraint is a multicolor/guild match distinct from MonoColor.
type ColorConstraint struct {
	Values   []string
	Mode     ColorMode
	Operator ColorOperator
}

// NumericField enumerates the fields a numeric constraint may target.
type NumericField string

const (
	FieldMV  NumericField = "mv"
	FieldPow NumericField = "pow"
	FieldTou NumericField = "tou"
	FieldYear NumericField = "year"
	FieldUSD NumericField = "usd"
)

// NumericOp enumerates comparison operators for numeric constraints.
type NumericOp string

const (
	OpEq NumericOp = "="
	OpLt NumericOp = "<"
	OpLe NumericOp = "<="
	OpGt NumericOp = ">"
	OpGe NumericOp = ">="
)

// Numeric is a single (field, op, value) constraint, e.g. mv<=3.
type Numeric struct {
	Field NumericField
	Op    NumericOp
	Value string
}

// ColorCount is a numeric constraint over the number of colors/identity,
// e.g. "multicolor" -> id>1.
type ColorCount struct {
	Field NumericField // mv-style field name used for color counts, e.g. "id" or "c"
	Op    NumericOp
	Value string
}

// IR is the mutable structure threaded through the parser cascade and then
// handed to the renderer. Exactly one of MonoColor/ColorConstraint is set
// (invariant 1 in spec.md §3).
type IR struct {
	MonoColor       string
	ColorConstraint *ColorConstraint
	ColorCount      *ColorCount

	Types         []string
	Subtypes      []string
	ExcludedTypes []string

	Numeric []Numeric

	Tags     []string // otag:X tokens
	ArtTags  []string // atag:X tokens
	Oracle   []string // raw o:"..." fragments
	Specials []string // arbitrary fragments, including OR-groups and format filters

	Warnings []string

	Remaining string
}

// New returns a zero-value IR ready for the parser cascade.
func New() *IR {
	return &IR{}
}

// AddType appends a type word if it is not already present.
func (ir *IR) AddType(t string) {
	if !contains(ir.Types, t) {
		ir.Types = append(ir.Types, t)
	}
}

// AddSubtype appends a subtype word if it is not already present.
func (ir *IR) AddSubtype(t string) {
	if !contains(ir.Subtypes, t) {
		ir.Subtypes = append(ir.Subtypes, t)
	}
}

// AddExcludedType appends an excluded type word if it is not already present.
func (ir *IR) AddExcludedType(t string) {
	if !contains(ir.ExcludedTypes, t) {
		ir.ExcludedTypes = append(ir.ExcludedTypes, t)
	}
}

// AddTag appends an otag token, deduplicated.
func (ir *IR) AddTag(tag string) {
	if !contains(ir.Tags, tag) {
		ir.Tags = append(ir.Tags, tag)
	}
}

// AddArtTag appends an atag token, deduplicated.
func (ir *IR) AddArtTag(tag string) {
	if !contains(ir.ArtTags, tag) {
		ir.ArtTags = append(ir.ArtTags, tag)
	}
}

// AddOracle appends a raw oracle-text fragment, deduplicated.
func (ir *IR) AddOracle(frag string) {
	if !contains(ir.Oracle, frag) {
		ir.Oracle = append(ir.Oracle, frag)
	}
}

// AddSpecial appends an arbitrary Scryfall fragment, deduplicated.
func (ir *IR) AddSpecial(frag string) {
	if !contains(ir.Specials, frag) {
		ir.Specials = append(ir.Specials, frag)
	}
}

// Warn records a human-readable approximation note.
func (ir *IR) Warn(msg string) {
	ir.Warnings = append(ir.Warnings, msg)
}

// SetNumeric upserts a (field, op) constraint, enforcing invariant 4: at
// most one entry per (field, op) pair. The most recent match wins.
func (ir *IR) SetNumeric(field NumericField, op NumericOp, value string) {
	for i := range ir.Numeric {
		if ir.Numeric[i].Field == field && ir.Numeric[i].Op == op {
			ir.Numeric[i].Value = value
			return
		}
	}
	ir.Numeric = append(ir.Numeric, Numeric{Field: field, Op: op, Value: value})
}

// HasNumeric reports whether a constraint for field already exists,
// regardless of operator.
func (ir *IR) HasNumeric(field NumericField) bool {
	for _, n := range ir.Numeric {
		if n.Field == field {
			return true
		}
	}
	return false
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
