// Package directive holds the value rules shared by both rewrite passes.
//
// The text pass and the tree pass see the same directive in different
// representations; both reduce it to a Directive and let Resolve decide the
// canonical kind, whether the value survives, and which diagnostics to raise.
package directive

import (
	"fmt"
	"strings"

	"github.com/vango-dev/lazyhydrate/pkg/diag"
	"github.com/vango-dev/lazyhydrate/pkg/strategy"
)

// Prefix is the attribute-name prefix of the shorthand form.
const Prefix = "hydrate:"

// ValueProp is the prop carrying the trigger value on canonical tags.
const ValueProp = "hydrate"

// Directive is one parsed hydrate:<kind>[="<value>"].
type Directive struct {
	Kind     string
	RawValue string
	HasValue bool
}

// FromAttribute parses an attribute name such as "hydrate:visible". The
// second result is false if name is not a hydration directive.
func FromAttribute(name string) (Directive, bool) {
	kind, ok := strings.CutPrefix(name, Prefix)
	if !ok {
		return Directive{}, false
	}
	return Directive{Kind: kind}, true
}

// WithValue returns a copy of d carrying value.
func (d Directive) WithValue(value string) Directive {
	d.RawValue = value
	d.HasValue = true
	return d
}

// Outcome is the canonical form of a Directive.
type Outcome struct {
	Kind strategy.Kind

	// KeepValue reports whether Value should be emitted as :hydrate.
	KeepValue bool
	Value     string

	// Diagnostics are unlocated; callers attach file position and tag.
	Diagnostics diag.List
}

// Resolve applies the value rules:
//   - unknown kinds fall back to visible (H001)
//   - never drops any value (H002)
//   - a true/false literal on a kind other than if is dropped in favour of
//     the kind's default (H003)
//
// An empty or blank value counts as no value. Everything else keeps its
// value verbatim.
func (d Directive) Resolve() Outcome {
	var out Outcome
	if strings.TrimSpace(d.RawValue) == "" {
		d.HasValue = false
	}

	kind, ok := strategy.ParseKind(d.Kind)
	if !ok {
		kind = strategy.KindVisible
		out.Diagnostics = append(out.Diagnostics, diag.New(diag.CodeUnknownKind).
			WithDetailf("Unexpected hydration strategy %q; this will default to visibility.", d.Kind).
			WithSuggestion("For custom strategies, use hydrate:if with a condition."))
	}
	out.Kind = kind

	switch {
	case !d.HasValue:
		return out

	case kind == strategy.KindNever:
		out.Diagnostics = append(out.Diagnostics, diag.New(diag.CodeNeverValue).
			WithSuggestion("Remove the value: <Lazy… hydrate:never>"))
		return out

	case kind != strategy.KindIf && isBoolLiteral(d.RawValue):
		desc, _ := strategy.Lookup(kind)
		out.Diagnostics = append(out.Diagnostics, diag.New(diag.CodeValueMismatch).
			WithDetailf("Invalid value %q for hydrate:%s. The prop is not meant to be assigned a boolean, but used as is or given a value of type %s. The default will be used instead.",
				d.RawValue, d.Kind, desc.Expected).
			WithSuggestion(fmt.Sprintf("Use hydrate:%s without a value, or give it a %s.", kind, desc.Expected)))
		return out
	}

	out.KeepValue = true
	out.Value = d.RawValue
	return out
}

func isBoolLiteral(s string) bool {
	s = strings.TrimSpace(s)
	return s == "true" || s == "false"
}
