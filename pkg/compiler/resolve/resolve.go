// Package resolve is the tree pass over parsed markup.
//
// It handles what the text pass cannot see or leaves alone: bound directives
// (:hydrate:visible="opts", v-bind:hydrate:if="ready") and tags carrying more
// than one hydration directive. The last directive on a node wins; every
// earlier one is reported as a duplicate and removed.
package resolve

import (
	"strings"

	"github.com/vango-dev/lazyhydrate/pkg/compiler/directive"
	"github.com/vango-dev/lazyhydrate/pkg/compiler/markup"
	"github.com/vango-dev/lazyhydrate/pkg/diag"
	"github.com/vango-dev/lazyhydrate/pkg/lazytag"
)

// Locator turns a position in the parsed markup into a diagnostic location.
type Locator func(loc markup.Loc) diag.Location

// At returns a Locator that reports positions as they are in the parsed
// markup.
func At(filename string) Locator {
	return func(loc markup.Loc) diag.Location {
		return diag.Location{File: filename, Line: loc.Line, Column: loc.Column, Offset: loc.Offset}
	}
}

// Resolve rewrites every lazy component in the tree rooted at root to its
// canonical form and returns the diagnostics, ordered by node.
func Resolve(filename string, root *markup.Node) diag.List {
	return ResolveWith(At(filename), root)
}

// ResolveWith is Resolve with diagnostics located by locate. Use it when the
// parsed markup is itself the output of an earlier edit of the source.
func ResolveWith(locate Locator, root *markup.Node) diag.List {
	var diags diag.List
	markup.Walk(root, func(n *markup.Node) {
		if n.IsComponent() {
			diags = append(diags, resolveNode(locate, n)...)
		}
	})
	return diags
}

type match struct {
	index int
	dir   directive.Directive
}

// directiveOf reports whether p is a hydration directive. The canonical
// :hydrate binding carries no kind and is not one.
func directiveOf(p *markup.Prop) (directive.Directive, bool) {
	switch {
	case p.Type == markup.PropAttribute:
		d, ok := directive.FromAttribute(p.Name)
		if ok && p.HasValue {
			d = d.WithValue(p.Value)
		}
		return d, ok
	case p.IsBind():
		d, ok := directive.FromAttribute(p.Arg)
		if ok && p.HasValue {
			d = d.WithValue(p.Value)
		}
		return d, ok
	}
	return directive.Directive{}, false
}

func resolveNode(locate Locator, n *markup.Node) diag.List {
	name, ok := lazytag.Split(n.Tag)
	if !ok {
		return nil
	}

	var matches []match
	for i, p := range n.Props {
		if d, ok := directiveOf(p); ok {
			matches = append(matches, match{index: i, dir: d})
		}
	}
	if len(matches) == 0 {
		return nil
	}

	occurrence := markup.PrintOpenTag(n)
	var diags diag.List

	winner := matches[len(matches)-1]
	drop := make(map[int]bool, len(matches)-1)
	for _, m := range matches[:len(matches)-1] {
		p := n.Props[m.index]
		drop[m.index] = true
		diags = append(diags, diag.New(diag.CodeDuplicate).
			WithDetailf("%q is overridden by %q; only the last hydration directive on a node is used.",
				p.RawName, n.Props[winner.index].RawName).
			WithLocation(locate(p.Loc)).
			WithTag(occurrence))
	}

	out := winner.dir.Resolve()
	for _, d := range out.Diagnostics {
		d.WithLocation(locate(n.Props[winner.index].Loc)).WithTag(occurrence)
	}
	diags = append(diags, out.Diagnostics...)

	if out.KeepValue {
		n.Props[winner.index] = binding(n.Props[winner.index], out.Value)
	} else {
		drop[winner.index] = true
	}

	props := n.Props[:0]
	for i, p := range n.Props {
		if !drop[i] {
			props = append(props, p)
		}
	}
	n.Props = props
	n.Tag = name.WithKind(out.Kind)
	return diags
}

// binding replaces old with the canonical value binding, keeping its
// position, spacing and quote style.
func binding(old *markup.Prop, value string) *markup.Prop {
	p := markup.NewBinding(directive.ValueProp, value)
	p.Lead = old.Lead
	p.Assign = old.Assign
	p.Loc = old.Loc
	switch {
	case old.Quote != 0:
		p.Quote = old.Quote
	case strings.ContainsRune(value, '"'):
		p.Quote = '\''
	}
	return p
}
