// Package rewrite is the text pass over raw markup that runs before parsing.
//
// It recognizes the shorthand
//
//	<LazyChart hydrate:visible="{ threshold: 0.5 }" />
//	<lazy-chart hydrate:never>…</lazy-chart>
//
// and renames the tag to embed the trigger kind, replacing the shorthand with
// a :hydrate binding when the value survives:
//
//	<LazyVisibleChart :hydrate="{ threshold: 0.5 }" />
//	<lazy-never-chart>…</lazy-never-chart>
//
// Matching uses a small scanner that tracks nesting depth of the target tag
// name, so same-named lazy components nested in slot content are balanced
// correctly. Comments and script/style bodies are skipped. Tags with two or
// more shorthand attributes, or any bound hydration directive, are left for
// the directive resolver, which reports the duplicates.
package rewrite

import (
	"sort"
	"strings"

	"github.com/vango-dev/lazyhydrate/pkg/compiler/directive"
	"github.com/vango-dev/lazyhydrate/pkg/compiler/internal/scan"
	"github.com/vango-dev/lazyhydrate/pkg/diag"
	"github.com/vango-dev/lazyhydrate/pkg/lazytag"
)

// Result is the output of a rewrite.
type Result struct {
	Code        string
	Changed     bool
	Diagnostics diag.List

	// edits applied to the source, sorted by start.
	edits []edit
}

// SourceOffset maps an offset in Code back to the source offset it came
// from. Offsets inside replaced text map to the start of the replaced span.
func (r Result) SourceOffset(offset int) int {
	shift := 0
	for _, e := range r.edits {
		start := e.start + shift
		if offset < start {
			break
		}
		if offset < start+len(e.text) {
			return e.start
		}
		shift += len(e.text) - (e.end - e.start)
	}
	return offset - shift
}

// edit replaces src[start:end] with text.
type edit struct {
	start, end int
	text       string
}

// Rewrite runs the text pass over src. filename is only used to locate
// diagnostics. Input without shorthand directives is returned unchanged.
func Rewrite(filename, src string) Result {
	var (
		edits []edit
		diags diag.List
	)

	i := 0
	for i < len(src) {
		if src[i] != '<' {
			i++
			continue
		}
		if next := scan.SkipComment(src, i); next >= 0 {
			i = next
			continue
		}
		if i+1 >= len(src) || !scan.IsTagStart(src[i+1]) {
			i++
			continue
		}

		tag, ok := scan.ParseOpenTag(src, i)
		if !ok {
			break
		}
		i = tag.End

		if scan.IsRawText(tag.Name) && !tag.SelfClosing {
			i = scan.SkipRawText(src, i, tag.Name)
			continue
		}

		e, d := rewriteTag(filename, src, tag)
		edits = append(edits, e...)
		diags = append(diags, d...)
	}

	if len(edits) == 0 {
		return Result{Code: src, Diagnostics: diags}
	}
	code := apply(src, edits)
	return Result{Code: code, Changed: true, Diagnostics: diags, edits: edits}
}

// rewriteTag returns the edits for one lazy tag carrying exactly one
// shorthand directive.
func rewriteTag(filename, src string, tag scan.OpenTag) ([]edit, diag.List) {
	name, ok := lazytag.Split(tag.Name)
	if !ok {
		return nil, nil
	}

	var found *scan.Attr
	for idx := range tag.Attrs {
		attr := tag.Attrs[idx].Name
		if isBoundDirective(attr) {
			return nil, nil
		}
		if !strings.HasPrefix(attr, directive.Prefix) {
			continue
		}
		if found != nil {
			return nil, nil
		}
		found = &tag.Attrs[idx]
	}
	if found == nil {
		return nil, nil
	}

	var closeStart, closeEnd int
	if !tag.SelfClosing {
		closeStart, closeEnd, ok = scan.FindClose(src, tag.End, tag.Name)
		if !ok {
			return nil, nil
		}
	}

	dir, _ := directive.FromAttribute(found.Name)
	if found.HasValue {
		dir = dir.WithValue(found.Value)
	}
	out := dir.Resolve()
	newName := name.WithKind(out.Kind)

	edits := []edit{{start: tag.NameStart, end: tag.NameEnd, text: newName}}
	if out.KeepValue {
		edits = append(edits, edit{start: found.Start, end: found.End, text: binding(out.Value, found.Quote)})
	} else {
		edits = append(edits, edit{start: found.Lead, end: found.End})
	}
	if !tag.SelfClosing {
		edits = append(edits, edit{start: closeStart, end: closeEnd, text: newName})
	}

	loc := diag.LocationAt(filename, src, tag.Start)
	occurrence := src[tag.Start:tag.End]
	for _, d := range out.Diagnostics {
		d.WithLocation(loc).WithTag(occurrence)
	}
	return edits, out.Diagnostics
}

// isBoundDirective reports whether name is :hydrate:<kind> or
// v-bind:hydrate:<kind>. Tags carrying one belong to the tree pass.
func isBoundDirective(name string) bool {
	for _, bind := range []string{":", "v-bind:"} {
		if rest, ok := strings.CutPrefix(name, bind); ok && strings.HasPrefix(rest, directive.Prefix) {
			return true
		}
	}
	return false
}

// binding renders :hydrate="value", keeping the source quote style.
func binding(value string, quote byte) string {
	q := string(quote)
	switch {
	case quote == 0 && strings.ContainsRune(value, '"'):
		q = "'"
	case quote == 0:
		q = `"`
	}
	return ":" + directive.ValueProp + "=" + q + value + q
}

func apply(src string, edits []edit) string {
	sort.Slice(edits, func(a, b int) bool { return edits[a].start < edits[b].start })

	var b strings.Builder
	b.Grow(len(src))
	last := 0
	for _, e := range edits {
		b.WriteString(src[last:e.start])
		b.WriteString(e.text)
		last = e.end
	}
	b.WriteString(src[last:])
	return b.String()
}
