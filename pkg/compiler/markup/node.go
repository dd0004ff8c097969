// Package markup is a small element-tree model of template markup.
//
// It stands in for the host template parser: Parse produces the tree the
// directive resolver works on and Print serializes it back. Attributes keep
// their leading whitespace, quote style and spelling, so printing an
// unmodified tree reproduces the source byte for byte.
package markup

import "strings"

// NodeType discriminates tree nodes.
type NodeType uint8

const (
	NodeRoot NodeType = iota
	NodeElement
	NodeText
	NodeComment
)

// ElementType separates native elements from components.
type ElementType uint8

const (
	ElementNative ElementType = iota
	ElementComponent
)

// Loc is a position in the source. Line and Column are 1-based.
type Loc struct {
	Offset int
	Line   int
	Column int
}

// PropType discriminates props.
type PropType uint8

const (
	// PropAttribute is a plain attribute: class="x", hydrate:visible.
	PropAttribute PropType = iota
	// PropDirective is a v-* directive or one of its shorthands (:, @, #).
	PropDirective
)

// Prop is one attribute or directive on an element.
type Prop struct {
	Type PropType

	// RawName is the name as written and as printed.
	RawName string

	// Name is the attribute name, or the directive name without the v-
	// prefix ("bind" for :x and v-bind:x, "on" for @x).
	Name string

	// Arg is the directive argument ("x" in :x). Empty for attributes.
	Arg string

	Value    string
	HasValue bool
	Quote    byte

	// Lead is the source between the previous token and the name.
	Lead string

	// Assign is the "=" with any surrounding whitespace. Empty means "=".
	Assign string

	Loc Loc
}

// IsBind reports whether p is a v-bind directive.
func (p *Prop) IsBind() bool {
	return p.Type == PropDirective && p.Name == "bind"
}

// NewBinding returns a :arg="value" directive.
func NewBinding(arg, value string) *Prop {
	return &Prop{
		Type:     PropDirective,
		RawName:  ":" + arg,
		Name:     "bind",
		Arg:      arg,
		Value:    value,
		HasValue: true,
		Quote:    '"',
		Lead:     " ",
	}
}

// newProp classifies a raw attribute name.
func newProp(raw string) *Prop {
	p := &Prop{RawName: raw, Name: raw}
	switch {
	case strings.HasPrefix(raw, ":"):
		p.Type, p.Name, p.Arg = PropDirective, "bind", raw[1:]
	case strings.HasPrefix(raw, "@"):
		p.Type, p.Name, p.Arg = PropDirective, "on", raw[1:]
	case strings.HasPrefix(raw, "#"):
		p.Type, p.Name, p.Arg = PropDirective, "slot", raw[1:]
	case strings.HasPrefix(raw, "v-"):
		p.Type = PropDirective
		name, arg, _ := strings.Cut(raw[2:], ":")
		p.Name, p.Arg = name, arg
	}
	return p
}

// Node is a tree node.
type Node struct {
	Type NodeType

	// Element fields.
	Tag         string
	TagType     ElementType
	Props       []*Prop
	Children    []*Node
	SelfClosing bool
	// Unclosed marks elements with no closing tag in the source.
	Unclosed bool
	// TagTrail is the whitespace before the opening tag's '>' or '/>'.
	TagTrail string
	// CloseTrail is the whitespace before the closing tag's '>'.
	CloseTrail string

	// Text holds the raw content of text and comment nodes.
	Text string

	Loc Loc
}

// IsComponent reports whether n is a component element.
func (n *Node) IsComponent() bool {
	return n.Type == NodeElement && n.TagType == ElementComponent
}

// Walk calls fn for n and every descendant, parents first.
func Walk(n *Node, fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

// elementType classifies a tag: names with an upper-case letter or a hyphen
// are components.
func elementType(tag string) ElementType {
	if strings.ContainsRune(tag, '-') || strings.ToLower(tag) != tag {
		return ElementComponent
	}
	return ElementNative
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}
