// Package lazytag splits and builds lazy component tag names.
//
// A lazy tag starts with a marker: "Lazy" followed by a capitalized
// identifier (LazyChart), or "lazy-" followed by a hyphenated identifier
// (lazy-chart). The canonical form inserts the trigger kind between the
// marker and the component: LazyVisibleChart, lazy-visible-chart.
package lazytag

import (
	"strings"

	"github.com/vango-dev/lazyhydrate/pkg/strategy"
)

// Marker is the lazy prefix style.
type Marker uint8

const (
	// Pascal is the "Lazy" prefix.
	Pascal Marker = iota + 1
	// Kebab is the "lazy-" prefix.
	Kebab
)

// Prefix returns the literal marker text.
func (m Marker) Prefix() string {
	switch m {
	case Pascal:
		return "Lazy"
	case Kebab:
		return "lazy-"
	default:
		return ""
	}
}

// Name is a lazy tag split into marker and component identifier.
type Name struct {
	Marker    Marker
	Component string
}

// String rebuilds the tag.
func (n Name) String() string {
	return n.Marker.Prefix() + n.Component
}

// WithKind returns the canonical tag embedding kind.
func (n Name) WithKind(kind strategy.Kind) string {
	if n.Marker == Kebab {
		return "lazy-" + kind.String() + "-" + n.Component
	}
	return "Lazy" + kind.Suffix() + n.Component
}

// Split recognizes a lazy marker at the start of tag.
func Split(tag string) (Name, bool) {
	if rest, ok := strings.CutPrefix(tag, "Lazy"); ok && rest != "" && isUpper(rest[0]) && isIdent(rest, false) {
		return Name{Marker: Pascal, Component: rest}, true
	}
	if rest, ok := strings.CutPrefix(tag, "lazy-"); ok && rest != "" && isLower(rest[0]) && isIdent(rest, true) {
		return Name{Marker: Kebab, Component: rest}, true
	}
	return Name{}, false
}

// Canonical is a lazy tag that names its trigger kind.
type Canonical struct {
	Name
	Kind strategy.Kind
}

// ParseCanonical recognizes Lazy<Kind><Component> and
// lazy-<kind>-<component>.
func ParseCanonical(tag string) (Canonical, bool) {
	n, ok := Split(tag)
	if !ok {
		return Canonical{}, false
	}
	for _, name := range strategy.Names() {
		kind, _ := strategy.ParseKind(name)
		switch n.Marker {
		case Pascal:
			rest, ok := strings.CutPrefix(n.Component, kind.Suffix())
			if ok && rest != "" && isUpper(rest[0]) {
				return Canonical{Name: Name{Marker: Pascal, Component: rest}, Kind: kind}, true
			}
		case Kebab:
			rest, ok := strings.CutPrefix(n.Component, name+"-")
			if ok && rest != "" && isLower(rest[0]) {
				return Canonical{Name: Name{Marker: Kebab, Component: rest}, Kind: kind}, true
			}
		}
	}
	return Canonical{}, false
}

// PascalCase converts a hyphenated identifier to PascalCase. Identifiers
// without hyphens only get their first letter capitalized.
func PascalCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	upper := true
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '-' {
			upper = true
			continue
		}
		if upper && isLower(c) {
			c -= 'a' - 'A'
		}
		upper = false
		b.WriteByte(c)
	}
	return b.String()
}

func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }
func isLower(c byte) bool { return c >= 'a' && c <= 'z' }

func isIdent(s string, hyphen bool) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case isUpper(c), isLower(c), c >= '0' && c <= '9', c == '_':
		case c == '-' && hyphen:
		default:
			return false
		}
	}
	return true
}
