// Package scan tokenizes markup tags for the compiler passes.
package scan

import "strings"

// Attr is one attribute inside an opening tag. Offsets index the source.
type Attr struct {
	Lead     int // start of the whitespace before the attribute
	Start    int
	End      int
	Name     string
	Value    string
	HasValue bool
	Quote    byte // 0 for unquoted values
}

// OpenTag is a scanned opening tag.
type OpenTag struct {
	Start       int // offset of '<'
	NameStart   int
	NameEnd     int
	End         int // offset just past '>'
	Name        string
	Attrs       []Attr
	SelfClosing bool
}

// IsSpace reports whether c is markup whitespace.
func IsSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

// IsTagStart reports whether c can start a tag name.
func IsTagStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// isNameEnd reports whether c terminates a tag name.
func isNameEnd(c byte) bool {
	return IsSpace(c) || c == '>' || c == '/'
}

// SkipComment returns the offset past the comment starting at i, or -1 if i
// does not start a comment. Unterminated comments run to the end of src.
func SkipComment(src string, i int) int {
	if !strings.HasPrefix(src[i:], "<!--") {
		return -1
	}
	end := strings.Index(src[i+4:], "-->")
	if end < 0 {
		return len(src)
	}
	return i + 4 + end + 3
}

// ParseOpenTag scans the opening tag starting at src[i] == '<'. ok is false
// when the tag is not terminated.
func ParseOpenTag(src string, i int) (tag OpenTag, ok bool) {
	tag.Start = i
	j := i + 1
	tag.NameStart = j
	for j < len(src) && !isNameEnd(src[j]) {
		j++
	}
	tag.NameEnd = j
	tag.Name = src[tag.NameStart:tag.NameEnd]

	for j < len(src) {
		lead := j
		for j < len(src) && IsSpace(src[j]) {
			j++
		}
		if j >= len(src) {
			return tag, false
		}
		switch {
		case src[j] == '>':
			tag.End = j + 1
			return tag, true
		case src[j] == '/' && j+1 < len(src) && src[j+1] == '>':
			tag.SelfClosing = true
			tag.End = j + 2
			return tag, true
		case src[j] == '/':
			// stray slash inside the tag
			j++
			continue
		}

		a := Attr{Lead: lead, Start: j}
		for j < len(src) && !IsSpace(src[j]) && src[j] != '=' && src[j] != '>' &&
			!(src[j] == '/' && j+1 < len(src) && src[j+1] == '>') {
			j++
		}
		a.Name = src[a.Start:j]

		k := j
		for k < len(src) && IsSpace(src[k]) {
			k++
		}
		if k < len(src) && src[k] == '=' {
			k++
			for k < len(src) && IsSpace(src[k]) {
				k++
			}
			if k >= len(src) {
				return tag, false
			}
			a.HasValue = true
			if q := src[k]; q == '"' || q == '\'' {
				endQ := strings.IndexByte(src[k+1:], q)
				if endQ < 0 {
					return tag, false
				}
				a.Quote = q
				a.Value = src[k+1 : k+1+endQ]
				j = k + 1 + endQ + 1
			} else {
				v := k
				for k < len(src) && !IsSpace(src[k]) && src[k] != '>' {
					k++
				}
				a.Value = src[v:k]
				j = k
			}
		}
		a.End = j
		tag.Attrs = append(tag.Attrs, a)
	}
	return tag, false
}

// ClosingName returns the name of the closing tag at src[i:] == "</…" and
// the offsets of the name.
func ClosingName(src string, i int) (name string, start, end int) {
	start = i + 2
	end = start
	for end < len(src) && !isNameEnd(src[end]) {
		end++
	}
	return src[start:end], start, end
}

// SkipRawText returns the offset of the closing tag of a raw-text element
// (script, style) whose body starts at i.
func SkipRawText(src string, i int, name string) int {
	closing := "</" + strings.ToLower(name)
	idx := strings.Index(strings.ToLower(src[i:]), closing)
	if idx < 0 {
		return len(src)
	}
	return i + idx
}

// IsRawText reports whether the element body is not markup.
func IsRawText(name string) bool {
	n := strings.ToLower(name)
	return n == "script" || n == "style"
}

// FindClose locates the closing tag matching an element named name whose
// content starts at from. It tracks nesting of same-named elements. It
// returns the offsets of the closing tag's name, or ok=false if there is no
// matching close.
func FindClose(src string, from int, name string) (start, end int, ok bool) {
	depth := 1
	i := from
	for i < len(src) {
		if src[i] != '<' {
			i++
			continue
		}
		if next := SkipComment(src, i); next >= 0 {
			i = next
			continue
		}
		if i+1 < len(src) && src[i+1] == '/' {
			n, s, e := ClosingName(src, i)
			if n == name {
				depth--
				if depth == 0 {
					return s, e, true
				}
			}
			i = e
			continue
		}
		if i+1 < len(src) && IsTagStart(src[i+1]) {
			tag, tok := ParseOpenTag(src, i)
			if !tok {
				return 0, 0, false
			}
			if tag.Name == name && !tag.SelfClosing {
				depth++
			}
			i = tag.End
			if IsRawText(tag.Name) && !tag.SelfClosing {
				i = SkipRawText(src, i, tag.Name)
			}
			continue
		}
		i++
	}
	return 0, 0, false
}
