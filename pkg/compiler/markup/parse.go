package markup

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/vango-dev/lazyhydrate/pkg/compiler/internal/scan"
)

// ErrUnterminatedTag is returned when a tag is missing its '>'.
var ErrUnterminatedTag = errors.New("markup: unterminated tag")

type parser struct {
	src        string
	lineStarts []int
	stack      []*Node
	textStart  int
}

// Parse builds the element tree for src. Closing tags without a matching
// open element are kept as text. Elements still open at the end of input,
// and void elements, are marked Unclosed.
func Parse(src string) (*Node, error) {
	p := &parser{src: src}
	p.lineStarts = append(p.lineStarts, 0)
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			p.lineStarts = append(p.lineStarts, i+1)
		}
	}

	root := &Node{Type: NodeRoot, Loc: p.loc(0)}
	p.stack = []*Node{root}

	i := 0
	for i < len(src) {
		if src[i] != '<' {
			i++
			continue
		}

		if next := scan.SkipComment(src, i); next >= 0 {
			p.flush(i)
			p.append(&Node{Type: NodeComment, Text: src[i:next], Loc: p.loc(i)})
			i = next
			p.textStart = i
			continue
		}

		if i+1 < len(src) && src[i+1] == '/' {
			next, err := p.closeTag(i)
			if err != nil {
				return nil, err
			}
			i = next
			continue
		}

		if i+1 < len(src) && scan.IsTagStart(src[i+1]) {
			tag, ok := scan.ParseOpenTag(src, i)
			if !ok {
				loc := p.loc(i)
				return nil, fmt.Errorf("%w at %d:%d", ErrUnterminatedTag, loc.Line, loc.Column)
			}
			p.flush(i)
			el := p.element(tag)
			p.append(el)
			i = tag.End
			p.textStart = i

			switch {
			case tag.SelfClosing:
			case voidElements[strings.ToLower(tag.Name)]:
				el.Unclosed = true
			case scan.IsRawText(tag.Name):
				end := scan.SkipRawText(src, i, tag.Name)
				if end > i {
					el.Children = append(el.Children, &Node{Type: NodeText, Text: src[i:end], Loc: p.loc(i)})
				}
				i = end
				p.textStart = i
				p.stack = append(p.stack, el)
			default:
				p.stack = append(p.stack, el)
			}
			continue
		}
		i++
	}

	p.flush(len(src))
	for k := len(p.stack) - 1; k >= 1; k-- {
		p.stack[k].Unclosed = true
	}
	return root, nil
}

// closeTag handles "</name ...>" at i and returns the offset to resume at.
func (p *parser) closeTag(i int) (int, error) {
	name, _, nameEnd := scan.ClosingName(p.src, i)
	gt := strings.IndexByte(p.src[nameEnd:], '>')
	if gt < 0 {
		loc := p.loc(i)
		return 0, fmt.Errorf("%w at %d:%d", ErrUnterminatedTag, loc.Line, loc.Column)
	}
	next := nameEnd + gt + 1

	idx := -1
	for k := len(p.stack) - 1; k >= 1; k-- {
		if p.stack[k].Tag == name {
			idx = k
			break
		}
	}
	if idx < 0 {
		// stray close tag, keep it as text
		return next, nil
	}

	p.flush(i)
	for k := len(p.stack) - 1; k > idx; k-- {
		p.stack[k].Unclosed = true
	}
	p.stack[idx].CloseTrail = p.src[nameEnd : nameEnd+gt]
	p.stack = p.stack[:idx]
	p.textStart = next
	return next, nil
}

func (p *parser) element(tag scan.OpenTag) *Node {
	el := &Node{
		Type:        NodeElement,
		Tag:         tag.Name,
		TagType:     elementType(tag.Name),
		SelfClosing: tag.SelfClosing,
		Loc:         p.loc(tag.Start),
	}

	last := tag.NameEnd
	for _, a := range tag.Attrs {
		prop := newProp(a.Name)
		prop.Value = a.Value
		prop.HasValue = a.HasValue
		prop.Quote = a.Quote
		prop.Lead = p.src[last:a.Start]
		if a.HasValue {
			valueStart := a.End - len(a.Value)
			if a.Quote != 0 {
				valueStart -= 2
			}
			prop.Assign = p.src[a.Start+len(a.Name) : valueStart]
		}
		prop.Loc = p.loc(a.Start)
		el.Props = append(el.Props, prop)
		last = a.End
	}

	trailEnd := tag.End - 1
	if tag.SelfClosing {
		trailEnd = tag.End - 2
	}
	if trailEnd > last {
		el.TagTrail = p.src[last:trailEnd]
	}
	return el
}

func (p *parser) append(n *Node) {
	top := p.stack[len(p.stack)-1]
	top.Children = append(top.Children, n)
}

// flush emits pending text up to end.
func (p *parser) flush(end int) {
	if end > p.textStart {
		p.append(&Node{Type: NodeText, Text: p.src[p.textStart:end], Loc: p.loc(p.textStart)})
	}
	p.textStart = end
}

func (p *parser) loc(offset int) Loc {
	line := sort.Search(len(p.lineStarts), func(i int) bool { return p.lineStarts[i] > offset })
	return Loc{Offset: offset, Line: line, Column: offset - p.lineStarts[line-1] + 1}
}
