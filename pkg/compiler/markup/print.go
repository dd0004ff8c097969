package markup

import "strings"

// Print serializes the tree rooted at n.
func Print(n *Node) string {
	var b strings.Builder
	write(&b, n)
	return b.String()
}

func write(b *strings.Builder, n *Node) {
	switch n.Type {
	case NodeRoot:
		for _, c := range n.Children {
			write(b, c)
		}

	case NodeText, NodeComment:
		b.WriteString(n.Text)

	case NodeElement:
		writeOpen(b, n)
		if n.SelfClosing {
			return
		}
		for _, c := range n.Children {
			write(b, c)
		}
		if !n.Unclosed {
			b.WriteString("</")
			b.WriteString(n.Tag)
			b.WriteString(n.CloseTrail)
			b.WriteByte('>')
		}
	}
}

// PrintOpenTag serializes only the opening tag of element n.
func PrintOpenTag(n *Node) string {
	var b strings.Builder
	writeOpen(&b, n)
	return b.String()
}

func writeOpen(b *strings.Builder, n *Node) {
	b.WriteByte('<')
	b.WriteString(n.Tag)
	for _, p := range n.Props {
		b.WriteString(p.Lead)
		b.WriteString(p.RawName)
		if p.HasValue {
			if p.Assign != "" {
				b.WriteString(p.Assign)
			} else {
				b.WriteByte('=')
			}
			if p.Quote != 0 {
				b.WriteByte(p.Quote)
			}
			b.WriteString(p.Value)
			if p.Quote != 0 {
				b.WriteByte(p.Quote)
			}
		}
	}
	b.WriteString(n.TagTrail)
	if n.SelfClosing {
		b.WriteString("/>")
	} else {
		b.WriteByte('>')
	}
}
