package vdom

// VKind is the node type discriminator.
type VKind uint8

const (
	KindElement  VKind = iota // <div>, <button>, etc.
	KindText                  // Plain text node
	KindFragment              // Grouping without wrapper
)

// String returns the string representation of the VKind.
func (k VKind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindFragment:
		return "Fragment"
	default:
		return "Unknown"
	}
}

// VNode is the virtual DOM node.
type VNode struct {
	Kind     VKind    // Node type
	Tag      string   // Element tag name (e.g., "div")
	Props    Props    // Attributes
	Children []*VNode // Child nodes
	Text     string   // For KindText
	HID      string   // Hydration ID
}

// Props holds attributes passed to elements and components.
type Props map[string]any

// Component renders a tree from the props it is given.
type Component interface {
	Render(props Props) *VNode
}

// ComponentFunc adapts a render function to Component.
type ComponentFunc func(props Props) *VNode

// Render implements Component.
func (f ComponentFunc) Render(props Props) *VNode {
	return f(props)
}

// Func creates a component from a render function.
func Func(render func(Props) *VNode) Component {
	return ComponentFunc(render)
}

// El creates an element node.
func El(tag string, props Props, children ...*VNode) *VNode {
	return &VNode{Kind: KindElement, Tag: tag, Props: props, Children: children}
}

// Text creates a text node.
func Text(s string) *VNode {
	return &VNode{Kind: KindText, Text: s}
}

// Fragment groups children without a wrapper element.
func Fragment(children ...*VNode) *VNode {
	return &VNode{Kind: KindFragment, Children: children}
}

// MergeProps returns a new Props with every entry of each argument, later
// arguments winning on conflicts. Inputs are not modified.
func MergeProps(all ...Props) Props {
	n := 0
	for _, p := range all {
		n += len(p)
	}
	out := make(Props, n)
	for _, p := range all {
		for k, v := range p {
			out[k] = v
		}
	}
	return out
}
