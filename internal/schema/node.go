// Package schema turns flat field statistics into a hierarchical field tree
// and renders that tree as XSD or JSON Schema text. All computations here are
// pure and operate on an immutable snapshot taken at export time.
package schema

import "sort"

// Tree constants.
const (
	// Unbounded marks a node with no upper occurrence bound.
	Unbounded = -1

	// PathDelimiter separates field path segments.
	PathDelimiter = "/"

	// AttributeSigil prefixes segments that name attributes rather than
	// elements.
	AttributeSigil = '@'
)

// Kind is the shape of a tree node. Generators switch over it exhaustively.
type Kind int

// Node kinds.
const (
	// KindContainer is a node with children and no direct text value.
	KindContainer Kind = iota
	// KindLeaf is a terminal node carrying a text value.
	KindLeaf
	// KindMixed is a node observed both as a terminal value and as a
	// container of children.
	KindMixed
	// KindAttribute is a node whose segment begins with the attribute
	// sigil. Attributes cannot themselves have children.
	KindAttribute
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindContainer:
		return "container"
	case KindLeaf:
		return "leaf"
	case KindMixed:
		return "mixed"
	case KindAttribute:
		return "attribute"
	}
	return "unknown"
}

// FieldEntry is a statistics record reduced to the shape the tree builder
// consumes: normalized path, occurrence bounds, and value flags.
type FieldEntry struct {
	Path        string
	Display     string // preferred casing for rendering; empty falls back to Path
	MinOccurs   int
	MaxOccurs   int // Unbounded (-1) means no upper bound
	AllowsNull  bool
	AllowsEmpty bool
}

// Node is one node of a field tree. A virtual root with an empty Name owns
// the top-level nodes, so a tree can declare several independent roots.
type Node struct {
	Name string // segment name, attribute sigil stripped for attributes
	Path string // full path from the root
	Kind Kind

	Children map[string]*Node

	MinOccurs      int
	MaxOccurs      int // Unbounded (-1) means no upper bound
	HasObservation bool

	// Leaf-only value flags.
	AllowsNull  bool
	AllowsEmpty bool
}

// ElementChildren returns non-attribute children sorted by name.
func (n *Node) ElementChildren() []*Node {
	out := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		if c.Kind != KindAttribute {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Attributes returns attribute children sorted by name.
func (n *Node) Attributes() []*Node {
	out := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		if c.Kind == KindAttribute {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Walk visits n and every descendant in depth-first, name-sorted order.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	names := make([]string, 0, len(n.Children))
	for name := range n.Children {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		n.Children[name].Walk(fn)
	}
}
