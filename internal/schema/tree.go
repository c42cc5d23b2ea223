package schema

import "strings"

// BuildTree assembles a field tree from an unordered collection of entries.
// Children are keyed by normalized (lowercased) segment so that casing
// variants of one logical field land on the same node; the rendered name of
// a node comes from the entry's display path (canonical or dominant casing).
// Intermediate nodes that were never observed directly are created as
// containers with HasObservation false; the cardinality policy engine
// assigns their bounds later. Mixed-content detection is symmetric to
// arrival order: a node is mixed whenever both it and a strict descendant
// appear in the entry set, regardless of which arrives first.
func BuildTree(entries []FieldEntry) *Node {
	root := &Node{
		Name:     "",
		Path:     "",
		Kind:     KindContainer,
		Children: make(map[string]*Node),
	}

	for _, entry := range entries {
		insert(root, entry)
	}
	return root
}

func insert(root *Node, entry FieldEntry) {
	segments := splitPath(entry.Path)

	display := splitPath(entry.Display)
	if len(display) != len(segments) {
		display = segments
	}

	node := root
	for i, seg := range segments {
		child, ok := node.Children[seg]
		if !ok {
			child = newNode(display[i], node.Path+PathDelimiter+seg)
			node.Children[seg] = child
		} else if i < len(segments)-1 && child.HasObservation && child.Kind == KindLeaf {
			// A leaf observed earlier turns out to have descendants.
			child.Kind = KindMixed
		}
		node = child

		if i == len(segments)-1 {
			node.HasObservation = true
			node.Name = stripSigil(display[i])
			node.MinOccurs = entry.MinOccurs
			node.MaxOccurs = entry.MaxOccurs
			node.AllowsNull = entry.AllowsNull
			node.AllowsEmpty = entry.AllowsEmpty
			if node.Kind != KindAttribute {
				if len(node.Children) > 0 {
					node.Kind = KindMixed
				} else {
					node.Kind = KindLeaf
				}
			}
		}
	}
}

func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(strings.TrimPrefix(path, PathDelimiter), PathDelimiter)
}

func stripSigil(segment string) string {
	if strings.HasPrefix(segment, string(AttributeSigil)) {
		return segment[1:]
	}
	return segment
}

func newNode(displaySegment, path string) *Node {
	n := &Node{
		Name:     displaySegment,
		Path:     path,
		Kind:     KindContainer,
		Children: make(map[string]*Node),
	}
	if strings.HasPrefix(displaySegment, string(AttributeSigil)) {
		n.Name = displaySegment[1:]
		n.Kind = KindAttribute
	}
	return n
}
