package schema

import "github.com/rawneddy/fieldcatalog/pkg/types"

// ApplyPolicy assigns occurrence bounds to every node that has no direct
// observation, leaving observed nodes untouched. The traversal is a single
// bottom-up pass: a node has an observed descendant when any child is
// observed or has one itself.
func ApplyPolicy(root *Node, policy types.CardinalityPolicy) {
	for _, child := range root.Children {
		applyPolicy(child, policy)
	}
}

func applyPolicy(n *Node, policy types.CardinalityPolicy) bool {
	hasObservedDescendant := false
	for _, child := range n.Children {
		if applyPolicy(child, policy) {
			hasObservedDescendant = true
		}
	}

	if !n.HasObservation {
		switch policy {
		case types.PolicyStrict:
			if hasObservedDescendant {
				n.MinOccurs, n.MaxOccurs = 1, Unbounded
			} else {
				n.MinOccurs, n.MaxOccurs = 0, Unbounded
			}
		case types.PolicyStrictest:
			if hasObservedDescendant {
				n.MinOccurs, n.MaxOccurs = 1, 1
			} else {
				n.MinOccurs, n.MaxOccurs = 0, 1
			}
		default: // permissive
			n.MinOccurs, n.MaxOccurs = 0, Unbounded
		}
	}

	return n.HasObservation || hasObservedDescendant
}
