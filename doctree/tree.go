package doctree

// Structural primitives used by transforms: find nodes of a kind in document
// order and replace a node with one or more subtrees. These are the only
// operations transforms perform on the host tree.

// FindAll returns every node of the given kind in document traversal order,
// including the root itself.
func FindAll(root *Node, kind NodeKind) []*Node {
	var found []*Node
	walk(root, func(n *Node) {
		if n.Kind == kind {
			found = append(found, n)
		}
	})
	return found
}

// FindAllFunc returns every node matching the predicate in document
// traversal order.
func FindAllFunc(root *Node, match func(*Node) bool) []*Node {
	var found []*Node
	walk(root, func(n *Node) {
		if match(n) {
			found = append(found, n)
		}
	})
	return found
}

func walk(n *Node, visit func(*Node)) {
	visit(n)
	for _, child := range n.Children {
		walk(child, visit)
	}
}

// Replace substitutes old with the given replacement subtrees wherever old
// sits under root. Replacing with nothing removes the node. Returns false
// when old is not part of the tree.
func Replace(root, old *Node, replacements ...*Node) bool {
	for i, child := range root.Children {
		if child == old {
			children := make([]*Node, 0, len(root.Children)-1+len(replacements))
			children = append(children, root.Children[:i]...)
			children = append(children, replacements...)
			children = append(children, root.Children[i+1:]...)
			root.Children = children
			return true
		}
		if Replace(child, old, replacements...) {
			return true
		}
	}
	return false
}
