package doctree

// Deep copy for tree nodes. Header templates are cloned per placeholder and
// pre-built entry nodes must never alias each other between renders.

// Clone creates a deep copy of the node and all its descendants.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}

	clone := *n
	clone.Keys = cloneStrings(n.Keys)
	clone.Backrefs = cloneStrings(n.Backrefs)
	clone.Children = CloneNodes(n.Children)
	return &clone
}

// CloneNodes deep-copies a child sequence.
func CloneNodes(nodes []*Node) []*Node {
	if nodes == nil {
		return nil
	}
	result := make([]*Node, len(nodes))
	for i := range nodes {
		result[i] = nodes[i].Clone()
	}
	return result
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
