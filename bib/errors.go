package bib

import (
	"fmt"
)

// ConsistencyError reports a broken invariant between the registries and
// the document tree: a placeholder nobody recorded, or a citation whose
// prepared entry node is missing. This always points at a bug in the
// collection phase, so it aborts the affected document instead of being
// papered over - a silently skipped entry would produce a bibliography
// with a hole and no explanation.
type ConsistencyError struct {
	Docname     string
	Placeholder string
	Key         string // citation key, empty when the placeholder itself is unknown
}

func (e *ConsistencyError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("document %q: bibliography placeholder %q was never recorded", e.Docname, e.Placeholder)
	}
	return fmt.Sprintf("document %q: bibliography %q has no prepared node for citation %q", e.Docname, e.Placeholder, e.Key)
}
