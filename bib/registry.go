package bib

import (
	"fmt"

	"bibc/config"
	"bibc/doctree"
)

// BibliographyKey identifies one bibliography placeholder within a build.
type BibliographyKey struct {
	Docname string
	ID      string
}

func (k BibliographyKey) String() string {
	return k.Docname + "#" + k.ID
}

// Bibliography describes one recorded placeholder: how its list should be
// rendered and the pre-built container node for every entry it may hold.
// Created when the placeholder is first encountered during document
// construction, consumed exactly once by the transform.
type Bibliography struct {
	Key      BibliographyKey
	ListMode config.ListMode
	EnumType config.EnumType
	Scope    config.BibScope

	// Start >= 1 restarts the shared enumeration counter, anything lower
	// means continue from wherever it left off.
	Start int

	// CitationNodes maps citation key to the container node prepared for
	// that entry: list items for list modes, citation nodes otherwise.
	// Reusing the prepared node keeps in-text formatting stable.
	CitationNodes map[string]*doctree.Node

	// Header is the wrapper placed around the rendered list. Deep-copied at
	// render time, the recorded template is never mutated.
	Header *doctree.Node
}

// Citation is one entry occurrence belonging to a specific bibliography.
// The same key may legally appear under several bibliography keys.
type Citation struct {
	BibKey BibliographyKey
	Key    string
	Entry  *FormattedEntry
}

// CitationRef is one in-text citation marker. Used only to compute
// back-reference targets, which never cross document boundaries.
type CitationRef struct {
	Docname string
	RefID   string
	Keys    []string
}

// Registry records citation and bibliography occurrences across one build.
// Append-only while the document trees are constructed, queried by the
// transform afterwards. A build is sequential, so no locking; a fresh
// registry is created for every independent build.
type Registry struct {
	bibliographies map[BibliographyKey]*Bibliography
	citations      []Citation
	refs           []CitationRef
}

func NewRegistry() *Registry {
	return &Registry{bibliographies: make(map[BibliographyKey]*Bibliography)}
}

// RecordBibliography registers a placeholder. Placeholder identity must be
// unique within the build.
func (r *Registry) RecordBibliography(b *Bibliography) error {
	if _, exists := r.bibliographies[b.Key]; exists {
		return fmt.Errorf("duplicate bibliography placeholder %s", b.Key)
	}
	r.bibliographies[b.Key] = b
	return nil
}

// RecordCitation appends an entry occurrence. Order of calls is the order
// entries will be rendered in.
func (r *Registry) RecordCitation(c Citation) {
	r.citations = append(r.citations, c)
}

// RecordCitationRef appends an in-text marker occurrence.
func (r *Registry) RecordCitationRef(ref CitationRef) {
	r.refs = append(r.refs, ref)
}

// Bibliography returns the recorded placeholder for the key.
func (r *Registry) Bibliography(key BibliographyKey) (*Bibliography, bool) {
	b, ok := r.bibliographies[key]
	return b, ok
}

// CitationsFor returns the citations belonging to the bibliography in
// recording order.
func (r *Registry) CitationsFor(key BibliographyKey) []Citation {
	var result []Citation
	for _, c := range r.citations {
		if c.BibKey == key {
			result = append(result, c)
		}
	}
	return result
}

// HasCitation reports whether the key is already collected by any
// bibliography in the build.
func (r *Registry) HasCitation(key string) bool {
	for _, c := range r.citations {
		if c.Key == key {
			return true
		}
	}
	return false
}

// Refs returns every recorded marker in occurrence order.
func (r *Registry) Refs() []CitationRef {
	return r.refs
}

// RefsCiting returns every marker in the given document whose key set
// contains the key, in marker occurrence order.
func (r *Registry) RefsCiting(docname, key string) []CitationRef {
	var result []CitationRef
	for _, ref := range r.refs {
		if ref.Docname != docname {
			continue
		}
		for _, k := range ref.Keys {
			if k == key {
				result = append(result, ref)
				break
			}
		}
	}
	return result
}
