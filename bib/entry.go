// Package bib implements the citation and bibliography registries and the
// post-processing transforms which replace bibliography placeholders with
// rendered entry lists.
package bib

import (
	"fmt"

	"bibc/doctree"
)

// Entry is one parsed bibliography database record. Fields carry the text
// exactly as the database has it, including escaped markup the formatter
// cannot express (see repair passes).
type Entry struct {
	Key       string `yaml:"key"`
	Label     string `yaml:"label,omitempty"`
	Authors   string `yaml:"authors,omitempty"`
	Title     string `yaml:"title,omitempty"`
	Container string `yaml:"container,omitempty"`
	Year      string `yaml:"year,omitempty"`
	URL       string `yaml:"url,omitempty"`
	Note      string `yaml:"note,omitempty"`
}

// FormattedEntry is the rich-text rendering of one entry produced by a
// Formatter: a short visible label plus the body fragments.
type FormattedEntry struct {
	Key   string
	Label string

	body []*doctree.Node
}

// NewFormattedEntry builds a formatted entry from ready body fragments.
func NewFormattedEntry(key, label string, body []*doctree.Node) *FormattedEntry {
	return &FormattedEntry{Key: key, Label: label, body: body}
}

// Paragraph builds a fresh body paragraph. Every call returns new nodes so
// the same entry can be rendered into several bibliographies without the
// subtrees aliasing each other.
func (fe *FormattedEntry) Paragraph() *doctree.Node {
	return doctree.NewParagraph(doctree.CloneNodes(fe.body)...)
}

// EntryRegistry is a pure lookup structure holding the formatted rendering
// of every known entry, keyed by citation key. Populated once when the
// bibliography database is loaded, read-only afterwards.
type EntryRegistry struct {
	entries map[string]*FormattedEntry
	keys    []string
}

func NewEntryRegistry() *EntryRegistry {
	return &EntryRegistry{entries: make(map[string]*FormattedEntry)}
}

// Add registers a formatted entry. Duplicate keys indicate a broken database
// and are rejected.
func (r *EntryRegistry) Add(fe *FormattedEntry) error {
	if _, exists := r.entries[fe.Key]; exists {
		return fmt.Errorf("duplicate bibliography entry %q", fe.Key)
	}
	r.entries[fe.Key] = fe
	r.keys = append(r.keys, fe.Key)
	return nil
}

// Get returns the formatted entry for the key.
func (r *EntryRegistry) Get(key string) (*FormattedEntry, bool) {
	fe, ok := r.entries[key]
	return fe, ok
}

// Keys returns all known keys in database order.
func (r *EntryRegistry) Keys() []string {
	return append([]string(nil), r.keys...)
}

func (r *EntryRegistry) Len() int {
	return len(r.entries)
}
