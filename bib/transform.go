package bib

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"bibc/config"
	"bibc/doctree"
)

// PostTransform is one ordered pass over a finished document tree. Lower
// priority runs first.
type PostTransform interface {
	Name() string
	Priority() int
	Apply(doc *doctree.Node, log *zap.Logger) error
}

// RunPostTransforms applies the passes to one document in priority order.
func RunPostTransforms(doc *doctree.Node, log *zap.Logger, transforms ...PostTransform) error {
	sorted := append([]PostTransform(nil), transforms...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})
	for _, t := range sorted {
		if err := t.Apply(doc, log.Named(t.Name())); err != nil {
			return fmt.Errorf("%s transform: %w", t.Name(), err)
		}
	}
	return nil
}

// BibliographyTransform replaces every bibliography placeholder with its
// rendered entry list, or with an inert anchor when nothing cites it.
//
// The shared enumeration counter lives here: one transform instance serves
// one build pass, numbering continues seamlessly across placeholders and
// documents unless a placeholder restarts it explicitly.
type BibliographyTransform struct {
	reg        *Registry
	labelOpen  string
	labelClose string
	backrefs   bool
	counter    int
}

func NewBibliographyTransform(reg *Registry, cfg *config.BibliographyConfig) *BibliographyTransform {
	return &BibliographyTransform{
		reg:        reg,
		labelOpen:  cfg.LabelOpen,
		labelClose: cfg.LabelClose,
		backrefs:   cfg.Backrefs,
	}
}

func (t *BibliographyTransform) Name() string {
	return "bibliography"
}

// Priority must stay below the repair passes - entries have to exist before
// anything can fix their text.
func (t *BibliographyTransform) Priority() int {
	return 5
}

func (t *BibliographyTransform) Apply(doc *doctree.Node, log *zap.Logger) error {
	for _, bibnode := range doctree.FindAll(doc, doctree.KindBibliography) {
		key := BibliographyKey{Docname: bibnode.Docname, ID: bibnode.ID}

		b, ok := t.reg.Bibliography(key)
		if !ok {
			return &ConsistencyError{Docname: key.Docname, Placeholder: key.ID}
		}
		citations := t.reg.CitationsFor(key)
		if len(citations) == 0 {
			// keep the placeholder identity addressable so existing
			// cross-references to it stay structurally valid
			log.Debug("Bibliography without citations, leaving inert anchor", zap.String("key", key.String()))
			doctree.Replace(doc, bibnode, doctree.NewTarget(key.Docname, key.ID))
			continue
		}

		rendered, next, err := t.render(b, citations)
		if err != nil {
			return err
		}
		t.counter = next

		final := b.Header.Clone()
		final.Append(rendered...)
		doctree.Replace(doc, bibnode, final)
		log.Debug("Bibliography rendered",
			zap.String("key", key.String()),
			zap.Stringer("mode", b.ListMode),
			zap.Int("entries", len(citations)))
	}
	return nil
}

// render builds the entry nodes for one placeholder. The shared counter is
// threaded through explicitly: current value in, updated value out.
func (t *BibliographyTransform) render(b *Bibliography, citations []Citation) ([]*doctree.Node, int, error) {
	counter := t.counter

	var list *doctree.Node
	switch b.ListMode {
	case config.ListModeEnumerated:
		if b.Start >= 1 {
			counter = b.Start
		} else if counter < 1 {
			counter = 1
		}
		list = &doctree.Node{Kind: doctree.KindEnumList, EnumType: b.EnumType, ListStart: counter}
	case config.ListModeBullet:
		list = &doctree.Node{Kind: doctree.KindBulletList}
	case config.ListModeCitation:
		// no container, entries stay independently addressable siblings
	}

	var flat []*doctree.Node
	for _, c := range citations {
		node, ok := b.CitationNodes[c.Key]
		if !ok {
			return nil, counter, &ConsistencyError{Docname: b.Key.Docname, Placeholder: b.Key.ID, Key: c.Key}
		}
		if b.ListMode == config.ListModeCitation {
			if t.backrefs {
				// back-references are resolvable only within the rendered
				// document, markers elsewhere are ignored
				for _, ref := range t.reg.RefsCiting(b.Key.Docname, c.Key) {
					node.Backrefs = append(node.Backrefs, ref.RefID)
				}
			}
			node.Append(doctree.NewLabel(t.labelOpen + c.Entry.Label + t.labelClose))
		}
		node.Append(c.Entry.Paragraph())
		node.Docname = b.Key.Docname
		RepairLinks(node)

		if list != nil {
			list.Append(node)
		} else {
			flat = append(flat, node)
		}
		if b.ListMode == config.ListModeEnumerated {
			counter++
		}
	}

	if list != nil {
		return []*doctree.Node{list}, counter, nil
	}
	return flat, counter, nil
}
