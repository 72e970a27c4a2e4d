package bib

import (
	"strings"

	"go.uber.org/zap"

	"bibc/doctree"
)

// Text repair passes. The upstream entry formatter cannot express some
// escaped markup and leaves literal marker fragments behind; these passes
// turn the known patterns back into proper rich text. Both are idempotent:
// the marker text is consumed on first application, so a repaired subtree
// has nothing left to re-trigger on.

const (
	urlMarker     = `\url `
	italicsMarker = `\textit `
)

// RepairLinks scans the subtree for a text fragment ending in a literal URL
// marker immediately followed by another text fragment, strips the marker
// and wraps the following fragment in a reference targeting its own text.
// Recurses into all structural descendants.
func RepairLinks(node *doctree.Node) {
	for i, child := range node.Children {
		if child.Kind == doctree.KindText {
			if !strings.HasSuffix(child.Text, urlMarker) {
				continue
			}
			if i+1 >= len(node.Children) || node.Children[i+1].Kind != doctree.KindText {
				// marker without a following fragment - nothing to repair
				continue
			}
			next := node.Children[i+1]
			child.Text = strings.TrimSuffix(child.Text, urlMarker)
			node.Children[i+1] = doctree.NewReference(next.Text, next)
		} else {
			RepairLinks(child)
		}
	}
}

// RepairEmphasis rebuilds the paragraph's direct children in a single pass:
// a text fragment ending in a literal italics marker loses the marker and
// the following sibling is wrapped in an emphasis node. Direct children
// only - the marker is known to occur at this level and nowhere deeper.
func RepairEmphasis(paragraph *doctree.Node) {
	rebuilt := make([]*doctree.Node, 0, len(paragraph.Children))
	wrapNext := false
	for _, child := range paragraph.Children {
		if child.Kind == doctree.KindText && strings.HasSuffix(child.Text, italicsMarker) {
			wrapNext = true
			child = doctree.NewText(strings.ReplaceAll(child.Text, italicsMarker, ""))
		} else if wrapNext {
			child = doctree.NewEmphasis(child)
			wrapNext = false
		}
		rebuilt = append(rebuilt, child)
	}
	paragraph.Children = rebuilt
}

// EmphasisRepair is the post-transform wrapper around RepairEmphasis. It
// runs after the bibliography transform (see priorities) and covers the
// body paragraphs of every rendered citation in the document.
type EmphasisRepair struct{}

func (EmphasisRepair) Name() string {
	return "emphasis-repair"
}

// Priority places the pass right after the bibliography transform so that
// rendered entries exist by the time it runs.
func (EmphasisRepair) Priority() int {
	return 6
}

func (EmphasisRepair) Apply(doc *doctree.Node, log *zap.Logger) error {
	for _, citation := range doctree.FindAll(doc, doctree.KindCitation) {
		for _, paragraph := range doctree.FindAll(citation, doctree.KindParagraph) {
			RepairEmphasis(paragraph)
		}
	}
	return nil
}
