package bib

import (
	"testing"

	"go.uber.org/zap/zaptest"

	"bibc/doctree"
)

func paragraphOf(texts ...string) *doctree.Node {
	children := make([]*doctree.Node, 0, len(texts))
	for _, s := range texts {
		children = append(children, doctree.NewText(s))
	}
	return doctree.NewParagraph(children...)
}

func kinds(n *doctree.Node) []doctree.NodeKind {
	result := make([]doctree.NodeKind, 0, len(n.Children))
	for _, child := range n.Children {
		result = append(result, child.Kind)
	}
	return result
}

func TestRepairLinks(t *testing.T) {
	t.Run("marker is replaced with reference", func(t *testing.T) {
		p := paragraphOf(`See \url `, "http://example.org")
		RepairLinks(p)

		if len(p.Children) != 2 {
			t.Fatalf("paragraph has %d children, want 2", len(p.Children))
		}
		if got := p.Children[0].Text; got != "See " {
			t.Errorf("prefix text = %q, want %q", got, "See ")
		}
		ref := p.Children[1]
		if ref.Kind != doctree.KindReference {
			t.Fatalf("second child kind = %s, want %s", ref.Kind, doctree.KindReference)
		}
		if ref.Refuri != "http://example.org" {
			t.Errorf("refuri = %q, want %q", ref.Refuri, "http://example.org")
		}
		if got := ref.AsPlainText(); got != "http://example.org" {
			t.Errorf("reference text = %q, want %q", got, "http://example.org")
		}
	})

	t.Run("second application is a no-op", func(t *testing.T) {
		p := paragraphOf(`See \url `, "http://example.org")
		RepairLinks(p)
		RepairLinks(p)

		if len(p.Children) != 2 {
			t.Fatalf("paragraph has %d children, want 2", len(p.Children))
		}
		refs := doctree.FindAll(p, doctree.KindReference)
		if len(refs) != 1 {
			t.Errorf("found %d references, want 1", len(refs))
		}
	})

	t.Run("marker without following fragment is kept", func(t *testing.T) {
		p := paragraphOf(`See \url `)
		RepairLinks(p)

		if len(p.Children) != 1 || p.Children[0].Text != `See \url ` {
			t.Errorf("paragraph was modified: %v", p.Children)
		}
	})

	t.Run("descends into nested structure", func(t *testing.T) {
		item := &doctree.Node{Kind: doctree.KindListItem, Children: []*doctree.Node{
			paragraphOf(`At \url `, "ftp://host/file"),
		}}
		RepairLinks(item)

		refs := doctree.FindAll(item, doctree.KindReference)
		if len(refs) != 1 || refs[0].Refuri != "ftp://host/file" {
			t.Errorf("nested repair failed: %v", refs)
		}
	})
}

func TestRepairEmphasis(t *testing.T) {
	t.Run("marker wraps following fragment", func(t *testing.T) {
		p := paragraphOf(`Review on \textit `, "E. coli ", "fermentation.")
		RepairEmphasis(p)

		want := []doctree.NodeKind{doctree.KindText, doctree.KindEmphasis, doctree.KindText}
		got := kinds(p)
		if len(got) != len(want) {
			t.Fatalf("children = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("child %d kind = %s, want %s", i, got[i], want[i])
			}
		}
		if text := p.Children[0].Text; text != "Review on " {
			t.Errorf("prefix text = %q, want %q", text, "Review on ")
		}
		if text := p.Children[1].AsPlainText(); text != "E. coli " {
			t.Errorf("emphasis text = %q, want %q", text, "E. coli ")
		}
	})

	t.Run("second application is a no-op", func(t *testing.T) {
		p := paragraphOf(`Review on \textit `, "E. coli ", "fermentation.")
		RepairEmphasis(p)
		RepairEmphasis(p)

		if got := doctree.FindAll(p, doctree.KindEmphasis); len(got) != 1 {
			t.Errorf("found %d emphasis nodes, want 1", len(got))
		}
	})

	t.Run("plain paragraph is untouched", func(t *testing.T) {
		p := paragraphOf("Nothing to repair here.")
		RepairEmphasis(p)

		if len(p.Children) != 1 || p.Children[0].Text != "Nothing to repair here." {
			t.Errorf("paragraph was modified: %v", p.Children)
		}
	})
}

func TestEmphasisRepairTransform(t *testing.T) {
	log := zaptest.NewLogger(t)

	citation := &doctree.Node{Kind: doctree.KindCitation, Children: []*doctree.Node{
		paragraphOf(`Review on \textit `, "E. coli ", "fermentation."),
	}}
	// paragraphs outside citations are out of scope for this pass
	plain := paragraphOf(`Review on \textit `, "E. coli ", "fermentation.")
	doc := &doctree.Node{Kind: doctree.KindDocument, Children: []*doctree.Node{plain, citation}}

	if err := (EmphasisRepair{}).Apply(doc, log); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	if got := doctree.FindAll(citation, doctree.KindEmphasis); len(got) != 1 {
		t.Errorf("found %d emphasis nodes in citation, want 1", len(got))
	}
	if got := doctree.FindAll(plain, doctree.KindEmphasis); len(got) != 0 {
		t.Errorf("found %d emphasis nodes outside citations, want 0", len(got))
	}
}
