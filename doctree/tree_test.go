package doctree

import (
	"testing"
)

func sampleTree() (*Node, *Node) {
	target := &Node{Kind: KindBibliography, ID: "b1"}
	doc := &Node{Kind: KindDocument, Children: []*Node{
		{Kind: KindSection, ID: "s1", Children: []*Node{
			NewParagraph(NewText("one")),
			target,
			NewParagraph(NewText("two")),
		}},
	}}
	return doc, target
}

func TestFindAll(t *testing.T) {
	doc, _ := sampleTree()

	t.Run("traversal order", func(t *testing.T) {
		paragraphs := FindAll(doc, KindParagraph)
		if len(paragraphs) != 2 {
			t.Fatalf("found %d paragraphs, want 2", len(paragraphs))
		}
		if paragraphs[0].AsPlainText() != "one" || paragraphs[1].AsPlainText() != "two" {
			t.Errorf("paragraphs out of order: %q, %q", paragraphs[0].AsPlainText(), paragraphs[1].AsPlainText())
		}
	})

	t.Run("root is included", func(t *testing.T) {
		if got := FindAll(doc, KindDocument); len(got) != 1 || got[0] != doc {
			t.Errorf("FindAll(document) = %v", got)
		}
	})

	t.Run("predicate search", func(t *testing.T) {
		got := FindAllFunc(doc, func(n *Node) bool { return n.ID == "s1" })
		if len(got) != 1 || got[0].Kind != KindSection {
			t.Errorf("FindAllFunc() = %v", got)
		}
	})
}

func TestReplace(t *testing.T) {
	t.Run("single replacement", func(t *testing.T) {
		doc, target := sampleTree()
		repl := NewTarget("a.xml", "b1")

		if !Replace(doc, target, repl) {
			t.Fatal("Replace() = false")
		}
		section := doc.Children[0]
		if len(section.Children) != 3 || section.Children[1] != repl {
			t.Errorf("section children = %+v", section.Children)
		}
	})

	t.Run("multiple replacements splice in place", func(t *testing.T) {
		doc, target := sampleTree()
		first, second := NewParagraph(NewText("a")), NewParagraph(NewText("b"))

		if !Replace(doc, target, first, second) {
			t.Fatal("Replace() = false")
		}
		section := doc.Children[0]
		if len(section.Children) != 4 || section.Children[1] != first || section.Children[2] != second {
			t.Errorf("section children = %+v", section.Children)
		}
	})

	t.Run("empty replacement removes the node", func(t *testing.T) {
		doc, target := sampleTree()

		if !Replace(doc, target) {
			t.Fatal("Replace() = false")
		}
		if got := FindAll(doc, KindBibliography); len(got) != 0 {
			t.Errorf("placeholder still present: %v", got)
		}
		if section := doc.Children[0]; len(section.Children) != 2 {
			t.Errorf("section has %d children, want 2", len(section.Children))
		}
	})

	t.Run("foreign node is reported", func(t *testing.T) {
		doc, _ := sampleTree()
		if Replace(doc, NewText("stranger")) {
			t.Error("Replace() = true for node outside the tree")
		}
	})
}

func TestClone(t *testing.T) {
	original := &Node{
		Kind:     KindCitation,
		ID:       "bib-k1",
		Docname:  "a.xml",
		Backrefs: []string{"r1"},
		Children: []*Node{NewLabel("[K1]"), NewParagraph(NewText("Body."))},
	}

	clone := original.Clone()
	clone.Backrefs[0] = "changed"
	clone.Children[1].Children[0].Text = "Changed."

	if original.Backrefs[0] != "r1" {
		t.Errorf("backrefs are shared: %v", original.Backrefs)
	}
	if got := original.Children[1].AsPlainText(); got != "Body." {
		t.Errorf("children are shared: %q", got)
	}
	if clone.ID != original.ID || clone.Kind != original.Kind {
		t.Errorf("scalar fields were not copied: %+v", clone)
	}

	t.Run("nil clone", func(t *testing.T) {
		var n *Node
		if n.Clone() != nil {
			t.Error("Clone of nil node is not nil")
		}
	})
}
