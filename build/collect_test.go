package build

import (
	"testing"

	"go.uber.org/zap/zaptest"

	"bibc/bib"
	"bibc/config"
	"bibc/doctree"
)

func testEntries(t *testing.T, keys ...string) *bib.EntryRegistry {
	t.Helper()

	reg := bib.NewEntryRegistry()
	for _, key := range keys {
		fe, err := (bib.PlainFormatter{}).Format(&bib.Entry{Key: key, Title: "Title of " + key})
		if err != nil {
			t.Fatalf("Format(%s) error = %v", key, err)
		}
		if err := reg.Add(fe); err != nil {
			t.Fatalf("Add(%s) error = %v", key, err)
		}
	}
	return reg
}

func markerNode(id string, keys ...string) *doctree.Node {
	return &doctree.Node{Kind: doctree.KindCitationRef, ID: id, Keys: keys}
}

func bibNode(id string, mode config.ListMode, scope config.BibScope) *doctree.Node {
	return &doctree.Node{Kind: doctree.KindBibliography, ID: id, Mode: mode, Scope: scope}
}

func docNode(children ...*doctree.Node) *doctree.Node {
	return &doctree.Node{Kind: doctree.KindDocument, Children: children}
}

func citationKeys(citations []bib.Citation) []string {
	keys := make([]string, 0, len(citations))
	for _, c := range citations {
		keys = append(keys, c.Key)
	}
	return keys
}

func TestCollectorDocumentScope(t *testing.T) {
	log := zaptest.NewLogger(t)
	reg := bib.NewRegistry()
	col := newCollector(reg, testEntries(t, "k1", "k2", "k3"), &config.BibliographyConfig{})

	docA := docNode(
		doctree.NewParagraph(markerNode("r1", "k2"), markerNode("r2", "k1")),
		bibNode("b1", config.ListModeCitation, config.BibScopeDocument))
	docB := docNode(
		doctree.NewParagraph(markerNode("r3", "k3")),
		bibNode("b2", config.ListModeCitation, config.BibScopeDocument))

	if err := col.collect(docA, "a.xml", log); err != nil {
		t.Fatalf("collect(a.xml) error = %v", err)
	}
	if err := col.collect(docB, "b.xml", log); err != nil {
		t.Fatalf("collect(b.xml) error = %v", err)
	}
	col.resolve(log)

	t.Run("keys stay with their document", func(t *testing.T) {
		got := citationKeys(reg.CitationsFor(bib.BibliographyKey{Docname: "a.xml", ID: "b1"}))
		if len(got) != 2 || got[0] != "k2" || got[1] != "k1" {
			t.Errorf("a.xml citations = %v, want [k2 k1] in marker order", got)
		}
		got = citationKeys(reg.CitationsFor(bib.BibliographyKey{Docname: "b.xml", ID: "b2"}))
		if len(got) != 1 || got[0] != "k3" {
			t.Errorf("b.xml citations = %v, want [k3]", got)
		}
	})

	t.Run("prepared nodes exist for every citation", func(t *testing.T) {
		b, ok := reg.Bibliography(bib.BibliographyKey{Docname: "a.xml", ID: "b1"})
		if !ok {
			t.Fatal("placeholder a.xml#b1 was not recorded")
		}
		node, ok := b.CitationNodes["k1"]
		if !ok {
			t.Fatal("no prepared node for k1")
		}
		if node.Kind != doctree.KindCitation {
			t.Errorf("prepared node kind = %s, want %s", node.Kind, doctree.KindCitation)
		}
		if node.ID != "bib-k1" {
			t.Errorf("prepared node id = %q, want bib-k1", node.ID)
		}
	})
}

func TestCollectorFirstPlaceholderWins(t *testing.T) {
	log := zaptest.NewLogger(t)
	reg := bib.NewRegistry()
	col := newCollector(reg, testEntries(t, "k1"), &config.BibliographyConfig{})

	doc := docNode(
		doctree.NewParagraph(markerNode("r1", "k1")),
		bibNode("b1", config.ListModeCitation, config.BibScopeDocument),
		bibNode("b2", config.ListModeCitation, config.BibScopeDocument))

	if err := col.collect(doc, "a.xml", log); err != nil {
		t.Fatalf("collect() error = %v", err)
	}
	col.resolve(log)

	if got := reg.CitationsFor(bib.BibliographyKey{Docname: "a.xml", ID: "b1"}); len(got) != 1 {
		t.Errorf("first placeholder citations = %v, want [k1]", citationKeys(got))
	}
	if got := reg.CitationsFor(bib.BibliographyKey{Docname: "a.xml", ID: "b2"}); len(got) != 0 {
		t.Errorf("second placeholder citations = %v, want none", citationKeys(got))
	}
}

func TestCollectorBuildScope(t *testing.T) {
	log := zaptest.NewLogger(t)
	reg := bib.NewRegistry()
	col := newCollector(reg, testEntries(t, "k1", "k2"), &config.BibliographyConfig{})

	// the build scoped placeholder comes first, it picks up citations from
	// documents collected after it
	docA := docNode(bibNode("all", config.ListModeEnumerated, config.BibScopeBuild))
	docB := docNode(
		doctree.NewParagraph(markerNode("r1", "k1", "k2")),
		bibNode("local", config.ListModeCitation, config.BibScopeDocument))

	if err := col.collect(docA, "a.xml", log); err != nil {
		t.Fatalf("collect(a.xml) error = %v", err)
	}
	if err := col.collect(docB, "b.xml", log); err != nil {
		t.Fatalf("collect(b.xml) error = %v", err)
	}
	col.resolve(log)

	got := citationKeys(reg.CitationsFor(bib.BibliographyKey{Docname: "a.xml", ID: "all"}))
	if len(got) != 2 || got[0] != "k1" || got[1] != "k2" {
		t.Errorf("build scope citations = %v, want [k1 k2]", got)
	}
	if got := reg.CitationsFor(bib.BibliographyKey{Docname: "b.xml", ID: "local"}); len(got) != 0 {
		t.Errorf("local placeholder citations = %v, want none after global claim", citationKeys(got))
	}

	t.Run("prepared nodes are list items", func(t *testing.T) {
		b, _ := reg.Bibliography(bib.BibliographyKey{Docname: "a.xml", ID: "all"})
		if node := b.CitationNodes["k1"]; node.Kind != doctree.KindListItem {
			t.Errorf("prepared node kind = %s, want %s", node.Kind, doctree.KindListItem)
		}
	})
}

func TestCollectorUnknownKey(t *testing.T) {
	log := zaptest.NewLogger(t)
	reg := bib.NewRegistry()
	col := newCollector(reg, testEntries(t, "k1"), &config.BibliographyConfig{})

	doc := docNode(
		doctree.NewParagraph(markerNode("r1", "k1", "ghost")),
		bibNode("b1", config.ListModeCitation, config.BibScopeDocument))

	if err := col.collect(doc, "a.xml", log); err != nil {
		t.Fatalf("collect() error = %v", err)
	}
	col.resolve(log)

	got := citationKeys(reg.CitationsFor(bib.BibliographyKey{Docname: "a.xml", ID: "b1"}))
	if len(got) != 1 || got[0] != "k1" {
		t.Errorf("citations = %v, want only the known key", got)
	}
}

func TestCollectorDuplicatePlaceholder(t *testing.T) {
	log := zaptest.NewLogger(t)
	col := newCollector(bib.NewRegistry(), testEntries(t), &config.BibliographyConfig{})

	doc := docNode(
		bibNode("b1", config.ListModeCitation, config.BibScopeDocument),
		bibNode("b1", config.ListModeCitation, config.BibScopeDocument))

	if err := col.collect(doc, "a.xml", log); err == nil {
		t.Error("collect() error = nil, want duplicate placeholder failure")
	}
}

func TestCollectorHeader(t *testing.T) {
	log := zaptest.NewLogger(t)

	t.Run("template with fallback default", func(t *testing.T) {
		cfg := &config.BibliographyConfig{HeaderTitleTemplate: `{{ .Title | default "References" }}`}
		col := newCollector(bib.NewRegistry(), testEntries(t), cfg)

		h := col.header(bibNode("b1", config.ListModeCitation, config.BibScopeDocument), "a.xml", log)
		if h.Kind != doctree.KindContainer || h.ID != "b1" || h.Docname != "a.xml" {
			t.Errorf("header node = %+v", h)
		}
		titles := doctree.FindAll(h, doctree.KindTitle)
		if len(titles) != 1 || titles[0].AsPlainText() != "References" {
			t.Errorf("header title = %v, want References", titles)
		}
	})

	t.Run("placeholder title wins over default", func(t *testing.T) {
		cfg := &config.BibliographyConfig{HeaderTitleTemplate: `{{ .Title | default "References" }}`}
		col := newCollector(bib.NewRegistry(), testEntries(t), cfg)

		node := bibNode("b1", config.ListModeCitation, config.BibScopeDocument)
		node.Title = "Sources"
		h := col.header(node, "a.xml", log)
		if titles := doctree.FindAll(h, doctree.KindTitle); len(titles) != 1 || titles[0].AsPlainText() != "Sources" {
			t.Errorf("header title = %v, want Sources", titles)
		}
	})

	t.Run("no template and no title means bare header", func(t *testing.T) {
		col := newCollector(bib.NewRegistry(), testEntries(t), &config.BibliographyConfig{})

		h := col.header(bibNode("b1", config.ListModeCitation, config.BibScopeDocument), "a.xml", log)
		if len(h.Children) != 0 {
			t.Errorf("header children = %+v, want none", h.Children)
		}
	})
}
