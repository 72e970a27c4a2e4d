package doctree

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"bibc/config"
)

func TestWrite(t *testing.T) {
	doc := &Node{Kind: KindDocument, ID: "doc", Children: []*Node{
		{Kind: KindSection, ID: "s1", Children: []*Node{
			NewParagraph(NewText("See "), NewReference("http://example.org", NewText("the site")), NewText(" for details.")),
			{
				Kind:     KindCitation,
				ID:       "bib-k1",
				Docname:  "a.xml",
				Backrefs: []string{"r1", "r2"},
				Children: []*Node{NewLabel("[K1]"), NewParagraph(NewText("Body."))},
			},
			{Kind: KindEnumList, EnumType: config.EnumTypeLowerAlpha, ListStart: 4, Children: []*Node{
				{Kind: KindListItem, ID: "bib-k2", Children: []*Node{NewParagraph(NewText("Item."))}},
			}},
		}},
	}}

	var buf bytes.Buffer
	if err := Write(doc, &buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	out := buf.String()

	checks := []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`<document id="doc">`,
		`<section id="s1">`,
		`<paragraph>See <reference refuri="http://example.org">the site</reference> for details.</paragraph>`,
		`<citation id="bib-k1" docname="a.xml" backrefs="r1 r2">`,
		`<label support_smartquotes="false">[K1]</label>`,
		`<enumerated_list enumtype="loweralpha" start="4">`,
		`<list_item id="bib-k2">`,
	}
	for _, want := range checks {
		if !strings.Contains(out, want) {
			t.Errorf("output is missing %q\n%s", want, out)
		}
	}

	t.Run("round trip keeps mixed content", func(t *testing.T) {
		parsed, err := Parse(strings.NewReader(out), "a.xml", testDefaults(), zaptest.NewLogger(t))
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		paragraphs := FindAll(parsed, KindParagraph)
		if len(paragraphs) == 0 {
			t.Fatal("no paragraphs after round trip")
		}
		if got := paragraphs[0].AsPlainText(); got != "See the site for details." {
			t.Errorf("paragraph text = %q, want %q", got, "See the site for details.")
		}
	})
}

func TestWriteRejectsNonDocuments(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(NewParagraph(NewText("loose")), &buf); err == nil {
		t.Error("Write() error = nil, want failure for non-document root")
	}
	if err := Write(nil, &buf); err == nil {
		t.Error("Write() error = nil, want failure for nil tree")
	}
}
