package doctree

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// XML serialization of finished trees. Node kinds map straight back to
// element tags, text fragments become character data.

// Write serializes the document tree to w as XML.
func Write(doc *Node, w io.Writer) error {
	if doc == nil || doc.Kind != KindDocument {
		return fmt.Errorf("not a document tree")
	}

	xdoc := etree.NewDocument()
	xdoc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	xdoc.WriteSettings = etree.WriteSettings{
		CanonicalText:    true,
		CanonicalAttrVal: true,
	}

	root := xdoc.CreateElement(string(KindDocument))
	if doc.ID != "" {
		root.CreateAttr("id", doc.ID)
	}
	if doc.Title != "" {
		root.CreateAttr("title", doc.Title)
	}
	for _, child := range doc.Children {
		writeNode(root, child)
	}

	if _, err := xdoc.WriteTo(w); err != nil {
		return fmt.Errorf("unable to serialize document %q: %w", doc.Docname, err)
	}
	return nil
}

func writeNode(parent *etree.Element, n *Node) {
	if n.Kind == KindText {
		// mixed content - text either opens the element or trails the last child
		if len(parent.ChildElements()) == 0 {
			parent.SetText(parent.Text() + n.Text)
		} else {
			lastChild := parent.ChildElements()[len(parent.ChildElements())-1]
			lastChild.SetTail(lastChild.Tail() + n.Text)
		}
		return
	}

	el := parent.CreateElement(string(n.Kind))
	if n.ID != "" {
		el.CreateAttr("id", n.ID)
	}

	switch n.Kind {
	case KindReference:
		if n.Refuri != "" {
			el.CreateAttr("refuri", n.Refuri)
		}
	case KindLabel:
		if n.NoSmartQuotes {
			el.CreateAttr("support_smartquotes", "false")
		}
	case KindCitation:
		if n.Docname != "" {
			el.CreateAttr("docname", n.Docname)
		}
		if len(n.Backrefs) > 0 {
			el.CreateAttr("backrefs", strings.Join(n.Backrefs, " "))
		}
	case KindCitationRef:
		if len(n.Keys) > 0 {
			el.CreateAttr("keys", strings.Join(n.Keys, ","))
		}
	case KindEnumList:
		el.CreateAttr("enumtype", n.EnumType.String())
		el.CreateAttr("start", strconv.Itoa(n.ListStart))
	case KindBibliography:
		// placeholders normally never survive the transform, keep the
		// parameters visible if one does
		el.CreateAttr("mode", n.Mode.String())
		el.CreateAttr("start", strconv.Itoa(n.Start))
	}

	for _, child := range n.Children {
		writeNode(el, child)
	}
}
