package doctree

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"bibc/config"
)

// XML parsing for build documents. We want exhaustive parsing - it is not
// very effective but ensures full correctness and gives us detailed debug
// output when authored markup does not match expectations.

// Parse reads a document from r and builds the node tree. docname is the
// build-unique document identifier, usually derived from the source file
// name. Bibliography placeholder attributes missing from the markup are
// filled from defaults.
func Parse(r io.Reader, docname string, defaults *config.BibliographyConfig, log *zap.Logger) (*Node, error) {
	doc := etree.NewDocument()
	doc.ReadSettings = etree.ReadSettings{
		CharsetReader: charset.NewReaderLabel,
		ValidateInput: false,
		Permissive:    true,
	}
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("unable to read document %q: %w", docname, err)
	}

	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("document %q has no root element", docname)
	}
	if root.Tag != string(KindDocument) {
		return nil, fmt.Errorf("document %q: unexpected root element %q", docname, root.Tag)
	}

	node := &Node{
		Kind:    KindDocument,
		Docname: docname,
		ID:      root.SelectAttrValue("id", ""),
		Title:   root.SelectAttrValue("title", ""),
	}
	for _, child := range root.ChildElements() {
		parsed, err := parseElement(child, docname, defaults, log)
		if err != nil {
			return nil, err
		}
		if parsed != nil {
			node.Children = append(node.Children, parsed)
		}
	}
	return node, nil
}

func parseElement(el *etree.Element, docname string, defaults *config.BibliographyConfig, log *zap.Logger) (*Node, error) {
	switch NodeKind(el.Tag) {
	case KindSection, KindContainer:
		node := &Node{Kind: NodeKind(el.Tag), Docname: docname, ID: el.SelectAttrValue("id", "")}
		for _, child := range el.ChildElements() {
			parsed, err := parseElement(child, docname, defaults, log)
			if err != nil {
				return nil, err
			}
			if parsed != nil {
				node.Children = append(node.Children, parsed)
			}
		}
		return node, nil
	case KindTitle, KindParagraph, KindEmphasis, KindStrong, KindLabel:
		node := &Node{Kind: NodeKind(el.Tag), ID: el.SelectAttrValue("id", "")}
		return parseInline(el, node, docname, defaults, log)
	case KindReference:
		node := &Node{Kind: KindReference, Refuri: el.SelectAttrValue("refuri", "")}
		return parseInline(el, node, docname, defaults, log)
	case KindTarget:
		return &Node{Kind: KindTarget, Docname: docname, ID: el.SelectAttrValue("id", "")}, nil
	case KindCitationRef:
		return parseCitationRef(el, docname, log)
	case KindBibliography:
		return parseBibliography(el, docname, defaults, log)
	default:
		log.Warn("Unexpected tag in document, ignoring", zap.String("docname", docname), zap.String("tag", el.Tag))
		return nil, nil
	}
}

// parseInline consumes mixed content: character data becomes text fragments,
// child elements are parsed recursively keeping the original ordering.
func parseInline(el *etree.Element, node *Node, docname string, defaults *config.BibliographyConfig, log *zap.Logger) (*Node, error) {
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			if len(t.Data) > 0 {
				node.Children = append(node.Children, NewText(t.Data))
			}
		case *etree.Element:
			parsed, err := parseElement(t, docname, defaults, log)
			if err != nil {
				return nil, err
			}
			if parsed != nil {
				node.Children = append(node.Children, parsed)
			}
		}
	}
	return node, nil
}

func parseCitationRef(el *etree.Element, docname string, log *zap.Logger) (*Node, error) {
	node := &Node{
		Kind:    KindCitationRef,
		Docname: docname,
		ID:      el.SelectAttrValue("id", ""),
	}
	if node.ID == "" {
		// markers must stay addressable for back-references
		node.ID = "cite-" + uuid.NewString()
	}
	for _, key := range strings.Split(el.SelectAttrValue("keys", ""), ",") {
		if key = strings.TrimSpace(key); key != "" {
			node.Keys = append(node.Keys, key)
		}
	}
	if len(node.Keys) == 0 {
		log.Warn("Citation marker without keys", zap.String("docname", docname), zap.String("id", node.ID))
	}
	return node, nil
}

func parseBibliography(el *etree.Element, docname string, defaults *config.BibliographyConfig, log *zap.Logger) (*Node, error) {
	node := &Node{
		Kind:     KindBibliography,
		Docname:  docname,
		ID:       el.SelectAttrValue("id", ""),
		Title:    el.SelectAttrValue("title", ""),
		Mode:     defaults.DefaultMode,
		EnumType: defaults.DefaultEnumType,
		Scope:    defaults.DefaultScope,
	}
	if node.ID == "" {
		node.ID = "bibliography-" + uuid.NewString()
	}

	var err error
	if attr := el.SelectAttrValue("mode", ""); attr != "" {
		if node.Mode, err = config.ParseListMode(attr); err != nil {
			log.Warn("Unknown bibliography mode, using default", zap.String("docname", docname), zap.String("id", node.ID), zap.Error(err))
			node.Mode = defaults.DefaultMode
		}
	}
	if attr := el.SelectAttrValue("enumtype", ""); attr != "" {
		if node.EnumType, err = config.ParseEnumType(attr); err != nil {
			log.Warn("Unknown enumeration type, using default", zap.String("docname", docname), zap.String("id", node.ID), zap.Error(err))
			node.EnumType = defaults.DefaultEnumType
		}
	}
	if attr := el.SelectAttrValue("scope", ""); attr != "" {
		if node.Scope, err = config.ParseBibScope(attr); err != nil {
			log.Warn("Unknown bibliography scope, using default", zap.String("docname", docname), zap.String("id", node.ID), zap.Error(err))
			node.Scope = defaults.DefaultScope
		}
	}
	if attr := el.SelectAttrValue("start", ""); attr != "" {
		start, err := strconv.Atoi(attr)
		if err != nil {
			log.Warn("Malformed start value, numbering will continue instead", zap.String("docname", docname), zap.String("id", node.ID), zap.String("start", attr))
			start = 0
		} else if start < 1 {
			// cosmetic misconfiguration, not worth failing the document over
			log.Warn("Start value below 1, numbering will continue instead", zap.String("docname", docname), zap.String("id", node.ID), zap.Int("start", start))
			start = 0
		}
		node.Start = start
	}
	return node, nil
}
