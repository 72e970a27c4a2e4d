// Package doctree implements the rich-text document tree bibc operates on.
// The model intentionally follows the docutils shape: a small set of node
// kinds discriminated by a tag, with kind-specific fields used only where
// they make sense. This maps back to the XML surface one to one.
package doctree

import (
	"strings"

	"bibc/config"
)

// NodeKind distinguishes the different kinds of tree content. Values double
// as XML element tags.
type NodeKind string

const (
	KindDocument     NodeKind = "document"
	KindSection      NodeKind = "section"
	KindTitle        NodeKind = "title"
	KindParagraph    NodeKind = "paragraph"
	KindText         NodeKind = "text"
	KindEmphasis     NodeKind = "emphasis"
	KindStrong       NodeKind = "strong"
	KindReference    NodeKind = "reference"
	KindLabel        NodeKind = "label"
	KindCitation     NodeKind = "citation"
	KindCitationRef  NodeKind = "cite"
	KindBibliography NodeKind = "bibliography"
	KindEnumList     NodeKind = "enumerated_list"
	KindBulletList   NodeKind = "bullet_list"
	KindListItem     NodeKind = "list_item"
	KindTarget       NodeKind = "target"
	KindContainer    NodeKind = "container"
)

// Node stores a single piece of tree content, keeping the original ordering
// of children. Only a subset of fields is meaningful for any given kind.
type Node struct {
	Kind NodeKind

	Text     string   // text content, KindText only
	ID       string   // addressable anchor
	Docname  string   // owning document for citations, markers and placeholders
	Refuri   string   // link target, KindReference
	Keys     []string // cited keys, KindCitationRef
	Backrefs []string // marker ids linking back to this entry, KindCitation

	// bibliography placeholder parameters
	Mode     config.ListMode
	EnumType config.EnumType
	Scope    config.BibScope
	Start    int
	Title    string // requested header title, empty means configured default

	// visible numbering start, KindEnumList
	ListStart int

	// suppress smart-quote substitution, KindLabel
	NoSmartQuotes bool

	Children []*Node
}

// NewText returns a bare text fragment.
func NewText(text string) *Node {
	return &Node{Kind: KindText, Text: text}
}

// NewParagraph wraps the given inline children into a paragraph.
func NewParagraph(children ...*Node) *Node {
	return &Node{Kind: KindParagraph, Children: children}
}

// NewEmphasis wraps the given inline children into an emphasis node.
func NewEmphasis(children ...*Node) *Node {
	return &Node{Kind: KindEmphasis, Children: children}
}

// NewReference builds a hyperlink with the given target.
func NewReference(refuri string, children ...*Node) *Node {
	return &Node{Kind: KindReference, Refuri: refuri, Children: children}
}

// NewLabel builds a visible citation label. Smart-quote substitution is
// always suppressed on labels - short keys like 'Knu84 would be mangled.
func NewLabel(text string) *Node {
	return &Node{Kind: KindLabel, NoSmartQuotes: true, Children: []*Node{NewText(text)}}
}

// NewTarget builds an inert anchor preserving the given identity.
func NewTarget(docname, id string) *Node {
	return &Node{Kind: KindTarget, Docname: docname, ID: id}
}

// AsPlainText extracts plain text content from the node and all descendants.
func (n *Node) AsPlainText() string {
	var buf strings.Builder
	n.appendText(&buf)
	return buf.String()
}

func (n *Node) appendText(buf *strings.Builder) {
	buf.WriteString(n.Text)
	for _, child := range n.Children {
		child.appendText(buf)
	}
}

// Append adds children to the node keeping their order.
func (n *Node) Append(children ...*Node) {
	n.Children = append(n.Children, children...)
}
