package bib

import (
	"errors"
	"strings"

	"bibc/doctree"
)

// Formatter turns a database record into styled rich text. The actual entry
// styling lives behind this boundary - the transform pipeline only consumes
// the result.
type Formatter interface {
	Format(e *Entry) (*FormattedEntry, error)
}

// PlainFormatter renders entries into flat text fragments the way the
// upstream backend does. Escaped markup it cannot express (\textit, \url)
// is left as literal marker fragments for the repair passes to fix.
type PlainFormatter struct{}

func (PlainFormatter) Format(e *Entry) (*FormattedEntry, error) {
	if e.Key == "" {
		return nil, errors.New("bibliography entry without key")
	}

	var text string
	add := func(s, sep string) {
		if s == "" {
			return
		}
		if text != "" {
			text += sep
		}
		text += s
	}
	add(e.Authors, "")
	add(e.Title, ". ")
	add(e.Container, ". ")
	add(e.Year, ", ")
	add(e.Note, ". ")
	if text != "" && !strings.HasSuffix(text, ".") {
		text += "."
	}

	body := splitEscapedItalics(text)
	if e.URL != "" {
		body = append(body, doctree.NewText(` URL: \url `), doctree.NewText(e.URL))
	}

	label := e.Label
	if label == "" {
		label = e.Key
	}
	return NewFormattedEntry(e.Key, label, body), nil
}

// splitEscapedItalics splits field text around \textit{...} markup into the
// fragment sequence the upstream formatter would emit: the prefix with a
// trailing literal marker, the wrapped content as its own fragment, then
// the remainder.
func splitEscapedItalics(text string) []*doctree.Node {
	const open = `\textit{`

	var nodes []*doctree.Node
	for {
		start := strings.Index(text, open)
		if start < 0 {
			break
		}
		rest := text[start+len(open):]
		end := strings.Index(rest, "}")
		if end < 0 {
			// unbalanced markup - leave it alone
			break
		}
		nodes = append(nodes, doctree.NewText(text[:start]+`\textit `))
		nodes = append(nodes, doctree.NewText(rest[:end]+" "))
		text = strings.TrimPrefix(rest[end+1:], " ")
	}
	if text != "" {
		nodes = append(nodes, doctree.NewText(text))
	}
	return nodes
}
