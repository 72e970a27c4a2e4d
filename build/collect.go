package build

import (
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"bibc/bib"
	"bibc/config"
	"bibc/doctree"
)

// collector populates the build registry from parsed document trees.
// Collection is two-phase: collect records markers and placeholders per
// document, resolve distributes entries to placeholders once the whole
// document set is known. Build-scoped placeholders may pick up citations from
// documents collected after them, so distribution cannot happen earlier.
type collector struct {
	reg     *bib.Registry
	entries *bib.EntryRegistry
	cfg     *config.BibliographyConfig

	// placeholders in build order, the order decides claims
	order []*bib.Bibliography
}

func newCollector(reg *bib.Registry, entries *bib.EntryRegistry, cfg *config.BibliographyConfig) *collector {
	return &collector{reg: reg, entries: entries, cfg: cfg}
}

// collect records citation markers and bibliography placeholders of a single
// document. Documents must be collected in build order.
func (c *collector) collect(doc *doctree.Node, docname string, log *zap.Logger) error {
	for _, ref := range doctree.FindAll(doc, doctree.KindCitationRef) {
		c.reg.RecordCitationRef(bib.CitationRef{Docname: docname, RefID: ref.ID, Keys: ref.Keys})
	}

	for _, bibnode := range doctree.FindAll(doc, doctree.KindBibliography) {
		b := &bib.Bibliography{
			Key:           bib.BibliographyKey{Docname: docname, ID: bibnode.ID},
			ListMode:      bibnode.Mode,
			EnumType:      bibnode.EnumType,
			Scope:         bibnode.Scope,
			Start:         bibnode.Start,
			CitationNodes: make(map[string]*doctree.Node),
			Header:        c.header(bibnode, docname, log),
		}
		if err := c.reg.RecordBibliography(b); err != nil {
			return err
		}
		c.order = append(c.order, b)
		log.Debug("Bibliography placeholder recorded",
			zap.String("key", b.Key.String()),
			zap.Stringer("mode", b.ListMode),
			zap.Stringer("scope", b.Scope))
	}
	return nil
}

// resolve assigns every cited entry to a placeholder. A key goes to the first
// placeholder in build order able to see it: document-scoped placeholders see
// markers from their own document, build-scoped ones see the whole set. Keys
// nobody cites stay out, keys missing from the database are reported and
// skipped.
func (c *collector) resolve(log *zap.Logger) {
	for _, b := range c.order {
		for _, key := range c.visibleKeys(b) {
			if c.reg.HasCitation(key) {
				// someone earlier in build order claimed it
				continue
			}
			entry, ok := c.entries.Get(key)
			if !ok {
				log.Warn("Citation key is not present in the database",
					zap.String("key", key), zap.String("bibliography", b.Key.String()))
				continue
			}
			c.reg.RecordCitation(bib.Citation{BibKey: b.Key, Key: key, Entry: entry})
			b.CitationNodes[key] = newCitationNode(b.ListMode, key)
		}
	}
}

// visibleKeys returns cited keys the placeholder can see, in marker
// occurrence order, with duplicates removed.
func (c *collector) visibleKeys(b *bib.Bibliography) []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, ref := range c.reg.Refs() {
		if b.Scope == config.BibScopeDocument && ref.Docname != b.Key.Docname {
			continue
		}
		for _, key := range ref.Keys {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
	}
	return keys
}

func (c *collector) header(bibnode *doctree.Node, docname string, log *zap.Logger) *doctree.Node {
	h := &doctree.Node{Kind: doctree.KindContainer, Docname: docname, ID: bibnode.ID}

	title := bibnode.Title
	if c.cfg.HeaderTitleTemplate != "" {
		values := Values{Docname: docname, ID: bibnode.ID, Title: bibnode.Title}
		expanded, err := expandTemplate(config.HeaderTitleTemplateFieldName, c.cfg.HeaderTitleTemplate, values)
		if err != nil {
			log.Warn("Unable to prepare bibliography title", zap.Error(err))
		} else {
			title = expanded
		}
	}
	if title != "" {
		h.Append(&doctree.Node{Kind: doctree.KindTitle, Children: []*doctree.Node{doctree.NewText(title)}})
	}
	return h
}

// newCitationNode prepares the container the rendered entry will live in.
// The anchor id is derived from the key, citation keys are unique across the
// build once claimed.
func newCitationNode(mode config.ListMode, key string) *doctree.Node {
	kind := doctree.KindCitation
	if mode != config.ListModeCitation {
		kind = doctree.KindListItem
	}
	return &doctree.Node{Kind: kind, ID: "bib-" + slug.Make(key)}
}
