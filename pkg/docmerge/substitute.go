package docmerge

import (
	"context"

	"github.com/beevik/etree"

	"github.com/benjaminschreck/go-docmerge/pkg/docmerge/render"
	"github.com/benjaminschreck/go-docmerge/pkg/docmerge/xml"
)

var (
	missingMark  = xml.Marker{Bold: true, Color: "FF0000", Highlight: "yellow"}
	resolvedMark = xml.Marker{Highlight: "lightGray"}
)

// merger carries the state of one merge over one package
type merger struct {
	pkg       *Package
	config    *Config
	subs      Substitutions
	diag      *diagnostics
	logger    *Logger
	embedder  *embedder
	numbering *numberingStore

	// placed holds the folded names of inline images already embedded
	placed   map[string]bool
	reported map[string]bool
}

func newMerger(pkg *Package, config *Config, subs Substitutions, diag *diagnostics, logger *Logger) *merger {
	return &merger{
		pkg:       pkg,
		config:    config,
		subs:      subs,
		diag:      diag,
		logger:    logger,
		embedder:  &embedder{pkg: pkg, config: config},
		numbering: newNumberingStore(pkg),
		placed:    make(map[string]bool),
		reported:  make(map[string]bool),
	}
}

// run substitutes every placeholder of the body, headers and footers, then
// places inline images
func (m *merger) run(ctx context.Context) error {
	main, err := m.pkg.MainDocument()
	if err != nil {
		return err
	}
	others, err := m.pkg.HeaderFooterParts()
	if err != nil {
		return err
	}
	parts := append([]*xml.Part{main}, others...)
	lastPaged := m.lastPagedParagraph(parts)

	for _, part := range parts {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.substitutePart(part, lastPaged); err != nil {
			return WithContext(err, "substitute", map[string]interface{}{"part": part.Name})
		}
	}

	for _, part := range parts {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.placeInlineImages(part); err != nil {
			return WithContext(err, "place images", map[string]interface{}{"part": part.Name})
		}
	}

	return nil
}

// substitutePart processes every paragraph of a part, including paragraphs
// in tables and text boxes
func (m *merger) substitutePart(part *xml.Part, lastPaged *etree.Element) error {
	for _, p := range part.Paragraphs() {
		// gone with an expanded ancestor
		if !part.Contains(p) {
			continue
		}
		changed, err := m.substituteParagraph(part, p, p == lastPaged)
		if err != nil {
			return err
		}
		if changed {
			part.MarkModified()
		}
	}
	return nil
}

// structuralToken returns the index of the token that decides the fate of a
// whole paragraph: the rightmost list or paged image token. It returns -1
// when the paragraph has none.
func (m *merger) structuralToken(tokens []Token) int {
	for i := len(tokens) - 1; i >= 0; i-- {
		switch m.subs.classify(tokens[i].Name).Kind {
		case SubstBulletList, SubstPagedImage:
			return i
		}
	}
	return -1
}

// lastPagedParagraph finds, before anything is mutated, the last paragraph
// of the document that will expand into page images. Parts are taken in
// processing order: body, then headers and footers.
func (m *merger) lastPagedParagraph(parts []*xml.Part) *etree.Element {
	var last *etree.Element
	for _, part := range parts {
		for _, p := range part.Paragraphs() {
			tokens := Scan(xml.Text(p))
			if i := m.structuralToken(tokens); i >= 0 && m.subs.has(tokens[i].Name, SubstPagedImage) {
				last = p
			}
		}
	}
	return last
}

// substituteParagraph resolves the placeholders of one paragraph, last to
// first so that earlier offsets stay valid. It reports whether p changed.
func (m *merger) substituteParagraph(part *xml.Part, p *etree.Element, isLastPaged bool) (bool, error) {
	idx := render.Build(p)
	tokens := Scan(idx.Text())
	if len(tokens) == 0 {
		return false, nil
	}

	if w := m.structuralToken(tokens); w >= 0 {
		tok := tokens[w]
		m.reportDiscarded(part, tokens, w)

		sub := m.subs.classify(tok.Name)
		if sub.Kind == SubstBulletList {
			return true, m.expandList(part, p, sub.Items)
		}
		return true, m.expandPagedImages(part, p, sub.Pages, isLastPaged)
	}

	changed := false
	for i := len(tokens) - 1; i >= 0; i-- {
		tok := tokens[i]
		sub := m.subs.classify(tok.Name)
		if sub.Kind != SubstScalar {
			// inline images have their own pass
			continue
		}

		text := sub.Text
		if sub.Missing {
			text = missingMarker(tok.Name)
			m.diag.add(DiagMissingValue, tok.Name, part.Name, "no value for placeholder")
		}

		for _, run := range idx.Splice(tok.Start, tok.Length, text) {
			switch {
			case sub.Missing:
				xml.Mark(run, missingMark)
			case m.config.HighlightResolved:
				xml.Mark(run, resolvedMark)
			}
		}
		changed = true
	}

	return changed, nil
}

// reportDiscarded records the placeholders lost when a paragraph is replaced
// by the expansion of tokens[kept]
func (m *merger) reportDiscarded(part *xml.Part, tokens []Token, kept int) {
	for i, tok := range tokens {
		if i == kept {
			continue
		}
		m.diag.add(DiagDiscardedTokens, tok.Name, part.Name,
			"paragraph was replaced by the expansion of %s", tokens[kept].Name)
	}
}
