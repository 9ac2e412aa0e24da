package docmerge

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/benjaminschreck/go-docmerge/pkg/docmerge/render"
	"github.com/benjaminschreck/go-docmerge/pkg/docmerge/xml"
)

// replaceParagraph inserts generated in order after p and removes p. A
// section break carried by p moves to the last generated paragraph.
func replaceParagraph(p *etree.Element, generated []*etree.Element) {
	if len(generated) == 0 {
		if xml.SectionProperties(p) == nil && !xml.SoleBlock(p) {
			xml.Remove(p)
			return
		}
		// keep the section boundary, or the cell's only paragraph, as an
		// empty paragraph
		generated = []*etree.Element{xml.NewTextParagraph(xml.Properties(p), "")}
		xml.RemoveSectionProperties(generated[0])
	}

	ref := p
	for _, e := range generated {
		xml.InsertAfter(ref, e)
		ref = e
	}
	xml.MoveSectionProperties(p, ref)
	xml.Remove(p)
}

// expandList replaces p with one paragraph per item. A template paragraph
// that is already a list item lends each item its paragraph properties;
// otherwise items keep its style and are attached to a bullet definition.
func (m *merger) expandList(part *xml.Part, p *etree.Element, items []string) error {
	if len(items) == 0 {
		replaceParagraph(p, nil)
		return nil
	}

	pPr := xml.Properties(p)
	templateNumbered := xml.NumberingID(pPr) != ""

	var numID int
	if !templateNumbered {
		var err error
		if numID, err = m.numbering.ensureBullet(); err != nil {
			return err
		}
	}

	generated := make([]*etree.Element, 0, len(items))
	for _, item := range items {
		if templateNumbered {
			np := xml.NewTextParagraph(pPr, item)
			xml.RemoveSectionProperties(np)
			generated = append(generated, np)
			continue
		}

		np := etree.NewElement("w:p")
		props := xml.EnsureProperties(np)
		if style := xml.StyleElement(pPr); style != nil {
			props.AddChild(style.Copy())
		}
		xml.SetNumbering(props, 0, numID)
		np.AddChild(xml.NewTextRun(item))
		generated = append(generated, np)
	}

	replaceParagraph(p, generated)
	m.logger.Debug("expanded list into %d paragraphs in %s", len(items), part.Name)
	return nil
}

// expandPagedImages replaces p with the page images, each on its own page.
// A page break precedes the first image; one follows the last image unless
// this is the last paged group of the document.
func (m *merger) expandPagedImages(part *xml.Part, p *etree.Element, pages [][]byte, isLastGroup bool) error {
	style := m.config.FigureStyle

	generated := []*etree.Element{xml.NewPageBreakParagraph(style)}
	for i, page := range pages {
		run, err := m.embedder.embed(part, fmt.Sprintf("pdf_page_%d", i+1), page)
		if err != nil {
			return err
		}
		ip := xml.NewParagraph(style)
		ip.AddChild(run)
		generated = append(generated, ip)

		if i < len(pages)-1 {
			generated = append(generated, xml.NewPageBreakParagraph(style))
		}
	}
	if !isLastGroup {
		generated = append(generated, xml.NewPageBreakParagraph(style))
	}

	replaceParagraph(p, generated)
	m.logger.Debug("expanded %d page images in %s", len(pages), part.Name)
	return nil
}

// placeInlineImages embeds every inline image placeholder of a part. Each
// image name is placed once per document; later occurrences stay literal.
func (m *merger) placeInlineImages(part *xml.Part) error {
	queue := part.Paragraphs()
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		if !part.Contains(p) {
			continue
		}

		idx := render.Build(p)
		tok, ok := m.nextInlineImage(part, idx.Text())
		if !ok {
			continue
		}
		sub := m.subs.classify(tok.Name)
		m.placed[foldName(tok.Name)] = true

		run, err := m.embedder.embed(part, tok.Name, sub.Image)
		if err != nil {
			return err
		}

		trail := p.Copy()
		render.Build(trail).TrimBefore(tok.End())
		idx.TruncateAt(tok.Start)
		xml.RemoveSectionProperties(p)

		img := xml.NewParagraph(m.config.FigureStyle)
		img.AddChild(run)
		xml.InsertAfter(p, img)

		if xml.HasContent(trail) || xml.SectionProperties(trail) != nil {
			xml.InsertAfter(img, trail)
			// the rest of the paragraph may hold more images
			queue = append([]*etree.Element{trail}, queue...)
		}
		if !xml.HasContent(p) {
			xml.Remove(p)
		}

		part.MarkModified()
	}
	return nil
}

// nextInlineImage returns the first token in text naming an inline image that
// has not been placed yet. Already placed names are reported.
func (m *merger) nextInlineImage(part *xml.Part, text string) (Token, bool) {
	for _, tok := range Scan(text) {
		if !m.subs.has(tok.Name, SubstInlineImage) {
			continue
		}
		key := foldName(tok.Name)
		if m.placed[key] {
			if !m.reported[part.Name+"\x00"+key] {
				m.reported[part.Name+"\x00"+key] = true
				m.diag.add(DiagDuplicateImage, tok.Name, part.Name, "image is placed at its first occurrence only")
			}
			continue
		}
		return tok, true
	}
	return Token{}, false
}
