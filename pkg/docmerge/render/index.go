package render

import (
	"strings"

	"github.com/beevik/etree"

	"github.com/benjaminschreck/go-docmerge/pkg/docmerge/xml"
)

// Entry maps a byte range of the paragraph text to the run that produced it
type Entry struct {
	Run *etree.Element
	// Text is the run's first w:t, nil for runs without text
	Text   *etree.Element
	Start  int
	Length int
}

// End returns the offset one past the entry's last byte
func (e Entry) End() int {
	return e.Start + e.Length
}

// Index is the run-text index of a single paragraph. It reflects the
// paragraph at Build time and is not updated by Splice; callers splicing
// several ranges must go from the highest offset to the lowest so that the
// offsets of the ranges still to be processed stay valid.
type Index struct {
	Paragraph *etree.Element
	Entries   []Entry
	text      string
}

// Build indexes the direct runs of a paragraph
func Build(p *etree.Element) *Index {
	idx := &Index{Paragraph: p}

	var sb strings.Builder
	for _, run := range xml.Runs(p) {
		t := xml.TextElement(run)
		content := ""
		if t != nil {
			content = t.Text()
		}
		idx.Entries = append(idx.Entries, Entry{
			Run:    run,
			Text:   t,
			Start:  sb.Len(),
			Length: len(content),
		})
		sb.WriteString(content)
	}
	idx.text = sb.String()

	return idx
}

// Text returns the paragraph's concatenated run text
func (idx *Index) Text() string {
	return idx.text
}

// Splice replaces the bytes [start, start+length) of the paragraph text with
// replacement. The first run intersecting the range receives the whole
// replacement, keeping its own text outside the range; every later
// intersecting run loses only its intersecting text. Runs outside the range
// are not touched. It returns the runs whose text was edited, in order.
func (idx *Index) Splice(start, length int, replacement string) []*etree.Element {
	end := start + length

	var affected []*etree.Element
	for _, e := range idx.Entries {
		if e.End() <= start || e.Start >= end {
			continue
		}
		if e.Text == nil {
			continue
		}

		old := e.Text.Text()
		localStart := clamp(start-e.Start, 0, len(old))
		localEnd := clamp(end-e.Start, localStart, len(old))

		xml.SetText(e.Text, old[:localStart]+replacement+old[localEnd:])
		affected = append(affected, e.Run)

		replacement = ""
	}

	return affected
}

// TruncateAt drops the paragraph text from offset onward. Runs starting at
// or after offset are removed, except runs without text sitting exactly at
// offset; a run straddling offset keeps its leading text. Other inline
// content following the run that holds offset, such as hyperlinks or
// fields, is removed with it.
func (idx *Index) TruncateAt(offset int) {
	var anchor *etree.Element
	for _, e := range idx.Entries {
		if e.Length > 0 && e.End() > offset {
			anchor = e.Run
			break
		}
	}
	idx.dropSiblings(anchor, true)

	for _, e := range idx.Entries {
		switch {
		case e.Start > offset || (e.Start == offset && e.Length > 0):
			xml.Remove(e.Run)
		case e.End() > offset && e.Text != nil:
			xml.SetText(e.Text, e.Text.Text()[:offset-e.Start])
		}
	}
}

// TrimBefore drops the paragraph text before offset. Runs ending at or
// before offset are removed, except runs without text sitting exactly at
// offset; a run straddling offset keeps its trailing text. Other inline
// content preceding the run that holds offset-1 is removed with it.
func (idx *Index) TrimBefore(offset int) {
	var anchor *etree.Element
	for _, e := range idx.Entries {
		if e.Length > 0 && e.Start < offset {
			anchor = e.Run
		}
	}
	idx.dropSiblings(anchor, false)

	for _, e := range idx.Entries {
		switch {
		case e.End() < offset || (e.End() == offset && e.Length > 0):
			xml.Remove(e.Run)
		case e.Start < offset && e.Text != nil:
			xml.SetText(e.Text, e.Text.Text()[offset-e.Start:])
		}
	}
}

// dropSiblings removes the paragraph children after anchor, or before it
// when after is false. The paragraph properties always stay.
func (idx *Index) dropSiblings(anchor *etree.Element, after bool) {
	if anchor == nil {
		return
	}
	seen := false
	for _, c := range idx.Paragraph.ChildElements() {
		if c == anchor {
			seen = true
			continue
		}
		if xml.IsW(c, "pPr") {
			continue
		}
		if seen == after {
			xml.Remove(c)
		}
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
