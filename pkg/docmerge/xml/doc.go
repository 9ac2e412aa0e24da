// Package xml provides the WordprocessingML element model used by docmerge.
//
// DOCX files are ZIP archives of XML parts. This package wraps the parts the
// merge engine edits (the main document, headers, footers and the numbering
// store) in an element tree built on github.com/beevik/etree, which keeps
// namespace prefixes, attribute order and unknown markup intact when a part
// is written back out.
//
// # Structure Organization
//
//   - types.go: namespace URIs, relationship and content types, ordered child helpers
//   - part.go: Part (a parsed XML part) and paragraph discovery
//   - paragraph.go: paragraph properties, numbering references, sibling insertion
//   - run.go: run text, run properties and formatting markers
//   - drawing.go: inline picture drawings
//
// # Key Concepts
//
// Paragraph: a w:p element. Its direct w:r children are the runs whose text
// makes up the paragraph's logical text.
//
// Run: a w:r element. The first w:t child carries the run's text; w:rPr
// carries its formatting.
//
// Elements are plain *etree.Element values. Helpers in this package never
// share an element between two parents; anything propagated to a new run or
// paragraph is deep-copied first.
//
// Example of building a paragraph:
//
//	p := xml.NewParagraph("Caption")
//	p.AddChild(xml.NewTextRun("Hello, world!"))
//	xml.InsertAfter(anchor, p)
package xml
