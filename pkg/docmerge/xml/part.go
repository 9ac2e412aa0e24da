package xml

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// PartKind identifies the role of a part in the document
type PartKind int

const (
	PartBody PartKind = iota
	PartHeader
	PartFooter
	PartNumbering
	PartOther
)

func (k PartKind) String() string {
	switch k {
	case PartBody:
		return "body"
	case PartHeader:
		return "header"
	case PartFooter:
		return "footer"
	case PartNumbering:
		return "numbering"
	default:
		return "other"
	}
}

// Part is a parsed XML part of a DOCX package
type Part struct {
	Name     string
	Kind     PartKind
	Doc      *etree.Document
	modified bool
}

// ParsePart parses the XML content of a package part
func ParsePart(name string, kind PartKind, data []byte) (*Part, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("failed to parse %s: no root element", name)
	}
	return &Part{Name: name, Kind: kind, Doc: doc}, nil
}

// Root returns the root element of the part
func (p *Part) Root() *etree.Element {
	return p.Doc.Root()
}

// Body returns the w:body element of a main document part, or nil
func (p *Part) Body() *etree.Element {
	return child(p.Root(), "body")
}

// MarkModified flags the part for re-serialization
func (p *Part) MarkModified() {
	p.modified = true
}

// Modified reports whether the part was changed since it was parsed
func (p *Part) Modified() bool {
	return p.modified
}

// Bytes serializes the part
func (p *Part) Bytes() ([]byte, error) {
	out, err := p.Doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize %s: %w", p.Name, err)
	}
	return out, nil
}

// Paragraphs returns every w:p in the part in document order, including
// paragraphs nested in tables and text boxes. The slice is a snapshot: callers
// may insert or remove paragraphs while iterating it.
func (p *Part) Paragraphs() []*etree.Element {
	var out []*etree.Element
	collectParagraphs(p.Root(), &out)
	return out
}

func collectParagraphs(e *etree.Element, out *[]*etree.Element) {
	if e == nil {
		return
	}
	for _, c := range e.ChildElements() {
		if IsW(c, "p") {
			*out = append(*out, c)
		}
		collectParagraphs(c, out)
	}
}

// Contains reports whether e is still attached to the part's tree
func (p *Part) Contains(e *etree.Element) bool {
	root := p.Root()
	for cur := e; cur != nil; cur = cur.Parent() {
		if cur == root {
			return true
		}
	}
	return false
}

// Text returns the concatenated text of every w:t in the part
func (p *Part) Text() string {
	var sb strings.Builder
	collectText(p.Root(), &sb)
	return sb.String()
}

func collectText(e *etree.Element, sb *strings.Builder) {
	for _, c := range e.ChildElements() {
		if IsW(c, "t") {
			sb.WriteString(c.Text())
			continue
		}
		collectText(c, sb)
	}
}
