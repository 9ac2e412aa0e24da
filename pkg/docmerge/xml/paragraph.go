package xml

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// NewParagraph creates an empty w:p, with a w:pStyle reference when style is set
func NewParagraph(style string) *etree.Element {
	p := etree.NewElement("w:p")
	if style != "" {
		SetStyle(EnsureProperties(p), style)
	}
	return p
}

// NewPageBreakParagraph creates a paragraph holding a single page break run
func NewPageBreakParagraph(style string) *etree.Element {
	p := NewParagraph(style)
	r := p.CreateElement("w:r")
	br := r.CreateElement("w:br")
	br.CreateAttr("w:type", "page")
	return p
}

// NewTextParagraph creates a paragraph with the given properties (deep-copied)
// and a single run carrying text
func NewTextParagraph(props *etree.Element, text string) *etree.Element {
	p := etree.NewElement("w:p")
	if props != nil {
		p.AddChild(props.Copy())
	}
	p.AddChild(NewTextRun(text))
	return p
}

// Runs returns the direct w:r children of a paragraph
func Runs(p *etree.Element) []*etree.Element {
	var runs []*etree.Element
	for _, c := range p.ChildElements() {
		if IsW(c, "r") {
			runs = append(runs, c)
		}
	}
	return runs
}

// Text returns the paragraph's logical text: the text of its direct runs, in order
func Text(p *etree.Element) string {
	var sb strings.Builder
	for _, r := range Runs(p) {
		sb.WriteString(RunText(r))
	}
	return sb.String()
}

// HasContent reports whether a paragraph holds anything besides its
// properties and empty runs. Tabs, breaks, drawings, fields and hyperlinks
// count as content even without text.
func HasContent(p *etree.Element) bool {
	for _, c := range p.ChildElements() {
		switch {
		case IsW(c, "pPr"), IsW(c, "proofErr"):
		case IsW(c, "r"):
			if runHasContent(c) {
				return true
			}
		default:
			return true
		}
	}
	return false
}

func runHasContent(r *etree.Element) bool {
	for _, c := range r.ChildElements() {
		switch {
		case IsW(c, "rPr"):
		case IsW(c, "t"):
			if c.Text() != "" {
				return true
			}
		default:
			return true
		}
	}
	return false
}

// blockContainers must keep at least one paragraph
var blockContainers = []string{"tc", "txbxContent", "hdr", "ftr", "footnote", "endnote", "comment"}

// SoleBlock reports whether p is the only block-level child of a container
// that must hold at least one paragraph, such as a table cell
func SoleBlock(p *etree.Element) bool {
	parent := p.Parent()
	if parent == nil {
		return false
	}
	required := false
	for _, local := range blockContainers {
		if IsW(parent, local) {
			required = true
			break
		}
	}
	if !required {
		return false
	}
	for _, c := range parent.ChildElements() {
		if c != p && (IsW(c, "p") || IsW(c, "tbl") || IsW(c, "sdt")) {
			return false
		}
	}
	return true
}

// Properties returns the w:pPr of a paragraph, or nil
func Properties(p *etree.Element) *etree.Element {
	return child(p, "pPr")
}

// EnsureProperties returns the w:pPr of a paragraph, creating it as the first child if needed
func EnsureProperties(p *etree.Element) *etree.Element {
	if pPr := Properties(p); pPr != nil {
		return pPr
	}
	pPr := etree.NewElement("w:pPr")
	p.InsertChildAt(0, pPr)
	return pPr
}

// StyleElement returns the w:pStyle of a w:pPr, or nil
func StyleElement(pPr *etree.Element) *etree.Element {
	return child(pPr, "pStyle")
}

// SetStyle sets the paragraph style id of a w:pPr
func SetStyle(pPr *etree.Element, style string) {
	setVal(orderedChild(pPr, "pStyle", paragraphPropertyOrder), style)
}

// NumberingID returns the w:numPr/w:numId value of a w:pPr, or "" when the
// paragraph carries no list numbering
func NumberingID(pPr *etree.Element) string {
	return Val(child(child(pPr, "numPr"), "numId"))
}

// SetNumbering points a w:pPr at a numbering instance and level
func SetNumbering(pPr *etree.Element, level, numID int) {
	numPr := orderedChild(pPr, "numPr", paragraphPropertyOrder)
	for _, c := range numPr.ChildElements() {
		numPr.RemoveChild(c)
	}
	setVal(numPr.CreateElement("w:ilvl"), strconv.Itoa(level))
	setVal(numPr.CreateElement("w:numId"), strconv.Itoa(numID))
}

// SectionProperties returns the paragraph-level w:sectPr that ends a
// section at p, or nil
func SectionProperties(p *etree.Element) *etree.Element {
	return child(Properties(p), "sectPr")
}

// RemoveSectionProperties drops the section break carried by p
func RemoveSectionProperties(p *etree.Element) {
	if sect := SectionProperties(p); sect != nil {
		Properties(p).RemoveChild(sect)
	}
}

// MoveSectionProperties moves the section break carried by from onto to,
// replacing any break to already carries
func MoveSectionProperties(from, to *etree.Element) {
	sect := SectionProperties(from)
	if sect == nil || from == to {
		return
	}
	Properties(from).RemoveChild(sect)
	RemoveSectionProperties(to)
	insertOrdered(EnsureProperties(to), sect, paragraphPropertyOrder)
}

// InsertAfter inserts e as the next sibling of ref
func InsertAfter(ref, e *etree.Element) {
	parent := ref.Parent()
	if parent == nil {
		return
	}
	parent.InsertChildAt(ref.Index()+1, e)
}

// Remove detaches e from its parent
func Remove(e *etree.Element) {
	if parent := e.Parent(); parent != nil {
		parent.RemoveChild(e)
	}
}
