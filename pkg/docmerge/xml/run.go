package xml

import (
	"strings"
	"unicode"

	"github.com/beevik/etree"
)

// NewTextRun creates a w:r holding text
func NewTextRun(text string) *etree.Element {
	r := etree.NewElement("w:r")
	SetText(r.CreateElement("w:t"), text)
	return r
}

// TextElement returns the first w:t of a run, or nil when the run has no text
func TextElement(r *etree.Element) *etree.Element {
	return child(r, "t")
}

// RunText returns the text of a run's first w:t
func RunText(r *etree.Element) string {
	t := TextElement(r)
	if t == nil {
		return ""
	}
	return t.Text()
}

// SetText replaces the content of a w:t, keeping xml:space="preserve" in
// step with leading or trailing whitespace
func SetText(t *etree.Element, text string) {
	t.SetText(text)
	if needsPreserve(text) {
		t.CreateAttr("xml:space", "preserve")
	}
}

func needsPreserve(text string) bool {
	if text == "" {
		return false
	}
	first := []rune(text)[0]
	last := []rune(text)[len([]rune(text))-1]
	return unicode.IsSpace(first) || unicode.IsSpace(last) || strings.Contains(text, "  ")
}

// RunProperties returns the w:rPr of a run, or nil
func RunProperties(r *etree.Element) *etree.Element {
	return child(r, "rPr")
}

// EnsureRunProperties returns the w:rPr of a run, creating it as the first child if needed
func EnsureRunProperties(r *etree.Element) *etree.Element {
	if rPr := RunProperties(r); rPr != nil {
		return rPr
	}
	rPr := etree.NewElement("w:rPr")
	r.InsertChildAt(0, rPr)
	return rPr
}

// SetRunProperty sets w:<local w:val=val> in a w:rPr, respecting schema order.
// An empty val writes the element without a value (toggle properties like w:b).
func SetRunProperty(rPr *etree.Element, local, val string) {
	e := orderedChild(rPr, local, runPropertyOrder)
	if val != "" {
		setVal(e, val)
	} else {
		e.RemoveAttr("w:val")
	}
}

// Marker describes the formatting applied to a run to flag it
type Marker struct {
	Bold      bool
	Color     string
	Highlight string
}

// Mark applies m to a run
func Mark(r *etree.Element, m Marker) {
	rPr := EnsureRunProperties(r)
	if m.Bold {
		SetRunProperty(rPr, "b", "")
	}
	if m.Color != "" {
		SetRunProperty(rPr, "color", m.Color)
	}
	if m.Highlight != "" {
		SetRunProperty(rPr, "highlight", m.Highlight)
	}
}
