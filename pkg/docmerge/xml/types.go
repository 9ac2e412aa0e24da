package xml

import (
	"github.com/beevik/etree"
)

// Namespace URIs used by the parts docmerge writes to
const (
	NamespaceW   = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	NamespaceR   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	NamespaceWP  = "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
	NamespaceA   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	NamespacePic = "http://schemas.openxmlformats.org/drawingml/2006/picture"

	NamespaceRelationships = "http://schemas.openxmlformats.org/package/2006/relationships"
	NamespaceContentTypes  = "http://schemas.openxmlformats.org/package/2006/content-types"
)

// Relationship types
const (
	RelTypeImage     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	RelTypeHeader    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/header"
	RelTypeFooter    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/footer"
	RelTypeNumbering = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/numbering"
)

// ContentTypeNumbering is the override content type of word/numbering.xml
const ContentTypeNumbering = "application/vnd.openxmlformats-officedocument.wordprocessingml.numbering+xml"

// prefixes lists the namespaces a generated element may use, with the
// conventional prefix Word writes for each.
var prefixes = []struct{ prefix, uri string }{
	{"w", NamespaceW},
	{"r", NamespaceR},
	{"wp", NamespaceWP},
	{"a", NamespaceA},
	{"pic", NamespacePic},
}

// paragraphPropertyOrder is the schema sequence of w:pPr children.
var paragraphPropertyOrder = []string{
	"pStyle", "keepNext", "keepLines", "pageBreakBefore", "framePr", "widowControl",
	"numPr", "suppressLineNumbers", "pBdr", "shd", "tabs", "suppressAutoHyphens",
	"kinsoku", "wordWrap", "overflowPunct", "topLinePunct", "autoSpaceDE", "autoSpaceDN",
	"bidi", "adjustRightInd", "snapToGrid", "spacing", "ind", "contextualSpacing",
	"mirrorIndents", "suppressOverlap", "jc", "textDirection", "textAlignment",
	"textboxTightWrap", "outlineLvl", "divId", "cnfStyle", "rPr", "sectPr", "pPrChange",
}

// runPropertyOrder is the schema sequence of w:rPr children.
var runPropertyOrder = []string{
	"rStyle", "rFonts", "b", "bCs", "i", "iCs", "caps", "smallCaps", "strike", "dstrike",
	"outline", "shadow", "emboss", "imprint", "noProof", "snapToGrid", "vanish", "webHidden",
	"color", "spacing", "w", "kern", "position", "sz", "szCs", "highlight", "u", "effect",
	"bdr", "shd", "fitText", "vertAlign", "rtl", "cs", "em", "lang", "eastAsianLayout",
	"specVanish", "oMath", "rPrChange",
}

// IsW reports whether e is the WordprocessingML element with the given local name.
// Parts always bind the main namespace to the "w" prefix.
func IsW(e *etree.Element, local string) bool {
	return e != nil && e.Space == "w" && e.Tag == local
}

// child returns the first w:<local> child of e, or nil.
func child(e *etree.Element, local string) *etree.Element {
	if e == nil {
		return nil
	}
	for _, c := range e.ChildElements() {
		if IsW(c, local) {
			return c
		}
	}
	return nil
}

// orderedChild returns the w:<local> child of parent, creating it at the
// position the schema sequence in order requires when it does not exist yet.
func orderedChild(parent *etree.Element, local string, order []string) *etree.Element {
	if existing := child(parent, local); existing != nil {
		return existing
	}

	created := etree.NewElement("w:" + local)
	insertOrdered(parent, created, order)
	return created
}

// insertOrdered adds e to parent before the first child that the schema
// sequence in order places after it.
func insertOrdered(parent, e *etree.Element, order []string) {
	rank := indexOf(order, e.Tag)

	insertAt := len(parent.Child)
	for _, c := range parent.ChildElements() {
		if c.Space != "w" {
			continue
		}
		if r := indexOf(order, c.Tag); r > rank {
			insertAt = c.Index()
			break
		}
	}
	parent.InsertChildAt(insertAt, e)
}

func indexOf(order []string, local string) int {
	for i, name := range order {
		if name == local {
			return i
		}
	}
	return len(order)
}

// setVal sets the w:val attribute of e.
func setVal(e *etree.Element, val string) {
	e.CreateAttr("w:val", val)
}

// Val returns the w:val attribute of e, or "" when e is nil or has none.
func Val(e *etree.Element) string {
	if e == nil {
		return ""
	}
	return e.SelectAttrValue("w:val", "")
}

// EnsureNamespace declares prefix on root unless it is already declared there.
func EnsureNamespace(root *etree.Element, prefix, uri string) {
	if root == nil {
		return
	}
	for _, a := range root.Attr {
		if a.Space == "xmlns" && a.Key == prefix {
			return
		}
	}
	root.CreateAttr("xmlns:"+prefix, uri)
}
