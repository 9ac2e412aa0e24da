package xml

import (
	"strconv"

	"github.com/beevik/etree"
)

// Inline describes an inline picture
type Inline struct {
	// ID is the document-unique drawing object id (wp:docPr/@id)
	ID int
	// Name is shown as the picture's name in Word
	Name string
	// RelID is the relationship id of the image part, relative to the owning part
	RelID string
	// Width and Height are in EMU
	Width, Height int64
}

// EnsureDrawingNamespaces declares the prefixes used by NewDrawingRun on root
func EnsureDrawingNamespaces(root *etree.Element) {
	for _, ns := range prefixes {
		EnsureNamespace(root, ns.prefix, ns.uri)
	}
}

// NewDrawingRun creates a w:r holding an inline w:drawing for img
func NewDrawingRun(img Inline) *etree.Element {
	cx := strconv.FormatInt(img.Width, 10)
	cy := strconv.FormatInt(img.Height, 10)

	r := etree.NewElement("w:r")
	drawing := r.CreateElement("w:drawing")

	inline := drawing.CreateElement("wp:inline")
	for _, side := range []string{"distT", "distB", "distL", "distR"} {
		inline.CreateAttr(side, "0")
	}

	extent := inline.CreateElement("wp:extent")
	extent.CreateAttr("cx", cx)
	extent.CreateAttr("cy", cy)

	effect := inline.CreateElement("wp:effectExtent")
	for _, side := range []string{"l", "t", "r", "b"} {
		effect.CreateAttr(side, "0")
	}

	docPr := inline.CreateElement("wp:docPr")
	docPr.CreateAttr("id", strconv.Itoa(img.ID))
	docPr.CreateAttr("name", img.Name)

	frame := inline.CreateElement("wp:cNvGraphicFramePr")
	locks := frame.CreateElement("a:graphicFrameLocks")
	locks.CreateAttr("noChangeAspect", "1")

	graphic := inline.CreateElement("a:graphic")
	data := graphic.CreateElement("a:graphicData")
	data.CreateAttr("uri", NamespacePic)

	pic := data.CreateElement("pic:pic")
	nv := pic.CreateElement("pic:nvPicPr")
	cNvPr := nv.CreateElement("pic:cNvPr")
	cNvPr.CreateAttr("id", "0")
	cNvPr.CreateAttr("name", img.Name)
	nv.CreateElement("pic:cNvPicPr")

	fill := pic.CreateElement("pic:blipFill")
	blip := fill.CreateElement("a:blip")
	blip.CreateAttr("r:embed", img.RelID)
	fill.CreateElement("a:stretch").CreateElement("a:fillRect")

	spPr := pic.CreateElement("pic:spPr")
	xfrm := spPr.CreateElement("a:xfrm")
	off := xfrm.CreateElement("a:off")
	off.CreateAttr("x", "0")
	off.CreateAttr("y", "0")
	ext := xfrm.CreateElement("a:ext")
	ext.CreateAttr("cx", cx)
	ext.CreateAttr("cy", cy)
	geom := spPr.CreateElement("a:prstGeom")
	geom.CreateAttr("prst", "rect")
	geom.CreateElement("a:avLst")

	return r
}

// DrawingIDs returns every wp:docPr id present under e
func DrawingIDs(e *etree.Element) []int {
	var ids []int
	for _, c := range e.ChildElements() {
		if c.Space == "wp" && c.Tag == "docPr" {
			if id, err := strconv.Atoi(c.SelectAttrValue("id", "")); err == nil {
				ids = append(ids, id)
			}
		}
		ids = append(ids, DrawingIDs(c)...)
	}
	return ids
}
