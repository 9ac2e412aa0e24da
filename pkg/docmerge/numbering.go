package docmerge

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"

	"github.com/benjaminschreck/go-docmerge/pkg/docmerge/xml"
)

const numberingTarget = "numbering.xml"

// numberingStore gives access to the numbering definitions of a package.
// Definitions are only ever appended; existing ones are never rewritten.
type numberingStore struct {
	pkg  *Package
	part *xml.Part
}

func newNumberingStore(pkg *Package) *numberingStore {
	return &numberingStore{pkg: pkg}
}

// load returns the numbering part, creating it when the template has none.
// A numbering part that exists but cannot be read fails with ErrCorruptNumbering.
func (s *numberingStore) load() (*xml.Part, error) {
	if s.part != nil {
		return s.part, nil
	}

	rels, err := s.pkg.Relationships(mainDocumentPart)
	if err != nil {
		return nil, NewDocumentError("read relationships", relsPath(mainDocumentPart), err)
	}

	name := ""
	for _, rel := range rels {
		if rel.Type == xml.RelTypeNumbering && rel.TargetMode != "External" {
			name = resolveTarget(mainDocumentPart, rel.Target)
			break
		}
	}

	if name == "" && s.pkg.Has("word/"+numberingTarget) {
		// present but unreferenced
		name = "word/" + numberingTarget
		if _, err := s.pkg.addRelationship(mainDocumentPart, xml.RelTypeNumbering, numberingTarget); err != nil {
			return nil, err
		}
	}

	if name != "" && s.pkg.Has(name) {
		part, err := s.pkg.Part(name, xml.PartNumbering)
		if err != nil {
			return nil, NewDocumentError("parse", name, fmt.Errorf("%w: %v", ErrCorruptNumbering, err))
		}
		if !xml.IsW(part.Root(), "numbering") {
			return nil, NewDocumentError("parse", name, fmt.Errorf("%w: unexpected root <%s>", ErrCorruptNumbering, part.Root().FullTag()))
		}
		s.part = part
		return part, nil
	}

	return s.create()
}

func (s *numberingStore) create() (*xml.Part, error) {
	name := "word/" + numberingTarget

	root := etree.NewElement("w:numbering")
	xml.EnsureNamespace(root, "w", xml.NamespaceW)
	part := s.pkg.createPart(name, xml.PartNumbering, root)

	if _, err := s.pkg.addRelationship(mainDocumentPart, xml.RelTypeNumbering, numberingTarget); err != nil {
		return nil, err
	}
	if err := s.pkg.ensureOverrideContentType(name, xml.ContentTypeNumbering); err != nil {
		return nil, err
	}

	s.part = part
	return part, nil
}

// ensureBullet returns the id of a numbering instance whose level 0 is a
// bullet, reusing the first existing one or appending a new definition
func (s *numberingStore) ensureBullet() (int, error) {
	part, err := s.load()
	if err != nil {
		return 0, err
	}
	root := part.Root()

	if numID, ok := findBulletNum(root); ok {
		return numID, nil
	}

	abstractID := maxIntAttr(root, "abstractNum", "w:abstractNumId") + 1
	numID := maxIntAttr(root, "num", "w:numId") + 1

	abstract := newBulletAbstractNum(abstractID)

	// abstract definitions must precede every w:num
	insertAt := -1
	for _, c := range root.ChildElements() {
		if xml.IsW(c, "abstractNum") {
			insertAt = c.Index() + 1
		}
	}
	if insertAt < 0 {
		insertAt = len(root.Child)
		for _, c := range root.ChildElements() {
			if xml.IsW(c, "num") || xml.IsW(c, "numIdMacAtCleanup") {
				insertAt = c.Index()
				break
			}
		}
	}
	root.InsertChildAt(insertAt, abstract)

	num := etree.NewElement("w:num")
	num.CreateAttr("w:numId", strconv.Itoa(numID))
	num.CreateElement("w:abstractNumId").CreateAttr("w:val", strconv.Itoa(abstractID))

	numInsert := len(root.Child)
	for _, c := range root.ChildElements() {
		if xml.IsW(c, "numIdMacAtCleanup") {
			numInsert = c.Index()
			break
		}
	}
	root.InsertChildAt(numInsert, num)

	part.MarkModified()
	return numID, nil
}

// findBulletNum scans the w:num instances in order for one whose abstract
// definition formats level 0 as a bullet
func findBulletNum(root *etree.Element) (int, bool) {
	abstracts := make(map[string]*etree.Element)
	for _, c := range root.ChildElements() {
		if xml.IsW(c, "abstractNum") {
			abstracts[c.SelectAttrValue("w:abstractNumId", "")] = c
		}
	}

	for _, num := range root.ChildElements() {
		if !xml.IsW(num, "num") {
			continue
		}
		numID, err := strconv.Atoi(num.SelectAttrValue("w:numId", ""))
		if err != nil {
			continue
		}

		var absRef *etree.Element
		for _, c := range num.ChildElements() {
			if xml.IsW(c, "abstractNumId") {
				absRef = c
				break
			}
		}
		abstract := abstracts[xml.Val(absRef)]
		if abstract == nil {
			continue
		}

		for _, lvl := range abstract.ChildElements() {
			if !xml.IsW(lvl, "lvl") || lvl.SelectAttrValue("w:ilvl", "") != "0" {
				continue
			}
			for _, c := range lvl.ChildElements() {
				if xml.IsW(c, "numFmt") && xml.Val(c) == "bullet" {
					return numID, true
				}
			}
			break
		}
	}
	return 0, false
}

func maxIntAttr(root *etree.Element, local, attr string) int {
	max := 0
	for _, c := range root.ChildElements() {
		if !xml.IsW(c, local) {
			continue
		}
		if n, err := strconv.Atoi(c.SelectAttrValue(attr, "")); err == nil && n > max {
			max = n
		}
	}
	return max
}

func newBulletAbstractNum(id int) *etree.Element {
	abstract := etree.NewElement("w:abstractNum")
	abstract.CreateAttr("w:abstractNumId", strconv.Itoa(id))

	lvl := abstract.CreateElement("w:lvl")
	lvl.CreateAttr("w:ilvl", "0")
	lvl.CreateElement("w:start").CreateAttr("w:val", "1")
	lvl.CreateElement("w:numFmt").CreateAttr("w:val", "bullet")
	lvl.CreateElement("w:lvlText").CreateAttr("w:val", "•")
	lvl.CreateElement("w:lvlJc").CreateAttr("w:val", "left")

	ind := lvl.CreateElement("w:pPr").CreateElement("w:ind")
	ind.CreateAttr("w:left", "360")
	ind.CreateAttr("w:hanging", "180")

	return abstract
}
