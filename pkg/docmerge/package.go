package docmerge

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/benjaminschreck/go-docmerge/pkg/docmerge/xml"
)

const (
	mainDocumentPart = "word/document.xml"
	contentTypesPart = "[Content_Types].xml"
)

// Package is an opened DOCX package. XML parts are parsed on first use; parts
// that are never modified are written back byte for byte.
type Package struct {
	reader *zip.Reader
	files  map[string]*zip.File
	parts  map[string]*xml.Part
	// created lists entries that did not exist in the template, in creation order
	created []string
	media   map[string][]byte

	nextDrawingID int
}

// OpenPackage opens DOCX bytes. The main document part must exist.
func OpenPackage(data []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, NewDocumentError("open", "", fmt.Errorf("failed to read zip file: %w", err))
	}

	pkg := &Package{
		reader: zr,
		files:  make(map[string]*zip.File, len(zr.File)),
		parts:  make(map[string]*xml.Part),
		media:  make(map[string][]byte),
	}
	for _, f := range zr.File {
		pkg.files[f.Name] = f
	}

	if _, ok := pkg.files[mainDocumentPart]; !ok {
		return nil, NewDocumentError("open", mainDocumentPart, ErrMissingBody)
	}

	return pkg, nil
}

// Has reports whether the package contains an entry
func (p *Package) Has(name string) bool {
	if _, ok := p.files[name]; ok {
		return true
	}
	if _, ok := p.parts[name]; ok {
		return true
	}
	_, ok := p.media[name]
	return ok
}

// Names returns every entry name, template entries first
func (p *Package) Names() []string {
	names := make([]string, 0, len(p.reader.File)+len(p.created))
	for _, f := range p.reader.File {
		names = append(names, f.Name)
	}
	return append(names, p.created...)
}

// Raw returns the stored bytes of a template entry
func (p *Package) Raw(name string) ([]byte, error) {
	f, ok := p.files[name]
	if !ok {
		return nil, fmt.Errorf("part %s not found", name)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open part %s: %w", name, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read part %s: %w", name, err)
	}
	return content, nil
}

// Part returns the parsed XML part with the given name
func (p *Package) Part(name string, kind xml.PartKind) (*xml.Part, error) {
	if part, ok := p.parts[name]; ok {
		return part, nil
	}

	data, err := p.Raw(name)
	if err != nil {
		return nil, err
	}
	part, err := xml.ParsePart(name, kind, data)
	if err != nil {
		return nil, err
	}
	p.parts[name] = part
	return part, nil
}

// MainDocument returns the parsed word/document.xml. A part without w:body
// yields ErrMissingBody.
func (p *Package) MainDocument() (*xml.Part, error) {
	part, err := p.Part(mainDocumentPart, xml.PartBody)
	if err != nil {
		return nil, NewDocumentError("parse", mainDocumentPart, err)
	}
	if part.Body() == nil {
		return nil, NewDocumentError("parse", mainDocumentPart, ErrMissingBody)
	}
	return part, nil
}

// createPart adds a new XML part with root as its root element
func (p *Package) createPart(name string, kind xml.PartKind, root *etree.Element) *xml.Part {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	doc.SetRoot(root)

	part := &xml.Part{Name: name, Kind: kind, Doc: doc}
	part.MarkModified()
	p.parts[name] = part
	p.created = append(p.created, name)
	return part
}

// addMedia stores a new binary entry
func (p *Package) addMedia(name string, data []byte) {
	p.media[name] = data
	p.created = append(p.created, name)
}

// relsPath returns the relationships part of a source part,
// e.g. "word/document.xml" -> "word/_rels/document.xml.rels"
func relsPath(partName string) string {
	dir, base := path.Split(partName)
	return dir + "_rels/" + base + ".rels"
}

// resolveTarget turns a relationship target into a package entry name
func resolveTarget(source, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Clean(path.Join(path.Dir(source), target))
}

// relationships returns the parsed relationships of a source part. When the
// part has none, an empty relationships part is created.
func (p *Package) relationships(source string) (*xml.Part, error) {
	name := relsPath(source)
	if p.Has(name) {
		return p.Part(name, xml.PartOther)
	}

	root := etree.NewElement("Relationships")
	root.CreateAttr("xmlns", xml.NamespaceRelationships)
	return p.createPart(name, xml.PartOther, root), nil
}

// Relationship is one entry of a .rels part
type Relationship struct {
	ID         string
	Type       string
	Target     string
	TargetMode string
}

// Relationships lists the relationships of a source part in document order
func (p *Package) Relationships(source string) ([]Relationship, error) {
	if !p.Has(relsPath(source)) {
		return nil, nil
	}
	part, err := p.relationships(source)
	if err != nil {
		return nil, err
	}

	var rels []Relationship
	for _, e := range part.Root().ChildElements() {
		if e.Tag != "Relationship" {
			continue
		}
		rels = append(rels, Relationship{
			ID:         e.SelectAttrValue("Id", ""),
			Type:       e.SelectAttrValue("Type", ""),
			Target:     e.SelectAttrValue("Target", ""),
			TargetMode: e.SelectAttrValue("TargetMode", ""),
		})
	}
	return rels, nil
}

// addRelationship appends a relationship from source to target and returns its id
func (p *Package) addRelationship(source, relType, target string) (string, error) {
	part, err := p.relationships(source)
	if err != nil {
		return "", err
	}

	used := make(map[string]bool)
	next := 1
	for _, e := range part.Root().ChildElements() {
		id := e.SelectAttrValue("Id", "")
		used[id] = true
		if n, err := strconv.Atoi(strings.TrimPrefix(id, "rId")); err == nil && n >= next {
			next = n + 1
		}
	}
	id := "rId" + strconv.Itoa(next)
	for used[id] {
		next++
		id = "rId" + strconv.Itoa(next)
	}

	rel := part.Root().CreateElement("Relationship")
	rel.CreateAttr("Id", id)
	rel.CreateAttr("Type", relType)
	rel.CreateAttr("Target", target)
	part.MarkModified()

	return id, nil
}

// HeaderFooterParts returns every header and footer referenced from the main
// document, each once, in relationship order. Targets missing from the
// package are skipped.
func (p *Package) HeaderFooterParts() ([]*xml.Part, error) {
	rels, err := p.Relationships(mainDocumentPart)
	if err != nil {
		return nil, NewDocumentError("read relationships", relsPath(mainDocumentPart), err)
	}

	seen := make(map[string]bool)
	var parts []*xml.Part
	for _, rel := range rels {
		var kind xml.PartKind
		switch rel.Type {
		case xml.RelTypeHeader:
			kind = xml.PartHeader
		case xml.RelTypeFooter:
			kind = xml.PartFooter
		default:
			continue
		}
		if rel.TargetMode == "External" {
			continue
		}

		name := resolveTarget(mainDocumentPart, rel.Target)
		if seen[name] || !p.Has(name) {
			continue
		}
		seen[name] = true

		part, err := p.Part(name, kind)
		if err != nil {
			return nil, NewDocumentError("parse", name, err)
		}
		parts = append(parts, part)
	}
	return parts, nil
}

// contentTypes returns the parsed [Content_Types].xml, creating it if absent
func (p *Package) contentTypes() (*xml.Part, error) {
	if p.Has(contentTypesPart) {
		return p.Part(contentTypesPart, xml.PartOther)
	}
	root := etree.NewElement("Types")
	root.CreateAttr("xmlns", xml.NamespaceContentTypes)
	return p.createPart(contentTypesPart, xml.PartOther, root), nil
}

// ensureDefaultContentType registers a content type for a file extension
func (p *Package) ensureDefaultContentType(ext, contentType string) error {
	types, err := p.contentTypes()
	if err != nil {
		return err
	}

	for _, e := range types.Root().ChildElements() {
		if e.Tag == "Default" && strings.EqualFold(e.SelectAttrValue("Extension", ""), ext) {
			return nil
		}
	}

	def := etree.NewElement("Default")
	def.CreateAttr("Extension", ext)
	def.CreateAttr("ContentType", contentType)
	// Defaults conventionally precede Overrides
	insertAt := len(types.Root().Child)
	for _, e := range types.Root().ChildElements() {
		if e.Tag == "Override" {
			insertAt = e.Index()
			break
		}
	}
	types.Root().InsertChildAt(insertAt, def)
	types.MarkModified()
	return nil
}

// ensureOverrideContentType registers the content type of a single part
func (p *Package) ensureOverrideContentType(name, contentType string) error {
	types, err := p.contentTypes()
	if err != nil {
		return err
	}

	partName := "/" + name
	for _, e := range types.Root().ChildElements() {
		if e.Tag == "Override" && e.SelectAttrValue("PartName", "") == partName {
			return nil
		}
	}

	override := types.Root().CreateElement("Override")
	override.CreateAttr("PartName", partName)
	override.CreateAttr("ContentType", contentType)
	types.MarkModified()
	return nil
}

// allocateDrawingID returns a wp:docPr id not used anywhere in the document
func (p *Package) allocateDrawingID() (int, error) {
	if p.nextDrawingID == 0 {
		maxID := 0
		scan := func(part *xml.Part) {
			for _, id := range xml.DrawingIDs(part.Root()) {
				if id > maxID {
					maxID = id
				}
			}
		}

		main, err := p.MainDocument()
		if err != nil {
			return 0, err
		}
		scan(main)

		others, err := p.HeaderFooterParts()
		if err != nil {
			return 0, err
		}
		for _, part := range others {
			scan(part)
		}
		p.nextDrawingID = maxID + 1
	}

	id := p.nextDrawingID
	p.nextDrawingID++
	return id, nil
}

// uniqueName returns the first "<prefix>N<suffix>" not present in the package
func (p *Package) uniqueName(prefix, suffix string) string {
	for n := 1; ; n++ {
		name := prefix + strconv.Itoa(n) + suffix
		if !p.Has(name) {
			return name
		}
	}
}

// Bytes serializes the package. Template entries keep their order and
// unmodified entries are copied without recompression; created entries follow.
func (p *Package) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, f := range p.reader.File {
		part, parsed := p.parts[f.Name]
		if !parsed || !part.Modified() {
			if err := zw.Copy(f); err != nil {
				return nil, NewDocumentError("write", f.Name, err)
			}
			continue
		}

		data, err := part.Bytes()
		if err != nil {
			return nil, NewDocumentError("write", f.Name, err)
		}
		if err := writeEntry(zw, f.Name, f.Modified, data); err != nil {
			return nil, NewDocumentError("write", f.Name, err)
		}
	}

	for _, name := range p.created {
		var data []byte
		if part, ok := p.parts[name]; ok {
			var err error
			if data, err = part.Bytes(); err != nil {
				return nil, NewDocumentError("write", name, err)
			}
		} else {
			data = p.media[name]
		}
		if err := writeEntry(zw, name, zipEpoch, data); err != nil {
			return nil, NewDocumentError("write", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, NewDocumentError("write", "", err)
	}
	return buf.Bytes(), nil
}

// zipEpoch is the earliest timestamp a zip entry can carry
var zipEpoch = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

func writeEntry(zw *zip.Writer, name string, modified time.Time, data []byte) error {
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: modified,
	})
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// modifiedParts returns the names of parsed parts that changed, sorted
func (p *Package) modifiedParts() []string {
	var names []string
	for name, part := range p.parts {
		if part.Modified() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
