package docmerge

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjaminschreck/go-docmerge/pkg/docmerge/xml"
)

func zipNames(t *testing.T, data []byte) []string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

func TestOpenPackage(t *testing.T) {
	data := buildDOCX(t, fixture{body: para("hello")})

	pkg, err := OpenPackage(data)
	require.NoError(t, err)

	assert.True(t, pkg.Has("word/document.xml"))
	assert.False(t, pkg.Has("word/numbering.xml"))
	assert.Equal(t, zipNames(t, data), pkg.Names())

	main, err := pkg.MainDocument()
	require.NoError(t, err)
	assert.Equal(t, xml.PartBody, main.Kind)
	assert.Len(t, main.Paragraphs(), 1)
}

func TestOpenPackage_Errors(t *testing.T) {
	_, err := OpenPackage([]byte("not a zip"))
	assert.True(t, IsDocumentError(err))

	_, err = OpenPackage(buildDOCX(t, fixture{noDocument: true}))
	assert.ErrorIs(t, err, ErrMissingBody)
}

func TestPackage_BytesKeepsOrder(t *testing.T) {
	data := buildDOCX(t, fixture{body: para("x"), extra: map[string]string{"docProps/app.xml": "<Properties/>"}})
	pkg, err := OpenPackage(data)
	require.NoError(t, err)

	main, err := pkg.MainDocument()
	require.NoError(t, err)
	xml.SetText(xml.TextElement(xml.Runs(main.Paragraphs()[0])[0]), "changed")
	main.MarkModified()
	pkg.addMedia("word/media/new.png", pngBytes(t, 1, 1))

	out, err := pkg.Bytes()
	require.NoError(t, err)

	assert.Equal(t, append(zipNames(t, data), "word/media/new.png"), zipNames(t, out))
	assert.Equal(t, []string{"changed"}, paragraphTexts(t, out))
	assert.Equal(t, []string{"word/document.xml"}, pkg.modifiedParts())

	zr, err := zip.NewReader(bytes.NewReader(out), int64(len(out)))
	require.NoError(t, err)
	last := zr.File[len(zr.File)-1]
	assert.Equal(t, 1980, last.Modified.Year())
}

func TestPackage_AddRelationship(t *testing.T) {
	pkg, err := OpenPackage(buildDOCX(t, fixture{
		body:    para("x"),
		headers: map[string]string{"header1.xml": para("h")},
	}))
	require.NoError(t, err)

	// the fixture's header is rId10
	id, err := pkg.addRelationship("word/document.xml", xml.RelTypeImage, "media/a.png")
	require.NoError(t, err)
	assert.Equal(t, "rId11", id)

	// parts without relationships get a new rels part
	id, err = pkg.addRelationship("word/header1.xml", xml.RelTypeImage, "media/a.png")
	require.NoError(t, err)
	assert.Equal(t, "rId1", id)
	assert.True(t, pkg.Has("word/_rels/header1.xml.rels"))

	rels, err := pkg.Relationships("word/header1.xml")
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, "media/a.png", rels[0].Target)
}

func TestPackage_HeaderFooterParts(t *testing.T) {
	data := buildDOCX(t, fixture{
		body:    para("x"),
		headers: map[string]string{"header1.xml": para("h1"), "header2.xml": para("h2")},
		footers: map[string]string{"footer1.xml": para("f")},
	})
	pkg, err := OpenPackage(data)
	require.NoError(t, err)

	// a second reference to header1, an external target and a dangling one
	_, err = pkg.addRelationship("word/document.xml", xml.RelTypeHeader, "header1.xml")
	require.NoError(t, err)
	rels, err := pkg.relationships("word/document.xml")
	require.NoError(t, err)
	ext := rels.Root().CreateElement("Relationship")
	ext.CreateAttr("Id", "rId90")
	ext.CreateAttr("Type", xml.RelTypeFooter)
	ext.CreateAttr("Target", "http://example.com/footer.xml")
	ext.CreateAttr("TargetMode", "External")
	_, err = pkg.addRelationship("word/document.xml", xml.RelTypeFooter, "footer9.xml")
	require.NoError(t, err)

	parts, err := pkg.HeaderFooterParts()
	require.NoError(t, err)

	var names []string
	for _, part := range parts {
		names = append(names, part.Name)
	}
	assert.Equal(t, []string{"word/header1.xml", "word/header2.xml", "word/footer1.xml"}, names)
	assert.Equal(t, xml.PartHeader, parts[0].Kind)
	assert.Equal(t, xml.PartFooter, parts[2].Kind)
}

func TestPackage_AllocateDrawingID(t *testing.T) {
	drawing := func(id string) string {
		return `<w:p><w:r><w:drawing><wp:inline xmlns:wp="` + xml.NamespaceWP + `"><wp:docPr id="` + id + `" name="x"/></wp:inline></w:drawing></w:r></w:p>`
	}
	pkg, err := OpenPackage(buildDOCX(t, fixture{
		body:    drawing("3"),
		footers: map[string]string{"footer1.xml": drawing("12")},
	}))
	require.NoError(t, err)

	first, err := pkg.allocateDrawingID()
	require.NoError(t, err)
	second, err := pkg.allocateDrawingID()
	require.NoError(t, err)

	assert.Equal(t, 13, first)
	assert.Equal(t, 14, second)
}

func TestPackage_UniqueName(t *testing.T) {
	pkg, err := OpenPackage(buildDOCX(t, fixture{
		body:  para("x"),
		extra: map[string]string{"word/media/docmerge_image1.png": "x"},
	}))
	require.NoError(t, err)

	assert.Equal(t, "word/media/docmerge_image2.png", pkg.uniqueName("word/media/docmerge_image", ".png"))
	pkg.addMedia("word/media/docmerge_image2.png", nil)
	assert.Equal(t, "word/media/docmerge_image3.png", pkg.uniqueName("word/media/docmerge_image", ".png"))
}

func TestResolveTarget(t *testing.T) {
	assert.Equal(t, "word/header1.xml", resolveTarget("word/document.xml", "header1.xml"))
	assert.Equal(t, "word/header1.xml", resolveTarget("word/document.xml", "/word/header1.xml"))
	assert.Equal(t, "customXml/item1.xml", resolveTarget("word/document.xml", "../customXml/item1.xml"))
	assert.Equal(t, "word/_rels/document.xml.rels", relsPath("word/document.xml"))
}
