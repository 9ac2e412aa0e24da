package xml

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const document = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:mc="http://schemas.openxmlformats.org/markup-compatibility/2006" mc:Ignorable="w14"><w:body><w:p><w:r><w:t>one</w:t></w:r></w:p><w:tbl><w:tr><w:tc><w:p><w:r><w:t>cell</w:t></w:r></w:p></w:tc></w:tr></w:tbl><w:p><w:r><w:t>two</w:t></w:r></w:p><w:sectPr/></w:body></w:document>`

func TestParsePart(t *testing.T) {
	part, err := ParsePart("word/document.xml", PartBody, []byte(document))
	require.NoError(t, err)

	assert.Equal(t, "document", part.Root().Tag)
	assert.NotNil(t, part.Body())
	assert.False(t, part.Modified())
	assert.Equal(t, "onecelltwo", part.Text())

	var texts []string
	for _, p := range part.Paragraphs() {
		texts = append(texts, Text(p))
	}
	assert.Equal(t, []string{"one", "cell", "two"}, texts)
}

func TestParsePart_Errors(t *testing.T) {
	_, err := ParsePart("word/numbering.xml", PartNumbering, []byte(`<w:numbering><w:num</w:numbering>`))
	assert.Error(t, err)

	_, err = ParsePart("word/numbering.xml", PartNumbering, []byte(`   `))
	assert.Error(t, err)
}

func TestPartBytesRoundTrip(t *testing.T) {
	part, err := ParsePart("word/document.xml", PartBody, []byte(document))
	require.NoError(t, err)

	data, err := part.Bytes()
	require.NoError(t, err)

	out := string(data)
	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`))
	assert.Contains(t, out, `mc:Ignorable="w14"`)
	assert.Contains(t, out, `<w:t>cell</w:t>`)
}

func TestPartContains(t *testing.T) {
	part, err := ParsePart("word/document.xml", PartBody, []byte(document))
	require.NoError(t, err)

	paragraphs := part.Paragraphs()
	tbl := part.Body().SelectElement("w:tbl")
	require.True(t, part.Contains(paragraphs[1]))

	Remove(tbl)
	assert.False(t, part.Contains(paragraphs[1]), "nested paragraph leaves with its table")
	assert.True(t, part.Contains(paragraphs[0]))

	part.MarkModified()
	assert.True(t, part.Modified())
}

func TestPartKindString(t *testing.T) {
	assert.Equal(t, "header", PartHeader.String())
	assert.Equal(t, "numbering", PartNumbering.String())
	assert.Equal(t, "other", PartOther.String())
}

func TestDrawingRun(t *testing.T) {
	r := NewDrawingRun(Inline{ID: 4, Name: "logo", RelID: "rId9", Width: 952500, Height: 476250})

	inline := r.FindElement("./w:drawing/wp:inline")
	require.NotNil(t, inline)
	extent := inline.SelectElement("wp:extent")
	assert.Equal(t, "952500", extent.SelectAttrValue("cx", ""))
	assert.Equal(t, "476250", extent.SelectAttrValue("cy", ""))

	docPr := inline.SelectElement("wp:docPr")
	assert.Equal(t, "4", docPr.SelectAttrValue("id", ""))
	assert.Equal(t, "logo", docPr.SelectAttrValue("name", ""))

	blip := r.FindElement(".//a:blip")
	require.NotNil(t, blip)
	assert.Equal(t, "rId9", blip.SelectAttrValue("r:embed", ""))

	assert.Equal(t, []int{4}, DrawingIDs(r))
}

func TestEnsureDrawingNamespaces(t *testing.T) {
	part, err := ParsePart("word/document.xml", PartBody, []byte(document))
	require.NoError(t, err)

	EnsureDrawingNamespaces(part.Root())
	EnsureDrawingNamespaces(part.Root())

	declared := map[string]int{}
	for _, a := range part.Root().Attr {
		if a.Space == "xmlns" {
			declared[a.Key]++
		}
	}
	for _, prefix := range []string{"w", "r", "wp", "a", "pic"} {
		assert.Equal(t, 1, declared[prefix], prefix)
	}
	assert.Equal(t, NamespaceWP, part.Root().SelectAttrValue("xmlns:wp", ""))
}
