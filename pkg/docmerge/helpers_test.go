package docmerge

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/benjaminschreck/go-docmerge/pkg/docmerge/xml"
)

const (
	nsDecl = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" ` +
		`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`
	xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"
)

// fixture describes a minimal DOCX package
type fixture struct {
	// body is the inner XML of w:body
	body string
	// headers and footers map file names under word/ to their inner XML
	headers map[string]string
	footers map[string]string
	// numbering is the full content of word/numbering.xml, omitted when empty
	numbering string
	// extra entries, stored as given
	extra map[string]string
	// noDocument leaves out word/document.xml
	noDocument bool
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// buildDOCX assembles the fixture into DOCX bytes
func buildDOCX(t *testing.T, f fixture) []byte {
	t.Helper()

	var types, rels strings.Builder
	types.WriteString(xmlHeader + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	types.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	types.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	types.WriteString(`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>`)

	rels.WriteString(xmlHeader + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)

	entries := map[string]string{}
	order := []string{"[Content_Types].xml", "_rels/.rels"}

	if !f.noDocument {
		entries["word/document.xml"] = xmlHeader + `<w:document ` + nsDecl + `><w:body>` + f.body + `</w:body></w:document>`
		order = append(order, "word/document.xml", "word/_rels/document.xml.rels")
	}

	n := 10
	addPart := func(name, root, relType, contentType, inner string) {
		entries["word/"+name] = xmlHeader + `<w:` + root + ` ` + nsDecl + `>` + inner + `</w:` + root + `>`
		order = append(order, "word/"+name)
		fmt.Fprintf(&rels, `<Relationship Id="rId%d" Type="%s" Target="%s"/>`, n, relType, name)
		fmt.Fprintf(&types, `<Override PartName="/word/%s" ContentType="%s"/>`, name, contentType)
		n++
	}
	for _, name := range sortedKeys(f.headers) {
		addPart(name, "hdr", xml.RelTypeHeader, "application/vnd.openxmlformats-officedocument.wordprocessingml.header+xml", f.headers[name])
	}
	for _, name := range sortedKeys(f.footers) {
		addPart(name, "ftr", xml.RelTypeFooter, "application/vnd.openxmlformats-officedocument.wordprocessingml.footer+xml", f.footers[name])
	}

	if f.numbering != "" {
		entries["word/numbering.xml"] = f.numbering
		order = append(order, "word/numbering.xml")
		fmt.Fprintf(&rels, `<Relationship Id="rId2" Type="%s" Target="numbering.xml"/>`, xml.RelTypeNumbering)
		fmt.Fprintf(&types, `<Override PartName="/word/numbering.xml" ContentType="%s"/>`, xml.ContentTypeNumbering)
	}

	for _, name := range sortedKeys(f.extra) {
		entries[name] = f.extra[name]
		order = append(order, name)
	}

	types.WriteString(`</Types>`)
	rels.WriteString(`</Relationships>`)
	entries["[Content_Types].xml"] = types.String()
	entries["_rels/.rels"] = xmlHeader + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
		`</Relationships>`
	if !f.noDocument {
		entries["word/_rels/document.xml.rels"] = rels.String()
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range order {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(entries[name]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// writeTemplate stores data as a .docx file in a temporary directory
func writeTemplate(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "template.docx")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// para builds a paragraph with one plain run per text
func para(texts ...string) string {
	var sb strings.Builder
	sb.WriteString(`<w:p>`)
	for _, text := range texts {
		sb.WriteString(`<w:r><w:t xml:space="preserve">` + text + `</w:t></w:r>`)
	}
	sb.WriteString(`</w:p>`)
	return sb.String()
}

// styledPara builds a paragraph with the given w:pPr inner XML and one run
func styledPara(pPr, text string) string {
	return `<w:p><w:pPr>` + pPr + `</w:pPr><w:r><w:t xml:space="preserve">` + text + `</w:t></w:r></w:p>`
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// entries reads every entry of a zip into a map
func entries(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	out := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		content, err := readEntry(f)
		require.NoError(t, err)
		out[f.Name] = content
	}
	return out
}

// parsed returns a parsed part of a merged document
func parsed(t *testing.T, data []byte, name string) *xml.Part {
	t.Helper()
	content, ok := entries(t, data)[name]
	require.True(t, ok, "missing entry %s", name)
	part, err := xml.ParsePart(name, xml.PartOther, content)
	require.NoError(t, err)
	return part
}

// paragraphTexts returns the logical text of each top-level body paragraph
func paragraphTexts(t *testing.T, data []byte) []string {
	t.Helper()
	var texts []string
	for _, p := range parsed(t, data, "word/document.xml").Paragraphs() {
		texts = append(texts, xml.Text(p))
	}
	return texts
}

// mapLoader serves resources from memory
type mapLoader map[string][]byte

func (l mapLoader) Load(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, ok := l[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, os.ErrNotExist)
	}
	return data, nil
}

// stubRenderer returns fixed pages for every PDF
type stubRenderer struct {
	pages [][]byte
	err   error
}

func (r stubRenderer) Render(ctx context.Context, pdf []byte) ([][]byte, error) {
	return r.pages, r.err
}

func testEngine(opts ...Option) *Engine {
	base := []Option{
		WithConfig(DefaultConfig()),
		WithCache(0),
		WithLogger(NewLogger(io.Discard, LogOff)),
		WithLoader(mapLoader{}),
		WithRenderer(stubRenderer{}),
	}
	return NewWithOptions(append(base, opts...)...)
}

func mustMerge(t *testing.T, e *Engine, template []byte, values Values) *Result {
	t.Helper()
	result, err := e.Merge(context.Background(), template, values)
	require.NoError(t, err)
	return result
}

func diagnosticsOf(result *Result, kind DiagnosticKind) []Diagnostic {
	var out []Diagnostic
	for _, d := range result.Diagnostics {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}
