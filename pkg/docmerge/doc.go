// Package docmerge merges values into Microsoft Word (DOCX) templates.
//
// A template is an ordinary DOCX file containing {{placeholder}} tokens. Word
// frequently splits a token across several formatting runs; docmerge rebuilds
// each paragraph's text, finds the tokens and writes the replacement back into
// the runs that held them, so the surrounding formatting is kept.
//
// # Quick Start
//
//	template, err := os.ReadFile("report.docx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	values := docmerge.Values{
//	    "client":   docmerge.Text("Acme Ltd"),
//	    "logo":     docmerge.ImagePath("assets/logo.png"),
//	    "drawings": docmerge.PDFPath("assets/drawings.pdf"),
//	    "findings": docmerge.BulletList("Cracked bearing", "Worn joint"),
//	}
//
//	result, err := docmerge.Merge(context.Background(), template, values)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, d := range result.Diagnostics {
//	    log.Println(d)
//	}
//	os.WriteFile("out.docx", result.Bytes, 0644)
//
// # Values
//
// Each placeholder name maps to exactly one kind of value. Names are matched
// without regard to case.
//
//	Text        - replaces the token in place
//	Image       - an inline picture on its own paragraph
//	ImagePath   - as Image, read through the engine's ResourceLoader
//	PDFPath     - every page rendered as a picture on its own page
//	BulletList  - the token's paragraph becomes one list item per entry
//
// FromAny and ValuesFromMap build values from loosely typed input such as
// decoded YAML: byte slices are images, strings ending in an image or .pdf
// extension are paths, string sequences are lists and anything else is text.
//
// A placeholder without a value is written as <<name>> in bold red on a
// yellow highlight. An image or PDF that cannot be read is written as a
// marker such as [[IMAGE_NOT_FOUND::name]]. Neither stops the merge; both are
// listed in Result.Diagnostics.
//
// # Limitations
//
// Paragraph text is read from the paragraph's direct runs, one w:t per run.
// Tokens inside a hyperlink, a tracked insertion (w:ins), a smart tag or a
// content control are not seen by the paragraph pass, so images, PDFs and
// lists placed there stay literal. Text values still reach them: a final
// pass over the package's raw XML replaces every remaining {{name}} that has
// a text value and is written unbroken in the markup, including tokens in
// attributes such as field instructions.
//
// # Architecture
//
// The package is organized into several sub-packages:
//
//   - xml: WordprocessingML part model over etree (parts, paragraphs, runs, drawings)
//   - render: the run-text index that maps paragraph text offsets back onto runs
//   - source: value loaders for YAML documents and spreadsheets
//   - store: where merged documents are written
//
// The main package provides:
//   - Template preparation and merging (Prepare, PrepareFile, Merge, Placeholders)
//   - The value model and its classification
//   - Image embedding, list and page-image expansion, numbering definitions
//   - Configuration, logging, caching and error types
//
// # Concurrency
//
// A PreparedTemplate is immutable and may be merged from several goroutines.
// Within one merge, image files are read and PDFs rendered in parallel, bounded
// by Config.ResolveConcurrency.
package docmerge
