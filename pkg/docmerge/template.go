package docmerge

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/benjaminschreck/go-docmerge/pkg/docmerge/xml"
)

// PreparedTemplate is a validated template ready for merging. It keeps the
// template bytes immutable; every Merge works on its own copy, so a
// PreparedTemplate may be merged from several goroutines at once.
type PreparedTemplate struct {
	source   []byte
	config   *Config
	loader   ResourceLoader
	renderer PDFRenderer
	logger   *Logger

	mu     sync.Mutex
	closed bool
}

// Result is the outcome of a successful merge
type Result struct {
	// ID identifies the merge in log output
	ID          string
	Bytes       []byte
	Diagnostics []Diagnostic
}

// WriteTo writes the merged document to w
func (r *Result) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.Bytes)
	return int64(n), err
}

func (e *Engine) prepare(r io.Reader) (*PreparedTemplate, error) {
	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, NewDocumentError("read", "", err)
	}
	source := buf.Bytes()

	pkg, err := OpenPackage(source)
	if err != nil {
		return nil, err
	}
	if _, err := pkg.MainDocument(); err != nil {
		return nil, err
	}

	return &PreparedTemplate{
		source:   source,
		config:   NewConfigWithDefaults(e.config),
		loader:   e.loader,
		renderer: e.renderer,
		logger:   e.logger,
	}, nil
}

// Merge resolves values and substitutes them into a copy of the template.
// Missing values and unreadable resources are reported in the result's
// diagnostics; only structural problems, undecodable images and
// cancellation fail the merge.
func (pt *PreparedTemplate) Merge(ctx context.Context, values Values) (result *Result, err error) {
	pt.mu.Lock()
	closed := pt.closed
	pt.mu.Unlock()
	if closed {
		return nil, ErrTemplateClosed
	}

	id := uuid.NewString()
	logger := pt.log().WithField("merge_id", id)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = RecoverError(r)
			logger.Error("merge aborted: %v", err)
		}
	}()

	diag := newDiagnostics(logger)

	res := &resolver{
		loader:      pt.loader,
		renderer:    pt.renderer,
		concurrency: pt.config.ResolveConcurrency,
		diag:        diag,
		logger:      logger,
	}
	subs, err := res.resolve(ctx, values)
	if err != nil {
		return nil, err
	}

	pkg, err := OpenPackage(pt.source)
	if err != nil {
		return nil, err
	}

	m := newMerger(pkg, pt.config, subs, diag, logger)
	if err := m.run(ctx); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Debug("rewriting parts %v", pkg.modifiedParts())

	data, err := pkg.Bytes()
	if err != nil {
		return nil, err
	}
	data, err = applySafetyNet(data, subs)
	if err != nil {
		return nil, err
	}

	diagnostics := diag.all()
	logger.WithFields(Fields{
		"duration":    time.Since(start).String(),
		"diagnostics": len(diagnostics),
		"values":      len(values),
	}).Info("merge complete")

	return &Result{ID: id, Bytes: data, Diagnostics: diagnostics}, nil
}

// Placeholders returns the distinct placeholder names found in the body,
// headers and footers, in order of first appearance
func (pt *PreparedTemplate) Placeholders() ([]string, error) {
	pkg, err := OpenPackage(pt.source)
	if err != nil {
		return nil, err
	}

	main, err := pkg.MainDocument()
	if err != nil {
		return nil, err
	}
	others, err := pkg.HeaderFooterParts()
	if err != nil {
		return nil, err
	}

	var names []string
	seen := make(map[string]bool)
	for _, part := range append([]*xml.Part{main}, others...) {
		for _, p := range part.Paragraphs() {
			names = appendNames(names, seen, xml.Text(p))
		}
	}
	return names, nil
}

func (pt *PreparedTemplate) log() *Logger {
	if pt.logger != nil {
		return pt.logger
	}
	return GetLogger()
}

// Close marks the template as closed. Further merges fail.
func (pt *PreparedTemplate) Close() error {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	pt.closed = true
	return nil
}
