package docmerge

import (
	"fmt"
	"sync"
)

// DiagnosticKind classifies a non-fatal merge finding
type DiagnosticKind string

const (
	// DiagMissingValue: a placeholder had no value and was rendered as <<name>>
	DiagMissingValue DiagnosticKind = "missing_value"
	// DiagDiscardedTokens: a paragraph expanded into a list or page images
	// contained other placeholders that were dropped with it
	DiagDiscardedTokens DiagnosticKind = "discarded_tokens"
	// DiagResourceNotFound: an image or PDF path could not be read
	DiagResourceNotFound DiagnosticKind = "resource_not_found"
	// DiagConversionFailed: a PDF produced no page images
	DiagConversionFailed DiagnosticKind = "pdf_conversion_failed"
	// DiagDuplicateImage: an inline image placeholder occurred more than once
	DiagDuplicateImage DiagnosticKind = "duplicate_image"
	// DiagDuplicateName: two values differ only in the case of their names
	DiagDuplicateName DiagnosticKind = "duplicate_name"
)

// Diagnostic describes something the caller may want to fix in the template
// or the data. Diagnostics never stop a merge.
type Diagnostic struct {
	Kind DiagnosticKind
	// Name is the placeholder name as written in the template or values
	Name string
	// Part is the package part the finding was made in, if any
	Part    string
	Message string
}

func (d Diagnostic) String() string {
	if d.Part != "" {
		return fmt.Sprintf("%s %s in %s: %s", d.Kind, d.Name, d.Part, d.Message)
	}
	return fmt.Sprintf("%s %s: %s", d.Kind, d.Name, d.Message)
}

// diagnostics accumulates findings for one merge and logs each at warn level
type diagnostics struct {
	mu     sync.Mutex
	list   []Diagnostic
	logger *Logger
}

func newDiagnostics(logger *Logger) *diagnostics {
	return &diagnostics{logger: logger}
}

func (d *diagnostics) add(kind DiagnosticKind, name, part, format string, args ...interface{}) {
	diag := Diagnostic{
		Kind:    kind,
		Name:    name,
		Part:    part,
		Message: fmt.Sprintf(format, args...),
	}

	d.mu.Lock()
	d.list = append(d.list, diag)
	d.mu.Unlock()

	d.logger.WithFields(Fields{
		"kind":        string(kind),
		"placeholder": name,
		"part":        part,
	}).Warn("%s", diag.Message)
}

func (d *diagnostics) all() []Diagnostic {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Diagnostic, len(d.list))
	copy(out, d.list)
	return out
}
