package docmerge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"
)

// ResourceLoader reads the bytes behind ImagePath and PDFPath values
type ResourceLoader interface {
	Load(ctx context.Context, path string) ([]byte, error)
}

// PDFRenderer turns a PDF into one encoded image per page
type PDFRenderer interface {
	Render(ctx context.Context, pdf []byte) ([][]byte, error)
}

// FileLoader reads resources from the local filesystem. Relative paths are
// resolved against Root when it is set.
type FileLoader struct {
	Root string
}

func (l FileLoader) Load(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.Root != "" && !filepath.IsAbs(path) {
		path = filepath.Join(l.Root, path)
	}
	return os.ReadFile(path)
}

// resolver classifies a merge's values, reading and rendering external
// resources concurrently
type resolver struct {
	loader      ResourceLoader
	renderer    PDFRenderer
	concurrency int
	diag        *diagnostics
	logger      *Logger
}

type resolvedValue struct {
	name  string
	value Value
	sub   Substitution
	// diagnostic to report once all workers are done
	diagKind DiagnosticKind
	diagMsg  string
}

// resolve returns one substitution per folded name. Missing or unusable
// resources become marker scalars; only cancellation is an error.
func (r *resolver) resolve(ctx context.Context, values Values) (Substitutions, error) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	slots := make([]resolvedValue, len(names))
	for i, name := range names {
		slots[i] = resolvedValue{name: name, value: values[name]}
	}

	limit := r.concurrency
	if limit < 1 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i := range slots {
		slot := &slots[i]
		switch slot.value.Kind() {
		case KindText:
			slot.sub = scalar(slot.value.String())
		case KindImage:
			slot.sub = Substitution{Kind: SubstInlineImage, Image: slot.value.Bytes()}
		case KindBulletList:
			slot.sub = Substitution{Kind: SubstBulletList, Items: slot.value.Items()}
		case KindImagePath:
			g.Go(func() error {
				return r.resolveImage(gctx, slot)
			})
		case KindPDFPath:
			g.Go(func() error {
				return r.resolvePDF(gctx, slot)
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	subs := make(Substitutions, len(slots))
	owners := make(map[string]string, len(slots))
	for _, slot := range slots {
		if slot.diagKind != "" {
			r.diag.add(slot.diagKind, slot.name, "", "%s", slot.diagMsg)
		}

		key := foldName(slot.name)
		if prev, ok := owners[key]; ok {
			r.diag.add(DiagDuplicateName, slot.name, "",
				"value %q replaces %q, names are matched without regard to case", slot.name, prev)
		}
		owners[key] = slot.name
		subs[key] = slot.sub
	}

	return subs, nil
}

func (r *resolver) resolveImage(ctx context.Context, slot *resolvedValue) error {
	path := slot.value.String()
	data, err := r.loader.Load(ctx, path)
	if err != nil {
		if isCancellation(ctx, err) {
			return err
		}
		slot.sub = scalar(imageNotFoundMarker(slot.name))
		slot.diagKind = DiagResourceNotFound
		slot.diagMsg = "image " + path + ": " + err.Error()
		return nil
	}

	slot.sub = Substitution{Kind: SubstInlineImage, Image: data}
	return nil
}

func (r *resolver) resolvePDF(ctx context.Context, slot *resolvedValue) error {
	path := slot.value.String()
	data, err := r.loader.Load(ctx, path)
	if err != nil {
		if isCancellation(ctx, err) {
			return err
		}
		slot.sub = scalar(pdfNotFoundMarker(slot.name))
		slot.diagKind = DiagResourceNotFound
		slot.diagMsg = "pdf " + path + ": " + err.Error()
		return nil
	}

	pages, err := r.renderer.Render(ctx, data)
	if err != nil && isCancellation(ctx, err) {
		return err
	}
	if err != nil || len(pages) == 0 {
		slot.sub = scalar(pdfConversionFailedMarker(slot.name))
		slot.diagKind = DiagConversionFailed
		if err != nil {
			slot.diagMsg = "pdf " + path + ": " + err.Error()
		} else {
			slot.diagMsg = "pdf " + path + " has no pages"
		}
		return nil
	}

	r.logger.Debug("rendered %d pages from %s", len(pages), path)
	slot.sub = Substitution{Kind: SubstPagedImage, Pages: pages}
	return nil
}

func isCancellation(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
