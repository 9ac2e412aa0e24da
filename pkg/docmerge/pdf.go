package docmerge

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/image/draw"
)

// PopplerRenderer rasterizes PDFs with poppler's pdftoppm. Pages wider than
// MaxWidth are downscaled and every page is re-encoded as JPEG.
type PopplerRenderer struct {
	Path     string
	DPI      int
	MaxWidth int
	Quality  int
	// TempDir holds the per-render working directory; empty means os.TempDir
	TempDir string
}

// NewPopplerRenderer creates a renderer from the PDF settings of config
func NewPopplerRenderer(config *Config) *PopplerRenderer {
	return &PopplerRenderer{
		Path:     config.PdftoppmPath,
		DPI:      config.PDFRenderDPI,
		MaxWidth: config.PDFMaxPageWidth,
		Quality:  config.PDFJPEGQuality,
	}
}

func (p *PopplerRenderer) Render(ctx context.Context, pdf []byte) ([][]byte, error) {
	dir, err := os.MkdirTemp(p.TempDir, "docmerge-pdf-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "input.pdf")
	if err := os.WriteFile(input, pdf, 0o600); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, p.Path, "-png", "-r", strconv.Itoa(p.DPI), input, filepath.Join(dir, "page"))
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s: %w: %s", p.Path, err, strings.TrimSpace(string(out)))
	}

	// pdftoppm zero-pads page numbers to a common width, so names sort by page
	files, err := filepath.Glob(filepath.Join(dir, "page-*.png"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	pages := make([][]byte, 0, len(files))
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", filepath.Base(file), err)
		}

		page, err := encodePage(img, p.MaxWidth, p.Quality)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}

	return pages, nil
}

// encodePage flattens img onto white, shrinks it to at most maxWidth pixels
// wide and encodes it as JPEG
func encodePage(img image.Image, maxWidth, quality int) ([]byte, error) {
	src := img.Bounds()
	w, h := src.Dx(), src.Dy()
	if maxWidth > 0 && w > maxWidth {
		h = h * maxWidth / w
		w = maxWidth
	}
	if h < 1 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	if w == src.Dx() && h == src.Dy() {
		draw.Draw(dst, dst.Bounds(), img, src.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, src, draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
