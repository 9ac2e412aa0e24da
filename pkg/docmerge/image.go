package docmerge

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"path"
	"strings"

	"github.com/beevik/etree"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/benjaminschreck/go-docmerge/pkg/docmerge/xml"
)

const emuPerInch = 914400

// mediaTypes maps decoder format names to the extension and content type
// stored in the package
var mediaTypes = map[string]struct{ ext, contentType string }{
	"png":  {"png", "image/png"},
	"jpeg": {"jpeg", "image/jpeg"},
	"gif":  {"gif", "image/gif"},
	"bmp":  {"bmp", "image/bmp"},
	"tiff": {"tiff", "image/tiff"},
}

// embedder stores images in a package and builds the runs displaying them
type embedder struct {
	pkg    *Package
	config *Config
}

// embed adds data as a media part referenced from part and returns a w:r
// holding an inline drawing of it. Bytes that do not decode as an image fail
// with *ImageError.
func (e *embedder) embed(part *xml.Part, name string, data []byte) (*etree.Element, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &ImageError{Name: name, Cause: err}
	}

	if format == "webp" {
		// Word does not display WebP
		if data, err = transcodePNG(data); err != nil {
			return nil, &ImageError{Name: name, Cause: err}
		}
		format = "png"
	}

	media, ok := mediaTypes[format]
	if !ok {
		return nil, &ImageError{Name: name, Cause: fmt.Errorf("unsupported image format %q", format)}
	}

	mediaName := e.pkg.uniqueName("word/media/docmerge_image", "."+media.ext)
	e.pkg.addMedia(mediaName, data)

	if err := e.pkg.ensureDefaultContentType(media.ext, media.contentType); err != nil {
		return nil, err
	}

	relID, err := e.pkg.addRelationship(part.Name, xml.RelTypeImage, relativeTarget(part.Name, mediaName))
	if err != nil {
		return nil, err
	}

	id, err := e.pkg.allocateDrawingID()
	if err != nil {
		return nil, err
	}

	width, height := e.extent(cfg.Width, cfg.Height)

	xml.EnsureDrawingNamespaces(part.Root())
	part.MarkModified()

	return xml.NewDrawingRun(xml.Inline{
		ID:     id,
		Name:   name,
		RelID:  relID,
		Width:  width,
		Height: height,
	}), nil
}

// extent converts pixel dimensions to EMU, scaling down proportionally to the
// configured maximum width
func (e *embedder) extent(widthPx, heightPx int) (int64, int64) {
	dpi := int64(e.config.ImageDPI)
	width := int64(widthPx) * emuPerInch / dpi
	height := int64(heightPx) * emuPerInch / dpi

	if max := e.config.maxImageWidthEMU(); width > max {
		height = height * max / width
		width = max
	}
	return width, height
}

// relativeTarget returns the relationship target of entry as seen from source
func relativeTarget(source, entry string) string {
	dir := path.Dir(source) + "/"
	if strings.HasPrefix(entry, dir) {
		return strings.TrimPrefix(entry, dir)
	}
	return "/" + entry
}

func transcodePNG(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
