package docmerge

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValueKind identifies which variant a Value holds
type ValueKind int

const (
	KindText ValueKind = iota
	KindImage
	KindImagePath
	KindPDFPath
	KindBulletList
)

func (k ValueKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindImage:
		return "image"
	case KindImagePath:
		return "image_path"
	case KindPDFPath:
		return "pdf_path"
	case KindBulletList:
		return "bullet_list"
	default:
		return "unknown"
	}
}

// Value is a caller-supplied value for one placeholder. Construct it with
// Text, Image, ImagePath, PDFPath, BulletList or FromAny.
type Value struct {
	kind  ValueKind
	text  string
	data  []byte
	items []string
}

// Values maps placeholder names to values. Lookups ignore case.
type Values map[string]Value

// Text is a scalar value
func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// Image is an image supplied as encoded bytes
func Image(data []byte) Value {
	return Value{kind: KindImage, data: data}
}

// ImagePath is an image read through the ResourceLoader at merge time
func ImagePath(path string) Value {
	return Value{kind: KindImagePath, text: path}
}

// PDFPath is a PDF read through the ResourceLoader and rendered page by page
func PDFPath(path string) Value {
	return Value{kind: KindPDFPath, text: path}
}

// BulletList is an ordered list. Blank items are dropped.
func BulletList(items ...string) Value {
	kept := make([]string, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item) != "" {
			kept = append(kept, item)
		}
	}
	return Value{kind: KindBulletList, items: kept}
}

// Kind returns the variant held by v
func (v Value) Kind() ValueKind { return v.kind }

// String returns the text of a Text value or the path of a path value
func (v Value) String() string { return v.text }

// Bytes returns the data of an Image value
func (v Value) Bytes() []byte { return v.data }

// Items returns the items of a BulletList value
func (v Value) Items() []string { return v.items }

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".gif":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// FromAny converts a loosely typed input into a Value. Byte slices are
// images; strings naming an image or PDF file become path values; string
// sequences become bullet lists; anything else is formatted as text.
func FromAny(raw interface{}) Value {
	switch v := raw.(type) {
	case nil:
		return Text("")
	case Value:
		return v
	case []byte:
		return Image(v)
	case string:
		ext := strings.ToLower(filepath.Ext(v))
		switch {
		case imageExtensions[ext]:
			return ImagePath(v)
		case ext == ".pdf":
			return PDFPath(v)
		default:
			return Text(v)
		}
	case []string:
		return BulletList(v...)
	case []interface{}:
		items := make([]string, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			items = append(items, fmt.Sprint(item))
		}
		return BulletList(items...)
	case fmt.Stringer:
		return Text(v.String())
	default:
		return Text(fmt.Sprint(v))
	}
}

// ValuesFromMap converts every entry with FromAny
func ValuesFromMap(raw map[string]interface{}) Values {
	values := make(Values, len(raw))
	for name, v := range raw {
		values[name] = FromAny(v)
	}
	return values
}

// SubstitutionKind is the classified form of a value
type SubstitutionKind int

const (
	SubstScalar SubstitutionKind = iota
	SubstInlineImage
	SubstPagedImage
	SubstBulletList
)

func (k SubstitutionKind) String() string {
	switch k {
	case SubstScalar:
		return "scalar"
	case SubstInlineImage:
		return "inline_image"
	case SubstPagedImage:
		return "paged_image"
	case SubstBulletList:
		return "bullet_list"
	default:
		return "unknown"
	}
}

// Substitution is what the engine writes in place of a placeholder
type Substitution struct {
	Kind SubstitutionKind
	// Text is the scalar replacement, including resource markers
	Text string
	// Missing is set for scalars that are absent or blank
	Missing bool
	Image   []byte
	Pages   [][]byte
	Items   []string
}

// Substitutions holds the classified values of one merge, keyed by folded name
type Substitutions map[string]Substitution

// classify returns the substitution for a placeholder name. Absent names are
// missing scalars.
func (s Substitutions) classify(name string) Substitution {
	sub, ok := s[foldName(name)]
	if !ok {
		return Substitution{Kind: SubstScalar, Missing: true}
	}
	return sub
}

func (s Substitutions) has(name string, kind SubstitutionKind) bool {
	sub, ok := s[foldName(name)]
	return ok && sub.Kind == kind
}

func scalar(text string) Substitution {
	return Substitution{
		Kind:    SubstScalar,
		Text:    text,
		Missing: strings.TrimSpace(text) == "",
	}
}

// Markers written in place of resources that could not be used
func imageNotFoundMarker(name string) string {
	return "[[IMAGE_NOT_FOUND::" + name + "]]"
}

func pdfNotFoundMarker(name string) string {
	return "[[PDF_NOT_FOUND::" + name + "]]"
}

func pdfConversionFailedMarker(name string) string {
	return "[[PDF_CONVERSION_FAILED::" + name + "]]"
}

// missingMarker is the visible text for a scalar without a value
func missingMarker(name string) string {
	return "<<" + name + ">>"
}
