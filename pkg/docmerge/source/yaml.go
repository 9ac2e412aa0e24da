// Package source reads merge values from YAML documents and spreadsheets.
//
// Both formats map placeholder names to raw values that are converted with
// docmerge.FromAny, so a cell or scalar naming an image or PDF file becomes a
// path value and a sequence becomes a bullet list. Relative paths are left as
// written; resolve them with a docmerge.FileLoader rooted at the values file's
// directory.
package source

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/benjaminschreck/go-docmerge/pkg/docmerge"
)

// LoadYAML reads a YAML mapping of placeholder names to values
func LoadYAML(path string) (docmerge.Values, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, docmerge.NewDocumentError("read values", path, err)
	}

	values, err := ParseYAML(data)
	if err != nil {
		return nil, docmerge.WithContext(err, "load values", map[string]interface{}{"path": path})
	}
	return values, nil
}

// ParseYAML decodes a YAML mapping of placeholder names to values. Every
// invalid entry is reported, not just the first.
func ParseYAML(data []byte) (docmerge.Values, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	errs := docmerge.NewMultiError()
	values := make(docmerge.Values, len(raw))
	for name, v := range raw {
		if !docmerge.ValidName(name) {
			errs.Add(fmt.Errorf("%q is not a placeholder name", name))
			continue
		}
		if _, nested := v.(map[string]interface{}); nested {
			errs.Add(fmt.Errorf("%s: nested mappings are not supported", name))
			continue
		}
		values[name] = docmerge.FromAny(v)
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}
	return values, nil
}
