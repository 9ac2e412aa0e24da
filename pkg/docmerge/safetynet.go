package docmerge

import (
	"archive/zip"
	"bytes"
	stdxml "encoding/xml"
	"io"
	"strings"
)

// applySafetyNet replaces literal scalar placeholders left anywhere in the
// package's XML entries, e.g. in markup outside paragraph runs. Values are
// XML-escaped. Entries without replacements are copied unchanged.
func applySafetyNet(data []byte, subs Substitutions) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, NewDocumentError("safety net", "", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, f := range zr.File {
		if !strings.HasSuffix(strings.ToLower(f.Name), ".xml") {
			if err := zw.Copy(f); err != nil {
				return nil, NewDocumentError("safety net", f.Name, err)
			}
			continue
		}

		content, err := readEntry(f)
		if err != nil {
			return nil, NewDocumentError("safety net", f.Name, err)
		}

		replaced := replaceScalarTokens(content, subs)
		if bytes.Equal(replaced, content) {
			if err := zw.Copy(f); err != nil {
				return nil, NewDocumentError("safety net", f.Name, err)
			}
			continue
		}

		if err := writeEntry(zw, f.Name, f.Modified, replaced); err != nil {
			return nil, NewDocumentError("safety net", f.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, NewDocumentError("safety net", "", err)
	}
	return buf.Bytes(), nil
}

// replaceScalarTokens rewrites every {{name}} in raw XML whose name has a
// scalar substitution. Other tokens are left as they are.
func replaceScalarTokens(content []byte, subs Substitutions) []byte {
	return tokenPattern.ReplaceAllFunc(content, func(tok []byte) []byte {
		name := string(tok[2 : len(tok)-2])
		sub, ok := subs[foldName(name)]
		if !ok || sub.Kind != SubstScalar {
			return tok
		}

		var escaped bytes.Buffer
		// writes to a bytes.Buffer do not fail
		_ = stdxml.EscapeText(&escaped, []byte(sub.Text))
		return escaped.Bytes()
	})
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
