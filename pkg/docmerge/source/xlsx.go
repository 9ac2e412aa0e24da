package source

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/benjaminschreck/go-docmerge/pkg/docmerge"
)

// LoadSpreadsheet reads values from a worksheet of an .xlsx file. An empty
// sheet name selects the first sheet.
func LoadSpreadsheet(path, sheet string) (docmerge.Values, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, docmerge.NewDocumentError("read values", path, err)
	}
	defer f.Close()

	values, err := readSheet(f, sheet)
	if err != nil {
		return nil, docmerge.WithContext(err, "load values", map[string]interface{}{"path": path})
	}
	return values, nil
}

// ReadSpreadsheet is LoadSpreadsheet for a workbook held in memory
func ReadSpreadsheet(r io.Reader, sheet string) (docmerge.Values, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, docmerge.NewDocumentError("read values", "", err)
	}
	defer f.Close()

	return readSheet(f, sheet)
}

// readSheet maps each row to one value. Column A holds the placeholder name.
// A single value cell is converted with FromAny; two or more non-empty cells
// form a bullet list. Rows with an empty name or a name starting with '#' are
// skipped.
func readSheet(f *excelize.File, sheet string) (docmerge.Values, error) {
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", sheet, err)
	}

	errs := docmerge.NewMultiError()
	values := make(docmerge.Values, len(rows))
	rowOf := make(map[string]int, len(rows))

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		name := strings.TrimSpace(row[0])
		if name == "" || strings.HasPrefix(name, "#") {
			continue
		}

		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if !docmerge.ValidName(name) {
			errs.Add(fmt.Errorf("%s: %q is not a placeholder name", cell, name))
			continue
		}
		key := strings.ToLower(name)
		if first, dup := rowOf[key]; dup {
			errs.Add(fmt.Errorf("%s: %s is already defined in row %d", cell, name, first))
			continue
		}
		rowOf[key] = i + 1

		var cells []string
		for _, c := range row[1:] {
			if strings.TrimSpace(c) != "" {
				cells = append(cells, c)
			}
		}

		switch len(cells) {
		case 0:
			values[name] = docmerge.Text("")
		case 1:
			values[name] = docmerge.FromAny(cells[0])
		default:
			values[name] = docmerge.BulletList(cells...)
		}
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}
	return values, nil
}
