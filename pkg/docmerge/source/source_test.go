package source

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/benjaminschreck/go-docmerge/pkg/docmerge"
)

func TestParseYAML(t *testing.T) {
	values, err := ParseYAML([]byte(`
client: Acme Ltd
invoice_total: 1250.5
logo: assets/logo.png
drawings: assets/drawings.pdf
findings:
  - Cracked bearing
  - ""
  - Worn joint
notes:
`))
	require.NoError(t, err)

	assert.Equal(t, docmerge.Text("Acme Ltd"), values["client"])
	assert.Equal(t, "1250.5", values["invoice_total"].String())
	assert.Equal(t, docmerge.KindImagePath, values["logo"].Kind())
	assert.Equal(t, docmerge.KindPDFPath, values["drawings"].Kind())
	assert.Equal(t, []string{"Cracked bearing", "Worn joint"}, values["findings"].Items())
	assert.Equal(t, docmerge.Text(""), values["notes"])
}

func TestParseYAML_Errors(t *testing.T) {
	_, err := ParseYAML([]byte("client: [unclosed"))
	assert.Error(t, err)

	_, err = ParseYAML([]byte("bad name: x\naddress:\n  street: Main\nok: fine\n"))
	require.Error(t, err)
	var multi *docmerge.MultiError
	require.True(t, errors.As(err, &multi))
	assert.Equal(t, 2, multi.Len())
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "values.yaml")
	require.NoError(t, os.WriteFile(path, []byte("client: Acme\n"), 0o644))

	values, err := LoadYAML(path)
	require.NoError(t, err)
	assert.Equal(t, "Acme", values["client"].String())

	_, err = LoadYAML(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.True(t, docmerge.IsDocumentError(err))
}

func writeWorkbook(t *testing.T, sheet string, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "values.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoadSpreadsheet(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]interface{}{
		{"client", "Acme Ltd"},
		{"# comment", "ignored"},
		{},
		{"units", 12},
		{"photo", "site/photo.jpg"},
		{"findings", "Cracked bearing", "", "Worn joint"},
		{"empty"},
	})

	values, err := LoadSpreadsheet(path, "")
	require.NoError(t, err)

	assert.Len(t, values, 5)
	assert.Equal(t, "Acme Ltd", values["client"].String())
	assert.Equal(t, "12", values["units"].String())
	assert.Equal(t, docmerge.KindImagePath, values["photo"].Kind())
	assert.Equal(t, []string{"Cracked bearing", "Worn joint"}, values["findings"].Items())
	assert.Equal(t, docmerge.Text(""), values["empty"])
}

func TestLoadSpreadsheet_NamedSheet(t *testing.T) {
	path := writeWorkbook(t, "Report", [][]interface{}{{"client", "Acme"}})

	values, err := LoadSpreadsheet(path, "Report")
	require.NoError(t, err)
	assert.Equal(t, "Acme", values["client"].String())

	_, err = LoadSpreadsheet(path, "Missing")
	assert.Error(t, err)
}

func TestLoadSpreadsheet_Errors(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]interface{}{
		{"client", "Acme"},
		{"Client", "Again"},
		{"total due", "5"},
	})

	_, err := LoadSpreadsheet(path, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "A2: Client is already defined in row 1")
	assert.Contains(t, err.Error(), `A3: "total due" is not a placeholder name`)

	_, err = LoadSpreadsheet(filepath.Join(t.TempDir(), "absent.xlsx"), "")
	assert.True(t, docmerge.IsDocumentError(err))
}

func TestReadSpreadsheet(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]interface{}{{"client", "Acme"}})
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	values, err := ReadSpreadsheet(file, "Sheet1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", values["client"].String())
}
