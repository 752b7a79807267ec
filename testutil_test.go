package excelei

import (
	"bytes"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type testAddress struct {
	City string
	Zip  *string
}

type testAudit struct {
	CreatedBy string
}

type testPerson struct {
	testAudit
	ID      int
	Name    string
	Born    time.Time
	Score   float64
	Address *testAddress
	Tags    []string
	secret  string
}

func (p testPerson) Display() string { return p.Name + "#" + strconv.Itoa(p.ID) }

func (p *testPerson) Initials() string {
	if p.Name == "" {
		return ""
	}
	return p.Name[:1]
}

func (p testPerson) Lookup(key string) string { return key }

func (p testPerson) Pair() (int, string) { return p.ID, p.Name }

func samplePeople() []testPerson {
	return []testPerson{
		{ID: 1, Name: "Ada", Score: 9.5, Tags: []string{"math", "code"}, Address: &testAddress{City: "London"}},
		{ID: 2, Name: "Grace", Score: 8.25, Tags: []string{"navy"}},
		{ID: 3, Name: "Linus", Score: 7},
	}
}

// testFilePath returns a path for a workbook in a per-test temporary directory.
func testFilePath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name)
}

// newWorkbook builds an in-memory workbook whose first sheet, named sheet,
// holds rows starting at A1. Nil values leave the cell empty.
func newWorkbook(t *testing.T, sheet string, rows [][]any) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	t.Cleanup(func() { f.Close() })
	if sheet != "Sheet1" {
		require.NoError(t, f.SetSheetName("Sheet1", sheet))
	}
	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}
	return f
}

// reopen writes f to memory and opens it again, the way a reader sees a saved file.
func reopen(t *testing.T, f *excelize.File) *excelize.File {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	out, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	t.Cleanup(func() { out.Close() })
	return out
}

func boolPtr(b bool) *bool { return &b }

func intPtr(n int) *int { return &n }
