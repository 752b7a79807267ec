package excelei

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestCellType_String(t *testing.T) {
	tests := []struct {
		ct   CellType
		want string
	}{
		{CellBlank, "Blank"},
		{CellString, "String"},
		{CellNumber, "Number"},
		{CellBoolean, "Boolean"},
		{CellDate, "Date"},
		{CellError, "Error"},
		{CellMixed, "Mixed"},
		{CellType(99), "Unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.ct.String())
	}
}

func TestCellTypeOf(t *testing.T) {
	assert.Equal(t, CellBlank, CellTypeOf(nil))
	assert.Equal(t, CellString, CellTypeOf("x"))
	assert.Equal(t, CellNumber, CellTypeOf(1.5))
	assert.Equal(t, CellNumber, CellTypeOf(int64(3)))
	assert.Equal(t, CellBoolean, CellTypeOf(true))
	assert.Equal(t, CellDate, CellTypeOf(time.Now()))
	assert.Equal(t, CellError, CellTypeOf(cellError("#DIV/0!")))
}

func TestNewSheetGrid(t *testing.T) {
	g := NewSheetGrid("S", [][]any{
		{"a", "", 1.0},
		{nil},
		{"b", "c", "d", "e"},
	})
	assert.Equal(t, 3, g.RowCount())
	assert.Equal(t, 4, g.ColumnCount())
	assert.Equal(t, "a", g.Cell(0, 0))
	assert.Nil(t, g.Cell(0, 1), "empty text is stored as nil")
	assert.Equal(t, 1.0, g.Cell(0, 2))
	assert.Nil(t, g.Cell(1, 3))
	assert.Nil(t, g.Cell(-1, 0))
	assert.Nil(t, g.Cell(10, 0))
	assert.Equal(t, 4, gridWidth(g))
}

func TestLoadSheetGrid(t *testing.T) {
	when := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)
	f := newWorkbook(t, "Data", [][]any{
		{"Name", "Qty", "Active", "When"},
		{"Ada", 3, true, when},
		{"42", 2.5, false, nil},
	})

	g, err := LoadSheetGrid(reopen(t, f), "Data")
	require.NoError(t, err)
	assert.Equal(t, "Data", g.Sheet)
	assert.Equal(t, 3, g.RowCount())
	assert.Equal(t, 4, g.ColumnCount())

	assert.Equal(t, "Ada", g.Cell(1, 0))
	assert.Equal(t, 3.0, g.Cell(1, 1))
	assert.Equal(t, true, g.Cell(1, 2))
	assert.Equal(t, "42", g.Cell(2, 0), "text that looks numeric stays text")
	assert.Equal(t, 2.5, g.Cell(2, 1))
	assert.Equal(t, false, g.Cell(2, 2))
	assert.Nil(t, g.Cell(2, 3))

	got, err := Convert[time.Time](g.Cell(1, 3))
	require.NoError(t, err)
	assert.Equal(t, when, got)
}

func TestLoadSheetGrid_MissingSheet(t *testing.T) {
	f := newWorkbook(t, "Data", nil)
	_, err := LoadSheetGrid(f, "Nope")
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestTypedCellValue(t *testing.T) {
	assert.Equal(t, cellError("#N/A"), typedCellValue("#N/A", excelize.CellTypeError))
	assert.Equal(t, "7", typedCellValue("7", excelize.CellTypeSharedString))
	assert.Equal(t, 7.0, typedCellValue("7", excelize.CellTypeUnset))
	assert.Equal(t, "abc", typedCellValue("abc", excelize.CellTypeUnset))
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), typedCellValue("2024-05-01T00:00:00Z", excelize.CellTypeDate))
}
