package excelei

import (
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
)

// CellGrid is a rectangular source of cell values addressed by 0-based row and
// column. Cells outside the populated range are nil.
type CellGrid interface {
	Cell(row, col int) any
	RowCount() int
}

// CellType represents the type of data in a cell.
type CellType int

const (
	CellBlank CellType = iota
	CellString
	CellNumber
	CellBoolean
	CellDate
	CellError
	// CellMixed marks a column whose cells have more than one non-blank type.
	CellMixed
)

// String returns a human-readable name for the CellType.
func (ct CellType) String() string {
	switch ct {
	case CellBlank:
		return "Blank"
	case CellString:
		return "String"
	case CellNumber:
		return "Number"
	case CellBoolean:
		return "Boolean"
	case CellDate:
		return "Date"
	case CellError:
		return "Error"
	case CellMixed:
		return "Mixed"
	default:
		return "Unknown"
	}
}

// CellTypeOf classifies a grid value.
func CellTypeOf(v any) CellType {
	switch v.(type) {
	case nil:
		return CellBlank
	case string:
		return CellString
	case bool:
		return CellBoolean
	case time.Time:
		return CellDate
	case cellError:
		return CellError
	}
	return CellNumber
}

// cellError is the text of an error cell such as "#DIV/0!".
type cellError string

func (e cellError) String() string { return string(e) }

// SheetGrid is a worksheet loaded into memory. Numbers are float64, booleans
// bool, ISO 8601 date cells time.Time, text string and empty cells nil. Date
// cells stored as serial numbers stay float64; Convert turns them into
// time.Time on demand.
type SheetGrid struct {
	Sheet string
	rows  [][]any
	width int
}

// LoadSheetGrid reads every populated cell of sheet.
func LoadSheetGrid(f *excelize.File, sheet string) (*SheetGrid, error) {
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, configErrorf("sheet %q not found", sheet)
	}
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read rows from sheet %q: %w", sheet, err)
	}
	g := &SheetGrid{Sheet: sheet, rows: make([][]any, len(raw))}
	for r, row := range raw {
		values := make([]any, len(row))
		for c, text := range row {
			if text == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			ct, err := f.GetCellType(sheet, cell)
			if err != nil {
				return nil, fmt.Errorf("read cell %s!%s: %w", sheet, cell, err)
			}
			values[c] = typedCellValue(text, ct)
		}
		g.rows[r] = values
		g.width = max(g.width, len(values))
	}
	return g, nil
}

func typedCellValue(text string, ct excelize.CellType) any {
	switch ct {
	case excelize.CellTypeBool:
		return text == "1" || text == "TRUE" || text == "true"
	case excelize.CellTypeDate:
		if t, err := parseTime(text); err == nil {
			return t
		}
		return text
	case excelize.CellTypeError:
		return cellError(text)
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula:
		return text
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return f
	}
	return text
}

// NewSheetGrid builds a grid from in-memory rows, mainly for tests and
// adapters. Empty strings are stored as nil.
func NewSheetGrid(sheet string, rows [][]any) *SheetGrid {
	g := &SheetGrid{Sheet: sheet, rows: make([][]any, len(rows))}
	for r, row := range rows {
		values := make([]any, len(row))
		for c, v := range row {
			if s, ok := v.(string); ok && s == "" {
				continue
			}
			values[c] = nilIfEmpty(v)
		}
		g.rows[r] = values
		g.width = max(g.width, len(values))
	}
	return g
}

// Cell implements CellGrid.
func (g *SheetGrid) Cell(row, col int) any {
	if row < 0 || row >= len(g.rows) || col < 0 || col >= len(g.rows[row]) {
		return nil
	}
	return g.rows[row][col]
}

// RowCount implements CellGrid.
func (g *SheetGrid) RowCount() int { return len(g.rows) }

// ColumnCount returns the width of the widest row.
func (g *SheetGrid) ColumnCount() int { return g.width }

// gridWidth bounds column scans for grids that know their width.
func gridWidth(g CellGrid) int {
	if w, ok := g.(interface{ ColumnCount() int }); ok {
		return min(w.ColumnCount(), MaxSheetColumns)
	}
	return MaxSheetColumns
}
