package excelei

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ReadContiguousExcelTableWithHeader loads sheet and locates the table whose
// header is on headerRow. headerRow is 1-based as shown in the spreadsheet.
func ReadContiguousExcelTableWithHeader(f *excelize.File, sheet string, headerRow int, opts ...ReadOption) (*TableReader, error) {
	if headerRow < 1 {
		return nil, configErrorf("header row %d: rows are numbered from 1", headerRow)
	}
	grid, err := LoadSheetGrid(f, sheet)
	if err != nil {
		return nil, err
	}
	return ReadContiguousTableWithHeader(grid, headerRow-1, opts...)
}

// ReadArbitraryExcelTable reads rows firstRow..lastRow (1-based, inclusive) of
// sheet. columns maps column names to column letters such as "A" or "AB". A
// lastRow below 1 scans for the end of the table.
func ReadArbitraryExcelTable(f *excelize.File, sheet string, firstRow, lastRow int, columns map[string]string, opts ...ReadOption) (*TableReader, error) {
	if firstRow < 1 {
		return nil, configErrorf("first row %d: rows are numbered from 1", firstRow)
	}
	cols := make([]ColumnIndex, 0, len(columns))
	for name, letter := range columns {
		idx, err := NameToCol(letter)
		if err != nil {
			return nil, configErrorf("column %q: %v", name, err)
		}
		cols = append(cols, ColumnIndex{Name: name, Index: idx})
	}
	grid, err := LoadSheetGrid(f, sheet)
	if err != nil {
		return nil, err
	}
	end := -1
	if lastRow >= 1 {
		end = lastRow
	}
	return ReadArbitraryTable(grid, firstRow-1, end, sortedColumns(cols), opts...)
}

// ReadExcelTable reads a table object defined on sheet. The column names come
// from the table's header row; tables without a header row get the column
// letters as names.
func ReadExcelTable(f *excelize.File, sheet, tableName string, opts ...ReadOption) (*TableReader, error) {
	tables, err := f.GetTables(sheet)
	if err != nil {
		return nil, fmt.Errorf("list tables of sheet %q: %w", sheet, err)
	}
	for _, t := range tables {
		if t.Name != tableName {
			continue
		}
		area, err := ParseAreaRef(t.Range)
		if err != nil {
			return nil, fmt.Errorf("table %q: %w", tableName, err)
		}
		grid, err := LoadSheetGrid(f, sheet)
		if err != nil {
			return nil, err
		}
		header := t.ShowHeaderRow == nil || *t.ShowHeaderRow
		start := area.First.Row
		cols := make([]ColumnIndex, 0, area.Last.Col-area.First.Col+1)
		for col := area.First.Col; col <= area.Last.Col; col++ {
			name := ColToName(col)
			if header {
				v, err := Convert[string](grid.Cell(area.First.Row, col))
				if err != nil {
					return nil, fmt.Errorf("table %q header: %w", tableName, err)
				}
				name = v
			}
			cols = append(cols, ColumnIndex{Name: name, Index: col})
		}
		if header {
			start++
		}
		return ReadArbitraryTable(grid, start, area.Last.Row+1, cols, opts...)
	}
	return nil, configErrorf("sheet %q has no table %q", sheet, tableName)
}
