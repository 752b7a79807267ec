package excelei

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// DescribeSheet locates the table whose header is on headerRow (1-based) and
// returns a human-readable tree of its columns with the cell type found in
// each. Useful for checking a sheet before writing a mapping for it.
func DescribeSheet(f *excelize.File, sheet string, headerRow int, opts ...ReadOption) (string, error) {
	table, err := ReadContiguousExcelTableWithHeader(f, sheet, headerRow, opts...)
	if err != nil {
		return "", err
	}

	rows := table.Rows
	types := make([]CellType, len(table.Columns))
	count := 0
	for row := range rows.All() {
		for i, name := range table.Columns {
			v, err := row.Value(name)
			if err != nil {
				return "", err
			}
			types[i] = mergeCellType(types[i], CellTypeOf(v))
		}
		count++
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Sheet: %s\n", sheet)
	fmt.Fprintf(&b, "  Header: row %d, %d columns\n", headerRow, len(table.Columns))
	for i, name := range table.Columns {
		fmt.Fprintf(&b, "    %s %q %s\n", ColToName(rows.index[name]), name, types[i])
	}
	fmt.Fprintf(&b, "  Rows: %d\n", count)
	return b.String(), nil
}

// mergeCellType folds the type of one more cell into a column type. Blank
// cells do not change it.
func mergeCellType(column, cell CellType) CellType {
	switch {
	case cell == CellBlank || cell == column:
		return column
	case column == CellBlank:
		return cell
	}
	return CellMixed
}
