package excelei

import (
	"fmt"
	"iter"
	"slices"
)

// DefaultBlankThreshold is the number of populated cells at or below which a
// row is treated as blank while scanning for the end of a table.
const DefaultBlankThreshold = 2

// RowReader is one row of named cells.
type RowReader interface {
	ColumnNames() []string
	// Value returns the raw cell value. Unknown columns fail with ErrConfiguration.
	Value(column string) (any, error)
}

// RowReaderCollection is a sequence of rows with optional random access.
type RowReaderCollection interface {
	// Count returns the number of rows and true when the end of the table is known.
	Count() (int, bool)
	// Row returns the row at the 0-based index relative to the first data row.
	Row(i int) (RowReader, error)
	All() iter.Seq[RowReader]
}

// Get reads column from r and converts the value to T.
func Get[T any](r RowReader, column string) (T, error) {
	v, err := r.Value(column)
	if err != nil {
		var zero T
		return zero, err
	}
	return Convert[T](v)
}

// ColumnIndex names a 0-based grid column.
type ColumnIndex struct {
	Name  string
	Index int
}

// ReadOption configures row reading.
type ReadOption func(*readOptions)

type readOptions struct {
	blankThreshold int
}

func defaultReadOptions() *readOptions {
	return &readOptions{blankThreshold: DefaultBlankThreshold}
}

// WithBlankThreshold sets how many populated cells a row may have and still be
// treated as blank while scanning (default 2). It is capped at one less than
// the number of columns, so a fully populated row is never blank.
func WithBlankThreshold(n int) ReadOption {
	return func(o *readOptions) { o.blankThreshold = n }
}

// GridRows reads rows of a CellGrid through a fixed set of named columns.
// With a known end it yields every row in range; without one it scans and
// stops at the second consecutive blank row.
type GridRows struct {
	grid      CellGrid
	start     int
	end       int // exclusive, -1 while scanning
	names     []string
	index     map[string]int
	threshold int
}

func newGridRows(grid CellGrid, start, end int, columns []ColumnIndex, opts ...ReadOption) (*GridRows, error) {
	o := defaultReadOptions()
	for _, opt := range opts {
		opt(o)
	}
	if start < 0 {
		return nil, configErrorf("start row %d is negative", start)
	}
	if end >= 0 && end < start {
		return nil, configErrorf("end row %d is before start row %d", end, start)
	}
	r := &GridRows{
		grid:      grid,
		start:     start,
		end:       min(end, MaxSheetRows),
		names:     make([]string, 0, len(columns)),
		index:     make(map[string]int, len(columns)),
		threshold: max(0, min(o.blankThreshold, len(columns)-1)),
	}
	for _, c := range columns {
		if c.Index < 0 || c.Index >= MaxSheetColumns {
			return nil, configErrorf("column %q index %d is out of range", c.Name, c.Index)
		}
		if _, dup := r.index[c.Name]; dup {
			return nil, configErrorf("ambiguous column %q", c.Name)
		}
		r.index[c.Name] = c.Index
		r.names = append(r.names, c.Name)
	}
	return r, nil
}

// Columns returns the column names in declaration order.
func (r *GridRows) Columns() []string { return r.names }

// Count implements RowReaderCollection.
func (r *GridRows) Count() (int, bool) {
	if r.end < 0 {
		return 0, false
	}
	return r.end - r.start, true
}

// Row implements RowReaderCollection. While scanning, a row that the blank
// heuristic would skip does not belong to the table and fails with
// ErrIndexOutOfRange.
func (r *GridRows) Row(i int) (RowReader, error) {
	if i < 0 {
		return nil, fmt.Errorf("%w: row %d", ErrIndexOutOfRange, i)
	}
	abs := r.start + i
	if r.end >= 0 {
		if abs >= r.end {
			return nil, fmt.Errorf("%w: row %d of %d", ErrIndexOutOfRange, i, r.end-r.start)
		}
	} else if abs >= MaxSheetRows || r.isBlank(abs) {
		return nil, fmt.Errorf("%w: row %d does not belong to the table", ErrIndexOutOfRange, i)
	}
	return gridRow{rows: r, row: abs}, nil
}

// All implements RowReaderCollection.
func (r *GridRows) All() iter.Seq[RowReader] {
	if r.end >= 0 {
		return func(yield func(RowReader) bool) {
			for abs := r.start; abs < r.end; abs++ {
				if !yield(gridRow{rows: r, row: abs}) {
					return
				}
			}
		}
	}
	return func(yield func(RowReader) bool) {
		limit := min(r.grid.RowCount(), MaxSheetRows)
		blanks := 0
		for abs := r.start; abs < limit; abs++ {
			if r.isBlank(abs) {
				blanks++
				if blanks >= 2 {
					return
				}
				continue
			}
			blanks = 0
			if !yield(gridRow{rows: r, row: abs}) {
				return
			}
		}
	}
}

func (r *GridRows) isBlank(row int) bool {
	populated := 0
	for _, col := range r.index {
		if r.grid.Cell(row, col) != nil {
			populated++
			if populated > r.threshold {
				return false
			}
		}
	}
	return true
}

type gridRow struct {
	rows *GridRows
	row  int
}

func (g gridRow) ColumnNames() []string { return g.rows.names }

func (g gridRow) Value(column string) (any, error) {
	col, ok := g.rows.index[column]
	if !ok {
		return nil, configErrorf("unknown column %q", column)
	}
	return g.rows.grid.Cell(g.row, col), nil
}

// TableReader is a table located on a grid: its column names and its rows.
type TableReader struct {
	Columns []string
	Rows    *GridRows
}

// ReadContiguousTableWithHeader locates a table by its header row. The header
// starts at the first populated cell of headerRow and runs until the next empty
// cell; header cells must be text and unique. Data rows are scanned from the
// row below the header.
func ReadContiguousTableWithHeader(grid CellGrid, headerRow int, opts ...ReadOption) (*TableReader, error) {
	if headerRow < 0 {
		return nil, configErrorf("header row %d is negative", headerRow)
	}
	width := gridWidth(grid)
	first := 0
	for first < width && grid.Cell(headerRow, first) == nil {
		first++
	}
	if first == width {
		return nil, configErrorf("no header found in row %d", headerRow)
	}

	var columns []ColumnIndex
	for col := first; col < width; col++ {
		v := grid.Cell(headerRow, col)
		if v == nil {
			break
		}
		name, ok := v.(string)
		if !ok {
			return nil, configErrorf("header cell %s is %T, not text", NewCellRef("", headerRow, col), v)
		}
		columns = append(columns, ColumnIndex{Name: name, Index: col})
	}
	rows, err := newGridRows(grid, headerRow+1, -1, columns, opts...)
	if err != nil {
		return nil, err
	}
	return &TableReader{Columns: rows.names, Rows: rows}, nil
}

// ReadArbitraryTable reads rows [start, end) of grid through the given
// columns. A negative end scans for the end of the table instead.
func ReadArbitraryTable(grid CellGrid, start, end int, columns []ColumnIndex, opts ...ReadOption) (*TableReader, error) {
	if len(columns) == 0 {
		return nil, configErrorf("at least one column is required")
	}
	if end < 0 {
		end = -1
	}
	rows, err := newGridRows(grid, start, end, columns, opts...)
	if err != nil {
		return nil, err
	}
	return &TableReader{Columns: rows.names, Rows: rows}, nil
}

// ToMap copies every column of r into a map.
func ToMap(r RowReader) (map[string]any, error) {
	names := r.ColumnNames()
	m := make(map[string]any, len(names))
	for _, name := range names {
		v, err := r.Value(name)
		if err != nil {
			return nil, err
		}
		m[name] = v
	}
	return m, nil
}

// ToMaps copies every row of rows into a map.
func ToMaps(rows RowReaderCollection) ([]map[string]any, error) {
	var out []map[string]any
	if n, ok := rows.Count(); ok {
		out = make([]map[string]any, 0, n)
	}
	for r := range rows.All() {
		m, err := ToMap(r)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// sortedColumns orders columns by grid index.
func sortedColumns(columns []ColumnIndex) []ColumnIndex {
	out := slices.Clone(columns)
	slices.SortStableFunc(out, func(a, b ColumnIndex) int { return a.Index - b.Index })
	return out
}
