package excelei

import (
	"iter"
	"reflect"
	"slices"
)

// DataTable is an ordered sequence of data items fed to an exporter.
type DataTable interface {
	Items() iter.Seq[any]
}

// SliceTable adapts a slice to DataTable.
type SliceTable[T any] []T

// Items yields the slice elements in order.
func (s SliceTable[T]) Items() iter.Seq[any] {
	return func(yield func(any) bool) {
		for _, item := range s {
			if !yield(item) {
				return
			}
		}
	}
}

// DataSet is a set of named data tables, the input of a workbook export.
type DataSet map[string]DataTable

// Names returns the table names in sorted order.
func (ds DataSet) Names() []string {
	names := make([]string, 0, len(ds))
	for name := range ds {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// TableColumn describes one column of a relational Table.
type TableColumn struct {
	Name     string
	Ordinal  int
	DataType reflect.Type
}

// Table is an in-memory relational table. Rows hold one value per column;
// NULL is stored as nil.
type Table struct {
	Name    string
	columns []*TableColumn
	ordinal map[string]int
	rows    [][]any
}

// NewTable creates an empty table with the given columns.
func NewTable(name string, columns ...TableColumn) (*Table, error) {
	t := &Table{Name: name, ordinal: make(map[string]int, len(columns))}
	for _, c := range columns {
		if _, err := t.AddColumn(c.Name, c.DataType); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// AddColumn appends a column. Rows already present get nil for it.
func (t *Table) AddColumn(name string, dataType reflect.Type) (*TableColumn, error) {
	if name == "" {
		return nil, configErrorf("table %q: column name must not be empty", t.Name)
	}
	if _, dup := t.ordinal[name]; dup {
		return nil, configErrorf("table %q: duplicate column %q", t.Name, name)
	}
	if dataType == nil {
		dataType = anyType
	}
	c := &TableColumn{Name: name, Ordinal: len(t.columns), DataType: underlyingType(dataType)}
	t.columns = append(t.columns, c)
	t.ordinal[name] = c.Ordinal
	for i := range t.rows {
		t.rows[i] = append(t.rows[i], nil)
	}
	return c, nil
}

// AddRow appends a row. values are matched to columns by ordinal; missing
// trailing values are nil.
func (t *Table) AddRow(values ...any) error {
	if len(values) > len(t.columns) {
		return configErrorf("table %q: row has %d values for %d columns", t.Name, len(values), len(t.columns))
	}
	row := make([]any, len(t.columns))
	for i, v := range values {
		row[i] = nilIfEmpty(v)
	}
	t.rows = append(t.rows, row)
	return nil
}

// Columns returns the columns in ordinal order.
func (t *Table) Columns() []*TableColumn { return t.columns }

// ColumnNames returns the column names in ordinal order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Column looks a column up by name.
func (t *Table) Column(name string) (*TableColumn, bool) {
	i, ok := t.ordinal[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Row returns the row at index i.
func (t *Table) Row(i int) (TableRow, error) {
	if i < 0 || i >= len(t.rows) {
		return TableRow{}, ErrIndexOutOfRange
	}
	return TableRow{table: t, index: i}, nil
}

// Items yields every row as a TableRow.
func (t *Table) Items() iter.Seq[any] {
	return func(yield func(any) bool) {
		for i := range t.rows {
			if !yield(TableRow{table: t, index: i}) {
				return
			}
		}
	}
}

// Cell implements CellGrid with columns in ordinal order.
func (t *Table) Cell(row, col int) any {
	if row < 0 || row >= len(t.rows) || col < 0 || col >= len(t.columns) {
		return nil
	}
	return t.rows[row][col]
}

// RowCount implements CellGrid.
func (t *Table) RowCount() int { return len(t.rows) }

// Reader exposes the table as a bounded row collection.
func (t *Table) Reader() *TableReader {
	names := t.ColumnNames()
	cols := make([]ColumnIndex, len(names))
	for i, name := range names {
		cols[i] = ColumnIndex{Name: name, Index: i}
	}
	rows, _ := newGridRows(t, 0, len(t.rows), cols)
	return &TableReader{Columns: names, Rows: rows}
}

// Source describes the table columns as column sources over TableRow items.
func (t *Table) Source() TableSource {
	cols := make([]ColumnSource, len(t.columns))
	for i, c := range t.columns {
		cols[i] = newTableColumnSource(t, c, nil)
	}
	return newTableSource(cols)
}

// TableRow is one row of a Table. It implements RowReader.
type TableRow struct {
	table *Table
	index int
}

// Table returns the owning table.
func (r TableRow) Table() *Table { return r.table }

// Index returns the 0-based row index.
func (r TableRow) Index() int { return r.index }

// ColumnNames implements RowReader.
func (r TableRow) ColumnNames() []string { return r.table.ColumnNames() }

// Value implements RowReader.
func (r TableRow) Value(column string) (any, error) {
	i, ok := r.table.ordinal[column]
	if !ok {
		return nil, configErrorf("unknown column %q", column)
	}
	return r.table.rows[r.index][i], nil
}

// Set replaces the value of column.
func (r TableRow) Set(column string, value any) error {
	i, ok := r.table.ordinal[column]
	if !ok {
		return configErrorf("unknown column %q", column)
	}
	r.table.rows[r.index][i] = nilIfEmpty(value)
	return nil
}

func newTableColumnSource(t *Table, c *TableColumn, conv func(any) (any, error)) ColumnSource {
	return newColumn(c.Name, c.DataType, func(item any) (any, error) {
		row, ok := asTableRow(item)
		if !ok || row.table != t {
			return nil, nil
		}
		v := t.rows[row.index][c.Ordinal]
		if v == nil || conv == nil {
			return v, nil
		}
		return conv(v)
	})
}

func asTableRow(item any) (TableRow, bool) {
	switch r := item.(type) {
	case TableRow:
		return r, r.table != nil
	case *TableRow:
		if r != nil && r.table != nil {
			return *r, true
		}
	}
	return TableRow{}, false
}

// NewTableColumn creates a column source over the named column of t.
func NewTableColumn(t *Table, name string) (ColumnSource, error) {
	c, ok := t.Column(name)
	if !ok {
		return nil, configErrorf("table %q has no column %q", t.Name, name)
	}
	return newTableColumnSource(t, c, nil), nil
}

// NewConvertingTableColumn creates a column source over the named column of t
// whose non-nil values are passed through conv. A nil conv converts with
// Convert[V].
func NewConvertingTableColumn[V any](t *Table, name string, conv func(any) (V, error)) (ColumnSource, error) {
	c, ok := t.Column(name)
	if !ok {
		return nil, configErrorf("table %q has no column %q", t.Name, name)
	}
	if conv == nil {
		conv = Convert[V]
	}
	typed := &TableColumn{Name: c.Name, Ordinal: c.Ordinal, DataType: reflect.TypeFor[V]()}
	return newTableColumnSource(t, typed, func(v any) (any, error) {
		return conv(v)
	}), nil
}
