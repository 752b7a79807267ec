package excelei

import (
	"iter"
	"reflect"
)

// TableSource is an ordered, named set of column sources over one item type.
type TableSource interface {
	Columns() []ColumnSource
	Column(name string) (ColumnSource, error)
}

type tableSource struct {
	columns []ColumnSource
	byName  map[string]ColumnSource
}

func newTableSource(columns []ColumnSource) *tableSource {
	s := &tableSource{columns: columns, byName: make(map[string]ColumnSource, len(columns))}
	for _, c := range columns {
		if _, dup := s.byName[c.Name()]; !dup {
			s.byName[c.Name()] = c
		}
	}
	return s
}

func (s *tableSource) Columns() []ColumnSource { return s.columns }

func (s *tableSource) Column(name string) (ColumnSource, error) {
	c, ok := s.byName[name]
	if !ok {
		return nil, configErrorf("unknown column %q", name)
	}
	return c, nil
}

// NewStructTableSource describes every exported, non-collection field of the
// struct type T, in declaration order. Promoted fields of embedded structs are
// listed in place of the embedded field.
func NewStructTableSource[T any]() (TableSource, error) {
	return structTableSource(reflect.TypeFor[T]())
}

func structTableSource(typ reflect.Type) (TableSource, error) {
	base := underlyingType(typ)
	if base.Kind() != reflect.Struct {
		return nil, configErrorf("%s is not a struct type", typ)
	}
	var cols []ColumnSource
	for _, name := range scalarFieldNames(base) {
		c, err := NewReflectColumn(typ, name, nil)
		if err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return newTableSource(cols), nil
}

func scalarFieldNames(root reflect.Type) []string {
	var names []string
	seen := make(map[string]bool)
	var walk func(reflect.Type)
	walk = func(t reflect.Type) {
		for i := range t.NumField() {
			f := t.Field(i)
			ft := underlyingType(f.Type)
			if f.Anonymous && ft.Kind() == reflect.Struct && ft != timeType {
				walk(ft)
				continue
			}
			if !f.IsExported() || seen[f.Name] || isCollectionType(ft) {
				continue
			}
			// Names that are ambiguous at the same depth cannot be read.
			if _, ok := root.FieldByName(f.Name); !ok {
				continue
			}
			seen[f.Name] = true
			names = append(names, f.Name)
		}
	}
	walk(root)
	return names
}

// ExtractTable materializes items into a relational Table through source.
func ExtractTable(name string, source TableSource, items iter.Seq[any]) (*Table, error) {
	cols := source.Columns()
	t := &Table{Name: name, ordinal: make(map[string]int, len(cols))}
	for _, c := range cols {
		if _, err := t.AddColumn(c.Name(), c.DataType()); err != nil {
			return nil, err
		}
	}
	for item := range items {
		row := make([]any, len(cols))
		for i, c := range cols {
			v, err := c.Value(item)
			if err != nil {
				return nil, &MappingError{Row: len(t.rows), Column: c.Name(), Member: c.Name(), Err: err}
			}
			row[i] = indirectValue(v)
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

// indirectValue follows pointers so that tables hold plain values.
func indirectValue(v any) any {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer {
		return v
	}
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	return rv.Interface()
}
