package excelei

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"time"
)

var (
	nullStringType  = reflect.TypeFor[sql.NullString]()
	nullInt64Type   = reflect.TypeFor[sql.NullInt64]()
	nullInt32Type   = reflect.TypeFor[sql.NullInt32]()
	nullInt16Type   = reflect.TypeFor[sql.NullInt16]()
	nullByteType    = reflect.TypeFor[sql.NullByte]()
	nullFloat64Type = reflect.TypeFor[sql.NullFloat64]()
	nullBoolType    = reflect.TypeFor[sql.NullBool]()
	nullTimeType    = reflect.TypeFor[sql.NullTime]()
	rawBytesType    = reflect.TypeFor[sql.RawBytes]()
)

// QueryTable runs query on db and loads the whole result into a Table.
func QueryTable(ctx context.Context, db *sql.DB, name, query string, args ...any) (_ *Table, err error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query table %q: %w", name, err)
	}
	defer func() {
		err = errors.Join(err, rows.Close())
	}()
	return LoadTable(name, rows)
}

// LoadTable reads all remaining rows into a Table. Column types come from the
// driver's scan types with sql.Null* wrappers stripped. Byte slices from
// text-typed columns are stored as strings.
func LoadTable(name string, rows *sql.Rows) (*Table, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("load table %q: %w", name, err)
	}
	t := &Table{Name: name, ordinal: make(map[string]int, len(types))}
	for _, ct := range types {
		if _, err := t.AddColumn(ct.Name(), columnDataType(ct)); err != nil {
			return nil, err
		}
	}

	for rows.Next() {
		dest := make([]any, len(types))
		for i := range dest {
			dest[i] = new(any)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("load table %q: row %d: %w", name, len(t.rows), err)
		}
		row := make([]any, len(types))
		for i, d := range dest {
			row[i] = normalizeScanned(*d.(*any), t.columns[i].DataType)
		}
		t.rows = append(t.rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load table %q: %w", name, err)
	}
	return t, nil
}

func columnDataType(ct *sql.ColumnType) reflect.Type {
	st := ct.ScanType()
	if st == nil {
		return anyType
	}
	switch st {
	case nullStringType:
		return reflect.TypeFor[string]()
	case nullInt64Type, nullInt32Type, nullInt16Type:
		return reflect.TypeFor[int64]()
	case nullByteType:
		return reflect.TypeFor[uint8]()
	case nullFloat64Type:
		return reflect.TypeFor[float64]()
	case nullBoolType:
		return reflect.TypeFor[bool]()
	case nullTimeType:
		return timeType
	case rawBytesType:
		return reflect.TypeFor[string]()
	}
	return underlyingType(st)
}

func normalizeScanned(v any, dataType reflect.Type) any {
	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		if dataType.Kind() == reflect.String {
			return string(x)
		}
		return append([]byte(nil), x...)
	case time.Time:
		return x
	}
	return nilIfEmpty(v)
}
