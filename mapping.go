package excelei

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// MappingOption configures a TableMappingReader.
type MappingOption func(*mappingOptions)

type mappingOptions struct {
	validate *validator.Validate
}

// WithValidator validates every mapped value with v before it is returned.
func WithValidator(v *validator.Validate) MappingOption {
	return func(o *mappingOptions) { o.validate = v }
}

// MappedMember describes one binding of a TableMappingReader.
type MappedMember struct {
	Member string // field path, empty for setter bindings
	Column string
}

type binding[T any] struct {
	MappedMember
	// set assigns a raw cell value; nil until compiled for field bindings.
	set func(dst *T, raw any) error
}

// TableMappingReader maps rows onto values of T through column bindings. It
// is built once, compiled on first use and may be reused for any number of
// reads.
type TableMappingReader[T any] struct {
	opts     mappingOptions
	bindings []*binding[T]

	once       sync.Once
	compileErr error
}

// NewTableMappingReader creates a reader with no bindings.
func NewTableMappingReader[T any](opts ...MappingOption) *TableMappingReader[T] {
	r := &TableMappingReader[T]{}
	for _, opt := range opts {
		opt(&r.opts)
	}
	return r
}

// Map binds the field path to the column named after its last segment.
func (r *TableMappingReader[T]) Map(field string) *TableMappingReader[T] {
	name := field
	if i := strings.LastIndexByte(field, '.'); i >= 0 {
		name = field[i+1:]
	}
	return r.MapAs(field, name)
}

// MapAs binds the field path to column. Values are converted to the field type.
func (r *TableMappingReader[T]) MapAs(field, column string) *TableMappingReader[T] {
	r.bindings = append(r.bindings, &binding[T]{MappedMember: MappedMember{Member: field, Column: column}})
	return r
}

// MapFunc binds column through a setter. conv turns the raw cell value into a
// V; a nil conv converts with Convert[V].
func MapFunc[T, V any](r *TableMappingReader[T], column string, set func(*T, V), conv func(any) (V, error)) *TableMappingReader[T] {
	if conv == nil {
		conv = Convert[V]
	}
	r.bindings = append(r.bindings, &binding[T]{
		MappedMember: MappedMember{Column: column},
		set: func(dst *T, raw any) error {
			v, err := conv(raw)
			if err != nil {
				return err
			}
			set(dst, v)
			return nil
		},
	})
	return r
}

// MappedMembers lists the bindings in the order they were added.
func (r *TableMappingReader[T]) MappedMembers() []MappedMember {
	out := make([]MappedMember, len(r.bindings))
	for i, b := range r.bindings {
		out[i] = b.MappedMember
	}
	return out
}

// Compile resolves every field binding. It runs once; later calls return the
// first result. Bindings added after compilation are not picked up.
func (r *TableMappingReader[T]) Compile() error {
	r.once.Do(func() { r.compileErr = r.compile() })
	return r.compileErr
}

func (r *TableMappingReader[T]) compile() error {
	typ := reflect.TypeFor[T]()
	members := make(map[string]string, len(r.bindings))
	for _, b := range r.bindings {
		if b.Column == "" {
			return configErrorf("binding for %q has no column name", b.Member)
		}
		if b.set != nil {
			continue
		}
		if prev, dup := members[b.Member]; dup {
			return configErrorf("member %s is bound to both %q and %q", b.Member, prev, b.Column)
		}
		members[b.Member] = b.Column
		set, err := fieldSetter[T](typ, b.Member)
		if err != nil {
			return err
		}
		b.set = set
	}
	return nil
}

func fieldSetter[T any](typ reflect.Type, path string) (func(*T, any) error, error) {
	var index [][]int
	cur := typ
	for _, part := range strings.Split(path, ".") {
		base := cur
		if base.Kind() == reflect.Pointer {
			base = base.Elem()
		}
		if base.Kind() != reflect.Struct {
			return nil, configErrorf("member %s of %s: %s is not a struct", path, typ, base)
		}
		f, ok := base.FieldByName(part)
		if !ok {
			return nil, configErrorf("member %s of %s: no field %s", path, typ, part)
		}
		if !f.IsExported() {
			return nil, configErrorf("member %s of %s: field %s is not exported", path, typ, part)
		}
		index = append(index, f.Index)
		cur = f.Type
	}
	fieldType := cur

	return func(dst *T, raw any) error {
		v, err := ConvertTo(raw, fieldType)
		if err != nil {
			return err
		}
		target := reflect.ValueOf(dst).Elem()
		for _, idx := range index {
			target = fieldByIndexAlloc(target, idx)
		}
		if v == nil {
			target.SetZero()
			return nil
		}
		target.Set(reflect.ValueOf(v))
		return nil
	}, nil
}

// fieldByIndexAlloc is FieldByIndex that allocates nil pointers on the way.
func fieldByIndexAlloc(v reflect.Value, index []int) reflect.Value {
	for _, i := range index {
		if v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(i)
	}
	return v
}

// ReadRow maps a single row.
func (r *TableMappingReader[T]) ReadRow(row RowReader) (T, error) {
	return r.readRow(row, 0)
}

// Read maps every row of rows. The first failing row aborts the read.
func (r *TableMappingReader[T]) Read(rows RowReaderCollection) ([]T, error) {
	if err := r.Compile(); err != nil {
		return nil, err
	}
	out := make([]T, 0)
	if n, ok := rows.Count(); ok {
		out = make([]T, 0, n)
	}
	ordinal := 0
	for row := range rows.All() {
		item, err := r.readRow(row, ordinal)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
		ordinal++
	}
	return out, nil
}

func (r *TableMappingReader[T]) readRow(row RowReader, ordinal int) (T, error) {
	var item T
	if err := r.Compile(); err != nil {
		return item, err
	}
	for _, b := range r.bindings {
		raw, err := row.Value(b.Column)
		if err == nil {
			err = b.set(&item, raw)
		}
		if err != nil {
			var zero T
			return zero, &MappingError{Row: ordinal, Column: b.Column, Member: b.memberLabel(), Err: err}
		}
	}
	if r.opts.validate != nil && reflect.TypeFor[T]().Kind() == reflect.Struct {
		if err := r.opts.validate.Struct(item); err != nil {
			var zero T
			return zero, &MappingError{Row: ordinal, Err: err}
		}
	}
	return item, nil
}

func (b *binding[T]) memberLabel() string {
	if b.Member != "" {
		return b.Member
	}
	return b.Column
}
