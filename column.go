package excelei

import (
	"reflect"
)

// ColumnSource describes one column of a table: its name, the type of its
// values and how a value is extracted from a data item.
type ColumnSource interface {
	Name() string
	// DataType is the value type with pointer indirections stripped.
	DataType() reflect.Type
	// IsCollection reports whether values are arrays, slices or maps.
	IsCollection() bool
	// Value extracts the column value from item. A nil item yields nil.
	Value(item any) (any, error)
}

// MemberDescriptor ties a compiled getter to the member it reads.
type MemberDescriptor struct {
	Name string
	// Resolved is true when Name was taken from a direct member reference
	// rather than supplied by the caller.
	Resolved bool
	DataType reflect.Type
	Getter   func(item any) (any, error)
}

type column struct {
	name       string
	dataType   reflect.Type
	collection bool
	getter     func(item any) (any, error)
}

func newColumn(name string, t reflect.Type, getter func(item any) (any, error)) *column {
	dt := underlyingType(t)
	return &column{
		name:       name,
		dataType:   dt,
		collection: isCollectionType(dt),
		getter:     getter,
	}
}

func (c *column) Name() string           { return c.name }
func (c *column) DataType() reflect.Type { return c.dataType }
func (c *column) IsCollection() bool     { return c.collection }

func (c *column) Value(item any) (any, error) {
	v, err := c.getter(item)
	if err != nil {
		return nil, err
	}
	return nilIfEmpty(v), nil
}

func underlyingType(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return anyType
	}
	return t
}

func isCollectionType(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Array, reflect.Map:
		return true
	case reflect.Slice:
		return t.Elem().Kind() != reflect.Uint8
	}
	return false
}

// nilIfEmpty turns typed nil pointers, maps, slices and interfaces into a plain nil.
func nilIfEmpty(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return nil
		}
	}
	return v
}

func itemAs[T any](item any) T {
	t, _ := item.(T)
	return t
}

// NewFuncColumn creates a column from a typed getter. Items that are not a T
// reach the getter as the zero T.
func NewFuncColumn[T, V any](name string, get func(T) V) ColumnSource {
	return newColumn(name, reflect.TypeFor[V](), func(item any) (any, error) {
		return get(itemAs[T](item)), nil
	})
}

// ExprOption configures expression columns.
type ExprOption func(*exprOptions)

type exprOptions struct {
	cache    *ExpressionCache
	override bool
}

// WithExpressionCache compiles through cache instead of DefaultExpressionCache.
func WithExpressionCache(cache *ExpressionCache) ExprOption {
	return func(o *exprOptions) { o.cache = cache }
}

// WithNameOverride makes a caller-supplied name win over the resolved member name.
func WithNameOverride() ExprOption {
	return func(o *exprOptions) { o.override = true }
}

func applyExprOptions(opts []ExprOption) exprOptions {
	o := exprOptions{cache: DefaultExpressionCache}
	for _, opt := range opts {
		opt(&o)
	}
	if o.cache == nil {
		o.cache = DefaultExpressionCache
	}
	return o
}

// DescribeExpression compiles source against items of type env and describes
// the result as a member descriptor.
func DescribeExpression(env reflect.Type, source string, cache *ExpressionCache) (MemberDescriptor, error) {
	if cache == nil {
		cache = DefaultExpressionCache
	}
	compiled, err := cache.Compile(env, source)
	if err != nil {
		return MemberDescriptor{}, err
	}
	return MemberDescriptor{
		Name:     compiled.Member,
		Resolved: compiled.Member != "",
		DataType: compiled.ResultType(),
		Getter:   compiled.Eval,
	}, nil
}

// NewExprColumn creates a column from an expr-lang expression evaluated against
// items of type T. When the expression is a direct member reference its member
// name is the column name, unless WithNameOverride is given; otherwise name is
// required.
func NewExprColumn[T any](source, name string, opts ...ExprOption) (ColumnSource, error) {
	o := applyExprOptions(opts)
	d, err := DescribeExpression(reflect.TypeFor[T](), source, o.cache)
	if err != nil {
		return nil, err
	}
	return newDescribedColumn(d, name, o.override)
}

func newDescribedColumn(d MemberDescriptor, name string, override bool) (ColumnSource, error) {
	switch {
	case d.Resolved && (!override || name == ""):
		name = d.Name
	case name == "":
		return nil, configErrorf("column name is required for a computed column")
	}
	return newColumn(name, d.DataType, d.Getter), nil
}

// elementColumn extracts one fixed index from a collection-valued member.
func newElementColumn(name string, collection MemberDescriptor, index int) ColumnSource {
	elemType := anyType
	if ct := underlyingType(collection.DataType); ct.Kind() == reflect.Slice || ct.Kind() == reflect.Array {
		elemType = ct.Elem()
	}
	return newColumn(name, elemType, func(item any) (any, error) {
		coll, err := collection.Getter(item)
		if err != nil {
			return nil, err
		}
		return elementAt(coll, index), nil
	})
}

func elementAt(coll any, index int) any {
	v := reflect.ValueOf(coll)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		if index >= 0 && index < v.Len() {
			return v.Index(index).Interface()
		}
	}
	return nil
}
