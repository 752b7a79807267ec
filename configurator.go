package excelei

import (
	"fmt"
	"reflect"
	"strings"
)

// ColumnOption adjusts a column added through a configurator.
type ColumnOption func(*columnOptions)

type columnOptions struct {
	index   int
	indexed bool
	caption string
	autoFit *bool
	format  string
}

// AtIndex places the column at a fixed 0-based index instead of after the
// last configured column.
func AtIndex(i int) ColumnOption {
	return func(o *columnOptions) {
		o.index = i
		o.indexed = true
	}
}

// WithCaption sets the header caption.
func WithCaption(caption string) ColumnOption {
	return func(o *columnOptions) { o.caption = caption }
}

// WithAutoFit overrides whether the column width is fitted to its content.
func WithAutoFit(autoFit bool) ColumnOption {
	return func(o *columnOptions) { o.autoFit = &autoFit }
}

// WithFormat sets the number format.
func WithFormat(format string) ColumnOption {
	return func(o *columnOptions) { o.format = format }
}

func applyColumnOptions(opts []ColumnOption) columnOptions {
	var o columnOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ConfiguratorOption configures an ExportConfigurator.
type ConfiguratorOption func(*configuratorOptions)

type configuratorOptions struct {
	dataTableName string
	cache         *ExpressionCache
}

// WithDataTableName names the data table the sheet is fed from. It defaults
// to the sheet name.
func WithDataTableName(name string) ConfiguratorOption {
	return func(o *configuratorOptions) { o.dataTableName = name }
}

// WithConfiguratorCache compiles expression columns through cache.
func WithConfiguratorCache(cache *ExpressionCache) ConfiguratorOption {
	return func(o *configuratorOptions) { o.cache = cache }
}

// ExportConfigurator builds the export config of a sheet fed with items of type T.
type ExportConfigurator[T any] struct {
	config *SheetExportConfig
	cache  *ExpressionCache
}

// NewExportConfigurator starts a sheet config for items of type T.
func NewExportConfigurator[T any](sheetName string, opts ...ConfiguratorOption) (*ExportConfigurator[T], error) {
	o := configuratorOptions{dataTableName: sheetName, cache: DefaultExpressionCache}
	for _, opt := range opts {
		opt(&o)
	}
	if err := ValidateSheetName(sheetName); err != nil {
		return nil, err
	}
	if strings.TrimSpace(o.dataTableName) == "" {
		return nil, configErrorf("data table name must not be blank")
	}
	cfg := NewSheetExportConfig(sheetName)
	cfg.DataTableName = o.dataTableName
	return &ExportConfigurator[T]{config: cfg, cache: o.cache}, nil
}

// Config returns the sheet config being built.
func (c *ExportConfigurator[T]) Config() *SheetExportConfig { return c.config }

// AddColumnSource adds a column populated from src. The caption defaults to
// the source name.
func (c *ExportConfigurator[T]) AddColumnSource(src ColumnSource, opts ...ColumnOption) (*ColumnExportConfig, error) {
	return c.addColumn(src, applyColumnOptions(opts))
}

func (c *ExportConfigurator[T]) addColumn(src ColumnSource, o columnOptions) (*ColumnExportConfig, error) {
	return addConfiguredColumn(c.config, src, o)
}

func addConfiguredColumn(cfg *SheetExportConfig, src ColumnSource, o columnOptions) (*ColumnExportConfig, error) {
	if src == nil {
		return nil, configErrorf("column source is nil")
	}
	caption := o.caption
	if caption == "" {
		caption = src.Name()
	}
	if caption == "" {
		return nil, configErrorf("column caption cannot be resolved")
	}
	index := cfg.NextColumnIndex()
	if o.indexed {
		index = o.index
	}
	if index < 0 {
		return nil, configErrorf("column %q: index cannot be negative", caption)
	}
	col := NewColumnExportConfig(index, caption, src)
	if o.autoFit != nil {
		col.AutoFit = *o.autoFit
	}
	if o.format != "" {
		col.Format = o.format
	}
	if err := cfg.AddColumn(col); err != nil {
		return nil, err
	}
	return col, nil
}

// AddExpr adds a column computed by an expr-lang expression over T. A direct
// member reference names the column; other expressions need WithCaption.
func (c *ExportConfigurator[T]) AddExpr(expression string, opts ...ColumnOption) (*ColumnExportConfig, error) {
	o := applyColumnOptions(opts)
	src, err := NewExprColumn[T](expression, o.caption, WithExpressionCache(c.cache))
	if err != nil {
		return nil, err
	}
	return c.addColumn(src, o)
}

// AddMember adds a column reading a field or method of T by name.
func (c *ExportConfigurator[T]) AddMember(member string, opts ...ColumnOption) (*ColumnExportConfig, error) {
	src, err := NewReflectColumn(reflect.TypeFor[T](), member, nil)
	if err != nil {
		return nil, err
	}
	return c.addColumn(src, applyColumnOptions(opts))
}

// AddColumn adds a column computed by get.
func AddColumn[T, V any](c *ExportConfigurator[T], caption string, get func(T) V, opts ...ColumnOption) (*ColumnExportConfig, error) {
	if get == nil {
		return nil, configErrorf("column %q: getter is nil", caption)
	}
	return c.AddColumnSource(NewFuncColumn(caption, get), opts...)
}

// AddInheritedColumn adds a column computed from A, a type T converts to:
// an interface T implements, or a struct embedded in T.
func AddInheritedColumn[T, A, V any](c *ExportConfigurator[T], caption string, get func(A) V, opts ...ColumnOption) (*ColumnExportConfig, error) {
	if get == nil {
		return nil, configErrorf("column %q: getter is nil", caption)
	}
	ancestor, err := ancestorOf[T, A]()
	if err != nil {
		return nil, err
	}
	src := newColumn(caption, reflect.TypeFor[V](), func(item any) (any, error) {
		return get(ancestor(item)), nil
	})
	return c.AddColumnSource(src, opts...)
}

// AddDescendantColumn adds a column computed from D, a type assignable to T.
// Items that are not a D reach get as the zero D.
func AddDescendantColumn[T, D, V any](c *ExportConfigurator[T], caption string, get func(D) V, opts ...ColumnOption) (*ColumnExportConfig, error) {
	if get == nil {
		return nil, configErrorf("column %q: getter is nil", caption)
	}
	t, d := reflect.TypeFor[T](), reflect.TypeFor[D]()
	if !d.AssignableTo(t) {
		return nil, configErrorf("%s does not derive from %s", d, t)
	}
	return c.AddColumnSource(NewFuncColumn(caption, get), opts...)
}

// AddPolymorphicColumn adds a column computed from A, which must be related
// to T in either direction. Items are checked one by one; mismatches reach get
// as the zero A.
func AddPolymorphicColumn[T, A, V any](c *ExportConfigurator[T], caption string, get func(A) V, opts ...ColumnOption) (*ColumnExportConfig, error) {
	if get == nil {
		return nil, configErrorf("column %q: getter is nil", caption)
	}
	t, a := reflect.TypeFor[T](), reflect.TypeFor[A]()
	if ancestor, err := ancestorOf[T, A](); err == nil {
		src := newColumn(caption, reflect.TypeFor[V](), func(item any) (any, error) {
			return get(ancestor(item)), nil
		})
		return c.AddColumnSource(src, opts...)
	}
	if !a.AssignableTo(t) {
		return nil, configErrorf("%s and %s are not related", t, a)
	}
	return c.AddColumnSource(NewFuncColumn(caption, get), opts...)
}

// ancestorOf returns a conversion from items of type T to A, where T is
// assignable to A or embeds A.
func ancestorOf[T, A any]() (func(any) A, error) {
	t, a := reflect.TypeFor[T](), reflect.TypeFor[A]()
	if t.AssignableTo(a) {
		return itemAs[A], nil
	}
	base := underlyingType(t)
	if base.Kind() == reflect.Struct && a.Kind() == reflect.Struct {
		if f, ok := embeddedField(base, a); ok {
			return func(item any) A {
				v, ok := derefValue(reflect.ValueOf(item), base)
				if !ok {
					var zero A
					return zero
				}
				fv, err := v.FieldByIndexErr(f.Index)
				if err != nil {
					var zero A
					return zero
				}
				if fv.Kind() == reflect.Pointer {
					if fv.IsNil() {
						var zero A
						return zero
					}
					fv = fv.Elem()
				}
				return fv.Interface().(A)
			}, nil
		}
	}
	return nil, configErrorf("%s does not inherit from %s", t, a)
}

func embeddedField(t, target reflect.Type) (reflect.StructField, bool) {
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}
		ft := underlyingType(f.Type)
		if ft == target {
			return f, true
		}
		if ft.Kind() == reflect.Struct {
			if inner, ok := embeddedField(ft, target); ok {
				inner.Index = append(append([]int(nil), f.Index...), inner.Index...)
				return inner, true
			}
		}
	}
	return reflect.StructField{}, false
}

// AddCollectionColumns expands the collection member of T into count columns,
// one per element index. Captions are captionFormat formatted with the 0-based
// element index and default to "Member[%d]". Missing elements export as empty
// cells.
func (c *ExportConfigurator[T]) AddCollectionColumns(member string, count int, captionFormat string, opts ...ColumnOption) ([]*ColumnExportConfig, error) {
	d, err := NewReflectCollection(reflect.TypeFor[T](), member)
	if err != nil {
		return nil, err
	}
	return c.addCollection(d, count, captionFormat, applyColumnOptions(opts))
}

// AddCollectionExpr expands the collection computed by expression into count
// columns.
func (c *ExportConfigurator[T]) AddCollectionExpr(expression string, count int, captionFormat string, opts ...ColumnOption) ([]*ColumnExportConfig, error) {
	d, err := DescribeExpression(reflect.TypeFor[T](), expression, c.cache)
	if err != nil {
		return nil, err
	}
	if dt := underlyingType(d.DataType); dt != anyType && !isCollectionType(dt) {
		return nil, configErrorf("expression %q is not a collection", expression)
	}
	return c.addCollection(d, count, captionFormat, applyColumnOptions(opts))
}

// AddCollectionFunc expands the slice returned by get into count columns.
// caption is either a format with one %d verb or a base name that gets "[%d]"
// appended.
func AddCollectionFunc[T, V any](c *ExportConfigurator[T], caption string, get func(T) []V, count int, opts ...ColumnOption) ([]*ColumnExportConfig, error) {
	if get == nil {
		return nil, configErrorf("collection %q: getter is nil", caption)
	}
	captionFormat := caption
	if !strings.Contains(caption, "%") {
		captionFormat = caption + "[%d]"
	}
	d := MemberDescriptor{
		Name:     caption,
		DataType: reflect.TypeFor[[]V](),
		Getter: func(item any) (any, error) {
			return get(itemAs[T](item)), nil
		},
	}
	return c.addCollection(d, count, captionFormat, applyColumnOptions(opts))
}

func (c *ExportConfigurator[T]) addCollection(d MemberDescriptor, count int, captionFormat string, o columnOptions) ([]*ColumnExportConfig, error) {
	if count <= 0 || count >= MaxSheetColumns {
		return nil, configErrorf("collection column count %d must be between 1 and %d", count, MaxSheetColumns-1)
	}
	if captionFormat == "" {
		if d.Name == "" {
			return nil, configErrorf("caption format is required for a computed collection")
		}
		captionFormat = d.Name + "[%d]"
	}
	first := c.config.NextColumnIndex()
	if o.indexed {
		first = o.index
	}
	if first < 0 || first+count > MaxSheetColumns {
		return nil, configErrorf("collection %q: columns %d to %d are outside the sheet", d.Name, first, first+count-1)
	}
	for i := first; i < first+count; i++ {
		if used := c.config.ColumnAt(i); used != nil {
			return nil, configErrorf("collection %q: column %q is already configured for index %d", d.Name, used.Caption, i)
		}
	}
	cols := make([]*ColumnExportConfig, 0, count)
	for i := range count {
		caption := fmt.Sprintf(captionFormat, i)
		eo := o
		eo.caption = caption
		eo.index, eo.indexed = first+i, true
		col, err := c.addColumn(newElementColumn(caption, d, i), eo)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return cols, nil
}
