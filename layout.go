package excelei

import (
	"errors"
	"io"
	"reflect"

	"gopkg.in/yaml.v3"
)

// Layout is a declarative sheet export layout for relational tables, usually
// loaded from YAML:
//
//	sheet: Orders
//	table: orders
//	columns:
//	  - expr: id
//	    caption: Order
//	  - expr: qty * price
//	    caption: Total
//	    format: "#,##0.00"
//	    width: {min: 10, max: 20}
type Layout struct {
	Sheet string `yaml:"sheet"`
	Table string `yaml:"table"`
	// Headers turns the header row off when false.
	Headers *bool `yaml:"headers"`
	// FreezeColumns is the number of leading columns kept visible while scrolling.
	FreezeColumns *int           `yaml:"freeze_columns"`
	Gridlines     *bool          `yaml:"gridlines"`
	Banding       *bool          `yaml:"banding"`
	Columns       []LayoutColumn `yaml:"columns"`
}

// LayoutColumn is one column of a Layout. Expr is an expr-lang expression
// over the row's column values; a plain column name copies that column.
type LayoutColumn struct {
	Expr    string       `yaml:"expr"`
	Caption string       `yaml:"caption"`
	Index   *int         `yaml:"index"`
	Format  string       `yaml:"format"`
	Width   *LayoutWidth `yaml:"width"`
	AutoFit *bool        `yaml:"autofit"`
	Align   string       `yaml:"align"`
	Wrap    bool         `yaml:"wrap"`
}

// LayoutWidth bounds a column width. Zero means unbounded.
type LayoutWidth struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// LoadLayout decodes a YAML layout. Unknown keys are rejected.
func LoadLayout(r io.Reader) (*Layout, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var l Layout
	if err := dec.Decode(&l); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, configErrorf("layout is empty")
		}
		return nil, configErrorf("decode layout: %v", err)
	}
	return &l, nil
}

var rowMapType = reflect.TypeFor[map[string]any]()

// Configure builds a sheet config for t, which may be nil when the layout is
// only checked. A layout without columns exports every column of t.
func (l *Layout) Configure(t *Table) (*SheetExportConfig, error) {
	var cfg *SheetExportConfig
	switch {
	case len(l.Columns) == 0 && t != nil:
		cfg = NewTableExportConfig(t)
	case len(l.Columns) == 0:
		return nil, configErrorf("layout has no columns")
	default:
		name := "Sheet1"
		if t != nil {
			name = SafeSheetName(t.Name)
		}
		cfg = NewSheetExportConfig(name)
		if t != nil {
			cfg.DataTableName = t.Name
		}
	}
	if l.Sheet != "" {
		cfg.SheetName = l.Sheet
	}
	if l.Table != "" {
		cfg.DataTableName = l.Table
	}
	if l.Headers != nil {
		cfg.ColumnHeaders = *l.Headers
	}
	if l.FreezeColumns != nil {
		cfg.FreezeColumnIndex = *l.FreezeColumns
	}
	cfg.ShowGridlines = l.Gridlines
	if l.Banding != nil && !*l.Banding {
		cfg.DataRowBackground = nil
	}

	for i, lc := range l.Columns {
		col, err := lc.configure(t, cfg.NextColumnIndex())
		if err != nil {
			return nil, configErrorf("layout column %d: %v", i, err)
		}
		if err := cfg.AddColumn(col); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (lc LayoutColumn) configure(t *Table, next int) (*ColumnExportConfig, error) {
	d, err := DescribeExpression(rowMapType, lc.Expr, nil)
	if err != nil {
		return nil, err
	}
	if t != nil && d.Resolved {
		if c, ok := t.Column(d.Name); ok {
			d.DataType = c.DataType
		}
	}
	getter := d.Getter
	d.Getter = func(item any) (any, error) {
		row, ok := asTableRow(item)
		if !ok {
			return getter(item)
		}
		m, err := ToMap(row)
		if err != nil {
			return nil, err
		}
		return getter(m)
	}
	src, err := newDescribedColumn(d, lc.Caption, true)
	if err != nil {
		return nil, err
	}

	index := next
	if lc.Index != nil {
		index = *lc.Index
	}
	col := NewColumnExportConfig(index, src.Name(), src)
	if lc.Format != "" {
		col.Format = lc.Format
	}
	if lc.Width != nil {
		col.MinWidth = lc.Width.Min
		col.MaxWidth = lc.Width.Max
	}
	if lc.AutoFit != nil {
		col.AutoFit = *lc.AutoFit
	}
	if lc.Align != "" {
		if col.Horizontal, err = ParseHorizontalAlignment(lc.Align); err != nil {
			return nil, err
		}
	}
	col.Wrap = lc.Wrap
	return col, nil
}
