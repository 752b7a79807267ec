package excelei

import (
	"reflect"
)

// DefaultDateTimeFormat is the number format given to date columns.
const DefaultDateTimeFormat = "dd-mmm-yyyy hh:mm:ss AM/PM"

// DefaultStringMaxWidth caps auto-fitted text columns.
const DefaultStringMaxWidth = 50

// ColumnExportConfig describes how one sheet column is populated and formatted.
type ColumnExportConfig struct {
	// Index is the 0-based column position relative to LeftSheetColumnIndex.
	Index   int
	Caption string
	Source  ColumnSource

	Horizontal HorizontalAlignment
	Vertical   VerticalAlignment
	Wrap       bool
	// Format is a spreadsheet number format such as "0.00" or "yyyy-mm-dd".
	Format string
	// Border overrides the sheet's header and data row borders for this column.
	Border *Border

	AutoFit  bool
	MinWidth float64 // 0 means no minimum
	MaxWidth float64 // 0 means no maximum

	FontColor  func(item any) Color
	Background func(item any, ordinal int) Color
	Comment    func(item any) string
}

// NewColumnExportConfig creates a column config with formatting derived from
// the source data type: numbers, booleans, durations and dates are right
// aligned, dates get DefaultDateTimeFormat and text is capped at
// DefaultStringMaxWidth when auto-fitted.
func NewColumnExportConfig(index int, caption string, src ColumnSource) *ColumnExportConfig {
	c := &ColumnExportConfig{
		Index:      index,
		Caption:    caption,
		Source:     src,
		Horizontal: AlignLeft,
		Vertical:   VAlignTop,
		AutoFit:    true,
	}
	if src == nil {
		return c
	}
	dt := src.DataType()
	switch {
	case dt == timeType:
		c.Horizontal = AlignRight
		c.Format = DefaultDateTimeFormat
	case isPrimitiveType(dt):
		c.Horizontal = AlignRight
	case dt.Kind() == reflect.String:
		c.MaxWidth = DefaultStringMaxWidth
	}
	return c
}

func isPrimitiveType(t reflect.Type) bool {
	k := t.Kind()
	return isNumericKind(k) || k == reflect.Bool || t == decimalType
}

// Value extracts the cell value for item.
func (c *ColumnExportConfig) Value(item any) (any, error) {
	if c.Source == nil {
		return nil, nil
	}
	return c.Source.Value(item)
}

// SheetExportConfig describes one exported sheet.
type SheetExportConfig struct {
	SheetName string
	// DataTableName selects the data table of a DataSet; it defaults to SheetName.
	DataTableName string

	// TopSheetRowIndex and LeftSheetColumnIndex are 1-based like the
	// spreadsheet UI and locate the header (or first data) cell of column 0.
	TopSheetRowIndex     int
	LeftSheetColumnIndex int

	ColumnHeaders    bool
	HeaderBackground Color
	HeaderBorder     *Border
	HeaderVertical   VerticalAlignment

	// FreezeHeader freezes the panes below the header and right of the
	// first FreezeColumnIndex columns.
	FreezeHeader      bool
	FreezeColumnIndex int

	ShowGridlines *bool
	ShowHeadings  *bool

	EvenRowBackground Color
	OddRowBackground  Color
	// DataRowBackground picks a fill per data row. The default alternates
	// EvenRowBackground and OddRowBackground.
	DataRowBackground func(item any, ordinal int) Color
	DataRowBorder     *Border
	// DefaultBorder applies to every written cell with no other border.
	DefaultBorder *Border

	columns []*ColumnExportConfig
}

// NewSheetExportConfig creates a sheet config with banded data rows, a
// shaded bold header and thin light gray borders.
func NewSheetExportConfig(sheetName string) *SheetExportConfig {
	s := &SheetExportConfig{
		SheetName:            sheetName,
		DataTableName:        sheetName,
		TopSheetRowIndex:     1,
		LeftSheetColumnIndex: 1,
		ColumnHeaders:        true,
		HeaderBackground:     ColorBand,
		HeaderBorder:         &Border{Style: BorderThin, Color: ColorLightGray},
		HeaderVertical:       VAlignTop,
		FreezeHeader:         true,
		FreezeColumnIndex:    1,
		EvenRowBackground:    ColorWhite,
		OddRowBackground:     ColorBand,
		DataRowBorder:        &Border{Style: BorderThin, Color: ColorLightGray},
	}
	s.DataRowBackground = s.bandedBackground
	return s
}

func (s *SheetExportConfig) bandedBackground(_ any, ordinal int) Color {
	if ordinal%2 == 0 {
		return s.EvenRowBackground
	}
	return s.OddRowBackground
}

// DisableHeaderFormatting removes the header fill and border.
func (s *SheetExportConfig) DisableHeaderFormatting() {
	s.HeaderBackground = ColorNone
	s.HeaderBorder = nil
}

// DisableDataRowFormatting removes data row banding and borders.
func (s *SheetExportConfig) DisableDataRowFormatting() {
	s.DataRowBackground = nil
	s.DataRowBorder = nil
}

// DisableCellFormatting removes header and data row fills and borders.
func (s *SheetExportConfig) DisableCellFormatting() {
	s.DisableHeaderFormatting()
	s.DisableDataRowFormatting()
}

// AddColumn appends c. The column index must not be taken yet.
func (s *SheetExportConfig) AddColumn(c *ColumnExportConfig) error {
	if c == nil {
		return configErrorf("column config is nil")
	}
	if c.Index < 0 {
		return configErrorf("column %q: index %d is negative", c.Caption, c.Index)
	}
	if s.ColumnAt(c.Index) != nil {
		return configErrorf("sheet %q: the sheet column population is already configured for index %d", s.SheetName, c.Index)
	}
	s.columns = append(s.columns, c)
	return nil
}

// Columns returns the column configs in the order they were added.
func (s *SheetExportConfig) Columns() []*ColumnExportConfig { return s.columns }

// ColumnAt returns the column at the relative index, or nil.
func (s *SheetExportConfig) ColumnAt(index int) *ColumnExportConfig {
	for _, c := range s.columns {
		if c.Index == index {
			return c
		}
	}
	return nil
}

// ColumnByCaption returns the first column with the caption, or nil.
func (s *SheetExportConfig) ColumnByCaption(caption string) *ColumnExportConfig {
	for _, c := range s.columns {
		if c.Caption == caption {
			return c
		}
	}
	return nil
}

// NextColumnIndex returns the index following the highest used one.
func (s *SheetExportConfig) NextColumnIndex() int {
	next := 0
	for _, c := range s.columns {
		next = max(next, c.Index+1)
	}
	return next
}

// NewTableExportConfig configures every column of t in ordinal order.
func NewTableExportConfig(t *Table) *SheetExportConfig {
	s := NewSheetExportConfig(SafeSheetName(t.Name))
	s.DataTableName = t.Name
	for i, src := range t.Source().Columns() {
		// Indices are unique by construction.
		_ = s.AddColumn(NewColumnExportConfig(i, src.Name(), src))
	}
	return s
}

// NewSourceExportConfig configures every column of src in order.
func NewSourceExportConfig(sheetName string, src TableSource) (*SheetExportConfig, error) {
	if err := ValidateSheetName(sheetName); err != nil {
		return nil, err
	}
	s := NewSheetExportConfig(sheetName)
	for i, c := range src.Columns() {
		if err := s.AddColumn(NewColumnExportConfig(i, c.Name(), c)); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// WorkbookExportConfig is an ordered set of sheet configs.
type WorkbookExportConfig struct {
	sheets []*SheetExportConfig
}

// NewWorkbookExportConfig creates a workbook config from sheets.
func NewWorkbookExportConfig(sheets ...*SheetExportConfig) (*WorkbookExportConfig, error) {
	w := &WorkbookExportConfig{}
	for _, s := range sheets {
		if err := w.AddSheet(s); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// NewDataSetExportConfig auto-configures one sheet per table of ds, in table
// name order. Relational tables use their columns; other tables are described
// by the exported fields of their first item.
func NewDataSetExportConfig(ds DataSet) (*WorkbookExportConfig, error) {
	w := &WorkbookExportConfig{}
	for _, name := range ds.Names() {
		var s *SheetExportConfig
		switch t := ds[name].(type) {
		case *Table:
			s = NewTableExportConfig(t)
			s.DataTableName = name
		default:
			src, err := itemTableSource(t)
			if err != nil {
				return nil, configErrorf("data table %q: %v", name, err)
			}
			if s, err = NewSourceExportConfig(SafeSheetName(name), src); err != nil {
				return nil, err
			}
			s.DataTableName = name
		}
		if err := w.AddSheet(s); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func itemTableSource(t DataTable) (TableSource, error) {
	for item := range t.Items() {
		if item != nil {
			return structTableSource(reflect.TypeOf(item))
		}
	}
	return nil, configErrorf("no items to derive columns from")
}

// AddSheet appends s. Sheet names must be unique.
func (w *WorkbookExportConfig) AddSheet(s *SheetExportConfig) error {
	if s == nil {
		return configErrorf("sheet config is nil")
	}
	if err := ValidateSheetName(s.SheetName); err != nil {
		return err
	}
	if _, dup := w.SheetConfig(s.SheetName); dup {
		return configErrorf("duplicate sheet %q", s.SheetName)
	}
	w.sheets = append(w.sheets, s)
	return nil
}

// Sheets returns the sheet configs in order.
func (w *WorkbookExportConfig) Sheets() []*SheetExportConfig { return w.sheets }

// SheetConfig looks a sheet config up by sheet name.
func (w *WorkbookExportConfig) SheetConfig(name string) (*SheetExportConfig, bool) {
	for _, s := range w.sheets {
		if s.SheetName == name {
			return s, true
		}
	}
	return nil, false
}
