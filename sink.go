package excelei

import (
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// CellSink receives cell values and formatting. Rows and columns are 1-based
// sheet coordinates.
type CellSink interface {
	SetValue(row, col int, value any, style CellStyle) error
	SetComment(row, col int, text string) error
	SetColumnWidth(col int, width float64) error
	// FreezePanes freezes everything above row and left of col; the cell at
	// (row, col) becomes the top-left scrollable cell.
	FreezePanes(row, col int) error
	// SetView toggles grid lines and row/column headings; nil leaves a setting unchanged.
	SetView(gridlines, headings *bool) error
}

// DefaultDateFormat is used for date values written without a number format.
const DefaultDateFormat = "yyyy-mm-dd hh:mm:ss"

// CommentAuthor is the author recorded on comments written by ExcelizeSink.
const CommentAuthor = "excelei"

// ExcelizeSink implements CellSink over one sheet of an excelize workbook.
type ExcelizeSink struct {
	file       *excelize.File
	sheet      string
	styleCache map[CellStyle]int // style → excelize style id

	mu sync.Mutex // protects concurrent access
}

// NewExcelizeSink creates a sink writing to sheet, which is created when missing.
func NewExcelizeSink(f *excelize.File, sheet string) (*ExcelizeSink, error) {
	if err := ValidateSheetName(sheet); err != nil {
		return nil, err
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("create sheet %q: %w", sheet, err)
		}
	}
	return &ExcelizeSink{
		file:       f,
		sheet:      sheet,
		styleCache: make(map[CellStyle]int),
	}, nil
}

// Sheet returns the sheet name.
func (s *ExcelizeSink) Sheet() string { return s.sheet }

// File returns the underlying excelize file for advanced operations.
func (s *ExcelizeSink) File() *excelize.File { return s.file }

// SetValue writes value with style. Nil leaves the cell empty but styled.
func (s *ExcelizeSink) SetValue(row, col int, value any, style CellStyle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	link, isLink := asHyperlink(value)
	value = normalizeCellValue(value)
	if _, ok := value.(time.Time); ok && style.NumberFormat == "" {
		style.NumberFormat = DefaultDateFormat
	}
	if value != nil {
		if err := s.file.SetCellValue(s.sheet, cell, value); err != nil {
			return fmt.Errorf("write cell %s!%s: %w", s.sheet, cell, err)
		}
	}
	if isLink && link.URL != "" {
		if err := s.setHyperlink(cell, link); err != nil {
			return err
		}
	}
	if style.IsZero() {
		return nil
	}
	id, err := s.styleID(style)
	if err != nil {
		return err
	}
	return s.file.SetCellStyle(s.sheet, cell, cell, id)
}

func asHyperlink(v any) (Hyperlink, bool) {
	switch h := v.(type) {
	case Hyperlink:
		return h, true
	case *Hyperlink:
		if h != nil {
			return *h, true
		}
	}
	return Hyperlink{}, false
}

func (s *ExcelizeSink) setHyperlink(cell string, link Hyperlink) error {
	display := link.String()
	opts := excelize.HyperlinkOpts{Display: &display}
	if link.Tooltip != "" {
		opts.Tooltip = &link.Tooltip
	}
	if err := s.file.SetCellHyperLink(s.sheet, cell, link.URL, "External", opts); err != nil {
		return fmt.Errorf("link cell %s!%s: %w", s.sheet, cell, err)
	}
	return nil
}

// normalizeCellValue turns values excelize cannot write natively into ones it can.
func normalizeCellValue(v any) any {
	rv := reflect.ValueOf(nilIfEmpty(v))
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil
	}
	switch x := rv.Interface().(type) {
	case time.Time, bool, string, []byte, float32, float64,
		int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return x
	case time.Duration:
		// excelize stores durations as float32 day counts.
		return float64(x) / float64(24*time.Hour)
	case decimal.Decimal:
		f, _ := x.Float64()
		return f
	case decimal.NullDecimal:
		if !x.Valid {
			return nil
		}
		f, _ := x.Decimal.Float64()
		return f
	case uuid.UUID:
		return x.String()
	case uuid.NullUUID:
		if !x.Valid {
			return nil
		}
		return x.UUID.String()
	case fmt.Stringer:
		return x.String()
	}
	switch k := rv.Kind(); {
	case k == reflect.String:
		return rv.String()
	case k == reflect.Bool:
		return rv.Bool()
	case isIntKind(k):
		return rv.Int()
	case isUintKind(k):
		return rv.Uint()
	case isFloatKind(k):
		return rv.Float()
	}
	return fmt.Sprint(rv.Interface())
}

func (s *ExcelizeSink) styleID(style CellStyle) (int, error) {
	if id, ok := s.styleCache[style]; ok {
		return id, nil
	}
	id, err := s.file.NewStyle(excelizeStyle(style))
	if err != nil {
		return 0, fmt.Errorf("create style: %w", err)
	}
	s.styleCache[style] = id
	return id, nil
}

func excelizeStyle(style CellStyle) *excelize.Style {
	st := &excelize.Style{}
	if style.Bold || style.FontColor != ColorNone {
		st.Font = &excelize.Font{Bold: style.Bold, Color: style.FontColor.hex()}
	}
	if style.Background != ColorNone {
		st.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{style.Background.hex()}}
	}
	if style.Horizontal != AlignGeneral || style.Vertical != VAlignDefault || style.Wrap {
		st.Alignment = &excelize.Alignment{
			Horizontal: style.Horizontal.String(),
			Vertical:   style.Vertical.String(),
			WrapText:   style.Wrap,
		}
	}
	if style.NumberFormat != "" {
		format := style.NumberFormat
		st.CustomNumFmt = &format
	}
	if style.Border.Style != BorderNone {
		color := style.Border.Color.hex()
		for _, side := range []string{"left", "top", "right", "bottom"} {
			st.Border = append(st.Border, excelize.Border{Type: side, Color: color, Style: int(style.Border.Style)})
		}
	}
	return st
}

// SetComment attaches a comment to a cell.
func (s *ExcelizeSink) SetComment(row, col int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return s.file.AddComment(s.sheet, excelize.Comment{Author: CommentAuthor, Cell: cell, Text: text})
}

// SetColumnWidth sets the width of a column, clamped to the spreadsheet maximum.
func (s *ExcelizeSink) SetColumnWidth(col int, width float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return err
	}
	return s.file.SetColWidth(s.sheet, name, name, min(width, excelize.MaxColumnWidth))
}

// FreezePanes freezes the rows above row and the columns left of col.
func (s *ExcelizeSink) FreezePanes(row, col int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if row <= 1 && col <= 1 {
		return nil
	}
	topLeft, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	pane := "bottomRight"
	switch {
	case col <= 1:
		pane = "bottomLeft"
	case row <= 1:
		pane = "topRight"
	}
	return s.file.SetPanes(s.sheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      col - 1,
		YSplit:      row - 1,
		TopLeftCell: topLeft,
		ActivePane:  pane,
	})
}

// SetView toggles grid lines and headings.
func (s *ExcelizeSink) SetView(gridlines, headings *bool) error {
	if gridlines == nil && headings == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.SetSheetView(s.sheet, -1, &excelize.ViewOptions{
		ShowGridLines:     gridlines,
		ShowRowColHeaders: headings,
	})
}
