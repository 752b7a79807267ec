package excelei

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

// rowLimitMargin keeps exports this many rows short of the sheet row limit.
const rowLimitMargin = 5

// ExportOption configures exporters.
type ExportOption func(*exportOptions)

type exportOptions struct {
	logger  zerolog.Logger
	maxRows int
}

func defaultExportOptions() exportOptions {
	return exportOptions{logger: log.Logger, maxRows: MaxSheetRows}
}

// WithLogger sets the logger. The default is the global zerolog logger.
func WithLogger(l zerolog.Logger) ExportOption {
	return func(o *exportOptions) { o.logger = l }
}

// WithMaxRows lowers the sheet row limit used for truncation.
func WithMaxRows(n int) ExportOption {
	return func(o *exportOptions) {
		if n > 0 {
			o.maxRows = min(n, MaxSheetRows)
		}
	}
}

// ExportResult summarizes one sheet export.
type ExportResult struct {
	Rows int
	// Truncated is set when the export stopped at the sheet row limit.
	Truncated bool
}

// SheetExporter writes the items of a DataTable into a sheet.
type SheetExporter struct {
	sink   CellSink
	config *SheetExportConfig
	table  DataTable
	opts   exportOptions
}

// NewSheetExporter creates an exporter. The config must have at least one column.
func NewSheetExporter(sink CellSink, cfg *SheetExportConfig, table DataTable, opts ...ExportOption) (*SheetExporter, error) {
	if sink == nil || cfg == nil || table == nil {
		return nil, configErrorf("sink, config and data table are required")
	}
	if len(cfg.Columns()) == 0 {
		return nil, configErrorf("sheet %q has no columns", cfg.SheetName)
	}
	o := defaultExportOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &SheetExporter{sink: sink, config: cfg, table: table, opts: o}, nil
}

// Export writes the header, the data rows and the column widths. It stops
// early, without error, a few rows short of the sheet row limit.
func (e *SheetExporter) Export(ctx context.Context) (ExportResult, error) {
	cfg := e.config
	logger := e.opts.logger.With().Str("sheet", cfg.SheetName).Logger()
	logger.Debug().Msg("exporting sheet")

	var res ExportResult
	columns := slices.SortedFunc(slices.Values(cfg.Columns()), func(a, b *ColumnExportConfig) int {
		return cmp.Compare(a.Index, b.Index)
	})
	row := max(cfg.TopSheetRowIndex, 1)
	left := max(cfg.LeftSheetColumnIndex, 1)
	widths := make([]int, len(columns))

	if err := e.sink.SetView(cfg.ShowGridlines, cfg.ShowHeadings); err != nil {
		return res, err
	}
	if cfg.ColumnHeaders {
		for i, c := range columns {
			if err := e.sink.SetValue(row, left+c.Index, c.Caption, e.headerStyle(c)); err != nil {
				return res, fmt.Errorf("sheet %q: header %q: %w", cfg.SheetName, c.Caption, err)
			}
			widths[i] = utf8.RuneCountInString(c.Caption)
		}
		if cfg.FreezeHeader {
			if err := e.sink.FreezePanes(row+1, left+cfg.FreezeColumnIndex); err != nil {
				return res, err
			}
		}
		row++
	}
	for _, c := range columns {
		if c.MinWidth > 0 {
			if err := e.sink.SetColumnWidth(left+c.Index, c.MinWidth); err != nil {
				return res, err
			}
		}
	}

	limit := e.opts.maxRows - rowLimitMargin
	for item := range e.table.Items() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if row >= limit {
			logger.Warn().Int("rows", res.Rows).Msg("stopping export to stay within the sheet row limit")
			res.Truncated = true
			break
		}
		var background Color
		if cfg.DataRowBackground != nil {
			background = cfg.DataRowBackground(item, res.Rows)
		}
		for i, c := range columns {
			if err := e.writeCell(row, left+c.Index, c, item, res.Rows, background, &widths[i]); err != nil {
				return res, fmt.Errorf("sheet %q: row %d: column %q: %w", cfg.SheetName, res.Rows, c.Caption, err)
			}
		}
		row++
		res.Rows++
	}

	for i, c := range columns {
		if !c.AutoFit {
			continue
		}
		if err := e.sink.SetColumnWidth(left+c.Index, fitWidth(widths[i], c)); err != nil {
			return res, err
		}
	}
	logger.Debug().Int("rows", res.Rows).Bool("truncated", res.Truncated).Msg("finished sheet")
	return res, nil
}

func (e *SheetExporter) writeCell(row, col int, c *ColumnExportConfig, item any, ordinal int, background Color, width *int) error {
	v, err := c.Value(item)
	if err != nil {
		return err
	}
	style := CellStyle{
		Horizontal:   c.Horizontal,
		Vertical:     c.Vertical,
		Wrap:         c.Wrap,
		NumberFormat: c.Format,
		Background:   background,
		Border:       e.border(c, e.config.DataRowBorder),
	}
	if c.Background != nil {
		if bg := c.Background(item, ordinal); bg != ColorNone {
			style.Background = bg
		}
	}
	if c.FontColor != nil {
		style.FontColor = c.FontColor(item)
	}
	if err := e.sink.SetValue(row, col, v, style); err != nil {
		return err
	}
	if c.Comment != nil {
		if text := c.Comment(item); text != "" {
			if err := e.sink.SetComment(row, col, text); err != nil {
				return err
			}
		}
	}
	if c.AutoFit {
		*width = max(*width, renderedWidth(v, c.Format))
	}
	return nil
}

func (e *SheetExporter) headerStyle(c *ColumnExportConfig) CellStyle {
	vertical := e.config.HeaderVertical
	if vertical == VAlignDefault {
		vertical = c.Vertical
	}
	return CellStyle{
		Bold:       true,
		Background: e.config.HeaderBackground,
		Horizontal: c.Horizontal,
		Vertical:   vertical,
		Wrap:       c.Wrap,
		Border:     e.border(c, e.config.HeaderBorder),
	}
}

// border resolves the border of a cell: column, then row kind, then sheet default.
func (e *SheetExporter) border(c *ColumnExportConfig, row *Border) Border {
	for _, b := range []*Border{c.Border, row, e.config.DefaultBorder} {
		if b != nil {
			return *b
		}
	}
	return Border{}
}

// renderedWidth estimates the display width of a value in characters.
func renderedWidth(v any, format string) int {
	v = normalizeCellValue(v)
	switch x := v.(type) {
	case nil:
		return 0
	case time.Time:
		if format == "" {
			format = DefaultDateFormat
		}
		return utf8.RuneCountInString(format)
	case string:
		longest := 0
		for _, line := range strings.Split(x, "\n") {
			longest = max(longest, utf8.RuneCountInString(line))
		}
		return longest
	}
	return utf8.RuneCountInString(formatText(reflect.ValueOf(v)))
}

// fitWidth turns a character count into a column width within the column limits.
func fitWidth(chars int, c *ColumnExportConfig) float64 {
	w := float64(chars)*1.1 + 2
	if c.MaxWidth > 0 {
		w = min(w, c.MaxWidth)
	}
	return min(max(w, c.MinWidth), excelize.MaxColumnWidth)
}

// WorkbookExporter exports a DataSet into the sheets of a workbook.
type WorkbookExporter struct {
	config *WorkbookExportConfig
	opts   []ExportOption
}

// NewWorkbookExporter creates a workbook exporter.
func NewWorkbookExporter(cfg *WorkbookExportConfig, opts ...ExportOption) *WorkbookExporter {
	return &WorkbookExporter{config: cfg, opts: opts}
}

// Export writes every configured sheet into f, feeding each from the data
// table named by its DataTableName. The empty Sheet1 of a fresh
// excelize.NewFile is removed unless it is configured; other sheets are kept.
func (e *WorkbookExporter) Export(ctx context.Context, f *excelize.File, ds DataSet) (map[string]ExportResult, error) {
	if e.config == nil || len(e.config.Sheets()) == 0 {
		return nil, configErrorf("workbook config has no sheets")
	}
	defaultSheet := isDefaultSheet(f)
	results := make(map[string]ExportResult, len(e.config.Sheets()))
	for _, s := range e.config.Sheets() {
		table, ok := ds[s.DataTableName]
		if !ok {
			return results, configErrorf("sheet %q: data table %q not found", s.SheetName, s.DataTableName)
		}
		sink, err := NewExcelizeSink(f, s.SheetName)
		if err != nil {
			return results, err
		}
		exporter, err := NewSheetExporter(sink, s, table, e.opts...)
		if err != nil {
			return results, err
		}
		res, err := exporter.Export(ctx)
		if err != nil {
			return results, err
		}
		results[s.SheetName] = res
	}

	if _, configured := e.config.SheetConfig(newFileSheet); defaultSheet && !configured {
		if err := f.DeleteSheet(newFileSheet); err != nil {
			return results, err
		}
	}
	if idx, err := f.GetSheetIndex(e.config.Sheets()[0].SheetName); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}
	return results, nil
}

// newFileSheet is the sheet excelize.NewFile creates.
const newFileSheet = "Sheet1"

// isDefaultSheet reports whether f still holds the untouched sheet created by
// excelize.NewFile: the only sheet, named Sheet1, with no cells.
func isDefaultSheet(f *excelize.File) bool {
	sheets := f.GetSheetList()
	if len(sheets) != 1 || sheets[0] != newFileSheet {
		return false
	}
	rows, err := f.GetRows(newFileSheet)
	if err != nil || len(rows) > 0 {
		return false
	}
	comments, err := f.GetComments(newFileSheet)
	return err == nil && len(comments) == 0
}

// ExportFile exports ds into a new workbook saved at path.
func ExportFile(ctx context.Context, path string, cfg *WorkbookExportConfig, ds DataSet, opts ...ExportOption) (err error) {
	f := excelize.NewFile()
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	if _, err := NewWorkbookExporter(cfg, opts...).Export(ctx, f, ds); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %q: %w", path, err)
	}
	return nil
}
