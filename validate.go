package excelei

import (
	"fmt"
	"reflect"
	"slices"
)

// Severity indicates the severity of a validation issue.
type Severity int

const (
	SeverityError   Severity = iota // Export will fail or write a broken sheet
	SeverityWarning                 // Export works but the sheet may not read back as expected
)

// ValidationIssue represents a single problem found in a sheet export config.
type ValidationIssue struct {
	Severity Severity
	// Column is the caption of the offending column, empty for sheet-level issues.
	Column  string
	Message string
}

// String formats the issue as "[ERROR] sheet: message" or "[WARN] Amount: message".
func (v ValidationIssue) String() string {
	sev := "ERROR"
	if v.Severity == SeverityWarning {
		sev = "WARN"
	}
	where := v.Column
	if where == "" {
		where = "sheet"
	}
	return fmt.Sprintf("[%s] %s: %s", sev, where, v.Message)
}

// ValidateSheetConfig checks a sheet config without exporting anything.
func ValidateSheetConfig(cfg *SheetExportConfig) []ValidationIssue {
	var issues []ValidationIssue
	if err := ValidateSheetName(cfg.SheetName); err != nil {
		issues = append(issues, ValidationIssue{Severity: SeverityError, Message: err.Error()})
	}
	if cfg.TopSheetRowIndex < 1 || cfg.TopSheetRowIndex > MaxSheetRows {
		issues = append(issues, ValidationIssue{
			Severity: SeverityError,
			Message:  fmt.Sprintf("top row %d is outside 1..%d", cfg.TopSheetRowIndex, MaxSheetRows),
		})
	}
	if cfg.LeftSheetColumnIndex < 1 {
		issues = append(issues, ValidationIssue{
			Severity: SeverityError,
			Message:  fmt.Sprintf("left column %d is before column 1", cfg.LeftSheetColumnIndex),
		})
	}
	if len(cfg.Columns()) == 0 {
		issues = append(issues, ValidationIssue{Severity: SeverityError, Message: "no columns configured"})
	}
	issues = append(issues, validateColumns(cfg)...)
	issues = append(issues, validateCaptions(cfg)...)
	return issues
}

// validateColumns checks each column on its own.
func validateColumns(cfg *SheetExportConfig) []ValidationIssue {
	var issues []ValidationIssue
	left := max(cfg.LeftSheetColumnIndex, 1)
	for _, c := range cfg.Columns() {
		if c.Source == nil {
			issues = append(issues, ValidationIssue{Severity: SeverityError, Column: c.Caption, Message: "column has no source"})
		}
		if left+c.Index > MaxSheetColumns {
			issues = append(issues, ValidationIssue{
				Severity: SeverityError,
				Column:   c.Caption,
				Message:  fmt.Sprintf("sheet column %d exceeds the limit of %d columns", left+c.Index, MaxSheetColumns),
			})
		}
		if c.MinWidth < 0 || c.MaxWidth < 0 {
			issues = append(issues, ValidationIssue{Severity: SeverityError, Column: c.Caption, Message: "column width limits cannot be negative"})
		}
		if c.MaxWidth > 0 && c.MinWidth > c.MaxWidth {
			issues = append(issues, ValidationIssue{
				Severity: SeverityError,
				Column:   c.Caption,
				Message:  fmt.Sprintf("minimum width %g exceeds maximum width %g", c.MinWidth, c.MaxWidth),
			})
		}
		if c.Format != "" && c.Source != nil && c.Source.DataType().Kind() == reflect.String {
			issues = append(issues, ValidationIssue{
				Severity: SeverityWarning,
				Column:   c.Caption,
				Message:  fmt.Sprintf("number format %q has no effect on text values", c.Format),
			})
		}
	}
	return issues
}

// validateCaptions flags captions that cannot be told apart when the sheet is read back.
func validateCaptions(cfg *SheetExportConfig) []ValidationIssue {
	var issues []ValidationIssue
	if !cfg.ColumnHeaders {
		return nil
	}
	seen := make(map[string]int)
	var order []string
	for _, c := range cfg.Columns() {
		if c.Caption == "" {
			issues = append(issues, ValidationIssue{
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("column %d has an empty caption and ends the header when read back", c.Index),
			})
			continue
		}
		if seen[c.Caption] == 0 {
			order = append(order, c.Caption)
		}
		seen[c.Caption]++
	}
	for _, caption := range order {
		if n := seen[caption]; n > 1 {
			issues = append(issues, ValidationIssue{
				Severity: SeverityWarning,
				Column:   caption,
				Message:  fmt.Sprintf("caption is used by %d columns; reading the sheet back is ambiguous", n),
			})
		}
	}
	if gaps := columnGaps(cfg); len(gaps) > 0 {
		issues = append(issues, ValidationIssue{
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("empty columns at indices %v split the header when read back", gaps),
		})
	}
	return issues
}

// columnGaps lists unused indices between the first and last configured column.
func columnGaps(cfg *SheetExportConfig) []int {
	indices := make([]int, 0, len(cfg.Columns()))
	for _, c := range cfg.Columns() {
		indices = append(indices, c.Index)
	}
	slices.Sort(indices)
	var gaps []int
	for i := 1; i < len(indices); i++ {
		for g := indices[i-1] + 1; g < indices[i]; g++ {
			gaps = append(gaps, g)
		}
	}
	return gaps
}
