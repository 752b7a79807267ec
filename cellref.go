package excelei

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/xuri/excelize/v2"
)

// MaxSheetRows is the row limit of a worksheet.
const MaxSheetRows = excelize.TotalRows

// MaxSheetColumns is the column limit of a worksheet.
const MaxSheetColumns = excelize.MaxColumns

// CellRef locates a cell by 0-based row and column. An empty Sheet means the
// sheet being read or written.
type CellRef struct {
	Sheet string
	Row   int
	Col   int
}

// NewCellRef returns the CellRef for sheet, row and col.
func NewCellRef(sheet string, row, col int) CellRef {
	return CellRef{Sheet: sheet, Row: row, Col: col}
}

// ParseCellRef parses A1 notation with an optional sheet prefix and absolute
// markers: "B5", "Data!B5", "'My Sheet'!$B$5".
func ParseCellRef(s string) (CellRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return CellRef{}, configErrorf("empty cell reference")
	}

	var sheet string
	cellPart := s
	if idx := strings.LastIndex(s, "!"); idx >= 0 {
		sheet = strings.Trim(s[:idx], "'")
		cellPart = s[idx+1:]
	}

	cellPart = strings.ReplaceAll(cellPart, "$", "")
	col, row, err := excelize.CellNameToCoordinates(cellPart)
	if err != nil {
		return CellRef{}, configErrorf("invalid cell reference %q: %v", s, err)
	}
	return CellRef{Sheet: sheet, Row: row - 1, Col: col - 1}, nil
}

// String returns "Sheet!A1", or "A1" without a sheet.
func (c CellRef) String() string {
	name := c.CellName()
	if c.Sheet != "" {
		return c.Sheet + "!" + name
	}
	return name
}

// CellName returns the A1 name of the cell.
func (c CellRef) CellName() string {
	return ColToName(c.Col) + strconv.Itoa(c.Row+1)
}

// ColToName returns the letters of a 0-based column: 0 is "A", 26 is "AA".
func ColToName(col int) string {
	var buf [16]byte
	i := len(buf)
	for n := col + 1; n > 0; n = (n - 1) / 26 {
		i--
		buf[i] = byte('A' + (n-1)%26)
	}
	return string(buf[i:])
}

// NameToCol returns the 0-based index of a column given by letters.
func NameToCol(name string) (int, error) {
	n, err := excelize.ColumnNameToNumber(name)
	if err != nil {
		return 0, configErrorf("invalid column %q: %v", name, err)
	}
	return n - 1, nil
}

// AreaRef is the rectangle between two corner cells, both inclusive.
type AreaRef struct {
	First CellRef
	Last  CellRef
}

// ParseAreaRef parses a range such as "A1:C5" or "Data!A1:C5". The last
// corner takes the sheet of the first when it has none.
func ParseAreaRef(s string) (AreaRef, error) {
	s = strings.TrimSpace(s)
	first, last, ok := strings.Cut(s, ":")
	if !ok {
		return AreaRef{}, configErrorf("area reference %q has no ':'", s)
	}
	var a AreaRef
	var err error
	if a.First, err = ParseCellRef(first); err != nil {
		return AreaRef{}, fmt.Errorf("area %q: %w", s, err)
	}
	if a.Last, err = ParseCellRef(last); err != nil {
		return AreaRef{}, fmt.Errorf("area %q: %w", s, err)
	}
	if a.Last.Sheet == "" {
		a.Last.Sheet = a.First.Sheet
	}
	return a, nil
}

// String returns the range in A1 notation.
func (a AreaRef) String() string {
	if a.First.Sheet != "" && a.First.Sheet == a.Last.Sheet {
		return a.First.Sheet + "!" + a.First.CellName() + ":" + a.Last.CellName()
	}
	return a.First.String() + ":" + a.Last.String()
}

// ValidateSheetName checks that name is usable as a worksheet name.
func ValidateSheetName(name string) error {
	if strings.TrimSpace(name) == "" {
		return configErrorf("sheet name must not be blank")
	}
	if len(utf16.Encode([]rune(name))) > excelize.MaxSheetNameLength {
		return configErrorf("sheet name %q must not exceed %d characters", name, excelize.MaxSheetNameLength)
	}
	if strings.ContainsAny(name, `/\:*?[]`) {
		return configErrorf("sheet name %q contains a forbidden character", name)
	}
	return nil
}

// SafeSheetName replaces characters not allowed in sheet names with '_' and
// truncates the result to the sheet name limit.
func SafeSheetName(name string) string {
	runes := []rune(name)
	for i, r := range runes {
		if strings.ContainsRune(`/\:*?[]`, r) {
			runes[i] = '_'
		}
	}
	if len(runes) > excelize.MaxSheetNameLength {
		runes = runes[:excelize.MaxSheetNameLength]
	}
	if len(runes) == 0 {
		return "Sheet1"
	}
	return string(runes)
}
