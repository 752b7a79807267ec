package excelei

import (
	"strings"
)

// Color is an RGB color in hex notation such as "FAF8F8". The empty Color
// means no color.
type Color string

const (
	ColorNone      Color = ""
	ColorWhite     Color = "FFFFFF"
	ColorBlack     Color = "000000"
	ColorRed       Color = "FF0000"
	ColorLightGray Color = "D3D3D3"
	// ColorBand is the default header fill and odd data row fill.
	ColorBand Color = "FAF8F8"
)

func (c Color) hex() string {
	return strings.ToUpper(strings.TrimPrefix(string(c), "#"))
}

// HorizontalAlignment of cell content.
type HorizontalAlignment int

const (
	AlignGeneral HorizontalAlignment = iota
	AlignLeft
	AlignCenter
	AlignRight
)

var horizontalNames = map[HorizontalAlignment]string{
	AlignGeneral: "",
	AlignLeft:    "left",
	AlignCenter:  "center",
	AlignRight:   "right",
}

// String returns the spreadsheet name of the alignment.
func (a HorizontalAlignment) String() string { return horizontalNames[a] }

// ParseHorizontalAlignment accepts "left", "center", "right" or "general".
func ParseHorizontalAlignment(s string) (HorizontalAlignment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "general":
		return AlignGeneral, nil
	case "left":
		return AlignLeft, nil
	case "center", "centre":
		return AlignCenter, nil
	case "right":
		return AlignRight, nil
	}
	return AlignGeneral, configErrorf("unknown horizontal alignment %q", s)
}

// VerticalAlignment of cell content.
type VerticalAlignment int

const (
	VAlignDefault VerticalAlignment = iota
	VAlignTop
	VAlignCenter
	VAlignBottom
)

// String returns the spreadsheet name of the alignment.
func (a VerticalAlignment) String() string {
	switch a {
	case VAlignTop:
		return "top"
	case VAlignCenter:
		return "center"
	case VAlignBottom:
		return "bottom"
	}
	return ""
}

// BorderStyle is a cell border line style. Values match the spreadsheet
// border style ids.
type BorderStyle int

const (
	BorderNone BorderStyle = iota
	BorderThin
	BorderMedium
	BorderDashed
	BorderDotted
	BorderThick
	BorderDouble
	BorderHair
	BorderMediumDashed
	BorderDashDot
	BorderMediumDashDot
	BorderDashDotDot
	BorderMediumDashDotDot
	BorderSlantDashDot
)

// Border is a line style and color applied to all four sides of a cell.
type Border struct {
	Style BorderStyle
	Color Color
}

// CellStyle is the complete formatting of one written cell. It is comparable
// so sinks can cache the styles they create.
type CellStyle struct {
	Bold         bool
	FontColor    Color
	Background   Color
	Horizontal   HorizontalAlignment
	Vertical     VerticalAlignment
	Wrap         bool
	NumberFormat string
	Border       Border
}

// IsZero reports whether the style carries no formatting.
func (s CellStyle) IsZero() bool { return s == CellStyle{} }
