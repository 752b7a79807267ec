package excelei

import "github.com/expr-lang/expr"

// Hyperlink is a cell value that links to a URL. ExcelizeSink writes its text
// and attaches the link to the cell.
type Hyperlink struct {
	URL     string
	Display string
	Tooltip string
}

// String returns the display text for the hyperlink.
func (h Hyperlink) String() string {
	if h.Display != "" {
		return h.Display
	}
	return h.URL
}

// Link creates a Hyperlink. Column getters can return it to export links.
func Link(url, display string) Hyperlink {
	return Hyperlink{URL: url, Display: display}
}

// hyperlinkFunc exposes Link to expressions as hyperlink(url) and
// hyperlink(url, display).
var hyperlinkFunc = expr.Function("hyperlink",
	func(params ...any) (any, error) {
		h := Hyperlink{URL: params[0].(string)}
		if len(params) > 1 {
			h.Display = params[1].(string)
		}
		return h, nil
	},
	new(func(string) Hyperlink),
	new(func(string, string) Hyperlink),
)
