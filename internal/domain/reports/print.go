package reports

import (
	"io"
	"time"
)

// PrintSettings carries company branding for printed output.
type PrintSettings struct {
	CompanyName    string `json:"companyName,omitempty"`
	CompanyPhone   string `json:"companyPhone,omitempty"`
	CompanyAddress string `json:"companyAddress,omitempty"`
	Currency       string `json:"currency,omitempty"`
	Locale         string `json:"locale,omitempty"`
	// Direction is "rtl" or "ltr".
	Direction string `json:"direction,omitempty"`
	LogoLeft  string `json:"logoLeft,omitempty"`
	LogoRight string `json:"logoRight,omitempty"`
}

// PrintPayload is the generic tabular document handed to a Printer.
type PrintPayload struct {
	Title   string     `json:"title"`
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
	// HasSummary is set when the last row is the summary row.
	HasSummary  bool          `json:"hasSummary"`
	Settings    PrintSettings `json:"settings"`
	GeneratedAt time.Time     `json:"generatedAt"`
}

// Printer renders a payload into a printable document.
type Printer interface {
	RenderReport(w io.Writer, p PrintPayload) error
}

// PrintOptions controls BuildPrintPayload.
type PrintOptions struct {
	// TotalLabel marks the summary row, e.g. "Total".
	TotalLabel string
	Location   *time.Location
	Settings   PrintSettings
}

// FormatCell renders an evaluated value of col. Counts render as integers
// regardless of the column type.
func FormatCell(col ReportColumn, v any, loc *time.Location) string {
	if col.Aggregation == AggCount {
		if n, ok := v.(int); ok {
			return stringify(n)
		}
	}
	return FormatValue(v, col.Type, loc)
}

// TableRows formats result rows in column order.
func TableRows(res *Result, loc *time.Location) [][]string {
	rows := make([][]string, 0, len(res.Rows))
	for _, r := range res.Rows {
		cells := make([]string, len(res.Columns))
		for i, col := range res.Columns {
			cells[i] = FormatCell(col, r.Values[col.ID], loc)
		}
		rows = append(rows, cells)
	}
	return rows
}

// SummaryRow formats the summary aggregates as a table row whose first cell
// carries totalLabel. ok is false when the result has no summary.
func SummaryRow(res *Result, totalLabel string, loc *time.Location) (row []string, ok bool) {
	if len(res.Summary) == 0 || len(res.Columns) == 0 {
		return nil, false
	}
	row = make([]string, len(res.Columns))
	for i, col := range res.Columns {
		v, has := res.Summary[col.ID]
		if !has {
			continue
		}
		row[i] = FormatCell(col, v, loc)
	}
	if row[0] != "" {
		row[0] = totalLabel + ": " + row[0]
	} else {
		row[0] = totalLabel
	}
	return row, true
}

// BuildPrintPayload converts an evaluated report into a print payload. Logos
// set on the report override the company logos.
func BuildPrintPayload(cfg CustomReportConfig, res *Result, opts PrintOptions) PrintPayload {
	headers := make([]string, len(res.Columns))
	for i, col := range res.Columns {
		headers[i] = col.Label
	}

	rows := TableRows(res, opts.Location)
	summary, hasSummary := SummaryRow(res, opts.TotalLabel, opts.Location)
	if hasSummary {
		rows = append(rows, summary)
	}

	settings := opts.Settings
	if cfg.CustomLogoLeft != "" {
		settings.LogoLeft = cfg.CustomLogoLeft
	}
	if cfg.CustomLogoRight != "" {
		settings.LogoRight = cfg.CustomLogoRight
	}

	return PrintPayload{
		Title:       cfg.Title,
		Headers:     headers,
		Rows:        rows,
		HasSummary:  hasSummary,
		Settings:    settings,
		GeneratedAt: time.Now(),
	}
}
