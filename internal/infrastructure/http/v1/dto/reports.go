package dto

import (
	"time"

	"stockroom/internal/domain/reports"
)

// --- Runtime filters ---

// RunReportRequest holds the runtime filters of a report run. It is bound
// from the query string or a JSON body.
type RunReportRequest struct {
	Search string `form:"search" json:"search"`
	From   string `form:"from" json:"from"`
	To     string `form:"to" json:"to"`
}

// ToFilters parses the date bounds in loc. A plain "to" date includes the
// whole day.
func (r *RunReportRequest) ToFilters(loc *time.Location) (reports.RuntimeFilters, error) {
	from, err := ParseDate(r.From, loc, false)
	if err != nil {
		return reports.RuntimeFilters{}, err
	}
	to, err := ParseDate(r.To, loc, true)
	if err != nil {
		return reports.RuntimeFilters{}, err
	}
	return reports.RuntimeFilters{Search: r.Search, From: from, To: to}, nil
}

// ReportResultResponse is an evaluated report. Values are raw, keyed by
// column id; Cells holds the same rows formatted for display.
type ReportResultResponse struct {
	Report  *reports.SavedReport   `json:"report,omitempty"`
	Columns []reports.ReportColumn `json:"columns"`
	Rows    []map[string]any       `json:"rows"`
	Cells   [][]string             `json:"cells"`
	Summary map[string]any         `json:"summary,omitempty"`
	// SummaryCells is the formatted summary row, first cell being the total label.
	SummaryCells []string `json:"summaryCells,omitempty"`
	Grouped      bool     `json:"grouped"`
	Matched      int      `json:"matched"`
}

// FromResult converts an evaluated report.
func FromResult(res *reports.Result, totalLabel string, loc *time.Location) ReportResultResponse {
	out := ReportResultResponse{
		Columns: res.Columns,
		Rows:    make([]map[string]any, len(res.Rows)),
		Cells:   reports.TableRows(res, loc),
		Summary: res.Summary,
		Grouped: res.Grouped,
		Matched: res.Matched,
	}
	if out.Columns == nil {
		out.Columns = []reports.ReportColumn{}
	}
	for i, row := range res.Rows {
		out.Rows[i] = row.Values
	}
	if row, ok := reports.SummaryRow(res, totalLabel, loc); ok {
		out.SummaryCells = row
	}
	return out
}

// --- Drafts ---

// BasicInfoRequest edits the first wizard step.
type BasicInfoRequest struct {
	Title      string `json:"title"`
	DataSource string `json:"dataSource"`
	SubSource  string `json:"subSource"`
}

// AddColumnRequest selects a field.
type AddColumnRequest struct {
	Key   string `json:"key" binding:"required"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// UpdateColumnRequest changes one column. Nil fields are kept.
type UpdateColumnRequest struct {
	Label       *string `json:"label"`
	Type        *string `json:"type"`
	Aggregation *string `json:"aggregation"`
	Position    *int    `json:"position"`
}

// OptionsRequest edits the last wizard step.
type OptionsRequest struct {
	SortBy           string `json:"sortBy"`
	SortDirection    string `json:"sortDirection"`
	Limit            int    `json:"limit"`
	EnableDateFilter bool   `json:"enableDateFilter"`
	DateColumn       string `json:"dateColumn"`
	Placement        string `json:"placement"`
}

// SaveDraftRequest overrides the draft placement when set.
type SaveDraftRequest struct {
	Placement string `json:"placement"`
}

// SaveDraftResponse is returned after a draft is saved.
type SaveDraftResponse struct {
	Report reports.CustomReportConfig `json:"report"`
	Draft  reports.Draft              `json:"draft"`
}
