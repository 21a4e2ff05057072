package reports

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"stockroom/internal/core/types"
)

var tracer = otel.Tracer("stockroom/reports")

// groupKeySeparator joins grouping values into a group key. It cannot occur
// in user-entered text.
const groupKeySeparator = "\x1f"

// RuntimeFilters are the viewer-side filters applied on top of a definition.
// From and To are calendar days; only their date part is used.
type RuntimeFilters struct {
	Search string
	From   *time.Time
	To     *time.Time
}

// ResultRow is one displayed row. Values is keyed by column id.
type ResultRow struct {
	Values map[string]any
	// Source is the first source row folded into this row.
	Source Row
	// members are all source rows folded into this row.
	members []Row
}

// Result is the evaluated report.
type Result struct {
	Columns []ReportColumn
	Rows    []ResultRow
	// Summary holds one aggregate per aggregation column, keyed by column id.
	// Nil when the report has no aggregation columns.
	Summary map[string]any
	Grouped bool
	// Matched counts source rows that passed filtering.
	Matched int
}

// Evaluator runs report definitions against source rows. It never mutates
// its input.
type Evaluator struct {
	catalog *SubSourceCatalog
	loc     *time.Location
}

// NewEvaluator creates an evaluator. Date ranges are interpreted in loc.
func NewEvaluator(catalog *SubSourceCatalog, loc *time.Location) *Evaluator {
	if loc == nil {
		loc = time.UTC
	}
	return &Evaluator{catalog: catalog, loc: loc}
}

// Materialize applies the sub-source of cfg to raw rows and explodes line
// items for item-level sub-sources.
func (e *Evaluator) Materialize(cfg *CustomReportConfig, raw []Row) ([]Row, error) {
	ss, err := e.catalog.Lookup(cfg.DataSource, cfg.EffectiveSubSource())
	if err != nil {
		return nil, err
	}
	return Materialize(raw, ss), nil
}

// Materialize keeps the rows matching ss. Item-level sub-sources replace each
// kept row by its line item rows.
func Materialize(raw []Row, ss *SubSource) []Row {
	out := make([]Row, 0, len(raw))
	for _, r := range raw {
		row := normalizeRow(r)
		if !ss.Match(row) {
			continue
		}
		if ss.ItemLevel {
			out = append(out, explodeItems(row)...)
			continue
		}
		out = append(out, row)
	}
	return out
}

// Evaluate runs the pipeline: materialize, runtime filter, group and
// aggregate, sort, limit, summary.
func (e *Evaluator) Evaluate(ctx context.Context, cfg CustomReportConfig, raw []Row, filters RuntimeFilters) (*Result, error) {
	_, span := tracer.Start(ctx, "reports.evaluate",
		trace.WithAttributes(
			attribute.String("report.source", string(cfg.DataSource)),
			attribute.String("report.sub_source", cfg.EffectiveSubSource()),
			attribute.Int("report.input_rows", len(raw)),
		))
	defer span.End()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rows, err := e.Materialize(&cfg, raw)
	if err != nil {
		return nil, err
	}

	rows = e.filter(&cfg, rows, filters)

	var aggCols, groupCols []ReportColumn
	for _, col := range cfg.Columns {
		if col.Aggregation.IsAggregate() {
			aggCols = append(aggCols, col)
		} else {
			groupCols = append(groupCols, col)
		}
	}

	res := &Result{
		Columns: slices.Clone(cfg.Columns),
		Matched: len(rows),
	}
	if len(aggCols) > 0 && len(groupCols) > 0 {
		res.Rows = groupRows(rows, groupCols, aggCols)
		res.Grouped = true
	} else {
		res.Rows = projectRows(rows, cfg.Columns)
	}

	sortRows(res.Rows, &cfg)

	if cfg.Limit > 0 && len(res.Rows) > cfg.Limit {
		res.Rows = res.Rows[:cfg.Limit]
	}

	if len(aggCols) > 0 {
		res.Summary = summarize(res.Rows, aggCols)
	}

	span.SetAttributes(attribute.Int("report.output_rows", len(res.Rows)))
	return res, nil
}

// --- Runtime filtering ---

func (e *Evaluator) filter(cfg *CustomReportConfig, rows []Row, f RuntimeFilters) []Row {
	term := strings.ToLower(strings.TrimSpace(f.Search))

	var start, end time.Time
	dateActive := cfg.EnableDateFilter && cfg.DateColumn != "" && (f.From != nil || f.To != nil)
	if dateActive {
		if f.From != nil {
			y, m, d := f.From.Date()
			start = time.Date(y, m, d, 0, 0, 0, 0, e.loc)
		}
		if f.To != nil {
			y, m, d := f.To.Date()
			end = time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), e.loc)
		}
	}
	if term == "" && !dateActive {
		return rows
	}

	datePath := CompilePath(cfg.DateColumn)
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if term != "" && !containsTerm(row, term) {
			continue
		}
		if dateActive {
			v, _ := datePath.Resolve(row)
			t, ok := ParseDate(v, e.loc)
			if !ok {
				continue
			}
			if !start.IsZero() && t.Before(start) {
				continue
			}
			if !end.IsZero() && t.After(end) {
				continue
			}
		}
		out = append(out, row)
	}
	return out
}

// containsTerm reports whether any value of v, searched recursively, contains
// the lower-cased term.
func containsTerm(v any, term string) bool {
	switch x := v.(type) {
	case nil:
		return false
	case map[string]any:
		for _, e := range x {
			if containsTerm(e, term) {
				return true
			}
		}
		return false
	case []any:
		for _, e := range x {
			if containsTerm(e, term) {
				return true
			}
		}
		return false
	}
	return strings.Contains(strings.ToLower(stringify(v)), term)
}

// --- Grouping and aggregation ---

func projectRows(rows []Row, cols []ReportColumn) []ResultRow {
	paths := compileColumns(cols)
	out := make([]ResultRow, 0, len(rows))
	for _, row := range rows {
		values := make(map[string]any, len(cols))
		for i, col := range cols {
			v, _ := paths[i].Resolve(row)
			values[col.ID] = v
		}
		out = append(out, ResultRow{Values: values, Source: row, members: []Row{row}})
	}
	return out
}

type accumulator struct {
	sum   decimal.Decimal
	count int
	// numeric counts the values that coerced to numbers.
	numeric int
}

func (a *accumulator) add(v any) {
	if isEmpty(v) {
		return
	}
	a.count++
	if d, ok := types.ToDecimal(v); ok {
		a.sum = a.sum.Add(d)
		a.numeric++
	}
}

func (a *accumulator) result(agg Aggregation) any {
	switch agg {
	case AggSum:
		return a.sum.InexactFloat64()
	case AggCount:
		return a.count
	case AggAvg:
		if a.count == 0 {
			return nil
		}
		return a.sum.Div(decimal.NewFromInt(int64(a.count))).InexactFloat64()
	}
	return nil
}

type group struct {
	row  ResultRow
	accs []accumulator
}

func groupRows(rows []Row, groupCols, aggCols []ReportColumn) []ResultRow {
	groupPaths := compileColumns(groupCols)
	aggPaths := compileColumns(aggCols)

	index := make(map[string]*group)
	var order []*group
	keyParts := make([]string, len(groupCols))

	for _, row := range rows {
		groupValues := make([]any, len(groupCols))
		for i := range groupCols {
			v, _ := groupPaths[i].Resolve(row)
			groupValues[i] = v
			keyParts[i] = groupKeyPart(v)
		}
		key := strings.Join(keyParts, groupKeySeparator)

		g, ok := index[key]
		if !ok {
			values := make(map[string]any, len(groupCols)+len(aggCols))
			for i, col := range groupCols {
				values[col.ID] = groupValues[i]
			}
			g = &group{
				row:  ResultRow{Values: values, Source: row},
				accs: make([]accumulator, len(aggCols)),
			}
			index[key] = g
			order = append(order, g)
		}
		g.row.members = append(g.row.members, row)
		for i := range aggCols {
			v, _ := aggPaths[i].Resolve(row)
			g.accs[i].add(v)
		}
	}

	out := make([]ResultRow, 0, len(order))
	for _, g := range order {
		for i, col := range aggCols {
			g.row.Values[col.ID] = g.accs[i].result(col.Aggregation)
		}
		out = append(out, g.row)
	}
	return out
}

func compileColumns(cols []ReportColumn) []Path {
	paths := make([]Path, len(cols))
	for i, col := range cols {
		paths[i] = CompilePath(col.Key)
	}
	return paths
}

// --- Sorting ---

func sortRows(rows []ResultRow, cfg *CustomReportConfig) {
	if cfg.SortBy == "" || len(rows) < 2 {
		return
	}

	colID := ""
	for _, col := range cfg.Columns {
		if col.Key == cfg.SortBy {
			colID = col.ID
			break
		}
	}
	path := CompilePath(cfg.SortBy)
	valueOf := func(r ResultRow) any {
		if colID != "" {
			return r.Values[colID]
		}
		v, _ := path.Resolve(r.Source)
		return v
	}

	desc := cfg.IsDescending()
	slices.SortStableFunc(rows, func(a, b ResultRow) int {
		c := CompareValues(valueOf(a), valueOf(b))
		if desc {
			return -c
		}
		return c
	})
}

// CompareValues orders two cell values: numerically when both coerce to
// numbers, otherwise by their string forms.
func CompareValues(a, b any) int {
	if da, ok := types.ToDecimal(a); ok {
		if db, ok := types.ToDecimal(b); ok {
			return da.Cmp(db)
		}
	}
	return strings.Compare(stringify(a), stringify(b))
}

// --- Summary ---

// summarize aggregates the source rows behind the displayed rows, so the
// totals do not depend on how rows were grouped.
func summarize(rows []ResultRow, aggCols []ReportColumn) map[string]any {
	paths := compileColumns(aggCols)
	accs := make([]accumulator, len(aggCols))
	for _, r := range rows {
		for _, src := range r.members {
			for i := range aggCols {
				v, _ := paths[i].Resolve(src)
				accs[i].add(v)
			}
		}
	}

	summary := make(map[string]any, len(aggCols))
	for i, col := range aggCols {
		if col.Aggregation == AggAvg {
			// the footer average ignores values that are not numbers
			if accs[i].numeric == 0 {
				summary[col.ID] = nil
				continue
			}
			summary[col.ID] = accs[i].sum.Div(decimal.NewFromInt(int64(accs[i].numeric))).InexactFloat64()
			continue
		}
		summary[col.ID] = accs[i].result(col.Aggregation)
	}
	return summary
}

// --- Value helpers ---

func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	}
	return false
}

// groupKeyPart tags a grouping value with its kind so that a missing value,
// an empty string and a number never share a key.
func groupKeyPart(v any) string {
	switch x := v.(type) {
	case nil:
		return "n:"
	case string:
		return "s:" + x
	case bool:
		return "b:" + strconv.FormatBool(x)
	}
	if d, ok := types.ToDecimal(v); ok {
		return "f:" + d.String()
	}
	return "j:" + stringify(v)
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	}
	return fmt.Sprint(v)
}
