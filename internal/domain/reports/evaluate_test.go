package reports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/core/apperror"
)

func newTestEvaluator() *Evaluator {
	return NewEvaluator(MustSubSourceCatalog(), time.UTC)
}

func col(id, key string, typ ValueType, agg Aggregation) ReportColumn {
	return ReportColumn{ID: id, Key: key, Label: key, Type: typ, Aggregation: agg}
}

func config(source DataSource, subSource string, cols ...ReportColumn) CustomReportConfig {
	return CustomReportConfig{
		ID:         "r1",
		Title:      "Test",
		DataSource: source,
		SubSource:  subSource,
		Columns:    cols,
	}
}

func evaluate(t *testing.T, cfg CustomReportConfig, rows []Row, f RuntimeFilters) *Result {
	t.Helper()
	res, err := newTestEvaluator().Evaluate(context.Background(), cfg, rows, f)
	require.NoError(t, err)
	return res
}

func columnValues(res *Result, columnID string) []any {
	out := make([]any, 0, len(res.Rows))
	for _, r := range res.Rows {
		out = append(out, r.Values[columnID])
	}
	return out
}

func TestEvaluate_ReturnsSubSource(t *testing.T) {
	rows := []Row{{"total": 100.0}, {"total": -50.0}, {"total": 30.0}}
	cfg := config(SourceSales, "returns", col("c1", "total", TypeCurrency, AggNone))

	res := evaluate(t, cfg, rows, RuntimeFilters{})

	require.Len(t, res.Rows, 1)
	assert.Equal(t, -50.0, res.Rows[0].Values["c1"])
	assert.Equal(t, -50.0, res.Rows[0].Source["total"])
}

func TestEvaluate_IntegerTotalsAreNormalized(t *testing.T) {
	rows := []Row{{"total": 100}, {"total": -50}, {"total": int64(30)}}
	cfg := config(SourceSales, "sales_only", col("c1", "total", TypeCurrency, AggNone))

	res := evaluate(t, cfg, rows, RuntimeFilters{})

	assert.Equal(t, []any{100.0, 30.0}, columnValues(res, "c1"))
}

func TestEvaluate_UnknownSubSource(t *testing.T) {
	cfg := config(SourceSales, "nope", col("c1", "total", TypeCurrency, AggNone))

	_, err := newTestEvaluator().Evaluate(context.Background(), cfg, nil, RuntimeFilters{})

	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestEvaluate_LowStock(t *testing.T) {
	rows := []Row{
		{"name": "zero", "stock": 0.0, "minStock": 5.0},
		{"name": "below", "stock": 3.0, "minStock": 5.0},
		{"name": "at", "stock": 5.0, "minStock": 5.0},
		{"name": "above", "stock": 6.0, "minStock": 5.0},
		{"name": "default-threshold", "stock": 9.0, "minStock": 0.0},
		{"name": "no-threshold", "stock": 10.0},
		{"name": "over-default", "stock": 11.0},
		{"name": "bad", "stock": "many"},
	}
	cfg := config(SourceProducts, "low_stock", col("c1", "name", TypeText, AggNone))

	res := evaluate(t, cfg, rows, RuntimeFilters{})

	assert.Equal(t, []any{"below", "at", "default-threshold", "no-threshold"}, columnValues(res, "c1"))
}

func TestEvaluate_ItemLevelExplodesLines(t *testing.T) {
	rows := []Row{
		{
			"invoiceNumber": "SAL-1",
			"total":         30.0,
			"items": []any{
				map[string]any{"name": "Tea", "barcode": "111", "quantity": 2.0, "price": 5.0, "total": 10.0, "bulkQuantity": 1.0, "packedQuantity": 0.0},
				map[string]any{"name": "Sugar", "barcode": "222", "quantity": 4.0, "price": 5.0, "total": 20.0},
			},
		},
		{"invoiceNumber": "SAL-2", "total": 0.0, "items": []any{}},
		{
			"invoiceNumber": "SAL-3",
			"total":         -5.0,
			"items":         []any{map[string]any{"name": "Tea", "quantity": -1.0, "price": 5.0, "total": -5.0}},
		},
	}

	t.Run("items", func(t *testing.T) {
		cfg := config(SourceSales, "items",
			col("inv", "invoiceNumber", TypeText, AggNone),
			col("name", "itemName", TypeText, AggNone),
			col("qty", "itemQuantity", TypeNumber, AggNone),
		)
		res := evaluate(t, cfg, rows, RuntimeFilters{})

		require.Len(t, res.Rows, 3)
		assert.Equal(t, []any{"SAL-1", "SAL-1", "SAL-3"}, columnValues(res, "inv"))
		assert.Equal(t, []any{"Tea", "Sugar", "Tea"}, columnValues(res, "name"))
		assert.Equal(t, []any{2.0, 4.0, -1.0}, columnValues(res, "qty"))

		first := res.Rows[0].Source
		assert.Equal(t, "111", first["itemBarcode"])
		assert.Equal(t, 10.0, first["itemTotal"])
		assert.Equal(t, 1.0, first["itemBulkQuantity"])
		assert.Equal(t, 30.0, first["total"])
		assert.NotContains(t, first, "items")
	})

	t.Run("return_items", func(t *testing.T) {
		cfg := config(SourceSales, "return_items", col("inv", "invoiceNumber", TypeText, AggNone))
		res := evaluate(t, cfg, rows, RuntimeFilters{})
		assert.Equal(t, []any{"SAL-3"}, columnValues(res, "inv"))
	})
}

func TestEvaluate_DoesNotMutateInput(t *testing.T) {
	rows := []Row{{"total": 1, "items": []any{map[string]any{"name": "a"}}}}
	cfg := config(SourceSales, "items", col("c1", "itemName", TypeText, AggNone))

	evaluate(t, cfg, rows, RuntimeFilters{})

	assert.Equal(t, 1, rows[0]["total"])
	assert.Contains(t, rows[0], "items")
	assert.NotContains(t, rows[0], "itemName")
}

func TestEvaluate_Search(t *testing.T) {
	rows := []Row{
		{"customerName": "Ahmed Ali", "total": 10.0, "items": []any{}},
		{"customerName": "Sara", "total": 20.0, "items": []any{map[string]any{"name": "Green TEA"}}},
		{"customerName": "Omar", "total": 123.5},
	}
	cfg := config(SourceSales, "", col("c1", "customerName", TypeText, AggNone))

	tests := []struct {
		term string
		want []any
	}{
		{"", []any{"Ahmed Ali", "Sara", "Omar"}},
		{"  ", []any{"Ahmed Ali", "Sara", "Omar"}},
		{"ahmed", []any{"Ahmed Ali"}},
		{"tea", []any{"Sara"}},
		{"123.5", []any{"Omar"}},
		{"nobody", []any{}},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			res := evaluate(t, cfg, rows, RuntimeFilters{Search: tt.term})
			assert.Equal(t, tt.want, columnValues(res, "c1"))
		})
	}
}

func TestEvaluate_DateRange(t *testing.T) {
	rows := []Row{
		{"n": "before", "date": "2024-03-09T23:59:59Z"},
		{"n": "start", "date": "2024-03-10T00:00:00Z"},
		{"n": "end", "date": "2024-03-12T23:59:59.5Z"},
		{"n": "after", "date": "2024-03-13T00:00:00Z"},
		{"n": "plain", "date": "2024-03-11"},
		{"n": "garbage", "date": "yesterday"},
		{"n": "missing"},
	}
	cfg := config(SourceSales, "", col("c1", "n", TypeText, AggNone))
	cfg.EnableDateFilter = true
	cfg.DateColumn = "date"

	from := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 12, 8, 0, 0, 0, time.UTC)

	t.Run("range", func(t *testing.T) {
		res := evaluate(t, cfg, rows, RuntimeFilters{From: &from, To: &to})
		assert.Equal(t, []any{"start", "end", "plain"}, columnValues(res, "c1"))
	})

	t.Run("open end", func(t *testing.T) {
		res := evaluate(t, cfg, rows, RuntimeFilters{From: &to})
		assert.Equal(t, []any{"end", "after"}, columnValues(res, "c1"))
	})

	t.Run("no bounds keeps everything", func(t *testing.T) {
		res := evaluate(t, cfg, rows, RuntimeFilters{})
		assert.Len(t, res.Rows, len(rows))
	})

	t.Run("disabled filter ignores bounds", func(t *testing.T) {
		disabled := cfg
		disabled.EnableDateFilter = false
		res := evaluate(t, disabled, rows, RuntimeFilters{From: &from, To: &to})
		assert.Len(t, res.Rows, len(rows))
	})
}

func TestEvaluate_DateRangeUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	rows := []Row{
		{"n": "late utc", "date": "2024-03-09T22:30:00Z"},
		{"n": "early utc", "date": "2024-03-09T20:30:00Z"},
	}
	cfg := config(SourceSales, "", col("c1", "n", TypeText, AggNone))
	cfg.EnableDateFilter = true
	cfg.DateColumn = "date"
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	res, err := NewEvaluator(MustSubSourceCatalog(), loc).
		Evaluate(context.Background(), cfg, rows, RuntimeFilters{From: &day, To: &day})
	require.NoError(t, err)

	assert.Equal(t, []any{"late utc"}, columnValues(res, "c1"))
}

func TestEvaluate_GroupAverage(t *testing.T) {
	rows := []Row{
		{"category": "drinks", "price": 10.0},
		{"category": "drinks", "price": 20.0},
		{"category": "drinks", "price": 30.0},
	}
	cfg := config(SourceProducts, "",
		col("g", "category", TypeText, AggNone),
		col("a", "price", TypeNumber, AggAvg),
	)

	res := evaluate(t, cfg, rows, RuntimeFilters{})

	require.True(t, res.Grouped)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "drinks", res.Rows[0].Values["g"])
	assert.Equal(t, 20.0, res.Rows[0].Values["a"])
}

func TestEvaluate_GroupAggregates(t *testing.T) {
	rows := []Row{
		{"customerName": "Ali", "paymentMethod": "cash", "total": 10.0, "notes": "x"},
		{"customerName": "Sara", "paymentMethod": "cash", "total": 5.0, "notes": ""},
		{"customerName": "Ali", "paymentMethod": "cash", "total": "n/a", "notes": "y"},
		{"customerName": "Ali", "paymentMethod": "credit", "total": 7.5},
	}
	cfg := config(SourceSales, "",
		col("cust", "customerName", TypeText, AggNone),
		col("pm", "paymentMethod", TypeText, AggNone),
		col("sum", "total", TypeCurrency, AggSum),
		col("cnt", "notes", TypeNumber, AggCount),
		col("avg", "total", TypeCurrency, AggAvg),
	)

	res := evaluate(t, cfg, rows, RuntimeFilters{})

	require.Len(t, res.Rows, 3)
	ali := res.Rows[0].Values
	assert.Equal(t, "Ali", ali["cust"])
	assert.Equal(t, "cash", ali["pm"])
	assert.Equal(t, 10.0, ali["sum"])
	assert.Equal(t, 2, ali["cnt"])
	// "n/a" counts as present but contributes nothing to the running sum
	assert.Equal(t, 5.0, ali["avg"])

	sara := res.Rows[1].Values
	assert.Equal(t, "Sara", sara["cust"])
	assert.Equal(t, 0, sara["cnt"])

	credit := res.Rows[2].Values
	assert.Equal(t, "credit", credit["pm"])
	assert.Equal(t, 7.5, credit["sum"])

	require.NotNil(t, res.Summary)
	assert.Equal(t, 22.5, res.Summary["sum"])
	assert.Equal(t, 2, res.Summary["cnt"])
	// mean of the numeric source values 10, 5 and 7.5
	assert.Equal(t, 7.5, res.Summary["avg"])
	assert.Equal(t, 4, res.Matched)
}

func TestEvaluate_SummaryIgnoresGrouping(t *testing.T) {
	rows := []Row{
		{"customerName": "A", "total": 10.0},
		{"customerName": "B", "total": 20.0},
		{"customerName": "B", "total": 30.0},
		{"customerName": "B", "total": 40.0},
	}
	avg := col("avg", "total", TypeCurrency, AggAvg)
	grouped := config(SourceSales, "", col("cust", "customerName", TypeText, AggNone), avg)
	flat := config(SourceSales, "", avg)

	g := evaluate(t, grouped, rows, RuntimeFilters{})
	f := evaluate(t, flat, rows, RuntimeFilters{})

	assert.Equal(t, []any{10.0, 30.0}, columnValues(g, "avg"))
	assert.Equal(t, 25.0, g.Summary["avg"])
	assert.Equal(t, f.Summary["avg"], g.Summary["avg"])
}

func TestEvaluate_SummaryCoversRowsBehindKeptGroups(t *testing.T) {
	rows := []Row{
		{"customerName": "A", "total": 10.0},
		{"customerName": "B", "total": 20.0},
		{"customerName": "B", "total": 30.0},
		{"customerName": "B", "total": 40.0},
	}
	cfg := config(SourceSales, "",
		col("cust", "customerName", TypeText, AggNone),
		col("sum", "total", TypeCurrency, AggSum),
		col("cnt", "total", TypeNumber, AggCount),
		col("avg", "total", TypeCurrency, AggAvg),
	)
	cfg.SortBy = "total"
	cfg.SortDirection = SortDesc
	cfg.Limit = 1

	res := evaluate(t, cfg, rows, RuntimeFilters{})

	require.Len(t, res.Rows, 1)
	assert.Equal(t, "B", res.Rows[0].Values["cust"])
	assert.Equal(t, 90.0, res.Summary["sum"])
	assert.Equal(t, 3, res.Summary["cnt"])
	assert.Equal(t, 30.0, res.Summary["avg"])
}

func TestEvaluate_GroupKeysDoNotCollide(t *testing.T) {
	rows := []Row{
		{"a": "x y", "b": "z", "v": 1.0},
		{"a": "x", "b": "y z", "v": 1.0},
	}
	cfg := config(SourceSales, "",
		col("a", "a", TypeText, AggNone),
		col("b", "b", TypeText, AggNone),
		col("v", "v", TypeNumber, AggSum),
	)

	res := evaluate(t, cfg, rows, RuntimeFilters{})
	assert.Len(t, res.Rows, 2)
}

func TestEvaluate_GroupKeysKeepValueKinds(t *testing.T) {
	rows := []Row{
		{"c": "", "v": 10.0},
		{"v": 20.0},
		{"c": "1", "v": 1.0},
		{"c": 1.0, "v": 2.0},
	}
	cfg := config(SourceSales, "",
		col("c", "c", TypeText, AggNone),
		col("v", "v", TypeNumber, AggSum),
	)

	res := evaluate(t, cfg, rows, RuntimeFilters{})

	assert.Equal(t, []any{10.0, 20.0, 1.0, 2.0}, columnValues(res, "v"))
}

func TestEvaluate_AggregatesWithoutGroupingDoNotCollapse(t *testing.T) {
	rows := []Row{{"total": 1.0}, {"total": 2.0}, {"total": 3.0}}
	cfg := config(SourceSales, "", col("s", "total", TypeCurrency, AggSum))

	res := evaluate(t, cfg, rows, RuntimeFilters{})

	assert.False(t, res.Grouped)
	assert.Equal(t, []any{1.0, 2.0, 3.0}, columnValues(res, "s"))
	assert.Equal(t, 6.0, res.Summary["s"])
}

func TestEvaluate_NoAggregationsHasNoSummary(t *testing.T) {
	cfg := config(SourceSales, "", col("c", "total", TypeCurrency, AggNone))
	res := evaluate(t, cfg, []Row{{"total": 1.0}}, RuntimeFilters{})
	assert.Nil(t, res.Summary)
}

func TestEvaluate_SortDescending(t *testing.T) {
	rows := []Row{{"stock": 3.0}, {"stock": 1.0}, {"stock": 2.0}}
	cfg := config(SourceProducts, "", col("s", "stock", TypeNumber, AggNone))
	cfg.SortBy = "stock"
	cfg.SortDirection = SortDesc

	res := evaluate(t, cfg, rows, RuntimeFilters{})

	assert.Equal(t, []any{3.0, 2.0, 1.0}, columnValues(res, "s"))
}

func TestEvaluate_SortRules(t *testing.T) {
	t.Run("numeric strings compare as numbers", func(t *testing.T) {
		rows := []Row{{"v": "10"}, {"v": "9"}, {"v": "100"}}
		cfg := config(SourceProducts, "", col("v", "v", TypeText, AggNone))
		cfg.SortBy = "v"

		res := evaluate(t, cfg, rows, RuntimeFilters{})
		assert.Equal(t, []any{"9", "10", "100"}, columnValues(res, "v"))
	})

	t.Run("mixed values compare as strings", func(t *testing.T) {
		rows := []Row{{"v": "b"}, {"v": 10.0}, {"v": "a"}}
		cfg := config(SourceProducts, "", col("v", "v", TypeText, AggNone))
		cfg.SortBy = "v"

		res := evaluate(t, cfg, rows, RuntimeFilters{})
		assert.Equal(t, []any{10.0, "a", "b"}, columnValues(res, "v"))
	})

	t.Run("unset sort keeps insertion order", func(t *testing.T) {
		rows := []Row{{"v": 3.0}, {"v": 1.0}, {"v": 2.0}}
		cfg := config(SourceProducts, "", col("v", "v", TypeNumber, AggNone))

		res := evaluate(t, cfg, rows, RuntimeFilters{})
		assert.Equal(t, []any{3.0, 1.0, 2.0}, columnValues(res, "v"))
	})

	t.Run("sort by field outside the columns", func(t *testing.T) {
		rows := []Row{{"n": "a", "stock": 2.0}, {"n": "b", "stock": 1.0}}
		cfg := config(SourceProducts, "", col("n", "n", TypeText, AggNone))
		cfg.SortBy = "stock"

		res := evaluate(t, cfg, rows, RuntimeFilters{})
		assert.Equal(t, []any{"b", "a"}, columnValues(res, "n"))
	})

	t.Run("stable for equal keys", func(t *testing.T) {
		rows := []Row{{"n": "a", "k": 1.0}, {"n": "b", "k": 1.0}, {"n": "c", "k": 0.0}}
		cfg := config(SourceProducts, "", col("n", "n", TypeText, AggNone), col("k", "k", TypeNumber, AggNone))
		cfg.SortBy = "k"

		res := evaluate(t, cfg, rows, RuntimeFilters{})
		assert.Equal(t, []any{"c", "a", "b"}, columnValues(res, "n"))
	})

	t.Run("sorts grouped aggregates", func(t *testing.T) {
		rows := []Row{
			{"c": "x", "t": 1.0},
			{"c": "y", "t": 5.0},
			{"c": "x", "t": 1.0},
		}
		cfg := config(SourceSales, "", col("c", "c", TypeText, AggNone), col("t", "t", TypeNumber, AggSum))
		cfg.SortBy = "t"
		cfg.SortDirection = SortDesc

		res := evaluate(t, cfg, rows, RuntimeFilters{})
		assert.Equal(t, []any{"y", "x"}, columnValues(res, "c"))
	})
}

func TestEvaluate_Limit(t *testing.T) {
	rows := []Row{{"v": 5.0}, {"v": 1.0}, {"v": 4.0}, {"v": 2.0}, {"v": 3.0}}
	cfg := config(SourceProducts, "", col("v", "v", TypeNumber, AggSum))
	cfg.SortBy = "v"
	cfg.Limit = 2

	res := evaluate(t, cfg, rows, RuntimeFilters{})

	assert.Equal(t, []any{1.0, 2.0}, columnValues(res, "v"))
	assert.Equal(t, 5, res.Matched)
	// summary follows the displayed rows
	assert.Equal(t, 3.0, res.Summary["v"])
}

func TestEvaluate_InvalidConfig(t *testing.T) {
	cfg := config(SourceSales, "")

	_, err := newTestEvaluator().Evaluate(context.Background(), cfg, nil, RuntimeFilters{})

	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestCompareValues(t *testing.T) {
	assert.Equal(t, -1, CompareValues(2.0, "10"))
	assert.Equal(t, 1, CompareValues("b", "a"))
	assert.Equal(t, 0, CompareValues(1, 1.0))
	assert.Equal(t, -1, CompareValues(nil, "a"))
}
