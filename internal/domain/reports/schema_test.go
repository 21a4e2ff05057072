package reports

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/core/i18n"
)

func TestFieldsFor_LocalizedWithKeyFallback(t *testing.T) {
	translate := func(key string) (string, bool) {
		if key == "field.invoiceNumber" {
			return "رقم الفاتورة", true
		}
		return "", false
	}

	fields := FieldsFor(SourceSales, translate)

	require.NotEmpty(t, fields)
	assert.Equal(t, Field{Key: "invoiceNumber", Label: "رقم الفاتورة", Type: TypeText}, fields[0])
	assert.Equal(t, "date", fields[1].Key)
	assert.Equal(t, "date", fields[1].Label)
	assert.Equal(t, TypeDate, fields[1].Type)
}

func TestFieldsFor_EverySourceHasLabels(t *testing.T) {
	translate := i18n.Default().Translator(i18n.LocaleEN)
	for _, src := range Sources {
		t.Run(string(src), func(t *testing.T) {
			fields := FieldsFor(src, translate)
			require.NotEmpty(t, fields)
			seen := map[string]bool{}
			for _, f := range fields {
				assert.False(t, seen[f.Key], "duplicate key %s", f.Key)
				seen[f.Key] = true
				assert.NotEqual(t, f.Key, f.Label, "missing label for %s", f.Key)
				assert.True(t, f.Type.IsValid())
			}
		})
	}
}

func TestFieldsFor_UnknownSource(t *testing.T) {
	assert.Empty(t, FieldsFor("invoices", nil))
}

func TestSubSourceCatalog_List(t *testing.T) {
	catalog := MustSubSourceCatalog()
	translate := i18n.Default().Translator(i18n.LocaleEN)

	ids := func(src DataSource) []string {
		var out []string
		for _, s := range catalog.List(src, translate) {
			out = append(out, s.ID)
		}
		return out
	}

	assert.Equal(t, []string{"all", "sales_only", "returns", "items", "return_items", "cash", "credit"}, ids(SourceSales))
	assert.Equal(t, []string{"all", "purchases_only", "returns", "items"}, ids(SourcePurchases))
	assert.Equal(t, []string{"all", "low_stock", "out_of_stock", "in_stock"}, ids(SourceProducts))
	assert.Equal(t, []string{"all", "in", "out", "adjustment"}, ids(SourceMovements))
	assert.Equal(t, []string{"all", "pending", "approved", "rejected", "ordered"}, ids(SourcePurchaseRequests))
	assert.Equal(t, []string{"all", "active", "inactive"}, ids(SourceUsers))

	sales := catalog.List(SourceSales, translate)
	assert.Equal(t, "Returns only", sales[2].Label)
	assert.True(t, sales[3].ItemLevel)
}

func TestSubSourceCatalog_Predicates(t *testing.T) {
	catalog := MustSubSourceCatalog()

	tests := []struct {
		source DataSource
		id     string
		row    Row
		want   bool
	}{
		{SourceSales, "all", Row{}, true},
		{SourceSales, "sales_only", Row{"total": 0.0}, true},
		{SourceSales, "returns", Row{"total": 0.0}, false},
		{SourceSales, "returns", Row{}, false},
		{SourceSales, "cash", Row{"paymentMethod": "cash"}, true},
		{SourceSales, "credit", Row{"paymentMethod": "cash"}, false},
		{SourceProducts, "out_of_stock", Row{"stock": -1.0}, true},
		{SourceProducts, "in_stock", Row{"stock": 0.5}, true},
		{SourceMovements, "out", Row{"type": "out"}, true},
		{SourceMovements, "in", Row{"type": "adjustment"}, false},
		{SourcePurchaseRequests, "approved", Row{"status": "approved"}, true},
		{SourceUsers, "active", Row{"isActive": true}, true},
		{SourceUsers, "inactive", Row{"isActive": true}, false},
		{SourceUsers, "inactive", Row{}, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.source)+"/"+tt.id, func(t *testing.T) {
			ss, err := catalog.Lookup(tt.source, tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ss.Match(tt.row))
		})
	}
}

func TestCustomReportConfig_RoundTrip(t *testing.T) {
	original := CustomReportConfig{
		ID:         "rep-1",
		Title:      "Top customers",
		DataSource: SourceSales,
		SubSource:  "sales_only",
		Columns: []ReportColumn{
			{ID: "c-2", Key: "customerName", Label: "Customer", Type: TypeText, Aggregation: AggNone},
			{ID: "c-1", Key: "total", Label: "Revenue", Type: TypeCurrency, Aggregation: AggSum},
			{ID: "c-3", Key: "total", Label: "Average", Type: TypeCurrency, Aggregation: AggAvg},
		},
		CreatedAt:     time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		SortBy:        "total",
		SortDirection: SortDesc,
		Limit:         5,
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var loaded CustomReportConfig
	require.NoError(t, json.Unmarshal(data, &loaded))

	assert.Equal(t, original.Columns, loaded.Columns)
	assert.Equal(t, SortDesc, loaded.SortDirection)
	assert.Equal(t, 5, loaded.Limit)
	assert.True(t, original.CreatedAt.Equal(loaded.CreatedAt))
}

func TestCustomReportConfig_Validate(t *testing.T) {
	valid := func() CustomReportConfig {
		return config(SourceSales, "", col("a", "total", TypeCurrency, AggSum))
	}

	tests := []struct {
		name   string
		mutate func(*CustomReportConfig)
	}{
		{"title", func(c *CustomReportConfig) { c.Title = " " }},
		{"source", func(c *CustomReportConfig) { c.DataSource = "x" }},
		{"columns", func(c *CustomReportConfig) { c.Columns = nil }},
		{"duplicate id", func(c *CustomReportConfig) { c.Columns = append(c.Columns, c.Columns[0]) }},
		{"bad key", func(c *CustomReportConfig) { c.Columns[0].Key = "a[" }},
		{"bad type", func(c *CustomReportConfig) { c.Columns[0].Type = "blob" }},
		{"bad aggregation", func(c *CustomReportConfig) { c.Columns[0].Aggregation = "max" }},
		{"direction", func(c *CustomReportConfig) { c.SortDirection = "up" }},
		{"sort field", func(c *CustomReportConfig) { c.SortBy = "items[x]" }},
		{"limit", func(c *CustomReportConfig) { c.Limit = -3 }},
		{"date column", func(c *CustomReportConfig) { c.EnableDateFilter = true }},
	}

	base := valid()
	require.NoError(t, base.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
