package reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatValue(t *testing.T) {
	cairo := time.FixedZone("EET", 2*60*60)

	tests := []struct {
		name string
		v    any
		typ  ValueType
		want string
	}{
		{"nil", nil, TypeText, "-"},
		{"empty string", "", TypeText, "-"},
		{"text", "Tea", TypeText, "Tea"},
		{"number", 3.14159, TypeNumber, "3.14"},
		{"currency int", 12, TypeCurrency, "12.00"},
		{"currency string", "1,250.5", TypeCurrency, "1250.50"},
		{"unparseable number", "n/a", TypeNumber, "n/a"},
		{"rfc3339 date", "2024-03-09T23:30:00Z", TypeDate, "10/03/2024"},
		{"plain date", "2024-12-31", TypeDate, "31/12/2024"},
		{"time value", time.Date(2024, 1, 2, 3, 0, 0, 0, time.UTC), TypeDate, "02/01/2024"},
		{"unparseable date", "soon", TypeDate, "soon"},
		{"bool", true, TypeText, "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatValue(tt.v, tt.typ, cairo))
		})
	}
}

func TestBuildPrintPayload(t *testing.T) {
	cfg := config(SourceSales, "",
		col("cust", "customerName", TypeText, AggNone),
		col("sum", "total", TypeCurrency, AggSum),
		col("cnt", "invoiceNumber", TypeCurrency, AggCount),
	)
	cfg.CustomLogoRight = "data:image/png;base64,AAAA"
	rows := []Row{
		{"customerName": "Ali", "total": 10.0, "invoiceNumber": "1"},
		{"customerName": "Ali", "total": 5.5, "invoiceNumber": "2"},
		{"customerName": "Sara", "total": 2.0, "invoiceNumber": "3"},
	}
	res := evaluate(t, cfg, rows, RuntimeFilters{})

	payload := BuildPrintPayload(cfg, res, PrintOptions{
		TotalLabel: "Total",
		Location:   time.UTC,
		Settings:   PrintSettings{CompanyName: "Acme", LogoLeft: "left.png", LogoRight: "right.png"},
	})

	assert.Equal(t, "Test", payload.Title)
	assert.Equal(t, []string{"customerName", "total", "invoiceNumber"}, payload.Headers)
	require.Len(t, payload.Rows, 3)
	assert.Equal(t, []string{"Ali", "15.50", "2"}, payload.Rows[0])
	assert.Equal(t, []string{"Sara", "2.00", "1"}, payload.Rows[1])
	assert.Equal(t, []string{"Total", "17.50", "3"}, payload.Rows[2])

	assert.Equal(t, "Acme", payload.Settings.CompanyName)
	assert.Equal(t, "left.png", payload.Settings.LogoLeft)
	assert.Equal(t, "data:image/png;base64,AAAA", payload.Settings.LogoRight)
}

func TestBuildPrintPayload_TotalMarkerOnAggregatedFirstColumn(t *testing.T) {
	cfg := config(SourceSales, "", col("sum", "total", TypeCurrency, AggSum))
	res := evaluate(t, cfg, []Row{{"total": 1.0}, {"total": 2.0}}, RuntimeFilters{})

	payload := BuildPrintPayload(cfg, res, PrintOptions{TotalLabel: "الإجمالي"})

	require.Len(t, payload.Rows, 3)
	assert.Equal(t, []string{"الإجمالي: 3.00"}, payload.Rows[2])
}

func TestBuildPrintPayload_NoSummaryRow(t *testing.T) {
	cfg := config(SourceSales, "", col("c", "total", TypeCurrency, AggNone))
	res := evaluate(t, cfg, []Row{{"total": 1.0}}, RuntimeFilters{})

	payload := BuildPrintPayload(cfg, res, PrintOptions{TotalLabel: "Total"})

	assert.Equal(t, [][]string{{"1.00"}}, payload.Rows)
}
