package print

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/domain/inventory"
	"stockroom/internal/domain/reports"
)

func TestRenderReport(t *testing.T) {
	r, err := NewHTMLRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	err = r.RenderReport(&buf, reports.PrintPayload{
		Title:      "Sales <by> customer",
		Headers:    []string{"Customer", "Total"},
		Rows:       [][]string{{"Ali", "10.00"}, {"Mona", "5.50"}, {"Total", "15.50"}},
		HasSummary: true,
		Settings: reports.PrintSettings{
			CompanyName: "Corner shop",
			Direction:   "rtl",
			Locale:      "ar",
			LogoLeft:    "data:image/png;base64,AAAA",
			LogoRight:   "javascript:alert(1)",
		},
		GeneratedAt: time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `dir="rtl"`)
	assert.Contains(t, out, `lang="ar"`)
	assert.Contains(t, out, "Sales &lt;by&gt; customer")
	assert.Contains(t, out, "<h1>Corner shop</h1>")
	assert.Contains(t, out, `src="data:image/png;base64,AAAA"`)
	assert.NotContains(t, out, "javascript:")
	assert.Contains(t, out, "<tfoot>")
	assert.Contains(t, out, "2026-05-01 09:30")

	tbody := out[strings.Index(out, "<tbody>"):strings.Index(out, "</tbody>")]
	assert.Contains(t, tbody, "Mona")
	assert.NotContains(t, tbody, "15.50")
}

func TestRenderReport_NoSummary(t *testing.T) {
	r, err := NewHTMLRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.RenderReport(&buf, reports.PrintPayload{
		Title:   "Products",
		Headers: []string{"Name"},
		Rows:    [][]string{{"Pen"}},
	}))
	assert.NotContains(t, buf.String(), "<tfoot>")
	assert.Contains(t, buf.String(), `dir="ltr"`)
}

func TestRenderInvoice(t *testing.T) {
	r, err := NewHTMLRenderer()
	require.NoError(t, err)

	sale := &inventory.Sale{
		InvoiceNumber: "SAL-2026-00042",
		Date:          time.Date(2026, 5, 2, 14, 0, 0, 0, time.UTC),
		CustomerName:  "Ali",
		Items: []inventory.LineItem{
			{Name: "Pen", Quantity: 2, Price: decimal.RequireFromString("1.5"), Total: decimal.RequireFromString("3")},
		},
		Subtotal: decimal.RequireFromString("3"),
		Total:    decimal.RequireFromString("3"),
		Paid:     decimal.RequireFromString("1"),
	}
	labels := InvoiceLabels{Number: "No.", Party: "Customer", GrandTotal: "Total", Balance: "Balance"}

	var buf bytes.Buffer
	require.NoError(t, r.RenderInvoice(&buf, SaleInvoice(sale, "Sales invoice", labels, reports.PrintSettings{Currency: "EGP"})))

	out := buf.String()
	assert.Contains(t, out, "SAL-2026-00042")
	assert.Contains(t, out, "<td>Ali</td>")
	assert.Contains(t, out, "<td>1</td><td>Pen</td><td>2</td><td>1.50</td><td>3.00</td>")
	assert.Contains(t, out, "3.00 EGP")
	assert.Contains(t, out, "<td>2.00</td>")
	assert.NotContains(t, out, "Discount")
}
