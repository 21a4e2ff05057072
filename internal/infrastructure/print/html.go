// Package print renders printable HTML documents for reports and invoices.
package print

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stockroom/internal/domain/inventory"
	"stockroom/internal/domain/reports"
)

//go:embed templates/*.html
var templateFiles embed.FS

// HTMLRenderer renders print payloads as standalone HTML pages.
type HTMLRenderer struct {
	tmpl *template.Template
}

var _ reports.Printer = (*HTMLRenderer)(nil)

// NewHTMLRenderer parses the embedded templates.
func NewHTMLRenderer() (*HTMLRenderer, error) {
	tmpl, err := template.New("print").Funcs(template.FuncMap{
		"logo": logoURL,
		"date": func(t time.Time) string { return t.Format("2006-01-02 15:04") },
		"inc":  func(i int) int { return i + 1 },
	}).ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse print templates: %w", err)
	}
	return &HTMLRenderer{tmpl: tmpl}, nil
}

// logoURL lets image data URLs through the template's URL sanitizer.
// Anything else is dropped.
func logoURL(s string) template.URL {
	if strings.HasPrefix(s, "data:image/") {
		return template.URL(s)
	}
	return ""
}

func direction(s reports.PrintSettings) string {
	if s.Direction == "rtl" {
		return "rtl"
	}
	return "ltr"
}

type reportView struct {
	reports.PrintPayload
	Dir string
	// Summary is the trailing total row, rendered in the table footer.
	Summary []string
}

// RenderReport writes a report table.
func (r *HTMLRenderer) RenderReport(w io.Writer, p reports.PrintPayload) error {
	view := reportView{PrintPayload: p, Dir: direction(p.Settings)}
	if n := len(p.Rows); p.HasSummary && n > 0 {
		view.Rows = p.Rows[:n-1]
		view.Summary = p.Rows[n-1]
	}
	if err := r.tmpl.ExecuteTemplate(w, "report.html", view); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

// InvoicePayload is a sale or purchase document prepared for printing.
type InvoicePayload struct {
	Title    string
	Number   string
	Date     time.Time
	Party    string
	Items    []inventory.LineItem
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
	Paid     decimal.Decimal
	Notes    string
	Labels   InvoiceLabels
	Settings reports.PrintSettings
}

// InvoiceLabels are the localized captions of an invoice.
type InvoiceLabels struct {
	Number, Date, Party, Item, Quantity, Price, Total  string
	Subtotal, Discount, Tax, GrandTotal, Paid, Balance string
}

// SaleInvoice prepares a sale for printing.
func SaleInvoice(s *inventory.Sale, title string, labels InvoiceLabels, settings reports.PrintSettings) InvoicePayload {
	return InvoicePayload{
		Title:    title,
		Number:   s.InvoiceNumber,
		Date:     s.Date,
		Party:    s.CustomerName,
		Items:    s.Items,
		Subtotal: s.Subtotal,
		Discount: s.Discount,
		Tax:      s.Tax,
		Total:    s.Total,
		Paid:     s.Paid,
		Notes:    s.Notes,
		Labels:   labels,
		Settings: settings,
	}
}

type invoiceView struct {
	InvoicePayload
	Dir     string
	Balance decimal.Decimal
}

// RenderInvoice writes an invoice page.
func (r *HTMLRenderer) RenderInvoice(w io.Writer, p InvoicePayload) error {
	view := invoiceView{
		InvoicePayload: p,
		Dir:            direction(p.Settings),
		Balance:        p.Total.Sub(p.Paid),
	}
	if err := r.tmpl.ExecuteTemplate(w, "invoice.html", view); err != nil {
		return fmt.Errorf("render invoice: %w", err)
	}
	return nil
}
