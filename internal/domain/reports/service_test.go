package reports

import (
	"bytes"
	"context"
	"io"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/i18n"
	"stockroom/internal/core/id"
	"stockroom/internal/domain/auth"
	"stockroom/internal/domain/inventory"
)

type memoryStore struct {
	reports  []SavedReport
	settings PrintSettings
}

func (m *memoryStore) SaveCustomReport(_ context.Context, cfg CustomReportConfig, placement string) error {
	m.reports = append(m.reports, SavedReport{CustomReportConfig: cfg, Placement: placement})
	return nil
}

func (m *memoryStore) CustomReports(context.Context) ([]SavedReport, error) {
	return slices.Clone(m.reports), nil
}

func (m *memoryStore) DeleteCustomReport(_ context.Context, reportID string) error {
	m.reports = slices.DeleteFunc(m.reports, func(r SavedReport) bool { return r.ID == reportID })
	return nil
}

func (m *memoryStore) PrintSettings(context.Context) (PrintSettings, error) {
	return m.settings, nil
}

type fakeInventory struct {
	sales    []inventory.Sale
	products []inventory.Product
}

func (f *fakeInventory) ListSales(context.Context, inventory.ListFilter) ([]inventory.Sale, error) {
	return f.sales, nil
}

func (f *fakeInventory) ListPurchases(context.Context, inventory.ListFilter) ([]inventory.Purchase, error) {
	return nil, nil
}

func (f *fakeInventory) ListProducts(context.Context, inventory.ListFilter) ([]inventory.Product, error) {
	return f.products, nil
}

func (f *fakeInventory) ListMovements(context.Context, inventory.ListFilter) ([]inventory.Movement, error) {
	return nil, nil
}

func (f *fakeInventory) ListPurchaseRequests(context.Context, inventory.ListFilter) ([]inventory.PurchaseRequest, error) {
	return nil, nil
}

type fakeUsers struct{ users []auth.User }

func (f *fakeUsers) ListUsers(context.Context) ([]auth.User, error) { return f.users, nil }

type capturePrinter struct{ payload PrintPayload }

func (p *capturePrinter) RenderReport(w io.Writer, payload PrintPayload) error {
	p.payload = payload
	_, err := io.WriteString(w, strings.Join(payload.Headers, ","))
	return err
}

func sale(number string, day int, method string, lines ...inventory.LineItem) inventory.Sale {
	s := inventory.Sale{
		ID:            id.New(),
		InvoiceNumber: number,
		Date:          time.Date(2024, 6, day, 12, 0, 0, 0, time.UTC),
		PaymentMethod: method,
		Items:         lines,
	}
	s.CalculateTotals()
	s.Paid = s.Total
	return s
}

func line(name string, qty float64, price string) inventory.LineItem {
	return inventory.LineItem{Name: name, Quantity: qty, Price: decimal.RequireFromString(price)}
}

func newTestService(t *testing.T) (*Service, *memoryStore, *capturePrinter) {
	t.Helper()
	store := &memoryStore{settings: PrintSettings{CompanyName: "Acme"}}
	inv := &fakeInventory{
		sales: []inventory.Sale{
			sale("SAL-1", 1, "cash", line("Tea", 2, "5"), line("Sugar", 1, "3.5")),
			sale("SAL-2", 2, "credit", line("Tea", 1, "5")),
			sale("SAL-3", 3, "cash", line("Tea", -1, "5")),
		},
		products: []inventory.Product{
			{ID: id.New(), Name: "Tea", Stock: 4, MinStock: 5},
			{ID: id.New(), Name: "Rice", Stock: 50, MinStock: 5},
		},
	}
	users := &fakeUsers{users: []auth.User{{ID: id.New(), Username: "admin", IsActive: true}}}
	printer := &capturePrinter{}

	svc := NewService(store, NewStoreReader(inv, users), MustSubSourceCatalog(), i18n.Default(), printer, time.UTC)
	return svc, store, printer
}

func TestService_BuilderToRun(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	b := svc.NewBuilder()
	b.SetTitle("Items sold")
	require.NoError(t, b.SetSubSource("items"))
	require.NoError(t, b.Next())
	nameCol, err := b.AddColumn("itemName", "Item", "")
	require.NoError(t, err)
	qtyCol, err := b.AddColumn("itemQuantity", "Qty", "")
	require.NoError(t, err)
	require.NoError(t, b.UpdateColumn(qtyCol.ID, ColumnAggregation, string(AggSum)))
	require.NoError(t, b.Next())
	require.NoError(t, b.SetSort("itemQuantity", SortDesc))

	cfg, err := b.Save(ctx, store, "dashboard")
	require.NoError(t, err)

	saved, res, err := svc.Run(ctx, cfg.ID, RuntimeFilters{})
	require.NoError(t, err)
	assert.Equal(t, "dashboard", saved.Placement)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "Tea", res.Rows[0].Values[nameCol.ID])
	assert.Equal(t, 2.0, res.Rows[0].Values[qtyCol.ID])
	assert.Equal(t, "Sugar", res.Rows[1].Values[nameCol.ID])
	assert.Equal(t, 3.0, res.Summary[qtyCol.ID])
}

func TestService_RunWithDateFilter(t *testing.T) {
	svc, _, _ := newTestService(t)
	cfg := config(SourceSales, "", col("n", "invoiceNumber", TypeText, AggNone))
	cfg.EnableDateFilter = true
	cfg.DateColumn = "date"
	day := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)

	res, err := svc.RunConfig(context.Background(), cfg, RuntimeFilters{From: &day, To: &day})

	require.NoError(t, err)
	assert.Equal(t, []any{"SAL-2"}, columnValues(res, "n"))
}

func TestService_RunUsersAndProducts(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.RunConfig(ctx, config(SourceProducts, "low_stock", col("n", "name", TypeText, AggNone)), RuntimeFilters{})
	require.NoError(t, err)
	assert.Equal(t, []any{"Tea"}, columnValues(res, "n"))

	res, err = svc.RunConfig(ctx, config(SourceUsers, "active", col("u", "username", TypeText, AggNone)), RuntimeFilters{})
	require.NoError(t, err)
	assert.Equal(t, []any{"admin"}, columnValues(res, "u"))
}

func TestService_GetAndDelete(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, store.SaveCustomReport(ctx, config(SourceSales, "", col("a", "total", TypeCurrency, AggNone)), "home"))

	_, err := svc.GetReport(ctx, "missing")
	assert.True(t, apperror.IsNotFound(err))

	got, err := svc.GetReport(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "home", got.Placement)

	require.NoError(t, svc.DeleteReport(ctx, "r1"))
	assert.True(t, apperror.IsNotFound(svc.DeleteReport(ctx, "r1")))

	list, err := svc.ListReports(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestService_Print(t *testing.T) {
	svc, store, printer := newTestService(t)
	ctx := context.Background()
	cfg := config(SourceSales, "cash",
		col("n", "invoiceNumber", TypeText, AggNone),
		col("t", "total", TypeCurrency, AggSum),
	)
	require.NoError(t, store.SaveCustomReport(ctx, cfg, ""))

	var buf bytes.Buffer
	require.NoError(t, svc.Print(ctx, "r1", RuntimeFilters{}, "ar-EG", &buf))

	assert.Equal(t, "invoiceNumber,total", buf.String())
	p := printer.payload
	assert.Equal(t, "Acme", p.Settings.CompanyName)
	assert.Equal(t, "rtl", p.Settings.Direction)
	assert.Equal(t, i18n.LocaleAR, p.Settings.Locale)
	require.Len(t, p.Rows, 3)
	assert.Equal(t, []string{"SAL-1", "13.50"}, p.Rows[0])
	assert.Equal(t, []string{"SAL-3", "-5.00"}, p.Rows[1])
	assert.Equal(t, i18n.Default().T(i18n.LocaleAR, "report.total"), p.Rows[2][0])
	assert.Equal(t, "8.50", p.Rows[2][1])
}

func TestService_Schema(t *testing.T) {
	svc, _, _ := newTestService(t)

	sources := svc.Sources("en")
	require.Len(t, sources, len(Sources))
	assert.Equal(t, "Sales", sources[0].Label)

	_, err := svc.Fields("bogus", "en")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	subs, err := svc.SubSources(SourceUsers, "en")
	require.NoError(t, err)
	assert.Len(t, subs, 3)
}
