package importer

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"stockroom/internal/core/apperror"
	"stockroom/internal/domain/inventory"
)

func workbook(t *testing.T, rows ...[]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestResolveHeader(t *testing.T) {
	tests := []struct {
		header string
		want   Column
	}{
		{"Name", ColName},
		{"  Product   Name ", ColName},
		{"اسم المنتج", ColName},
		{"SKU", ColBarcode},
		{"الباركود", ColBarcode},
		{"min_stock", ColMinStock},
		{"Sale-Price", ColSalePrice},
		{"سعر التكلفة", ColCostPrice},
		{"الكمية", ColStock},
	}
	for _, tt := range tests {
		got, ok := ResolveHeader(tt.header)
		assert.True(t, ok, tt.header)
		assert.Equal(t, tt.want, got, tt.header)
	}

	_, ok := ResolveHeader("colour")
	assert.False(t, ok)
}

func TestParseProducts_EnglishHeaders(t *testing.T) {
	buf := workbook(t,
		[]any{"Barcode", "Name", "Qty", "Price", "Notes"},
		[]any{"111", "Pen", 12, "2.50", "ignored"},
		[]any{"", "", 5, 1},
		[]any{"", "Eraser"},
	)

	products, err := ParseProducts(buf)
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, "Pen", products[0].Name)
	assert.Equal(t, "111", products[0].Barcode)
	assert.Equal(t, 12.0, products[0].Stock)
	assert.True(t, decimal.RequireFromString("2.5").Equal(products[0].SalePrice))

	assert.Equal(t, "Eraser", products[1].Name)
	assert.Equal(t, 0.0, products[1].Stock)
}

func TestParseProducts_ArabicHeaders(t *testing.T) {
	buf := workbook(t,
		[]any{"الصنف", "الفئة", "الوحدة", "المخزون", "الحد الأدنى", "سعر الشراء", "سعر البيع"},
		[]any{"قلم", "أدوات", "قطعة", 7, 3, "1,250.5", 2000},
	)

	products, err := ParseProducts(buf)
	require.NoError(t, err)
	require.Len(t, products, 1)

	p := products[0]
	assert.Equal(t, "قلم", p.Name)
	assert.Equal(t, "أدوات", p.Category)
	assert.Equal(t, "قطعة", p.Unit)
	assert.Equal(t, 7.0, p.Stock)
	assert.Equal(t, 3.0, p.MinStock)
	assert.True(t, decimal.RequireFromString("1250.5").Equal(p.CostPrice), p.CostPrice.String())
	assert.True(t, decimal.NewFromInt(2000).Equal(p.SalePrice))
}

func TestParseProducts_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input func() *bytes.Buffer
	}{
		{"not a workbook", func() *bytes.Buffer { return bytes.NewBufferString("name,price\npen,1\n") }},
		{"no name column", func() *bytes.Buffer { return workbook(t, []any{"Barcode", "Price"}, []any{"1", 2}) }},
		{"empty sheet", func() *bytes.Buffer { return workbook(t) }},
		{"bad number", func() *bytes.Buffer { return workbook(t, []any{"Name", "Stock"}, []any{"Pen", "lots"}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products, err := ParseProducts(tt.input())
			assert.Nil(t, products)
			assert.True(t, apperror.HasCode(err, apperror.CodeImportParse), "got %v", err)
		})
	}
}

type fakeProducts struct {
	stored   []inventory.Product
	upserted []inventory.Product
}

func (f *fakeProducts) ListProducts(context.Context, inventory.ListFilter) ([]inventory.Product, error) {
	return f.stored, nil
}

func (f *fakeProducts) UpsertProducts(_ context.Context, products []inventory.Product) (inventory.ImportResult, error) {
	f.upserted = products
	return inventory.ImportResult{AddedCount: len(products)}, nil
}

func TestService_ExportThenImport(t *testing.T) {
	store := &fakeProducts{stored: []inventory.Product{
		{Name: "Pen", Barcode: "111", Category: "Office", Unit: "piece", Stock: 4, MinStock: 2,
			CostPrice: decimal.RequireFromString("1.25"), SalePrice: decimal.NewFromInt(2)},
		{Name: "Ink", Stock: 0.5},
	}}
	svc := NewService(store)
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, svc.ExportProducts(ctx, &buf))

	res, err := svc.ImportProducts(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, res.AddedCount)
	require.Len(t, store.upserted, 2)

	pen := store.upserted[0]
	assert.Equal(t, "Pen", pen.Name)
	assert.Equal(t, "111", pen.Barcode)
	assert.Equal(t, "Office", pen.Category)
	assert.Equal(t, "piece", pen.Unit)
	assert.Equal(t, 4.0, pen.Stock)
	assert.Equal(t, 2.0, pen.MinStock)
	assert.True(t, decimal.RequireFromString("1.25").Equal(pen.CostPrice))
	assert.Equal(t, 0.5, store.upserted[1].Stock)
}

func TestService_ImportRejectsBeforeWriting(t *testing.T) {
	store := &fakeProducts{}
	svc := NewService(store)

	_, err := svc.ImportProducts(context.Background(), strings.NewReader("garbage"))

	assert.True(t, apperror.HasCode(err, apperror.CodeImportParse))
	assert.Nil(t, store.upserted)
}
