// Package importer reads and writes product spreadsheets.
package importer

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/types"
	"stockroom/internal/domain/inventory"
	"stockroom/pkg/logger"
)

// Column identifies a product field in a spreadsheet.
type Column string

const (
	ColName      Column = "name"
	ColBarcode   Column = "barcode"
	ColCategory  Column = "category"
	ColUnit      Column = "unit"
	ColStock     Column = "stock"
	ColMinStock  Column = "minStock"
	ColCostPrice Column = "costPrice"
	ColSalePrice Column = "salePrice"
)

// exportColumns is the canonical column order with the headers written on export.
var exportColumns = []struct {
	col    Column
	header string
}{
	{ColName, "Name"},
	{ColBarcode, "Barcode"},
	{ColCategory, "Category"},
	{ColUnit, "Unit"},
	{ColStock, "Stock"},
	{ColMinStock, "Min Stock"},
	{ColCostPrice, "Cost Price"},
	{ColSalePrice, "Sale Price"},
}

// headerAliases maps normalized header text, English and Arabic, to columns.
var headerAliases = map[string]Column{
	"name":         ColName,
	"product":      ColName,
	"product name": ColName,
	"item":         ColName,
	"item name":    ColName,
	"الاسم":        ColName,
	"اسم المنتج":   ColName,
	"المنتج":       ColName,
	"الصنف":        ColName,
	"اسم الصنف":    ColName,

	"barcode":  ColBarcode,
	"code":     ColBarcode,
	"sku":      ColBarcode,
	"الباركود": ColBarcode,
	"الكود":    ColBarcode,
	"كود":      ColBarcode,

	"category": ColCategory,
	"group":    ColCategory,
	"الفئة":    ColCategory,
	"التصنيف":  ColCategory,
	"القسم":    ColCategory,

	"unit":   ColUnit,
	"uom":    ColUnit,
	"الوحدة": ColUnit,

	"stock":    ColStock,
	"quantity": ColStock,
	"qty":      ColStock,
	"الكمية":   ColStock,
	"المخزون":  ColStock,

	"min stock":     ColMinStock,
	"minstock":      ColMinStock,
	"minimum stock": ColMinStock,
	"reorder level": ColMinStock,
	"الحد الأدنى":   ColMinStock,
	"حد الطلب":      ColMinStock,

	"cost":           ColCostPrice,
	"cost price":     ColCostPrice,
	"costprice":      ColCostPrice,
	"purchase price": ColCostPrice,
	"سعر التكلفة":    ColCostPrice,
	"سعر الشراء":     ColCostPrice,

	"price":         ColSalePrice,
	"sale price":    ColSalePrice,
	"saleprice":     ColSalePrice,
	"selling price": ColSalePrice,
	"سعر البيع":     ColSalePrice,
	"السعر":         ColSalePrice,
}

// normalizeHeader lowercases h, turns separators into spaces and collapses
// runs of whitespace.
func normalizeHeader(h string) string {
	h = strings.ToLower(h)
	h = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(h)
	return strings.Join(strings.Fields(h), " ")
}

// ResolveHeader maps a header cell to a column.
func ResolveHeader(h string) (Column, bool) {
	col, ok := headerAliases[normalizeHeader(h)]
	return col, ok
}

// ParseProducts reads products from the first sheet of an xlsx workbook.
// The first row is the header. Rows without a name are skipped. A workbook
// that cannot be read, has no name column or holds a malformed number fails
// with IMPORT_PARSE_ERROR and yields nothing.
func ParseProducts(r io.Reader) ([]inventory.Product, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperror.NewImportParse("file is not a readable spreadsheet", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperror.NewImportParse("workbook has no sheets", nil)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperror.NewImportParse("cannot read sheet", err)
	}
	if len(rows) == 0 {
		return nil, apperror.NewImportParse("sheet is empty", nil)
	}

	index := make(map[Column]int)
	for i, h := range rows[0] {
		if col, ok := ResolveHeader(h); ok {
			if _, dup := index[col]; !dup {
				index[col] = i
			}
		}
	}
	if _, ok := index[ColName]; !ok {
		return nil, apperror.NewImportParse("name column not found", nil)
	}

	var products []inventory.Product
	for n, row := range rows[1:] {
		cell := func(col Column) string {
			i, ok := index[col]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		name := cell(ColName)
		if name == "" {
			continue
		}
		p := inventory.Product{
			Name:     name,
			Barcode:  cell(ColBarcode),
			Category: cell(ColCategory),
			Unit:     cell(ColUnit),
		}

		line := n + 2
		var perr error
		num := func(col Column) decimal.Decimal {
			raw := cell(col)
			if raw == "" || perr != nil {
				return decimal.Zero
			}
			d, ok := types.ToDecimal(raw)
			if !ok {
				perr = apperror.NewImportParse(fmt.Sprintf("row %d: %s is not a number", line, col), nil).
					WithDetail("row", line).WithDetail("column", string(col))
				return decimal.Zero
			}
			return d
		}
		p.Stock = num(ColStock).InexactFloat64()
		p.MinStock = num(ColMinStock).InexactFloat64()
		p.CostPrice = num(ColCostPrice)
		p.SalePrice = num(ColSalePrice)
		if perr != nil {
			return nil, perr
		}
		products = append(products, p)
	}
	return products, nil
}

// WriteProducts writes products as an xlsx workbook with canonical headers.
func WriteProducts(w io.Writer, products []inventory.Product) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Products"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	header := make([]any, len(exportColumns))
	for i, c := range exportColumns {
		header[i] = c.header
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, p := range products {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			p.Name,
			p.Barcode,
			p.Category,
			p.Unit,
			p.Stock,
			p.MinStock,
			p.CostPrice.InexactFloat64(),
			p.SalePrice.InexactFloat64(),
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// ProductStore is the inventory surface used by imports and exports.
type ProductStore interface {
	ListProducts(ctx context.Context, filter inventory.ListFilter) ([]inventory.Product, error)
	UpsertProducts(ctx context.Context, products []inventory.Product) (inventory.ImportResult, error)
}

// Service imports and exports the product catalog.
type Service struct {
	products ProductStore
}

// NewService creates an importer over products.
func NewService(products ProductStore) *Service {
	return &Service{products: products}
}

// ImportProducts parses a workbook and merges it into the catalog. Nothing is
// written when parsing fails.
func (s *Service) ImportProducts(ctx context.Context, r io.Reader) (inventory.ImportResult, error) {
	products, err := ParseProducts(r)
	if err != nil {
		logger.Warn(ctx, "product import rejected", "error", err)
		return inventory.ImportResult{}, err
	}
	return s.products.UpsertProducts(ctx, products)
}

// ExportProducts writes the whole catalog as a workbook.
func (s *Service) ExportProducts(ctx context.Context, w io.Writer) error {
	products, err := s.products.ListProducts(ctx, inventory.ListFilter{})
	if err != nil {
		return err
	}
	return WriteProducts(w, products)
}
