package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"stockroom/internal/domain/inventory"
)

// --- Products ---

// ProductRequest creates or replaces a product.
type ProductRequest struct {
	Name      string          `json:"name" binding:"required"`
	Barcode   string          `json:"barcode"`
	Category  string          `json:"category"`
	Unit      string          `json:"unit"`
	Stock     float64         `json:"stock"`
	MinStock  float64         `json:"minStock"`
	CostPrice decimal.Decimal `json:"costPrice"`
	SalePrice decimal.Decimal `json:"salePrice"`
}

// ToEntity converts to a product without id.
func (r *ProductRequest) ToEntity() *inventory.Product {
	return &inventory.Product{
		Name:      r.Name,
		Barcode:   r.Barcode,
		Category:  r.Category,
		Unit:      r.Unit,
		Stock:     r.Stock,
		MinStock:  r.MinStock,
		CostPrice: r.CostPrice,
		SalePrice: r.SalePrice,
	}
}

// --- Documents ---

// LineItemRequest is one document line.
type LineItemRequest struct {
	ProductID      string          `json:"productId"`
	Name           string          `json:"name" binding:"required"`
	Barcode        string          `json:"barcode"`
	Quantity       float64         `json:"quantity"`
	Price          decimal.Decimal `json:"price"`
	BulkQuantity   float64         `json:"bulkQuantity"`
	PackedQuantity float64         `json:"packedQuantity"`
}

func toLineItems(in []LineItemRequest) []inventory.LineItem {
	out := make([]inventory.LineItem, len(in))
	for i, item := range in {
		out[i] = inventory.LineItem{
			ProductID:      item.ProductID,
			Name:           item.Name,
			Barcode:        item.Barcode,
			Quantity:       item.Quantity,
			Price:          item.Price,
			BulkQuantity:   item.BulkQuantity,
			PackedQuantity: item.PackedQuantity,
		}
	}
	return out
}

// CreateSaleRequest records a sale or, with negative quantities, a return.
type CreateSaleRequest struct {
	InvoiceNumber string            `json:"invoiceNumber"`
	Date          time.Time         `json:"date"`
	CustomerName  string            `json:"customerName"`
	PaymentMethod string            `json:"paymentMethod"`
	Items         []LineItemRequest `json:"items" binding:"required,min=1,dive"`
	Discount      decimal.Decimal   `json:"discount"`
	Tax           decimal.Decimal   `json:"tax"`
	Paid          decimal.Decimal   `json:"paid"`
	Notes         string            `json:"notes"`
}

// ToEntity converts to a sale. Totals are computed by the service.
func (r *CreateSaleRequest) ToEntity() *inventory.Sale {
	return &inventory.Sale{
		InvoiceNumber: r.InvoiceNumber,
		Date:          r.Date,
		CustomerName:  r.CustomerName,
		PaymentMethod: r.PaymentMethod,
		Items:         toLineItems(r.Items),
		Discount:      r.Discount,
		Tax:           r.Tax,
		Paid:          r.Paid,
		Notes:         r.Notes,
	}
}

// CreatePurchaseRequest records a purchase order. Status defaults to received.
type CreatePurchaseRequest struct {
	InvoiceNumber string            `json:"invoiceNumber"`
	Date          time.Time         `json:"date"`
	VendorName    string            `json:"vendorName"`
	Items         []LineItemRequest `json:"items" binding:"required,min=1,dive"`
	Paid          decimal.Decimal   `json:"paid"`
	Status        string            `json:"status" binding:"omitempty,oneof=draft received"`
	Notes         string            `json:"notes"`
}

// ToEntity converts to a purchase.
func (r *CreatePurchaseRequest) ToEntity() *inventory.Purchase {
	return &inventory.Purchase{
		InvoiceNumber: r.InvoiceNumber,
		Date:          r.Date,
		VendorName:    r.VendorName,
		Items:         toLineItems(r.Items),
		Paid:          r.Paid,
		Status:        r.Status,
		Notes:         r.Notes,
	}
}

// CreateMovementRequest records a manual stock movement.
type CreateMovementRequest struct {
	Date      time.Time `json:"date"`
	ProductID string    `json:"productId" binding:"required"`
	Type      string    `json:"type" binding:"required,oneof=in out adjustment"`
	Quantity  float64   `json:"quantity"`
	Reason    string    `json:"reason"`
	Reference string    `json:"reference"`
}

// ToEntity converts to a movement.
func (r *CreateMovementRequest) ToEntity() *inventory.Movement {
	return &inventory.Movement{
		Date:      r.Date,
		ProductID: r.ProductID,
		Type:      inventory.MovementType(r.Type),
		Quantity:  r.Quantity,
		Reason:    r.Reason,
		Reference: r.Reference,
	}
}

// CreatePurchaseRequestRequest files a purchase request.
type CreatePurchaseRequestRequest struct {
	Date  time.Time         `json:"date"`
	Items []LineItemRequest `json:"items" binding:"required,min=1,dive"`
	Notes string            `json:"notes"`
}

// ToEntity converts to a pending purchase request.
func (r *CreatePurchaseRequestRequest) ToEntity() *inventory.PurchaseRequest {
	return &inventory.PurchaseRequest{
		Date:  r.Date,
		Items: toLineItems(r.Items),
		Notes: r.Notes,
	}
}

// SetRequestStatusRequest moves a purchase request to a new status.
type SetRequestStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=approved rejected ordered"`
}
