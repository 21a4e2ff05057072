// Package inventory holds the warehouse entities: products, sales invoices,
// purchase orders, stock movements and purchase requests.
package inventory

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/id"
	"stockroom/internal/core/types"
)

// --- Product ---

// DefaultMinStock is used as the low-stock threshold when a product has none.
const DefaultMinStock = 10

// Product is a catalog entry with its on-hand stock.
type Product struct {
	ID        id.ID           `json:"id" db:"id"`
	Name      string          `json:"name"`
	Barcode   string          `json:"barcode,omitempty"`
	Category  string          `json:"category,omitempty"`
	Unit      string          `json:"unit,omitempty"`
	Stock     float64         `json:"stock"`
	MinStock  float64         `json:"minStock"`
	CostPrice decimal.Decimal `json:"costPrice"`
	SalePrice decimal.Decimal `json:"salePrice"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Validate checks product invariants.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if p.MinStock < 0 {
		return apperror.NewValidation("minStock cannot be negative").WithDetail("field", "minStock")
	}
	if p.CostPrice.IsNegative() || p.SalePrice.IsNegative() {
		return apperror.NewValidation("prices cannot be negative").WithDetail("field", "price")
	}
	return nil
}

// LowStockThreshold returns MinStock or DefaultMinStock when unset.
func (p *Product) LowStockThreshold() float64 {
	if p.MinStock > 0 {
		return p.MinStock
	}
	return DefaultMinStock
}

// StockValue is stock valued at cost price.
func (p *Product) StockValue() decimal.Decimal {
	return p.CostPrice.Mul(decimal.NewFromFloat(p.Stock))
}

// --- Line items ---

// LineItem is one product line of a sale, purchase or purchase request.
type LineItem struct {
	ProductID      string          `json:"productId,omitempty"`
	Name           string          `json:"name"`
	Barcode        string          `json:"barcode,omitempty"`
	Quantity       float64         `json:"quantity"`
	Price          decimal.Decimal `json:"price"`
	Total          decimal.Decimal `json:"total"`
	BulkQuantity   float64         `json:"bulkQuantity,omitempty"`
	PackedQuantity float64         `json:"packedQuantity,omitempty"`
}

// CalculateTotal sets Total = Quantity * Price rounded to money precision.
func (li *LineItem) CalculateTotal() {
	li.Total = types.RoundMoney(li.Price.Mul(decimal.NewFromFloat(li.Quantity)))
}

func validateItems(items []LineItem, allowNegative bool) error {
	if len(items) == 0 {
		return apperror.NewValidation("at least one line item is required").WithDetail("field", "items")
	}
	for i, item := range items {
		if strings.TrimSpace(item.Name) == "" {
			return apperror.NewValidation("item name is required").
				WithDetail("field", "items").WithDetail("line", i+1)
		}
		if item.Quantity == 0 || (!allowNegative && item.Quantity < 0) {
			return apperror.NewValidation("item quantity is invalid").
				WithDetail("field", "items").WithDetail("line", i+1)
		}
		if item.Price.IsNegative() {
			return apperror.NewValidation("item price cannot be negative").
				WithDetail("field", "items").WithDetail("line", i+1)
		}
	}
	return nil
}

func sumItems(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for i := range items {
		items[i].CalculateTotal()
		total = total.Add(items[i].Total)
	}
	return total
}

// --- Sale ---

// Sale is a sales invoice. A return is a sale with negative quantities and total.
type Sale struct {
	ID            id.ID           `json:"id"`
	InvoiceNumber string          `json:"invoiceNumber"`
	Date          time.Time       `json:"date"`
	CustomerName  string          `json:"customerName,omitempty"`
	PaymentMethod string          `json:"paymentMethod,omitempty"`
	Items         []LineItem      `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
	Paid          decimal.Decimal `json:"paid"`
	CreatedBy     string          `json:"createdBy,omitempty"`
	Notes         string          `json:"notes,omitempty"`
}

// IsReturn reports whether the invoice is a customer return.
func (s *Sale) IsReturn() bool {
	return s.Total.IsNegative()
}

// Remaining is the unpaid part of the invoice.
func (s *Sale) Remaining() decimal.Decimal {
	return s.Total.Sub(s.Paid)
}

// CalculateTotals recomputes line totals, subtotal and total.
func (s *Sale) CalculateTotals() {
	s.Subtotal = sumItems(s.Items)
	s.Total = types.RoundMoney(s.Subtotal.Sub(s.Discount).Add(s.Tax))
}

// Validate checks invoice invariants.
func (s *Sale) Validate() error {
	if err := validateItems(s.Items, true); err != nil {
		return err
	}
	if s.Discount.IsNegative() || s.Tax.IsNegative() {
		return apperror.NewValidation("discount and tax cannot be negative")
	}
	if s.Date.IsZero() {
		return apperror.NewValidation("date is required").WithDetail("field", "date")
	}
	return nil
}

// --- Purchase ---

// Purchase statuses.
const (
	PurchaseStatusDraft    = "draft"
	PurchaseStatusReceived = "received"
)

// Purchase is a purchase order from a vendor. Returns carry a negative total.
type Purchase struct {
	ID            id.ID           `json:"id"`
	InvoiceNumber string          `json:"invoiceNumber"`
	Date          time.Time       `json:"date"`
	VendorName    string          `json:"vendorName,omitempty"`
	Items         []LineItem      `json:"items"`
	Total         decimal.Decimal `json:"total"`
	Paid          decimal.Decimal `json:"paid"`
	Status        string          `json:"status"`
	CreatedBy     string          `json:"createdBy,omitempty"`
	Notes         string          `json:"notes,omitempty"`
}

// IsReturn reports whether the purchase is a return to the vendor.
func (p *Purchase) IsReturn() bool {
	return p.Total.IsNegative()
}

// Remaining is the unpaid part of the order.
func (p *Purchase) Remaining() decimal.Decimal {
	return p.Total.Sub(p.Paid)
}

// CalculateTotals recomputes line totals and the order total.
func (p *Purchase) CalculateTotals() {
	p.Total = types.RoundMoney(sumItems(p.Items))
}

// Validate checks order invariants.
func (p *Purchase) Validate() error {
	if err := validateItems(p.Items, true); err != nil {
		return err
	}
	if p.Date.IsZero() {
		return apperror.NewValidation("date is required").WithDetail("field", "date")
	}
	switch p.Status {
	case PurchaseStatusDraft, PurchaseStatusReceived:
	default:
		return apperror.NewValidation("unknown purchase status").WithDetail("status", p.Status)
	}
	return nil
}

// --- Movement ---

// MovementType classifies stock movements.
type MovementType string

const (
	MovementIn         MovementType = "in"
	MovementOut        MovementType = "out"
	MovementAdjustment MovementType = "adjustment"
)

// Movement records a single change of a product's stock.
type Movement struct {
	ID          id.ID        `json:"id"`
	Date        time.Time    `json:"date"`
	ProductID   string       `json:"productId"`
	ProductName string       `json:"productName"`
	Barcode     string       `json:"barcode,omitempty"`
	Type        MovementType `json:"type"`
	Quantity    float64      `json:"quantity"`
	Reason      string       `json:"reason,omitempty"`
	Reference   string       `json:"reference,omitempty"`
	CreatedBy   string       `json:"createdBy,omitempty"`
}

// Validate checks movement invariants.
func (m *Movement) Validate() error {
	switch m.Type {
	case MovementIn, MovementOut, MovementAdjustment:
	default:
		return apperror.NewValidation("unknown movement type").WithDetail("type", m.Type)
	}
	if m.ProductID == "" {
		return apperror.NewValidation("productId is required").WithDetail("field", "productId")
	}
	if m.Quantity == 0 {
		return apperror.NewValidation("quantity cannot be zero").WithDetail("field", "quantity")
	}
	if m.Type != MovementAdjustment && m.Quantity < 0 {
		return apperror.NewValidation("quantity must be positive").WithDetail("field", "quantity")
	}
	return nil
}

// Delta is the signed stock change the movement applies.
func (m *Movement) Delta() float64 {
	if m.Type == MovementOut {
		return -m.Quantity
	}
	return m.Quantity
}

// --- Purchase request ---

// RequestStatus is the approval state of a purchase request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
	RequestOrdered  RequestStatus = "ordered"
)

// PurchaseRequest is an internal request to buy goods.
type PurchaseRequest struct {
	ID            id.ID         `json:"id"`
	RequestNumber string        `json:"requestNumber"`
	Date          time.Time     `json:"date"`
	RequestedBy   string        `json:"requestedBy,omitempty"`
	Status        RequestStatus `json:"status"`
	Items         []LineItem    `json:"items"`
	Notes         string        `json:"notes,omitempty"`
}

// EstimatedTotal sums the priced lines.
func (r *PurchaseRequest) EstimatedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range r.Items {
		total = total.Add(item.Price.Mul(decimal.NewFromFloat(item.Quantity)))
	}
	return types.RoundMoney(total)
}

// Validate checks request invariants.
func (r *PurchaseRequest) Validate() error {
	if err := validateItems(r.Items, false); err != nil {
		return err
	}
	switch r.Status {
	case RequestPending, RequestApproved, RequestRejected, RequestOrdered:
	default:
		return apperror.NewValidation("unknown request status").WithDetail("status", r.Status)
	}
	return nil
}

// ImportResult reports the outcome of a bulk product upsert.
type ImportResult struct {
	AddedCount   int `json:"addedCount"`
	UpdatedCount int `json:"updatedCount"`
}
