package reports

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"stockroom/internal/domain/auth"
	"stockroom/internal/domain/inventory"
)

// Snapshot is the dataset a report is evaluated against: one strictly typed
// slice per data source. Only the slice of the evaluated source needs to be set.
type Snapshot struct {
	Sales            []inventory.Sale
	Purchases        []inventory.Purchase
	Products         []inventory.Product
	Movements        []inventory.Movement
	PurchaseRequests []inventory.PurchaseRequest
	Users            []auth.User
}

// Rows flattens the records of source into evaluator rows.
func (s *Snapshot) Rows(source DataSource) []Row {
	switch source {
	case SourceSales:
		return mapRows(s.Sales, saleRow)
	case SourcePurchases:
		return mapRows(s.Purchases, purchaseRow)
	case SourceProducts:
		return mapRows(s.Products, productRow)
	case SourceMovements:
		return mapRows(s.Movements, movementRow)
	case SourcePurchaseRequests:
		return mapRows(s.PurchaseRequests, requestRow)
	case SourceUsers:
		return mapRows(s.Users, userRow)
	}
	return nil
}

func mapRows[T any](records []T, fn func(*T) Row) []Row {
	rows := make([]Row, 0, len(records))
	for i := range records {
		rows = append(rows, fn(&records[i]))
	}
	return rows
}

func money(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func timestamp(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}

func lineItems(items []inventory.LineItem) []any {
	out := make([]any, 0, len(items))
	for _, it := range items {
		out = append(out, map[string]any{
			"productId":      it.ProductID,
			"name":           it.Name,
			"barcode":        it.Barcode,
			"quantity":       it.Quantity,
			"price":          money(it.Price),
			"total":          money(it.Total),
			"bulkQuantity":   it.BulkQuantity,
			"packedQuantity": it.PackedQuantity,
		})
	}
	return out
}

func saleRow(s *inventory.Sale) Row {
	return Row{
		"id":            s.ID.String(),
		"invoiceNumber": s.InvoiceNumber,
		"date":          timestamp(s.Date),
		"customerName":  s.CustomerName,
		"paymentMethod": s.PaymentMethod,
		"itemsCount":    float64(len(s.Items)),
		"items":         lineItems(s.Items),
		"subtotal":      money(s.Subtotal),
		"discount":      money(s.Discount),
		"tax":           money(s.Tax),
		"total":         money(s.Total),
		"paid":          money(s.Paid),
		"remaining":     money(s.Remaining()),
		"createdBy":     s.CreatedBy,
		"notes":         s.Notes,
	}
}

func purchaseRow(p *inventory.Purchase) Row {
	return Row{
		"id":            p.ID.String(),
		"invoiceNumber": p.InvoiceNumber,
		"date":          timestamp(p.Date),
		"vendorName":    p.VendorName,
		"itemsCount":    float64(len(p.Items)),
		"items":         lineItems(p.Items),
		"total":         money(p.Total),
		"paid":          money(p.Paid),
		"remaining":     money(p.Remaining()),
		"status":        p.Status,
		"createdBy":     p.CreatedBy,
		"notes":         p.Notes,
	}
}

func productRow(p *inventory.Product) Row {
	return Row{
		"id":         p.ID.String(),
		"name":       p.Name,
		"barcode":    p.Barcode,
		"category":   p.Category,
		"unit":       p.Unit,
		"stock":      p.Stock,
		"minStock":   p.MinStock,
		"costPrice":  money(p.CostPrice),
		"salePrice":  money(p.SalePrice),
		"stockValue": money(p.StockValue()),
		"createdAt":  timestamp(p.CreatedAt),
		"updatedAt":  timestamp(p.UpdatedAt),
	}
}

func movementRow(m *inventory.Movement) Row {
	return Row{
		"id":          m.ID.String(),
		"date":        timestamp(m.Date),
		"productId":   m.ProductID,
		"productName": m.ProductName,
		"barcode":     m.Barcode,
		"type":        string(m.Type),
		"quantity":    m.Quantity,
		"reason":      m.Reason,
		"reference":   m.Reference,
		"createdBy":   m.CreatedBy,
	}
}

func requestRow(r *inventory.PurchaseRequest) Row {
	return Row{
		"id":             r.ID.String(),
		"requestNumber":  r.RequestNumber,
		"date":           timestamp(r.Date),
		"requestedBy":    r.RequestedBy,
		"status":         string(r.Status),
		"itemsCount":     float64(len(r.Items)),
		"items":          lineItems(r.Items),
		"estimatedTotal": money(r.EstimatedTotal()),
		"notes":          r.Notes,
	}
}

func userRow(u *auth.User) Row {
	status := "inactive"
	if u.IsActive {
		status = "active"
	}
	var lastLogin any
	if u.LastLoginAt != nil {
		lastLogin = timestamp(*u.LastLoginAt)
	}
	return Row{
		"id":          u.ID.String(),
		"username":    u.Username,
		"email":       u.Email,
		"displayName": u.DisplayName,
		"role":        string(u.Role),
		"isActive":    u.IsActive,
		"status":      status,
		"createdAt":   timestamp(u.CreatedAt),
		"lastLoginAt": lastLogin,
	}
}

// itemFields maps line item keys to the item-scoped row fields added when a
// parent row is exploded.
var itemFields = [...]struct{ from, to string }{
	{"productId", "itemProductId"},
	{"name", "itemName"},
	{"barcode", "itemBarcode"},
	{"quantity", "itemQuantity"},
	{"price", "itemPrice"},
	{"total", "itemTotal"},
	{"bulkQuantity", "itemBulkQuantity"},
	{"packedQuantity", "itemPackedQuantity"},
}

// explodeItems returns one row per line item of parent, carrying every parent
// field except the item list. A parent without items yields no rows.
func explodeItems(parent Row) []Row {
	items, _ := parent["items"].([]any)
	out := make([]Row, 0, len(items))
	for _, raw := range items {
		it, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		child := make(Row, len(parent)+len(itemFields))
		for k, v := range parent {
			if k != "items" {
				child[k] = v
			}
		}
		for _, f := range itemFields {
			child[f.to] = it[f.from]
		}
		out = append(out, child)
	}
	return out
}

// normalizeRow copies row converting Go numeric kinds, decimals and times to
// their JSON shapes (float64 and RFC 3339 strings), so predicates and
// comparisons see a single representation.
func normalizeRow(row Row) Row {
	out := make(Row, len(row))
	for k, v := range row {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch x := v.(type) {
	case nil, string, bool, float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case decimal.Decimal:
		return x.InexactFloat64()
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case time.Time:
		return timestamp(x)
	case map[string]any:
		return normalizeRow(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalizeValue(e)
		}
		return out
	case []map[string]any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalizeRow(e)
		}
		return out
	}
	return v
}
