package reports

import (
	"stockroom/internal/core/i18n"
)

// Field is a selectable column of a data source.
type Field struct {
	Key       string    `json:"key"`
	Label     string    `json:"label"`
	Type      ValueType `json:"type"`
	ItemLevel bool      `json:"itemLevel,omitempty"`
}

type fieldDef struct {
	key       string
	typ       ValueType
	itemLevel bool
}

func item(key string, typ ValueType) fieldDef {
	return fieldDef{key: key, typ: typ, itemLevel: true}
}

var saleItemFields = []fieldDef{
	item("itemName", TypeText),
	item("itemBarcode", TypeText),
	item("itemQuantity", TypeNumber),
	item("itemPrice", TypeCurrency),
	item("itemTotal", TypeCurrency),
	item("itemBulkQuantity", TypeNumber),
	item("itemPackedQuantity", TypeNumber),
}

var schema = map[DataSource][]fieldDef{
	SourceSales: append([]fieldDef{
		{key: "invoiceNumber", typ: TypeText},
		{key: "date", typ: TypeDate},
		{key: "customerName", typ: TypeText},
		{key: "paymentMethod", typ: TypeText},
		{key: "itemsCount", typ: TypeNumber},
		{key: "subtotal", typ: TypeCurrency},
		{key: "discount", typ: TypeCurrency},
		{key: "tax", typ: TypeCurrency},
		{key: "total", typ: TypeCurrency},
		{key: "paid", typ: TypeCurrency},
		{key: "remaining", typ: TypeCurrency},
		{key: "createdBy", typ: TypeText},
		{key: "notes", typ: TypeText},
	}, saleItemFields...),
	SourcePurchases: {
		{key: "invoiceNumber", typ: TypeText},
		{key: "date", typ: TypeDate},
		{key: "vendorName", typ: TypeText},
		{key: "itemsCount", typ: TypeNumber},
		{key: "total", typ: TypeCurrency},
		{key: "paid", typ: TypeCurrency},
		{key: "remaining", typ: TypeCurrency},
		{key: "status", typ: TypeText},
		{key: "createdBy", typ: TypeText},
		{key: "notes", typ: TypeText},
		item("itemName", TypeText),
		item("itemBarcode", TypeText),
		item("itemQuantity", TypeNumber),
		item("itemPrice", TypeCurrency),
		item("itemTotal", TypeCurrency),
	},
	SourceProducts: {
		{key: "name", typ: TypeText},
		{key: "barcode", typ: TypeText},
		{key: "category", typ: TypeText},
		{key: "unit", typ: TypeText},
		{key: "stock", typ: TypeNumber},
		{key: "minStock", typ: TypeNumber},
		{key: "costPrice", typ: TypeCurrency},
		{key: "salePrice", typ: TypeCurrency},
		{key: "stockValue", typ: TypeCurrency},
		{key: "createdAt", typ: TypeDate},
		{key: "updatedAt", typ: TypeDate},
	},
	SourceMovements: {
		{key: "date", typ: TypeDate},
		{key: "productName", typ: TypeText},
		{key: "barcode", typ: TypeText},
		{key: "type", typ: TypeText},
		{key: "quantity", typ: TypeNumber},
		{key: "reason", typ: TypeText},
		{key: "reference", typ: TypeText},
		{key: "createdBy", typ: TypeText},
	},
	SourcePurchaseRequests: {
		{key: "requestNumber", typ: TypeText},
		{key: "date", typ: TypeDate},
		{key: "requestedBy", typ: TypeText},
		{key: "status", typ: TypeText},
		{key: "itemsCount", typ: TypeNumber},
		{key: "estimatedTotal", typ: TypeCurrency},
		{key: "notes", typ: TypeText},
	},
	SourceUsers: {
		{key: "username", typ: TypeText},
		{key: "email", typ: TypeText},
		{key: "displayName", typ: TypeText},
		{key: "role", typ: TypeText},
		{key: "status", typ: TypeText},
		{key: "createdAt", typ: TypeDate},
		{key: "lastLoginAt", typ: TypeDate},
	},
}

// FieldsFor lists the selectable fields of source in display order. Labels
// come from translate under "field.<key>"; unknown keys use the key itself.
// A nil translate yields raw keys. Unknown sources have no fields.
func FieldsFor(source DataSource, translate i18n.Translator) []Field {
	defs := schema[source]
	fields := make([]Field, 0, len(defs))
	for _, d := range defs {
		label := d.key
		if translate != nil {
			if l, ok := translate("field." + d.key); ok {
				label = l
			}
		}
		fields = append(fields, Field{Key: d.key, Label: label, Type: d.typ, ItemLevel: d.itemLevel})
	}
	return fields
}

// FieldType returns the declared type of key in source.
func FieldType(source DataSource, key string) (ValueType, bool) {
	for _, d := range schema[source] {
		if d.key == key {
			return d.typ, true
		}
	}
	return "", false
}
