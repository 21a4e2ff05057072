package i18n

var english = map[string]string{
	"report.total": "Total",

	"source.sales":             "Sales",
	"source.purchases":         "Purchases",
	"source.products":          "Products",
	"source.movements":         "Stock movements",
	"source.purchase_requests": "Purchase requests",
	"source.users":             "Users",

	"subsource.all":            "All",
	"subsource.sales_only":     "Sales only",
	"subsource.purchases_only": "Purchases only",
	"subsource.returns":        "Returns only",
	"subsource.items":          "Item details",
	"subsource.return_items":   "Returned items",
	"subsource.cash":           "Cash invoices",
	"subsource.credit":         "Credit invoices",
	"subsource.low_stock":      "Low stock only",
	"subsource.out_of_stock":   "Out of stock",
	"subsource.in_stock":       "In stock",
	"subsource.in":             "Stock in",
	"subsource.out":            "Stock out",
	"subsource.adjustment":     "Adjustments",
	"subsource.pending":        "Pending",
	"subsource.approved":       "Approved",
	"subsource.rejected":       "Rejected",
	"subsource.ordered":        "Ordered",
	"subsource.active":         "Active",
	"subsource.inactive":       "Inactive",

	"field.invoiceNumber":      "Invoice number",
	"field.date":               "Date",
	"field.customerName":       "Customer",
	"field.vendorName":         "Vendor",
	"field.paymentMethod":      "Payment method",
	"field.itemsCount":         "Items count",
	"field.subtotal":           "Subtotal",
	"field.discount":           "Discount",
	"field.tax":                "Tax",
	"field.total":              "Total",
	"field.paid":               "Paid",
	"field.remaining":          "Remaining",
	"field.status":             "Status",
	"field.createdBy":          "Created by",
	"field.notes":              "Notes",
	"field.itemName":           "Item name",
	"field.itemBarcode":        "Item barcode",
	"field.itemQuantity":       "Item quantity",
	"field.itemPrice":          "Item price",
	"field.itemTotal":          "Line total",
	"field.itemBulkQuantity":   "Bulk quantity",
	"field.itemPackedQuantity": "Packed quantity",
	"field.name":               "Name",
	"field.barcode":            "Barcode",
	"field.category":           "Category",
	"field.unit":               "Unit",
	"field.stock":              "Stock",
	"field.minStock":           "Minimum stock",
	"field.costPrice":          "Cost price",
	"field.salePrice":          "Sale price",
	"field.stockValue":         "Stock value",
	"field.createdAt":          "Created at",
	"field.updatedAt":          "Updated at",
	"field.productName":        "Product",
	"field.type":               "Type",
	"field.quantity":           "Quantity",
	"field.reason":             "Reason",
	"field.reference":          "Reference",
	"field.requestNumber":      "Request number",
	"field.requestedBy":        "Requested by",
	"field.estimatedTotal":     "Estimated total",
	"field.username":           "Username",
	"field.email":              "Email",
	"field.displayName":        "Display name",
	"field.role":               "Role",
	"field.lastLoginAt":        "Last login",

	"auth.invalid_credential": "Invalid username or password.",
	"auth.invalid_email":      "The email address is not valid.",
	"auth.user_disabled":      "This account has been disabled.",
	"auth.network":            "Could not reach the authentication service. Check your connection and try again.",
	"auth.too_many_requests":  "Too many failed attempts. Try again later.",

	"invoice.sale":        "Sales invoice",
	"invoice.number":      "Invoice no.",
	"invoice.date":        "Date",
	"invoice.customer":    "Customer",
	"invoice.item":        "Item",
	"invoice.quantity":    "Qty",
	"invoice.price":       "Price",
	"invoice.total":       "Total",
	"invoice.subtotal":    "Subtotal",
	"invoice.discount":    "Discount",
	"invoice.tax":         "Tax",
	"invoice.grand_total": "Grand total",
	"invoice.paid":        "Paid",
	"invoice.balance":     "Balance",
}

var arabic = map[string]string{
	"report.total": "الإجمالي",

	"source.sales":             "المبيعات",
	"source.purchases":         "المشتريات",
	"source.products":          "المنتجات",
	"source.movements":         "حركات المخزون",
	"source.purchase_requests": "طلبات الشراء",
	"source.users":             "المستخدمون",

	"subsource.all":            "الكل",
	"subsource.returns":        "المرتجعات فقط",
	"subsource.items":          "تفاصيل الأصناف",
	"subsource.low_stock":      "المخزون المنخفض فقط",
	"subsource.out_of_stock":   "نفد من المخزون",
	"subsource.pending":        "قيد الانتظار",
	"subsource.approved":       "موافق عليه",
	"subsource.rejected":       "مرفوض",
	"subsource.ordered":        "تم الطلب",
	"subsource.return_items":   "أصناف المرتجعات",
	"subsource.cash":           "نقدي",
	"subsource.credit":         "آجل",
	"subsource.in_stock":       "متوفر بالمخزون",
	"subsource.in":             "وارد",
	"subsource.out":            "صادر",
	"subsource.adjustment":     "تسوية",
	"subsource.sales_only":     "المبيعات فقط",
	"subsource.purchases_only": "المشتريات فقط",
	"subsource.active":         "نشط",
	"subsource.inactive":       "غير نشط",

	"field.invoiceNumber": "رقم الفاتورة",
	"field.date":          "التاريخ",
	"field.customerName":  "العميل",
	"field.vendorName":    "المورد",
	"field.total":         "الإجمالي",
	"field.paid":          "المدفوع",
	"field.remaining":     "المتبقي",
	"field.itemName":      "اسم الصنف",
	"field.itemQuantity":  "الكمية",
	"field.itemPrice":     "السعر",
	"field.name":          "الاسم",
	"field.barcode":       "الباركود",
	"field.category":      "الفئة",
	"field.unit":          "الوحدة",
	"field.stock":         "المخزون",
	"field.minStock":      "الحد الأدنى",
	"field.costPrice":     "سعر التكلفة",
	"field.salePrice":     "سعر البيع",
	"field.quantity":      "الكمية",
	"field.username":      "اسم المستخدم",
	"field.role":          "الدور",

	"field.reason":             "السبب",
	"field.email":              "البريد الإلكتروني",
	"field.discount":           "الخصم",
	"field.itemPackedQuantity": "الكمية المعبأة",
	"field.itemBulkQuantity":   "الكمية السائبة",
	"field.itemTotal":          "إجمالي الصنف",
	"field.itemBarcode":        "باركود الصنف",
	"field.reference":          "المرجع",
	"field.lastLoginAt":        "آخر تسجيل دخول",
	"field.displayName":        "الاسم المعروض",
	"field.status":             "الحالة",
	"field.estimatedTotal":     "الإجمالي التقديري",
	"field.stockValue":         "قيمة المخزون",
	"field.subtotal":           "المجموع الفرعي",
	"field.createdAt":          "تاريخ الإنشاء",
	"field.updatedAt":          "تاريخ التحديث",
	"field.itemsCount":         "عدد الأصناف",
	"field.tax":                "الضريبة",
	"field.requestNumber":      "رقم الطلب",
	"field.requestedBy":        "مقدم الطلب",
	"field.type":               "النوع",
	"field.notes":              "ملاحظات",
	"field.createdBy":          "أنشئ بواسطة",
	"field.productName":        "اسم المنتج",
	"field.paymentMethod":      "طريقة الدفع",

	"auth.invalid_credential": "اسم المستخدم أو كلمة المرور غير صحيحة.",
	"auth.invalid_email":      "البريد الإلكتروني غير صالح.",
	"auth.user_disabled":      "تم تعطيل هذا الحساب.",
	"auth.network":            "تعذر الاتصال بخدمة المصادقة. تحقق من الاتصال وحاول مرة أخرى.",
	"auth.too_many_requests":  "محاولات فاشلة كثيرة. حاول لاحقاً.",

	"invoice.sale":        "فاتورة مبيعات",
	"invoice.number":      "رقم الفاتورة",
	"invoice.date":        "التاريخ",
	"invoice.customer":    "العميل",
	"invoice.item":        "الصنف",
	"invoice.quantity":    "الكمية",
	"invoice.price":       "السعر",
	"invoice.total":       "الإجمالي",
	"invoice.subtotal":    "المجموع الفرعي",
	"invoice.discount":    "الخصم",
	"invoice.tax":         "الضريبة",
	"invoice.grand_total": "الإجمالي النهائي",
	"invoice.paid":        "المدفوع",
	"invoice.balance":     "المتبقي",
}
