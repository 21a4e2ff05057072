package handlers

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stockroom/internal/domain/inventory"
	"stockroom/internal/domain/settings"
	"stockroom/internal/infrastructure/http/v1/dto"
	"stockroom/internal/infrastructure/print"
)

// --- Products ---

// ProductHandler handles the product catalog.
type ProductHandler struct {
	*DocumentHandler[inventory.Product, dto.ProductRequest, *dto.ProductRequest]
	service *inventory.Service
}

// NewProductHandler creates a product handler.
func NewProductHandler(base *BaseHandler, service *inventory.Service, loc *time.Location) *ProductHandler {
	return &ProductHandler{
		DocumentHandler: NewDocumentHandler[inventory.Product, dto.ProductRequest](base, DocumentFuncs[inventory.Product]{
			List:   service.ListProducts,
			Get:    service.GetProduct,
			Create: service.CreateProduct,
			Delete: service.DeleteProduct,
		}, loc),
		service: service,
	}
}

// Update handles PUT /products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.ProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p := req.ToEntity()
	p.ID = productID
	if err := h.service.UpdateProduct(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// --- Sales ---

// SaleHandler handles sales invoices.
type SaleHandler struct {
	*DocumentHandler[inventory.Sale, dto.CreateSaleRequest, *dto.CreateSaleRequest]
	service  *inventory.Service
	settings *settings.Service
	renderer *print.HTMLRenderer
}

// NewSaleHandler creates a sales handler.
func NewSaleHandler(
	base *BaseHandler,
	service *inventory.Service,
	settingsService *settings.Service,
	renderer *print.HTMLRenderer,
	loc *time.Location,
) *SaleHandler {
	return &SaleHandler{
		DocumentHandler: NewDocumentHandler[inventory.Sale, dto.CreateSaleRequest](base, DocumentFuncs[inventory.Sale]{
			List:   service.ListSales,
			Get:    service.GetSale,
			Create: service.CreateSale,
			Delete: service.DeleteSale,
		}, loc),
		service:  service,
		settings: settingsService,
		renderer: renderer,
	}
}

// Print handles GET /sales/:id/print
func (h *SaleHandler) Print(c *gin.Context) {
	ctx := c.Request.Context()

	saleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	sale, err := h.service.GetSale(ctx, saleID)
	if err != nil {
		h.Error(c, err)
		return
	}
	ps, err := h.settings.PrintSettings(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}
	ps.Locale = h.Locale(c)
	ps.Direction = h.bundle.Direction(ps.Locale)

	labels := print.InvoiceLabels{
		Number:     h.T(c, "invoice.number"),
		Date:       h.T(c, "invoice.date"),
		Party:      h.T(c, "invoice.customer"),
		Item:       h.T(c, "invoice.item"),
		Quantity:   h.T(c, "invoice.quantity"),
		Price:      h.T(c, "invoice.price"),
		Total:      h.T(c, "invoice.total"),
		Subtotal:   h.T(c, "invoice.subtotal"),
		Discount:   h.T(c, "invoice.discount"),
		Tax:        h.T(c, "invoice.tax"),
		GrandTotal: h.T(c, "invoice.grand_total"),
		Paid:       h.T(c, "invoice.paid"),
		Balance:    h.T(c, "invoice.balance"),
	}

	var buf bytes.Buffer
	if err := h.renderer.RenderInvoice(&buf, print.SaleInvoice(sale, h.T(c, "invoice.sale"), labels, ps)); err != nil {
		h.Error(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// --- Purchases ---

// PurchaseHandler handles purchase orders.
type PurchaseHandler struct {
	*DocumentHandler[inventory.Purchase, dto.CreatePurchaseRequest, *dto.CreatePurchaseRequest]
	service *inventory.Service
}

// NewPurchaseHandler creates a purchases handler.
func NewPurchaseHandler(base *BaseHandler, service *inventory.Service, loc *time.Location) *PurchaseHandler {
	return &PurchaseHandler{
		DocumentHandler: NewDocumentHandler[inventory.Purchase, dto.CreatePurchaseRequest](base, DocumentFuncs[inventory.Purchase]{
			List:   service.ListPurchases,
			Get:    service.GetPurchase,
			Create: service.CreatePurchase,
			Delete: service.DeletePurchase,
		}, loc),
		service: service,
	}
}

// Receive handles POST /purchases/:id/receive
func (h *PurchaseHandler) Receive(c *gin.Context) {
	purchaseID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	p, err := h.service.ReceivePurchase(c.Request.Context(), purchaseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// --- Movements ---

// NewMovementHandler creates a stock movements handler.
func NewMovementHandler(
	base *BaseHandler,
	service *inventory.Service,
	loc *time.Location,
) *DocumentHandler[inventory.Movement, dto.CreateMovementRequest, *dto.CreateMovementRequest] {
	return NewDocumentHandler[inventory.Movement, dto.CreateMovementRequest](base, DocumentFuncs[inventory.Movement]{
		List:   service.ListMovements,
		Get:    service.GetMovement,
		Create: service.CreateMovement,
		Delete: service.DeleteMovement,
	}, loc)
}

// --- Purchase requests ---

// PurchaseRequestHandler handles purchase requests.
type PurchaseRequestHandler struct {
	*DocumentHandler[inventory.PurchaseRequest, dto.CreatePurchaseRequestRequest, *dto.CreatePurchaseRequestRequest]
	service *inventory.Service
}

// NewPurchaseRequestHandler creates a purchase requests handler.
func NewPurchaseRequestHandler(base *BaseHandler, service *inventory.Service, loc *time.Location) *PurchaseRequestHandler {
	return &PurchaseRequestHandler{
		DocumentHandler: NewDocumentHandler[inventory.PurchaseRequest, dto.CreatePurchaseRequestRequest](base,
			DocumentFuncs[inventory.PurchaseRequest]{
				List:   service.ListPurchaseRequests,
				Get:    service.GetPurchaseRequest,
				Create: service.CreatePurchaseRequest,
				Delete: service.DeletePurchaseRequest,
			}, loc),
		service: service,
	}
}

// SetStatus handles PUT /purchase-requests/:id/status
func (h *PurchaseRequestHandler) SetStatus(c *gin.Context) {
	requestID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.SetRequestStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	r, err := h.service.SetRequestStatus(c.Request.Context(), requestID, inventory.RequestStatus(req.Status))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, r)
}
