package inventory

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"stockroom/internal/core/apperror"
	appctx "stockroom/internal/core/context"
	"stockroom/internal/core/id"
	"stockroom/internal/core/numerator"
	"stockroom/internal/core/tx"
	"stockroom/pkg/logger"
)

// Service provides business operations over warehouse documents.
// Document writes that touch stock run in one transaction together with
// the product updates and the movements they produce.
type Service struct {
	repos     Repositories
	txManager tx.Manager
	numbers   numerator.Generator
	now       func() time.Time
}

// NewService creates a new inventory service.
func NewService(repos Repositories, txManager tx.Manager, numbers numerator.Generator) *Service {
	return &Service{
		repos:     repos,
		txManager: txManager,
		numbers:   numbers,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) nextNumber(ctx context.Context, cfg numerator.Config, at time.Time) (string, error) {
	number, err := s.numbers.GetNextNumber(ctx, cfg, nil, at)
	if err != nil {
		return "", fmt.Errorf("generate number: %w", err)
	}
	return number, nil
}

// --- Stock ---

type stockChange struct {
	reason    string
	reference string
	// strict rejects changes that would take stock below zero.
	strict bool
}

// applyItems moves stock for every line bound to a product. sign is +1 for
// goods coming in and -1 for goods going out.
func (s *Service) applyItems(ctx context.Context, items []LineItem, sign float64, change stockChange) error {
	for _, item := range items {
		if item.ProductID == "" {
			continue
		}
		if err := s.moveStock(ctx, item.ProductID, sign*item.Quantity, MovementIn, change); err != nil {
			return err
		}
	}
	return nil
}

// moveStock applies delta to a product and records the movement. Positive
// and negative deltas become in/out movements unless typ is adjustment.
func (s *Service) moveStock(ctx context.Context, productID string, delta float64, typ MovementType, change stockChange) error {
	pid, err := id.Parse(productID)
	if err != nil {
		return apperror.NewValidation("invalid product id").WithDetail("productId", productID)
	}
	product, err := s.repos.Products.Get(ctx, pid)
	if err != nil {
		return err
	}

	if change.strict && delta < 0 && product.Stock+delta < 0 {
		return apperror.NewInsufficientStock(productID, -delta, product.Stock)
	}
	product.Stock += delta
	product.UpdatedAt = s.now()
	if err := s.repos.Products.Save(ctx, product); err != nil {
		return fmt.Errorf("save product: %w", err)
	}

	mv := Movement{
		ID:          id.New(),
		Date:        s.now(),
		ProductID:   productID,
		ProductName: product.Name,
		Barcode:     product.Barcode,
		Type:        typ,
		Quantity:    delta,
		Reason:      change.reason,
		Reference:   change.reference,
		CreatedBy:   appctx.GetUsername(ctx),
	}
	if typ != MovementAdjustment {
		mv.Type = MovementIn
		if delta < 0 {
			mv.Type = MovementOut
		}
		mv.Quantity = math.Abs(delta)
	}
	if err := s.repos.Movements.Save(ctx, &mv); err != nil {
		return fmt.Errorf("save movement: %w", err)
	}
	return nil
}

// --- Products ---

// ListProducts lists products.
func (s *Service) ListProducts(ctx context.Context, filter ListFilter) ([]Product, error) {
	return s.repos.Products.List(ctx, filter)
}

// GetProduct returns a product by id.
func (s *Service) GetProduct(ctx context.Context, productID id.ID) (*Product, error) {
	return s.repos.Products.Get(ctx, productID)
}

func (s *Service) ensureUniqueBarcode(ctx context.Context, p *Product) error {
	if p.Barcode == "" {
		return nil
	}
	all, err := s.repos.Products.List(ctx, ListFilter{})
	if err != nil {
		return err
	}
	for _, other := range all {
		if other.ID != p.ID && other.Barcode == p.Barcode {
			return apperror.NewDuplicate("product", "barcode", p.Barcode)
		}
	}
	return nil
}

// CreateProduct adds a product to the catalog.
func (s *Service) CreateProduct(ctx context.Context, p *Product) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Barcode = strings.TrimSpace(p.Barcode)
	if err := p.Validate(); err != nil {
		return err
	}
	p.ID = id.New()
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.ensureUniqueBarcode(ctx, p); err != nil {
			return err
		}
		return s.repos.Products.Save(ctx, p)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "product created", "id", p.ID, "name", p.Name)
	return nil
}

// UpdateProduct replaces the editable fields of a product. A changed stock
// level is recorded as an adjustment movement.
func (s *Service) UpdateProduct(ctx context.Context, p *Product) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Barcode = strings.TrimSpace(p.Barcode)
	if err := p.Validate(); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.repos.Products.Get(ctx, p.ID)
		if err != nil {
			return err
		}
		if err := s.ensureUniqueBarcode(ctx, p); err != nil {
			return err
		}

		delta := p.Stock - existing.Stock
		p.Stock = existing.Stock
		p.CreatedAt = existing.CreatedAt
		p.UpdatedAt = s.now()
		if err := s.repos.Products.Save(ctx, p); err != nil {
			return fmt.Errorf("save product: %w", err)
		}
		if delta != 0 {
			if err := s.moveStock(ctx, p.ID.String(), delta, MovementAdjustment, stockChange{reason: "manual edit"}); err != nil {
				return err
			}
			p.Stock += delta
		}
		return nil
	})
}

// DeleteProduct removes a product. Documents keep their copies of its name.
func (s *Service) DeleteProduct(ctx context.Context, productID id.ID) error {
	if _, err := s.repos.Products.Get(ctx, productID); err != nil {
		return err
	}
	if err := s.repos.Products.Delete(ctx, productID); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	logger.Info(ctx, "product deleted", "id", productID)
	return nil
}

// UpsertProducts merges imported products into the catalog. Each incoming
// product matches an existing one by barcode, then by case-insensitive
// name; unmatched products are added.
func (s *Service) UpsertProducts(ctx context.Context, incoming []Product) (ImportResult, error) {
	var result ImportResult

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.repos.Products.List(ctx, ListFilter{})
		if err != nil {
			return err
		}

		byBarcode := make(map[string]*Product)
		byName := make(map[string]*Product)
		index := func(p *Product) {
			if p.Barcode != "" {
				byBarcode[p.Barcode] = p
			}
			byName[strings.ToLower(p.Name)] = p
		}
		for i := range existing {
			index(&existing[i])
		}

		now := s.now()
		for _, in := range incoming {
			in.Name = strings.TrimSpace(in.Name)
			in.Barcode = strings.TrimSpace(in.Barcode)
			if in.Name == "" {
				continue
			}

			match := byBarcode[in.Barcode]
			if in.Barcode == "" || match == nil {
				match = byName[strings.ToLower(in.Name)]
			}

			if match == nil {
				p := in
				p.ID = id.New()
				p.CreatedAt = now
				p.UpdatedAt = now
				if err := p.Validate(); err != nil {
					return err
				}
				if err := s.repos.Products.Save(ctx, &p); err != nil {
					return fmt.Errorf("save product: %w", err)
				}
				index(&p)
				result.AddedCount++
				continue
			}

			mergeProduct(match, in)
			match.UpdatedAt = now
			if err := match.Validate(); err != nil {
				return err
			}
			if err := s.repos.Products.Save(ctx, match); err != nil {
				return fmt.Errorf("save product: %w", err)
			}
			index(match)
			result.UpdatedCount++
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}

	logger.Info(ctx, "products imported",
		"added", result.AddedCount,
		"updated", result.UpdatedCount)
	return result, nil
}

// mergeProduct copies imported values onto dst. Empty text fields keep the
// stored value; numbers always overwrite.
func mergeProduct(dst *Product, src Product) {
	dst.Name = src.Name
	if src.Barcode != "" {
		dst.Barcode = src.Barcode
	}
	if src.Category != "" {
		dst.Category = src.Category
	}
	if src.Unit != "" {
		dst.Unit = src.Unit
	}
	dst.Stock = src.Stock
	dst.MinStock = src.MinStock
	dst.CostPrice = src.CostPrice
	dst.SalePrice = src.SalePrice
}

// --- Sales ---

// ListSales lists sales invoices.
func (s *Service) ListSales(ctx context.Context, filter ListFilter) ([]Sale, error) {
	return s.repos.Sales.List(ctx, filter)
}

// GetSale returns a sales invoice by id.
func (s *Service) GetSale(ctx context.Context, saleID id.ID) (*Sale, error) {
	return s.repos.Sales.Get(ctx, saleID)
}

// CreateSale computes totals, numbers the invoice and takes the sold
// quantities out of stock. Returns put them back.
func (s *Service) CreateSale(ctx context.Context, sale *Sale) error {
	if sale.Date.IsZero() {
		sale.Date = s.now()
	}
	if sale.CreatedBy == "" {
		sale.CreatedBy = appctx.GetUsername(ctx)
	}
	if err := sale.Validate(); err != nil {
		return err
	}
	sale.CalculateTotals()
	sale.ID = id.New()

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if sale.InvoiceNumber == "" {
			series := numerator.SaleInvoice
			if sale.IsReturn() {
				series = numerator.SaleReturn
			}
			number, err := s.nextNumber(ctx, series, sale.Date)
			if err != nil {
				return err
			}
			sale.InvoiceNumber = number
		}

		reason := "sale"
		if sale.IsReturn() {
			reason = "sale return"
		}
		if err := s.applyItems(ctx, sale.Items, -1, stockChange{reason: reason, reference: sale.InvoiceNumber, strict: true}); err != nil {
			return err
		}
		return s.repos.Sales.Save(ctx, sale)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "sale created",
		"id", sale.ID,
		"number", sale.InvoiceNumber,
		"total", sale.Total.String())
	return nil
}

// DeleteSale removes an invoice and reverses its stock effect.
func (s *Service) DeleteSale(ctx context.Context, saleID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		sale, err := s.repos.Sales.Get(ctx, saleID)
		if err != nil {
			return err
		}
		if err := s.applyItems(ctx, sale.Items, 1, stockChange{reason: "sale deleted", reference: sale.InvoiceNumber}); err != nil {
			return err
		}
		return s.repos.Sales.Delete(ctx, saleID)
	})
}

// --- Purchases ---

// ListPurchases lists purchase orders.
func (s *Service) ListPurchases(ctx context.Context, filter ListFilter) ([]Purchase, error) {
	return s.repos.Purchases.List(ctx, filter)
}

// GetPurchase returns a purchase order by id.
func (s *Service) GetPurchase(ctx context.Context, purchaseID id.ID) (*Purchase, error) {
	return s.repos.Purchases.Get(ctx, purchaseID)
}

// CreatePurchase numbers the order and, when it is already received, puts
// the goods into stock.
func (s *Service) CreatePurchase(ctx context.Context, p *Purchase) error {
	if p.Date.IsZero() {
		p.Date = s.now()
	}
	if p.Status == "" {
		p.Status = PurchaseStatusReceived
	}
	if p.CreatedBy == "" {
		p.CreatedBy = appctx.GetUsername(ctx)
	}
	if err := p.Validate(); err != nil {
		return err
	}
	p.CalculateTotals()
	p.ID = id.New()

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if p.InvoiceNumber == "" {
			series := numerator.PurchaseInvoice
			if p.IsReturn() {
				series = numerator.PurchaseReturn
			}
			number, err := s.nextNumber(ctx, series, p.Date)
			if err != nil {
				return err
			}
			p.InvoiceNumber = number
		}
		if p.Status == PurchaseStatusReceived {
			if err := s.receive(ctx, p); err != nil {
				return err
			}
		}
		return s.repos.Purchases.Save(ctx, p)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "purchase created",
		"id", p.ID,
		"number", p.InvoiceNumber,
		"status", p.Status)
	return nil
}

func (s *Service) receive(ctx context.Context, p *Purchase) error {
	reason := "purchase"
	if p.IsReturn() {
		reason = "purchase return"
	}
	return s.applyItems(ctx, p.Items, 1, stockChange{reason: reason, reference: p.InvoiceNumber, strict: true})
}

// ReceivePurchase marks a draft order as received and puts its goods into
// stock.
func (s *Service) ReceivePurchase(ctx context.Context, purchaseID id.ID) (*Purchase, error) {
	var p *Purchase
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.repos.Purchases.Get(ctx, purchaseID)
		if err != nil {
			return err
		}
		if p.Status != PurchaseStatusDraft {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, "purchase is already received")
		}
		if err := s.receive(ctx, p); err != nil {
			return err
		}
		p.Status = PurchaseStatusReceived
		return s.repos.Purchases.Save(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// DeletePurchase removes an order, taking received goods back out of stock.
func (s *Service) DeletePurchase(ctx context.Context, purchaseID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.repos.Purchases.Get(ctx, purchaseID)
		if err != nil {
			return err
		}
		if p.Status == PurchaseStatusReceived {
			if err := s.applyItems(ctx, p.Items, -1, stockChange{reason: "purchase deleted", reference: p.InvoiceNumber}); err != nil {
				return err
			}
		}
		return s.repos.Purchases.Delete(ctx, purchaseID)
	})
}

// --- Movements ---

// ListMovements lists stock movements.
func (s *Service) ListMovements(ctx context.Context, filter ListFilter) ([]Movement, error) {
	return s.repos.Movements.List(ctx, filter)
}

// GetMovement returns a movement by id.
func (s *Service) GetMovement(ctx context.Context, movementID id.ID) (*Movement, error) {
	return s.repos.Movements.Get(ctx, movementID)
}

// CreateMovement records a manual stock movement and applies it to the
// product.
func (s *Service) CreateMovement(ctx context.Context, m *Movement) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if m.Date.IsZero() {
		m.Date = s.now()
	}
	if m.CreatedBy == "" {
		m.CreatedBy = appctx.GetUsername(ctx)
	}
	m.ID = id.New()

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		pid, err := id.Parse(m.ProductID)
		if err != nil {
			return apperror.NewValidation("invalid product id").WithDetail("productId", m.ProductID)
		}
		product, err := s.repos.Products.Get(ctx, pid)
		if err != nil {
			return err
		}

		delta := m.Delta()
		if m.Type == MovementOut && product.Stock+delta < 0 {
			return apperror.NewInsufficientStock(m.ProductID, m.Quantity, product.Stock)
		}
		product.Stock += delta
		product.UpdatedAt = s.now()
		if err := s.repos.Products.Save(ctx, product); err != nil {
			return fmt.Errorf("save product: %w", err)
		}

		m.ProductName = product.Name
		m.Barcode = product.Barcode
		return s.repos.Movements.Save(ctx, m)
	})
}

// DeleteMovement removes a movement and reverts its stock change.
func (s *Service) DeleteMovement(ctx context.Context, movementID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		m, err := s.repos.Movements.Get(ctx, movementID)
		if err != nil {
			return err
		}
		pid, err := id.Parse(m.ProductID)
		if err != nil {
			return apperror.NewValidation("invalid product id").WithDetail("productId", m.ProductID)
		}
		product, err := s.repos.Products.Get(ctx, pid)
		switch {
		case apperror.IsNotFound(err):
		case err != nil:
			return err
		default:
			product.Stock -= m.Delta()
			product.UpdatedAt = s.now()
			if err := s.repos.Products.Save(ctx, product); err != nil {
				return fmt.Errorf("save product: %w", err)
			}
		}
		return s.repos.Movements.Delete(ctx, movementID)
	})
}

// --- Purchase requests ---

// ListPurchaseRequests lists purchase requests.
func (s *Service) ListPurchaseRequests(ctx context.Context, filter ListFilter) ([]PurchaseRequest, error) {
	return s.repos.PurchaseRequests.List(ctx, filter)
}

// GetPurchaseRequest returns a purchase request by id.
func (s *Service) GetPurchaseRequest(ctx context.Context, requestID id.ID) (*PurchaseRequest, error) {
	return s.repos.PurchaseRequests.Get(ctx, requestID)
}

// CreatePurchaseRequest files a new pending request.
func (s *Service) CreatePurchaseRequest(ctx context.Context, r *PurchaseRequest) error {
	if r.Status == "" {
		r.Status = RequestPending
	}
	if r.Date.IsZero() {
		r.Date = s.now()
	}
	if r.RequestedBy == "" {
		r.RequestedBy = appctx.GetUsername(ctx)
	}
	if err := r.Validate(); err != nil {
		return err
	}
	r.ID = id.New()

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if r.RequestNumber == "" {
			number, err := s.nextNumber(ctx, numerator.PurchaseRequest, r.Date)
			if err != nil {
				return err
			}
			r.RequestNumber = number
		}
		return s.repos.PurchaseRequests.Save(ctx, r)
	})
}

var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestPending:  {RequestApproved, RequestRejected},
	RequestApproved: {RequestOrdered, RequestRejected},
}

// SetRequestStatus moves a request along pending → approved → ordered, or
// rejects it.
func (s *Service) SetRequestStatus(ctx context.Context, requestID id.ID, status RequestStatus) (*PurchaseRequest, error) {
	var r *PurchaseRequest
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		r, err = s.repos.PurchaseRequests.Get(ctx, requestID)
		if err != nil {
			return err
		}
		allowed := false
		for _, next := range requestTransitions[r.Status] {
			allowed = allowed || next == status
		}
		if !allowed {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule,
				fmt.Sprintf("cannot change request status from %s to %s", r.Status, status))
		}
		r.Status = status
		return s.repos.PurchaseRequests.Save(ctx, r)
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// DeletePurchaseRequest removes a request.
func (s *Service) DeletePurchaseRequest(ctx context.Context, requestID id.ID) error {
	if _, err := s.repos.PurchaseRequests.Get(ctx, requestID); err != nil {
		return err
	}
	return s.repos.PurchaseRequests.Delete(ctx, requestID)
}

// --- Bulk access ---

// Dataset is every warehouse document, used by backups.
type Dataset struct {
	Products         []Product         `json:"products"`
	Sales            []Sale            `json:"sales"`
	Purchases        []Purchase        `json:"purchases"`
	Movements        []Movement        `json:"movements"`
	PurchaseRequests []PurchaseRequest `json:"purchaseRequests"`
}

// Export reads every document.
func (s *Service) Export(ctx context.Context) (*Dataset, error) {
	var (
		ds  Dataset
		err error
		all = ListFilter{}
	)
	if ds.Products, err = s.repos.Products.List(ctx, all); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if ds.Sales, err = s.repos.Sales.List(ctx, all); err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	if ds.Purchases, err = s.repos.Purchases.List(ctx, all); err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	if ds.Movements, err = s.repos.Movements.List(ctx, all); err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	if ds.PurchaseRequests, err = s.repos.PurchaseRequests.List(ctx, all); err != nil {
		return nil, fmt.Errorf("list purchase requests: %w", err)
	}
	return &ds, nil
}

// Restore replaces every collection with ds. Callers wanting atomicity
// with other stores wrap it in their own transaction.
func (s *Service) Restore(ctx context.Context, ds *Dataset) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repos.Products.ReplaceAll(ctx, ds.Products); err != nil {
			return fmt.Errorf("restore products: %w", err)
		}
		if err := s.repos.Sales.ReplaceAll(ctx, ds.Sales); err != nil {
			return fmt.Errorf("restore sales: %w", err)
		}
		if err := s.repos.Purchases.ReplaceAll(ctx, ds.Purchases); err != nil {
			return fmt.Errorf("restore purchases: %w", err)
		}
		if err := s.repos.Movements.ReplaceAll(ctx, ds.Movements); err != nil {
			return fmt.Errorf("restore movements: %w", err)
		}
		if err := s.repos.PurchaseRequests.ReplaceAll(ctx, ds.PurchaseRequests); err != nil {
			return fmt.Errorf("restore purchase requests: %w", err)
		}
		return nil
	})
}
