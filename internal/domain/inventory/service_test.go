package inventory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/id"
	"stockroom/internal/core/numerator"
	"stockroom/internal/core/tx"
)

// memoryRepo is an in-memory Repository keyed by keyOf.
type memoryRepo[T any] struct {
	mu    sync.Mutex
	keyOf func(*T) id.ID
	docs  map[id.ID]T
	order []id.ID
}

func newMemoryRepo[T any](keyOf func(*T) id.ID) *memoryRepo[T] {
	return &memoryRepo[T]{keyOf: keyOf, docs: map[id.ID]T{}}
}

func (r *memoryRepo[T]) List(context.Context, ListFilter) ([]T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.docs[k])
	}
	return out, nil
}

func (r *memoryRepo[T]) Get(_ context.Context, docID id.ID) (*T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("document", docID)
	}
	return &doc, nil
}

func (r *memoryRepo[T]) Save(_ context.Context, doc *T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := r.keyOf(doc)
	if _, ok := r.docs[k]; !ok {
		r.order = append(r.order, k)
	}
	r.docs[k] = *doc
	return nil
}

func (r *memoryRepo[T]) Delete(_ context.Context, docID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.docs, docID)
	for i, k := range r.order {
		if k == docID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *memoryRepo[T]) ReplaceAll(ctx context.Context, docs []T) error {
	r.mu.Lock()
	r.docs = map[id.ID]T{}
	r.order = nil
	r.mu.Unlock()
	for i := range docs {
		if err := r.Save(ctx, &docs[i]); err != nil {
			return err
		}
	}
	return nil
}

type testEnv struct {
	svc       *Service
	products  *memoryRepo[Product]
	movements *memoryRepo[Movement]
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		products:  newMemoryRepo(func(p *Product) id.ID { return p.ID }),
		movements: newMemoryRepo(func(m *Movement) id.ID { return m.ID }),
	}
	env.svc = NewService(Repositories{
		Products:         env.products,
		Sales:            newMemoryRepo(func(s *Sale) id.ID { return s.ID }),
		Purchases:        newMemoryRepo(func(p *Purchase) id.ID { return p.ID }),
		Movements:        env.movements,
		PurchaseRequests: newMemoryRepo(func(r *PurchaseRequest) id.ID { return r.ID }),
	}, tx.Nop{}, numerator.NewMemory())
	env.svc.now = func() time.Time { return time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC) }
	return env
}

func (e *testEnv) product(t *testing.T, name, barcode string, stock float64) *Product {
	t.Helper()
	p := &Product{Name: name, Barcode: barcode, Stock: stock, SalePrice: decimal.NewFromInt(5)}
	require.NoError(t, e.svc.CreateProduct(context.Background(), p))
	return p
}

func (e *testEnv) stock(t *testing.T, p *Product) float64 {
	t.Helper()
	got, err := e.svc.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	return got.Stock
}

func item(p *Product, qty float64, price string) LineItem {
	return LineItem{ProductID: p.ID.String(), Name: p.Name, Quantity: qty, Price: decimal.RequireFromString(price)}
}

func TestCreateSale_TotalsNumberAndStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pen := env.product(t, "Pen", "111", 10)

	sale := &Sale{
		Items:    []LineItem{item(pen, 3, "2.50"), {Name: "Service", Quantity: 1, Price: decimal.NewFromInt(4)}},
		Discount: decimal.NewFromInt(1),
		Tax:      decimal.RequireFromString("0.5"),
	}
	require.NoError(t, env.svc.CreateSale(ctx, sale))

	assert.Equal(t, "SAL-2026-00001", sale.InvoiceNumber)
	assert.True(t, decimal.RequireFromString("11.5").Equal(sale.Subtotal), sale.Subtotal.String())
	assert.True(t, decimal.NewFromInt(11).Equal(sale.Total), sale.Total.String())
	assert.Equal(t, 7.0, env.stock(t, pen))

	moves, _ := env.movements.List(ctx, ListFilter{})
	require.Len(t, moves, 1)
	assert.Equal(t, MovementOut, moves[0].Type)
	assert.Equal(t, 3.0, moves[0].Quantity)
	assert.Equal(t, "SAL-2026-00001", moves[0].Reference)
}

func TestCreateSale_ReturnPutsStockBack(t *testing.T) {
	env := newTestEnv(t)
	pen := env.product(t, "Pen", "", 2)

	ret := &Sale{Items: []LineItem{item(pen, -2, "2.50")}}
	require.NoError(t, env.svc.CreateSale(context.Background(), ret))

	assert.True(t, ret.IsReturn())
	assert.Equal(t, "SRT-2026-00001", ret.InvoiceNumber)
	assert.Equal(t, 4.0, env.stock(t, pen))
}

func TestCreateSale_InsufficientStock(t *testing.T) {
	env := newTestEnv(t)
	pen := env.product(t, "Pen", "", 1)

	err := env.svc.CreateSale(context.Background(), &Sale{Items: []LineItem{item(pen, 5, "1")}})

	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))
	assert.Equal(t, 1.0, env.stock(t, pen))
}

func TestDeleteSale_ReversesStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pen := env.product(t, "Pen", "", 10)
	sale := &Sale{Items: []LineItem{item(pen, 4, "1")}}
	require.NoError(t, env.svc.CreateSale(ctx, sale))

	require.NoError(t, env.svc.DeleteSale(ctx, sale.ID))

	assert.Equal(t, 10.0, env.stock(t, pen))
	_, err := env.svc.GetSale(ctx, sale.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestPurchases_DraftThenReceive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pen := env.product(t, "Pen", "", 0)

	p := &Purchase{Status: PurchaseStatusDraft, Items: []LineItem{item(pen, 12, "0.75")}}
	require.NoError(t, env.svc.CreatePurchase(ctx, p))
	assert.Equal(t, "PUR-2026-00001", p.InvoiceNumber)
	assert.True(t, decimal.NewFromInt(9).Equal(p.Total))
	assert.Equal(t, 0.0, env.stock(t, pen))

	received, err := env.svc.ReceivePurchase(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, PurchaseStatusReceived, received.Status)
	assert.Equal(t, 12.0, env.stock(t, pen))

	_, err = env.svc.ReceivePurchase(ctx, p.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeBusinessRule))

	require.NoError(t, env.svc.DeletePurchase(ctx, p.ID))
	assert.Equal(t, 0.0, env.stock(t, pen))
}

func TestMovements(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pen := env.product(t, "Pen", "P1", 5)

	in := &Movement{ProductID: pen.ID.String(), Type: MovementIn, Quantity: 3}
	require.NoError(t, env.svc.CreateMovement(ctx, in))
	assert.Equal(t, "Pen", in.ProductName)
	assert.Equal(t, "P1", in.Barcode)
	assert.Equal(t, 8.0, env.stock(t, pen))

	adj := &Movement{ProductID: pen.ID.String(), Type: MovementAdjustment, Quantity: -2}
	require.NoError(t, env.svc.CreateMovement(ctx, adj))
	assert.Equal(t, 6.0, env.stock(t, pen))

	err := env.svc.CreateMovement(ctx, &Movement{ProductID: pen.ID.String(), Type: MovementOut, Quantity: 50})
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))

	require.NoError(t, env.svc.DeleteMovement(ctx, in.ID))
	assert.Equal(t, 3.0, env.stock(t, pen))
}

func TestUpdateProduct_RecordsAdjustment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pen := env.product(t, "Pen", "", 5)

	edit := *pen
	edit.Stock = 9
	edit.Category = "Office"
	require.NoError(t, env.svc.UpdateProduct(ctx, &edit))

	got, _ := env.svc.GetProduct(ctx, pen.ID)
	assert.Equal(t, 9.0, got.Stock)
	assert.Equal(t, "Office", got.Category)
	moves, _ := env.movements.List(ctx, ListFilter{})
	require.Len(t, moves, 1)
	assert.Equal(t, MovementAdjustment, moves[0].Type)
	assert.Equal(t, 4.0, moves[0].Quantity)
}

func TestCreateProduct_DuplicateBarcode(t *testing.T) {
	env := newTestEnv(t)
	env.product(t, "Pen", "111", 1)

	err := env.svc.CreateProduct(context.Background(), &Product{Name: "Other", Barcode: " 111 "})

	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))
}

func TestUpsertProducts_MatchesBarcodeThenName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pen := env.product(t, "Pen", "111", 1)
	book := env.product(t, "Notebook", "", 1)

	res, err := env.svc.UpsertProducts(ctx, []Product{
		{Name: "Blue Pen", Barcode: "111", Stock: 20},
		{Name: "notebook", Category: "Paper", Stock: 7},
		{Name: "Stapler", Barcode: "333", Stock: 2},
		{Name: "  "},
	})
	require.NoError(t, err)
	assert.Equal(t, ImportResult{AddedCount: 1, UpdatedCount: 2}, res)

	gotPen, _ := env.svc.GetProduct(ctx, pen.ID)
	assert.Equal(t, "Blue Pen", gotPen.Name)
	assert.Equal(t, 20.0, gotPen.Stock)

	gotBook, _ := env.svc.GetProduct(ctx, book.ID)
	assert.Equal(t, "Paper", gotBook.Category)
	assert.Equal(t, 7.0, gotBook.Stock)

	all, _ := env.svc.ListProducts(ctx, ListFilter{})
	assert.Len(t, all, 3)
}

func TestUpsertProducts_DuplicateRowsInOneBatch(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.svc.UpsertProducts(context.Background(), []Product{
		{Name: "Glue", Barcode: "9"},
		{Name: "Glue stick", Barcode: "9"},
	})

	require.NoError(t, err)
	assert.Equal(t, ImportResult{AddedCount: 1, UpdatedCount: 1}, res)
}

func TestPurchaseRequestWorkflow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	r := &PurchaseRequest{Items: []LineItem{{Name: "Paper", Quantity: 10, Price: decimal.NewFromInt(3)}}}
	require.NoError(t, env.svc.CreatePurchaseRequest(ctx, r))
	assert.Equal(t, RequestPending, r.Status)
	assert.Equal(t, "PRQ-2026-00001", r.RequestNumber)
	assert.Equal(t, "system", r.RequestedBy)
	assert.True(t, decimal.NewFromInt(30).Equal(r.EstimatedTotal()))

	_, err := env.svc.SetRequestStatus(ctx, r.ID, RequestOrdered)
	assert.True(t, apperror.HasCode(err, apperror.CodeBusinessRule))

	got, err := env.svc.SetRequestStatus(ctx, r.ID, RequestApproved)
	require.NoError(t, err)
	assert.Equal(t, RequestApproved, got.Status)

	got, err = env.svc.SetRequestStatus(ctx, r.ID, RequestOrdered)
	require.NoError(t, err)
	assert.Equal(t, RequestOrdered, got.Status)
}

func TestExportRestore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pen := env.product(t, "Pen", "", 10)
	require.NoError(t, env.svc.CreateSale(ctx, &Sale{Items: []LineItem{item(pen, 1, "1")}}))

	ds, err := env.svc.Export(ctx)
	require.NoError(t, err)
	assert.Len(t, ds.Products, 1)
	assert.Len(t, ds.Sales, 1)
	assert.Len(t, ds.Movements, 1)

	other := newTestEnv(t)
	require.NoError(t, other.svc.Restore(ctx, ds))
	assert.Equal(t, 9.0, other.stock(t, pen))
}

func TestValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name string
		run  func() error
	}{
		{"product without name", func() error { return env.svc.CreateProduct(ctx, &Product{}) }},
		{"sale without items", func() error { return env.svc.CreateSale(ctx, &Sale{}) }},
		{"zero quantity line", func() error {
			return env.svc.CreateSale(ctx, &Sale{Items: []LineItem{{Name: "x", Price: decimal.NewFromInt(1)}}})
		}},
		{"unknown purchase status", func() error {
			return env.svc.CreatePurchase(ctx, &Purchase{Status: "lost", Items: []LineItem{{Name: "x", Quantity: 1}}})
		}},
		{"movement without product", func() error {
			return env.svc.CreateMovement(ctx, &Movement{Type: MovementIn, Quantity: 1})
		}},
		{"negative request quantity", func() error {
			return env.svc.CreatePurchaseRequest(ctx, &PurchaseRequest{Items: []LineItem{{Name: "x", Quantity: -1}}})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, apperror.HasCode(tt.run(), apperror.CodeValidation))
		})
	}
}
