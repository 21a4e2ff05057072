package reports

import (
	"context"
	"fmt"

	"stockroom/internal/domain/auth"
	"stockroom/internal/domain/inventory"
)

// InventoryReader lists the warehouse entities.
type InventoryReader interface {
	ListSales(ctx context.Context, filter inventory.ListFilter) ([]inventory.Sale, error)
	ListPurchases(ctx context.Context, filter inventory.ListFilter) ([]inventory.Purchase, error)
	ListProducts(ctx context.Context, filter inventory.ListFilter) ([]inventory.Product, error)
	ListMovements(ctx context.Context, filter inventory.ListFilter) ([]inventory.Movement, error)
	ListPurchaseRequests(ctx context.Context, filter inventory.ListFilter) ([]inventory.PurchaseRequest, error)
}

// UserReader lists user accounts.
type UserReader interface {
	ListUsers(ctx context.Context) ([]auth.User, error)
}

// StoreReader implements DataReader on top of the inventory and user services.
// Every call reads the whole source.
type StoreReader struct {
	inventory InventoryReader
	users     UserReader
}

// NewStoreReader creates a DataReader.
func NewStoreReader(inv InventoryReader, users UserReader) *StoreReader {
	return &StoreReader{inventory: inv, users: users}
}

// Load reads the records of source.
func (r *StoreReader) Load(ctx context.Context, source DataSource) (*Snapshot, error) {
	var (
		snap Snapshot
		err  error
		all  = inventory.ListFilter{}
	)
	switch source {
	case SourceSales:
		snap.Sales, err = r.inventory.ListSales(ctx, all)
	case SourcePurchases:
		snap.Purchases, err = r.inventory.ListPurchases(ctx, all)
	case SourceProducts:
		snap.Products, err = r.inventory.ListProducts(ctx, all)
	case SourceMovements:
		snap.Movements, err = r.inventory.ListMovements(ctx, all)
	case SourcePurchaseRequests:
		snap.PurchaseRequests, err = r.inventory.ListPurchaseRequests(ctx, all)
	case SourceUsers:
		snap.Users, err = r.users.ListUsers(ctx)
	default:
		return nil, fmt.Errorf("unknown data source %q", source)
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}
