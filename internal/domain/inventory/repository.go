package inventory

import (
	"context"
	"time"

	"stockroom/internal/core/id"
)

// ListFilter narrows document listings. Zero value lists everything.
type ListFilter struct {
	From   *time.Time
	To     *time.Time
	Search string
	Limit  int
	Offset int
}

// Repository stores one kind of warehouse document.
// Lookups of missing documents return an apperror NOT_FOUND error.
type Repository[T any] interface {
	// List returns documents newest first.
	List(ctx context.Context, filter ListFilter) ([]T, error)

	Get(ctx context.Context, docID id.ID) (*T, error)

	// Save inserts doc or replaces the stored version.
	Save(ctx context.Context, doc *T) error

	Delete(ctx context.Context, docID id.ID) error

	// ReplaceAll swaps the whole collection, used by backup restore.
	ReplaceAll(ctx context.Context, docs []T) error
}

// Repositories groups the document stores used by Service.
type Repositories struct {
	Products         Repository[Product]
	Sales            Repository[Sale]
	Purchases        Repository[Purchase]
	Movements        Repository[Movement]
	PurchaseRequests Repository[PurchaseRequest]
}
