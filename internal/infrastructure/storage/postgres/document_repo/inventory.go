package document_repo

import (
	"time"

	"stockroom/internal/core/id"
	"stockroom/internal/domain/inventory"
	"stockroom/internal/infrastructure/storage/postgres"
)

// NewRepositories creates the JSONB stores for every warehouse document.
func NewRepositories(txm *postgres.TxManager) inventory.Repositories {
	return inventory.Repositories{
		Products: NewBaseDocumentRepo(txm, "products", "product", Keys[inventory.Product]{
			ID:   func(p *inventory.Product) id.ID { return p.ID },
			Date: func(p *inventory.Product) time.Time { return p.CreatedAt },
		}),
		Sales: NewBaseDocumentRepo(txm, "sales", "sale", Keys[inventory.Sale]{
			ID:   func(s *inventory.Sale) id.ID { return s.ID },
			Date: func(s *inventory.Sale) time.Time { return s.Date },
		}),
		Purchases: NewBaseDocumentRepo(txm, "purchases", "purchase", Keys[inventory.Purchase]{
			ID:   func(p *inventory.Purchase) id.ID { return p.ID },
			Date: func(p *inventory.Purchase) time.Time { return p.Date },
		}),
		Movements: NewBaseDocumentRepo(txm, "movements", "movement", Keys[inventory.Movement]{
			ID:   func(m *inventory.Movement) id.ID { return m.ID },
			Date: func(m *inventory.Movement) time.Time { return m.Date },
		}),
		PurchaseRequests: NewBaseDocumentRepo(txm, "purchase_requests", "purchase request", Keys[inventory.PurchaseRequest]{
			ID:   func(r *inventory.PurchaseRequest) id.ID { return r.ID },
			Date: func(r *inventory.PurchaseRequest) time.Time { return r.Date },
		}),
	}
}
