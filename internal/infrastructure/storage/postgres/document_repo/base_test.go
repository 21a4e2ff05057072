package document_repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/core/id"
	"stockroom/internal/domain/inventory"
)

func testRepo() *BaseDocumentRepo[inventory.Sale] {
	return NewBaseDocumentRepo(nil, "sales", "sale", Keys[inventory.Sale]{
		ID:   func(s *inventory.Sale) id.ID { return s.ID },
		Date: func(s *inventory.Sale) time.Time { return s.Date },
	})
}

func TestListQuery(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		filter   inventory.ListFilter
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "all",
			filter:  inventory.ListFilter{},
			wantSQL: "SELECT data FROM sales ORDER BY doc_date DESC, created_at DESC",
		},
		{
			name:     "date range",
			filter:   inventory.ListFilter{From: &from, To: &to},
			wantSQL:  "SELECT data FROM sales WHERE doc_date >= $1 AND doc_date <= $2 ORDER BY doc_date DESC, created_at DESC",
			wantArgs: []any{from, to},
		},
		{
			name:     "search with paging",
			filter:   inventory.ListFilter{Search: "acme", Limit: 20, Offset: 40},
			wantSQL:  "SELECT data FROM sales WHERE data::text ILIKE $1 ORDER BY doc_date DESC, created_at DESC LIMIT 20 OFFSET 40",
			wantArgs: []any{"%acme%"},
		},
	}

	repo := testRepo()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := repo.listQuery(tt.filter).ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			if tt.wantArgs == nil {
				assert.Empty(t, args)
			} else {
				assert.Equal(t, tt.wantArgs, args)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	repo := testRepo()

	sale, err := repo.decode([]byte(`{"invoiceNumber":"SAL-2026-00007","total":"12.5"}`))
	require.NoError(t, err)
	assert.Equal(t, "SAL-2026-00007", sale.InvoiceNumber)
	assert.Equal(t, "12.5", sale.Total.String())

	_, err = repo.decode([]byte(`{"items": 3}`))
	assert.ErrorContains(t, err, "decode sale")
}
