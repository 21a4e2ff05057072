// Package document_repo stores warehouse documents as JSONB rows.
package document_repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/id"
	"stockroom/internal/domain/inventory"
	"stockroom/internal/infrastructure/storage/postgres"
)

// Keys extracts the indexed columns of a document.
type Keys[T any] struct {
	ID   func(*T) id.ID
	Date func(*T) time.Time
}

// BaseDocumentRepo implements inventory.Repository for one table shaped
// (id, doc_date, data, created_at, updated_at).
type BaseDocumentRepo[T any] struct {
	txm       *postgres.TxManager
	tableName string
	entity    string
	keys      Keys[T]
}

var _ inventory.Repository[inventory.Sale] = (*BaseDocumentRepo[inventory.Sale])(nil)

// NewBaseDocumentRepo creates a repository over tableName.
func NewBaseDocumentRepo[T any](txm *postgres.TxManager, tableName, entity string, keys Keys[T]) *BaseDocumentRepo[T] {
	return &BaseDocumentRepo[T]{
		txm:       txm,
		tableName: tableName,
		entity:    entity,
		keys:      keys,
	}
}

// Builder returns a squirrel builder with PostgreSQL placeholders.
func (r *BaseDocumentRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

type documentRow struct {
	Data []byte `db:"data"`
}

func (r *BaseDocumentRepo[T]) decode(raw []byte) (T, error) {
	var doc T
	if err := json.Unmarshal(raw, &doc); err != nil {
		return doc, fmt.Errorf("decode %s: %w", r.entity, err)
	}
	return doc, nil
}

// listQuery builds the SELECT for List.
func (r *BaseDocumentRepo[T]) listQuery(filter inventory.ListFilter) squirrel.SelectBuilder {
	q := r.Builder().
		Select("data").
		From(r.tableName).
		OrderBy("doc_date DESC", "created_at DESC")

	if filter.From != nil {
		q = q.Where(squirrel.GtOrEq{"doc_date": *filter.From})
	}
	if filter.To != nil {
		q = q.Where(squirrel.LtOrEq{"doc_date": *filter.To})
	}
	if filter.Search != "" {
		q = q.Where(squirrel.ILike{"data::text": "%" + filter.Search + "%"})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}
	return q
}

// List returns documents newest first.
func (r *BaseDocumentRepo[T]) List(ctx context.Context, filter inventory.ListFilter) ([]T, error) {
	sql, args, err := r.listQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []documentRow
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list %s: %w", r.tableName, err)
	}

	docs := make([]T, 0, len(rows))
	for _, row := range rows {
		doc, err := r.decode(row.Data)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Get retrieves a document by id.
func (r *BaseDocumentRepo[T]) Get(ctx context.Context, docID id.ID) (*T, error) {
	sql, args, err := r.Builder().
		Select("data").
		From(r.tableName).
		Where(squirrel.Eq{"id": docID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var row documentRow
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(r.entity, docID.String())
		}
		return nil, fmt.Errorf("get %s: %w", r.entity, err)
	}

	doc, err := r.decode(row.Data)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// Save inserts doc or replaces the stored version.
func (r *BaseDocumentRepo[T]) Save(ctx context.Context, doc *T) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", r.entity, err)
	}

	sql, args, err := r.Builder().
		Insert(r.tableName).
		Columns("id", "doc_date", "data").
		Values(r.keys.ID(doc), r.keys.Date(doc), data).
		Suffix("ON CONFLICT (id) DO UPDATE SET doc_date = EXCLUDED.doc_date, data = EXCLUDED.data, updated_at = now()").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(fmt.Errorf("save %s: %w", r.entity, err), r.entity, int64(len(data)))
	}
	return nil
}

// Delete removes a document.
func (r *BaseDocumentRepo[T]) Delete(ctx context.Context, docID id.ID) error {
	sql, args, err := r.Builder().
		Delete(r.tableName).
		Where(squirrel.Eq{"id": docID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(fmt.Errorf("delete %s: %w", r.entity, err), r.entity, 0)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.entity, docID.String())
	}
	return nil
}

// ReplaceAll deletes every row and copies docs in. It requires a transaction.
func (r *BaseDocumentRepo[T]) ReplaceAll(ctx context.Context, docs []T) error {
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, "DELETE FROM "+r.tableName); err != nil {
		return fmt.Errorf("clear %s: %w", r.tableName, err)
	}

	rows := make([][]any, len(docs))
	var size int64
	for i := range docs {
		data, err := json.Marshal(&docs[i])
		if err != nil {
			return fmt.Errorf("encode %s: %w", r.entity, err)
		}
		size += int64(len(data))
		rows[i] = []any{r.keys.ID(&docs[i]), r.keys.Date(&docs[i]), data}
	}

	if _, err := r.txm.CopyRows(ctx, r.tableName, []string{"id", "doc_date", "data"}, rows); err != nil {
		return postgres.MapError(err, r.entity, size)
	}
	return nil
}
