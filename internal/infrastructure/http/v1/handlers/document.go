package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"stockroom/internal/core/id"
	"stockroom/internal/domain/inventory"
	"stockroom/internal/infrastructure/http/v1/dto"
)

// DocumentFuncs are the service operations behind a DocumentHandler.
type DocumentFuncs[T any] struct {
	List   func(ctx context.Context, filter inventory.ListFilter) ([]T, error)
	Get    func(ctx context.Context, docID id.ID) (*T, error)
	Create func(ctx context.Context, doc *T) error
	Delete func(ctx context.Context, docID id.ID) error
}

// EntityRequest is a create DTO converting itself into a document.
type EntityRequest[T, D any] interface {
	*D
	ToEntity() *T
}

// DocumentHandler provides generic HTTP handlers for warehouse documents.
type DocumentHandler[T, D any, P EntityRequest[T, D]] struct {
	*BaseHandler
	funcs DocumentFuncs[T]
	loc   *time.Location
}

// NewDocumentHandler creates a document handler. Dates in list filters are
// interpreted in loc.
func NewDocumentHandler[T, D any, P EntityRequest[T, D]](
	base *BaseHandler,
	funcs DocumentFuncs[T],
	loc *time.Location,
) *DocumentHandler[T, D, P] {
	if loc == nil {
		loc = time.UTC
	}
	return &DocumentHandler[T, D, P]{BaseHandler: base, funcs: funcs, loc: loc}
}

// List handles GET /{documents}
func (h *DocumentHandler[T, D, P]) List(c *gin.Context) {
	var req dto.ListRequest
	if !h.BindQuery(c, &req) {
		return
	}
	filter, err := req.ToFilter(h.loc)
	if err != nil {
		h.Error(c, err)
		return
	}

	docs, err := h.funcs.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(docs, filter.Limit, filter.Offset))
}

// Get handles GET /{documents}/:id
func (h *DocumentHandler[T, D, P]) Get(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	doc, err := h.funcs.Get(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// Create handles POST /{documents}
func (h *DocumentHandler[T, D, P]) Create(c *gin.Context) {
	var req D
	if !h.BindJSON(c, &req) {
		return
	}
	doc := P(&req).ToEntity()
	if err := h.funcs.Create(c.Request.Context(), doc); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, doc)
}

// Delete handles DELETE /{documents}/:id
func (h *DocumentHandler[T, D, P]) Delete(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.funcs.Delete(c.Request.Context(), docID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
