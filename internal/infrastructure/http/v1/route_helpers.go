package v1

import (
	"github.com/gin-gonic/gin"

	"stockroom/internal/infrastructure/http/v1/middleware"
)

// DocumentRouteHandler defines the interface for warehouse document handlers.
type DocumentRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Delete(c *gin.Context)
}

// DocumentUpdateHandler is an optional interface for documents that can be
// edited in place.
type DocumentUpdateHandler interface {
	Update(c *gin.Context)
}

// RegisterDocumentRoutes registers standard CRUD routes for a document.
// If the handler also implements DocumentUpdateHandler, the PUT route is
// registered too.
//
// Usage:
//
//	handler := handlers.NewPurchaseHandler(base, inventoryService, loc)
//	RegisterDocumentRoutes(rg.Group("/purchases"), handler, auth.PermInventoryView, auth.PermPurchasesManage)
func RegisterDocumentRoutes(group *gin.RouterGroup, handler DocumentRouteHandler, readPermission, writePermission string) {
	read := middleware.RequirePermission(readPermission)
	write := middleware.RequirePermission(writePermission)

	group.GET("", read, handler.List)
	group.POST("", write, handler.Create)
	group.GET("/:id", read, handler.Get)
	group.DELETE("/:id", write, handler.Delete)

	if updater, ok := handler.(DocumentUpdateHandler); ok {
		group.PUT("/:id", write, updater.Update)
	}
}
