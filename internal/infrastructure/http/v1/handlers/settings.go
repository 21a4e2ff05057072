package handlers

import (
	"github.com/gin-gonic/gin"

	"stockroom/internal/domain/settings"
	"stockroom/internal/infrastructure/http/v1/dto"
)

// SettingsHandler reads and replaces the application settings.
type SettingsHandler struct {
	*BaseHandler
	service *settings.Service
}

// NewSettingsHandler creates a settings handler.
func NewSettingsHandler(base *BaseHandler, service *settings.Service) *SettingsHandler {
	return &SettingsHandler{BaseHandler: base, service: service}
}

// Get handles GET /settings
func (h *SettingsHandler) Get(c *gin.Context) {
	st, version := h.service.Get(c.Request.Context())
	h.OK(c, dto.SettingsResponse{Settings: st, Version: version})
}

// Replace handles PUT /settings. Saved custom reports are managed through
// the reports endpoints and are kept as they are.
func (h *SettingsHandler) Replace(c *gin.Context) {
	var in settings.Settings
	if !h.BindJSON(c, &in) {
		return
	}
	st, version, err := h.service.Replace(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.SettingsResponse{Settings: st, Version: version})
}
