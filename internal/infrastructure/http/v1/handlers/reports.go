package handlers

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"stockroom/internal/domain/reports"
	"stockroom/internal/infrastructure/http/v1/dto"
)

// ReportsHandler handles the report schema and saved custom reports.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{
		BaseHandler: base,
		service:     service,
	}
}

// --- Schema ---

// Sources handles GET /reports/sources
func (h *ReportsHandler) Sources(c *gin.Context) {
	h.OK(c, h.service.Sources(h.Locale(c)))
}

// Fields handles GET /reports/sources/:source/fields
func (h *ReportsHandler) Fields(c *gin.Context) {
	fields, err := h.service.Fields(reports.DataSource(c.Param("source")), h.Locale(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, fields)
}

// SubSources handles GET /reports/sources/:source/subsources
func (h *ReportsHandler) SubSources(c *gin.Context) {
	subs, err := h.service.SubSources(reports.DataSource(c.Param("source")), h.Locale(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, subs)
}

// --- Saved reports ---

// List handles GET /reports/custom. The placement query parameter narrows
// the list to one screen.
func (h *ReportsHandler) List(c *gin.Context) {
	saved, err := h.service.ListReports(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	if placement := c.Query("placement"); placement != "" {
		filtered := saved[:0:0]
		for _, r := range saved {
			if r.Placement == placement {
				filtered = append(filtered, r)
			}
		}
		saved = filtered
	}
	h.OK(c, dto.NewListResponse(saved, 0, 0))
}

// Get handles GET /reports/custom/:id
func (h *ReportsHandler) Get(c *gin.Context) {
	report, err := h.service.GetReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}

// Delete handles DELETE /reports/custom/:id
func (h *ReportsHandler) Delete(c *gin.Context) {
	if err := h.service.DeleteReport(c.Request.Context(), c.Param("id")); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// bindFilters reads runtime filters from the query string, or from a JSON
// body when one is sent.
func (h *ReportsHandler) bindFilters(c *gin.Context) (reports.RuntimeFilters, bool) {
	var req dto.RunReportRequest
	if c.Request.ContentLength > 0 {
		if !h.BindJSON(c, &req) {
			return reports.RuntimeFilters{}, false
		}
	} else if !h.BindQuery(c, &req) {
		return reports.RuntimeFilters{}, false
	}
	filters, err := req.ToFilters(h.service.Location())
	if err != nil {
		h.Error(c, err)
		return reports.RuntimeFilters{}, false
	}
	return filters, true
}

// Run handles POST /reports/custom/:id/run
func (h *ReportsHandler) Run(c *gin.Context) {
	filters, ok := h.bindFilters(c)
	if !ok {
		return
	}
	report, res, err := h.service.Run(c.Request.Context(), c.Param("id"), filters)
	if err != nil {
		h.Error(c, err)
		return
	}
	out := dto.FromResult(res, h.T(c, "report.total"), h.service.Location())
	out.Report = &report
	h.OK(c, out)
}

// Print handles GET /reports/custom/:id/print. It answers with an HTML page
// ready for the browser print dialog.
func (h *ReportsHandler) Print(c *gin.Context) {
	filters, ok := h.bindFilters(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.service.Print(c.Request.Context(), c.Param("id"), filters, h.Locale(c), &buf); err != nil {
		h.Error(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
