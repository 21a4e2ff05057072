package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"stockroom/internal/core/apperror"
	"stockroom/internal/domain/reports"
	"stockroom/internal/infrastructure/cache"
	"stockroom/internal/infrastructure/http/v1/dto"
)

// DraftsHandler drives the report builder wizard. Drafts live in the draft
// cache and belong to the user who created them.
type DraftsHandler struct {
	*BaseHandler
	service *reports.Service
	drafts  *cache.DraftCache
	saver   reports.ReportSaver
}

// NewDraftsHandler creates a drafts handler.
func NewDraftsHandler(base *BaseHandler, service *reports.Service, drafts *cache.DraftCache, saver reports.ReportSaver) *DraftsHandler {
	return &DraftsHandler{
		BaseHandler: base,
		service:     service,
		drafts:      drafts,
		saver:       saver,
	}
}

// edit runs fn on the draft named by the id path parameter and answers with
// the resulting draft view.
func (h *DraftsHandler) edit(c *gin.Context, fn func(b *reports.Builder) error) {
	var view reports.Draft
	err := h.drafts.With(h.GetUserID(c), c.Param("id"), func(b *reports.Builder) error {
		if err := fn(b); err != nil {
			return err
		}
		view = b.View()
		return nil
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, view)
}

// Create handles POST /reports/drafts
func (h *DraftsHandler) Create(c *gin.Context) {
	b := h.service.NewBuilder()
	h.drafts.Put(h.GetUserID(c), b)
	h.Created(c, b.View())
}

// Get handles GET /reports/drafts/:id
func (h *DraftsHandler) Get(c *gin.Context) {
	h.edit(c, func(*reports.Builder) error { return nil })
}

// Discard handles DELETE /reports/drafts/:id
func (h *DraftsHandler) Discard(c *gin.Context) {
	if err := h.drafts.Delete(h.GetUserID(c), c.Param("id")); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// SetBasicInfo handles PUT /reports/drafts/:id/basic
func (h *DraftsHandler) SetBasicInfo(c *gin.Context) {
	var req dto.BasicInfoRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.edit(c, func(b *reports.Builder) error {
		b.SetTitle(req.Title)
		if req.DataSource != "" {
			if err := b.SetDataSource(reports.DataSource(req.DataSource)); err != nil {
				return err
			}
		}
		if req.SubSource != "" {
			return b.SetSubSource(req.SubSource)
		}
		return nil
	})
}

// Next handles POST /reports/drafts/:id/next
func (h *DraftsHandler) Next(c *gin.Context) {
	h.edit(c, (*reports.Builder).Next)
}

// Back handles POST /reports/drafts/:id/back
func (h *DraftsHandler) Back(c *gin.Context) {
	h.edit(c, func(b *reports.Builder) error {
		b.Back()
		return nil
	})
}

// AddColumn handles POST /reports/drafts/:id/columns
func (h *DraftsHandler) AddColumn(c *gin.Context) {
	var req dto.AddColumnRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.edit(c, func(b *reports.Builder) error {
		_, err := b.AddColumn(req.Key, req.Label, reports.ValueType(req.Type))
		return err
	})
}

// UpdateColumn handles PATCH /reports/drafts/:id/columns/:columnId
func (h *DraftsHandler) UpdateColumn(c *gin.Context) {
	var req dto.UpdateColumnRequest
	if !h.BindJSON(c, &req) {
		return
	}
	columnID := c.Param("columnId")
	h.edit(c, func(b *reports.Builder) error {
		updates := []struct {
			field reports.ColumnField
			value *string
		}{
			{reports.ColumnLabel, req.Label},
			{reports.ColumnType, req.Type},
			{reports.ColumnAggregation, req.Aggregation},
		}
		for _, u := range updates {
			if u.value == nil {
				continue
			}
			if err := b.UpdateColumn(columnID, u.field, *u.value); err != nil {
				return err
			}
		}
		if req.Position != nil {
			return b.MoveColumn(columnID, *req.Position)
		}
		return nil
	})
}

// RemoveColumn handles DELETE /reports/drafts/:id/columns/:columnId
func (h *DraftsHandler) RemoveColumn(c *gin.Context) {
	columnID := c.Param("columnId")
	h.edit(c, func(b *reports.Builder) error {
		b.RemoveColumn(columnID)
		return nil
	})
}

// SetOptions handles PUT /reports/drafts/:id/options
func (h *DraftsHandler) SetOptions(c *gin.Context) {
	var req dto.OptionsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.edit(c, func(b *reports.Builder) error {
		if err := b.SetSort(req.SortBy, reports.SortDirection(req.SortDirection)); err != nil {
			return err
		}
		if err := b.SetLimit(req.Limit); err != nil {
			return err
		}
		b.SetDateFilter(req.EnableDateFilter, req.DateColumn)
		b.SetPlacement(req.Placement)
		return nil
	})
}

// UploadLogo handles POST /reports/drafts/:id/logo/:side with the image in
// the multipart field "file".
func (h *DraftsHandler) UploadLogo(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, reports.MaxLogoBytes+64<<10)
	fh, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.Error(c, apperror.NewPayloadTooLarge(c.Request.ContentLength, reports.MaxLogoBytes))
			return
		}
		h.Error(c, apperror.NewValidation("logo file is required").WithDetail("field", "file"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.Error(c, err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, reports.MaxLogoBytes+1))
	if err != nil {
		h.Error(c, err)
		return
	}

	side := reports.LogoSide(c.Param("side"))
	h.edit(c, func(b *reports.Builder) error {
		return b.UploadLogo(side, data, fh.Header.Get("Content-Type"))
	})
}

// ClearLogo handles DELETE /reports/drafts/:id/logo/:side
func (h *DraftsHandler) ClearLogo(c *gin.Context) {
	side := reports.LogoSide(c.Param("side"))
	h.edit(c, func(b *reports.Builder) error {
		b.ClearLogo(side)
		return nil
	})
}

// Preview handles POST /reports/drafts/:id/preview. The draft is evaluated
// as it stands, without being saved.
func (h *DraftsHandler) Preview(c *gin.Context) {
	var req dto.RunReportRequest
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}
	filters, err := req.ToFilters(h.service.Location())
	if err != nil {
		h.Error(c, err)
		return
	}

	var cfg reports.CustomReportConfig
	err = h.drafts.With(h.GetUserID(c), c.Param("id"), func(b *reports.Builder) error {
		cfg = b.Config()
		return nil
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	res, err := h.service.RunConfig(c.Request.Context(), cfg, filters)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromResult(res, h.T(c, "report.total"), h.service.Location()))
}

// Save handles POST /reports/drafts/:id/save
func (h *DraftsHandler) Save(c *gin.Context) {
	var req dto.SaveDraftRequest
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}

	var out dto.SaveDraftResponse
	err := h.drafts.With(h.GetUserID(c), c.Param("id"), func(b *reports.Builder) error {
		cfg, err := b.Save(c.Request.Context(), h.saver, req.Placement)
		out.Draft = b.View()
		out.Report = cfg
		return err
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, out)
}
