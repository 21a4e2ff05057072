package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"stockroom/internal/core/apperror"
	"stockroom/internal/domain/backup"
	"stockroom/internal/domain/importer"
	"stockroom/internal/infrastructure/http/v1/dto"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// TransferHandler moves data in and out: product spreadsheets and full
// backups.
type TransferHandler struct {
	*BaseHandler
	importer  *importer.Service
	backup    *backup.Service
	maxUpload int64
}

// NewTransferHandler creates a transfer handler. Uploads larger than
// maxUpload bytes are rejected with PAYLOAD_TOO_LARGE.
func NewTransferHandler(base *BaseHandler, imp *importer.Service, bak *backup.Service, maxUpload int64) *TransferHandler {
	if maxUpload <= 0 {
		maxUpload = 20 << 20
	}
	return &TransferHandler{
		BaseHandler: base,
		importer:    imp,
		backup:      bak,
		maxUpload:   maxUpload,
	}
}

// upload returns the uploaded file: the multipart field "file" when the
// request is a form, the raw body otherwise.
func (h *TransferHandler) upload(c *gin.Context) (io.ReadCloser, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)

	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return c.Request.Body, true
	}
	fh, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.Error(c, apperror.NewPayloadTooLarge(c.Request.ContentLength, h.maxUpload))
			return nil, false
		}
		h.Error(c, apperror.NewValidation("file is required").WithDetail("field", "file"))
		return nil, false
	}
	f, err := fh.Open()
	if err != nil {
		h.Error(c, err)
		return nil, false
	}
	return f, true
}

// uploadError maps a body overflow to PAYLOAD_TOO_LARGE.
func (h *TransferHandler) uploadError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return apperror.NewPayloadTooLarge(maxErr.Limit+1, maxErr.Limit)
	}
	return err
}

// --- Products ---

// ImportProducts handles POST /products/import
func (h *TransferHandler) ImportProducts(c *gin.Context) {
	body, ok := h.upload(c)
	if !ok {
		return
	}
	defer body.Close()

	// Read fully so an oversized upload is not reported as a parse error.
	data, err := io.ReadAll(body)
	if err != nil {
		h.Error(c, h.uploadError(err))
		return
	}
	res, err := h.importer.ImportProducts(c.Request.Context(), bytes.NewReader(data))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ImportResponse{ImportResult: res})
}

// ExportProducts handles GET /products/export
func (h *TransferHandler) ExportProducts(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.importer.ExportProducts(c.Request.Context(), &buf); err != nil {
		h.Error(c, err)
		return
	}
	h.Attachment(c, "products-"+time.Now().Format("20060102")+".xlsx", xlsxContentType, buf.Bytes())
}

// --- Backup ---

// ExportBackup handles GET /backup/export. compress=true yields a zstd
// compressed document.
func (h *TransferHandler) ExportBackup(c *gin.Context) {
	compress := c.Query("compress") == "true"

	var buf bytes.Buffer
	if err := h.backup.Export(c.Request.Context(), &buf, backup.Options{Compress: compress}); err != nil {
		h.Error(c, err)
		return
	}

	name := "stockroom-backup-" + time.Now().Format("20060102-150405") + ".json"
	contentType := "application/json"
	if compress {
		name += ".zst"
		contentType = "application/zstd"
	}
	h.Attachment(c, name, contentType, buf.Bytes())
}

// ImportBackup handles POST /backup/import. Every store is replaced; clients
// should reload afterwards.
func (h *TransferHandler) ImportBackup(c *gin.Context) {
	body, ok := h.upload(c)
	if !ok {
		return
	}
	defer body.Close()

	summary, err := h.backup.Import(c.Request.Context(), body)
	if err != nil {
		h.Error(c, h.uploadError(err))
		return
	}
	h.OK(c, dto.RestoreResponse{Summary: summary, Reload: true})
}
