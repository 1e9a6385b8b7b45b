package handler

import (
	"bytes"
	"log"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"invoiceflow/internal/domain"
	"invoiceflow/internal/export"
	"invoiceflow/internal/service"
)

// filesField is the repeated multipart field carrying the documents.
const filesField = "files"

// InvoiceHandler handles invoice processing endpoints.
type InvoiceHandler struct {
	invoiceService service.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(invoiceService service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// openUploads opens every file in the multipart form. The returned closer
// releases them all.
func openUploads(c *gin.Context) ([]service.UploadFile, func(), error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, func() {}, domain.ErrNoFiles
	}
	headers := form.File[filesField]
	if len(headers) == 0 {
		return nil, func() {}, domain.ErrNoFiles
	}

	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	uploads := make([]service.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		opened = append(opened, f)
		uploads = append(uploads, service.UploadFile{Filename: fh.Filename, Size: fh.Size, Body: f})
	}
	return uploads, closeAll, nil
}

// Process handles POST /api/v1/users/:user_id/invoices
func (h *InvoiceHandler) Process(c *gin.Context) {
	userID := c.Param("user_id")

	uploads, closeAll, err := openUploads(c)
	defer closeAll()
	if err != nil {
		HandleError(c, err)
		return
	}

	summary, err := h.invoiceService.ProcessFiles(c.Request.Context(), userID, uploads)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, summary)
}

// Debug handles POST /api/v1/users/:user_id/invoices/debug. Only the first
// uploaded file is processed and nothing is stored.
func (h *InvoiceHandler) Debug(c *gin.Context) {
	uploads, closeAll, err := openUploads(c)
	defer closeAll()
	if err != nil {
		HandleError(c, err)
		return
	}

	res, err := h.invoiceService.Debug(c.Request.Context(), uploads[0])
	if err != nil {
		HandleError(c, err)
		return
	}
	log.Printf("InvoiceHandler.Debug: user %s file %s produced %d invoices", c.Param("user_id"), uploads[0].Filename, len(res.Invoices))
	RespondOK(c, gin.H{
		"raw_results": res.Invoices,
		"pages":       res.Pages,
		"chunks":      res.Chunks,
		"outcomes":    res.Outcomes,
		"issues":      res.Issues,
	})
}

// List handles GET /api/v1/users/:user_id/invoices
func (h *InvoiceHandler) List(c *gin.Context) {
	doc, err := h.invoiceService.ListInvoices(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, doc)
}

// Export handles GET /api/v1/users/:user_id/invoices/export?format=csv|xlsx
func (h *InvoiceHandler) Export(c *gin.Context) {
	userID := c.Param("user_id")
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		HandleError(c, err)
		return
	}

	// Render into a buffer first so a failure can still produce a JSON error.
	var buf bytes.Buffer
	if err := h.invoiceService.Export(c.Request.Context(), userID, format, &buf); err != nil {
		HandleError(c, err)
		return
	}

	filename := export.BuildFilename(userID, format, time.Now())
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}
