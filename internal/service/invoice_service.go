package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"invoiceflow/internal/domain"
	"invoiceflow/internal/export"
	"invoiceflow/internal/pipeline"
	"invoiceflow/internal/port"
)

// UploadFile is one uploaded document.
type UploadFile struct {
	Filename string
	Size     int64
	Body     io.Reader
}

// ProcessSummary reports the outcome of a multi-file upload.
type ProcessSummary struct {
	Status         string              `json:"status"`
	Message        string              `json:"message"`
	InvoiceCount   int                 `json:"invoice_count"`
	ProcessedFiles int                 `json:"processed_files"`
	FailedFiles    int                 `json:"failed_files"`
	StoreResult    *domain.StoreResult `json:"store_result,omitempty"`
}

// Store result statuses.
const (
	StoreStatusStored = "stored"
	StoreStatusFailed = "failed"
)

// InvoiceService defines the invoice processing contract.
type InvoiceService interface {
	ProcessFiles(ctx context.Context, userID string, files []UploadFile) (*ProcessSummary, error)
	Debug(ctx context.Context, file UploadFile) (*pipeline.Result, error)
	ListInvoices(ctx context.Context, userID string) (*domain.UserInvoices, error)
	Export(ctx context.Context, userID string, format export.Format, w io.Writer) error
}

// ArchiveSettings points uploads at an object store. A nil storage disables archiving.
type ArchiveSettings struct {
	Storage port.ObjectStorage
	Bucket  string
	Prefix  string
}

// Limits bounds what a single request may upload. Zero disables a limit.
type Limits struct {
	MaxFileSizeMB int64
	MaxFiles      int
}

type invoiceService struct {
	runner  pipeline.Runner
	store   port.InvoiceStore
	archive ArchiveSettings
	limits  Limits
}

// NewInvoiceService creates a new InvoiceService implementation.
func NewInvoiceService(
	runner pipeline.Runner,
	store port.InvoiceStore,
	archive ArchiveSettings,
	limits Limits,
) InvoiceService {
	return &invoiceService{
		runner:  runner,
		store:   store,
		archive: archive,
		limits:  limits,
	}
}

func (s *invoiceService) ProcessFiles(ctx context.Context, userID string, files []UploadFile) (*ProcessSummary, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.ErrUserIDRequired
	}
	if len(files) == 0 {
		return nil, domain.ErrNoFiles
	}
	if s.limits.MaxFiles > 0 && len(files) > s.limits.MaxFiles {
		return nil, fmt.Errorf("%w: at most %d files per request", domain.ErrTooManyFiles, s.limits.MaxFiles)
	}

	var all []domain.Invoice
	summary := &ProcessSummary{Status: "completed"}

	for _, f := range files {
		log.Printf("invoiceService.ProcessFiles: processing file %s for user %s", f.Filename, userID)
		invoices, err := s.processOne(ctx, userID, f)
		if err != nil {
			summary.FailedFiles++
			if errors.Is(err, domain.ErrNoInvoicesFound) {
				log.Printf("invoiceService.ProcessFiles: WARN: no invoices found in file %s", f.Filename)
			} else {
				log.Printf("invoiceService.ProcessFiles: error processing file %s: %v", f.Filename, err)
			}
			continue
		}
		all = append(all, invoices...)
		summary.ProcessedFiles++
		log.Printf("invoiceService.ProcessFiles: processed file %s (%d invoices)", f.Filename, len(invoices))
	}

	summary.InvoiceCount = len(all)
	if len(all) == 0 {
		summary.Message = "No invoices were found in the processed files"
		return summary, nil
	}
	summary.Message = fmt.Sprintf("Successfully processed %d invoices", len(all))

	log.Printf("invoiceService.ProcessFiles: storing %d invoices for user %s", len(all), userID)
	doc, err := s.store.AppendInvoices(ctx, userID, all)
	if err != nil {
		log.Printf("invoiceService.ProcessFiles: failed to store invoices for user %s: %v", userID, err)
		summary.StoreResult = &domain.StoreResult{Status: StoreStatusFailed, DocumentID: userID}
		return summary, nil
	}
	summary.StoreResult = &domain.StoreResult{
		Status:      StoreStatusStored,
		DocumentID:  doc.ID,
		Appended:    len(all),
		TotalStored: len(doc.Invoices),
	}
	return summary, nil
}

func (s *invoiceService) processOne(ctx context.Context, userID string, f UploadFile) ([]domain.Invoice, error) {
	tmp, err := s.saveTemp(f)
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.Remove(tmp) }()

	s.archiveFile(ctx, userID, f.Filename, tmp)

	res, err := s.runner.Process(ctx, tmp)
	if err != nil {
		return nil, err
	}
	return res.Invoices, nil
}

func (s *invoiceService) Debug(ctx context.Context, f UploadFile) (*pipeline.Result, error) {
	tmp, err := s.saveTemp(f)
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.Remove(tmp) }()

	// An empty result is still worth returning here.
	res, err := s.runner.Process(ctx, tmp)
	if err != nil && !(errors.Is(err, domain.ErrNoInvoicesFound) && res != nil) {
		return nil, err
	}
	return res, nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, userID string) (*domain.UserInvoices, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.ErrUserIDRequired
	}
	return s.store.GetUserInvoices(ctx, userID)
}

func (s *invoiceService) Export(ctx context.Context, userID string, format export.Format, w io.Writer) error {
	doc, err := s.ListInvoices(ctx, userID)
	if err != nil {
		return err
	}
	log.Printf("invoiceService.Export: exporting %d invoices for user %s as %s", len(doc.Invoices), userID, format)
	return export.Write(w, format, doc.Invoices)
}

// saveTemp copies the upload to a temp file named with its original
// extension, which selects the layout content type.
func (s *invoiceService) saveTemp(f UploadFile) (string, error) {
	ext := strings.ToLower(filepath.Ext(f.Filename))
	if _, ok := domain.ContentTypeFor(f.Filename); !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFileType, ext)
	}

	maxBytes := s.limits.MaxFileSizeMB * 1024 * 1024
	if maxBytes > 0 && f.Size > maxBytes {
		return "", domain.ErrFileTooLarge
	}

	tmp, err := os.CreateTemp("", "invoiceflow-*"+ext)
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	name := tmp.Name()

	body := f.Body
	if maxBytes > 0 {
		body = io.LimitReader(f.Body, maxBytes+1)
	}
	n, copyErr := io.Copy(tmp, body)
	closeErr := tmp.Close()
	switch {
	case copyErr != nil:
		_ = os.Remove(name)
		return "", fmt.Errorf("writing temp file: %w", copyErr)
	case closeErr != nil:
		_ = os.Remove(name)
		return "", fmt.Errorf("closing temp file: %w", closeErr)
	case maxBytes > 0 && n > maxBytes:
		_ = os.Remove(name)
		return "", domain.ErrFileTooLarge
	}
	return name, nil
}

// ArchiveKey builds {prefix}/{user_id}/{uuid}{ext}.
func ArchiveKey(prefix, userID, filename string) string {
	name := uuid.New().String() + strings.ToLower(filepath.Ext(filename))
	return path.Join(strings.Trim(prefix, "/"), userID, name)
}

// archiveFile stores the raw upload. Failures are logged and never fail processing.
func (s *invoiceService) archiveFile(ctx context.Context, userID, filename, tmp string) {
	if s.archive.Storage == nil {
		return
	}
	file, err := os.Open(tmp)
	if err != nil {
		log.Printf("invoiceService.archiveFile: opening %s: %v", tmp, err)
		return
	}
	defer func() { _ = file.Close() }()

	var size int64
	if info, statErr := file.Stat(); statErr == nil {
		size = info.Size()
	}
	contentType, _ := domain.ContentTypeFor(filename)
	key := ArchiveKey(s.archive.Prefix, userID, filename)

	out, err := s.archive.Storage.Upload(ctx, port.UploadInput{
		Bucket:      s.archive.Bucket,
		Key:         key,
		Body:        file,
		ContentType: contentType,
		Size:        size,
	})
	if err != nil {
		log.Printf("invoiceService.archiveFile: WARN: archive upload failed for %s: %v", filename, err)
		return
	}
	log.Printf("invoiceService.archiveFile: archived %s to %s", filename, out.Location)
}
