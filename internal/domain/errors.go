package domain

import "errors"

var (
	ErrExtractionFailed        = errors.New("document layout extraction failed")
	ErrNoInvoicesFound         = errors.New("no invoices found in document")
	ErrUserIDRequired          = errors.New("user id is required")
	ErrNoFiles                 = errors.New("no files were uploaded")
	ErrTooManyFiles            = errors.New("too many files in one request")
	ErrUserNotFound            = errors.New("no invoices stored for user")
	ErrUnsupportedFileType     = errors.New("unsupported file type")
	ErrFileTooLarge            = errors.New("file exceeds maximum allowed size")
	ErrTooManyPages            = errors.New("document exceeds maximum page count")
	ErrStoreUnavailable        = errors.New("invoice store unavailable")
	ErrUnsupportedExportFormat = errors.New("unsupported export format")
)
