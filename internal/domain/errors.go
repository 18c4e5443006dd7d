package domain

import "errors"

// Batch-fatal errors. Any of these aborts the batch before a report exists.
var (
	ErrSizeExceeded     = errors.New("archive exceeds maximum allowed size")
	ErrInvalidArchive   = errors.New("archive could not be opened")
	ErrNoSupportedFiles = errors.New("archive contains no supported documents")
	ErrIncompleteBatch  = errors.New("batch outcomes are incomplete")
)

// Entry-local errors, converted into skip outcomes by the batch service.
var (
	ErrCorruptDocument = errors.New("document could not be decoded")
	ErrEmptyText       = errors.New("document has no extractable text")
)

// Request errors.
var (
	ErrMissingFile         = errors.New("no archive file was provided")
	ErrUnsupportedFileType = errors.New("upload must be a .zip archive")
	ErrInvalidReportFormat = errors.New("unsupported report format")
)
