package domain

import "errors"

var (
	ErrNotFound                = errors.New("resource not found")
	ErrUnauthorized            = errors.New("unauthorized")
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrUnsupportedFileType     = errors.New("unsupported file type")
	ErrFileTooLarge            = errors.New("file exceeds maximum allowed size")
	ErrUploadFailed            = errors.New("file upload to storage failed")
	ErrNoDayLines              = errors.New("no day lines found")
	ErrTimesheetNotFound       = errors.New("timesheet not found")
	ErrTimesheetNotParsed      = errors.New("timesheet has not been parsed yet")
	ErrUnsupportedExportFormat = errors.New("unsupported export format")
	ErrEmptyDocument           = errors.New("document is empty")
	ErrEncryptedDocument       = errors.New("document is encrypted")
)
