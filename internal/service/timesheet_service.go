package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"mime"
	"net/http"

	"github.com/google/uuid"

	"cartellino/internal/bundle"
	"cartellino/internal/config"
	"cartellino/internal/csvexport"
	"cartellino/internal/domain"
	"cartellino/internal/parser"
	"cartellino/internal/parser/cartellino"
	"cartellino/internal/pdfkit"
	"cartellino/internal/port"
	"cartellino/internal/xlsxexport"
)

const defaultMaxParseAttempts = 3

// TimesheetUploadInput is the DTO for timesheet uploads.
type TimesheetUploadInput struct {
	FileName     string
	Data         []byte
	Password     string
	SourceFileID *string
}

// ExportFile is a rendered timesheet export ready to be served.
type ExportFile struct {
	FileName    string
	ContentType string
	Data        []byte
}

// TimesheetService defines the timesheet management contract.
type TimesheetService interface {
	Upload(ctx context.Context, input TimesheetUploadInput) (*domain.Timesheet, error)
	ParseText(ctx context.Context, text string) (*domain.ParsedDocument, error)
	Process(ctx context.Context, ts *domain.Timesheet, maxAttempts int)
	Get(ctx context.Context, id uuid.UUID) (*domain.TimesheetDetail, error)
	List(ctx context.Context, filter domain.TimesheetFilter, offset, limit int) ([]domain.Timesheet, int, error)
	Reparse(ctx context.Context, id uuid.UUID) (*domain.Timesheet, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SourceURL(ctx context.Context, id uuid.UUID) (string, error)
	Export(ctx context.Context, id uuid.UUID, format domain.ExportFormat) (*ExportFile, error)
}

type timesheetService struct {
	repo      port.TimesheetRepository
	storage   port.ObjectStorage
	docParser port.DocumentParser
	core      *cartellino.Parser
	s3Cfg     config.S3Config
	uploadCfg config.UploadConfig
}

// NewTimesheetService creates a new TimesheetService implementation.
func NewTimesheetService(
	repo port.TimesheetRepository,
	storage port.ObjectStorage,
	docParser port.DocumentParser,
	core *cartellino.Parser,
	s3Cfg config.S3Config,
	uploadCfg config.UploadConfig,
) TimesheetService {
	if core == nil {
		core = cartellino.New()
	}
	return &timesheetService{
		repo:      repo,
		storage:   storage,
		docParser: docParser,
		core:      core,
		s3Cfg:     s3Cfg,
		uploadCfg: uploadCfg,
	}
}

func (s *timesheetService) Upload(ctx context.Context, input TimesheetUploadInput) (*domain.Timesheet, error) {
	contentType, err := parser.ContentTypeForName(input.FileName)
	if err != nil {
		return nil, domain.ErrUnsupportedFileType
	}

	maxBytes := s.uploadCfg.MaxFileSizeMB * 1024 * 1024
	if maxBytes > 0 && int64(len(input.Data)) > maxBytes {
		return nil, domain.ErrFileTooLarge
	}
	if len(input.Data) == 0 {
		return nil, domain.ErrEmptyDocument
	}

	// Magic-byte check against the type implied by the extension.
	detected, _, _ := mime.ParseMediaType(http.DetectContentType(input.Data))
	if detected != contentType {
		return nil, domain.ErrUnsupportedFileType
	}

	data := input.Data
	if input.Password != "" && contentType == "application/pdf" {
		if data, err = pdfkit.Decrypt(data, input.Password); err != nil {
			return nil, err
		}
	}

	id := uuid.New()
	key := fmt.Sprintf("timesheets/%s/%s", id, input.FileName)
	ts := &domain.Timesheet{
		ID:           id,
		SourceName:   input.FileName,
		ContentType:  contentType,
		StorageKey:   key,
		SourceFileID: input.SourceFileID,
		Status:       domain.TimesheetStatusQueued,
	}

	log.Printf("timesheetService.Upload: uploading %s (%s, %d bytes) as %s",
		input.FileName, contentType, len(data), id)

	if _, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.s3Cfg.Bucket,
		Key:         key,
		Body:        bytes.NewReader(data),
		ContentType: contentType,
		Size:        int64(len(data)),
		Metadata:    map[string]string{"timesheet-id": id.String()},
	}); err != nil {
		log.Printf("timesheetService.Upload: storage upload failed for %s: %v", id, err)
		return nil, fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}

	if err := s.repo.Create(ctx, ts); err != nil {
		if delErr := s.storage.Delete(ctx, s.s3Cfg.Bucket, key); delErr != nil {
			log.Printf("timesheetService.Upload: cleanup of %s failed: %v", key, delErr)
		}
		return nil, fmt.Errorf("creating timesheet: %w", err)
	}
	return ts, nil
}

func (s *timesheetService) ParseText(ctx context.Context, text string) (*domain.ParsedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.core.Parse(text)
}

// Process downloads, parses and stores one claimed timesheet. Errors are
// recorded on the timesheet rather than returned.
func (s *timesheetService) Process(ctx context.Context, ts *domain.Timesheet, maxAttempts int) {
	data, err := s.storage.Download(ctx, s.s3Cfg.Bucket, ts.StorageKey)
	if err != nil {
		s.handleProcessError(ctx, ts, fmt.Errorf("downloading source: %w", err), maxAttempts)
		return
	}

	out, err := s.docParser.Parse(ctx, port.ParseInput{
		FileBytes:   data,
		ContentType: ts.ContentType,
		FileName:    ts.SourceName,
	})
	if err != nil {
		s.handleProcessError(ctx, ts, err, maxAttempts)
		return
	}

	ts.PageCount = out.PageCount
	if err := s.repo.SaveParsed(ctx, ts, out.Document); err != nil {
		s.handleProcessError(ctx, ts, fmt.Errorf("saving results: %w", err), maxAttempts)
		return
	}
	log.Printf("timesheetService.Process: timesheet %s parsed (%d days, review=%t)",
		ts.ID, len(out.Document.Days), out.Document.NeedsReview())
}

// permanentError reports whether retrying cannot change the outcome.
func permanentError(err error) bool {
	var unsupported *parser.UnsupportedContentTypeError
	return errors.Is(err, domain.ErrNoDayLines) ||
		errors.Is(err, domain.ErrEncryptedDocument) ||
		errors.Is(err, domain.ErrEmptyDocument) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.As(err, &unsupported)
}

func (s *timesheetService) handleProcessError(ctx context.Context, ts *domain.Timesheet, procErr error, maxAttempts int) {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxParseAttempts
	}
	reason := procErr.Error()

	if !permanentError(procErr) && ts.ParseAttempts < maxAttempts {
		log.Printf("timesheetService.Process: attempt %d/%d for %s failed, requeueing: %v",
			ts.ParseAttempts, maxAttempts, ts.ID, procErr)
		if err := s.repo.Requeue(ctx, ts.ID, reason); err != nil {
			log.Printf("timesheetService.Process: requeue of %s failed: %v", ts.ID, err)
		}
		return
	}

	log.Printf("timesheetService.Process: timesheet %s failed: %v", ts.ID, procErr)
	if err := s.repo.MarkFailed(ctx, ts.ID, reason); err != nil {
		log.Printf("timesheetService.Process: marking %s failed: %v", ts.ID, err)
	}
}

func (s *timesheetService) Get(ctx context.Context, id uuid.UUID) (*domain.TimesheetDetail, error) {
	ts, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &domain.TimesheetDetail{Timesheet: ts}
	if ts.Status == domain.TimesheetStatusParsed {
		if detail.Document, err = s.repo.LoadDocument(ctx, id); err != nil {
			return nil, err
		}
	}
	return detail, nil
}

func (s *timesheetService) List(ctx context.Context, filter domain.TimesheetFilter, offset, limit int) ([]domain.Timesheet, int, error) {
	return s.repo.List(ctx, filter, offset, limit)
}

func (s *timesheetService) Reparse(ctx context.Context, id uuid.UUID) (*domain.Timesheet, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.Requeue(ctx, id, ""); err != nil {
		return nil, err
	}
	log.Printf("timesheetService.Reparse: timesheet %s requeued", id)
	return s.repo.GetByID(ctx, id)
}

func (s *timesheetService) Delete(ctx context.Context, id uuid.UUID) error {
	ts, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.storage.Delete(ctx, s.s3Cfg.Bucket, ts.StorageKey); err != nil {
		log.Printf("timesheetService.Delete: removing %s from storage: %v", ts.StorageKey, err)
	}
	return s.repo.Delete(ctx, id)
}

func (s *timesheetService) SourceURL(ctx context.Context, id uuid.UUID) (string, error) {
	ts, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return s.storage.GetPresignedURL(ctx, s.s3Cfg.Bucket, ts.StorageKey, s.s3Cfg.PresignExpiry)
}

func (s *timesheetService) Export(ctx context.Context, id uuid.UUID, format domain.ExportFormat) (*ExportFile, error) {
	switch format {
	case domain.ExportXLSX, domain.ExportDays, domain.ExportPairs, domain.ExportJSON:
	default:
		return nil, domain.ErrUnsupportedExportFormat
	}

	ts, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	doc, err := s.repo.LoadDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	return RenderExport(ts.SourceName, doc, format)
}

// RenderExport encodes doc in the requested format.
func RenderExport(sourceName string, doc *domain.ParsedDocument, format domain.ExportFormat) (*ExportFile, error) {
	var buf bytes.Buffer
	out := &ExportFile{}

	switch format {
	case domain.ExportXLSX:
		if err := xlsxexport.Write(&buf, doc); err != nil {
			return nil, fmt.Errorf("rendering workbook: %w", err)
		}
		out.FileName = csvexport.BuildFilename(sourceName, "", "xlsx")
		out.ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case domain.ExportDays, domain.ExportPairs:
		buf.Write(csvexport.BOM)
		w := csvexport.NewWriter(&buf)
		var err error
		if format == domain.ExportDays {
			err = w.WriteDays(doc.Days)
		} else {
			err = w.WritePairs(doc.Pairs)
		}
		if err != nil {
			return nil, fmt.Errorf("rendering csv: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, fmt.Errorf("rendering csv: %w", err)
		}
		out.FileName = csvexport.BuildFilename(sourceName, string(format), "csv")
		out.ContentType = "text/csv; charset=utf-8"
	case domain.ExportJSON:
		data, err := bundle.MarshalJSON(doc)
		if err != nil {
			return nil, fmt.Errorf("rendering json: %w", err)
		}
		buf.Write(data)
		out.FileName = csvexport.BuildFilename(sourceName, "", "json")
		out.ContentType = "application/json; charset=utf-8"
	default:
		return nil, domain.ErrUnsupportedExportFormat
	}

	out.Data = buf.Bytes()
	return out, nil
}
