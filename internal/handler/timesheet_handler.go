package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cartellino/internal/domain"
	"cartellino/internal/service"
)

const maxTextBody = 4 << 20

// TimesheetHandler handles timesheet parsing and management endpoints.
type TimesheetHandler struct {
	timesheetService service.TimesheetService
}

// NewTimesheetHandler creates a new TimesheetHandler.
func NewTimesheetHandler(timesheetService service.TimesheetService) *TimesheetHandler {
	return &TimesheetHandler{timesheetService: timesheetService}
}

// Parse handles POST /api/v1/timesheets/parse
// @Summary Parse timesheet text
// @Description Parse extracted cartellino text synchronously. Accepts a text/plain body or JSON {"text": "..."}.
// @Tags timesheets
// @Accept plain,json
// @Produce json
// @Param request body ParseTextRequest true "Extracted text"
// @Success 200 {object} Response{data=domain.ParsedDocument} "Parsed document"
// @Failure 400 {object} ErrorResponseBody "Empty body"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 413 {object} ErrorResponseBody "Body too large"
// @Failure 422 {object} ErrorResponseBody "No day lines found"
// @Security BearerAuth
// @Router /timesheets/parse [post]
func (h *TimesheetHandler) Parse(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxTextBody)

	var text string
	if strings.HasPrefix(c.ContentType(), "application/json") {
		var req ParseTextRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			if bodyTooLarge(err) {
				respondBodyTooLarge(c)
				return
			}
			RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
		text = req.Text
	} else {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			if bodyTooLarge(err) {
				respondBodyTooLarge(c)
				return
			}
			RespondError(c, http.StatusBadRequest, "INVALID_BODY", "could not read request body")
			return
		}
		text = string(body)
	}

	if strings.TrimSpace(text) == "" {
		RespondError(c, http.StatusBadRequest, "EMPTY_DOCUMENT", "request body is empty")
		return
	}

	doc, err := h.timesheetService.ParseText(c.Request.Context(), text)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, doc)
}

func bodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func respondBodyTooLarge(c *gin.Context) {
	RespondError(c, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE",
		fmt.Sprintf("request body exceeds %d bytes", maxTextBody))
}

// Upload handles POST /api/v1/timesheets
// @Summary Upload a timesheet
// @Description Upload a PDF or text cartellino. Parsing runs in the background.
// @Tags timesheets
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Timesheet (PDF or TXT)"
// @Param password formData string false "PDF password"
// @Success 201 {object} Response{data=domain.Timesheet} "Timesheet queued"
// @Failure 400 {object} ErrorResponseBody "Missing file or unsupported type"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 413 {object} ErrorResponseBody "File too large"
// @Failure 500 {object} ErrorResponseBody "Upload failed"
// @Security BearerAuth
// @Router /timesheets [post]
func (h *TimesheetHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_FILE", "could not read uploaded file")
		return
	}

	ts, err := h.timesheetService.Upload(c.Request.Context(), service.TimesheetUploadInput{
		FileName: header.Filename,
		Data:     data,
		Password: c.PostForm("password"),
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, ts)
}

// List handles GET /api/v1/timesheets
// @Summary List timesheets
// @Description List stored timesheets, newest period first
// @Tags timesheets
// @Produce json
// @Param employee_id query string false "Filter by employee ID"
// @Param year query int false "Filter by year"
// @Param month query int false "Filter by month (1-12)"
// @Param status query string false "Filter by status"
// @Param needs_review query bool false "Only timesheets that failed (true) or passed (false) validation"
// @Param offset query int false "Offset for pagination" default(0)
// @Param limit query int false "Limit for pagination (max 100)" default(20)
// @Success 200 {object} Response{data=[]domain.Timesheet,meta=PagMeta} "List of timesheets"
// @Failure 400 {object} ErrorResponseBody "Invalid filter"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Security BearerAuth
// @Router /timesheets [get]
func (h *TimesheetHandler) List(c *gin.Context) {
	filter, err := parseTimesheetFilter(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_FILTER", err.Error())
		return
	}
	offset, limit := parsePagination(c)

	items, total, err := h.timesheetService.List(c.Request.Context(), filter, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, items, PagMeta{Total: total, Offset: offset, Limit: limit})
}

func parseTimesheetFilter(c *gin.Context) (domain.TimesheetFilter, error) {
	filter := domain.TimesheetFilter{
		EmployeeID: strings.TrimSpace(c.Query("employee_id")),
		Status:     domain.TimesheetStatus(c.Query("status")),
	}
	if v := c.Query("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return filter, fmt.Errorf("invalid year %q", v)
		}
		filter.Year = &year
	}
	if v := c.Query("month"); v != "" {
		month, err := strconv.Atoi(v)
		if err != nil || month < 1 || month > 12 {
			return filter, fmt.Errorf("invalid month %q", v)
		}
		filter.Month = &month
	}
	if v := c.Query("needs_review"); v != "" {
		review, err := strconv.ParseBool(v)
		if err != nil {
			return filter, fmt.Errorf("invalid needs_review %q", v)
		}
		filter.NeedsReview = &review
	}
	return filter, nil
}

// GetByID handles GET /api/v1/timesheets/:id
// @Summary Get timesheet by ID
// @Description Get a timesheet and, once parsed, its days, pairs, totals and validation
// @Tags timesheets
// @Produce json
// @Param id path string true "Timesheet ID (UUID)"
// @Success 200 {object} Response{data=domain.TimesheetDetail} "Timesheet details"
// @Failure 400 {object} ErrorResponseBody "Invalid ID"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 404 {object} ErrorResponseBody "Timesheet not found"
// @Security BearerAuth
// @Router /timesheets/{id} [get]
func (h *TimesheetHandler) GetByID(c *gin.Context) {
	id, ok := parseTimesheetID(c)
	if !ok {
		return
	}

	detail, err := h.timesheetService.Get(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, detail)
}

// Reparse handles POST /api/v1/timesheets/:id/reparse
// @Summary Reparse a timesheet
// @Description Requeue a timesheet for background parsing
// @Tags timesheets
// @Produce json
// @Param id path string true "Timesheet ID (UUID)"
// @Success 200 {object} Response{data=domain.Timesheet} "Timesheet requeued"
// @Failure 400 {object} ErrorResponseBody "Invalid ID"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 404 {object} ErrorResponseBody "Timesheet not found"
// @Security BearerAuth
// @Router /timesheets/{id}/reparse [post]
func (h *TimesheetHandler) Reparse(c *gin.Context) {
	id, ok := parseTimesheetID(c)
	if !ok {
		return
	}

	ts, err := h.timesheetService.Reparse(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, ts)
}

// Export handles GET /api/v1/timesheets/:id/export
// @Summary Export a parsed timesheet
// @Tags timesheets
// @Produce octet-stream
// @Param id path string true "Timesheet ID (UUID)"
// @Param format query string false "xlsx, days, pairs or json" default(xlsx)
// @Success 200 {file} file "Export file"
// @Failure 400 {object} ErrorResponseBody "Invalid ID or format"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 404 {object} ErrorResponseBody "Timesheet not found"
// @Failure 409 {object} ErrorResponseBody "Timesheet not parsed"
// @Security BearerAuth
// @Router /timesheets/{id}/export [get]
func (h *TimesheetHandler) Export(c *gin.Context) {
	id, ok := parseTimesheetID(c)
	if !ok {
		return
	}
	format := domain.ExportFormat(strings.ToLower(c.DefaultQuery("format", string(domain.ExportXLSX))))

	file, err := h.timesheetService.Export(c.Request.Context(), id, format)
	if err != nil {
		HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// Source handles GET /api/v1/timesheets/:id/source
// @Summary Get a download URL for the uploaded source
// @Tags timesheets
// @Produce json
// @Param id path string true "Timesheet ID (UUID)"
// @Success 200 {object} Response{data=SourceURLResponse} "Presigned URL"
// @Failure 400 {object} ErrorResponseBody "Invalid ID"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 404 {object} ErrorResponseBody "Timesheet not found"
// @Security BearerAuth
// @Router /timesheets/{id}/source [get]
func (h *TimesheetHandler) Source(c *gin.Context) {
	id, ok := parseTimesheetID(c)
	if !ok {
		return
	}

	url, err := h.timesheetService.SourceURL(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, SourceURLResponse{URL: url})
}

// Delete handles DELETE /api/v1/timesheets/:id
// @Summary Delete a timesheet
// @Tags timesheets
// @Produce json
// @Param id path string true "Timesheet ID (UUID)"
// @Success 200 {object} Response{data=MessageResponse} "Timesheet deleted"
// @Failure 400 {object} ErrorResponseBody "Invalid ID"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 404 {object} ErrorResponseBody "Timesheet not found"
// @Security BearerAuth
// @Router /timesheets/{id} [delete]
func (h *TimesheetHandler) Delete(c *gin.Context) {
	id, ok := parseTimesheetID(c)
	if !ok {
		return
	}

	if err := h.timesheetService.Delete(c.Request.Context(), id); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, MessageResponse{Message: "timesheet deleted"})
}

func parseTimesheetID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid timesheet ID")
		return uuid.Nil, false
	}
	return id, true
}
