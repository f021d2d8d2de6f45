package handler_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cartellino/internal/domain"
	"cartellino/internal/handler"
	"cartellino/internal/service"
	"cartellino/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func intPtr(v int) *int         { return &v }
func strPtr(v string) *string   { return &v }
func boolPtr(v bool) *bool      { return &v }
func f64Ptr(v float64) *float64 { return &v }

func timesheetRouter(svc *mocks.MockTimesheetService) *gin.Engine {
	h := handler.NewTimesheetHandler(svc)
	r := gin.New()
	g := r.Group("/api/v1/timesheets")
	g.POST("/parse", h.Parse)
	g.POST("", h.Upload)
	g.GET("", h.List)
	g.GET("/:id", h.GetByID)
	g.POST("/:id/reparse", h.Reparse)
	g.GET("/:id/export", h.Export)
	g.GET("/:id/source", h.Source)
	g.DELETE("/:id", h.Delete)
	return r
}

func sampleDocument() *domain.ParsedDocument {
	return &domain.ParsedDocument{
		Meta: domain.Metadata{
			EmployeeName: strPtr("ROSSI MARIO"),
			EmployeeID:   strPtr("004512"),
			MonthName:    strPtr("MARZO"),
			Month:        intPtr(3),
			Year:         intPtr(2023),
		},
		Days: []domain.DayRecord{{
			Year: intPtr(2023), Month: intPtr(3), Day: 1, DOW: domain.Wednesday,
			HoursPresent: 6, HoursTotal: 6, HoursWorked: 6,
		}},
		Pairs:      []domain.PairRecord{},
		Totals:     domain.Totals{domain.TotalWorkedHours: 6},
		Validation: domain.Validation{RowSum: 6, Total: f64Ptr(6), Diff: f64Ptr(0), IsOK: true},
	}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) handler.APIResponse {
	t.Helper()
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestTimesheetHandler_Parse_PlainText(t *testing.T) {
	svc := new(mocks.MockTimesheetService)
	svc.On("ParseText", mock.Anything, "01 ME 06:00 ...").Return(sampleDocument(), nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/timesheets/parse", strings.NewReader("01 ME 06:00 ..."))
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	timesheetRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "ROSSI MARIO", data["meta"].(map[string]interface{})["employee_name"])
	svc.AssertExpectations(t)
}

func TestTimesheetHandler_Parse_JSON(t *testing.T) {
	svc := new(mocks.MockTimesheetService)
	svc.On("ParseText", mock.Anything, "testo").Return(sampleDocument(), nil)

	body, _ := json.Marshal(map[string]string{"text": "testo"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/timesheets/parse", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	timesheetRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestTimesheetHandler_Parse_NoDayLines(t *testing.T) {
	svc := new(mocks.MockTimesheetService)
	svc.On("ParseText", mock.Anything, "solo intestazione").Return(nil, domain.ErrNoDayLines)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/timesheets/parse", strings.NewReader("solo intestazione"))
	req.Header.Set("Content-Type", "text/plain")
	timesheetRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decode(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "NO_DAY_LINES", resp.Error.Code)
}

func TestTimesheetHandler_Parse_EmptyBody(t *testing.T) {
	svc := new(mocks.MockTimesheetService)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/timesheets/parse", strings.NewReader("  \n"))
	req.Header.Set("Content-Type", "text/plain")
	timesheetRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "ParseText", mock.Anything, mock.Anything)
}

func TestTimesheetHandler_Parse_BodyTooLarge(t *testing.T) {
	line := "01 LU 8.00 8.00 8.00\n"
	big := strings.Repeat(line, (4<<20)/len(line)+1)
	jsonBody, _ := json.Marshal(map[string]string{"text": big})

	tests := []struct {
		name        string
		contentType string
		body        []byte
	}{
		{"plain text", "text/plain", []byte(big)},
		{"json", "application/json", jsonBody},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mocks.MockTimesheetService)

			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodPost, "/api/v1/timesheets/parse", bytes.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			timesheetRouter(svc).ServeHTTP(w, req)

			assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
			resp := decode(t, w)
			assert.Equal(t, "BODY_TOO_LARGE", resp.Error.Code)
			svc.AssertNotCalled(t, "ParseText", mock.Anything, mock.Anything)
		})
	}
}

func multipartUpload(t *testing.T, name string, content []byte, password string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	if password != "" {
		require.NoError(t, mw.WriteField("password", password))
	}
	require.NoError(t, mw.Close())

	req, _ := http.NewRequest(http.MethodPost, "/api/v1/timesheets", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestTimesheetHandler_Upload_Success(t *testing.T) {
	svc := new(mocks.MockTimesheetService)
	ts := &domain.Timesheet{ID: uuid.New(), SourceName: "marzo.pdf", Status: domain.TimesheetStatusQueued}
	svc.On("Upload", mock.Anything, service.TimesheetUploadInput{
		FileName: "marzo.pdf",
		Data:     []byte("%PDF-1.7 body"),
		Password: "segreta",
	}).Return(ts, nil)

	w := httptest.NewRecorder()
	timesheetRouter(svc).ServeHTTP(w, multipartUpload(t, "marzo.pdf", []byte("%PDF-1.7 body"), "segreta"))

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "queued", resp.Data.(map[string]interface{})["status"])
	svc.AssertExpectations(t)
}

func TestTimesheetHandler_Upload_MissingFile(t *testing.T) {
	svc := new(mocks.MockTimesheetService)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/timesheets", http.NoBody)
	timesheetRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_FILE", decode(t, w).Error.Code)
}

func TestTimesheetHandler_Upload_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"unsupported type", domain.ErrUnsupportedFileType, http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE"},
		{"too large", domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"},
		{"encrypted", domain.ErrEncryptedDocument, http.StatusBadRequest, "ENCRYPTED_DOCUMENT"},
		{"storage", domain.ErrUploadFailed, http.StatusInternalServerError, "UPLOAD_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mocks.MockTimesheetService)
			svc.On("Upload", mock.Anything, mock.AnythingOfType("service.TimesheetUploadInput")).Return(nil, tt.err)

			w := httptest.NewRecorder()
			timesheetRouter(svc).ServeHTTP(w, multipartUpload(t, "marzo.pdf", []byte("%PDF-1.7"), ""))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, decode(t, w).Error.Code)
		})
	}
}

func TestTimesheetHandler_List_Filters(t *testing.T) {
	svc := new(mocks.MockTimesheetService)
	filter := domain.TimesheetFilter{
		EmployeeID:  "004512",
		Year:        intPtr(2023),
		Month:       intPtr(3),
		NeedsReview: boolPtr(true),
	}
	items := []domain.Timesheet{{ID: uuid.New(), SourceName: "marzo.pdf", Status: domain.TimesheetStatusParsed}}
	svc.On("List", mock.Anything, filter, 10, 5).Return(items, 11, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet,
		"/api/v1/timesheets?employee_id=004512&year=2023&month=3&needs_review=true&offset=10&limit=5", http.NoBody)
	timesheetRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 11, resp.Meta.Total)
	assert.Equal(t, 10, resp.Meta.Offset)
	assert.Equal(t, 5, resp.Meta.Limit)
	svc.AssertExpectations(t)
}

func TestTimesheetHandler_List_InvalidFilter(t *testing.T) {
	for _, query := range []string{"year=duemila", "month=13", "needs_review=forse"} {
		t.Run(query, func(t *testing.T) {
			svc := new(mocks.MockTimesheetService)

			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/api/v1/timesheets?"+query, http.NoBody)
			timesheetRouter(svc).ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "INVALID_FILTER", decode(t, w).Error.Code)
		})
	}
}

func TestTimesheetHandler_List_DefaultPagination(t *testing.T) {
	svc := new(mocks.MockTimesheetService)
	svc.On("List", mock.Anything, domain.TimesheetFilter{}, 0, 20).Return([]domain.Timesheet{}, 0, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/timesheets?limit=500", http.NoBody)
	timesheetRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestTimesheetHandler_GetByID(t *testing.T) {
	svc := new(mocks.MockTimesheetService)
	id := uuid.New()
	detail := &domain.TimesheetDetail{
		Timesheet: &domain.Timesheet{ID: id, Status: domain.TimesheetStatusParsed},
		Document:  sampleDocument(),
	}
	svc.On("Get", mock.Anything, id).Return(detail, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/timesheets/"+id.String(), http.NoBody)
	timesheetRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w).Data.(map[string]interface{})
	assert.Contains(t, data, "document")
	assert.Equal(t, id.String(), data["timesheet"].(map[string]interface{})["id"])
}

func TestTimesheetHandler_GetByID_InvalidID(t *testing.T) {
	svc := new(mocks.MockTimesheetService)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/timesheets/not-a-uuid", http.NoBody)
	timesheetRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ID", decode(t, w).Error.Code)
}

func TestTimesheetHandler_GetByID_NotFound(t *testing.T) {
	svc := new(mocks.MockTimesheetService)
	id := uuid.New()
	svc.On("Get", mock.Anything, id).Return(nil, domain.ErrTimesheetNotFound)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/timesheets/"+id.String(), http.NoBody)
	timesheetRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "TIMESHEET_NOT_FOUND", decode(t, w).Error.Code)
}

func TestTimesheetHandler_Reparse(t *testing.T) {
	svc := new(mocks.MockTimesheetService)
	id := uuid.New()
	svc.On("Reparse", mock.Anything, id).Return(&domain.Timesheet{ID: id, Status: domain.TimesheetStatusQueued}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/timesheets/"+id.String()+"/reparse", http.NoBody)
	timesheetRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestTimesheetHandler_Export(t *testing.T) {
	svc := new(mocks.MockTimesheetService)
	id := uuid.New()
	svc.On("Export", mock.Anything, id, domain.ExportDays).Return(&service.ExportFile{
		FileName:    "marzo_days.csv",
		ContentType: "text/csv; charset=utf-8",
		Data:        []byte("year,month,day\n"),
	}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/timesheets/"+id.String()+"/export?format=DAYS", http.NoBody)
	timesheetRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="marzo_days.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "year,month,day\n", w.Body.String())
}

func TestTimesheetHandler_Export_DefaultsToXLSX(t *testing.T) {
	svc := new(mocks.MockTimesheetService)
	id := uuid.New()
	svc.On("Export", mock.Anything, id, domain.ExportXLSX).Return(&service.ExportFile{
		FileName:    "marzo.xlsx",
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Data:        []byte("PK"),
	}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/timesheets/"+id.String()+"/export", http.NoBody)
	timesheetRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestTimesheetHandler_Export_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"bad format", domain.ErrUnsupportedExportFormat, http.StatusBadRequest, "UNSUPPORTED_EXPORT_FORMAT"},
		{"not parsed", domain.ErrTimesheetNotParsed, http.StatusConflict, "TIMESHEET_NOT_PARSED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mocks.MockTimesheetService)
			id := uuid.New()
			svc.On("Export", mock.Anything, id, domain.ExportFormat("pdf")).Return(nil, tt.err)

			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/api/v1/timesheets/"+id.String()+"/export?format=pdf", http.NoBody)
			timesheetRouter(svc).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, decode(t, w).Error.Code)
		})
	}
}

func TestTimesheetHandler_Source(t *testing.T) {
	svc := new(mocks.MockTimesheetService)
	id := uuid.New()
	svc.On("SourceURL", mock.Anything, id).Return("https://s3.example.com/signed", nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/timesheets/"+id.String()+"/source", http.NoBody)
	timesheetRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://s3.example.com/signed", decode(t, w).Data.(map[string]interface{})["url"])
}

func TestTimesheetHandler_Delete(t *testing.T) {
	svc := new(mocks.MockTimesheetService)
	id := uuid.New()
	svc.On("Delete", mock.Anything, id).Return(nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodDelete, "/api/v1/timesheets/"+id.String(), http.NoBody)
	timesheetRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}
