package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"vidalaboral/internal/config"
	"vidalaboral/internal/domain"
	"vidalaboral/internal/handler"
	"vidalaboral/internal/parser"
	"vidalaboral/internal/service"
	"vidalaboral/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newReportHandler() (*handler.ReportHandler, *mocks.MockReportService) {
	mockSvc := new(mocks.MockReportService)
	h := handler.NewReportHandler(mockSvc, config.ServerConfig{MaxUploadMB: 1, MaxImageCount: 2})
	return h, mockSvc
}

type formFile struct {
	field, name string
	data        []byte
}

func multipartRequest(t *testing.T, path string, files []formFile, fields map[string]string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost, path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func sampleResult() *domain.Result {
	return &domain.Result{
		ReportID: uuid.New().String(),
		Periods: []domain.Period{
			{IsVacation: true, Start: "01/01/2020", End: "10/01/2020"},
			{IsVacation: false, Start: "06/01/2020", End: "20/01/2020"},
		},
		Summary: domain.Summary{
			TotalDays: 5,
			Segments:  []domain.Segment{{Start: "01/01/2020", End: "05/01/2020", Days: 5}},
		},
	}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) handler.APIResponse {
	t.Helper()
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestReportHandler_FromPDF_Success(t *testing.T) {
	h, mockSvc := newReportHandler()
	mockSvc.On("FromPDF", mock.Anything, "vida.pdf", []byte("%PDF-1.4"), mock.MatchedBy(func(o service.ProcessOptions) bool {
		return o.Pages == "2-3" &&
			o.ReferenceDate == "01/02/2020" &&
			o.StartedBefore.Equal(time.Date(2008, 1, 1, 0, 0, 0, 0, time.UTC))
	})).Return(sampleResult(), nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = multipartRequest(t, "/api/v1/reports/pdf",
		[]formFile{{"file", "vida.pdf", []byte("%PDF-1.4")}},
		map[string]string{"pages": "2-3", "reference_date": "01/02/2020", "filter_before": "01/01/2008"})

	h.FromPDF(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"total_non_overlapping_vacation_days":5`)
	assert.Contains(t, w.Body.String(), `"non_overlapping_vacation_periods":[{"start":"01/01/2020","end":"05/01/2020","days":5}]`)
	assert.Contains(t, w.Body.String(), `"isVacaciones":true`)
	mockSvc.AssertExpectations(t)
}

func TestReportHandler_FromPDF_MissingFile(t *testing.T) {
	h, mockSvc := newReportHandler()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = multipartRequest(t, "/api/v1/reports/pdf", nil, map[string]string{"pages": "2-5"})

	h.FromPDF(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_FILE", decode(t, w).Error.Code)
	mockSvc.AssertNotCalled(t, "FromPDF", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReportHandler_FromPDF_WrongType(t *testing.T) {
	h, _ := newReportHandler()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = multipartRequest(t, "/api/v1/reports/pdf", []formFile{{"file", "vida.docx", []byte("x")}}, nil)

	h.FromPDF(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "UNSUPPORTED_FILE_TYPE", decode(t, w).Error.Code)
}

func TestReportHandler_FromPDF_TooLarge(t *testing.T) {
	h, _ := newReportHandler()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = multipartRequest(t, "/api/v1/reports/pdf",
		[]formFile{{"file", "vida.pdf", bytes.Repeat([]byte("x"), 1<<20+10)}}, nil)

	h.FromPDF(c)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestReportHandler_FromPDF_BadFilterDate(t *testing.T) {
	h, _ := newReportHandler()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = multipartRequest(t, "/api/v1/reports/pdf",
		[]formFile{{"file", "vida.pdf", []byte("%PDF")}}, map[string]string{"filter_before": "2008-01-01"})

	h.FromPDF(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_FILTER_DATE", decode(t, w).Error.Code)
}

func TestReportHandler_FromPDF_ExtractionFailed(t *testing.T) {
	h, mockSvc := newReportHandler()
	mockSvc.On("FromPDF", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, domain.ErrExtractionFailed)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = multipartRequest(t, "/api/v1/reports/pdf", []formFile{{"file", "vida.pdf", []byte("%PDF")}}, nil)

	h.FromPDF(c)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "EXTRACTION_FAILED", decode(t, w).Error.Code)
}

func TestReportHandler_FromImages_SortsByName(t *testing.T) {
	h, mockSvc := newReportHandler()
	mockSvc.On("FromImages", mock.Anything, mock.MatchedBy(func(imgs []service.ImageFile) bool {
		return len(imgs) == 2 &&
			imgs[0].Name == "page1.png" && imgs[0].ContentType == "image/png" &&
			imgs[1].Name == "page2.jpg" && imgs[1].ContentType == "image/jpeg"
	}), mock.Anything).Return(sampleResult(), nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = multipartRequest(t, "/api/v1/reports/images", []formFile{
		{"images", "page2.jpg", []byte{0xFF, 0xD8}},
		{"images", "page1.png", []byte{0x89, 0x50}},
	}, nil)

	h.FromImages(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestReportHandler_FromImages_TooMany(t *testing.T) {
	h, _ := newReportHandler()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = multipartRequest(t, "/api/v1/reports/images", []formFile{
		{"images", "1.jpg", []byte{1}},
		{"images", "2.jpg", []byte{2}},
		{"images", "3.jpg", []byte{3}},
	}, nil)

	h.FromImages(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "TOO_MANY_IMAGES", decode(t, w).Error.Code)
}

func TestReportHandler_FromImages_RejectsStartFilters(t *testing.T) {
	for _, fields := range []map[string]string{
		{"filter_before": "01/01/2010"},
		{"filter_2008": "true"},
	} {
		h, mockSvc := newReportHandler()

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = multipartRequest(t, "/api/v1/reports/images", []formFile{{"images", "1.jpg", []byte{1}}}, fields)

		h.FromImages(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "FILTER_NOT_SUPPORTED", decode(t, w).Error.Code)
		mockSvc.AssertNotCalled(t, "FromImages", mock.Anything, mock.Anything, mock.Anything)
	}
}

func TestReportHandler_FromImages_None(t *testing.T) {
	h, _ := newReportHandler()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = multipartRequest(t, "/api/v1/reports/images", nil, map[string]string{"x": "y"})

	h.FromImages(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "NO_IMAGES", decode(t, w).Error.Code)
}

func TestReportHandler_FromImages_NotAnImage(t *testing.T) {
	h, _ := newReportHandler()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = multipartRequest(t, "/api/v1/reports/images", []formFile{{"images", "a.pdf", []byte("%PDF")}}, nil)

	h.FromImages(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "UNSUPPORTED_FILE_TYPE", decode(t, w).Error.Code)
}

func TestReportHandler_FromImages_RateLimited(t *testing.T) {
	h, mockSvc := newReportHandler()
	rle := parser.NewRateLimitError("openrouter", errors.New("429"), 45)
	mockSvc.On("FromImages", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.Join(domain.ErrOCRFailed, rle))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = multipartRequest(t, "/api/v1/reports/images", []formFile{{"images", "1.jpg", []byte{1}}}, nil)

	h.FromImages(c)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "45", w.Header().Get("Retry-After"))
	assert.Equal(t, "RATE_LIMITED", decode(t, w).Error.Code)
}

func TestReportHandler_FromGrid_Success(t *testing.T) {
	h, mockSvc := newReportHandler()
	mockSvc.On("FromGrid", mock.Anything, "grid.csv", []byte("a,b\n"), mock.Anything).Return(sampleResult(), nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = multipartRequest(t, "/api/v1/reports/grid", []formFile{{"file", "grid.csv", []byte("a,b\n")}}, nil)

	h.FromGrid(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestReportHandler_FromPeriods_Success(t *testing.T) {
	h, mockSvc := newReportHandler()
	periods := []domain.Period{{IsVacation: true, Start: "01/01/2020", End: "05/01/2020"}}
	mockSvc.On("FromPeriods", mock.Anything, periods, service.ProcessOptions{ReferenceDate: "05/01/2020"}).
		Return(sampleResult(), nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/reports/periods", strings.NewReader(
		`{"periods":[{"isVacaciones":true,"fechaAlta":"01/01/2020","fechaBaja":"05/01/2020"}],"reference_date":"05/01/2020"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	h.FromPeriods(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestReportHandler_FromPeriods_InvalidJSON(t *testing.T) {
	h, _ := newReportHandler()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/reports/periods", strings.NewReader(`{"periods":`))
	c.Request.Header.Set("Content-Type", "application/json")

	h.FromPeriods(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportHandler_FromPeriods_BadReferenceDate(t *testing.T) {
	h, mockSvc := newReportHandler()
	mockSvc.On("FromPeriods", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, domain.ErrInvalidReferenceDate)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/reports/periods",
		strings.NewReader(`{"periods":[],"reference_date":"2020-01-05"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	h.FromPeriods(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REFERENCE_DATE", decode(t, w).Error.Code)
}

func TestReportHandler_Process_BareResult(t *testing.T) {
	h, mockSvc := newReportHandler()
	mockSvc.On("FromPDF", mock.Anything, "vida.pdf", mock.Anything, mock.Anything).Return(sampleResult(), nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = multipartRequest(t, "/process", []formFile{{"pdf", "vida.pdf", []byte("%PDF")}}, nil)

	h.Process(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotContains(t, body, "success")
	assert.EqualValues(t, 5, body["total_non_overlapping_vacation_days"])
	assert.Len(t, body["data"], 2)
}

func TestReportHandler_Process_Errors(t *testing.T) {
	tests := []struct {
		name  string
		files []formFile
		want  string
	}{
		{"no file", nil, "No file uploaded"},
		{"not a pdf", []formFile{{"pdf", "vida.png", []byte{1}}}, "File must be a PDF"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newReportHandler()
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = multipartRequest(t, "/process", tt.files, map[string]string{"x": "y"})

			h.Process(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, `{"error":"`+tt.want+`"}`, w.Body.String())
		})
	}
}

func TestReportHandler_List(t *testing.T) {
	h, mockSvc := newReportHandler()
	reports := []domain.Report{{ID: uuid.New(), Source: domain.ReportSourcePDF, TotalDays: 5}}
	mockSvc.On("List", mock.Anything, 10, 5).Return(reports, 11, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/reports?offset=10&limit=5", http.NoBody)

	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 11, resp.Meta.Total)
	assert.Equal(t, 5, resp.Meta.Limit)
}

func TestReportHandler_GetByID_NotFound(t *testing.T) {
	h, mockSvc := newReportHandler()
	id := uuid.New()
	mockSvc.On("GetByID", mock.Anything, id).Return(nil, domain.ErrReportNotFound)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/reports/"+id.String(), http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.GetByID(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "REPORT_NOT_FOUND", decode(t, w).Error.Code)
}

func TestReportHandler_GetByID_InvalidID(t *testing.T) {
	h, _ := newReportHandler()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/reports/nope", http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: "nope"}}

	h.GetByID(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportHandler_Download(t *testing.T) {
	h, mockSvc := newReportHandler()
	id := uuid.New()
	mockSvc.On("GetDownloadURL", mock.Anything, id).Return("https://example.com/r.xlsx", nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/reports/"+id.String()+"/download", http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.Download(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "https://example.com/r.xlsx")
}

func TestReportHandler_ExportCSV(t *testing.T) {
	h, mockSvc := newReportHandler()
	id := uuid.New()
	mockSvc.On("ExportCSV", mock.Anything, id, mock.Anything).
		Return("Fecha Inicio,Fecha Fin,Días\n", "vida_2024-03-01.csv", nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/reports/"+id.String()+"/csv", http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.ExportCSV(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="vida_2024-03-01.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "Fecha Inicio,Fecha Fin,Días\n", w.Body.String())
}

func TestReportHandler_Delete(t *testing.T) {
	h, mockSvc := newReportHandler()
	id := uuid.New()
	mockSvc.On("Delete", mock.Anything, id).Return(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodDelete, "/api/v1/reports/"+id.String(), http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.Delete(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}
