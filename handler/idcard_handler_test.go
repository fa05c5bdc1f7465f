package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/uosphere/idcard-verification/dto"
	"github.com/uosphere/idcard-verification/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockVerifier struct {
	mock.Mock
}

func (m *mockVerifier) VerifyUpload(ctx context.Context, fileData []byte, mimeType string) (*dto.IDCardResponse, error) {
	args := m.Called(ctx, fileData, mimeType)
	resp, _ := args.Get(0).(*dto.IDCardResponse)
	return resp, args.Error(1)
}

func (m *mockVerifier) AnalyzeText(ctx context.Context, text string, confidence float64) *dto.IDCardResponse {
	args := m.Called(ctx, text, confidence)
	return args.Get(0).(*dto.IDCardResponse)
}

func (m *mockVerifier) Validate(data *dto.ExtractedData) dto.ValidationResult {
	args := m.Called(data)
	return args.Get(0).(dto.ValidationResult)
}

func newTestRouter(svc service.IDCardVerifier, maxFileSize int64) *gin.Engine {
	r := gin.New()
	r.GET("/health", Health)
	NewIDCardHandler(svc, maxFileSize, nil).RegisterRoutes(r)
	return r
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 8, 8))))
	return buf.Bytes()
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func successResponse() *dto.IDCardResponse {
	return &dto.IDCardResponse{
		Success: true,
		Data: &dto.ExtractedData{
			Name:   "Ali Khan",
			RollNo: "2K25/CSE/87",
			Batch:  "2K25",
		},
		Confidence: 85,
	}
}

func TestHealth(t *testing.T) {
	r := newTestRouter(&mockVerifier{}, 10<<20)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"Student ID Verification"}`, w.Body.String())
}

func TestUploadSuccess(t *testing.T) {
	svc := &mockVerifier{}
	img := pngBytes(t)
	svc.On("VerifyUpload", mock.Anything, img, "image/png").Return(successResponse(), nil)
	r := newTestRouter(svc, 10<<20)

	body, contentType := multipartBody(t, "idCard", "card.png", img)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/idcard/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp dto.IDCardResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "2K25/CSE/87", resp.Data.RollNo)
	svc.AssertExpectations(t)
}

func TestUploadRejectedCard(t *testing.T) {
	svc := &mockVerifier{}
	svc.On("VerifyUpload", mock.Anything, mock.Anything, "image/png").Return(&dto.IDCardResponse{
		Success: false,
		Error:   "Image quality is too low (40% confidence). Please upload a clearer photo with better lighting.",
		Kind:    "low_confidence",
	}, nil)
	r := newTestRouter(svc, 10<<20)

	body, contentType := multipartBody(t, "idCard", "card.png", pngBytes(t))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/idcard/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"kind":"low_confidence"`)
	assert.Contains(t, w.Body.String(), `"success":false`)
}

func TestUploadMissingFile(t *testing.T) {
	r := newTestRouter(&mockVerifier{}, 10<<20)

	body, contentType := multipartBody(t, "document", "card.png", pngBytes(t))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/idcard/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_REQUEST", resp.Error)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestUploadTooLarge(t *testing.T) {
	r := newTestRouter(&mockVerifier{}, 16)

	body, contentType := multipartBody(t, "idCard", "card.png", pngBytes(t))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/idcard/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "File too large")
}

func TestUploadServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "unsupported type", err: service.ErrUnsupportedFileType, status: http.StatusBadRequest},
		{name: "bad image", err: service.ErrInvalidImage, status: http.StatusBadRequest},
		{name: "ocr down", err: errors.New("all OCR engines failed"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockVerifier{}
			svc.On("VerifyUpload", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err)
			r := newTestRouter(svc, 10<<20)

			body, contentType := multipartBody(t, "idCard", "card.txt", []byte("plain text"))
			req := httptest.NewRequest(http.MethodPost, "/api/v1/idcard/upload", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestAnalyze(t *testing.T) {
	svc := &mockVerifier{}
	svc.On("AnalyzeText", mock.Anything, "UNIVERSITY OF SINDH ...", 85.0).Return(successResponse())
	r := newTestRouter(svc, 10<<20)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/idcard/analyze",
		strings.NewReader(`{"text":"UNIVERSITY OF SINDH ...","confidence":85}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestAnalyzeZeroConfidenceIsAccepted(t *testing.T) {
	svc := &mockVerifier{}
	svc.On("AnalyzeText", mock.Anything, "", 0.0).Return(&dto.IDCardResponse{Success: false, Kind: "unreadable_image"})
	r := newTestRouter(svc, 10<<20)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/idcard/analyze", strings.NewReader(`{"text":"","confidence":0}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unreadable_image")
	svc.AssertExpectations(t)
}

func TestAnalyzeRejectsBadBody(t *testing.T) {
	for _, body := range []string{`{"text":"x"}`, `{"text":"x","confidence":150}`, `not json`} {
		svc := &mockVerifier{}
		r := newTestRouter(svc, 10<<20)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/idcard/analyze", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		svc.AssertNotCalled(t, "AnalyzeText", mock.Anything, mock.Anything, mock.Anything)
	}
}

func TestValidateEndpoint(t *testing.T) {
	svc := &mockVerifier{}
	svc.On("Validate", (*dto.ExtractedData)(nil)).Return(dto.ValidationResult{Valid: false, Errors: []string{"No data extracted"}})
	svc.On("Validate", mock.MatchedBy(func(d *dto.ExtractedData) bool {
		return d != nil && d.RollNo == "2K25/CSE/87"
	})).Return(dto.ValidationResult{Valid: true, Errors: []string{}})
	r := newTestRouter(svc, 10<<20)

	for _, body := range []string{"", "null"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/idcard/validate", strings.NewReader(body))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"valid":false,"errors":["No data extracted"]}`, w.Body.String())
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/idcard/validate", strings.NewReader(`{"rollNo":"2K25/CSE/87"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"valid":true,"errors":[]}`, w.Body.String())
}
