package handler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/uosphere/idcard-verification/dto"
	"github.com/uosphere/idcard-verification/middleware"
	"github.com/uosphere/idcard-verification/service"
)

// multipartOverhead leaves room for form boundaries and headers around the file.
const multipartOverhead = 1 << 20

type IDCardHandler struct {
	idCardService service.IDCardVerifier
	maxFileSize   int64
	logger        *slog.Logger
}

func NewIDCardHandler(idCardService service.IDCardVerifier, maxFileSize int64, logger *slog.Logger) *IDCardHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &IDCardHandler{
		idCardService: idCardService,
		maxFileSize:   maxFileSize,
		logger:        logger,
	}
}

// RegisterRoutes mounts the ID card endpoints under /api/v1/idcard.
func (h *IDCardHandler) RegisterRoutes(router gin.IRouter) {
	api := router.Group("/api/v1")
	{
		idCard := api.Group("/idcard")
		{
			idCard.POST("/upload", h.Upload)
			idCard.POST("/analyze", h.Analyze)
			idCard.POST("/validate", h.Validate)
		}
	}
}

// Upload handles POST /idcard/upload: OCR on the server for a card photo or PDF.
func (h *IDCardHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxFileSize+multipartOverhead)

	tooLarge := fmt.Sprintf("File too large. Maximum size is %dMB.", h.maxFileSize>>20)

	fileHeader, err := c.FormFile("idCard")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.sendError(c, http.StatusBadRequest, tooLarge, err)
			return
		}
		h.sendError(c, http.StatusBadRequest, "No ID card image uploaded", err)
		return
	}
	if fileHeader.Size > h.maxFileSize {
		h.sendError(c, http.StatusBadRequest, tooLarge, nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "Failed to open uploaded file", err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "Failed to read uploaded file", err)
		return
	}

	mimeType := mimetype.Detect(data).String()
	h.logger.InfoContext(c.Request.Context(), "ID card uploaded",
		"request_id", middleware.GetRequestID(c), "mime", mimeType, "size", len(data))

	resp, err := h.idCardService.VerifyUpload(c.Request.Context(), data, mimeType)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyFile),
			errors.Is(err, service.ErrUnsupportedFileType),
			errors.Is(err, service.ErrInvalidImage),
			errors.Is(err, service.ErrNoImageInPDF):
			h.sendError(c, http.StatusBadRequest, err.Error(), err)
		default:
			h.sendError(c, http.StatusInternalServerError, "Failed to process ID card. Please try again.", err)
		}
		return
	}

	h.respond(c, resp)
}

// Analyze handles POST /idcard/analyze with text recognized in the browser.
func (h *IDCardHandler) Analyze(c *gin.Context) {
	var req dto.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	h.respond(c, h.idCardService.AnalyzeText(c.Request.Context(), req.Text, *req.Confidence))
}

// Validate handles POST /idcard/validate. An empty or null body counts as no data.
func (h *IDCardHandler) Validate(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "Failed to read request body", err)
		return
	}

	var data *dto.ExtractedData
	if body := bytes.TrimSpace(raw); len(body) > 0 && !bytes.Equal(body, []byte("null")) {
		var parsed dto.ExtractedData
		if err := binding.JSON.BindBody(body, &parsed); err != nil {
			h.sendError(c, http.StatusBadRequest, "Invalid request body", err)
			return
		}
		data = &parsed
	}

	c.JSON(http.StatusOK, h.idCardService.Validate(data))
}

func (h *IDCardHandler) respond(c *gin.Context, resp *dto.IDCardResponse) {
	if !resp.Success {
		c.JSON(http.StatusBadRequest, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// sendError sends a structured error response
func (h *IDCardHandler) sendError(c *gin.Context, statusCode int, message string, err error) {
	code := "INVALID_REQUEST"
	if statusCode >= http.StatusInternalServerError {
		code = "VERIFICATION_FAILED"
	}

	if err != nil {
		_ = c.Error(err)
		h.logger.WarnContext(c.Request.Context(), message,
			"request_id", middleware.GetRequestID(c), "status", statusCode, "error", err)
	}

	c.JSON(statusCode, dto.ErrorResponse{
		Error:   code,
		Message: message,
		Code:    statusCode,
	})
}
