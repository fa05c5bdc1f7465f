package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"strings"

	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/uosphere/idcard-verification/client"
	"github.com/uosphere/idcard-verification/dto"
	"github.com/uosphere/idcard-verification/utils/idcard"
)

// Where the transcript of a verification came from.
const (
	SourceImage   = "image"
	SourcePDFText = "pdf_text"
	SourcePDFScan = "pdf_image"
	SourceClient  = "client"
)

// KindValidationFailed marks a response rejected by the validator after a successful parse.
const KindValidationFailed = "validation_failed"

var (
	ErrEmptyFile           = errors.New("uploaded file is empty")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrInvalidImage        = errors.New("uploaded image could not be decoded")
	ErrNoImageInPDF        = errors.New("pdf contains no readable text or images")
)

// OCREngine recognizes text in an encoded image.
type OCREngine interface {
	ExtractText(ctx context.Context, image []byte) (client.Result, error)
}

// IDCardVerifier is what the HTTP handlers need from the service.
type IDCardVerifier interface {
	VerifyUpload(ctx context.Context, fileData []byte, mimeType string) (*dto.IDCardResponse, error)
	AnalyzeText(ctx context.Context, text string, confidence float64) *dto.IDCardResponse
	Validate(data *dto.ExtractedData) dto.ValidationResult
}

type IDCardService struct {
	ocr       OCREngine
	pdf       PDFProcessor
	parser    *idcard.Parser
	validator *idcard.Validator
	logger    *slog.Logger
}

func NewIDCardService(
	ocr OCREngine,
	pdf PDFProcessor,
	parser *idcard.Parser,
	validator *idcard.Validator,
	logger *slog.Logger,
) *IDCardService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &IDCardService{
		ocr:       ocr,
		pdf:       pdf,
		parser:    parser,
		validator: validator,
		logger:    logger,
	}
}

// VerifyUpload reads an uploaded card image or PDF and runs it through the
// parser and validator. Rejections come back as an unsuccessful response;
// the error is reserved for uploads that could not be read at all.
func (s *IDCardService) VerifyUpload(ctx context.Context, fileData []byte, mimeType string) (*dto.IDCardResponse, error) {
	if len(fileData) == 0 {
		return nil, ErrEmptyFile
	}

	var (
		scan client.Result
		src  string
		err  error
	)
	switch {
	case mimeType == "application/pdf":
		scan, src, err = s.readPDF(ctx, fileData)
	case strings.HasPrefix(mimeType, "image/"):
		scan, err = s.readImage(ctx, fileData)
		src = SourceImage
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, mimeType)
	}
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "card transcript ready",
		"source", src, "engine", scan.Engine, "chars", len(scan.Text), "confidence", scan.Confidence)

	resp := s.analyze(ctx, scan.Text, scan.Confidence)
	resp.Source = src
	return resp, nil
}

// AnalyzeText checks a transcript produced by OCR on the client.
func (s *IDCardService) AnalyzeText(ctx context.Context, text string, confidence float64) *dto.IDCardResponse {
	resp := s.analyze(ctx, text, confidence)
	resp.Source = SourceClient
	return resp
}

func (s *IDCardService) Validate(data *dto.ExtractedData) dto.ValidationResult {
	return s.validator.Validate(data)
}

func (s *IDCardService) analyze(ctx context.Context, text string, confidence float64) *dto.IDCardResponse {
	data, err := s.parser.Parse(text, confidence)
	if err != nil {
		var failure *idcard.ParseFailure
		if !errors.As(err, &failure) {
			failure = &idcard.ParseFailure{Kind: idcard.KindUnreadableImage, Message: err.Error()}
		}
		s.logger.InfoContext(ctx, "id card rejected", "kind", failure.Kind, "confidence", confidence)
		return &dto.IDCardResponse{
			Success:    false,
			Error:      failure.Message,
			Kind:       string(failure.Kind),
			Retryable:  failure.Kind.Retryable(),
			Confidence: confidence,
		}
	}

	result := s.validator.Validate(data)
	if !result.Valid {
		s.logger.InfoContext(ctx, "id card failed validation", "errors", result.Errors)
		return &dto.IDCardResponse{
			Success:    false,
			Validation: &result,
			Error:      strings.Join(result.Errors, ", "),
			Kind:       KindValidationFailed,
			Confidence: confidence,
		}
	}

	s.logger.InfoContext(ctx, "id card verified", "roll_no", data.RollNo, "batch", data.Batch)
	return &dto.IDCardResponse{
		Success:    true,
		Data:       data,
		Validation: &result,
		Confidence: confidence,
	}
}

func (s *IDCardService) readImage(ctx context.Context, data []byte) (client.Result, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return client.Result{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return s.recognize(ctx, data, img)
}

// readPDF prefers the PDF's own text layer and falls back to OCR of the first
// embedded image.
func (s *IDCardService) readPDF(ctx context.Context, data []byte) (client.Result, string, error) {
	text, err := s.pdf.ExtractText(data)
	if err != nil {
		s.logger.WarnContext(ctx, "pdf text extraction failed", "error", err)
	}
	if len(strings.TrimSpace(text)) >= s.parser.Policy().MinTextLength {
		return client.Result{Text: text, Confidence: 100, Engine: "pdf"}, SourcePDFText, nil
	}

	images, err := s.pdf.ExtractImages(data)
	if err != nil {
		return client.Result{}, "", fmt.Errorf("failed to read pdf: %w", err)
	}
	if len(images) == 0 {
		return client.Result{}, "", ErrNoImageInPDF
	}

	img, _, err := image.Decode(bytes.NewReader(images[0]))
	if err != nil {
		s.logger.DebugContext(ctx, "pdf image not decodable, skipping QR", "error", err)
		img = nil
	}
	scan, err := s.recognize(ctx, images[0], img)
	return scan, SourcePDFScan, err
}

// recognize runs OCR on the encoded image and appends any QR payload found
// in the decoded one as an extra line.
func (s *IDCardService) recognize(ctx context.Context, data []byte, img image.Image) (client.Result, error) {
	scan, err := s.ocr.ExtractText(ctx, data)
	if err != nil {
		return client.Result{}, fmt.Errorf("OCR extraction failed: %w", err)
	}

	if img != nil {
		if payload := decodeQR(img); payload != "" {
			s.logger.DebugContext(ctx, "QR code found on card", "chars", len(payload))
			scan.Text = strings.TrimRight(scan.Text, "\n") + "\n" + payload
		}
	}
	return scan, nil
}
