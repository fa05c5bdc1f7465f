package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrNoText is returned when an engine ran but recognized nothing.
var ErrNoText = errors.New("no text recognized")

// Result is the text an OCR engine recognized in one image.
type Result struct {
	Text       string
	Confidence float64 // 0-100
	Engine     string
}

// Engine recognizes text in an encoded image (PNG, JPEG, TIFF...).
type Engine interface {
	Name() string
	ExtractText(ctx context.Context, image []byte) (Result, error)
}

// FallbackOCR tries each engine in order and returns the first non-empty result.
type FallbackOCR struct {
	engines []Engine
	logger  *slog.Logger
}

func NewFallbackOCR(logger *slog.Logger, engines ...Engine) *FallbackOCR {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FallbackOCR{engines: engines, logger: logger}
}

func (f *FallbackOCR) Name() string {
	names := make([]string, 0, len(f.engines))
	for _, e := range f.engines {
		names = append(names, e.Name())
	}
	return strings.Join(names, ",")
}

func (f *FallbackOCR) ExtractText(ctx context.Context, image []byte) (Result, error) {
	if len(f.engines) == 0 {
		return Result{}, errors.New("no OCR engine configured")
	}

	var errs []error
	for _, engine := range f.engines {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		result, err := engine.ExtractText(ctx, image)
		if err == nil && strings.TrimSpace(result.Text) == "" {
			err = ErrNoText
		}
		if err != nil {
			f.logger.WarnContext(ctx, "OCR engine failed, trying next", "engine", engine.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", engine.Name(), err))
			continue
		}

		f.logger.DebugContext(ctx, "OCR complete",
			"engine", engine.Name(), "chars", len(result.Text), "confidence", result.Confidence)
		return result, nil
	}

	return Result{}, fmt.Errorf("all OCR engines failed: %w", errors.Join(errs...))
}
