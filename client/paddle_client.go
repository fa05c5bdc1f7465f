package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

// PaddleClient calls a PaddleOCR serving endpoint over HTTP
// (POST {"images": [base64]} -> {"results": [[{"text", "confidence"}]]}).
type PaddleClient struct {
	apiURL     string
	httpClient *http.Client
	attempts   uint
	retryDelay time.Duration
	logger     *slog.Logger
}

// NewPaddleClient creates a new PaddleOCR client for apiURL,
// e.g. http://paddleocr:8866/predict/ocr_system.
func NewPaddleClient(apiURL string, timeout time.Duration, attempts uint, logger *slog.Logger) (*PaddleClient, error) {
	if apiURL == "" {
		return nil, errors.New("PaddleOCR API URL is required")
	}
	if attempts == 0 {
		attempts = 1
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &PaddleClient{
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: timeout},
		attempts:   attempts,
		retryDelay: 500 * time.Millisecond,
		logger:     logger,
	}, nil
}

func (p *PaddleClient) Name() string {
	return "paddle"
}

type paddleRequest struct {
	Images []string `json:"images"`
}

type paddleResponse struct {
	Results [][]struct {
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence"`
	} `json:"results"`
}

// ExtractText sends one image to PaddleOCR. Server errors and transport
// failures are retried; 4xx responses are not.
func (p *PaddleClient) ExtractText(ctx context.Context, image []byte) (Result, error) {
	payload, err := json.Marshal(paddleRequest{
		Images: []string{base64.StdEncoding.EncodeToString(image)},
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	var parsed paddleResponse
	err = retry.Do(
		func() error {
			parsed, err = p.post(ctx, payload)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(p.attempts),
		retry.Delay(p.retryDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			p.logger.WarnContext(ctx, "PaddleOCR request failed, retrying", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return Result{}, fmt.Errorf("failed to call PaddleOCR API: %w", err)
	}

	var (
		text  strings.Builder
		total float64
		lines int
	)
	if len(parsed.Results) > 0 {
		for _, line := range parsed.Results[0] {
			text.WriteString(line.Text)
			text.WriteString("\n")
			total += line.Confidence
			lines++
		}
	}
	if lines == 0 {
		return Result{}, ErrNoText
	}

	confidence := total / float64(lines)
	// PaddleOCR reports 0-1
	if confidence <= 1 {
		confidence *= 100
	}

	p.logger.DebugContext(ctx, "PaddleOCR extracted text", "chars", text.Len(), "lines", lines)
	return Result{Text: text.String(), Confidence: confidence, Engine: p.Name()}, nil
}

func (p *PaddleClient) post(ctx context.Context, payload []byte) (paddleResponse, error) {
	var parsed paddleResponse

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(payload))
	if err != nil {
		return parsed, retry.Unrecoverable(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return parsed, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		err := fmt.Errorf("PaddleOCR API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		if resp.StatusCode < http.StatusInternalServerError {
			return parsed, retry.Unrecoverable(err)
		}
		return parsed, err
	}

	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return parsed, retry.Unrecoverable(fmt.Errorf("failed to decode PaddleOCR response: %w", err))
	}
	return parsed, nil
}
