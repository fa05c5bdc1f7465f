package client

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockEngine struct {
	mock.Mock
	name string
}

func (m *mockEngine) Name() string {
	return m.name
}

func (m *mockEngine) ExtractText(ctx context.Context, image []byte) (Result, error) {
	args := m.Called(ctx, image)
	return args.Get(0).(Result), args.Error(1)
}

func TestFallbackOCRUsesFirstEngineThatReadsText(t *testing.T) {
	first := &mockEngine{name: "paddle"}
	second := &mockEngine{name: "tesseract"}
	first.On("ExtractText", mock.Anything, []byte("img")).Return(Result{}, errors.New("connection refused"))
	second.On("ExtractText", mock.Anything, []byte("img")).Return(Result{Text: "UNIVERSITY OF SINDH", Confidence: 88, Engine: "tesseract"}, nil)

	ocr := NewFallbackOCR(nil, first, second)
	result, err := ocr.ExtractText(context.Background(), []byte("img"))

	require.NoError(t, err)
	assert.Equal(t, "tesseract", result.Engine)
	assert.Equal(t, 88.0, result.Confidence)
	first.AssertExpectations(t)
	second.AssertExpectations(t)
}

func TestFallbackOCRSkipsBlankText(t *testing.T) {
	first := &mockEngine{name: "paddle"}
	second := &mockEngine{name: "tesseract"}
	first.On("ExtractText", mock.Anything, mock.Anything).Return(Result{Text: "  \n"}, nil)
	second.On("ExtractText", mock.Anything, mock.Anything).Return(Result{Text: "text", Engine: "tesseract"}, nil)

	result, err := NewFallbackOCR(nil, first, second).ExtractText(context.Background(), []byte("img"))

	require.NoError(t, err)
	assert.Equal(t, "tesseract", result.Engine)
}

func TestFallbackOCRStopsAfterFirstSuccess(t *testing.T) {
	first := &mockEngine{name: "paddle"}
	second := &mockEngine{name: "tesseract"}
	first.On("ExtractText", mock.Anything, mock.Anything).Return(Result{Text: "text", Engine: "paddle"}, nil)

	_, err := NewFallbackOCR(nil, first, second).ExtractText(context.Background(), []byte("img"))

	require.NoError(t, err)
	second.AssertNotCalled(t, "ExtractText", mock.Anything, mock.Anything)
}

func TestFallbackOCRAllFail(t *testing.T) {
	first := &mockEngine{name: "paddle"}
	second := &mockEngine{name: "tesseract"}
	first.On("ExtractText", mock.Anything, mock.Anything).Return(Result{}, errors.New("timeout"))
	second.On("ExtractText", mock.Anything, mock.Anything).Return(Result{}, nil)

	_, err := NewFallbackOCR(nil, first, second).ExtractText(context.Background(), []byte("img"))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoText)
	assert.Contains(t, err.Error(), "paddle: timeout")
}

func TestFallbackOCRHonoursCancellation(t *testing.T) {
	engine := &mockEngine{name: "tesseract"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFallbackOCR(nil, engine).ExtractText(ctx, []byte("img"))

	assert.ErrorIs(t, err, context.Canceled)
	engine.AssertNotCalled(t, "ExtractText", mock.Anything, mock.Anything)
}

func TestFallbackOCRName(t *testing.T) {
	ocr := NewFallbackOCR(nil, &mockEngine{name: "paddle"}, &mockEngine{name: "tesseract"})
	assert.Equal(t, "paddle,tesseract", ocr.Name())
}
