package idcard

import (
	"errors"
	"fmt"
	"math"
)

// FailureKind classifies why a transcript was rejected.
type FailureKind string

const (
	KindUnreadableImage    FailureKind = "unreadable_image"
	KindWrongInstitution   FailureKind = "wrong_institution"
	KindLowConfidence      FailureKind = "low_confidence"
	KindRollNumberNotFound FailureKind = "roll_number_not_found"
	KindGraduatedBatch     FailureKind = "graduated_batch"
	KindFutureBatch        FailureKind = "future_batch"
	KindNameNotFound       FailureKind = "name_not_found"
)

// Sentinels for errors.Is. A *ParseFailure matches the sentinel of its kind.
var (
	ErrUnreadableImage    = errors.New("image unreadable")
	ErrWrongInstitution   = errors.New("not a valid institution ID card")
	ErrLowConfidence      = errors.New("image quality too low")
	ErrRollNumberNotFound = errors.New("roll number not found")
	ErrGraduatedBatch     = errors.New("batch has graduated")
	ErrFutureBatch        = errors.New("future batch not allowed")
	ErrNameNotFound       = errors.New("name not found")
)

var kindSentinels = map[FailureKind]error{
	KindUnreadableImage:    ErrUnreadableImage,
	KindWrongInstitution:   ErrWrongInstitution,
	KindLowConfidence:      ErrLowConfidence,
	KindRollNumberNotFound: ErrRollNumberNotFound,
	KindGraduatedBatch:     ErrGraduatedBatch,
	KindFutureBatch:        ErrFutureBatch,
	KindNameNotFound:       ErrNameNotFound,
}

// Retryable reports whether a clearer photo or manual entry could fix the failure.
// Wrong institution and out-of-window batches are permanent.
func (k FailureKind) Retryable() bool {
	switch k {
	case KindUnreadableImage, KindLowConfidence, KindRollNumberNotFound, KindNameNotFound:
		return true
	default:
		return false
	}
}

// ParseFailure is the outcome of a transcript that did not pass every gate.
// Message is meant for the end user.
type ParseFailure struct {
	Kind    FailureKind
	Message string
}

func (f *ParseFailure) Error() string {
	return f.Message
}

// Is lets errors.Is(err, ErrLowConfidence) and friends work on failures.
func (f *ParseFailure) Is(target error) bool {
	return kindSentinels[f.Kind] == target
}

func unreadable() *ParseFailure {
	return &ParseFailure{
		Kind:    KindUnreadableImage,
		Message: "Unable to read the uploaded image. Please upload a clear photo of your UOS Student ID card.",
	}
}

func wrongInstitution() *ParseFailure {
	return &ParseFailure{
		Kind:    KindWrongInstitution,
		Message: "This does not appear to be a University of Sindh ID card. Please upload your valid UOS Student ID card.",
	}
}

func lowConfidence(confidence float64) *ParseFailure {
	return &ParseFailure{
		Kind: KindLowConfidence,
		Message: fmt.Sprintf(
			"Image quality is too low (%d%% confidence). Please upload a clearer photo with better lighting.",
			int(math.Round(confidence)),
		),
	}
}

func rollNumberNotFound() *ParseFailure {
	return &ParseFailure{
		Kind:    KindRollNumberNotFound,
		Message: "Could not find a valid student roll number. Please ensure the roll number (e.g., 2K25/CSE/111) is clearly visible.",
	}
}

func graduated(oldestBatch string) *ParseFailure {
	return &ParseFailure{
		Kind: KindGraduatedBatch,
		Message: fmt.Sprintf(
			"This student appears to have graduated. Only current students (batch %s onwards) can register.",
			oldestBatch,
		),
	}
}

func futureBatch() *ParseFailure {
	return &ParseFailure{
		Kind:    KindFutureBatch,
		Message: "Invalid batch year. Cannot register future students.",
	}
}

func nameNotFound() *ParseFailure {
	return &ParseFailure{
		Kind:    KindNameNotFound,
		Message: "Could not extract student name from the ID card. Please ensure the name is clearly visible.",
	}
}
