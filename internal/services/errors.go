// Package services defines the business logic for generations and flashcards.
// This file centralizes service-level error values and typed errors so that
// they can be consistently returned by service methods and checked by
// callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer, never here.
package services

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrGenerationNotFound indicates that the requested generation does not
	// exist or is not accessible to the current user.
	ErrGenerationNotFound = errors.New("generation not found")

	// ErrFlashcardNotFound indicates that the requested flashcard does not
	// exist or is not accessible to the current user.
	ErrFlashcardNotFound = errors.New("flashcard not found")

	// ErrForbiddenGeneration is returned when a flashcard save references a
	// generation that does not belong to the requesting user. The whole batch
	// is rejected; nothing is persisted.
	ErrForbiddenGeneration = errors.New("referenced generation does not belong to user")

	// ErrMissingGenerationID is returned when an AI-derived flashcard is
	// submitted without the generation it was accepted from.
	ErrMissingGenerationID = errors.New("ai-sourced flashcards require a generation id")

	// ErrInvalidSource is returned when a flashcard source is outside the
	// allowed set (ai-full, ai-edited, manual).
	ErrInvalidSource = errors.New("invalid flashcard source")

	// ErrEmptyCard is returned when a flashcard front or back is blank.
	ErrEmptyCard = errors.New("flashcard front and back are required")

	// ErrCardTooLong is returned when a flashcard front exceeds 200 or a back
	// exceeds 500 characters.
	ErrCardTooLong = errors.New("flashcard front or back too long")

	// ErrProviderFailure is the opaque error surfaced for provider-level
	// failures (timeout, upstream error, malformed output). The underlying
	// detail is logged server-side and recorded on the failed attempt; it
	// never crosses the API boundary.
	ErrProviderFailure = errors.New("proposal generation failed, try again later")
)

// Error codes recorded on failed generation attempts.
const (
	ErrorCodeLowQuality = "low_quality_input"
	ErrorCodeProvider   = "provider_error"
)

// InputLengthError reports source text outside the accepted closed range.
// It carries the bounds so callers can render them without a second lookup.
type InputLengthError struct {
	Length int
	Min    int
	Max    int
}

// Error implements the error interface.
func (e *InputLengthError) Error() string {
	return fmt.Sprintf("input length %d outside allowed range [%d, %d]", e.Length, e.Min, e.Max)
}

// DailyLimitExceededError reports an exhausted daily generation quota. It
// carries the limit, the (clamped, non-negative) remaining count, and the
// next UTC midnight so callers can render a reset time without re-querying.
type DailyLimitExceededError struct {
	Limit     int
	Remaining int
	ResetsAt  time.Time
}

// Error implements the error interface.
func (e *DailyLimitExceededError) Error() string {
	return fmt.Sprintf("daily generation limit of %d reached, resets at %s", e.Limit, e.ResetsAt.Format(time.RFC3339))
}
