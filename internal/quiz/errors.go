package quiz

import (
	"errors"
	"fmt"
)

// ErrEmptyQuestionSet is reported when a provider succeeds without any usable question.
var ErrEmptyQuestionSet = errors.New("no questions available")

// FailureKind classifies why question generation failed.
type FailureKind string

const (
	FailureTransport FailureKind = "transport"
	FailureMalformed FailureKind = "malformed"
	FailureEmpty     FailureKind = "empty"
)

// GenerationError is the single outcome every question provider failure maps to.
// Message is safe to show to the player; Err keeps the underlying cause for logs.
type GenerationError struct {
	Kind    FailureKind
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// NewGenerationError builds a GenerationError with the player-facing message for kind.
func NewGenerationError(kind FailureKind, err error) *GenerationError {
	return &GenerationError{Kind: kind, Message: failureMessage(kind), Err: err}
}

// AsGenerationError converts any provider error into a GenerationError,
// treating unknown causes as transport failures.
func AsGenerationError(err error) *GenerationError {
	if err == nil {
		return nil
	}
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr
	}
	if errors.Is(err, ErrEmptyQuestionSet) {
		return NewGenerationError(FailureEmpty, err)
	}
	return NewGenerationError(FailureTransport, err)
}

func failureMessage(kind FailureKind) string {
	switch kind {
	case FailureMalformed:
		return "The question service sent back something we could not read. Please try again."
	case FailureEmpty:
		return "No questions could be generated for this topic. Try another topic or level."
	default:
		return "We could not reach the question service. Please try again."
	}
}
