package errs

import (
	"errors"
	"fmt"
)

// Kind klasifikasi error, dipetakan ke HTTP status di boundary layer
type Kind string

const (
	KindNotFound   Kind = "NotFoundError"
	KindValidation Kind = "ValidationError"
	KindExtraction Kind = "ExtractionError"
	KindAIService  Kind = "AIServiceError"
	KindDatabase   Kind = "DatabaseError"
)

// Error carries a kind, a human message and optional contextual fields.
// Raised at the point of detection, translated exactly once at the
// HTTP boundary.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New buat error baru tanpa cause
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// With adds a contextual detail field and returns the same error.
func (e *Error) With(key string, value any) *Error {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = value
	return e
}

func NotFound(message string) *Error   { return New(KindNotFound, message) }
func Validation(message string) *Error { return New(KindValidation, message) }

func Extraction(message string, cause error) *Error {
	return Wrap(KindExtraction, message, cause)
}

func AIService(message string, cause error) *Error {
	return Wrap(KindAIService, message, cause)
}

func Database(message string, cause error) *Error {
	return Wrap(KindDatabase, message, cause)
}

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool { return KindOf(err) == kind }
