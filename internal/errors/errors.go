package errors

import (
	stderrors "errors"
	"fmt"
)

// Type classifies a failure so the API boundary can map it to a status code
// without inspecting message text.
type Type string

const (
	// TypeInvalidInput marks requests missing a required field or carrying a
	// semantically invalid one. Client error, never retried.
	TypeInvalidInput Type = "invalid_input"
	// TypeImageDecode marks payloads that cannot be decoded as an image.
	TypeImageDecode Type = "image_decode"
	// TypeIndex marks failures of the similarity index backend.
	TypeIndex Type = "index_unavailable"
	// TypeNetwork marks failures fetching an image by URL.
	TypeNetwork Type = "network"
)

// Error carries the failure class, the operation that raised it and an
// optional cause.
type Error struct {
	Type    Type
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s: %v", e.Type, e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Op, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a classified error.
func New(t Type, op, message string) *Error {
	return &Error{Type: t, Op: op, Message: message}
}

// Wrap attaches a class and operation to an existing error. Returns nil for a
// nil cause so call sites can wrap unconditionally.
func Wrap(err error, t Type, op, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Type: t, Op: op, Message: message, Cause: err}
}

// NewInvalidInput creates an invalid-input error.
func NewInvalidInput(op, message string) *Error {
	return New(TypeInvalidInput, op, message)
}

// NewImageDecode creates an image-decode error.
func NewImageDecode(op, message string) *Error {
	return New(TypeImageDecode, op, message)
}

// IsType reports whether err or anything it wraps carries the given class.
func IsType(err error, t Type) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// IsInvalidInput reports whether err is an invalid-input failure.
func IsInvalidInput(err error) bool { return IsType(err, TypeInvalidInput) }

// IsImageDecode reports whether err is an image-decode failure.
func IsImageDecode(err error) bool { return IsType(err, TypeImageDecode) }

// IsClientError reports whether err should surface as a 4xx to the caller.
func IsClientError(err error) bool {
	return IsInvalidInput(err) || IsImageDecode(err)
}

// UserMessage returns the descriptive message of a classified error, or the
// full error text for anything else.
func UserMessage(err error) string {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
