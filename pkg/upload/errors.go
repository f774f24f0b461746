package upload

import (
	"errors"
	"fmt"
)

var (
	// ErrTooLarge is returned when a file exceeds the size limit.
	ErrTooLarge = errors.New("upload: file too large")

	// ErrUnsupportedType is returned when a file extension is not allowed.
	ErrUnsupportedType = errors.New("upload: unsupported file type")

	// ErrNotFound is returned when a staged file doesn't exist.
	ErrNotFound = errors.New("upload: file not found")
)

// Reason classifies a validation failure.
type Reason string

const (
	ReasonTooLarge        Reason = "too_large"
	ReasonUnsupportedType Reason = "unsupported_type"
)

// ValidationError is a file rejected before any request was sent.
// Message is the user-facing text.
type ValidationError struct {
	File    string
	Reason  Reason
	Message string
	err     error
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return e.err }

// ServerError means the API answered but reported failure. Message is
// the API's error text, shown to the user verbatim.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("upload: server reported failure (status %d): %s", e.StatusCode, e.Message)
}

// TransportError covers network failures, unexpected statuses and
// undecodable responses. Only a generic message reaches the user.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("upload: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
