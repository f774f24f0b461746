package errors

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"os"
	"strings"
)

// Category represents the type of error.
type Category string

const (
	CategoryConfig   Category = "config"
	CategoryUpstream Category = "upstream"
	CategoryFile     Category = "file"
	CategoryServer   Category = "server"
	CategoryCLI      Category = "cli"
)

// Location represents a position in a file.
type Location struct {
	File   string
	Line   int
	Column int
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Error is a structured error with an optional location and a hint.
type Error struct {
	// Code is a unique error identifier (e.g., "E101").
	Code string

	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of this occurrence.
	Detail string

	Location *Location

	// Context holds the source lines around Location, the first of
	// which is line ContextStart.
	Context      []string
	ContextStart int

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error returns "CODE: message: detail", leaving out empty parts.
func (e *Error) Error() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{e.Code, e.Message, e.Detail} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error { return e.Wrapped }

// WithLocation points the error at a file position and loads the
// surrounding lines.
func (e *Error) WithLocation(file string, line, column int) *Error {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.ContextStart, e.Context = sourceWindow(file, line, 2)
	return e
}

// WithSuggestion sets the hint printed after the detail.
func (e *Error) WithSuggestion(s string) *Error { e.Suggestion = s; return e }

func (e *Error) WithDetail(d string) *Error { e.Detail = d; return e }

func (e *Error) WithDetailf(format string, args ...any) *Error {
	return e.WithDetail(fmt.Sprintf(format, args...))
}

// Wrap records cause as the error returned by Unwrap.
func (e *Error) Wrap(cause error) *Error { e.Wrapped = cause; return e }

// sourceWindow returns up to radius lines either side of line from
// file, and the number of the first one. It returns nil lines when the
// file cannot be read.
func sourceWindow(file string, line, radius int) (int, []string) {
	f, err := os.Open(file)
	if err != nil {
		return 0, nil
	}
	defer f.Close()

	first := max(line-radius, 1)
	var lines []string
	sc := bufio.NewScanner(f)
	for n := 1; sc.Scan() && n <= line+radius; n++ {
		if n >= first {
			lines = append(lines, sc.Text())
		}
	}
	return first, lines
}

// New creates an Error from a registered error code.
func New(code string) *Error {
	template, ok := registry[code]
	if !ok {
		return &Error{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &Error{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
	}
}

// Newf creates a new Error with a formatted message (no code).
func Newf(category Category, format string, args ...any) *Error {
	return &Error{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps err in an Error with the given code unless it already
// is one.
func FromError(err error, code string) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}
	return New(code).Wrap(err).WithDetail(err.Error())
}
