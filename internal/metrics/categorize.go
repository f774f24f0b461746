package metrics

import (
	"context"
	"errors"
	"strings"

	"github.com/aiton-rag/uploadui/pkg/upload"
)

// CategorizeError maps an error to a low-cardinality label.
func CategorizeError(err error) string {
	var (
		validationErr *upload.ValidationError
		serverErr     *upload.ServerError
		transportErr  *upload.TransportError
	)
	switch {
	case errors.As(err, &validationErr):
		return "validation"
	case errors.As(err, &serverErr):
		return "server"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &transportErr):
		return "transport"
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"):
		return "timeout"
	case strings.Contains(msg, "rate limit"):
		return "rate_limit"
	case strings.Contains(msg, "not found"):
		return "not_found"
	case strings.Contains(msg, "panic"):
		return "panic"
	case strings.Contains(msg, "websocket"):
		return "websocket"
	default:
		return "internal"
	}
}
