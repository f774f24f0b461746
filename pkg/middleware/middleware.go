package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/aiton-rag/uploadui/pkg/protocol"
)

// Handler processes one event.
type Handler func(ctx context.Context, e *protocol.Event) error

// Middleware decorates a Handler.
type Middleware func(next Handler) Handler

// Chain wraps h so that mws[0] runs first.
func Chain(h Handler, mws ...Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			h = mws[i](h)
		}
	}
	return h
}

type sessionIDKey struct{}

// WithSessionID returns a context carrying the session ID.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, id)
}

// SessionID returns the session ID stored in ctx, or "".
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey{}).(string)
	return id
}

// PanicError is returned by Recover when the handler panicked.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("handler panic: %v", e.Value)
}

// Recover converts a panic in the wrapped handler into a *PanicError.
func Recover(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Handler) Handler {
		return func(ctx context.Context, e *protocol.Event) (err error) {
			defer func() {
				if r := recover(); r != nil {
					stack := debug.Stack()
					logger.Error("event handler panic",
						"session_id", SessionID(ctx),
						"event", e.Type,
						"target", e.Target,
						"panic", r,
						"stack", string(stack))
					err = &PanicError{Value: r, Stack: stack}
				}
			}()
			return next(ctx, e)
		}
	}
}

// Logging logs every event at debug level and failures at warn level.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Handler) Handler {
		return func(ctx context.Context, e *protocol.Event) error {
			start := time.Now()
			err := next(ctx, e)
			attrs := []any{
				"session_id", SessionID(ctx),
				"event", e.Type,
				"target", e.Target,
				"files", len(e.Files),
				"duration", time.Since(start),
			}
			if err != nil {
				logger.Warn("event failed", append(attrs, "error", err)...)
				return err
			}
			logger.Debug("event handled", attrs...)
			return nil
		}
	}
}
