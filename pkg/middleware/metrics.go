package middleware

import (
	"context"
	"time"

	"github.com/aiton-rag/uploadui/pkg/protocol"
)

// EventObserver receives the outcome of every event.
// *metrics.Metrics implements it.
type EventObserver interface {
	ObserveEvent(eventType string, d time.Duration, err error)
}

// Prometheus reports event counts, durations and errors to obs.
func Prometheus(obs EventObserver) Middleware {
	return func(next Handler) Handler {
		if obs == nil {
			return next
		}
		return func(ctx context.Context, e *protocol.Event) error {
			start := time.Now()
			err := next(ctx, e)
			obs.ObserveEvent(string(e.Type), time.Since(start), err)
			return err
		}
	}
}
