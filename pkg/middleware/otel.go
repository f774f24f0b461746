package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aiton-rag/uploadui/pkg/protocol"
)

const tracerName = "github.com/aiton-rag/uploadui"

type otelSettings struct {
	provider  trace.TracerProvider
	fileNames bool
	filter    func(*protocol.Event) bool
}

// OTelOption customizes OpenTelemetry.
type OTelOption func(*otelSettings)

// WithTracerProvider replaces the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(s *otelSettings) { s.provider = tp }
}

// WithIncludeFileNames records the names of attached files on the span.
// Off by default since names can be sensitive.
func WithIncludeFileNames(include bool) OTelOption {
	return func(s *otelSettings) { s.fileNames = include }
}

// WithEventFilter limits tracing to events for which keep returns true.
func WithEventFilter(keep func(*protocol.Event) bool) OTelOption {
	return func(s *otelSettings) { s.filter = keep }
}

// OpenTelemetry wraps each event in a server span named
// "uploadui.<event type>".
func OpenTelemetry(opts ...OTelOption) Middleware {
	s := otelSettings{provider: otel.GetTracerProvider()}
	for _, opt := range opts {
		opt(&s)
	}
	if s.provider == nil {
		s.provider = otel.GetTracerProvider()
	}
	tracer := s.provider.Tracer(tracerName)

	return func(next Handler) Handler {
		return func(ctx context.Context, e *protocol.Event) error {
			if s.filter != nil && !s.filter(e) {
				return next(ctx, e)
			}

			ctx, span := tracer.Start(ctx, "uploadui."+string(e.Type),
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(s.eventAttributes(ctx, e)...))
			defer span.End()

			if err := next(ctx, e); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return err
			}
			span.SetStatus(codes.Ok, "")
			return nil
		}
	}
}

func (s *otelSettings) eventAttributes(ctx context.Context, e *protocol.Event) []attribute.KeyValue {
	kv := []attribute.KeyValue{
		attribute.String("uploadui.event_type", string(e.Type)),
		attribute.String("uploadui.event_target", e.Target),
		attribute.Int("uploadui.file_count", len(e.Files)),
	}
	if id := SessionID(ctx); id != "" {
		kv = append(kv, attribute.String("uploadui.session_id", id))
	}
	if s.fileNames && len(e.Files) > 0 {
		names := make([]string, 0, len(e.Files))
		for _, f := range e.Files {
			names = append(names, f.Name)
		}
		kv = append(kv, attribute.StringSlice("uploadui.file_names", names))
	}
	return kv
}
