// Package middleware wraps the handling of DOM events received over a
// session's WebSocket.
//
// A Handler processes one decoded event. Middleware decorates it:
//
//	h := middleware.Chain(ctrl.Dispatch,
//	    middleware.Recover(logger),
//	    middleware.OpenTelemetry(),
//	    middleware.Prometheus(m),
//	    middleware.Logging(logger),
//	)
//
// The first middleware is the outermost. Recover turns handler panics
// into *PanicError so the session can report them to the client and keep
// running.
//
// # Context
//
// The session stores its ID in the event context with WithSessionID.
// OpenTelemetry records it as the uploadui.session_id span attribute and
// passes the span context down, so the upload client's outgoing request
// carries the trace headers.
package middleware
