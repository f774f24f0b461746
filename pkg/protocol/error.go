package protocol

// ErrorCode identifies the type of error sent to the client.
type ErrorCode string

const (
	ErrUnknown      ErrorCode = "unknown"
	ErrInvalidFrame ErrorCode = "invalid_frame"
	ErrInvalidEvent ErrorCode = "invalid_event"
	ErrHandlerPanic ErrorCode = "handler_panic"
	ErrRateLimited  ErrorCode = "rate_limited"
	ErrServerError  ErrorCode = "server_error"
)

// Fatal reports whether the client should give up on the connection
// after receiving the code.
func (ec ErrorCode) Fatal() bool {
	return ec == ErrServerError
}
