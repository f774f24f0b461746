package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// MaxFrameSize bounds an incoming frame. Events carry metadata only, so
// anything larger is malformed or hostile.
const MaxFrameSize = 64 << 10

// FrameType identifies the type of frame.
type FrameType string

const (
	FrameEvent  FrameType = "event"  // Client → Server DOM event
	FramePing   FrameType = "ping"   // Client → Server heartbeat
	FrameRender FrameType = "render" // Server → Client document render
	FramePong   FrameType = "pong"   // Server → Client heartbeat reply
	FrameError  FrameType = "error"  // Server → Client error
)

// Frame errors.
var (
	ErrFrameTooLarge    = errors.New("protocol: frame too large")
	ErrInvalidFrameType = errors.New("protocol: invalid frame type")
	ErrMissingEvent     = errors.New("protocol: event frame without event")
)

// Frame is the envelope of every message. Only the fields relevant to
// Type are set.
type Frame struct {
	Type FrameType `json:"type"`

	// Event frames.
	Event *Event `json:"event,omitempty"`

	// Render frames.
	Seq  uint64 `json:"seq,omitempty"`
	HTML string `json:"html,omitempty"`

	// Ping and pong frames. Pong echoes the ping's timestamp.
	TS int64 `json:"ts,omitempty"`

	// Error frames.
	Code    ErrorCode `json:"code,omitempty"`
	Message string    `json:"message,omitempty"`
}

// NewRender returns a render frame.
func NewRender(seq uint64, html string) *Frame {
	return &Frame{Type: FrameRender, Seq: seq, HTML: html}
}

// NewPong answers a ping carrying ts.
func NewPong(ts int64) *Frame {
	return &Frame{Type: FramePong, TS: ts}
}

// NewError returns an error frame.
func NewError(code ErrorCode, message string) *Frame {
	return &Frame{Type: FrameError, Code: code, Message: message}
}

// NewEventFrame wraps e in an event frame.
func NewEventFrame(e *Event) *Frame {
	return &Frame{Type: FrameEvent, Event: e}
}

// Encode marshals the frame without HTML escaping, keeping render
// payloads readable on the wire.
func (f *Frame) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(f); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// DecodeFrame parses and validates a frame.
func DecodeFrame(data []byte) (*Frame, error) {
	if len(data) > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("protocol: decode frame: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks the frame type and, for events, the event itself.
func (f *Frame) Validate() error {
	switch f.Type {
	case FrameEvent:
		if f.Event == nil {
			return ErrMissingEvent
		}
		return f.Event.Validate()
	case FramePing, FramePong, FrameRender, FrameError:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFrameType, f.Type)
	}
}
