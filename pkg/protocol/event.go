package protocol

import (
	"errors"
	"fmt"
)

// EventType is a DOM event name.
type EventType string

const (
	EventClick     EventType = "click"
	EventChange    EventType = "change"
	EventSubmit    EventType = "submit"
	EventReset     EventType = "reset"
	EventDragEnter EventType = "dragenter"
	EventDragOver  EventType = "dragover"
	EventDragLeave EventType = "dragleave"
	EventDrop      EventType = "drop"
)

var knownEvents = map[EventType]bool{
	EventClick:     true,
	EventChange:    true,
	EventSubmit:    true,
	EventReset:     true,
	EventDragEnter: true,
	EventDragOver:  true,
	EventDragLeave: true,
	EventDrop:      true,
}

// IsDrag reports whether the event is one of the four drag events.
func (et EventType) IsDrag() bool {
	switch et {
	case EventDragEnter, EventDragOver, EventDragLeave, EventDrop:
		return true
	}
	return false
}

// EndsDrag reports whether the event returns the drop target to idle.
func (et EventType) EndsDrag() bool {
	return et == EventDragLeave || et == EventDrop
}

// Limits on event contents. The number of files is bounded by
// MaxFrameSize only; the page decides how many of them it takes.
const (
	MaxTargetLength = 128
	MaxNameLength   = 1024
)

// Event errors.
var (
	ErrInvalidEventType = errors.New("protocol: invalid event type")
	ErrInvalidTarget    = errors.New("protocol: invalid event target")
	ErrInvalidFiles     = errors.New("protocol: invalid event files")
)

// Event is a DOM event forwarded by the client.
type Event struct {
	Type EventType `json:"type"`

	// Target is the id of the element the handler is bound to.
	Target string `json:"target"`

	// Valid is the form's checkValidity() result on submit, when the
	// form participates in constraint validation.
	Valid *bool `json:"valid,omitempty"`

	// Files lists the files carried by change and drop events.
	Files []FileRef `json:"files,omitempty"`
}

// FileRef describes one picked or dropped file.
type FileRef struct {
	TempID string `json:"temp_id,omitempty"`
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	Type   string `json:"type,omitempty"`
}

// Staged reports whether the file bytes were staged.
func (f FileRef) Staged() bool {
	return f.TempID != ""
}

// FormValid reports the client's validity flag, treating an absent flag
// as valid.
func (e *Event) FormValid() bool {
	return e.Valid == nil || *e.Valid
}

// Validate checks the event against the known types and limits.
func (e *Event) Validate() error {
	if !knownEvents[e.Type] {
		return fmt.Errorf("%w: %q", ErrInvalidEventType, e.Type)
	}
	if e.Target == "" || len(e.Target) > MaxTargetLength {
		return ErrInvalidTarget
	}
	for _, f := range e.Files {
		if f.Name == "" || len(f.Name) > MaxNameLength || f.Size < 0 {
			return fmt.Errorf("%w: %q", ErrInvalidFiles, f.Name)
		}
	}
	return nil
}
