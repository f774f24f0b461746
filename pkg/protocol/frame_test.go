package protocol

import (
	"errors"
	"strings"
	"testing"
)

func TestDecodeFrame_Event(t *testing.T) {
	data := []byte(`{"type":"event","event":{"type":"drop","target":"dropZone","files":[
		{"temp_id":"abc","name":"report.pdf","size":2097152,"type":"application/pdf"},
		{"name":"huge.pdf","size":99999999}]}}`)

	f, err := DecodeFrame(data)
	if err != nil {
		t.Fatalf("DecodeFrame() error = %v", err)
	}
	if f.Type != FrameEvent || f.Event == nil {
		t.Fatalf("frame = %+v", f)
	}
	e := f.Event
	if e.Type != EventDrop || e.Target != "dropZone" {
		t.Errorf("event = %+v", e)
	}
	if len(e.Files) != 2 {
		t.Fatalf("files = %d, want 2", len(e.Files))
	}
	if !e.Files[0].Staged() || e.Files[1].Staged() {
		t.Errorf("staged flags wrong: %+v", e.Files)
	}
	if !e.FormValid() {
		t.Error("absent valid flag should count as valid")
	}
}

func TestDecodeFrame_Ping(t *testing.T) {
	f, err := DecodeFrame([]byte(`{"type":"ping","ts":42}`))
	if err != nil {
		t.Fatal(err)
	}
	if f.Type != FramePing || f.TS != 42 {
		t.Errorf("frame = %+v", f)
	}
}

func TestDecodeFrame_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"unknown type", `{"type":"patch"}`, ErrInvalidFrameType},
		{"event missing", `{"type":"event"}`, ErrMissingEvent},
		{"bad event type", `{"type":"event","event":{"type":"keydown","target":"file"}}`, ErrInvalidEventType},
		{"no target", `{"type":"event","event":{"type":"click","target":""}}`, ErrInvalidTarget},
		{"negative size", `{"type":"event","event":{"type":"drop","target":"dropZone","files":[{"name":"a","size":-1}]}}`, ErrInvalidFiles},
		{"nameless file", `{"type":"event","event":{"type":"drop","target":"dropZone","files":[{"size":1}]}}`, ErrInvalidFiles},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeFrame([]byte(tc.data))
			if !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}

	if _, err := DecodeFrame([]byte(`{not json`)); err == nil {
		t.Error("expected error for malformed JSON")
	}
	big := `{"type":"ping","pad":"` + strings.Repeat("x", MaxFrameSize) + `"}`
	if _, err := DecodeFrame([]byte(big)); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("err = %v, want ErrFrameTooLarge", err)
	}
}

func TestEvent_LargeDropStillValid(t *testing.T) {
	e := &Event{Type: EventDrop, Target: "dropZone"}
	for i := 0; i < 200; i++ {
		e.Files = append(e.Files, FileRef{Name: "a.txt", Size: 1})
	}
	if err := e.Validate(); err != nil {
		t.Errorf("Validate() = %v for a 200-file drop", err)
	}
}

func TestEventType_EndsDrag(t *testing.T) {
	for et, want := range map[EventType]bool{
		EventDragEnter: false,
		EventDragOver:  false,
		EventDragLeave: true,
		EventDrop:      true,
		EventClick:     false,
	} {
		if got := et.EndsDrag(); got != want {
			t.Errorf("%s.EndsDrag() = %v, want %v", et, got, want)
		}
	}
}

func TestEvent_FormValid(t *testing.T) {
	no := false
	e := &Event{Type: EventSubmit, Target: "uploadForm", Valid: &no}
	if e.FormValid() {
		t.Error("FormValid() = true, want false")
	}
}

func TestEventType_IsDrag(t *testing.T) {
	for _, et := range []EventType{EventDragEnter, EventDragOver, EventDragLeave, EventDrop} {
		if !et.IsDrag() {
			t.Errorf("%s.IsDrag() = false", et)
		}
	}
	if EventClick.IsDrag() {
		t.Error("click is not a drag event")
	}
}

func TestFrame_Encode(t *testing.T) {
	tests := []struct {
		name  string
		frame *Frame
		want  string
	}{
		{"render", NewRender(3, `<p class="x">hi</p>`), `{"type":"render","seq":3,"html":"<p class=\"x\">hi</p>"}`},
		{"pong", NewPong(42), `{"type":"pong","ts":42}`},
		{"error", NewError(ErrInvalidEvent, "bad"), `{"type":"error","code":"invalid_event","message":"bad"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.frame.Encode()
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != tc.want {
				t.Errorf("Encode() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestErrorCode_Fatal(t *testing.T) {
	if !ErrServerError.Fatal() {
		t.Error("server_error should be fatal")
	}
	if ErrInvalidEvent.Fatal() || ErrRateLimited.Fatal() {
		t.Error("recoverable codes reported fatal")
	}
}
