package vdom

// DOM event names understood by the thin client.
const (
	EventClick     = "click"
	EventChange    = "change"
	EventSubmit    = "submit"
	EventReset     = "reset"
	EventDragEnter = "dragenter"
	EventDragOver  = "dragover"
	EventDragLeave = "dragleave"
	EventDrop      = "drop"
)

// DragEvents lists the drag-and-drop events in dispatch order.
var DragEvents = []string{EventDragEnter, EventDragOver, EventDragLeave, EventDrop}

// On binds handler to the named event, e.g. On("drop", fn).
func On(name string, handler any) EventHandler {
	return EventHandler{Event: "on" + name, Handler: handler}
}

func OnClick(handler any) EventHandler     { return On(EventClick, handler) }
func OnChange(handler any) EventHandler    { return On(EventChange, handler) }
func OnSubmit(handler any) EventHandler    { return On(EventSubmit, handler) }
func OnDragEnter(handler any) EventHandler { return On(EventDragEnter, handler) }
func OnDrop(handler any) EventHandler      { return On(EventDrop, handler) }
