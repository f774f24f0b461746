package vdom

import "strings"

// VKind tells element, text, fragment and raw HTML nodes apart.
type VKind uint8

const (
	KindElement VKind = iota
	KindText
	KindFragment
	KindRaw
)

var kindNames = [...]string{"Element", "Text", "Fragment", "Raw"}

func (k VKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// VNode is one node of the server-side document.
type VNode struct {
	Kind     VKind
	Tag      string
	Props    Props
	Children []*VNode

	// Text holds the content of text and raw nodes.
	Text string
}

// Props maps attribute names to values. Keys starting with "on" hold
// event handlers.
type Props map[string]any

// Attr is an attribute argument to an element constructor.
type Attr struct {
	Key   string
	Value any
}

// EventHandler is a handler argument to an element constructor. Event
// is the prop name, e.g. "ondrop".
type EventHandler struct {
	Event   string
	Handler any
}

// IsInteractive reports whether any handler is bound to the element.
func (v *VNode) IsInteractive() bool {
	if v == nil || v.Kind != KindElement {
		return false
	}
	for key, value := range v.Props {
		if value != nil && strings.HasPrefix(key, "on") {
			return true
		}
	}
	return false
}
