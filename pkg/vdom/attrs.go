package vdom

import "strings"

// A returns an arbitrary attribute.
func A(key string, value any) Attr { return Attr{Key: key, Value: value} }

func flag(key string) Attr { return Attr{Key: key, Value: true} }

// IsEmpty reports whether the attribute has no name; such attributes
// are ignored.
func (a Attr) IsEmpty() bool { return a.Key == "" }

func ID(id string) Attr               { return A("id", id) }
func Class(classes ...string) Attr    { return A("class", strings.Join(classes, " ")) }
func Data(name, value string) Attr    { return A("data-"+name, value) }
func Role(role string) Attr           { return A("role", role) }
func AriaLabel(label string) Attr     { return A("aria-label", label) }
func AriaHidden(hidden bool) Attr     { return A("aria-hidden", hidden) }
func AriaLive(politeness string) Attr { return A("aria-live", politeness) }
func TitleAttr(title string) Attr     { return A("title", title) }
func For(id string) Attr              { return A("for", id) }
func Name(name string) Attr           { return A("name", name) }
func Type(t string) Attr              { return A("type", t) }
func Accept(list string) Attr         { return A("accept", list) }

func Hidden() Attr     { return flag("hidden") }
func Disabled() Attr   { return flag("disabled") }
func Multiple() Attr   { return flag("multiple") }
func Novalidate() Attr { return flag("novalidate") }
