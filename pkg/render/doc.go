// Package render turns vdom trees into HTML.
//
// Text and attribute values are escaped, void elements are closed
// HTML5-style, boolean attributes render as bare names, and every bound
// event handler becomes a data-on-<event> marker that the thin client
// uses to decide which DOM events to forward.
//
//	r := render.NewRenderer(render.RendererConfig{})
//	html, err := r.RenderToString(node)
//
// RenderPage wraps a body tree in a complete document; RenderChildren
// renders a mounted root's inner HTML for live refreshes.
package render
