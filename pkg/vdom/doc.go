// Package vdom provides the virtual DOM the upload page is built from.
//
// The tree lives on the server. Event handlers are bound to element nodes
// the same way a browser script calls addEventListener, and the tree is
// mutated in place (class list, text, attributes, children) before being
// rendered to HTML for the thin client.
//
// # Element API
//
// Elements are created using variadic factory functions:
//
//	Div(Class("card"), ID("dropZone"),
//	    H5(Text("Drop files here")),
//	    OnDrop(handler),
//	)
//
// # DOM operations
//
// GetElementByID, QueryByClass and QueryByAttr locate nodes; AddClass,
// RemoveClass, SetText, SetAttr, AppendChild, PrependChild and Remove
// mutate them. None of these are safe for concurrent use; callers that
// share a tree across goroutines serialize access themselves.
package vdom
