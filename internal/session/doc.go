// Package session runs one upload page per WebSocket connection.
//
// A Session owns a document and the controller bound to it. The read
// loop decodes JSON frames and dispatches each event on its own
// goroutine; the controller serializes access to the document. Every
// change requests a render, and the write loop coalesces pending
// requests into a single render frame carrying the mount's inner HTML.
//
// The Manager upgrades HTTP requests, enforces the session limit and
// shuts sessions down with the server.
package session
