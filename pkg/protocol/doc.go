// Package protocol defines the JSON frames exchanged between the thin
// browser client and the server over a WebSocket.
//
// # Frames
//
// Every frame is a JSON object with a "type" discriminator:
//
//	client → server
//	  {"type":"event","event":{"type":"drop","target":"dropZone","files":[...]}}
//	  {"type":"ping","ts":1700000000000}
//
//	server → client
//	  {"type":"render","seq":3,"html":"<div class=\"container\">..."}
//	  {"type":"pong","ts":1700000000000}
//	  {"type":"error","code":"invalid_event","message":"..."}
//
// Render frames carry the full inner HTML of the application root. Seq
// increases by one per render so the client can drop stale frames.
//
// # Files
//
// DOM events cannot carry file bytes. The client stages each file first
// and the event lists FileRefs: the staging temp ID plus the browser's
// name, size and type. A FileRef without a temp ID was not staged
// (typically because it is over the size limit).
package protocol
