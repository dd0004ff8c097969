// Package bridge connects the dispatcher to the browser over a WebSocket.
//
// The server owns the hydration state; the thin client owns the primitives
// the triggers need (event listeners, intersection observers, media queries,
// idle callbacks). A Conn implements strategy.Host by asking the client to
// register each primitive and waiting for it to report back.
//
// Frames are JSON objects keyed by "op".
//
// Server to client:
//
//	{"op":"listen","id":1,"root":"h3","events":["mouseover"]}
//	{"op":"observe","id":2,"root":"h3","rootMargin":"200px","threshold":[0.5]}
//	{"op":"media","id":3,"query":"(min-width: 768px)"}
//	{"op":"idle","id":4,"timeout":500}
//	{"op":"cancel","id":1}
//
// Client to server:
//
//	{"op":"fire","id":1,"event":"mouseover"}
//	{"op":"activate","instance":"<instance id>"}
//
// A registration fires at most once; the client may drop it after sending
// fire. Activations are routed to instances registered through Track.
package bridge
