// Package session drives a client conversation with a Perforce-style server.
//
// A Session is created over an already-connected stream. The first Call
// sends the protocol handshake and a probe command; when the probe fails
// the session runs an internal login before the caller's command. Each
// command then runs a request/response loop until the server sends
// release, dispatching server callbacks either to a fixed set of built-in
// handlers or to the caller's Handler.
//
// Calls on one Session are serialized. The session never retries and never
// reconnects: callers decide what to do after an error.
package session
