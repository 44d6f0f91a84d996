/*
Package chat maintains the guild chat realtime channel and its message log.

This file defines the wire frame exchanged over the streaming connection and
the internal Message type it is decoded into. The wire shape stops at this
boundary.
*/
package chat

import "time"

// frame is the JSON payload carried in one streaming frame, inbound or outbound.
type frame struct {
	User    string `json:"user"`
	Message string `json:"message"`

	// Timestamp is the sender's claimed send time. It is decoded for wire
	// fidelity but never trusted for ordering; the log stamps receipt time.
	Timestamp string `json:"timestamp,omitempty"`
}

// Message is a single guild chat utterance in the append-only log.
type Message struct {
	// Seq is the client-local sequence identifier. It distinguishes messages
	// for rendering and reflects arrival order; it is not globally unique.
	Seq uint64

	// Author is the sender's display name.
	Author string

	// Body is the utterance text.
	Body string

	// ReceivedAt is the client-observed receipt time.
	ReceivedAt time.Time
}
