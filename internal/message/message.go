// Package message defines the transport-neutral values exchanged between
// channel adapters and the engine.
package message

// Message is one inbound event from a channel adapter. Adapters translate
// their transport's native payloads into this shape before calling the
// engine; the engine never sees transport types.
type Message struct {
	UserID   string
	Channel  string
	Text     string
	Metadata map[string]string
}

// Response is what the engine hands back to an adapter. An ephemeral
// response is meant only for the original caller's context and must never
// be broadcast.
type Response struct {
	Text      string
	Ephemeral bool
}
