// Package chat defines the chat message type carried by the chat bus, a
// bus.Bus[chat.Message] — the same generic fan-out primitive the PCM bus
// uses.
package chat

import "time"

// Message is one chat line, broadcast to every connected listener's
// chat_stream subscription.
type Message struct {
	ListenerID uint64    `json:"listenerId"`
	Nickname   string    `json:"nickname"`
	Text       string    `json:"text"`
	SentAt     time.Time `json:"sentAt"`
}
