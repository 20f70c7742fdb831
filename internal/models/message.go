// Package models defines the shared data types flowing through the
// generation pipeline.
package models

import "time"

// Message is a single inbound chat message. Immutable once created;
// the pipeline reads it but never modifies it.
type Message struct {
	Text      string    `json:"text"`
	SenderID  string    `json:"sender_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Anonymous reports whether the message carries no sender identity.
// Anonymous exchanges are never persisted to conversation memory.
func (m Message) Anonymous() bool {
	return m.SenderID == ""
}

// SenderHistory summarizes what is known about a sender at scoring time.
// It is recomputed per request and never persisted by the pipeline itself.
type SenderHistory struct {
	MessageCount     int `json:"message_count"`
	SecondsSinceLast int `json:"seconds_since_last"`
}
