package models

import "time"

// KnowledgeFact is one long-term fact retrieved from a knowledge backend.
// Relevance is the similarity score of the retrieval, in [0,1]; it ranks
// results and is not an identity.
type KnowledgeFact struct {
	Topic     string  `json:"topic"`
	Content   string  `json:"content"`
	Relevance float64 `json:"relevance"`
}

// ConversationMemory is one remembered exchange with a sender, retrieved
// by similarity against the current message. Records are append-only.
type ConversationMemory struct {
	SenderID      string  `json:"sender_id"`
	PriorMessage  string  `json:"prior_message"`
	PriorResponse string  `json:"prior_response"`
	Relevance     float64 `json:"relevance"`
}

// Exchange is one completed message/response pair queued for persistence.
type Exchange struct {
	SenderID  string    `json:"sender_id"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	Mood      MoodTag   `json:"mood"`
	Timestamp time.Time `json:"timestamp"`
}

// GenerationRequest is the ephemeral composite handed to the inference
// layer. It exists only for the duration of one pipeline run; Prompt is
// the fully rendered template.
type GenerationRequest struct {
	Prompt  string
	Facts   []KnowledgeFact
	History []ConversationMemory
	Message Message
}
