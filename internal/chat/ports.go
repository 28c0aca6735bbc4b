package chat

import (
	"context"

	"supportbot/internal/history"
	"supportbot/internal/knowledge"
)

// Query is one inbound question. ConversationID is optional; when absent one
// is synthesized.
type Query struct {
	UserID         string `json:"user_id"`
	Domain         string `json:"domain"`
	Question       string `json:"question"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// Answer is the structured result every Answer call resolves to, whatever
// failed along the way.
type Answer struct {
	Answer         string `json:"answer"`
	ConversationID string `json:"conversation_id"`
	Domain         string `json:"domain"`
	Timestamp      string `json:"timestamp"`
}

// Service is the only entry point the core exposes to the routing layer.
// It never returns an error; failures degrade into the answer text.
type Service interface {
	Answer(ctx context.Context, q Query) Answer
}

// Generator is the resilient model call; always returns non-empty text.
type Generator interface {
	Generate(ctx context.Context, prompt string, temperature float32) string
}

// Matcher ranks the knowledge corpus for grounding material.
type Matcher interface {
	BestMatch(domain, query string) (string, bool)
	TopK(domain, query string, k int) []knowledge.Scored
	Entries(domain string) []knowledge.Entry
}

// History is the conversation store. Read and Append never fail; the admin
// reads may.
type History interface {
	Read(ctx context.Context, conversationID string) []history.Message
	Append(ctx context.Context, conversationID, userID, domain string, previous, fresh []history.Message)
	Summary(ctx context.Context, conversationID string) (*history.Summary, error)
	List(ctx context.Context) ([]history.Summary, error)
}
