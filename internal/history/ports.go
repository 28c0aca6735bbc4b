// Package history is the two-tier conversation store: a TTL-bound cache in
// front of a durable document store. The durable tier is the source of truth;
// the cache only ever holds a copy of what was already written durably.
package history

import (
	"context"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role      Role      `json:"role" bson:"role"`
	Content   string    `json:"content" bson:"content"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

type Conversation struct {
	ConversationID string    `json:"conversation_id" bson:"conversation_id"`
	UserID         string    `json:"user_id" bson:"user_id"`
	Domain         string    `json:"domain" bson:"domain"`
	Messages       []Message `json:"messages" bson:"messages"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at"`
}

// Summary is the admin view of a conversation: metadata plus the tail.
type Summary struct {
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	Domain         string    `json:"domain"`
	MessageCount   int       `json:"message_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	RecentMessages []Message `json:"recent_messages,omitempty"`
}

// Cache is the low-latency tier. Every operation is best-effort; failures
// are logged by the Store and never surfaced to callers.
type Cache interface {
	ReadList(ctx context.Context, key string) ([]string, error)
	DeleteKey(ctx context.Context, key string) error
	AppendItem(ctx context.Context, key, item string) error
	SetExpiry(ctx context.Context, key string, ttl time.Duration) error
}

// Durable is the authoritative tier. UpsertByKey replaces the whole document
// (last write wins); FindByKey returns nil, nil for unknown ids.
type Durable interface {
	UpsertByKey(ctx context.Context, conversationID string, conv Conversation) error
	FindByKey(ctx context.Context, conversationID string) (*Conversation, error)
	ListConversations(ctx context.Context) ([]Summary, error)
}
