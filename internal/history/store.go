package history

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

const (
	cacheKeyPrefix = "chat:"
	cacheTTL       = 24 * time.Hour

	// backfillWindow is how many trailing messages a cache-miss read copies
	// back into the cache.
	backfillWindow = 10
)

// Store glues the cache and durable tiers behind one read/write contract.
// It never returns an error: storage trouble degrades to empty or partial
// history, which costs context quality but must not fail the request.
type Store struct {
	cache   Cache
	durable Durable
	log     *zap.Logger
}

func NewStore(cache Cache, durable Durable, log *zap.Logger) *Store {
	return &Store{cache: cache, durable: durable, log: log}
}

// Read returns the messages of a conversation, cache first. On a cache miss
// it reads the durable tier and backfills the cache with the trailing
// backfillWindow messages before returning the full set.
func (s *Store) Read(ctx context.Context, conversationID string) []Message {
	key := cacheKeyPrefix + conversationID

	if s.cache != nil {
		items, err := s.cache.ReadList(ctx, key)
		if err != nil {
			s.log.Warn("cache read failed",
				zap.String("conversation_id", conversationID), zap.Error(err))
		} else if len(items) > 0 {
			if msgs := decodeMessages(items, s.log); len(msgs) > 0 {
				return msgs
			}
		}
	}

	conv, err := s.durable.FindByKey(ctx, conversationID)
	if err != nil {
		s.log.Warn("durable read failed",
			zap.String("conversation_id", conversationID), zap.Error(err))
		return nil
	}
	if conv == nil || len(conv.Messages) == 0 {
		return nil
	}

	tail := conv.Messages
	if len(tail) > backfillWindow {
		tail = tail[len(tail)-backfillWindow:]
	}
	s.rewriteCache(ctx, conversationID, tail)

	return conv.Messages
}

// Append persists the merged message list: a full-document upsert on the
// durable tier first, then a best-effort rewrite of the cached list. Cache
// failures never fail the append.
func (s *Store) Append(ctx context.Context, conversationID, userID, domain string, previous, fresh []Message) {
	merged := make([]Message, 0, len(previous)+len(fresh))
	merged = append(merged, previous...)
	merged = append(merged, fresh...)

	now := time.Now().UTC()
	conv := Conversation{
		ConversationID: conversationID,
		UserID:         userID,
		Domain:         domain,
		Messages:       merged,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.durable.UpsertByKey(ctx, conversationID, conv); err != nil {
		s.log.Error("durable write failed",
			zap.String("conversation_id", conversationID),
			zap.Int("messages", len(merged)), zap.Error(err))
	}

	s.rewriteCache(ctx, conversationID, merged)
}

// Summary returns metadata and the last five messages of a conversation, or
// nil when it does not exist.
func (s *Store) Summary(ctx context.Context, conversationID string) (*Summary, error) {
	conv, err := s.durable.FindByKey(ctx, conversationID)
	if err != nil || conv == nil {
		return nil, err
	}
	recent := conv.Messages
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	return &Summary{
		ConversationID: conv.ConversationID,
		UserID:         conv.UserID,
		Domain:         conv.Domain,
		MessageCount:   len(conv.Messages),
		CreatedAt:      conv.CreatedAt,
		UpdatedAt:      conv.UpdatedAt,
		RecentMessages: recent,
	}, nil
}

// List returns summaries for every stored conversation, newest first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	return s.durable.ListConversations(ctx)
}

func (s *Store) rewriteCache(ctx context.Context, conversationID string, msgs []Message) {
	if s.cache == nil {
		return
	}
	key := cacheKeyPrefix + conversationID

	if err := s.cache.DeleteKey(ctx, key); err != nil {
		s.log.Warn("cache delete failed", zap.String("key", key), zap.Error(err))
		return
	}
	for _, m := range msgs {
		data, err := json.Marshal(m)
		if err != nil {
			s.log.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
			return
		}
		if err := s.cache.AppendItem(ctx, key, string(data)); err != nil {
			s.log.Warn("cache push failed", zap.String("key", key), zap.Error(err))
			return
		}
	}
	if err := s.cache.SetExpiry(ctx, key, cacheTTL); err != nil {
		s.log.Warn("cache expiry failed", zap.String("key", key), zap.Error(err))
	}
}

func decodeMessages(items []string, log *zap.Logger) []Message {
	msgs := make([]Message, 0, len(items))
	for _, item := range items {
		var m Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			log.Warn("cached message is not valid json", zap.Error(err))
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs
}
