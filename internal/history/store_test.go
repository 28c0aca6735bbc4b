package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCache struct {
	lists      map[string][]string
	ttls       map[string]time.Duration
	failReads  bool
	failWrites bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{lists: map[string][]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeCache) ReadList(_ context.Context, key string) ([]string, error) {
	if f.failReads {
		return nil, errors.New("cache down")
	}
	return f.lists[key], nil
}

func (f *fakeCache) DeleteKey(_ context.Context, key string) error {
	if f.failWrites {
		return errors.New("cache down")
	}
	delete(f.lists, key)
	delete(f.ttls, key)
	return nil
}

func (f *fakeCache) AppendItem(_ context.Context, key, item string) error {
	if f.failWrites {
		return errors.New("cache down")
	}
	f.lists[key] = append(f.lists[key], item)
	return nil
}

func (f *fakeCache) SetExpiry(_ context.Context, key string, ttl time.Duration) error {
	if f.failWrites {
		return errors.New("cache down")
	}
	f.ttls[key] = ttl
	return nil
}

type fakeDurable struct {
	docs       map[string]Conversation
	upserts    int
	failFind   bool
	failUpsert bool
}

func newFakeDurable() *fakeDurable {
	return &fakeDurable{docs: map[string]Conversation{}}
}

func (f *fakeDurable) UpsertByKey(_ context.Context, id string, conv Conversation) error {
	if f.failUpsert {
		return errors.New("durable down")
	}
	f.upserts++
	f.docs[id] = conv
	return nil
}

func (f *fakeDurable) FindByKey(_ context.Context, id string) (*Conversation, error) {
	if f.failFind {
		return nil, errors.New("durable down")
	}
	conv, ok := f.docs[id]
	if !ok {
		return nil, nil
	}
	return &conv, nil
}

func (f *fakeDurable) ListConversations(_ context.Context) ([]Summary, error) {
	var out []Summary
	for _, conv := range f.docs {
		out = append(out, Summary{
			ConversationID: conv.ConversationID,
			MessageCount:   len(conv.Messages),
		})
	}
	return out, nil
}

func testMessages(n int) []Message {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	msgs := make([]Message, 0, n)
	for i := 0; i < n; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		msgs = append(msgs, Message{
			Role:      role,
			Content:   fmt.Sprintf("message %d", i),
			Timestamp: base.Add(time.Duration(i) * time.Second),
		})
	}
	return msgs
}

func TestAppendThenReadRoundTrip(t *testing.T) {
	cache := newFakeCache()
	durable := newFakeDurable()
	store := NewStore(cache, durable, zap.NewNop())
	ctx := context.Background()

	msgs := testMessages(4)
	store.Append(ctx, "conv_1", "u1", "Customer Support", nil, msgs)

	got := store.Read(ctx, "conv_1")
	require.Len(t, got, 4)
	assert.Equal(t, msgs, got)

	// The durable tier alone must hold the same ordered list.
	conv, err := durable.FindByKey(ctx, "conv_1")
	require.NoError(t, err)
	require.NotNil(t, conv)
	assert.Equal(t, msgs, conv.Messages)
	assert.Equal(t, "u1", conv.UserID)
	assert.Equal(t, "Customer Support", conv.Domain)

	// And the cache alone as well.
	items := cache.lists[cacheKeyPrefix+"conv_1"]
	require.Len(t, items, 4)
	var first Message
	require.NoError(t, json.Unmarshal([]byte(items[0]), &first))
	assert.Equal(t, msgs[0], first)
	assert.Equal(t, cacheTTL, cache.ttls[cacheKeyPrefix+"conv_1"])
}

func TestReadPrefersCache(t *testing.T) {
	cache := newFakeCache()
	durable := newFakeDurable()
	store := NewStore(cache, durable, zap.NewNop())
	ctx := context.Background()

	cached := testMessages(2)
	for _, m := range cached {
		data, _ := json.Marshal(m)
		cache.lists["chat:conv_2"] = append(cache.lists["chat:conv_2"], string(data))
	}
	// Different durable content proves the cache short-circuits.
	durable.docs["conv_2"] = Conversation{ConversationID: "conv_2", Messages: testMessages(6)}

	got := store.Read(ctx, "conv_2")
	assert.Equal(t, cached, got)
}

func TestReadBackfillsCacheOnMiss(t *testing.T) {
	cache := newFakeCache()
	durable := newFakeDurable()
	store := NewStore(cache, durable, zap.NewNop())
	ctx := context.Background()

	msgs := testMessages(12)
	durable.docs["conv_3"] = Conversation{ConversationID: "conv_3", Messages: msgs}

	got := store.Read(ctx, "conv_3")
	require.Len(t, got, 12)
	assert.Equal(t, msgs, got)

	// Only the trailing window lands in the cache.
	items := cache.lists["chat:conv_3"]
	require.Len(t, items, backfillWindow)
	var first Message
	require.NoError(t, json.Unmarshal([]byte(items[0]), &first))
	assert.Equal(t, msgs[12-backfillWindow], first)
	assert.Equal(t, cacheTTL, cache.ttls["chat:conv_3"])
}

func TestReadUnknownConversationIsEmpty(t *testing.T) {
	store := NewStore(newFakeCache(), newFakeDurable(), zap.NewNop())
	assert.Empty(t, store.Read(context.Background(), "nope"))
}

func TestAppendIsIdempotentOnSameMergedList(t *testing.T) {
	cache := newFakeCache()
	durable := newFakeDurable()
	store := NewStore(cache, durable, zap.NewNop())
	ctx := context.Background()

	msgs := testMessages(4)
	store.Append(ctx, "conv_4", "u1", "Finance", msgs[:2], msgs[2:])

	firstDoc := durable.docs["conv_4"].Messages
	firstCache := append([]string(nil), cache.lists["chat:conv_4"]...)

	store.Append(ctx, "conv_4", "u1", "Finance", msgs[:2], msgs[2:])

	assert.Equal(t, firstDoc, durable.docs["conv_4"].Messages)
	assert.Equal(t, firstCache, cache.lists["chat:conv_4"])
	assert.Equal(t, 2, durable.upserts)
}

func TestAppendSurvivesCacheFailure(t *testing.T) {
	cache := newFakeCache()
	cache.failWrites = true
	durable := newFakeDurable()
	store := NewStore(cache, durable, zap.NewNop())
	ctx := context.Background()

	store.Append(ctx, "conv_5", "u1", "Travel", nil, testMessages(2))

	conv, err := durable.FindByKey(ctx, "conv_5")
	require.NoError(t, err)
	require.NotNil(t, conv)
	assert.Len(t, conv.Messages, 2)
}

func TestAppendSurvivesDurableFailure(t *testing.T) {
	durable := newFakeDurable()
	durable.failUpsert = true
	store := NewStore(newFakeCache(), durable, zap.NewNop())

	// Must not panic or propagate; history loss degrades, never crashes.
	store.Append(context.Background(), "conv_6", "u1", "Travel", nil, testMessages(2))
}

func TestReadFallsThroughBrokenCache(t *testing.T) {
	cache := newFakeCache()
	cache.failReads = true
	durable := newFakeDurable()
	msgs := testMessages(3)
	durable.docs["conv_7"] = Conversation{ConversationID: "conv_7", Messages: msgs}
	store := NewStore(cache, durable, zap.NewNop())

	assert.Equal(t, msgs, store.Read(context.Background(), "conv_7"))
}

func TestReadDegradesToEmptyWhenBothTiersFail(t *testing.T) {
	cache := newFakeCache()
	cache.failReads = true
	durable := newFakeDurable()
	durable.failFind = true
	store := NewStore(cache, durable, zap.NewNop())

	assert.Empty(t, store.Read(context.Background(), "conv_8"))
}

func TestStoreWithoutCacheTier(t *testing.T) {
	durable := newFakeDurable()
	store := NewStore(nil, durable, zap.NewNop())
	ctx := context.Background()

	msgs := testMessages(2)
	store.Append(ctx, "conv_9", "u1", "Finance", nil, msgs)
	assert.Equal(t, msgs, store.Read(ctx, "conv_9"))
}

func TestSummary(t *testing.T) {
	durable := newFakeDurable()
	msgs := testMessages(8)
	durable.docs["conv_10"] = Conversation{
		ConversationID: "conv_10",
		UserID:         "u1",
		Domain:         "Travel",
		Messages:       msgs,
	}
	store := NewStore(newFakeCache(), durable, zap.NewNop())

	summary, err := store.Summary(context.Background(), "conv_10")
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, 8, summary.MessageCount)
	require.Len(t, summary.RecentMessages, 5)
	assert.Equal(t, msgs[3], summary.RecentMessages[0])

	missing, err := store.Summary(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
