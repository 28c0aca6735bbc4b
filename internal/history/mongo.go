package history

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const conversationsCollection = "conversations"

// MongoStore is the default durable backend: one document per conversation
// in the conversations collection, keyed by conversation_id.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(conversationsCollection)}
}

func (m *MongoStore) UpsertByKey(ctx context.Context, conversationID string, conv Conversation) error {
	_, err := m.coll.UpdateOne(ctx,
		bson.M{"conversation_id": conversationID},
		bson.M{"$set": conv},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongo upsert %s: %w", conversationID, err)
	}
	return nil
}

func (m *MongoStore) FindByKey(ctx context.Context, conversationID string) (*Conversation, error) {
	var conv Conversation
	err := m.coll.FindOne(ctx, bson.M{"conversation_id": conversationID}).Decode(&conv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongo find %s: %w", conversationID, err)
	}
	return &conv, nil
}

func (m *MongoStore) ListConversations(ctx context.Context) ([]Summary, error) {
	cur, err := m.coll.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo list: %w", err)
	}
	defer cur.Close(ctx)

	var out []Summary
	for cur.Next(ctx) {
		var conv Conversation
		if err := cur.Decode(&conv); err != nil {
			return nil, fmt.Errorf("mongo decode: %w", err)
		}
		out = append(out, Summary{
			ConversationID: conv.ConversationID,
			UserID:         conv.UserID,
			Domain:         conv.Domain,
			MessageCount:   len(conv.Messages),
			CreatedAt:      conv.CreatedAt,
			UpdatedAt:      conv.UpdatedAt,
		})
	}
	return out, cur.Err()
}
