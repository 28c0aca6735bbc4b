package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PostgresStore is an alternative durable backend for deployments that
// already run Postgres and no Mongo. The whole conversation document is one
// JSONB column, replaced on every upsert, so its semantics match MongoStore.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the conversations table when missing. Called once at
// startup.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS conversations (
			conversation_id TEXT PRIMARY KEY,
			doc JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	return err
}

func (p *PostgresStore) UpsertByKey(ctx context.Context, conversationID string, conv Conversation) error {
	doc, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("postgres encode %s: %w", conversationID, err)
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO conversations (conversation_id, doc, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (conversation_id)
		DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()
	`, conversationID, doc)
	if err != nil {
		return fmt.Errorf("postgres upsert %s: %w", conversationID, err)
	}
	return nil
}

func (p *PostgresStore) FindByKey(ctx context.Context, conversationID string) (*Conversation, error) {
	var doc []byte
	err := p.db.QueryRowContext(ctx, `
		SELECT doc FROM conversations WHERE conversation_id = $1
	`, conversationID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres find %s: %w", conversationID, err)
	}
	var conv Conversation
	if err := json.Unmarshal(doc, &conv); err != nil {
		return nil, fmt.Errorf("postgres decode %s: %w", conversationID, err)
	}
	return &conv, nil
}

func (p *PostgresStore) ListConversations(ctx context.Context) ([]Summary, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT doc FROM conversations ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres list: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var conv Conversation
		if err := json.Unmarshal(doc, &conv); err != nil {
			return nil, fmt.Errorf("postgres decode: %w", err)
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
	return out, rows.Err()
}
