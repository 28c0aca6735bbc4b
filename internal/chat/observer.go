package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Event is the per-answer observability document.
type Event struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
	Domain         string `json:"domain"`
	Question       string `json:"question"`
	Answer         string `json:"answer"`
	LatencyMs      int64  `json:"latencyMs"`
	Timestamp      string `json:"timestamp"`
}

// Observer posts one JSON document per answered question to an external
// logging endpoint. Strictly fire-and-forget: the answer is already on its
// way back to the caller, so delivery failures are only logged.
type Observer struct {
	url    string
	client *http.Client
	log    *zap.Logger
}

func NewObserver(url string, log *zap.Logger) *Observer {
	return &Observer{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

// Record ships the event in the background.
func (o *Observer) Record(ev Event) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := o.post(ctx, ev); err != nil {
			o.log.Warn("observer post failed",
				zap.String("conversation_id", ev.ConversationID), zap.Error(err))
		}
	}()
}

func (o *Observer) post(ctx context.Context, ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("observer endpoint: %s body=%s", resp.Status, body)
	}
	return nil
}
