package chat

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	svc   Service
	store History
}

func NewHandler(svc Service, store History) *Handler {
	return &Handler{svc: svc, store: store}
}

// HandleChat — POST /api/chat
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var q Query
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if q.UserID == "" || q.Domain == "" || q.Question == "" {
		http.Error(w, "missing user_id, domain or question", http.StatusBadRequest)
		return
	}

	// Answer never fails; degraded answers are still 200s.
	writeJSON(w, h.svc.Answer(r.Context(), q))
}

// HandleHistory — GET /api/chat/history/{conversationID}
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	msgs := h.store.Read(r.Context(), conversationID)
	writeJSON(w, map[string]any{
		"conversation_id": conversationID,
		"messages":        msgs,
	})
}

// HandleSummary — GET /api/chat/summary/{conversationID}
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	summary, err := h.store.Summary(r.Context(), conversationID)
	if err != nil {
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	if summary == nil {
		http.Error(w, "conversation not found", http.StatusNotFound)
		return
	}
	writeJSON(w, summary)
}

// HandleConversations — GET /api/conversations
func (h *Handler) HandleConversations(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.store.List(r.Context())
	if err != nil {
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"conversations": summaries})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
