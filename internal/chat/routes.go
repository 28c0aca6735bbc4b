package chat

import "github.com/go-chi/chi/v5"

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/api/chat", h.HandleChat)
	r.Get("/api/chat/history/{conversationID}", h.HandleHistory)
	r.Get("/api/chat/summary/{conversationID}", h.HandleSummary)
	r.Get("/api/conversations", h.HandleConversations)
}
