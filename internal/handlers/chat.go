package handlers

import (
	"encoding/json"
	"net/http"

	"housing-backend/internal/models"
	"housing-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// ChatHandler handles chat-related HTTP requests
type ChatHandler struct {
	chatService *services.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

// SendMessage handles POST /api/v1/chats/{stream}/messages
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stream := models.Stream(chi.URLParam(r, "stream"))

	var req services.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	id, err := h.chatService.SendMessage(ctx, stream, req)
	if err != nil {
		log.Error().
			Err(err).
			Str("stream", string(stream)).
			Str("user", req.User).
			Msg("Failed to send message")
		respondServiceError(w, err, "Failed to send message")
		return
	}

	log.Debug().
		Str("stream", string(stream)).
		Int64("message_id", id).
		Msg("Message sent")

	respondJSON(w, map[string]int64{"id": id}, http.StatusCreated)
}

// ListMessages handles GET /api/v1/chats/{stream}/messages
func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stream := models.Stream(chi.URLParam(r, "stream"))

	messages, err := h.chatService.ListMessages(ctx, stream)
	if err != nil {
		log.Error().Err(err).Str("stream", string(stream)).Msg("Failed to list messages")
		respondServiceError(w, err, "Failed to list messages")
		return
	}

	respondJSON(w, map[string]interface{}{
		"stream":   stream,
		"messages": messages,
	}, http.StatusOK)
}
