package services

import (
	"context"
	"fmt"

	"housing-backend/internal/models"
	"housing-backend/internal/repository"
)

// ChatService handles the shared and group chat streams.
// Readers see new messages only when they list again.
type ChatService struct {
	messageRepo repository.MessageRepository
}

// NewChatService creates a new chat service
func NewChatService(messageRepo repository.MessageRepository) *ChatService {
	return &ChatService{messageRepo: messageRepo}
}

// SendMessageRequest represents a chat form submission
type SendMessageRequest struct {
	User    string `json:"user"`
	Message string `json:"message"`
}

// SendMessage appends a message to a stream and returns its id
func (s *ChatService) SendMessage(ctx context.Context, stream models.Stream, req SendMessageRequest) (int64, error) {
	if !stream.Valid() {
		return 0, fmt.Errorf("unknown stream %q: %w", stream, repository.ErrInvalidInput)
	}
	if req.User == "" || req.Message == "" {
		return 0, fmt.Errorf("user and message are required: %w", repository.ErrInvalidInput)
	}

	id, err := s.messageRepo.Append(ctx, stream, req.User, req.Message)
	if err != nil {
		return 0, fmt.Errorf("failed to send message: %w", err)
	}
	return id, nil
}

// ListMessages returns the whole stream, oldest first
func (s *ChatService) ListMessages(ctx context.Context, stream models.Stream) ([]models.ChatMessage, error) {
	if !stream.Valid() {
		return nil, fmt.Errorf("unknown stream %q: %w", stream, repository.ErrInvalidInput)
	}
	return s.messageRepo.ListAll(ctx, stream)
}
