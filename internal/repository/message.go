package repository

import (
	"context"
	"fmt"
	"time"

	"housing-backend/internal/models"
)

// MessageRepository stores the chat streams.
// Implementations acquire and release their connection inside every call.
type MessageRepository interface {
	EnsureSchema(ctx context.Context) error
	Append(ctx context.Context, stream models.Stream, author, body string) (int64, error)
	ListAll(ctx context.Context, stream models.Stream) ([]models.ChatMessage, error)
}

// tableFor maps a stream to its backing table
func tableFor(stream models.Stream) (string, error) {
	switch stream {
	case models.StreamShared:
		return "messages", nil
	case models.StreamGroup:
		return "group_chat_messages", nil
	default:
		return "", fmt.Errorf("unknown stream %q: %w", stream, ErrInvalidInput)
	}
}

func validateMessage(stream models.Stream, author, body string) (string, error) {
	table, err := tableFor(stream)
	if err != nil {
		return "", err
	}
	if author == "" || body == "" {
		return "", fmt.Errorf("user and message are required: %w", ErrInvalidInput)
	}
	return table, nil
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
}

// parseTimestamp accepts the shapes a DATETIME column comes back as
func parseTimestamp(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case int64:
		return time.Unix(t, 0).UTC(), nil
	case []byte:
		return parseTimestamp(string(t))
	case string:
		for _, layout := range timestampLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized timestamp %q", t)
	case nil:
		return time.Time{}, nil
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp type %T", v)
	}
}
