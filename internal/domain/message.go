package domain

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxMessageLength bounds the text of a single chat message, in characters.
const MaxMessageLength = 1000

// ChatMessage is one entry in the append-only chat log. Once persisted it is
// never mutated or deleted by this system. Messages are totally ordered by
// CreatedAt; ties are broken by the store's insertion sequence.
type ChatMessage struct {
	ID         string    `json:"id,omitempty"`
	Text       string    `json:"text"`
	AuthorID   string    `json:"userId"`
	AuthorName string    `json:"username"`
	CreatedAt  time.Time `json:"timestamp"`
}

// ValidateMessageText trims the candidate text and reports whether the result
// is sendable. Validation happens on the server regardless of what the client
// checked; the trimmed text is returned for persistence.
func ValidateMessageText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", ErrEmptyMessage
	}
	if utf8.RuneCountInString(trimmed) > MaxMessageLength {
		return "", ErrMessageTooLong
	}
	return trimmed, nil
}

// MessageStore is the durable append-only log of chat messages.
//
// Append must be atomic and assign an identity that increases with time;
// Recent must reflect every append that completed before the call returned,
// ordered most recent first.
type MessageStore interface {
	Append(ctx context.Context, msg ChatMessage) (*ChatMessage, error)
	Recent(ctx context.Context, limit int) ([]ChatMessage, error)
}
