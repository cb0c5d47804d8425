package database

import (
	"context"
	"fmt"
	"time"

	"github.com/mfuentes/plaza/internal/domain"
	"github.com/samber/lo"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// messageRecord mirrors domain.ChatMessage with the driver's record id type.
type messageRecord struct {
	ID         *surrealmodels.RecordID `json:"id,omitempty"`
	Text       string                  `json:"text"`
	AuthorID   string                  `json:"userId"`
	AuthorName string                  `json:"username"`
	CreatedAt  time.Time               `json:"createdAt"`
}

func (r messageRecord) toDomain() domain.ChatMessage {
	msg := domain.ChatMessage{
		Text:       r.Text,
		AuthorID:   r.AuthorID,
		AuthorName: r.AuthorName,
		CreatedAt:  r.CreatedAt,
	}
	if r.ID != nil {
		msg.ID = r.ID.String()
	}
	return msg
}

// SurrealMessageStore is the durable append-only chat log backed by SurrealDB.
// Messages are never updated or deleted by this store.
type SurrealMessageStore struct {
	db     *surrealdb.DB
	ns     string
	dbName string
}

// NewSurrealMessageStore creates a new SurrealMessageStore.
func NewSurrealMessageStore(db *surrealdb.DB, ns, dbName string) *SurrealMessageStore {
	return &SurrealMessageStore{db: db, ns: ns, dbName: dbName}
}

// Append persists a new message. The database assigns the record id and the
// creation timestamp in a single atomic CREATE, which is what gives the log
// its identity-increases-with-time guarantee.
func (s *SurrealMessageStore) Append(ctx context.Context, msg domain.ChatMessage) (*domain.ChatMessage, error) {
	if err := s.db.Use(ctx, s.ns, s.dbName); err != nil {
		return nil, fmt.Errorf("failed to set database scope: %w", err)
	}

	query := `
		CREATE message CONTENT {
			text: $text,
			userId: $userId,
			username: $username,
			createdAt: time::now()
		} RETURN AFTER
	`
	params := map[string]any{
		"text":     msg.Text,
		"userId":   msg.AuthorID,
		"username": msg.AuthorName,
	}

	created, err := QueryOne[messageRecord](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create and fetch message: %w", err)
	}
	if created == nil {
		return nil, fmt.Errorf("message was not created or could not be fetched")
	}

	persisted := created.toDomain()
	return &persisted, nil
}

// Recent retrieves up to limit messages, most recent first. Ordering ties on
// createdAt are broken by record id, the store's insertion sequence.
func (s *SurrealMessageStore) Recent(ctx context.Context, limit int) ([]domain.ChatMessage, error) {
	if err := s.db.Use(ctx, s.ns, s.dbName); err != nil {
		return nil, fmt.Errorf("failed to set database scope: %w", err)
	}

	query := "SELECT * FROM message ORDER BY createdAt DESC, id DESC LIMIT $limit"
	params := map[string]any{"limit": limit}

	records, err := Query[messageRecord](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	return lo.Map(records, func(r messageRecord, _ int) domain.ChatMessage {
		return r.toDomain()
	}), nil
}
