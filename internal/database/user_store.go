package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mfuentes/plaza/internal/domain"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// userRecord mirrors domain.User with the driver's record id type.
type userRecord struct {
	ID           *surrealmodels.RecordID `json:"id,omitempty"`
	Username     string                  `json:"username"`
	Email        string                  `json:"email"`
	PasswordHash string                  `json:"passwordHash"`
	Role         string                  `json:"role"`
	CreatedAt    time.Time               `json:"createdAt"`
}

func (r *userRecord) toDomain() *domain.User {
	u := &domain.User{
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Role:         domain.Role(r.Role),
		CreatedAt:    r.CreatedAt,
	}
	if r.ID != nil {
		u.ID = r.ID.String()
	}
	return u
}

// SurrealUserStore encapsulates database operations for users using SurrealDB.
type SurrealUserStore struct {
	db     *surrealdb.DB
	ns     string
	dbName string
}

// NewSurrealUserStore creates a new SurrealUserStore.
func NewSurrealUserStore(db *surrealdb.DB, ns, dbName string) *SurrealUserStore {
	return &SurrealUserStore{db: db, ns: ns, dbName: dbName}
}

// Create inserts a new user. Username and email uniqueness are enforced here
// because the messaging layer keys broadcasts on both.
func (s *SurrealUserStore) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := s.db.Use(ctx, s.ns, s.dbName); err != nil {
		return nil, fmt.Errorf("failed to set database scope: %w", err)
	}

	existing, err := QueryOne[userRecord](ctx, s.db,
		"SELECT * FROM user WHERE email = $email OR username = $username",
		map[string]any{"email": user.Email, "username": user.Username})
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrUserAlreadyExists
	}

	query := `
		CREATE user CONTENT {
			username: $username,
			email: $email,
			passwordHash: $passwordHash,
			role: $role,
			createdAt: time::now()
		} RETURN AFTER
	`
	params := map[string]any{
		"username":     user.Username,
		"email":        user.Email,
		"passwordHash": user.PasswordHash,
		"role":         string(user.Role),
	}

	created, err := QueryOne[userRecord](ctx, s.db, query, params)
	if err != nil {
		// The schema may also carry unique indexes; surface those as the
		// domain duplicate error rather than a raw driver error.
		if strings.Contains(err.Error(), "already exists") {
			return nil, domain.ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	if created == nil {
		return nil, fmt.Errorf("user was not created or could not be fetched")
	}

	return created.toDomain(), nil
}

// FindByID resolves a user by the full record id (e.g. "user:abc123").
func (s *SurrealUserStore) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if err := s.db.Use(ctx, s.ns, s.dbName); err != nil {
		return nil, fmt.Errorf("failed to set database scope: %w", err)
	}

	record, err := QueryOne[userRecord](ctx, s.db,
		"SELECT * FROM type::record($id)", map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	if record == nil {
		return nil, domain.ErrNotFound
	}
	return record.toDomain(), nil
}

// FindByEmail queries for a single user by their email address. A miss is
// domain.ErrNotFound, matching FindByID.
func (s *SurrealUserStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := s.db.Use(ctx, s.ns, s.dbName); err != nil {
		return nil, fmt.Errorf("failed to set database scope: %w", err)
	}

	record, err := QueryOne[userRecord](ctx, s.db,
		"SELECT * FROM user WHERE email = $email", map[string]any{"email": email})
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	if record == nil {
		return nil, domain.ErrNotFound
	}
	return record.toDomain(), nil
}

// FindByUsername queries for a single user by their username. A miss is
// domain.ErrNotFound, matching FindByID.
func (s *SurrealUserStore) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	if err := s.db.Use(ctx, s.ns, s.dbName); err != nil {
		return nil, fmt.Errorf("failed to set database scope: %w", err)
	}

	record, err := QueryOne[userRecord](ctx, s.db,
		"SELECT * FROM user WHERE username = $username", map[string]any{"username": username})
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	if record == nil {
		return nil, domain.ErrNotFound
	}
	return record.toDomain(), nil
}
