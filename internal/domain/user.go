package domain

import (
	"context"
	"time"
)

// Role classifies what a user is allowed to do. Standard users can read the
// catalog and chat; admins can also mutate the catalog.
type Role string

const (
	RoleStandard Role = "standard"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleStandard || r == RoleAdmin
}

// User is the persisted account record.
type User struct {
	ID           string    `json:"id,omitempty"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt,omitempty"`
}

// Identity is the read-only view of a user that the messaging core binds to a
// connection once the credential verifier has resolved a token. The gateway
// never trusts client-supplied author fields; it always uses the bound Identity.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// Identity derives the read-only identity view from a user record.
func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Username: u.Username, Role: u.Role}
}

// UserRepository defines the contract for user data storage operations.
// It lives in the domain because it's a requirement OF the domain, not
// of the database implementation. Every Find* reports a miss as ErrNotFound.
type UserRepository interface {
	Create(ctx context.Context, user *User) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
}

// Verifier resolves an opaque bearer credential to the identity it proves.
// Implementations must fail with ErrInvalidToken, ErrExpiredToken or
// ErrIdentityNotFound; any other error is treated as an internal failure.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}
