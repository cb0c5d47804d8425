package handlers

import (
	"time"

	"github.com/mfuentes/plaza/internal/domain"
)

// ErrorResponse is the standard format for API error responses.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// UserResponse is the DTO for a single user. The password hash never leaves
// the server.
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserResponse creates a UserResponse DTO from a domain.User.
func NewUserResponse(user *domain.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
	}
}

// AuthResponse is returned by register and login: the bearer token plus the
// account it represents.
type AuthResponse struct {
	Token string        `json:"token"`
	User  *UserResponse `json:"user"`
}
