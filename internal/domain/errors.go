package domain

import "errors"

// Sentinel errors for the domain layer. These provide consistent, checkable
// errors for common business logic failures.
var (
	ErrUserAlreadyExists  = errors.New("user with this email or username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials provided")
	ErrNotFound           = errors.New("requested resource not found")
)

// Credential verification failures. All three are fatal to a connection
// attempt: the gateway closes the handshake with reason authentication_error
// and never admits the connection.
var (
	// ErrInvalidToken indicates a missing, malformed or badly signed credential.
	ErrInvalidToken = errors.New("invalid credential token")

	// ErrExpiredToken indicates a credential whose validity window has passed.
	ErrExpiredToken = errors.New("expired credential token")

	// ErrIdentityNotFound indicates a well-formed credential referencing a user
	// that no longer exists.
	ErrIdentityNotFound = errors.New("identity not found")
)

// Chat message validation failures. These are connection-scoped: the message
// is rejected before persistence and the connection stays open.
var (
	ErrEmptyMessage   = errors.New("message text is empty")
	ErrMessageTooLong = errors.New("message text exceeds maximum length")
)
