package auth

import (
	"context"
	"errors"

	"github.com/mfuentes/plaza/internal/domain"
)

// CredentialVerifier resolves a bearer token to the identity it proves. It is
// a pure pre-admission check: validate the signature and expiry, then confirm
// the referenced user still exists.
type CredentialVerifier struct {
	issuer *TokenIssuer
	users  domain.UserRepository
}

// NewCredentialVerifier creates a verifier backed by the given token issuer
// and user repository.
func NewCredentialVerifier(issuer *TokenIssuer, users domain.UserRepository) *CredentialVerifier {
	return &CredentialVerifier{issuer: issuer, users: users}
}

// Verify implements domain.Verifier.
func (v *CredentialVerifier) Verify(ctx context.Context, token string) (domain.Identity, error) {
	if token == "" {
		return domain.Identity{}, domain.ErrInvalidToken
	}

	claims, err := v.issuer.Validate(token)
	if err != nil {
		return domain.Identity{}, err
	}

	user, err := v.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Identity{}, domain.ErrIdentityNotFound
		}
		return domain.Identity{}, err
	}
	if user == nil {
		return domain.Identity{}, domain.ErrIdentityNotFound
	}

	return user.Identity(), nil
}
