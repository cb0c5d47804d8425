package testutils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfuentes/plaza/internal/domain"
)

func TestMemoryUserStore_MissIsErrNotFound(t *testing.T) {
	store := NewMemoryUserStore()
	ctx := context.Background()

	created, err := store.Create(ctx, &domain.User{
		Username: "maria",
		Email:    "maria@example.com",
		Role:     domain.RoleStandard,
	})
	require.NoError(t, err)

	// Every Find* reports a miss the same way.
	_, err = store.FindByID(ctx, "user:missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.FindByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	found, err := store.FindByEmail(ctx, "maria@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}
