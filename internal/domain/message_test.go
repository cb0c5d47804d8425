package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMessageText(t *testing.T) {
	t.Run("accepts and trims ordinary text", func(t *testing.T) {
		trimmed, err := ValidateMessageText("  hello world  ")
		require.NoError(t, err)
		assert.Equal(t, "hello world", trimmed)
	})

	t.Run("rejects empty text", func(t *testing.T) {
		_, err := ValidateMessageText("")
		assert.ErrorIs(t, err, ErrEmptyMessage)
	})

	t.Run("rejects whitespace-only text", func(t *testing.T) {
		_, err := ValidateMessageText("   \t\n  ")
		assert.ErrorIs(t, err, ErrEmptyMessage)
	})

	t.Run("accepts text at exactly the limit", func(t *testing.T) {
		text := strings.Repeat("a", MaxMessageLength)
		trimmed, err := ValidateMessageText(text)
		require.NoError(t, err)
		assert.Len(t, trimmed, MaxMessageLength)
	})

	t.Run("rejects text over the limit", func(t *testing.T) {
		_, err := ValidateMessageText(strings.Repeat("a", MaxMessageLength+1))
		assert.ErrorIs(t, err, ErrMessageTooLong)
	})

	t.Run("limit counts characters, not bytes", func(t *testing.T) {
		text := strings.Repeat("ñ", MaxMessageLength)
		trimmed, err := ValidateMessageText(text)
		require.NoError(t, err)
		assert.Equal(t, text, trimmed)

		_, err = ValidateMessageText(strings.Repeat("ñ", MaxMessageLength+1))
		assert.ErrorIs(t, err, ErrMessageTooLong)
	})

	t.Run("length is measured after trimming", func(t *testing.T) {
		text := "  " + strings.Repeat("a", MaxMessageLength) + "  "
		_, err := ValidateMessageText(text)
		assert.NoError(t, err)
	})
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleStandard.Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("superuser").Valid())
	assert.False(t, Role("").Valid())
}

func TestUserIdentity(t *testing.T) {
	user := &User{
		ID:           "user:1",
		Username:     "maria",
		Email:        "maria@example.com",
		PasswordHash: "secret-hash",
		Role:         RoleAdmin,
	}

	id := user.Identity()
	assert.Equal(t, "user:1", id.ID)
	assert.Equal(t, "maria", id.Username)
	assert.Equal(t, RoleAdmin, id.Role)
}
