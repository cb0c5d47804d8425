package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/mfuentes/plaza/internal/domain"
	"github.com/mfuentes/plaza/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubVerifier resolves one known token.
type stubVerifier struct {
	token    string
	identity domain.Identity
}

func (v *stubVerifier) Verify(ctx context.Context, token string) (domain.Identity, error) {
	if token == v.token {
		return v.identity, nil
	}
	return domain.Identity{}, domain.ErrInvalidToken
}

func runProtected(t *testing.T, mw echo.MiddlewareFunc, header string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()

	var reached bool
	handler := mw(func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	require.NoError(t, handler(e.NewContext(req, rec)))
	return rec, reached
}

func TestAuth(t *testing.T) {
	verifier := &stubVerifier{
		token:    "valid-token",
		identity: domain.Identity{ID: "user:1", Username: "maria", Role: domain.RoleStandard},
	}
	mw := middleware.Auth(verifier)

	t.Run("admits a valid bearer token", func(t *testing.T) {
		rec, reached := runProtected(t, mw, "Bearer valid-token")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, reached)
	})

	t.Run("rejects a missing header", func(t *testing.T) {
		rec, reached := runProtected(t, mw, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, reached)
	})

	t.Run("rejects a non-bearer header", func(t *testing.T) {
		rec, reached := runProtected(t, mw, "Basic dXNlcjpwYXNz")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, reached)
	})

	t.Run("rejects an unknown token", func(t *testing.T) {
		rec, reached := runProtected(t, mw, "Bearer forged-token")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, reached)
	})

	t.Run("stores the identity for downstream handlers", func(t *testing.T) {
		e := echo.New()
		handler := mw(func(c echo.Context) error {
			identity, ok := middleware.IdentityFrom(c)
			require.True(t, ok)
			assert.Equal(t, "user:1", identity.ID)
			assert.Equal(t, "maria", identity.Username)
			return c.NoContent(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer valid-token")
		rec := httptest.NewRecorder()
		require.NoError(t, handler(e.NewContext(req, rec)))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	run := func(t *testing.T, identity *domain.Identity, roles ...domain.Role) (*httptest.ResponseRecorder, bool) {
		t.Helper()
		e := echo.New()

		var reached bool
		handler := middleware.RequireRole(roles...)(func(c echo.Context) error {
			reached = true
			return c.NoContent(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodPost, "/admin", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if identity != nil {
			c.Set(middleware.UserContextKey, *identity)
		}
		require.NoError(t, handler(c))
		return rec, reached
	}

	t.Run("admits a matching role", func(t *testing.T) {
		rec, reached := run(t, &domain.Identity{ID: "user:1", Role: domain.RoleAdmin}, domain.RoleAdmin)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, reached)
	})

	t.Run("forbids a non-matching role", func(t *testing.T) {
		rec, reached := run(t, &domain.Identity{ID: "user:1", Role: domain.RoleStandard}, domain.RoleAdmin)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.False(t, reached)
	})

	t.Run("rejects when no identity is present", func(t *testing.T) {
		rec, reached := run(t, nil, domain.RoleAdmin)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, reached)
	})
}
