package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/mfuentes/plaza/internal/domain"
)

const UserContextKey = "identity"

// Auth creates a middleware that protects API routes. It expects a bearer
// token in the Authorization header, resolves it through the verifier and
// stores the resulting identity in the request context.
func Auth(verifier domain.Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c.Request().Header.Get("Authorization"))
			if token == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"code":    "unauthorized",
					"message": "Authentication required.",
				})
			}

			identity, err := verifier.Verify(c.Request().Context(), token)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"code":    "unauthorized",
					"message": "Invalid or expired token.",
				})
			}

			c.Set(UserContextKey, identity)
			return next(c)
		}
	}
}

// RequireRole gates a route group to the named roles. It must run after Auth.
func RequireRole(roles ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, ok := IdentityFrom(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"code":    "unauthorized",
					"message": "Authentication required.",
				})
			}
			for _, role := range roles {
				if identity.Role == role {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, map[string]string{
				"code":    "forbidden",
				"message": "You do not have permission to perform this action.",
			})
		}
	}
}

// IdentityFrom extracts the verified identity stored by Auth.
func IdentityFrom(c echo.Context) (domain.Identity, bool) {
	identity, ok := c.Get(UserContextKey).(domain.Identity)
	return identity, ok
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if strings.HasPrefix(header, prefix) {
		return strings.TrimSpace(strings.TrimPrefix(header, prefix))
	}
	return ""
}
