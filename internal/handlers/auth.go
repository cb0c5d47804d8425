package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mfuentes/plaza/internal/auth"
	"github.com/mfuentes/plaza/internal/domain"
	"github.com/mfuentes/plaza/internal/middleware"
)

// AuthHandler handles authentication-related requests.
type AuthHandler struct {
	users  domain.UserRepository
	issuer *auth.TokenIssuer
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users domain.UserRepository, issuer *auth.TokenIssuer) *AuthHandler {
	return &AuthHandler{users: users, issuer: issuer}
}

// Register handles POST /api/auth/register. It creates the account, then
// signs the caller in by returning a fresh token alongside the new user.
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "invalid_request", Message: "Malformed request body."})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "validation_failed", Message: err.Error()})
	}

	role := domain.Role(req.Role)
	if req.Role == "" {
		role = domain.RoleStandard
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		middleware.FromContext(c.Request().Context()).Error("Failed to hash password", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Code: "internal_error", Message: "Could not create your account."})
	}

	user, err := h.users.Create(c.Request().Context(), &domain.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return c.JSON(http.StatusConflict, ErrorResponse{Code: "user_exists", Message: "A user with this email or username already exists."})
		}
		middleware.FromContext(c.Request().Context()).Error("Failed to create user", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Code: "internal_error", Message: "Could not create your account."})
	}

	token, err := h.issuer.Issue(user.ID)
	if err != nil {
		middleware.FromContext(c.Request().Context()).Error("Failed to issue token after registration", "error", err, "user_id", user.ID)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Code: "internal_error", Message: "Account created but sign-in failed. Please log in."})
	}

	return c.JSON(http.StatusCreated, AuthResponse{Token: token, User: NewUserResponse(user)})
}

// Login handles POST /api/auth/login. Unknown accounts and wrong passwords
// produce the same response so callers cannot probe for registered emails.
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "invalid_request", Message: "Malformed request body."})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "validation_failed", Message: err.Error()})
	}

	user, err := h.users.FindByEmail(c.Request().Context(), req.Email)
	if errors.Is(err, domain.ErrNotFound) {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Code: "invalid_credentials", Message: "Invalid email or password."})
	}
	if err != nil {
		middleware.FromContext(c.Request().Context()).Error("Failed to look up user", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Code: "internal_error", Message: "Could not sign you in."})
	}

	ok, err := auth.ComparePassword(req.Password, user.PasswordHash)
	if err != nil || !ok {
		if err != nil {
			middleware.FromContext(c.Request().Context()).Warn("Password comparison failed", "error", err, "user_id", user.ID)
		}
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Code: "invalid_credentials", Message: "Invalid email or password."})
	}

	token, err := h.issuer.Issue(user.ID)
	if err != nil {
		middleware.FromContext(c.Request().Context()).Error("Failed to issue token", "error", err, "user_id", user.ID)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Code: "internal_error", Message: "Could not sign you in."})
	}

	return c.JSON(http.StatusOK, AuthResponse{Token: token, User: NewUserResponse(user)})
}

// Profile handles GET /api/auth/profile, returning the account behind the
// presented token.
func (h *AuthHandler) Profile(c echo.Context) error {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Code: "unauthorized", Message: "Authentication required."})
	}

	user, err := h.users.FindByID(c.Request().Context(), identity.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Code: "not_found", Message: "User not found."})
		}
		middleware.FromContext(c.Request().Context()).Error("Failed to load profile", "error", err, "user_id", identity.ID)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Code: "internal_error", Message: "Could not load your profile."})
	}

	return c.JSON(http.StatusOK, NewUserResponse(user))
}
