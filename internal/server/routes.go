package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mfuentes/plaza/internal/domain"
	"github.com/mfuentes/plaza/internal/middleware"
)

// RegisterRoutes sets up all the application routes.
func (s *Server) RegisterRoutes() {
	rateLimiter := middleware.RateLimiter(10)
	authed := middleware.Auth(s.verifier)
	adminOnly := middleware.RequireRole(domain.RoleAdmin)

	api := s.E.Group("/api")

	api.POST("/auth/register", s.authHandler.Register, rateLimiter)
	api.POST("/auth/login", s.authHandler.Login, rateLimiter)
	api.GET("/auth/profile", s.authHandler.Profile, authed)

	products := api.Group("/products", authed)
	products.GET("", s.productHandler.List)
	products.GET("/:id", s.productHandler.Get)
	products.POST("", s.productHandler.Create, adminOnly)
	products.PUT("/:id", s.productHandler.Update, adminOnly)
	products.DELETE("/:id", s.productHandler.Delete, adminOnly)

	s.E.GET("/ws/chat", s.gateway.Handler())

	s.E.GET("/chat/presence", func(c echo.Context) error {
		return c.JSON(http.StatusOK, s.tracker.Snapshot())
	}, authed)

	s.E.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
}
