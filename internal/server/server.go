package server

import (
	"context"
	"log/slog"
	"os"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/mfuentes/plaza/internal/auth"
	"github.com/mfuentes/plaza/internal/config"
	"github.com/mfuentes/plaza/internal/database"
	"github.com/mfuentes/plaza/internal/domain"
	"github.com/mfuentes/plaza/internal/gateway"
	"github.com/mfuentes/plaza/internal/handlers"
	"github.com/mfuentes/plaza/internal/logging"
	"github.com/mfuentes/plaza/internal/middleware"
	"github.com/mfuentes/plaza/internal/presence"
	"github.com/mfuentes/plaza/internal/pubsub"
	"github.com/surrealdb/surrealdb.go"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	E   *echo.Echo
	DB  *surrealdb.DB
	Cfg *config.Config

	userStore    domain.UserRepository
	messageStore domain.MessageStore
	productStore domain.ProductRepository

	issuer   *auth.TokenIssuer
	verifier domain.Verifier

	bus         *pubsub.WatermillBridge
	gateway     *gateway.Gateway
	broadcaster *gateway.Broadcaster
	tracker     *presence.Tracker

	authHandler    *handlers.AuthHandler
	productHandler *handlers.ProductHandler
}

// New creates a new Server instance with every dependency wired.
func New() *Server {
	logging.New()
	cfg := config.New()

	db, err := database.NewDB(context.Background(), cfg)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	return build(cfg, db)
}

// build wires a Server around an already connected database.
func build(cfg *config.Config, db *surrealdb.DB) *Server {
	userStore := database.NewSurrealUserStore(db, cfg.DBNs, cfg.DBDb)
	messageStore := database.NewSurrealMessageStore(db, cfg.DBNs, cfg.DBDb)
	productStore := database.NewSurrealProductStore(db, cfg.DBNs, cfg.DBDb)

	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	verifier := auth.NewCredentialVerifier(issuer, userStore)

	bus := pubsub.NewWatermillBridge()
	registry := gateway.NewRegistry()
	gw := gateway.New(verifier, messageStore, bus, registry,
		gateway.WithHistoryLimit(cfg.HistoryLimit))
	broadcaster := gateway.NewBroadcaster(bus, registry)
	tracker := presence.NewTracker()

	e := echo.New()
	e.HideBanner = true
	e.Validator = handlers.NewValidator()
	e.Use(echomw.RequestID())
	e.Use(echomw.Logger())
	e.Use(middleware.Logger)
	e.Use(echomw.Recover())

	return &Server{
		E:              e,
		DB:             db,
		Cfg:            cfg,
		userStore:      userStore,
		messageStore:   messageStore,
		productStore:   productStore,
		issuer:         issuer,
		verifier:       verifier,
		bus:            bus,
		gateway:        gw,
		broadcaster:    broadcaster,
		tracker:        tracker,
		authHandler:    handlers.NewAuthHandler(userStore, issuer),
		productHandler: handlers.NewProductHandler(productStore),
	}
}

// UserStore is a getter for the server's user store, useful for testing.
func (s *Server) UserStore() domain.UserRepository {
	return s.userStore
}

// TokenIssuer is a getter for the server's token issuer, useful for testing.
func (s *Server) TokenIssuer() *auth.TokenIssuer {
	return s.issuer
}

// Tracker exposes the presence tracker.
func (s *Server) Tracker() *presence.Tracker {
	return s.tracker
}
