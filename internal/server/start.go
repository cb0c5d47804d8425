package server

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// Start runs the event subscribers and the HTTP server, then blocks until an
// interrupt or terminate signal arrives and shuts everything down.
func (s *Server) Start(addr string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.broadcaster.Start(ctx); err != nil {
		slog.Error("Failed to start broadcaster", "error", err)
		os.Exit(1)
	}
	if err := s.tracker.Start(ctx, s.bus); err != nil {
		slog.Error("Failed to start presence tracker", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := s.E.Start(addr); err != nil && err != http.ErrServerClosed {
			s.E.Logger.Fatalf("shutting down the server: %v", err)
		}
	}()

	waitForShutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	cancel()
	if err := s.bus.Close(); err != nil {
		slog.Error("Failed to close event bus", "error", err)
	}
	s.DB.Close(shutdownCtx)
	if err := s.E.Shutdown(shutdownCtx); err != nil {
		s.E.Logger.Fatal(err)
	}
}

// waitForShutdown blocks until an interrupt or terminate signal is received.
func waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
}
