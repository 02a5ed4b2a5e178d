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

// heartbeatInterval is how often connected clients hear from the server even
// when nothing changes.
const heartbeatInterval = 5 * time.Second

// Start runs the service until SIGINT/SIGTERM, then shuts down gracefully,
// writing the roster out one final time.
func (s *Server) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.wireBackground(ctx); err != nil {
		slog.Error("Failed to start background services", "error", err)
		os.Exit(1)
	}
	go s.runHeartbeat(ctx)

	go func() {
		if err := s.E.Start(s.cfg.Addr); err != nil && err != http.ErrServerClosed {
			s.E.Logger.Fatalf("shutting down the server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	cancel()
	if err := s.store.Save(s.tracker.Current()); err != nil {
		slog.Error("Final state save failed", "error", err)
	}
	s.bus.Close()
	if err := s.E.Shutdown(shutdownCtx); err != nil {
		s.E.Logger.Fatal(err)
	}
}

// runHeartbeat broadcasts a hello event on a fixed cadence so clients can
// tell a quiet session from a dead connection.
func (s *Server) runHeartbeat(ctx context.Context) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.broadcastHello(ctx)
		}
	}
}
